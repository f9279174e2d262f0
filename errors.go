// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/tpl2oas

package tpl2oas

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStructural is matched by StructuralError.
	ErrStructural = errors.New("structural error")
	// ErrUnknownTemplate is matched by UnknownTemplateError.
	ErrUnknownTemplate = errors.New("unknown template")
	// ErrCyclicTemplate is matched by CyclicTemplateError.
	ErrCyclicTemplate = errors.New("cyclic template reference")
	// ErrSchemaNotFound is matched by SchemaNotFoundError.
	ErrSchemaNotFound = errors.New("schema not found")

	// ErrReadTemplateFile is returned when template source file loading fails.
	ErrReadTemplateFile = errors.New("read template file")
	// ErrDecodeTemplates is returned when template XML decoding fails.
	ErrDecodeTemplates = errors.New("decode templates")
	// ErrReadDocument is returned when API document file loading fails.
	ErrReadDocument = errors.New("read document")
	// ErrDecodeDocument is returned when API document decoding fails.
	ErrDecodeDocument = errors.New("decode document")
	// ErrEncodeDocument is returned when API document encoding fails.
	ErrEncodeDocument = errors.New("encode document")
	// ErrWriteDocument is returned when API document file writing fails.
	ErrWriteDocument = errors.New("write document")
	// ErrDecodeSchema is returned when a standalone schema cannot be decoded.
	ErrDecodeSchema = errors.New("decode schema")
	// ErrUnknownExampleFormat is returned when example output format is not supported.
	ErrUnknownExampleFormat = errors.New("unknown example format")
	// ErrEncodeExampleJSON is returned when generated example JSON encoding fails.
	ErrEncodeExampleJSON = errors.New("encode example json")
	// ErrEncodeExampleYAML is returned when generated example YAML encoding fails.
	ErrEncodeExampleYAML = errors.New("encode example yaml")
	// ErrExampleMismatch is returned when a generated example does not satisfy its schema.
	ErrExampleMismatch = errors.New("example does not match schema")
)

// StructuralError reports a template source that does not have the expected shape.
type StructuralError struct {
	// Source is the file path or "(reader)".
	Source string
	// Template names the offending template, if any.
	Template string
	// Message describes the structural problem.
	Message string
	// Cause is the underlying error, if any.
	Cause error
}

// Error returns a human-readable error message.
func (e *StructuralError) Error() string {
	msg := "structural error"
	if e.Source != "" {
		msg += " in " + e.Source
	}
	if e.Template != "" {
		msg += fmt.Sprintf(" (template %q)", e.Template)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *StructuralError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *StructuralError) Is(target error) bool {
	return target == ErrStructural
}

// UnknownTemplateError reports a template name missing from the registry.
type UnknownTemplateError struct {
	// Name is the requested template name.
	Name string
	// ReferencedBy is the template holding the reference; empty for a top-level request.
	ReferencedBy string
}

// Error returns a human-readable error message.
func (e *UnknownTemplateError) Error() string {
	if e.ReferencedBy == "" {
		return fmt.Sprintf("unknown template %q", e.Name)
	}
	return fmt.Sprintf("unknown template %q referenced by %q", e.Name, e.ReferencedBy)
}

// Is reports whether target matches this error type.
func (e *UnknownTemplateError) Is(target error) bool {
	return target == ErrUnknownTemplate
}

// CyclicTemplateError reports a template reference cycle.
type CyclicTemplateError struct {
	// Cycle lists template names from the first re-entered template back to itself.
	Cycle []string
}

// Error returns a human-readable error message.
func (e *CyclicTemplateError) Error() string {
	return "cyclic template reference: " + strings.Join(e.Cycle, " -> ")
}

// Is reports whether target matches this error type.
func (e *CyclicTemplateError) Is(target error) bool {
	return target == ErrCyclicTemplate
}

// SchemaNotFoundError reports a missing response schema in an API document.
type SchemaNotFoundError struct {
	Path   string
	Method string
	Status string
}

// Error returns a human-readable error message.
func (e *SchemaNotFoundError) Error() string {
	return fmt.Sprintf("schema not found for %s %s (%s)", methodLabel(e.Method), e.Path, e.Status)
}

// Is reports whether target matches this error type.
func (e *SchemaNotFoundError) Is(target error) bool {
	return target == ErrSchemaNotFound
}
