// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/tpl2oas

package tpl2oas

import (
	"fmt"
	"strconv"
	"strings"
)

// TypeTag is the declared type of a template entry.
type TypeTag int

const (
	// TypeString maps to {"type": "string"}. It is also the fallback for unset or unknown types.
	TypeString TypeTag = iota
	// TypeLong maps to {"type": "integer", "format": "int64"}.
	TypeLong
	// TypeDouble maps to {"type": "number", "format": "double"}.
	TypeDouble
	// TypeBoolean maps to {"type": "boolean"}.
	TypeBoolean
	// TypeJSONObject is an object, optionally shaped by another template.
	TypeJSONObject
	// TypeJSONArray is an array, optionally of another template.
	TypeJSONArray
)

// typeTagNames holds canonical source spelling for each tag.
var typeTagNames = [...]string{
	TypeString:     "String",
	TypeLong:       "Long",
	TypeDouble:     "Double",
	TypeBoolean:    "Boolean",
	TypeJSONObject: "JSONObject",
	TypeJSONArray:  "JSONArray",
}

// String returns canonical source spelling of the tag.
func (tag TypeTag) String() string {
	if tag < 0 || int(tag) >= len(typeTagNames) {
		return fmt.Sprintf("TypeTag(%d)", int(tag))
	}

	return typeTagNames[tag]
}

// ParseTypeTag parses a type attribute case-insensitively.
// Empty or unrecognized input yields TypeString with ok=false.
func ParseTypeTag(raw string) (TypeTag, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "string":
		return TypeString, true
	case "long":
		return TypeLong, true
	case "double":
		return TypeDouble, true
	case "boolean":
		return TypeBoolean, true
	case "jsonobject":
		return TypeJSONObject, true
	case "jsonarray":
		return TypeJSONArray, true
	default:
		return TypeString, false
	}
}

// ArraySize is a parsed "min-max" array cardinality constraint.
type ArraySize struct {
	Min int
	Max int
}

// ParseArraySize parses "min-max" into ArraySize and enforces min <= max.
func ParseArraySize(raw string) (ArraySize, error) {
	low, high, found := strings.Cut(strings.TrimSpace(raw), "-")
	if !found {
		return ArraySize{}, fmt.Errorf("array-size %q: expected min-max", raw)
	}

	minItems, err := strconv.Atoi(strings.TrimSpace(low))
	if err != nil {
		return ArraySize{}, fmt.Errorf("array-size %q: min: %w", raw, err)
	}

	maxItems, err := strconv.Atoi(strings.TrimSpace(high))
	if err != nil {
		return ArraySize{}, fmt.Errorf("array-size %q: max: %w", raw, err)
	}

	if minItems < 0 || minItems > maxItems {
		return ArraySize{}, fmt.Errorf("array-size %q: min must be in 0..max", raw)
	}

	return ArraySize{Min: minItems, Max: maxItems}, nil
}

// Entry is one descriptor of a template: either *KeyEntry or *ValueEntry.
type Entry interface {
	entryType() TypeTag
}

// KeyEntry describes one named field of an object template.
type KeyEntry struct {
	Name        string
	Type        TypeTag
	TemplateRef string
	Regex       string
	MaxLen      *int
	MinLen      *int
	ArraySize   *ArraySize
	Required    bool
	// Default is coerced to Type for scalar tags; unparsable values remain strings.
	Default     any
	Description string
	// Raw keeps source attributes as-is; not used by the compiler.
	Raw map[string]string
}

func (entry *KeyEntry) entryType() TypeTag { return entry.Type }

// ValueEntry describes a template that is a bare value instead of a field set.
type ValueEntry struct {
	Type        TypeTag
	TemplateRef string
	Raw         map[string]string
}

func (entry *ValueEntry) entryType() TypeTag { return entry.Type }

// Template is a named ordered list of entries.
type Template struct {
	Name    string
	Entries []Entry
}

// valueEntry returns the template's value entry when it is the only entry.
func (tpl Template) valueEntry() (*ValueEntry, bool) {
	if len(tpl.Entries) != 1 {
		return nil, false
	}

	value, ok := tpl.Entries[0].(*ValueEntry)
	return value, ok
}

// validate checks the value-entry invariant.
func (tpl Template) validate() error {
	for index, entry := range tpl.Entries {
		if _, ok := entry.(*ValueEntry); ok && (index > 0 || len(tpl.Entries) > 1) {
			return fmt.Errorf("value entry must be the only entry, template has %d entries", len(tpl.Entries))
		}
	}

	return nil
}

// coerceDefault converts a raw default attribute to the scalar type of tag.
func coerceDefault(tag TypeTag, raw string) any {
	switch tag {
	case TypeLong:
		if value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil {
			return value
		}
	case TypeDouble:
		if value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return value
		}
	case TypeBoolean:
		if value, err := strconv.ParseBool(strings.TrimSpace(raw)); err == nil {
			return value
		}
	}

	return raw
}
