// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/tpl2oas

package tpl2oas

import (
	"bytes"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// verifyResourceURL is the in-memory resource name used for compiled schemas.
const verifyResourceURL = "response.schema.json"

// VerifyExample validates value against schema and returns ErrExampleMismatch
// with validator details when it does not conform. Generated examples can fail
// on purpose: placeholders ignore pattern, length and item-count constraints.
// A nil schema accepts any value.
func VerifyExample(schema *Schema, value any) error {
	if schema == nil {
		return nil
	}

	schemaBytes, err := schema.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}

	schemaDoc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
	if err != nil {
		return fmt.Errorf("decode schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(verifyResourceURL, schemaDoc); err != nil {
		return fmt.Errorf("add schema resource: %w", err)
	}

	compiled, err := compiler.Compile(verifyResourceURL)
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	valueBytes, err := MarshalExampleJSON(value)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncodeExampleJSON, err)
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(valueBytes))
	if err != nil {
		return fmt.Errorf("decode example: %w", err)
	}

	if err := compiled.Validate(instance); err != nil {
		return fmt.Errorf("%w: %w", ErrExampleMismatch, err)
	}

	return nil
}
