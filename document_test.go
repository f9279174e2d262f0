// SPDX-License-Identifier: AGPL-3.0-only
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/tpl2oas

package tpl2oas

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const foreignDocumentYAML = `openapi: 3.0.0
info:
  title: Demo
  version: "1"
paths:
  /users:
    parameters: []
    post:
      summary: Create user
      responses:
        "201":
          description: Created
`

// compileUser compiles the User fixture template.
func compileUser(t *testing.T) *Schema {
	t.Helper()

	schema, err := Compile(loadTestRegistry(t, userTemplatesXML), "User")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	return schema
}

// decodeDocumentJSON renders doc as JSON and decodes it into generic values.
func decodeDocumentJSON(t *testing.T, doc *Document) map[string]any {
	t.Helper()

	data, err := doc.Bytes(DocumentFormatJSON)
	if err != nil {
		t.Fatalf("Bytes(json): %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode document json: %v\n%s", err, data)
	}

	return out
}

func TestAppendOperationShape(t *testing.T) {
	t.Parallel()

	doc := NewDocument()
	err := doc.AppendOperation(Operation{
		Path:        "/users",
		Method:      "GET",
		Tag:         "users",
		Summary:     "List users",
		OperationID: "listUsers",
		Schema:      &Schema{Type: SchemaTypeString},
	})
	if err != nil {
		t.Fatalf("AppendOperation: %v", err)
	}

	got := decodeDocumentJSON(t, doc)
	want := map[string]any{
		"paths": map[string]any{
			"/users": map[string]any{
				"get": map[string]any{
					"tags":        []any{"users"},
					"summary":     "List users",
					"operationId": "listUsers",
					"responses": map[string]any{
						"200": map[string]any{
							"description": "OK",
							"content": map[string]any{
								"application/json": map[string]any{
									"schema": map[string]any{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestAppendOperationOmitsEmptyMetadata(t *testing.T) {
	t.Parallel()

	doc := NewDocument()
	if err := doc.AppendOperation(Operation{Path: "/ping", Method: "head"}); err != nil {
		t.Fatalf("AppendOperation: %v", err)
	}

	got := decodeDocumentJSON(t, doc)
	operation := got["paths"].(map[string]any)["/ping"].(map[string]any)["head"].(map[string]any)
	for _, key := range []string{"tags", "summary", "operationId"} {
		if _, ok := operation[key]; ok {
			t.Fatalf("empty %s should be omitted: %v", key, operation)
		}
	}

	schema, err := doc.ResponseSchema("/ping", "HEAD", "")
	if err != nil || schema != nil {
		t.Fatalf("ResponseSchema = %v, %v; want nil, nil for null schema", schema, err)
	}
}

func TestAppendOperationOverwritesSameMethod(t *testing.T) {
	t.Parallel()

	doc := NewDocument()
	for _, schemaType := range []string{SchemaTypeString, SchemaTypeBoolean} {
		err := doc.AppendOperation(Operation{Path: "/flag", Method: "get", Summary: schemaType, Schema: &Schema{Type: schemaType}})
		if err != nil {
			t.Fatalf("AppendOperation: %v", err)
		}
	}

	if diff := cmp.Diff([]OperationRef{{Path: "/flag", Method: "GET"}}, doc.Operations()); diff != "" {
		t.Fatalf("Operations mismatch (-want +got):\n%s", diff)
	}

	schema, err := doc.ResponseSchema("/flag", "get", "200")
	if err != nil {
		t.Fatalf("ResponseSchema: %v", err)
	}

	if schema.Type != SchemaTypeBoolean {
		t.Fatalf("schema type = %q, want last written boolean", schema.Type)
	}
}

func TestAppendOperationKeepsForeignContent(t *testing.T) {
	t.Parallel()

	doc, err := ParseDocument([]byte(foreignDocumentYAML))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}

	if err := doc.AppendOperation(Operation{Path: "/users", Method: "get", Schema: compileUser(t)}); err != nil {
		t.Fatalf("AppendOperation: %v", err)
	}

	data, err := doc.Bytes(DocumentFormatYAML)
	if err != nil {
		t.Fatalf("Bytes(yaml): %v", err)
	}

	text := string(data)
	assertContains(t, text, "openapi: 3.0.0")
	assertContains(t, text, "title: Demo")
	assertContains(t, text, "summary: Create user")

	want := []OperationRef{
		{Path: "/users", Method: "POST"},
		{Path: "/users", Method: "GET"},
	}
	if diff := cmp.Diff(want, doc.Operations()); diff != "" {
		t.Fatalf("Operations mismatch (-want +got):\n%s", diff)
	}
}

func TestDocumentSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	schema := compileUser(t)
	for _, name := range []string{"openapi.yaml", "openapi.json"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), name)
			if _, err := AppendOperationFile(path, Operation{Path: "/users", Method: "get", Schema: schema}); err != nil {
				t.Fatalf("AppendOperationFile: %v", err)
			}

			if _, err := AppendOperationFile(path, Operation{Path: "/users", Method: "put", Schema: schema}); err != nil {
				t.Fatalf("AppendOperationFile second: %v", err)
			}

			if DocumentFormatForPath(path) == DocumentFormatJSON {
				data, err := os.ReadFile(path)
				if err != nil {
					t.Fatalf("read saved document: %v", err)
				}

				if !json.Valid(data) {
					t.Fatalf("saved .json document is not JSON:\n%s", data)
				}
			}

			loaded, err := LoadDocument(path)
			if err != nil {
				t.Fatalf("LoadDocument: %v", err)
			}

			if len(loaded.Operations()) != 2 {
				t.Fatalf("Operations = %v, want two", loaded.Operations())
			}

			got, err := loaded.ResponseSchema("/users", "GET", "")
			if err != nil {
				t.Fatalf("ResponseSchema: %v", err)
			}

			if !schema.Equal(got) {
				gotJSON, _ := got.MarshalJSON()
				wantJSON, _ := schema.MarshalJSON()
				t.Fatalf("schema changed on round trip\ngot:  %s\nwant: %s", gotJSON, wantJSON)
			}
		})
	}
}

func TestDocumentRoundTripKeepsWholeNumberDefault(t *testing.T) {
	t.Parallel()

	registry := loadTestRegistry(t, templatesXML(`
<jsontemplate name="Ratio">
  <key name="r" type="Double" default="2"/>
</jsontemplate>`))

	schema, err := Compile(registry, "Ratio")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	for _, name := range []string{"openapi.yaml", "openapi.json"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), name)
			if _, err := AppendOperationFile(path, Operation{Path: "/ratio", Method: "get", Schema: schema}); err != nil {
				t.Fatalf("AppendOperationFile: %v", err)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read saved document: %v", err)
			}

			assertContains(t, string(data), "2.0")

			loaded, err := LoadDocument(path)
			if err != nil {
				t.Fatalf("LoadDocument: %v", err)
			}

			got, err := loaded.ResponseSchema("/ratio", "get", "")
			if err != nil {
				t.Fatalf("ResponseSchema: %v", err)
			}

			if !schema.Equal(got) {
				gotJSON, _ := got.MarshalJSON()
				wantJSON, _ := schema.MarshalJSON()
				t.Fatalf("default changed on round trip\ngot:  %s\nwant: %s", gotJSON, wantJSON)
			}

			example, err := GenerateExampleYAML(got)
			if err != nil {
				t.Fatalf("GenerateExampleYAML: %v", err)
			}

			assertContains(t, string(example), "r: 2.0")
		})
	}
}

func TestParseSchemaNumberDefaultIsFloat(t *testing.T) {
	t.Parallel()

	schema, err := ParseSchema([]byte(`{"default":3,"type":"number"}`))
	if err != nil {
		t.Fatalf("ParseSchema: %v", err)
	}

	if got, ok := schema.Default.(float64); !ok || got != 3 {
		t.Fatalf("Default = %#v, want float64(3)", schema.Default)
	}
}

func TestResponseSchemaNotFound(t *testing.T) {
	t.Parallel()

	doc := NewDocument()
	if err := doc.AppendOperation(Operation{Path: "/users", Method: "get", Schema: compileUser(t)}); err != nil {
		t.Fatalf("AppendOperation: %v", err)
	}

	tests := []struct {
		path, method, status string
	}{
		{path: "/missing", method: "get"},
		{path: "/users", method: "delete"},
		{path: "/users", method: "get", status: "404"},
	}

	for _, tt := range tests {
		_, err := doc.ResponseSchema(tt.path, tt.method, tt.status)
		if !errors.Is(err, ErrSchemaNotFound) {
			t.Fatalf("ResponseSchema(%s %s %s): expected ErrSchemaNotFound, got %v", tt.method, tt.path, tt.status, err)
		}
	}

	_, err := ResponseExample(doc, "/missing", "post", "")
	var notFound *SchemaNotFoundError
	if !errors.As(err, &notFound) || notFound.Status != DefaultStatus || notFound.Method != "post" {
		t.Fatalf("expected SchemaNotFoundError with default status, got %#v", err)
	}
}

func TestResponseExampleFromDocument(t *testing.T) {
	t.Parallel()

	doc := NewDocument()
	if err := doc.AppendOperation(Operation{Path: "/users", Method: "get", Schema: compileUser(t)}); err != nil {
		t.Fatalf("AppendOperation: %v", err)
	}

	value, err := ResponseExample(doc, "/users", "GET", "200")
	if err != nil {
		t.Fatalf("ResponseExample: %v", err)
	}

	data, err := MarshalExampleJSON(value)
	if err != nil {
		t.Fatalf("MarshalExampleJSON: %v", err)
	}

	want := "{\n  \"name\": \"string_example\",\n  \"age\": 18\n}\n"
	if diff := cmp.Diff(want, string(data)); diff != "" {
		t.Fatalf("example mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDocumentInputs(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "  \n", "null\n", "~"} {
		doc, err := ParseDocument([]byte(input))
		if err != nil {
			t.Fatalf("ParseDocument(%q): %v", input, err)
		}

		if ops := doc.Operations(); len(ops) != 0 {
			t.Fatalf("ParseDocument(%q) operations = %v, want none", input, ops)
		}
	}

	for _, input := range []string{"- a\n- b\n", "just text", "a: [unclosed"} {
		if _, err := ParseDocument([]byte(input)); !errors.Is(err, ErrDecodeDocument) {
			t.Fatalf("ParseDocument(%q): expected ErrDecodeDocument, got %v", input, err)
		}
	}
}

func TestLoadDocumentMissingFile(t *testing.T) {
	t.Parallel()

	doc, err := LoadDocument(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}

	if ops := doc.Operations(); len(ops) != 0 {
		t.Fatalf("operations = %v, want none", ops)
	}
}

func TestAppendOperationRequiresPathAndMethod(t *testing.T) {
	t.Parallel()

	doc := NewDocument()
	if err := doc.AppendOperation(Operation{Method: "get"}); err == nil {
		t.Fatal("expected error for empty path")
	}

	if err := doc.AppendOperation(Operation{Path: "/x", Method: " "}); err == nil {
		t.Fatal("expected error for empty method")
	}
}
