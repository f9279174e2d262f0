// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/tpl2oas

package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/woozymasta/tpl2oas"
	"github.com/woozymasta/tpl2oas/internal/config"
)

// toolSet binds tool handlers to project configuration.
type toolSet struct {
	cfg *config.Config
}

type convertInput struct {
	Template    string `json:"template"                jsonschema:"Name of the jsontemplate to compile"`
	Templates   string `json:"templates,omitempty"     jsonschema:"XML template source file. Defaults to the configured templates file."`
	Document    string `json:"document,omitempty"      jsonschema:"OpenAPI document file to update. Defaults to the configured document."`
	Path        string `json:"path,omitempty"          jsonschema:"Operation path. Together with method stores the schema in the document."`
	Method      string `json:"method,omitempty"        jsonschema:"Operation HTTP method"`
	Tag         string `json:"tag,omitempty"           jsonschema:"Operation tag"`
	Summary     string `json:"summary,omitempty"       jsonschema:"Operation summary"`
	OperationID string `json:"operation_id,omitempty"  jsonschema:"Operation identifier"`
}

type convertOutput struct {
	Schema    string `json:"schema"`
	WrittenTo string `json:"written_to,omitempty"`
}

type sampleInput struct {
	Path     string `json:"path"                jsonschema:"Operation path"`
	Method   string `json:"method"              jsonschema:"Operation HTTP method"`
	Status   string `json:"status,omitempty"    jsonschema:"Response status. Defaults to the configured status."`
	Document string `json:"document,omitempty"  jsonschema:"OpenAPI document file. Defaults to the configured document."`
	Format   string `json:"format,omitempty"    jsonschema:"Example encoding: json (default) or yaml"`
	Verify   bool   `json:"verify,omitempty"    jsonschema:"Validate the example against its schema"`
}

type sampleOutput struct {
	Example  string `json:"example"`
	Format   string `json:"format"`
	Verified bool   `json:"verified,omitempty"`
}

type listInput struct {
	Document string `json:"document,omitempty" jsonschema:"OpenAPI document file. Defaults to the configured document."`
}

type listOutput struct {
	Count      int                    `json:"count"`
	Operations []tpl2oas.OperationRef `json:"operations"`
}

func (tools *toolSet) handleConvert(_ context.Context, _ *mcp.CallToolRequest, input convertInput) (*mcp.CallToolResult, convertOutput, error) {
	if strings.TrimSpace(input.Template) == "" {
		return errResult(errors.New("template is required")), convertOutput{}, nil
	}

	if (input.Path == "") != (input.Method == "") {
		return errResult(errors.New("path and method must be given together")), convertOutput{}, nil
	}

	registry, err := tpl2oas.LoadRegistryFile(orDefault(input.Templates, tools.cfg.Templates))
	if err != nil {
		return errResult(err), convertOutput{}, nil
	}

	schema, err := tpl2oas.Compile(registry, input.Template)
	if err != nil {
		return errResult(err), convertOutput{}, nil
	}

	data, err := schema.MarshalJSON()
	if err != nil {
		return errResult(fmt.Errorf("encode schema: %w", err)), convertOutput{}, nil
	}

	output := convertOutput{Schema: string(data)}
	if input.Path == "" {
		return nil, output, nil
	}

	documentPath := orDefault(input.Document, tools.cfg.Document)
	_, err = tpl2oas.AppendOperationFile(documentPath, tpl2oas.Operation{
		Path:        input.Path,
		Method:      input.Method,
		Tag:         input.Tag,
		Summary:     input.Summary,
		OperationID: input.OperationID,
		Schema:      schema,
	})
	if err != nil {
		return errResult(err), convertOutput{}, nil
	}

	output.WrittenTo = documentPath
	return nil, output, nil
}

func (tools *toolSet) handleSample(_ context.Context, _ *mcp.CallToolRequest, input sampleInput) (*mcp.CallToolResult, sampleOutput, error) {
	if input.Path == "" || input.Method == "" {
		return errResult(errors.New("path and method are required")), sampleOutput{}, nil
	}

	format, err := tpl2oas.NormalizeExampleFormat(tpl2oas.ExampleFormat(input.Format))
	if err != nil {
		return errResult(err), sampleOutput{}, nil
	}

	doc, err := tpl2oas.LoadDocument(orDefault(input.Document, tools.cfg.Document))
	if err != nil {
		return errResult(err), sampleOutput{}, nil
	}

	schema, err := doc.ResponseSchema(input.Path, input.Method, orDefault(input.Status, tools.cfg.Status))
	if err != nil {
		return errResult(err), sampleOutput{}, nil
	}

	output := sampleOutput{Format: string(format)}
	if input.Verify {
		if err := tpl2oas.VerifyExample(schema, tpl2oas.GenerateExample(schema)); err != nil {
			return errResult(err), sampleOutput{}, nil
		}

		output.Verified = true
	}

	data, err := tpl2oas.GenerateExampleBytes(schema, format)
	if err != nil {
		return errResult(err), sampleOutput{}, nil
	}

	output.Example = string(data)
	return nil, output, nil
}

func (tools *toolSet) handleListOperations(_ context.Context, _ *mcp.CallToolRequest, input listInput) (*mcp.CallToolResult, listOutput, error) {
	doc, err := tpl2oas.LoadDocument(orDefault(input.Document, tools.cfg.Document))
	if err != nil {
		return errResult(err), listOutput{}, nil
	}

	operations := doc.Operations()
	return nil, listOutput{Count: len(operations), Operations: operations}, nil
}

// orDefault returns value unless it is blank.
func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}
