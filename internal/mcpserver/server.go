// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/tpl2oas

// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes template conversion and example generation as tools over stdio.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/woozymasta/tpl2oas/internal/config"
)

const serverInstructions = `tpl2oas MCP server: compiles XML jsontemplate definitions into JSON Schema, stores them as OpenAPI operations and generates example responses.

File arguments default to the project configuration (tpl2oas.yaml): templates file, document file and response status.`

// Run starts the MCP server over stdio and blocks until the client disconnects
// or the context is cancelled.
func Run(ctx context.Context, cfg *config.Config, version string) error {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "tpl2oas", Version: version},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	registerAllTools(server, &toolSet{cfg: cfg})
	return server.Run(ctx, &mcp.StdioTransport{})
}

func registerAllTools(server *mcp.Server, tools *toolSet) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "convert_template",
		Description: "Compile a named jsontemplate into JSON Schema. When path and method are given, the schema is also stored as the 200 application/json response of that operation in the document file, replacing any existing operation.",
	}, tools.handleConvert)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "sample_response",
		Description: "Generate an example response payload from the schema stored for path, method and status in the document file. Objects keep property order and arrays hold two items. Use verify=true to validate the example against its schema.",
	}, tools.handleSample)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_operations",
		Description: "List path and method pairs stored in the document file in document order.",
	}, tools.handleListOperations)
}

// errResult creates an MCP error result from an error.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}
