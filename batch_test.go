// SPDX-License-Identifier: AGPL-3.0-only
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/tpl2oas

package tpl2oas

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestConvertScanned(t *testing.T) {
	t.Parallel()

	registry := loadTestRegistry(t, userTemplatesXML)
	ops, err := ScanOperations(strings.NewReader(userTemplatesXML))
	if err != nil {
		t.Fatalf("ScanOperations: %v", err)
	}

	doc := NewDocument()
	result, err := ConvertScanned(context.Background(), registry, doc, ops, BatchOptions{Concurrency: 2})
	if err != nil {
		t.Fatalf("ConvertScanned: %v", err)
	}

	want := []OperationRef{
		{Path: "/users", Method: "GET"},
		{Path: "/users", Method: "POST"},
		{Path: "/users/list", Method: "GET"},
	}
	if diff := cmp.Diff(want, result.Operations); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(want, doc.Operations()); diff != "" {
		t.Fatalf("document operations mismatch (-want +got):\n%s", diff)
	}

	got := decodeDocumentJSON(t, doc)
	post := got["paths"].(map[string]any)["/users"].(map[string]any)["post"].(map[string]any)
	if post["summary"] != "Auto generated User" || post["operationId"] != "User_post" {
		t.Fatalf("unexpected operation metadata: %v", post)
	}

	if diff := cmp.Diff([]any{DefaultTag}, post["tags"]); diff != "" {
		t.Fatalf("tags mismatch (-want +got):\n%s", diff)
	}

	list, err := doc.ResponseSchema("/users/list", "get", "")
	if err != nil {
		t.Fatalf("ResponseSchema: %v", err)
	}

	if list.Type != SchemaTypeArray || list.Items == nil || list.Items.Properties.Len() != 2 {
		t.Fatalf("unexpected list schema: %+v", list)
	}
}

func TestConvertScannedCustomOptions(t *testing.T) {
	t.Parallel()

	registry := loadTestRegistry(t, userTemplatesXML)
	ops := []ScannedOperation{{Path: "/me", Methods: []string{"GET"}, Template: "UserAlias"}}

	doc := NewDocument()
	_, err := ConvertScanned(context.Background(), registry, doc, ops, BatchOptions{Tag: "profile", SummaryPrefix: "Generated"})
	if err != nil {
		t.Fatalf("ConvertScanned: %v", err)
	}

	got := decodeDocumentJSON(t, doc)
	operation := got["paths"].(map[string]any)["/me"].(map[string]any)["get"].(map[string]any)
	if operation["summary"] != "Generated UserAlias" || operation["operationId"] != "UserAlias_get" {
		t.Fatalf("unexpected operation metadata: %v", operation)
	}
}

func TestConvertScannedFailureLeavesDocumentUntouched(t *testing.T) {
	t.Parallel()

	registry := loadTestRegistry(t, userTemplatesXML)
	ops := []ScannedOperation{
		{Path: "/users", Methods: []string{"get"}, Template: "User"},
		{Path: "/ghost", Methods: []string{"get"}, Template: "Ghost"},
	}

	doc := NewDocument()
	_, err := ConvertScanned(context.Background(), registry, doc, ops, BatchOptions{})
	if !errors.Is(err, ErrUnknownTemplate) {
		t.Fatalf("expected ErrUnknownTemplate, got %v", err)
	}

	if ops := doc.Operations(); len(ops) != 0 {
		t.Fatalf("document changed on failure: %v", ops)
	}
}

func TestConvertScannedCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ops := []ScannedOperation{{Path: "/users", Methods: []string{"get"}, Template: "User"}}
	_, err := ConvertScanned(ctx, loadTestRegistry(t, userTemplatesXML), NewDocument(), ops, BatchOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
