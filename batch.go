// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/tpl2oas

package tpl2oas

import (
	"context"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultTag is the operation tag used for batch conversion.
	DefaultTag = "auto"
	// DefaultSummaryPrefix prefixes generated operation summaries.
	DefaultSummaryPrefix = "Auto generated"
)

// BatchOptions configures ConvertScanned.
type BatchOptions struct {
	// Tag is attached to every operation; empty means DefaultTag.
	Tag string
	// SummaryPrefix is joined with the template name; empty means DefaultSummaryPrefix.
	SummaryPrefix string
	// Concurrency bounds parallel compilation; non-positive means GOMAXPROCS.
	Concurrency int
}

// BatchResult reports operations appended by ConvertScanned in append order.
type BatchResult struct {
	Operations []OperationRef
}

// ConvertScanned compiles every scanned template and appends one operation per
// method to doc in scan order. Templates compile in parallel; doc is only
// touched after all compilations succeed, so a failure leaves doc unchanged.
func ConvertScanned(ctx context.Context, registry *Registry, doc *Document, ops []ScannedOperation, opt BatchOptions) (BatchResult, error) {
	opt = normalizeBatchOptions(opt)
	compiler := NewCompiler(registry)

	names := uniqueTemplates(ops)
	schemas := make([]*Schema, len(names))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(opt.Concurrency)
	for index, name := range names {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			schema, err := compiler.Compile(name)
			if err != nil {
				return err
			}

			schemas[index] = schema
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return BatchResult{}, err
	}

	byName := make(map[string]*Schema, len(names))
	for index, name := range names {
		byName[name] = schemas[index]
	}

	result := BatchResult{Operations: make([]OperationRef, 0, len(ops))}
	for _, op := range ops {
		for _, method := range op.Methods {
			err := doc.AppendOperation(Operation{
				Path:        op.Path,
				Method:      method,
				Tag:         opt.Tag,
				Summary:     opt.SummaryPrefix + " " + op.Template,
				OperationID: op.Template + "_" + NormalizeMethod(method),
				Schema:      byName[op.Template],
			})
			if err != nil {
				return result, err
			}

			result.Operations = append(result.Operations, OperationRef{Path: op.Path, Method: methodLabel(method)})
		}
	}

	return result, nil
}

// normalizeBatchOptions applies defaults.
func normalizeBatchOptions(opt BatchOptions) BatchOptions {
	if strings.TrimSpace(opt.Tag) == "" {
		opt.Tag = DefaultTag
	}

	if strings.TrimSpace(opt.SummaryPrefix) == "" {
		opt.SummaryPrefix = DefaultSummaryPrefix
	}

	if opt.Concurrency <= 0 {
		opt.Concurrency = runtime.GOMAXPROCS(0)
	}

	return opt
}

// uniqueTemplates returns distinct template names in first-seen order.
func uniqueTemplates(ops []ScannedOperation) []string {
	seen := make(map[string]struct{}, len(ops))
	out := make([]string, 0, len(ops))
	for _, op := range ops {
		if _, exists := seen[op.Template]; exists {
			continue
		}

		seen[op.Template] = struct{}{}
		out = append(out, op.Template)
	}

	return out
}
