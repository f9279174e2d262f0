// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/tpl2oas

package tpl2oas

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

var (
	scanPathPattern     = regexp.MustCompile(`path:\s*([^\s]+)`)
	scanMethodPattern   = regexp.MustCompile(`method:\s*([A-Za-z]+(?:\s*,\s*[A-Za-z]+)*)`)
	scanTemplatePattern = regexp.MustCompile(`name="([^"]+)"`)
)

// ScannedOperation is one template bound to a path and its methods by a source comment.
type ScannedOperation struct {
	Path     string
	Methods  []string
	Template string
}

// ScanOperationsFile scans a template source file for annotated templates.
func ScanOperationsFile(path string) ([]ScannedOperation, error) {
	file, err := os.Open(path) //nolint:gosec // path is provided by caller
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadTemplateFile, err)
	}
	defer func() {
		_ = file.Close()
	}()

	return ScanOperations(file)
}

// ScanOperations finds templates annotated by a preceding comment line such as
//
//	<!-- path: /users method: GET,POST -->
//	<jsontemplate name="User">
//
// A comment arms the scanner; the next <jsontemplate> line with a name consumes it.
func ScanOperations(reader io.Reader) ([]ScannedOperation, error) {
	var (
		out     []ScannedOperation
		current *ScannedOperation
	)

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case strings.HasPrefix(line, "<!--") && strings.Contains(line, "path:") && strings.Contains(line, "method:"):
			pathMatch := scanPathPattern.FindStringSubmatch(line)
			methodMatch := scanMethodPattern.FindStringSubmatch(line)
			if pathMatch == nil || methodMatch == nil {
				continue
			}

			current = &ScannedOperation{
				Path:    pathMatch[1],
				Methods: splitMethods(methodMatch[1]),
			}
		case strings.HasPrefix(line, "<jsontemplate") && current != nil:
			nameMatch := scanTemplatePattern.FindStringSubmatch(line)
			if nameMatch == nil {
				continue
			}

			current.Template = nameMatch[1]
			out = append(out, *current)
			current = nil
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan template source: %w", err)
	}

	return out, nil
}

// splitMethods splits a comma-separated method list into normalized methods.
func splitMethods(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		method := NormalizeMethod(part)
		if method == "" {
			continue
		}

		out = append(out, method)
	}

	return out
}
