// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/tpl2oas

package tpl2oas

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeMethod returns the document key form of an HTTP method ("get", "post", ...).
func NormalizeMethod(method string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(method))
}

// methodLabel returns the display form of an HTTP method ("GET", "POST", ...).
func methodLabel(method string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(method))
}

// MethodLabel returns the upper-case display form of an HTTP method.
func MethodLabel(method string) string {
	return methodLabel(method)
}
