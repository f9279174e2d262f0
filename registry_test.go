// SPDX-License-Identifier: AGPL-3.0-only
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/tpl2oas

package tpl2oas

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const userTemplatesXML = `<?xml version="1.0" encoding="UTF-8"?>
<root>
  <jsontemplates>
    <!-- path: /users method: GET,POST -->
    <jsontemplate name="User">
      <key name="name" type="String" required="true" description="Display name"/>
      <key name="age" type="Long" default="18"/>
    </jsontemplate>
    <!-- path: /users/list method: get -->
    <jsontemplate name="UserList">
      <value type="JSONArray" template="User"/>
    </jsontemplate>
    <jsontemplate name="UserAlias">
      <value type="JSONObject" template="User"/>
    </jsontemplate>
    <jsontemplate>
      <key name="ignored"/>
    </jsontemplate>
  </jsontemplates>
</root>
`

// loadTestRegistry parses XML text or fails the test.
func loadTestRegistry(t *testing.T, source string) *Registry {
	t.Helper()

	registry, err := LoadRegistry(strings.NewReader(source))
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}

	return registry
}

// templatesXML wraps jsontemplate definitions into a source document.
func templatesXML(definitions string) string {
	return "<root><jsontemplates>" + definitions + "</jsontemplates></root>"
}

func TestLoadRegistryKeepsDefinitionOrder(t *testing.T) {
	t.Parallel()

	registry := loadTestRegistry(t, userTemplatesXML)
	want := []string{"User", "UserList", "UserAlias"}
	if diff := cmp.Diff(want, registry.Names()); diff != "" {
		t.Fatalf("Names mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRegistryKeyAttributes(t *testing.T) {
	t.Parallel()

	registry := loadTestRegistry(t, templatesXML(`
<jsontemplate name="Item">
  <key name="code" regex="^[A-Z]+$" max-len="8" min-len="2" required="1" description="Item code"/>
  <key name="tags" type="jsonarray" array-size="2-5"/>
  <key name="price" type="Double" default="9.5"/>
  <key name="active" type="Boolean" default="yes"/>
  <key type="Long"/>
</jsontemplate>`))

	tpl, ok := registry.Lookup("Item")
	if !ok {
		t.Fatal("template Item not found")
	}

	if len(tpl.Entries) != 4 {
		t.Fatalf("entries = %d, want 4 (nameless key skipped)", len(tpl.Entries))
	}

	code, ok := tpl.Entries[0].(*KeyEntry)
	if !ok {
		t.Fatalf("entry 0 type = %T, want *KeyEntry", tpl.Entries[0])
	}

	if code.Type != TypeString || code.Regex != "^[A-Z]+$" || !code.Required || code.Description != "Item code" {
		t.Fatalf("unexpected code entry: %+v", code)
	}

	if code.MaxLen == nil || *code.MaxLen != 8 || code.MinLen == nil || *code.MinLen != 2 {
		t.Fatalf("unexpected length bounds: max=%v min=%v", code.MaxLen, code.MinLen)
	}

	if code.Raw["max-len"] != "8" {
		t.Fatalf("raw attributes not kept: %v", code.Raw)
	}

	tags := tpl.Entries[1].(*KeyEntry)
	if tags.Type != TypeJSONArray || tags.ArraySize == nil || *tags.ArraySize != (ArraySize{Min: 2, Max: 5}) {
		t.Fatalf("unexpected tags entry: %+v", tags)
	}

	price := tpl.Entries[2].(*KeyEntry)
	if price.Default != 9.5 {
		t.Fatalf("price default = %#v, want 9.5", price.Default)
	}

	active := tpl.Entries[3].(*KeyEntry)
	if active.Default != "yes" {
		t.Fatalf("unparsable boolean default = %#v, want raw string", active.Default)
	}
}

func TestLoadRegistryAcceptsContainerAsRoot(t *testing.T) {
	t.Parallel()

	registry := loadTestRegistry(t, `<jsontemplates><jsontemplate name="A"><key name="x"/></jsontemplate></jsontemplates>`)
	if registry.Len() != 1 {
		t.Fatalf("Len = %d, want 1", registry.Len())
	}
}

func TestLoadRegistryMissingContainer(t *testing.T) {
	t.Parallel()

	_, err := LoadRegistry(strings.NewReader(`<root><templates/></root>`))
	if !errors.Is(err, ErrStructural) {
		t.Fatalf("expected ErrStructural, got %v", err)
	}

	var structural *StructuralError
	if !errors.As(err, &structural) || structural.Source != readerSource {
		t.Fatalf("expected StructuralError from reader, got %#v", err)
	}
}

func TestLoadRegistryStructuralErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		definition string
	}{
		{
			name:       "array size not a range",
			definition: `<jsontemplate name="A"><key name="x" type="JSONArray" array-size="3"/></jsontemplate>`,
		},
		{
			name:       "array size min above max",
			definition: `<jsontemplate name="A"><key name="x" type="JSONArray" array-size="5-2"/></jsontemplate>`,
		},
		{
			name:       "negative max length",
			definition: `<jsontemplate name="A"><key name="x" max-len="-1"/></jsontemplate>`,
		},
		{
			name:       "non numeric min length",
			definition: `<jsontemplate name="A"><key name="x" min-len="abc"/></jsontemplate>`,
		},
		{
			name:       "value mixed with keys",
			definition: `<jsontemplate name="A"><value type="Long"/><key name="x"/></jsontemplate>`,
		},
		{
			name:       "two values",
			definition: `<jsontemplate name="A"><value type="Long"/><value type="String"/></jsontemplate>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := LoadRegistry(strings.NewReader(templatesXML(tt.definition)))
			if !errors.Is(err, ErrStructural) {
				t.Fatalf("expected ErrStructural, got %v", err)
			}

			var structural *StructuralError
			if !errors.As(err, &structural) || structural.Template != "A" {
				t.Fatalf("expected error for template A, got %v", err)
			}
		})
	}
}

func TestLoadRegistryMalformedXML(t *testing.T) {
	t.Parallel()

	_, err := LoadRegistry(strings.NewReader(`<root><jsontemplates>`))
	if !errors.Is(err, ErrDecodeTemplates) {
		t.Fatalf("expected ErrDecodeTemplates, got %v", err)
	}
}

func TestLoadRegistryFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "templates.xml")
	if err := os.WriteFile(path, []byte(userTemplatesXML), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	registry, err := LoadRegistryFile(path)
	if err != nil {
		t.Fatalf("LoadRegistryFile: %v", err)
	}

	if registry.Len() != 3 {
		t.Fatalf("Len = %d, want 3", registry.Len())
	}

	_, err = LoadRegistryFile(filepath.Join(t.TempDir(), "missing.xml"))
	if !errors.Is(err, ErrReadTemplateFile) {
		t.Fatalf("expected ErrReadTemplateFile, got %v", err)
	}
}

func TestNewRegistryDuplicateNameLastWins(t *testing.T) {
	t.Parallel()

	registry, err := NewRegistry(
		Template{Name: "A", Entries: []Entry{&KeyEntry{Name: "first"}}},
		Template{Name: "B"},
		Template{Name: "A", Entries: []Entry{&KeyEntry{Name: "second"}}},
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	if diff := cmp.Diff([]string{"A", "B"}, registry.Names()); diff != "" {
		t.Fatalf("Names mismatch (-want +got):\n%s", diff)
	}

	tpl, _ := registry.Lookup("A")
	if key := tpl.Entries[0].(*KeyEntry); key.Name != "second" {
		t.Fatalf("Lookup(A) entry = %q, want second", key.Name)
	}
}

func TestNewRegistryRejectsValueWithKeys(t *testing.T) {
	t.Parallel()

	_, err := NewRegistry(Template{Name: "A", Entries: []Entry{
		&KeyEntry{Name: "x"},
		&ValueEntry{Type: TypeLong},
	}})
	if !errors.Is(err, ErrStructural) {
		t.Fatalf("expected ErrStructural, got %v", err)
	}
}

func TestParseTypeTag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw    string
		want   TypeTag
		wantOK bool
	}{
		{raw: "String", want: TypeString, wantOK: true},
		{raw: "long", want: TypeLong, wantOK: true},
		{raw: " Double ", want: TypeDouble, wantOK: true},
		{raw: "BOOLEAN", want: TypeBoolean, wantOK: true},
		{raw: "JSONObject", want: TypeJSONObject, wantOK: true},
		{raw: "JsonArray", want: TypeJSONArray, wantOK: true},
		{raw: "", want: TypeString, wantOK: false},
		{raw: "Date", want: TypeString, wantOK: false},
	}

	for _, tt := range tests {
		got, ok := ParseTypeTag(tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Fatalf("ParseTypeTag(%q) = %v, %v; want %v, %v", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}
