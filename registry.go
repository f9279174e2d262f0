// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/tpl2oas

package tpl2oas

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
)

// readerSource marks registries loaded from a reader without a file path.
const readerSource = "(reader)"

// xmlContainerName is the element holding template definitions.
const xmlContainerName = "jsontemplates"

// Registry maps template names to templates. It is read-only after construction.
type Registry struct {
	templates map[string]Template
	order     []string
}

// NewRegistry builds a registry from templates in definition order.
// A later template with the same name replaces the earlier one and keeps its position.
func NewRegistry(templates ...Template) (*Registry, error) {
	registry := &Registry{
		templates: make(map[string]Template, len(templates)),
		order:     make([]string, 0, len(templates)),
	}

	for _, tpl := range templates {
		if err := tpl.validate(); err != nil {
			return nil, &StructuralError{Template: tpl.Name, Message: err.Error()}
		}

		if _, exists := registry.templates[tpl.Name]; !exists {
			registry.order = append(registry.order, tpl.Name)
		}

		registry.templates[tpl.Name] = tpl
	}

	return registry, nil
}

// Lookup returns template by exact name.
func (registry *Registry) Lookup(name string) (Template, bool) {
	if registry == nil {
		return Template{}, false
	}

	tpl, ok := registry.templates[name]
	return tpl, ok
}

// Names returns template names in definition order.
func (registry *Registry) Names() []string {
	if registry == nil {
		return nil
	}

	return slices.Clone(registry.order)
}

// Len returns number of templates.
func (registry *Registry) Len() int {
	if registry == nil {
		return 0
	}

	return len(registry.order)
}

// xmlSource is the root element of a template source. The <jsontemplates>
// container is either the root itself or one of its direct children.
type xmlSource struct {
	XMLName   xml.Name
	Items     []xmlTemplate `xml:"jsontemplate"`
	Templates *xmlTemplates `xml:"jsontemplates"`
}

// container returns the <jsontemplates> element, if present.
func (source xmlSource) container() *xmlTemplates {
	if source.XMLName.Local == xmlContainerName {
		return &xmlTemplates{Items: source.Items}
	}

	return source.Templates
}

// xmlTemplates is the <jsontemplates> container.
type xmlTemplates struct {
	Items []xmlTemplate `xml:"jsontemplate"`
}

// xmlTemplate is one <jsontemplate> definition.
type xmlTemplate struct {
	Name   string    `xml:"name,attr"`
	Keys   []xmlNode `xml:"key"`
	Values []xmlNode `xml:"value"`
}

// xmlNode keeps every attribute of a <key> or <value> node.
type xmlNode struct {
	Attrs []xml.Attr `xml:",any,attr"`
}

// attributes returns node attributes keyed by local name.
func (node xmlNode) attributes() map[string]string {
	out := make(map[string]string, len(node.Attrs))
	for _, attr := range node.Attrs {
		out[attr.Name.Local] = attr.Value
	}

	return out
}

// LoadRegistryFile reads and parses a template source file.
func LoadRegistryFile(path string) (*Registry, error) {
	file, err := os.Open(path) //nolint:gosec // path is provided by caller
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadTemplateFile, err)
	}
	defer func() {
		_ = file.Close()
	}()

	return loadRegistry(file, path)
}

// LoadRegistry parses a template source from reader.
func LoadRegistry(reader io.Reader) (*Registry, error) {
	return loadRegistry(reader, readerSource)
}

// loadRegistry decodes XML and converts definitions into a registry.
func loadRegistry(reader io.Reader, source string) (*Registry, error) {
	var root xmlSource
	if err := xml.NewDecoder(reader).Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeTemplates, err)
	}

	container := root.container()
	if container == nil {
		return nil, &StructuralError{Source: source, Message: "<jsontemplates> not found"}
	}

	templates := make([]Template, 0, len(container.Items))
	for _, definition := range container.Items {
		name := strings.TrimSpace(definition.Name)
		if name == "" {
			continue
		}

		tpl, err := buildTemplate(name, definition)
		if err != nil {
			return nil, &StructuralError{Source: source, Template: name, Message: err.Error()}
		}

		templates = append(templates, tpl)
	}

	registry, err := NewRegistry(templates...)
	if err != nil {
		var structural *StructuralError
		if errors.As(err, &structural) {
			structural.Source = source
		}

		return nil, err
	}

	return registry, nil
}

// buildTemplate converts one XML definition into a template.
func buildTemplate(name string, definition xmlTemplate) (Template, error) {
	if len(definition.Values) > 1 {
		return Template{}, fmt.Errorf("expected at most one <value>, found %d", len(definition.Values))
	}

	if len(definition.Values) == 1 && len(definition.Keys) > 0 {
		return Template{}, fmt.Errorf("<value> cannot be combined with %d <key> nodes", len(definition.Keys))
	}

	tpl := Template{Name: name}
	if len(definition.Values) == 1 {
		attrs := definition.Values[0].attributes()
		tag, _ := ParseTypeTag(attrs["type"])
		tpl.Entries = []Entry{&ValueEntry{
			Type:        tag,
			TemplateRef: strings.TrimSpace(attrs["template"]),
			Raw:         attrs,
		}}

		return tpl, nil
	}

	tpl.Entries = make([]Entry, 0, len(definition.Keys))
	for _, node := range definition.Keys {
		entry, ok, err := buildKeyEntry(node.attributes())
		if err != nil {
			return Template{}, err
		}

		if !ok {
			continue
		}

		tpl.Entries = append(tpl.Entries, entry)
	}

	return tpl, nil
}

// buildKeyEntry extracts key metadata; nameless keys report ok=false.
func buildKeyEntry(attrs map[string]string) (*KeyEntry, bool, error) {
	name := strings.TrimSpace(attrs["name"])
	if name == "" {
		return nil, false, nil
	}

	tag, _ := ParseTypeTag(attrs["type"])
	entry := &KeyEntry{
		Name:        name,
		Type:        tag,
		TemplateRef: strings.TrimSpace(attrs["template"]),
		Regex:       attrs["regex"],
		Required:    parseRequired(attrs["required"]),
		Description: attrs["description"],
		Raw:         attrs,
	}

	var err error
	if entry.MaxLen, err = optionalInt(attrs, "max-len"); err != nil {
		return nil, false, fmt.Errorf("key %q: %w", name, err)
	}

	if entry.MinLen, err = optionalInt(attrs, "min-len"); err != nil {
		return nil, false, fmt.Errorf("key %q: %w", name, err)
	}

	if raw, ok := attrs["array-size"]; ok && strings.TrimSpace(raw) != "" {
		size, err := ParseArraySize(raw)
		if err != nil {
			return nil, false, fmt.Errorf("key %q: %w", name, err)
		}

		entry.ArraySize = &size
	}

	if raw, ok := attrs["default"]; ok {
		entry.Default = coerceDefault(tag, raw)
	}

	return entry, true, nil
}

// optionalInt parses a non-negative integer attribute when present and non-empty.
func optionalInt(attrs map[string]string, key string) (*int, error) {
	raw, ok := attrs[key]
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", key, raw, err)
	}

	if value < 0 {
		return nil, fmt.Errorf("%s %q: must not be negative", key, raw)
	}

	return &value, nil
}

// parseRequired accepts boolean-like text; anything unparsable is false.
func parseRequired(raw string) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && value
}
