// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/tpl2oas

package tpl2oas

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ExampleFormatJSON encodes example payload as JSON.
	ExampleFormatJSON ExampleFormat = "json"
	// ExampleFormatYAML encodes example payload as YAML.
	ExampleFormatYAML ExampleFormat = "yaml"
)

// ExampleFormat configures output format for generated example payload.
type ExampleFormat string

// exampleArrayLength is the fixed number of generated array items.
const exampleArrayLength = 2

// exampleScalarPlaceholders provides fallback values for scalar schema types.
var exampleScalarPlaceholders = map[string]any{
	SchemaTypeString:  "string_example",
	SchemaTypeInteger: 1,
	SchemaTypeNumber:  1.0,
	SchemaTypeBoolean: true,
}

// Member is one named value of an example object.
type Member struct {
	Name  string
	Value any
}

// Object is an example object that keeps schema property order.
type Object []Member

// Get returns member value by name.
func (object Object) Get(name string) (any, bool) {
	for _, member := range object {
		if member.Name == name {
			return member.Value, true
		}
	}

	return nil, false
}

// MarshalJSON encodes members in order.
func (object Object) MarshalJSON() ([]byte, error) {
	var out bytes.Buffer
	out.WriteByte('{')
	for index, member := range object {
		if index > 0 {
			out.WriteByte(',')
		}

		if err := writeJSONMember(&out, member.Name, member.Value); err != nil {
			return nil, err
		}
	}
	out.WriteByte('}')

	return out.Bytes(), nil
}

// MarshalYAML encodes members in order.
func (object Object) MarshalYAML() (any, error) {
	return yamlNodeForValue(object)
}

// GenerateExample returns one representative instance of schema.
// Objects keep property order, arrays always hold two items, and nil or
// unknown schemas yield nil. Required keywords do not affect the result.
func GenerateExample(schema *Schema) any {
	if schema == nil {
		return nil
	}

	switch schema.Type {
	case SchemaTypeObject:
		out := make(Object, 0, schema.Properties.Len())
		for key, prop := range schema.Properties.All() {
			out = append(out, Member{Name: key, Value: GenerateExample(prop)})
		}

		return out
	case SchemaTypeArray:
		out := make([]any, 0, exampleArrayLength)
		for range exampleArrayLength {
			out = append(out, GenerateExample(schema.Items))
		}

		return out
	}

	value, ok := exampleScalarPlaceholders[schema.Type]
	if !ok {
		return nil
	}

	if schema.Default != nil {
		return schema.Default
	}

	return value
}

// GenerateExampleJSON returns generated example payload encoded as pretty JSON.
func GenerateExampleJSON(schema *Schema) ([]byte, error) {
	data, err := MarshalExampleJSON(GenerateExample(schema))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodeExampleJSON, err)
	}

	return data, nil
}

// GenerateExampleYAML returns generated example payload encoded as YAML
// with property descriptions as key comments.
func GenerateExampleYAML(schema *Schema) ([]byte, error) {
	rootNode, err := yamlNodeForValue(GenerateExample(schema))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodeExampleYAML, err)
	}

	annotateYAMLNode(rootNode, schema)

	data, err := marshalExampleYAMLNode(rootNode)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodeExampleYAML, err)
	}

	return data, nil
}

// GenerateExampleBytes returns generated example payload encoded in selected format.
func GenerateExampleBytes(schema *Schema, format ExampleFormat) ([]byte, error) {
	format, err := NormalizeExampleFormat(format)
	if err != nil {
		return nil, err
	}

	switch format {
	case ExampleFormatYAML:
		return GenerateExampleYAML(schema)
	default:
		return GenerateExampleJSON(schema)
	}
}

// NormalizeExampleFormat validates and normalizes caller format value.
// Empty format means JSON.
func NormalizeExampleFormat(format ExampleFormat) (ExampleFormat, error) {
	normalized := ExampleFormat(strings.ToLower(strings.TrimSpace(string(format))))
	switch normalized {
	case "":
		return ExampleFormatJSON, nil
	case ExampleFormatJSON, ExampleFormatYAML:
		return normalized, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownExampleFormat, format)
	}
}

// MarshalExampleJSON serializes example payload as pretty JSON.
func MarshalExampleJSON(value any) ([]byte, error) {
	var out bytes.Buffer
	encoder := json.NewEncoder(&out)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(value); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}

// marshalExampleYAMLNode serializes example payload node as YAML.
func marshalExampleYAMLNode(node *yaml.Node) ([]byte, error) {
	document := &yaml.Node{
		Kind:    yaml.DocumentNode,
		Content: []*yaml.Node{node},
	}

	var out bytes.Buffer
	encoder := yaml.NewEncoder(&out)
	encoder.SetIndent(2)

	if err := encoder.Encode(document); err != nil {
		return nil, err
	}

	if err := encoder.Close(); err != nil {
		return nil, err
	}

	return out.Bytes(), nil
}

// annotateYAMLNode assigns schema descriptions as comments to YAML map keys.
func annotateYAMLNode(node *yaml.Node, schema *Schema) {
	if node == nil || schema == nil {
		return
	}

	switch node.Kind {
	case yaml.MappingNode:
		for index := 0; index+1 < len(node.Content); index += 2 {
			keyNode := node.Content[index]
			valueNode := node.Content[index+1]

			property, ok := schema.Properties.Get(keyNode.Value)
			if !ok || property == nil {
				continue
			}

			if comment := normalizeYAMLComment(property.Description); comment != "" {
				keyNode.HeadComment = comment
			}

			annotateYAMLNode(valueNode, property)
		}
	case yaml.SequenceNode:
		for _, item := range node.Content {
			annotateYAMLNode(item, schema.Items)
		}
	}
}

// normalizeYAMLComment strips empty lines from comment body.
func normalizeYAMLComment(comment string) string {
	lines := strings.Split(comment, "\n")
	normalized := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		normalized = append(normalized, line)
	}

	return strings.Join(normalized, "\n")
}

// yamlNodeForValue builds deterministic yaml.Node tree from example value.
func yamlNodeForValue(value any) (*yaml.Node, error) {
	switch typed := value.(type) {
	case nil:
		return yamlScalarNode("!!null", "null"), nil

	case bool:
		return yamlScalarNode("!!bool", strconv.FormatBool(typed)), nil

	case string:
		return yamlScalarNode("!!str", typed), nil

	case int:
		return yamlScalarNode("!!int", strconv.Itoa(typed)), nil

	case int64:
		return yamlScalarNode("!!int", strconv.FormatInt(typed, 10)), nil

	case float64:
		return yamlScalarNode("!!float", formatYAMLFloat(typed)), nil

	case Object:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, member := range typed {
			valueNode, err := yamlNodeForValue(member.Value)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, yamlScalarNode("!!str", member.Name), valueNode)
		}
		return node, nil

	case []any:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range typed {
			valueNode, err := yamlNodeForValue(item)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, valueNode)
		}
		return node, nil

	default:
		node := &yaml.Node{}
		if err := node.Encode(typed); err != nil {
			return nil, err
		}
		return node, nil
	}
}

// formatYAMLFloat keeps a decimal point for whole numbers so the value stays a float.
func formatYAMLFloat(value float64) string {
	text := strconv.FormatFloat(value, 'g', -1, 64)
	if !strings.ContainsAny(text, ".eEnN") {
		text += ".0"
	}

	return text
}

// yamlScalarNode creates one scalar yaml.Node with explicit tag.
func yamlScalarNode(tag, value string) *yaml.Node {
	return &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   tag,
		Value: value,
	}
}
