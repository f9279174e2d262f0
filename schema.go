// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/tpl2oas

package tpl2oas

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"reflect"
	"slices"

	"gopkg.in/yaml.v3"
)

// JSON Schema type names emitted by the compiler.
const (
	SchemaTypeObject  = "object"
	SchemaTypeArray   = "array"
	SchemaTypeString  = "string"
	SchemaTypeInteger = "integer"
	SchemaTypeNumber  = "number"
	SchemaTypeBoolean = "boolean"
)

// Schema is a compiled JSON-Schema-shaped tree.
type Schema struct {
	Type        string
	Format      string
	Properties  *Properties
	Required    []string
	Items       *Schema
	Pattern     string
	MaxLength   *int
	MinLength   *int
	MinItems    *int
	MaxItems    *int
	Default     any
	Description string
}

// Properties is an insertion-ordered set of named property schemas.
type Properties struct {
	keys   []string
	values map[string]*Schema
}

// NewProperties returns empty ordered properties.
func NewProperties() *Properties {
	return &Properties{values: make(map[string]*Schema)}
}

// Set stores schema under name; an existing name keeps its position.
func (props *Properties) Set(name string, schema *Schema) {
	if props.values == nil {
		props.values = make(map[string]*Schema)
	}

	if _, exists := props.values[name]; !exists {
		props.keys = append(props.keys, name)
	}

	props.values[name] = schema
}

// Get returns schema stored under name.
func (props *Properties) Get(name string) (*Schema, bool) {
	if props == nil {
		return nil, false
	}

	schema, ok := props.values[name]
	return schema, ok
}

// Keys returns property names in insertion order.
func (props *Properties) Keys() []string {
	if props == nil {
		return nil
	}

	return slices.Clone(props.keys)
}

// Len returns number of properties.
func (props *Properties) Len() int {
	if props == nil {
		return 0
	}

	return len(props.keys)
}

// All iterates properties in insertion order.
func (props *Properties) All() iter.Seq2[string, *Schema] {
	return func(yield func(string, *Schema) bool) {
		if props == nil {
			return
		}

		for _, key := range props.keys {
			if !yield(key, props.values[key]) {
				return
			}
		}
	}
}

// schemaField is one serialized keyword.
type schemaField struct {
	Key   string
	Value any
}

// fields returns present keywords in fixed output order.
func (schema *Schema) fields() []schemaField {
	out := make([]schemaField, 0, 8)
	if schema.Type != "" {
		out = append(out, schemaField{"type", schema.Type})
	}
	if schema.Format != "" {
		out = append(out, schemaField{"format", schema.Format})
	}
	if schema.Properties != nil {
		out = append(out, schemaField{"properties", schema.Properties})
	}
	if len(schema.Required) > 0 {
		out = append(out, schemaField{"required", schema.Required})
	}
	if schema.Items != nil {
		out = append(out, schemaField{"items", schema.Items})
	}
	if schema.Pattern != "" {
		out = append(out, schemaField{"pattern", schema.Pattern})
	}
	if schema.MaxLength != nil {
		out = append(out, schemaField{"maxLength", *schema.MaxLength})
	}
	if schema.MinLength != nil {
		out = append(out, schemaField{"minLength", *schema.MinLength})
	}
	if schema.MinItems != nil {
		out = append(out, schemaField{"minItems", *schema.MinItems})
	}
	if schema.MaxItems != nil {
		out = append(out, schemaField{"maxItems", *schema.MaxItems})
	}
	if schema.Default != nil {
		out = append(out, schemaField{"default", schema.Default})
	}
	if schema.Description != "" {
		out = append(out, schemaField{"description", schema.Description})
	}

	return out
}

// MarshalJSON encodes schema keywords in deterministic order.
func (schema *Schema) MarshalJSON() ([]byte, error) {
	if schema == nil {
		return []byte("null"), nil
	}

	var out bytes.Buffer
	out.WriteByte('{')
	for index, field := range schema.fields() {
		if index > 0 {
			out.WriteByte(',')
		}

		if err := writeJSONMember(&out, field.Key, field.Value); err != nil {
			return nil, err
		}
	}
	out.WriteByte('}')

	return out.Bytes(), nil
}

// MarshalJSON encodes properties in insertion order.
func (props *Properties) MarshalJSON() ([]byte, error) {
	if props == nil {
		return []byte("null"), nil
	}

	var out bytes.Buffer
	out.WriteByte('{')
	for index, key := range props.keys {
		if index > 0 {
			out.WriteByte(',')
		}

		if err := writeJSONMember(&out, key, props.values[key]); err != nil {
			return nil, err
		}
	}
	out.WriteByte('}')

	return out.Bytes(), nil
}

// writeJSONMember writes one "key":value pair without HTML escaping.
func writeJSONMember(out *bytes.Buffer, key string, value any) error {
	keyBytes, err := marshalJSONCompact(key)
	if err != nil {
		return err
	}

	valueBytes, err := marshalJSONCompact(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}

	out.Write(keyBytes)
	out.WriteByte(':')
	out.Write(valueBytes)
	return nil
}

// marshalJSONCompact encodes value without HTML escaping and trailing newline.
func marshalJSONCompact(value any) ([]byte, error) {
	var out bytes.Buffer
	encoder := json.NewEncoder(&out)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(value); err != nil {
		return nil, err
	}

	return bytes.TrimRight(out.Bytes(), "\n"), nil
}

// MarshalYAML encodes schema as a mapping node in deterministic order.
func (schema *Schema) MarshalYAML() (any, error) {
	return schema.yamlNode()
}

// yamlNode builds ordered mapping node for schema.
func (schema *Schema) yamlNode() (*yaml.Node, error) {
	if schema == nil {
		return yamlScalarNode("!!null", "null"), nil
	}

	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, field := range schema.fields() {
		valueNode, err := schemaFieldNode(field.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field.Key, err)
		}

		node.Content = append(node.Content, yamlScalarNode("!!str", field.Key), valueNode)
	}

	return node, nil
}

// schemaFieldNode encodes one keyword value as yaml node.
func schemaFieldNode(value any) (*yaml.Node, error) {
	switch typed := value.(type) {
	case *Schema:
		return typed.yamlNode()
	case *Properties:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for key, prop := range typed.All() {
			propNode, err := prop.yamlNode()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}

			node.Content = append(node.Content, yamlScalarNode("!!str", key), propNode)
		}

		return node, nil
	case float64:
		return yamlScalarNode("!!float", formatYAMLFloat(typed)), nil
	default:
		node := &yaml.Node{}
		if err := node.Encode(typed); err != nil {
			return nil, err
		}

		return node, nil
	}
}

// UnmarshalYAML decodes schema keywords and keeps property order.
func (schema *Schema) UnmarshalYAML(node *yaml.Node) error {
	node = resolveYAMLNode(node)
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("schema must be a mapping, got %s", yamlKindName(node.Kind))
	}

	*schema = Schema{}
	for index := 0; index+1 < len(node.Content); index += 2 {
		key := node.Content[index].Value
		value := resolveYAMLNode(node.Content[index+1])

		if err := schema.decodeField(key, value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}

	// Whole-number defaults of number schemas decode as integers.
	if number, ok := schema.Default.(int64); ok && schema.Type == SchemaTypeNumber {
		schema.Default = float64(number)
	}

	return nil
}

// decodeField decodes one known keyword; unknown keywords are ignored.
func (schema *Schema) decodeField(key string, value *yaml.Node) error {
	switch key {
	case "type":
		return value.Decode(&schema.Type)
	case "format":
		return value.Decode(&schema.Format)
	case "properties":
		if value.Kind != yaml.MappingNode {
			return fmt.Errorf("expected mapping, got %s", yamlKindName(value.Kind))
		}

		schema.Properties = NewProperties()
		for index := 0; index+1 < len(value.Content); index += 2 {
			prop := &Schema{}
			if err := prop.UnmarshalYAML(value.Content[index+1]); err != nil {
				return fmt.Errorf("%s: %w", value.Content[index].Value, err)
			}

			schema.Properties.Set(value.Content[index].Value, prop)
		}

		return nil
	case "required":
		return value.Decode(&schema.Required)
	case "items":
		schema.Items = &Schema{}
		return schema.Items.UnmarshalYAML(value)
	case "pattern":
		return value.Decode(&schema.Pattern)
	case "maxLength":
		return decodeIntPointer(value, &schema.MaxLength)
	case "minLength":
		return decodeIntPointer(value, &schema.MinLength)
	case "minItems":
		return decodeIntPointer(value, &schema.MinItems)
	case "maxItems":
		return decodeIntPointer(value, &schema.MaxItems)
	case "default":
		if err := value.Decode(&schema.Default); err != nil {
			return err
		}

		// Compiled integer defaults are int64.
		if number, ok := schema.Default.(int); ok {
			schema.Default = int64(number)
		}

		return nil
	case "description":
		return value.Decode(&schema.Description)
	default:
		return nil
	}
}

// decodeIntPointer decodes integer node into newly allocated target.
func decodeIntPointer(node *yaml.Node, target **int) error {
	var value int
	if err := node.Decode(&value); err != nil {
		return err
	}

	*target = &value
	return nil
}

// resolveYAMLNode unwraps document and alias nodes.
func resolveYAMLNode(node *yaml.Node) *yaml.Node {
	for node != nil {
		switch {
		case node.Kind == yaml.DocumentNode && len(node.Content) > 0:
			node = node.Content[0]
		case node.Kind == yaml.AliasNode && node.Alias != nil:
			node = node.Alias
		default:
			return node
		}
	}

	return node
}

// yamlKindName returns readable yaml node kind.
func yamlKindName(kind yaml.Kind) string {
	switch kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "empty"
	}
}

// ParseSchema decodes a standalone schema from JSON or YAML bytes.
func ParseSchema(data []byte) (*Schema, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeSchema, err)
	}

	if node.Kind == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDecodeSchema)
	}

	schema := &Schema{}
	if err := schema.UnmarshalYAML(&node); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeSchema, err)
	}

	return schema, nil
}

// Equal reports structural equality, property order included.
func (schema *Schema) Equal(other *Schema) bool {
	if schema == nil || other == nil {
		return schema == other
	}

	if schema.Type != other.Type ||
		schema.Format != other.Format ||
		schema.Pattern != other.Pattern ||
		schema.Description != other.Description ||
		!slices.Equal(schema.Required, other.Required) ||
		!equalIntPointer(schema.MaxLength, other.MaxLength) ||
		!equalIntPointer(schema.MinLength, other.MinLength) ||
		!equalIntPointer(schema.MinItems, other.MinItems) ||
		!equalIntPointer(schema.MaxItems, other.MaxItems) ||
		!reflect.DeepEqual(schema.Default, other.Default) {
		return false
	}

	if !schema.Items.Equal(other.Items) {
		return false
	}

	if (schema.Properties == nil) != (other.Properties == nil) {
		return false
	}

	if !slices.Equal(schema.Properties.Keys(), other.Properties.Keys()) {
		return false
	}

	for key, prop := range schema.Properties.All() {
		otherProp, _ := other.Properties.Get(key)
		if !prop.Equal(otherProp) {
			return false
		}
	}

	return true
}

// equalIntPointer compares optional integers by value.
func equalIntPointer(left, right *int) bool {
	if left == nil || right == nil {
		return left == right
	}

	return *left == *right
}
