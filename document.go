// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/tpl2oas

package tpl2oas

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultStatus is the response status used when caller does not provide one.
	DefaultStatus = "200"
	// ContentTypeJSON is the media type compiled schemas are attached under.
	ContentTypeJSON = "application/json"
	// defaultResponseDescription is the description of generated responses.
	defaultResponseDescription = "OK"
)

const (
	// DocumentFormatYAML encodes documents as YAML.
	DocumentFormatYAML DocumentFormat = "yaml"
	// DocumentFormatJSON encodes documents as JSON.
	DocumentFormatJSON DocumentFormat = "json"
)

// DocumentFormat selects persisted document encoding.
type DocumentFormat string

// DocumentFormatForPath returns JSON for ".json" files and YAML otherwise.
func DocumentFormatForPath(path string) DocumentFormat {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return DocumentFormatJSON
	}

	return DocumentFormatYAML
}

// httpMethods lists path item keys reported by Operations.
var httpMethods = []string{"get", "put", "post", "delete", "options", "head", "patch", "trace"}

// Document is a persisted multi-path API document.
// It keeps the parsed node tree, so content it does not manage survives round trips.
type Document struct {
	root *yaml.Node
}

// Operation is one compiled schema attached to a path and method.
type Operation struct {
	Path        string
	Method      string
	Tag         string
	Summary     string
	OperationID string
	Schema      *Schema
}

// OperationRef identifies one operation of a document.
type OperationRef struct {
	Path   string `json:"path" yaml:"path"`
	Method string `json:"method" yaml:"method"`
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{root: &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}}
}

// ParseDocument decodes a YAML or JSON document. Empty input is an empty document.
func ParseDocument(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return NewDocument(), nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeDocument, err)
	}

	root := resolveYAMLNode(&node)
	if root == nil || root.Kind == 0 || root.ShortTag() == "!!null" {
		return NewDocument(), nil
	}

	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: document root must be a mapping, got %s", ErrDecodeDocument, yamlKindName(root.Kind))
	}

	return &Document{root: root}, nil
}

// LoadDocument reads document file; a missing file is an empty document.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by caller
	if errors.Is(err, fs.ErrNotExist) {
		return NewDocument(), nil
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadDocument, err)
	}

	return ParseDocument(data)
}

// Save writes document to path in the format implied by its extension.
func (doc *Document) Save(path string) error {
	data, err := doc.Bytes(DocumentFormatForPath(path))
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("%w %q: %w", ErrWriteDocument, path, err)
	}

	return nil
}

// Bytes encodes document in selected format.
func (doc *Document) Bytes(format DocumentFormat) ([]byte, error) {
	switch format {
	case DocumentFormatJSON:
		var compact bytes.Buffer
		if err := writeNodeJSON(&compact, doc.root); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEncodeDocument, err)
		}

		var out bytes.Buffer
		if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEncodeDocument, err)
		}

		out.WriteByte('\n')
		return out.Bytes(), nil
	default:
		var out bytes.Buffer
		encoder := yaml.NewEncoder(&out)
		encoder.SetIndent(2)

		if err := encoder.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{doc.root}}); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEncodeDocument, err)
		}

		if err := encoder.Close(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEncodeDocument, err)
		}

		return out.Bytes(), nil
	}
}

// operationDoc is the persisted shape of one operation.
type operationDoc struct {
	Tags        []string               `yaml:"tags,omitempty"`
	Summary     string                 `yaml:"summary,omitempty"`
	OperationID string                 `yaml:"operationId,omitempty"`
	Responses   map[string]responseDoc `yaml:"responses"`
}

// responseDoc is the persisted shape of one response.
type responseDoc struct {
	Description string                  `yaml:"description"`
	Content     map[string]mediaTypeDoc `yaml:"content"`
}

// mediaTypeDoc is the persisted shape of one response media type.
type mediaTypeDoc struct {
	Schema *Schema `yaml:"schema"`
}

// AppendOperation stores op under paths[op.Path][method], creating the path
// entry if absent and replacing any existing operation at that key.
func (doc *Document) AppendOperation(op Operation) error {
	method := NormalizeMethod(op.Method)
	if strings.TrimSpace(op.Path) == "" || method == "" {
		return fmt.Errorf("operation requires path and method, got path=%q method=%q", op.Path, op.Method)
	}

	persisted := operationDoc{
		Summary:     op.Summary,
		OperationID: op.OperationID,
		Responses: map[string]responseDoc{
			DefaultStatus: {
				Description: defaultResponseDescription,
				Content: map[string]mediaTypeDoc{
					ContentTypeJSON: {Schema: op.Schema},
				},
			},
		},
	}
	if op.Tag != "" {
		persisted.Tags = []string{op.Tag}
	}

	opNode := &yaml.Node{}
	if err := opNode.Encode(persisted); err != nil {
		return fmt.Errorf("%w: %w", ErrEncodeDocument, err)
	}

	paths := ensureMapping(doc.root, "paths")
	pathItem := ensureMapping(paths, op.Path)
	setMappingValue(pathItem, method, opNode)
	return nil
}

// AppendOperationFile loads the document at path, appends op and saves it back.
// The read-modify-write is not atomic: concurrent writers to one file can lose updates.
func AppendOperationFile(path string, op Operation) (*Document, error) {
	doc, err := LoadDocument(path)
	if err != nil {
		return nil, err
	}

	if err := doc.AppendOperation(op); err != nil {
		return nil, err
	}

	if err := doc.Save(path); err != nil {
		return nil, err
	}

	return doc, nil
}

// Operations lists path and upper-case method pairs in document order.
func (doc *Document) Operations() []OperationRef {
	paths, ok := mappingValue(doc.root, "paths")
	if !ok || paths.Kind != yaml.MappingNode {
		return []OperationRef{}
	}

	out := make([]OperationRef, 0, len(paths.Content)/2)
	for index := 0; index+1 < len(paths.Content); index += 2 {
		path := paths.Content[index].Value
		item := resolveYAMLNode(paths.Content[index+1])
		if item == nil || item.Kind != yaml.MappingNode {
			continue
		}

		for methodIndex := 0; methodIndex+1 < len(item.Content); methodIndex += 2 {
			method := NormalizeMethod(item.Content[methodIndex].Value)
			if !slices.Contains(httpMethods, method) {
				continue
			}

			out = append(out, OperationRef{Path: path, Method: methodLabel(method)})
		}
	}

	return out
}

// ResponseSchema returns paths[path][method].responses[status].content["application/json"].schema.
// Empty status means DefaultStatus. A present but null schema yields nil without error.
func (doc *Document) ResponseSchema(path, method, status string) (*Schema, error) {
	method = NormalizeMethod(method)
	if strings.TrimSpace(status) == "" {
		status = DefaultStatus
	}

	node, ok := lookupMapping(doc.root, "paths", path, method, "responses", status, "content", ContentTypeJSON, "schema")
	if !ok {
		return nil, &SchemaNotFoundError{Path: path, Method: method, Status: status}
	}

	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
		return nil, nil
	}

	schema := &Schema{}
	if err := schema.UnmarshalYAML(node); err != nil {
		return nil, fmt.Errorf("%w: %s %s (%s): %w", ErrDecodeDocument, methodLabel(method), path, status, err)
	}

	return schema, nil
}

// ResponseExample locates the response schema and generates its example.
func ResponseExample(doc *Document, path, method, status string) (any, error) {
	schema, err := doc.ResponseSchema(path, method, status)
	if err != nil {
		return nil, err
	}

	return GenerateExample(schema), nil
}

// lookupMapping follows keys through nested mappings.
func lookupMapping(node *yaml.Node, keys ...string) (*yaml.Node, bool) {
	current := node
	for _, key := range keys {
		next, ok := mappingValue(current, key)
		if !ok {
			return nil, false
		}

		current = next
	}

	return current, true
}

// mappingValue returns value node stored under key.
func mappingValue(node *yaml.Node, key string) (*yaml.Node, bool) {
	node = resolveYAMLNode(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil, false
	}

	for index := 0; index+1 < len(node.Content); index += 2 {
		if node.Content[index].Value == key {
			return resolveYAMLNode(node.Content[index+1]), true
		}
	}

	return nil, false
}

// ensureMapping returns mapping stored under key, replacing non-mapping values.
func ensureMapping(node *yaml.Node, key string) *yaml.Node {
	if value, ok := mappingValue(node, key); ok && value.Kind == yaml.MappingNode {
		return value
	}

	value := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	setMappingValue(node, key, value)
	return value
}

// setMappingValue replaces value under key in place or appends a new pair.
func setMappingValue(node *yaml.Node, key string, value *yaml.Node) {
	for index := 0; index+1 < len(node.Content); index += 2 {
		if node.Content[index].Value == key {
			node.Content[index+1] = value
			return
		}
	}

	node.Content = append(node.Content, yamlScalarNode("!!str", key), value)
}

// writeNodeJSON writes node tree as compact JSON preserving mapping order.
func writeNodeJSON(out *bytes.Buffer, node *yaml.Node) error {
	node = resolveYAMLNode(node)
	if node == nil {
		out.WriteString("null")
		return nil
	}

	switch node.Kind {
	case yaml.MappingNode:
		out.WriteByte('{')
		for index := 0; index+1 < len(node.Content); index += 2 {
			if index > 0 {
				out.WriteByte(',')
			}

			key, err := marshalJSONCompact(node.Content[index].Value)
			if err != nil {
				return err
			}

			out.Write(key)
			out.WriteByte(':')
			if err := writeNodeJSON(out, node.Content[index+1]); err != nil {
				return err
			}
		}
		out.WriteByte('}')
	case yaml.SequenceNode:
		out.WriteByte('[')
		for index, item := range node.Content {
			if index > 0 {
				out.WriteByte(',')
			}

			if err := writeNodeJSON(out, item); err != nil {
				return err
			}
		}
		out.WriteByte(']')
	case yaml.ScalarNode:
		var value any
		if err := node.Decode(&value); err != nil {
			value = node.Value
		}

		if number, ok := value.(float64); ok && !math.IsNaN(number) && !math.IsInf(number, 0) {
			out.WriteString(formatYAMLFloat(number))
			return nil
		}

		data, err := marshalJSONCompact(value)
		if err != nil {
			// NaN and infinities have no JSON form.
			data, err = marshalJSONCompact(node.Value)
			if err != nil {
				return err
			}
		}

		out.Write(data)
	default:
		out.WriteString("null")
	}

	return nil
}
