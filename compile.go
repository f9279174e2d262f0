// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/tpl2oas

package tpl2oas

import "slices"

// Compiler expands named templates into schema trees.
// It holds no mutable state, so one Compiler may serve concurrent callers.
type Compiler struct {
	registry *Registry
}

// NewCompiler returns compiler bound to registry.
func NewCompiler(registry *Registry) *Compiler {
	return &Compiler{registry: registry}
}

// Compile expands template name with all nested references resolved.
func Compile(registry *Registry, name string) (*Schema, error) {
	return NewCompiler(registry).Compile(name)
}

// Compile expands template name with all nested references resolved.
// There is no partial result: any unknown or cyclic reference aborts compilation,
// including array item references, which never fall back to string items.
func (compiler *Compiler) Compile(name string) (*Schema, error) {
	state := &compileState{resolving: make(map[string]struct{})}
	return compiler.compileTemplate(state, name, "")
}

// compileState tracks templates on the current resolution path.
type compileState struct {
	resolving map[string]struct{}
	stack     []string
}

// enter registers name on the resolution path and returns release callback.
func (state *compileState) enter(name string) (func(), bool) {
	if _, active := state.resolving[name]; active {
		return nil, false
	}

	state.resolving[name] = struct{}{}
	state.stack = append(state.stack, name)
	return func() {
		delete(state.resolving, name)
		state.stack = state.stack[:len(state.stack)-1]
	}, true
}

// cycle returns the resolution path from the first occurrence of name back to name.
func (state *compileState) cycle(name string) []string {
	start := slices.Index(state.stack, name)
	if start < 0 {
		start = 0
	}

	out := slices.Clone(state.stack[start:])
	return append(out, name)
}

// compileTemplate expands one template; referrer names the template holding the reference.
func (compiler *Compiler) compileTemplate(state *compileState, name, referrer string) (*Schema, error) {
	tpl, ok := compiler.registry.Lookup(name)
	if !ok {
		return nil, &UnknownTemplateError{Name: name, ReferencedBy: referrer}
	}

	release, ok := state.enter(name)
	if !ok {
		return nil, &CyclicTemplateError{Cycle: state.cycle(name)}
	}
	defer release()

	if value, ok := tpl.valueEntry(); ok {
		return compiler.compileValue(state, tpl.Name, value)
	}

	schema := &Schema{
		Type:       SchemaTypeObject,
		Properties: NewProperties(),
	}

	for _, entry := range tpl.Entries {
		key, ok := entry.(*KeyEntry)
		if !ok {
			continue
		}

		prop, err := compiler.compileProperty(state, tpl.Name, key)
		if err != nil {
			return nil, err
		}

		// A repeated key name replaces the earlier definition, required flag included.
		schema.Properties.Set(key.Name, prop)
		switch {
		case key.Required && !slices.Contains(schema.Required, key.Name):
			schema.Required = append(schema.Required, key.Name)
		case !key.Required:
			schema.Required = slices.DeleteFunc(schema.Required, func(name string) bool { return name == key.Name })
		}
	}

	return schema, nil
}

// compileValue maps a singleton value entry; object references are transparent aliases.
func (compiler *Compiler) compileValue(state *compileState, owner string, value *ValueEntry) (*Schema, error) {
	switch value.Type {
	case TypeJSONObject:
		if value.TemplateRef == "" {
			return &Schema{Type: SchemaTypeObject}, nil
		}

		return compiler.compileTemplate(state, value.TemplateRef, owner)
	case TypeJSONArray:
		items, err := compiler.compileItems(state, owner, value.TemplateRef)
		if err != nil {
			return nil, err
		}

		return &Schema{Type: SchemaTypeArray, Items: items}, nil
	default:
		return primitiveSchema(value.Type), nil
	}
}

// compileProperty maps a key entry to its property schema.
func (compiler *Compiler) compileProperty(state *compileState, owner string, key *KeyEntry) (*Schema, error) {
	switch key.Type {
	case TypeJSONObject:
		if key.TemplateRef == "" {
			return &Schema{Type: SchemaTypeObject}, nil
		}

		return compiler.compileTemplate(state, key.TemplateRef, owner)
	case TypeJSONArray:
		items, err := compiler.compileItems(state, owner, key.TemplateRef)
		if err != nil {
			return nil, err
		}

		schema := &Schema{Type: SchemaTypeArray, Items: items}
		applyConstraints(schema, key)
		return schema, nil
	default:
		schema := primitiveSchema(key.Type)
		applyConstraints(schema, key)
		return schema, nil
	}
}

// compileItems returns array item schema; items without reference are strings.
func (compiler *Compiler) compileItems(state *compileState, owner, ref string) (*Schema, error) {
	if ref == "" {
		return &Schema{Type: SchemaTypeString}, nil
	}

	return compiler.compileTemplate(state, ref, owner)
}

// primitiveSchema maps scalar tags; every other tag falls back to string.
func primitiveSchema(tag TypeTag) *Schema {
	switch tag {
	case TypeString:
		return &Schema{Type: SchemaTypeString}
	case TypeLong:
		return &Schema{Type: SchemaTypeInteger, Format: "int64"}
	case TypeDouble:
		return &Schema{Type: SchemaTypeNumber, Format: "double"}
	case TypeBoolean:
		return &Schema{Type: SchemaTypeBoolean}
	default:
		return &Schema{Type: SchemaTypeString}
	}
}

// applyConstraints copies key modifiers in fixed order:
// pattern, maxLength, minLength, minItems/maxItems, default, description.
func applyConstraints(schema *Schema, key *KeyEntry) {
	if key.Regex != "" {
		schema.Pattern = key.Regex
	}

	if key.MaxLen != nil {
		schema.MaxLength = intPointer(*key.MaxLen)
	}

	if key.MinLen != nil {
		schema.MinLength = intPointer(*key.MinLen)
	}

	if key.ArraySize != nil {
		schema.MinItems = intPointer(key.ArraySize.Min)
		schema.MaxItems = intPointer(key.ArraySize.Max)
	}

	if key.Default != nil {
		schema.Default = key.Default
	}

	if key.Description != "" {
		schema.Description = key.Description
	}
}

// intPointer returns pointer to a copy of value.
func intPointer(value int) *int {
	return &value
}
