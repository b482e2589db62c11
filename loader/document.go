/*
 * SPDX-FileCopyrightText: Copyright (c) 2003 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
 * SPDX-License-Identifier: Apache-2.0
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package loader

import (
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// Document is a set of object definitions.
type Document struct {
	Objects []*Object `yaml:"objects" validate:"required,dive"`
}

// Object defines an object recipe.
type Object struct {
	Name         string     `yaml:"name,omitempty" validate:"omitempty,printascii"`
	Type         string     `yaml:"type" validate:"required"`
	Factory      string     `yaml:"factory,omitempty"`
	Args         []string   `yaml:"args,omitempty" validate:"dive,required"`
	Options      []string   `yaml:"options,omitempty" validate:"dive,option"`
	AllowPartial bool       `yaml:"allowPartial,omitempty"`
	Properties   Properties `yaml:"properties,omitempty" validate:"dive"`
}

// Properties are the object properties in declaration order.
type Properties []Property

// Property is a named property value.
type Property struct {
	Name  string `validate:"required"`
	Value any
}

// Ref refers to another object by name.
type Ref struct {
	Name string
}

// Collection is a list, a set or a sorted set.
type Collection struct {
	Kind  string
	Type  string
	Items []any
}

// Map is a map with ordered entries.
type Map struct {
	Type    string
	Entries []Entry
}

// Entry is a map entry.
type Entry struct {
	Key   any
	Value any
}

// AllProperties stands for the properties of the enclosing object.
type AllProperties struct{}

// Value forms.
const (
	formRef           = "ref"
	formList          = "list"
	formSet           = "set"
	formSortedSet     = "sortedSet"
	formMap           = "map"
	formObject        = "object"
	formAllProperties = "allProperties"
	keyType           = "type"
)

var forms = []string{formRef, formList, formSet, formSortedSet, formMap, formObject, formAllProperties}

// UnmarshalYAML decodes the properties keeping declaration order.
func (p *Properties) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: properties must be a mapping", node.Line)
	}
	properties := make(Properties, 0, len(node.Content)/2)
	for index := 0; index+1 < len(node.Content); index += 2 {
		var name string
		if err := node.Content[index].Decode(&name); err != nil {
			return fmt.Errorf("line %d: invalid property name: %w", node.Content[index].Line, err)
		}
		value, err := decodeValue(node.Content[index+1])
		if err != nil {
			return fmt.Errorf("property '%s': %w", name, err)
		}
		properties = append(properties, Property{Name: name, Value: value})
	}
	*p = properties
	return nil
}

// MarshalYAML encodes the properties keeping declaration order.
func (p Properties) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, property := range p {
		value, err := encodeValue(property.Value)
		if err != nil {
			return nil, fmt.Errorf("property '%s': %w", property.Name, err)
		}
		node.Content = append(node.Content, scalarNode(property.Name), value)
	}
	return node, nil
}

// decodeValue converts a YAML node to a property value.
func decodeValue(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.AliasNode:
		return decodeValue(node.Alias)

	case yaml.ScalarNode:
		var value any
		if err := node.Decode(&value); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return value, nil

	case yaml.SequenceNode:
		items, err := decodeItems(node)
		if err != nil {
			return nil, err
		}
		return &Collection{Kind: formList, Items: items}, nil

	case yaml.MappingNode:
		if form, ok := formOf(node); ok {
			return decodeForm(node, form)
		}
		entries, err := decodeEntries(node)
		if err != nil {
			return nil, err
		}
		return &Map{Entries: entries}, nil
	}
	return nil, fmt.Errorf("line %d: unsupported value", node.Line)
}

// formOf returns the value form of a mapping with a form key and at
// most a type key besides it.
func formOf(node *yaml.Node) (string, bool) {
	var form string
	for index := 0; index+1 < len(node.Content); index += 2 {
		key := node.Content[index].Value
		switch {
		case key == keyType && len(node.Content) == 4:
		case slices.Contains(forms, key) && form == "":
			form = key
		default:
			return "", false
		}
	}
	return form, form != ""
}

func decodeForm(node *yaml.Node, form string) (any, error) {
	var typeName string
	var body *yaml.Node
	for index := 0; index+1 < len(node.Content); index += 2 {
		if node.Content[index].Value == keyType {
			typeName = node.Content[index+1].Value
			continue
		}
		body = node.Content[index+1]
	}

	switch form {
	case formRef:
		var name string
		if err := body.Decode(&name); err != nil || name == "" {
			return nil, fmt.Errorf("line %d: ref must be a name", body.Line)
		}
		return &Ref{Name: name}, nil

	case formList, formSet, formSortedSet:
		if body.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("line %d: %s must be a sequence", body.Line, form)
		}
		items, err := decodeItems(body)
		if err != nil {
			return nil, err
		}
		return &Collection{Kind: form, Type: typeName, Items: items}, nil

	case formMap:
		if body.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: map must be a mapping", body.Line)
		}
		entries, err := decodeEntries(body)
		if err != nil {
			return nil, err
		}
		return &Map{Type: typeName, Entries: entries}, nil

	case formObject:
		object := &Object{}
		if err := body.Decode(object); err != nil {
			return nil, err
		}
		return object, nil

	case formAllProperties:
		var enabled bool
		if err := body.Decode(&enabled); err != nil || !enabled {
			return nil, fmt.Errorf("line %d: allProperties must be true", body.Line)
		}
		return &AllProperties{}, nil
	}
	return nil, fmt.Errorf("line %d: unknown value form %s", node.Line, form)
}

func decodeItems(node *yaml.Node) ([]any, error) {
	items := make([]any, 0, len(node.Content))
	for index, item := range node.Content {
		value, err := decodeValue(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", index, err)
		}
		items = append(items, value)
	}
	return items, nil
}

func decodeEntries(node *yaml.Node) ([]Entry, error) {
	entries := make([]Entry, 0, len(node.Content)/2)
	for index := 0; index+1 < len(node.Content); index += 2 {
		key, err := decodeValue(node.Content[index])
		if err != nil {
			return nil, fmt.Errorf("key: %w", err)
		}
		value, err := decodeValue(node.Content[index+1])
		if err != nil {
			return nil, fmt.Errorf("value of %v: %w", key, err)
		}
		entries = append(entries, Entry{Key: key, Value: value})
	}
	return entries, nil
}

// encodeValue converts a property value to a YAML node.
func encodeValue(value any) (*yaml.Node, error) {
	switch v := value.(type) {
	case *Ref:
		return formNode(formRef, "", scalarNode(v.Name)), nil

	case *Collection:
		items := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range v.Items {
			node, err := encodeValue(item)
			if err != nil {
				return nil, err
			}
			items.Content = append(items.Content, node)
		}
		if v.Kind == formList && v.Type == "" {
			return items, nil
		}
		return formNode(v.Kind, v.Type, items), nil

	case *Map:
		entries := &yaml.Node{Kind: yaml.MappingNode}
		for _, entry := range v.Entries {
			key, err := encodeValue(entry.Key)
			if err != nil {
				return nil, err
			}
			node, err := encodeValue(entry.Value)
			if err != nil {
				return nil, err
			}
			entries.Content = append(entries.Content, key, node)
		}
		return formNode(formMap, v.Type, entries), nil

	case *Object:
		node := &yaml.Node{}
		if err := node.Encode(v); err != nil {
			return nil, err
		}
		return formNode(formObject, "", node), nil

	case *AllProperties:
		return formNode(formAllProperties, "", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: "true"}), nil
	}

	node := &yaml.Node{}
	if err := node.Encode(value); err != nil {
		return nil, err
	}
	return node, nil
}

func formNode(form, typeName string, body *yaml.Node) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode, Style: yaml.FlowStyle}
	if body.Kind != yaml.ScalarNode {
		node.Style = 0
	}
	node.Content = append(node.Content, scalarNode(form), body)
	if typeName != "" {
		node.Content = append(node.Content, scalarNode(keyType), scalarNode(typeName))
	}
	return node
}

func scalarNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}
