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
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/recipe"
)

type Store struct {
	DSN string
}

type Server struct {
	Addr     string
	Timeout  time.Duration
	Store    *Store
	Tags     []string
	Limits   map[string]int
	Endpoint *Endpoint
}

type Endpoint struct {
	Host string
	Port int
}

func NewEndpoint(host string, port int) *Endpoint {
	return &Endpoint{Host: host, Port: port}
}

const serverYAML = `
objects:
  - name: server
    type: server
    properties:
      Addr: ":8080"
      Timeout: 5s
      Store: {ref: store}
      Tags: [a, b]
      Limits: {map: {read: 10, write: 5}}
      Endpoint:
        object:
          type: endpoint
          args: [host, port]
          properties:
            host: localhost
            port: 9090
  - name: store
    type: store
    options: [case-insensitive-properties]
    properties:
      dsn: memory
`

func newTypes(t *testing.T) *recipe.TypeRegistry {
	types := recipe.NewTypeRegistry()
	recipe.RegisterType[*Server](types, "server")
	recipe.RegisterType[*Store](types, "store")
	endpointType := recipe.RegisterType[*Endpoint](types, "endpoint")
	require.NoError(t, types.AddConstructor(endpointType,
		recipe.NewConstructor(NewEndpoint, recipe.WithParameterNames("host", "port"))))
	return types
}

func TestParseYAML(t *testing.T) {
	doc, err := Parse([]byte(serverYAML), FormatYAML)
	require.NoError(t, err)
	require.Len(t, doc.Objects, 2)

	server := doc.Objects[0]
	assert.Equal(t, "server", server.Name)
	names := make([]string, 0, len(server.Properties))
	for _, property := range server.Properties {
		names = append(names, property.Name)
	}
	assert.Equal(t, []string{"Addr", "Timeout", "Store", "Tags", "Limits", "Endpoint"}, names)

	assert.Equal(t, ":8080", server.Properties[0].Value)
	assert.Equal(t, &Ref{Name: "store"}, server.Properties[2].Value)
	assert.Equal(t, &Collection{Kind: "list", Items: []any{"a", "b"}}, server.Properties[3].Value)
	assert.Equal(t, &Map{Entries: []Entry{{Key: "read", Value: 10}, {Key: "write", Value: 5}}},
		server.Properties[4].Value)

	endpoint, ok := server.Properties[5].Value.(*Object)
	require.True(t, ok)
	assert.Equal(t, "endpoint", endpoint.Type)
	assert.Equal(t, []string{"host", "port"}, endpoint.Args)

	assert.Equal(t, []string{"case-insensitive-properties"}, doc.Objects[1].Options)
}

func TestParseForms(t *testing.T) {
	doc, err := Parse([]byte(`
objects:
  - name: forms
    type: forms
    properties:
      set: {set: [1, 2], type: "[]int"}
      sorted: {sortedSet: [b, a]}
      all: {allProperties: true}
      plain: {name: value}
`), FormatYAML)
	require.NoError(t, err)

	properties := doc.Objects[0].Properties
	assert.Equal(t, &Collection{Kind: "set", Type: "[]int", Items: []any{1, 2}}, properties[0].Value)
	assert.Equal(t, &Collection{Kind: "sortedSet", Items: []any{"b", "a"}}, properties[1].Value)
	assert.Equal(t, &AllProperties{}, properties[2].Value)
	assert.Equal(t, &Map{Entries: []Entry{{Key: "name", Value: "value"}}}, properties[3].Value)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
		err    string
	}{
		{
			name:   "UnknownField",
			data:   "objects: []\nbogus: 1\n",
			format: FormatYAML,
			err:    "field bogus not found",
		},
		{
			name:   "BadRef",
			data:   "objects:\n  - name: a\n    type: a\n    properties:\n      b: {ref: [x]}\n",
			format: FormatYAML,
			err:    "ref must be a name",
		},
		{
			name:   "AllPropertiesFalse",
			data:   "objects:\n  - name: a\n    type: a\n    properties:\n      b: {allProperties: false}\n",
			format: FormatYAML,
			err:    "allProperties must be true",
		},
		{
			name:   "InvalidTOML",
			data:   "objects = [",
			format: FormatTOML,
			err:    "failed to parse toml",
		},
		{
			name:   "UnknownFormat",
			data:   "{}",
			format: Format("json"),
			err:    `unknown format: "json"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), tt.format)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.err)
		})
	}
}

func TestParseTOML(t *testing.T) {
	doc, err := Parse([]byte(`
[[objects]]
name = "store"
type = "store"

[objects.properties]
Timeout = "1s"
DSN = "memory"
`), FormatTOML)
	require.NoError(t, err)
	require.Len(t, doc.Objects, 1)

	// Properties follow key order.
	properties := doc.Objects[0].Properties
	require.Len(t, properties, 2)
	assert.Equal(t, "DSN", properties[0].Name)
	assert.Equal(t, "memory", properties[0].Value)
	assert.Equal(t, "Timeout", properties[1].Name)
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path   string
		format Format
		err    string
	}{
		{path: "graph.yaml", format: FormatYAML},
		{path: "graph.YML", format: FormatYAML},
		{path: "graph.toml", format: FormatTOML},
		{path: "graph", err: `file "graph" has no extension`},
		{path: "graph.json", err: `unknown format: "json"`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			format, err := FormatFromPath(tt.path)
			if tt.err != "" {
				require.EqualError(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.format, format)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(serverYAML), 0o600))

	doc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, doc.Objects, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}

func TestMarshal(t *testing.T) {
	doc, err := Parse([]byte(serverYAML), FormatYAML)
	require.NoError(t, err)

	data, err := Marshal(doc, FormatYAML)
	require.NoError(t, err)
	assert.Contains(t, string(data), "{ref: store}")

	decoded, err := Parse(data, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, doc, decoded)

	data, err = Marshal(doc, FormatTOML)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[[objects]]")

	_, err = Marshal(doc, Format("xml"))
	require.EqualError(t, err, `unknown format: "xml"`)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		data string
		err  string
	}{
		{
			name: "Valid",
			data: serverYAML,
		},
		{
			name: "MissingType",
			data: "objects:\n  - name: a\n",
			err:  "Objects[0].Type is required",
		},
		{
			name: "UnknownOption",
			data: "objects:\n  - name: a\n    type: a\n    options: [bogus]\n",
			err:  "Objects[0].Options[0]: unknown option 'bogus', expected one of: field-injection",
		},
		{
			name: "Unnamed",
			data: "objects:\n  - type: a\n",
			err:  "objects[0]: name is required",
		},
		{
			name: "Duplicate",
			data: "objects:\n  - name: a\n    type: a\n  - name: b\n    type: b\n    properties:\n      c: {object: {name: a, type: a}}\n",
			err:  "name 'a' is declared more than once",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.data), FormatYAML)
			require.NoError(t, err)
			err = Validate(doc)
			if tt.err == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.err)
		})
	}

	require.EqualError(t, Validate(nil), "document is empty")
}

func TestPopulate(t *testing.T) {
	doc, err := Parse([]byte(serverYAML), FormatYAML)
	require.NoError(t, err)

	graph := recipe.NewObjectGraph(nil, recipe.WithTypes(newTypes(t)))
	require.NoError(t, Populate(graph, doc))
	assert.Equal(t, []string{"server", "store"}, graph.Names())

	object, err := graph.Create(context.Background(), "server")
	require.NoError(t, err)
	server, ok := object.(*Server)
	require.True(t, ok)

	assert.Equal(t, ":8080", server.Addr)
	assert.Equal(t, 5*time.Second, server.Timeout)
	assert.Equal(t, &Store{DSN: "memory"}, server.Store)
	assert.Equal(t, []string{"a", "b"}, server.Tags)
	assert.Equal(t, map[string]int{"read": 10, "write": 5}, server.Limits)
	assert.Equal(t, &Endpoint{Host: "localhost", Port: 9090}, server.Endpoint)

	// The referenced store is shared.
	store, err := graph.Create(context.Background(), "store")
	require.NoError(t, err)
	assert.Same(t, server.Store, store)

	// Names are bound once.
	require.Error(t, Populate(graph, doc))
}

func TestRecipesPropertyKinds(t *testing.T) {
	doc, err := Parse([]byte(`
objects:
  - name: server
    type: server
    properties:
      field:Addr: ":9090"
      auto:store: {object: {type: store, properties: {DSN: auto}}}
`), FormatYAML)
	require.NoError(t, err)

	recipes, err := Recipes(doc)
	require.NoError(t, err)
	require.Len(t, recipes, 1)

	graph := recipe.NewObjectGraph(nil, recipe.WithTypes(newTypes(t)))
	require.NoError(t, graph.Add(recipes[0]))
	object, err := graph.Create(context.Background(), "server")
	require.NoError(t, err)
	assert.Equal(t, ":9090", object.(*Server).Addr)
	assert.Equal(t, &Store{DSN: "auto"}, object.(*Server).Store)

	doc.Objects[0].Options = []string{"bogus"}
	_, err = Recipes(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid document")
}
