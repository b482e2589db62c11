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

package recipe

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newServerGraph returns a graph where the handler needs the server and
// the server needs its limit.
func newServerGraph(t *testing.T) *ObjectGraph {
	t.Helper()

	limit := NewObjectRecipe(reflect.TypeOf((*Limit)(nil)))
	limit.SetName("limit")
	limit.SetProperty("rate", 10)

	server := NewObjectRecipe(serverType)
	server.SetName("server")
	server.SetProperty("limit", NewReferenceRecipe("limit"))

	handler := NewObjectRecipe(handlerType)
	handler.SetName("handler")
	handler.SetProperty("server", NewReferenceRecipe("server"))

	isolated := NewCollectionRecipe(ListKind, "x")
	isolated.SetName("isolated")

	graph := NewObjectGraph(nil)
	for _, r := range []Recipe{handler, server, limit, isolated} {
		require.NoError(t, graph.Add(r))
	}
	return graph
}

func TestObjectGraphSortedNames(t *testing.T) {
	graph := newServerGraph(t)

	names, err := graph.SortedNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"isolated", "limit", "server", "handler"}, names)

	names, err = graph.SortedNames("server")
	require.NoError(t, err)
	assert.Equal(t, []string{"limit", "server"}, names)
}

func TestObjectGraphCreateAll(t *testing.T) {
	graph := newServerGraph(t)

	objects, err := graph.CreateAll(context.Background())
	require.NoError(t, err)

	names := make([]string, 0, len(objects))
	for _, object := range objects {
		names = append(names, object.Name)
	}
	assert.Equal(t, []string{"isolated", "limit", "server", "handler"}, names)

	handler := graph.Repository().Get("handler").(*Handler)
	assert.Same(t, graph.Repository().Get("server"), handler.Server)
	assert.Equal(t, 10, handler.Server.Limit.Rate)

	// Built objects are returned first on later calls.
	objects, err = graph.CreateAll(context.Background(), "server", "handler")
	require.NoError(t, err)
	assert.Equal(t, []NamedObject{
		{Name: "server", Object: handler.Server},
		{Name: "handler", Object: handler},
	}, objects)
}

func TestObjectGraphCreate(t *testing.T) {
	graph := newServerGraph(t)

	object, err := graph.Create(context.Background(), "server")
	require.NoError(t, err)
	assert.IsType(t, &Server{}, object)
	assert.True(t, isRecipe(graph.Repository().Get("handler")))

	_, err = graph.Create(context.Background(), "missing")
	var noSuchObject *NoSuchObjectError
	require.True(t, errors.As(err, &noSuchObject))
	assert.Equal(t, "missing", noSuchObject.Name)
}

func TestObjectGraphAdd(t *testing.T) {
	graph := NewObjectGraph(nil)

	assert.ErrorContains(t, graph.Add(NewObjectRecipe(serverType)), "has no name")

	r := NewObjectRecipe(serverType)
	r.SetName("server")
	require.NoError(t, graph.Add(r))
	assert.EqualError(t, graph.Add(r), "name 'server' is already registered")
	assert.Equal(t, []string{"server"}, graph.Names())
}

func TestObjectGraphCycle(t *testing.T) {
	a, b := newCycle()
	var cycles int

	graph := NewObjectGraph(nil)
	graph.Events().Subscribe(CircularDependency, func() {
		cycles++
	})
	require.NoError(t, graph.Add(a))
	require.NoError(t, graph.Add(b))

	_, err := graph.SortedNames()
	var cycle *CircularDependencyError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, []string{"a", "b", "a"}, cycle.Names())
	assert.Equal(t, 1, cycles)

	_, err = graph.CreateAll(context.Background())
	require.True(t, errors.As(err, &cycle))
}

func TestObjectGraphPartialCycle(t *testing.T) {
	a, b := newCycle()
	a.SetAllowPartial(true)

	graph := NewObjectGraph(nil)
	require.NoError(t, graph.Add(b))
	require.NoError(t, graph.Add(a))

	names, err := graph.SortedNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	objects, err := graph.CreateAll(context.Background())
	require.NoError(t, err)
	require.Len(t, objects, 2)
	handler := objects[0].Object.(*Handler)
	assert.Same(t, handler, handler.Server.Handler)
}

func TestObjectGraphLazyReferences(t *testing.T) {
	servers := NewCollectionRecipe(ListKind, NewReferenceRecipe("server"))
	servers.SetName("servers")
	servers.Allow(LazyAssignment)

	server := NewObjectRecipe(serverType)
	server.SetName("server")

	graph := NewObjectGraph(nil)
	require.NoError(t, graph.Add(servers))
	require.NoError(t, graph.Add(server))

	objects, err := graph.CreateAll(context.Background())
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, []any{graph.Repository().Get("server")}, graph.Repository().Get("servers"))

	// References to names never bound fail the pass.
	dangling := NewCollectionRecipe(ListKind, NewReferenceRecipe("nobody"))
	dangling.SetName("dangling")
	dangling.Allow(LazyAssignment)
	require.NoError(t, graph.Add(dangling))

	_, err = graph.CreateAll(context.Background())
	var unresolved *UnresolvedReferencesError
	require.True(t, errors.As(err, &unresolved))
	assert.Equal(t, []string{"nobody"}, unresolved.Names())
}

func TestObjectGraphFailure(t *testing.T) {
	r := NewObjectRecipeByName("unknown")
	r.SetName("broken")

	graph := NewObjectGraph(nil)
	require.NoError(t, graph.Add(r))

	_, err := graph.CreateAll(context.Background())
	assert.EqualError(t, err, "failed to create 'broken': type could not be found: unknown")
}

func TestObjectGraphConcurrentPasses(t *testing.T) {
	const passes = 32

	graph := NewObjectGraph(nil)
	for index := 0; index < passes; index++ {
		r := NewObjectRecipe(serverType)
		r.SetName(fmt.Sprintf("server-%d", index))
		r.SetProperty("port", index)
		require.NoError(t, graph.Add(r))
	}

	var mutex sync.Mutex
	ids := make(map[string]bool)
	graph.Events().Subscribe(PassStarted, func(id string) {
		mutex.Lock()
		defer mutex.Unlock()
		ids[id] = true
	})

	errs := make([]error, passes)
	objects := make([]any, passes)
	var wg sync.WaitGroup
	for index := 0; index < passes; index++ {
		index := index
		wg.Add(1)
		go func() {
			defer wg.Done()
			objects[index], errs[index] = graph.Create(context.Background(), fmt.Sprintf("server-%d", index))
		}()
	}
	wg.Wait()

	for index := 0; index < passes; index++ {
		require.NoError(t, errs[index])
		assert.Equal(t, index, objects[index].(*Server).Port)
	}
	assert.Len(t, ids, passes)
}

func TestFindCircuitSharedDependents(t *testing.T) {
	newNode := func(name string) *node {
		r := NewCollectionRecipe(ListKind)
		r.SetName(name)
		return &node{name: name, recipe: r}
	}

	// Forty diamonds in a row lead nowhere, the cycle hangs off the root.
	root := newNode("root")
	top := newNode("top")
	root.dependents = append(root.dependents, top)
	for layer := 0; layer < 40; layer++ {
		left, right := newNode(fmt.Sprintf("left-%d", layer)), newNode(fmt.Sprintf("right-%d", layer))
		bottom := newNode(fmt.Sprintf("bottom-%d", layer))
		top.dependents = append(top.dependents, left, right)
		left.dependents = append(left.dependents, bottom)
		right.dependents = append(right.dependents, bottom)
		top = bottom
	}
	a, b := newNode("a"), newNode("b")
	root.dependents = append(root.dependents, a)
	a.dependents = append(a.dependents, b)
	b.dependents = append(b.dependents, a)

	err := findCircuit(root, nil, make(map[*node]bool))
	require.NotNil(t, err)
	assert.Equal(t, []string{"a", "b", "a"}, err.Names())
}
