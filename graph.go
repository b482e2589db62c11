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
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// NamedObject is an object built or found by an object graph.
type NamedObject struct {
	Name   string
	Object any
}

// ObjectGraph builds named recipes of a repository in dependency order.
type ObjectGraph struct {
	repository Repository
	types      *TypeRegistry
	logger     *zap.Logger
	events     Events
}

// NewObjectGraph returns a graph backed by the repository.
// Options apply to every execution context the graph creates.
func NewObjectGraph(repository Repository, opts ...ContextOpt) *ObjectGraph {
	template := &ExecutionContext{repository: repository}
	for _, opt := range opts {
		opt(template)
	}
	if template.repository == nil {
		template.repository = NewRepository()
	}
	if template.types == nil {
		template.types = NewTypeRegistry()
	}
	if template.logger == nil {
		template.logger = zap.NewNop()
	}
	if template.events == nil {
		template.events = NewEvents()
	}
	return &ObjectGraph{
		repository: template.repository,
		types:      template.types,
		logger:     template.logger,
		events:     template.events,
	}
}

// Repository returns the backing repository.
func (g *ObjectGraph) Repository() Repository {
	return g.repository
}

// Types returns the type registry.
func (g *ObjectGraph) Types() *TypeRegistry {
	return g.types
}

// Logger returns the graph logger.
func (g *ObjectGraph) Logger() *zap.Logger {
	return g.logger
}

// Events returns the events broker receiving construction events.
func (g *ObjectGraph) Events() Events {
	return g.events
}

// Add binds the recipe to its name.
func (g *ObjectGraph) Add(recipe Recipe) error {
	name := recipe.Name()
	if name == "" {
		return fmt.Errorf("recipe %s has no name", displayName(recipe))
	}
	if g.repository.Contains(name) {
		return fmt.Errorf("name '%s' is already registered", name)
	}
	g.repository.Add(name, recipe)
	return nil
}

// Names returns the bound names in registration order.
func (g *ObjectGraph) Names() []string {
	return g.repository.Names()
}

// Create builds the object bound to the name.
func (g *ObjectGraph) Create(ctx context.Context, name string) (any, error) {
	objects, err := g.CreateAll(ctx, name)
	if err != nil {
		return nil, err
	}
	for _, object := range objects {
		if object.Name == name {
			return object.Object, nil
		}
	}
	return g.repository.Get(name), nil
}

// CreateAll builds the objects bound to the names, every bound name when
// none are given. Objects already built are returned first, followed by
// the objects built by this call in construction order.
func (g *ObjectGraph) CreateAll(ctx context.Context, names ...string) (result []NamedObject, err error) {
	if len(names) == 0 {
		names = g.repository.Names()
	}

	ctx, ec, done, err := ensureContext(ctx, g.newContext)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = done(err)
		if err != nil {
			result = nil
		}
	}()

	recipes, err := g.sortedRecipes(ec, names)
	if err != nil {
		return nil, err
	}

	// Seed the result with the existing objects.
	objects := make([]NamedObject, 0, len(names))
	for _, name := range names {
		if slices.ContainsFunc(recipes, func(n *node) bool { return n.name == name }) {
			continue
		}
		if !ec.ContainsObject(name) {
			return nil, &NoSuchObjectError{Name: name}
		}
		objects = append(objects, NamedObject{Name: name, Object: ec.GetObject(name)})
	}

	offset := len(ec.constructed)
	for _, node := range recipes {
		if ec.ContainsObject(node.name) && !isRecipe(ec.GetObject(node.name)) {
			continue
		}
		if _, err := node.recipe.Create(ctx, anyType, false); err != nil {
			return nil, fmt.Errorf("failed to create '%s': %w", node.name, err)
		}
	}

	for _, name := range ec.constructed[offset:] {
		objects = append(objects, NamedObject{Name: name, Object: ec.GetObject(name)})
	}
	return objects, nil
}

// SortedNames returns the names of the recipes reachable from the names
// in construction order.
func (g *ObjectGraph) SortedNames(names ...string) ([]string, error) {
	if len(names) == 0 {
		names = g.repository.Names()
	}
	nodes, err := g.sortedRecipes(g.newContext(), names)
	if err != nil {
		return nil, err
	}
	sorted := make([]string, 0, len(nodes))
	for _, node := range nodes {
		sorted = append(sorted, node.name)
	}
	return sorted, nil
}

// newContext returns a new execution context sharing the graph state.
func (g *ObjectGraph) newContext() *ExecutionContext {
	return NewExecutionContext(g.repository, WithTypes(g.types), WithLogger(g.logger), WithEvents(g.events))
}

// node is a named recipe in the dependency graph.
type node struct {
	name       string
	recipe     Recipe
	dependents []*node
	pending    int
}

// sortedRecipes orders the named recipes reachable from the names so
// that constructor dependencies come first. Isolated recipes come first.
func (g *ObjectGraph) sortedRecipes(ec *ExecutionContext, names []string) ([]*node, error) {
	nodes := make(map[string]*node)
	order := make([]*node, 0, len(names))
	for _, name := range names {
		recipe, ok := ec.GetObject(name).(Recipe)
		if !ok {
			continue
		}
		if recipe.Name() != name {
			return nil, constructionErrorf("recipe '%s' returned from the repository has name '%s'", name, recipe.Name())
		}
		if _, err := createNode(ec, name, recipe, nodes, &order); err != nil {
			return nil, err
		}
	}

	sorted := make([]*node, 0, len(order))
	leaves := make([]*node, 0, len(order))
	for _, n := range order {
		if n.pending == 0 {
			if len(n.dependents) == 0 {
				sorted = append(sorted, n)
			} else {
				leaves = append(leaves, n)
			}
		}
	}

	for len(leaves) > 0 {
		leaf := leaves[0]
		leaves = leaves[1:]
		sorted = append(sorted, leaf)
		for _, dependent := range leaf.dependents {
			dependent.pending--
			if dependent.pending == 0 {
				leaves = append(leaves, dependent)
			}
		}
	}

	if len(sorted) != len(order) {
		explored := make(map[*node]bool, len(order))
		for _, n := range order {
			if slices.Contains(sorted, n) {
				continue
			}
			if err := findCircuit(n, nil, explored); err != nil {
				ec.logger.Debug("circular dependency detected", zap.Strings("cycle", err.Names()))
				if triggerErr := ec.trigger(CircularDependency, err); triggerErr != nil {
					ec.logger.Warn("failed to trigger circular dependency event", zap.Error(triggerErr))
				}
				return nil, err
			}
		}
		return nil, constructionErrorf("internal error: expected a circular dependency")
	}
	return sorted, nil
}

// createNode adds the node of the recipe and its named nested recipes.
// Anonymous nested recipes are flattened into their parent, their
// constructor recipes count only when they are constructor recipes too.
func createNode(ec *ExecutionContext, name string, recipe Recipe, nodes map[string]*node, order *[]*node) (*node, error) {
	if existing, ok := nodes[name]; ok {
		if existing.recipe != recipe {
			return nil, constructionErrorf("the name '%s' is assigned to multiple recipes", name)
		}
		return existing, nil
	}

	n := &node{name: name, recipe: recipe}
	nodes[name] = n
	*order = append(*order, n)

	nested, err := recipe.NestedRecipes(ec)
	if err != nil {
		return nil, err
	}
	constructor, err := recipe.ConstructorRecipes(ec)
	if err != nil {
		return nil, err
	}

	for len(nested) > 0 {
		current := nested[0]
		nested = nested[1:]

		if current.Name() == "" {
			more, err := current.NestedRecipes(ec)
			if err != nil {
				return nil, err
			}
			nested = append(nested, more...)
			if slices.Contains(constructor, current) {
				more, err = current.ConstructorRecipes(ec)
				if err != nil {
					return nil, err
				}
				constructor = append(constructor, more...)
			}
			continue
		}

		dependency, err := createNode(ec, current.Name(), current, nodes, order)
		if err != nil {
			return nil, err
		}
		if slices.Contains(constructor, current) {
			n.pending++
			dependency.dependents = append(dependency.dependents, n)
		}
	}
	return n, nil
}

// findCircuit walks the dependents of the node and returns the first
// cycle found. Nodes in explored are known to lead to no cycle.
func findCircuit(n *node, stack []*node, explored map[*node]bool) *CircularDependencyError {
	if explored[n] {
		return nil
	}
	if index := slices.Index(stack, n); index >= 0 {
		cycle := make([]Recipe, 0, len(stack)-index+1)
		for _, item := range stack[index:] {
			cycle = append(cycle, item.recipe)
		}
		cycle = append(cycle, n.recipe)
		return &CircularDependencyError{Cycle: cycle}
	}

	stack = append(stack, n)
	for _, dependent := range n.dependents {
		if err := findCircuit(dependent, stack, explored); err != nil {
			return err
		}
	}
	explored[n] = true
	return nil
}
