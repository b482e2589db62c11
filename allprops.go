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
	"reflect"
)

// AllPropertiesRecipe produces the declared properties of the object
// recipe it is nested in.
//
// Only plain values are copied. Properties holding recipes, this one
// included, are skipped.
type AllPropertiesRecipe struct {
	base
}

// NewAllPropertiesRecipe returns a new recipe.
func NewAllPropertiesRecipe() *AllPropertiesRecipe {
	return &AllPropertiesRecipe{}
}

// String implements fmt.Stringer.
func (r *AllPropertiesRecipe) String() string {
	return "AllPropertiesRecipe"
}

// Create implements Recipe.
func (r *AllPropertiesRecipe) Create(ctx context.Context, expectedType reflect.Type, lazyRefAllowed bool) (any, error) {
	return create(ctx, r, expectedType, lazyRefAllowed)
}

// CanCreate implements Recipe.
func (r *AllPropertiesRecipe) CanCreate(_ *ExecutionContext, typ reflect.Type) bool {
	return isAssignableType(typ, propertiesType)
}

// NestedRecipes implements Recipe.
func (r *AllPropertiesRecipe) NestedRecipes(_ *ExecutionContext) ([]Recipe, error) {
	return nil, nil
}

// ConstructorRecipes implements Recipe.
func (r *AllPropertiesRecipe) ConstructorRecipes(_ *ExecutionContext) ([]Recipe, error) {
	return nil, nil
}

// build implements builder.
func (r *AllPropertiesRecipe) build(_ context.Context, ec *ExecutionContext, _ reflect.Type, _ bool) (any, error) {
	caller, ok := ec.Caller().(*ObjectRecipe)
	if !ok {
		return nil, constructionErrorf("all properties recipe can only be nested in an object recipe: %s",
			displayName(ec.Caller()))
	}

	declared := caller.Properties()
	names := make([]string, 0, declared.Len())
	values := make(map[string]any, declared.Len())
	for _, name := range declared.Names() {
		value, _ := declared.Get(name)
		if isRecipe(value) {
			continue
		}
		names = append(names, name)
		values[name] = value
	}
	properties := NewProperties(names, values)

	if name := r.Name(); name != "" {
		if err := ec.AddObject(name, properties); err != nil {
			return nil, err
		}
	}
	return properties, nil
}

// propertiesType contains reflection type for properties bag.
var propertiesType = reflect.TypeOf((*Properties)(nil))
