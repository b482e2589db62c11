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
	"reflect"
)

// Recipe describes how to produce one value.
//
// A named recipe publishes its value under its name in the execution
// context, so it is constructed at most once per pass.
type Recipe interface {
	// Name returns the recipe name, empty for anonymous recipes.
	Name() string

	// AllowPartial returns true when the value may be published before
	// its construction completes.
	AllowPartial() bool

	// Create produces the value.
	//
	// The expected type narrows the produced value, nil means any type.
	// When lazyRefAllowed is true, the result may be a pending *Reference.
	// The execution context is taken from ctx or created for this call.
	Create(ctx context.Context, expectedType reflect.Type, lazyRefAllowed bool) (any, error)

	// CanCreate returns true when the recipe can produce a value of the type.
	CanCreate(ec *ExecutionContext, typ reflect.Type) bool

	// NestedRecipes returns recipes this recipe depends on.
	NestedRecipes(ec *ExecutionContext) ([]Recipe, error)

	// ConstructorRecipes returns nested recipes needed before the value exists.
	ConstructorRecipes(ec *ExecutionContext) ([]Recipe, error)
}

// builder is implemented by every recipe kind.
type builder interface {
	Recipe

	// build produces the value with the execution context established.
	build(ctx context.Context, ec *ExecutionContext, expectedType reflect.Type, lazyRefAllowed bool) (any, error)
}

// base holds the state common to every recipe kind.
type base struct {
	name         string
	allowPartial bool
}

// Name implements Recipe.
func (b *base) Name() string {
	return b.name
}

// SetName sets the recipe name.
func (b *base) SetName(name string) {
	b.name = name
}

// AllowPartial implements Recipe.
func (b *base) AllowPartial() bool {
	return b.allowPartial
}

// SetAllowPartial sets whether the value may be published before it is
// completely constructed.
func (b *base) SetAllowPartial(allowPartial bool) {
	b.allowPartial = allowPartial
}

// create runs the construction protocol shared by all recipe kinds.
func create(ctx context.Context, r builder, expectedType reflect.Type, lazyRefAllowed bool) (result any, err error) {
	if expectedType == nil {
		expectedType = anyType
	}

	ctx, ec, done, err := ensureContext(ctx, func() *ExecutionContext {
		return NewExecutionContext(NewRepository())
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		err = done(err)
		if err != nil {
			result = nil
		}
	}()

	// Named objects are built once per pass.
	if name := r.Name(); name != "" && ec.ContainsObject(name) {
		if object := ec.GetObject(name); !isRecipe(object) {
			return object, nil
		}
	}

	if err := ec.Push(r); err != nil {
		return nil, err
	}
	defer func() {
		if popped := ec.Pop(); popped != r {
			panic(fmt.Sprintf("recipe stack is corrupt: expected %s to be popped but %s was",
				displayName(r), displayName(popped)))
		}
	}()

	return r.build(ctx, ec, expectedType, lazyRefAllowed)
}

// isRecipe returns true when the object is a recipe.
func isRecipe(object any) bool {
	_, ok := object.(Recipe)
	return ok
}

// displayName returns a printable recipe identity.
func displayName(r Recipe) string {
	if r == nil {
		return "<nil>"
	}
	if name := r.Name(); name != "" {
		return name
	}
	if stringer, ok := r.(fmt.Stringer); ok {
		return stringer.String()
	}
	return fmt.Sprintf("%T", r)
}

// anyType contains reflection type for any variable.
var anyType = reflect.TypeOf((*any)(nil)).Elem()

// errorType contains reflection type for error variable.
var errorType = reflect.TypeOf((*error)(nil)).Elem()

// anySliceType contains reflection type for any slice variable.
var anySliceType = reflect.TypeOf((*[]any)(nil)).Elem()
