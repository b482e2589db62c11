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

// ReferenceRecipe produces the object bound to another name.
type ReferenceRecipe struct {
	base

	referenceName string
}

// NewReferenceRecipe returns a recipe referring to the name.
func NewReferenceRecipe(referenceName string) *ReferenceRecipe {
	return &ReferenceRecipe{referenceName: referenceName}
}

// ReferenceName returns the referenced name.
func (r *ReferenceRecipe) ReferenceName() string {
	return r.referenceName
}

// SetReferenceName sets the referenced name.
func (r *ReferenceRecipe) SetReferenceName(name string) {
	r.referenceName = name
}

// String implements fmt.Stringer.
func (r *ReferenceRecipe) String() string {
	return fmt.Sprintf("ReferenceRecipe[%s]", r.referenceName)
}

// Create implements Recipe.
func (r *ReferenceRecipe) Create(ctx context.Context, expectedType reflect.Type, lazyRefAllowed bool) (any, error) {
	return create(ctx, r, expectedType, lazyRefAllowed)
}

// CanCreate implements Recipe.
func (r *ReferenceRecipe) CanCreate(ec *ExecutionContext, typ reflect.Type) bool {
	if r.referenceName == "" || ec == nil {
		return false
	}
	object := ec.GetObject(r.referenceName)
	if recipe, ok := object.(Recipe); ok {
		return recipe.CanCreate(ec, typ)
	}
	return isInstance(typ, object)
}

// NestedRecipes implements Recipe.
func (r *ReferenceRecipe) NestedRecipes(ec *ExecutionContext) ([]Recipe, error) {
	if r.referenceName == "" || ec == nil {
		return nil, nil
	}
	if recipe, ok := ec.GetObject(r.referenceName).(Recipe); ok {
		return []Recipe{recipe}, nil
	}
	return nil, nil
}

// ConstructorRecipes implements Recipe.
func (r *ReferenceRecipe) ConstructorRecipes(ec *ExecutionContext) ([]Recipe, error) {
	return r.NestedRecipes(ec)
}

// build implements builder.
func (r *ReferenceRecipe) build(ctx context.Context, ec *ExecutionContext, expectedType reflect.Type, lazyRefAllowed bool) (any, error) {
	if r.referenceName == "" {
		return nil, constructionErrorf("no reference name specified")
	}

	var result any
	switch {
	case !ec.ContainsObject(r.referenceName):
		if !lazyRefAllowed {
			return nil, constructionErrorf("currently no object registered with name '%s'", r.referenceName)
		}
		ref := NewReference(r.referenceName)
		if err := ec.AddReference(ref); err != nil {
			return nil, err
		}
		result = ref

	default:
		object := ec.GetObject(r.referenceName)
		recipe, isRecipe := object.(Recipe)
		switch {
		case isRecipe && lazyRefAllowed:
			ref := NewReference(r.referenceName)
			if err := ec.AddReference(ref); err != nil {
				return nil, err
			}
			result = ref
		case isRecipe:
			created, err := recipe.Create(ctx, expectedType, false)
			if err != nil {
				return nil, err
			}
			result = created
		default:
			result = object
		}
	}

	// Named references publish the target under their own name.
	if name := r.Name(); name != "" {
		if ref, ok := result.(*Reference); ok && !ref.IsResolved() {
			wrapper, err := wrapReference(ec, name, ref)
			if err != nil {
				return nil, err
			}
			return wrapper, nil
		}
		if ref, ok := result.(*Reference); ok {
			result = ref.Get()
		}
		if err := ec.AddObject(name, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}
