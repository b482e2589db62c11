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

// mapEntry is a declared key and value, either may be a recipe.
type mapEntry struct {
	key   any
	value any
}

// MapRecipe builds a map from declared entries.
type MapRecipe struct {
	base

	typ      reflect.Type
	typeName string
	entries  []mapEntry
	options  Options
}

// NewMapRecipe returns an empty map recipe.
func NewMapRecipe() *MapRecipe {
	return &MapRecipe{}
}

// SetType sets the requested map type.
func (r *MapRecipe) SetType(typ reflect.Type) {
	r.typ = typ
}

// SetTypeName sets the name of the requested map type.
func (r *MapRecipe) SetTypeName(typeName string) {
	r.typeName = typeName
}

// Put appends an entry. Keys and values may be recipes.
func (r *MapRecipe) Put(key, value any) {
	r.entries = append(r.entries, mapEntry{key: key, value: value})
}

// Len returns the number of declared entries.
func (r *MapRecipe) Len() int {
	return len(r.entries)
}

// Allow adds the option.
func (r *MapRecipe) Allow(option Option) {
	r.options = r.options.With(option)
}

// Disallow removes the option.
func (r *MapRecipe) Disallow(option Option) {
	r.options = r.options.Without(option)
}

// Options returns the enabled options.
func (r *MapRecipe) Options() Options {
	return r.options
}

// String implements fmt.Stringer.
func (r *MapRecipe) String() string {
	if r.Name() != "" {
		return fmt.Sprintf("MapRecipe[%s]", r.Name())
	}
	return "MapRecipe"
}

// Create implements Recipe.
func (r *MapRecipe) Create(ctx context.Context, expectedType reflect.Type, lazyRefAllowed bool) (any, error) {
	return create(ctx, r, expectedType, lazyRefAllowed)
}

// CanCreate implements Recipe.
func (r *MapRecipe) CanCreate(ec *ExecutionContext, typ reflect.Type) bool {
	mapType, err := r.mapType(ec, typ)
	if err != nil {
		return false
	}
	return isAssignableType(typ, mapType)
}

// NestedRecipes implements Recipe.
func (r *MapRecipe) NestedRecipes(_ *ExecutionContext) ([]Recipe, error) {
	nested := make([]Recipe, 0, len(r.entries)*2)
	for _, entry := range r.entries {
		if recipe, ok := entry.key.(Recipe); ok {
			nested = append(nested, recipe)
		}
		if recipe, ok := entry.value.(Recipe); ok {
			nested = append(nested, recipe)
		}
	}
	return nested, nil
}

// ConstructorRecipes implements Recipe.
func (r *MapRecipe) ConstructorRecipes(ec *ExecutionContext) ([]Recipe, error) {
	if r.options.Has(LazyAssignment) {
		return nil, nil
	}
	return r.NestedRecipes(ec)
}

// build implements builder.
func (r *MapRecipe) build(ctx context.Context, ec *ExecutionContext, expectedType reflect.Type, _ bool) (any, error) {
	typ, err := r.mapType(ec, expectedType)
	if err != nil {
		return nil, err
	}
	instance := reflect.MakeMapWithSize(typ, len(r.entries))
	keyType, valueType := typ.Key(), typ.Elem()

	if name := r.Name(); name != "" && r.AllowPartial() {
		if err := ec.AddObject(name, instance.Interface()); err != nil {
			return nil, err
		}
	}

	lazy := r.options.Has(LazyAssignment)
	for index, entry := range r.entries {
		key, err := convert(ctx, keyType, entry.key, lazy)
		if err != nil {
			return nil, wrapConstructionError(err, "failed to convert key of entry %d of %s", index, r)
		}
		value, err := convert(ctx, valueType, entry.value, lazy)
		if err != nil {
			return nil, wrapConstructionError(err, "failed to convert value of entry %d of %s", index, r)
		}

		keyRef, lazyKey := key.(*Reference)
		valueRef, lazyValue := value.(*Reference)
		switch {
		case lazyKey:
			// The entry is stored once both key and value are resolved.
			action := func(*Reference) error {
				if !keyRef.IsResolved() || lazyValue && !valueRef.IsResolved() {
					return nil
				}
				resolvedValue := value
				if lazyValue {
					resolvedValue = valueRef.Get()
				}
				return putEntry(instance, keyRef.Get(), resolvedValue)
			}
			if err := keyRef.SetAction(action); err != nil {
				return nil, err
			}
			if lazyValue {
				if err := valueRef.SetAction(action); err != nil {
					return nil, err
				}
			}
		case lazyValue:
			if err := putEntry(instance, key, reflect.Zero(valueType).Interface()); err != nil {
				return nil, wrapConstructionError(err, "failed to put entry %d to %s", index, r)
			}
			if err := valueRef.SetAction(func(ref *Reference) error {
				return putEntry(instance, key, ref.Get())
			}); err != nil {
				return nil, err
			}
		default:
			if err := putEntry(instance, key, value); err != nil {
				return nil, wrapConstructionError(err, "failed to put entry %d to %s", index, r)
			}
		}
	}

	object := instance.Interface()
	if name := r.Name(); name != "" && !r.AllowPartial() {
		if err := ec.AddObject(name, object); err != nil {
			return nil, err
		}
	}
	return object, nil
}

// mapType returns the declared type, or the expected type when it is
// more specific, or map[any]any.
func (r *MapRecipe) mapType(ec *ExecutionContext, expectedType reflect.Type) (reflect.Type, error) {
	typ := r.typ
	if typ == nil && r.typeName != "" {
		if ec == nil {
			return nil, constructionErrorf("type could not be resolved without a context: %s", r.typeName)
		}
		var err error
		if typ, err = ec.Types().Lookup(r.typeName); err != nil {
			return nil, err
		}
	}

	if expectedType != nil && expectedType.Kind() == reflect.Map && (typ == nil || expectedType.AssignableTo(typ)) {
		return expectedType, nil
	}
	if typ != nil && typ.Kind() == reflect.Map {
		return typ, nil
	}
	if typ != nil && typ != anyType {
		return nil, constructionErrorf("type is not a map: %s", typ)
	}
	return anyMapType, nil
}

// putEntry stores the entry converting it to the map types.
func putEntry(instance reflect.Value, key, value any) error {
	keyValue, err := assignable(instance.Type().Key(), key)
	if err != nil {
		return fmt.Errorf("invalid key: %w", err)
	}
	if !keyValue.Comparable() {
		return fmt.Errorf("key of type %s is not comparable", valueTypeName(key))
	}
	elemValue, err := assignable(instance.Type().Elem(), value)
	if err != nil {
		return fmt.Errorf("invalid value: %w", err)
	}
	instance.SetMapIndex(keyValue, elemValue)
	return nil
}

// anyMapType contains reflection type for any map variable.
var anyMapType = reflect.TypeOf(map[any]any{})
