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

// Resolver defines object resolver interface.
type Resolver interface {
	// Resolve assigns the object bound to the name to the variable.
	Resolve(name string, varPtr any) error

	// ResolveType assigns the only object of the variable type.
	ResolveType(varPtr any) error

	// Implements assigns all objects assignable to the slice element type.
	Implements(slicePtr any) error
}

// resolver implements resolver interface.
type resolver struct {
	ctx   context.Context
	graph *ObjectGraph
}

// Resolve implements Resolver interface.
func (r *resolver) Resolve(name string, varPtr any) error {
	value, err := pointerElem(varPtr)
	if err != nil {
		return err
	}

	object, err := r.object(name)
	if err != nil {
		return fmt.Errorf("failed to resolve object '%s': %w", name, err)
	}
	result, err := assignable(value.Type(), object)
	if err != nil {
		return fmt.Errorf("failed to resolve object '%s': %w", name, err)
	}
	value.Set(result)
	return nil
}

// ResolveType implements Resolver interface.
func (r *resolver) ResolveType(varPtr any) error {
	value, err := pointerElem(varPtr)
	if err != nil {
		return err
	}

	objects := r.objectsOf(value.Type())
	switch len(objects) {
	case 0:
		return fmt.Errorf("failed to resolve type '%s': no object found", value.Type())
	case 1:
		value.Set(reflect.ValueOf(objects[0]))
		return nil
	}
	return fmt.Errorf("failed to resolve type '%s': %d objects found", value.Type(), len(objects))
}

// Implements implements Resolver interface.
func (r *resolver) Implements(slicePtr any) error {
	value, err := pointerElem(slicePtr)
	if err != nil {
		return err
	}
	if value.Kind() != reflect.Slice {
		return fmt.Errorf("expected pointer to slice, got %T", slicePtr)
	}

	objects := r.objectsOf(value.Type().Elem())
	result := reflect.MakeSlice(value.Type(), 0, len(objects))
	for _, object := range objects {
		result = reflect.Append(result, reflect.ValueOf(object))
	}
	value.Set(result)
	return nil
}

// object returns the object bound to the name, building it when needed.
func (r *resolver) object(name string) (any, error) {
	object := r.graph.Repository().Get(name)
	if object == nil && !r.graph.Repository().Contains(name) {
		return nil, &NoSuchObjectError{Name: name}
	}
	if isRecipe(object) {
		return r.graph.Create(r.ctx, name)
	}
	return object, nil
}

// objectsOf returns built objects assignable to the type in
// registration order.
func (r *resolver) objectsOf(typ reflect.Type) []any {
	var objects []any
	for _, name := range r.graph.Names() {
		object := r.graph.Repository().Get(name)
		if object == nil || isRecipe(object) {
			continue
		}
		if reflect.TypeOf(object).AssignableTo(typ) {
			objects = append(objects, object)
		}
	}
	return objects
}

// pointerElem returns the settable variable behind the pointer.
func pointerElem(varPtr any) (reflect.Value, error) {
	value := reflect.ValueOf(varPtr)
	if value.Kind() != reflect.Pointer || value.IsNil() {
		return reflect.Value{}, fmt.Errorf("expected non-nil pointer, got %T", varPtr)
	}
	return value.Elem(), nil
}
