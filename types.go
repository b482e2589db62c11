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
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// TypeRegistry resolves type names and keeps the functions able to
// produce values of registered types.
//
// Go has no runtime type loading, so every type a recipe refers to by
// name, every constructor with arguments and every factory function
// has to be registered here first. The registry is safe for concurrent use.
type TypeRegistry struct {
	mutex        sync.RWMutex
	types        map[string]reflect.Type
	constructors map[reflect.Type][]*Constructor
	factories    map[reflect.Type]map[string][]*Constructor
	statics      map[reflect.Type]map[string]reflect.Value
}

// NewTypeRegistry returns a registry knowing the builtin scalar types.
func NewTypeRegistry() *TypeRegistry {
	r := &TypeRegistry{
		types:        make(map[string]reflect.Type),
		constructors: make(map[reflect.Type][]*Constructor),
		factories:    make(map[reflect.Type]map[string][]*Constructor),
		statics:      make(map[reflect.Type]map[string]reflect.Value),
	}
	for _, typ := range []reflect.Type{
		reflect.TypeOf(""), reflect.TypeOf(false),
		reflect.TypeOf(0), reflect.TypeOf(int64(0)), reflect.TypeOf(uint(0)),
		reflect.TypeOf(float64(0)), durationType, anyType,
	} {
		r.types[typ.String()] = typ
	}
	r.types["any"] = anyType
	return r
}

// Register binds the name to the type.
func (r *TypeRegistry) Register(name string, typ reflect.Type) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.types[name] = typ
}

// RegisterType binds the name to the type parameter and returns the type.
//
// Example:
//
//	recipe.RegisterType[*Server](types, "server")
func RegisterType[T any](r *TypeRegistry, name string) reflect.Type {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	r.Register(name, typ)
	return typ
}

// Lookup returns the type bound to the name.
func (r *TypeRegistry) Lookup(name string) (reflect.Type, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if typ, ok := r.types[name]; ok {
		return typ, nil
	}
	return nil, constructionErrorf("type could not be found: %s", name)
}

// Names returns the sorted registered type names.
func (r *TypeRegistry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AddConstructor registers a constructor function of the type.
// The function must produce a value assignable to the type.
func (r *TypeRegistry) AddConstructor(typ reflect.Type, constructor *Constructor) error {
	if err := constructor.load(); err != nil {
		return fmt.Errorf("failed to add constructor of %s: %w", typ, err)
	}
	if !constructor.outType.AssignableTo(typ) {
		return fmt.Errorf("failed to add constructor of %s: produces %s", typ, constructor.outType)
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.constructors[typ] = append(r.constructors[typ], constructor)
	return nil
}

// Constructors returns registered constructors of the type.
func (r *TypeRegistry) Constructors(typ reflect.Type) []*Constructor {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return append([]*Constructor(nil), r.constructors[typ]...)
}

// AddFactory registers a named factory function owned by the type.
// Factories may produce values of any type.
func (r *TypeRegistry) AddFactory(typ reflect.Type, name string, factory *Constructor) error {
	if name == "" {
		return fmt.Errorf("failed to add factory of %s: empty name", typ)
	}
	if err := factory.load(); err != nil {
		return fmt.Errorf("failed to add factory '%s' of %s: %w", name, typ, err)
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.factories[typ] == nil {
		r.factories[typ] = make(map[string][]*Constructor)
	}
	r.factories[typ][name] = append(r.factories[typ][name], factory)
	return nil
}

// Factories returns factories of the type registered under the name.
func (r *TypeRegistry) Factories(typ reflect.Type, name string, caseInsensitive bool) []*Constructor {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	var result []*Constructor
	for factoryName, factories := range r.factories[typ] {
		if factoryName == name || (caseInsensitive && strings.EqualFold(factoryName, name)) {
			result = append(result, factories...)
		}
	}
	return result
}

// AddStatic registers a package variable as a static property of the type.
// The pointer must point to the variable.
func (r *TypeRegistry) AddStatic(typ reflect.Type, name string, pointer any) error {
	value := reflect.ValueOf(pointer)
	if value.Kind() != reflect.Pointer || value.IsNil() {
		return fmt.Errorf("failed to add static '%s' of %s: not a pointer: %T", name, typ, pointer)
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.statics[typ] == nil {
		r.statics[typ] = make(map[string]reflect.Value)
	}
	r.statics[typ][name] = value.Elem()
	return nil
}

// Statics returns the static properties of the type.
func (r *TypeRegistry) Statics(typ reflect.Type) map[string]reflect.Value {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	statics := make(map[string]reflect.Value, len(r.statics[typ]))
	for name, value := range r.statics[typ] {
		statics[name] = value
	}
	return statics
}
