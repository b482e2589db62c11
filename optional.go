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
	"reflect"
)

// Optional defines an invocation argument that may be absent.
//
// The invoker assigns the only built object of type T, or leaves the
// zero value when there is none.
type Optional[T any] struct {
	value T
}

// Get returns the object or the zero value.
func (o Optional[T]) Get() T {
	return o.value
}

// Optional marks this type as optional.
func (o Optional[T]) Optional() {}

// isOptionalType checks and returns optional box type.
func isOptionalType(typ reflect.Type) (reflect.Type, bool) {
	if typ.Kind() == reflect.Struct {
		if _, ok := typ.MethodByName("Optional"); ok {
			if method, ok := typ.MethodByName("Get"); ok && method.Type.NumOut() == 1 {
				return method.Type.Out(0), true
			}
		}
	}
	return nil, false
}

// newOptionalValue boxes the value, an invalid value leaves the box empty.
func newOptionalValue(typ reflect.Type, value reflect.Value) reflect.Value {
	box := reflect.New(typ).Elem()
	if value.IsValid() {
		settableField(box.FieldByName("value")).Set(value)
	}
	return box
}
