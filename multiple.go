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

// Multiple is an invocation argument receiving every published object
// assignable to T, in registration order. It is empty when nothing matches.
//
// Example:
//
//	invoker.Invoke(func(closers recipe.Multiple[io.Closer]) {
//	    for _, c := range closers {
//	        ...
//	    }
//	})
type Multiple[T any] []T

// Multiple marks this type as multiple.
func (m Multiple[T]) Multiple() {}

type multiple interface {
	Multiple()
}

var multipleType = reflect.TypeOf((*multiple)(nil)).Elem()

// isMultipleType returns the element type of a Multiple argument.
func isMultipleType(typ reflect.Type) (reflect.Type, bool) {
	if typ.Kind() != reflect.Slice || !typ.Implements(multipleType) {
		return nil, false
	}
	return typ.Elem(), true
}
