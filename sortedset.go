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
	"cmp"
	"fmt"
	"reflect"
	"sort"
)

// CompareFunc orders two values, returning a negative number, zero or a
// positive number.
type CompareFunc func(a, b any) int

// SortedSet keeps distinct values in order. The zero value orders values
// with DefaultCompare.
type SortedSet struct {
	values  []any
	compare CompareFunc
}

// NewSortedSet returns an empty set ordered by the function.
func NewSortedSet(compare CompareFunc) *SortedSet {
	return &SortedSet{compare: compare}
}

// Add inserts the value unless an equal value is present.
func (s *SortedSet) Add(value any) error {
	index, found := s.search(value)
	if found {
		return nil
	}
	s.values = append(s.values, nil)
	copy(s.values[index+1:], s.values[index:])
	s.values[index] = value
	return nil
}

// Contains returns true when an equal value is present.
func (s *SortedSet) Contains(value any) bool {
	_, found := s.search(value)
	return found
}

// Len returns the number of values.
func (s *SortedSet) Len() int {
	return len(s.values)
}

// Values returns the values in order.
func (s *SortedSet) Values() []any {
	return append([]any(nil), s.values...)
}

// String implements fmt.Stringer.
func (s *SortedSet) String() string {
	return fmt.Sprint(s.values)
}

// search returns the insertion index of the value.
func (s *SortedSet) search(value any) (int, bool) {
	compare := s.compare
	if compare == nil {
		compare = DefaultCompare
	}
	index := sort.Search(len(s.values), func(i int) bool {
		return compare(s.values[i], value) >= 0
	})
	return index, index < len(s.values) && compare(s.values[index], value) == 0
}

// DefaultCompare orders nil first, then numbers, strings and booleans by
// value. Values of other kinds are ordered by type name and text.
func DefaultCompare(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}

	aValue, bValue := reflect.ValueOf(a), reflect.ValueOf(b)
	aRank, bRank := kindRank(aValue.Kind()), kindRank(bValue.Kind())
	if aRank != bRank {
		return cmp.Compare(aRank, bRank)
	}

	switch aRank {
	case 1:
		if isIntegerKind(aValue.Kind()) && isIntegerKind(bValue.Kind()) {
			return compareIntegers(aValue, bValue)
		}
		return cmp.Compare(toFloat(aValue), toFloat(bValue))
	case 2:
		return cmp.Compare(aValue.String(), bValue.String())
	case 3:
		return cmp.Compare(boolRank(aValue.Bool()), boolRank(bValue.Bool()))
	}

	if order := cmp.Compare(aValue.Type().String(), bValue.Type().String()); order != 0 {
		return order
	}
	return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// kindRank groups kinds compared by value.
func kindRank(kind reflect.Kind) int {
	switch {
	case isIntegerKind(kind) || isFloatKind(kind):
		return 1
	case kind == reflect.String:
		return 2
	case kind == reflect.Bool:
		return 3
	}
	return 4
}

// compareIntegers compares signed and unsigned integers without overflow.
func compareIntegers(a, b reflect.Value) int {
	switch {
	case isSignedKind(a.Kind()) && isSignedKind(b.Kind()):
		return cmp.Compare(a.Int(), b.Int())
	case isUnsignedKind(a.Kind()) && isUnsignedKind(b.Kind()):
		return cmp.Compare(a.Uint(), b.Uint())
	case isSignedKind(a.Kind()):
		if a.Int() < 0 {
			return -1
		}
		return cmp.Compare(uint64(a.Int()), b.Uint())
	default:
		if b.Int() < 0 {
			return 1
		}
		return cmp.Compare(a.Uint(), uint64(b.Int()))
	}
}

func toFloat(value reflect.Value) float64 {
	switch {
	case isSignedKind(value.Kind()):
		return float64(value.Int())
	case isUnsignedKind(value.Kind()):
		return float64(value.Uint())
	}
	return value.Float()
}

func boolRank(value bool) int {
	if value {
		return 1
	}
	return 0
}
