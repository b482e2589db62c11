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
	"sort"
	"strings"
)

// ConstructionError is returned when a recipe can not produce its value.
type ConstructionError struct {
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConstructionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *ConstructionError) Unwrap() error {
	return e.Cause
}

// constructionErrorf returns a construction error without a cause.
func constructionErrorf(format string, args ...any) *ConstructionError {
	return &ConstructionError{Message: fmt.Sprintf(format, args...)}
}

// wrapConstructionError returns a construction error with a cause.
func wrapConstructionError(cause error, format string, args ...any) *ConstructionError {
	return &ConstructionError{Message: fmt.Sprintf(format, args...), Cause: cause}
}

// CircularDependencyError is returned when a recipe is re-entered while
// it is still being constructed.
//
// The cycle starts and ends with the re-entered recipe. Anonymous recipes
// between them are omitted.
type CircularDependencyError struct {
	Cycle []Recipe
}

// Error implements the error interface.
func (e *CircularDependencyError) Error() string {
	return "circular dependency: " + strings.Join(e.Names(), " -> ")
}

// Names returns display names of the recipes in the cycle.
func (e *CircularDependencyError) Names() []string {
	names := make([]string, 0, len(e.Cycle))
	for _, recipe := range e.Cycle {
		names = append(names, displayName(recipe))
	}
	return names
}

// UnresolvedReferencesError is returned by the outermost construction call
// when forward references were never bound to an object.
type UnresolvedReferencesError struct {
	References map[string][]*Reference
}

// Error implements the error interface.
func (e *UnresolvedReferencesError) Error() string {
	return "unresolved references: " + strings.Join(e.Names(), ", ")
}

// Names returns the sorted names of the unresolved references.
func (e *UnresolvedReferencesError) Names() []string {
	names := make([]string, 0, len(e.References))
	for name := range e.References {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NoSuchObjectError is returned when a name is neither bound to an object
// nor to a recipe.
type NoSuchObjectError struct {
	Name string
}

// Error implements the error interface.
func (e *NoSuchObjectError) Error() string {
	return fmt.Sprintf("no object or recipe registered with name '%s'", e.Name)
}

// MissingAccessorError describes why no setter or field accepts a property.
//
// The match level ranks how close the best candidate came; the closest
// miss wins when several strategies fail.
type MissingAccessorError struct {
	Message    string
	MatchLevel int
}

// Error implements the error interface.
func (e *MissingAccessorError) Error() string {
	return e.Message
}

// MissingFactoryMethodError describes why no constructor or factory
// function accepts the recipe arguments.
type MissingFactoryMethodError struct {
	Message    string
	MatchLevel int
}

// Error implements the error interface.
func (e *MissingFactoryMethodError) Error() string {
	return e.Message
}

// missAccessor records a miss when it is closer than the current one.
func missAccessor(current *MissingAccessorError, level int, format string, args ...any) *MissingAccessorError {
	if current != nil && current.MatchLevel >= level {
		return current
	}
	return &MissingAccessorError{Message: fmt.Sprintf(format, args...), MatchLevel: level}
}

// missFactory records a miss when it is closer than the current one.
func missFactory(current *MissingFactoryMethodError, level int, format string, args ...any) *MissingFactoryMethodError {
	if current != nil && current.MatchLevel >= level {
		return current
	}
	return &MissingFactoryMethodError{Message: fmt.Sprintf(format, args...), MatchLevel: level}
}
