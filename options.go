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
	"strings"
)

// Option toggles a matching rule of object, collection and map recipes.
type Option uint

// Supported options.
const (
	// FieldInjection allows plain properties to be injected into struct fields.
	FieldInjection Option = 1 << iota

	// PrivateProperties allows injection into unexported struct fields.
	PrivateProperties

	// StaticProperties allows injection into package variables
	// registered for the type.
	StaticProperties

	// CaseInsensitiveProperties matches setter and field names ignoring case.
	CaseInsensitiveProperties

	// IgnoreMissingProperties records properties without a matching member
	// as unset instead of failing.
	IgnoreMissingProperties

	// NamedParameters selects constructors by their declared parameter names.
	NamedParameters

	// PrivateConstructor allows unexported types and constructor functions.
	PrivateConstructor

	// PrivateFactory allows unexported factory functions.
	PrivateFactory

	// CaseInsensitiveFactory matches factory names ignoring case.
	CaseInsensitiveFactory

	// LazyAssignment lets collection and map elements be forward references.
	LazyAssignment
)

// optionNames maps options to their textual names.
var optionNames = map[Option]string{
	FieldInjection:            "field-injection",
	PrivateProperties:         "private-properties",
	StaticProperties:          "static-properties",
	CaseInsensitiveProperties: "case-insensitive-properties",
	IgnoreMissingProperties:   "ignore-missing-properties",
	NamedParameters:           "named-parameters",
	PrivateConstructor:        "private-constructor",
	PrivateFactory:            "private-factory",
	CaseInsensitiveFactory:    "case-insensitive-factory",
	LazyAssignment:            "lazy-assignment",
}

// String returns the textual option name.
func (o Option) String() string {
	if name, ok := optionNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Option(%d)", uint(o))
}

// ParseOption returns an option by its textual name.
func ParseOption(name string) (Option, error) {
	for option, optionName := range optionNames {
		if strings.EqualFold(optionName, name) {
			return option, nil
		}
	}
	return 0, fmt.Errorf("unknown option '%s'", name)
}

// OptionNames returns textual names of all supported options.
func OptionNames() []string {
	names := make([]string, 0, len(optionNames))
	for option := FieldInjection; option <= LazyAssignment; option <<= 1 {
		names = append(names, option.String())
	}
	return names
}

// Options is a set of options.
type Options Option

// Has returns true when the option is present in the set.
func (o Options) Has(option Option) bool {
	return Option(o)&option != 0
}

// With returns the set with the option added.
func (o Options) With(option Option) Options {
	return Options(Option(o) | option)
}

// Without returns the set with the option removed.
func (o Options) Without(option Option) Options {
	return Options(Option(o) &^ option)
}
