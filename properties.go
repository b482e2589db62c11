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

// Properties is an immutable ordered bag of named values.
type Properties struct {
	names  []string
	values map[string]any
}

// NewProperties returns a bag holding the values in the order of names.
// Names missing from values are skipped.
func NewProperties(names []string, values map[string]any) *Properties {
	p := &Properties{values: make(map[string]any, len(names))}
	for _, name := range names {
		value, ok := values[name]
		if !ok {
			continue
		}
		if _, seen := p.values[name]; !seen {
			p.names = append(p.names, name)
		}
		p.values[name] = value
	}
	return p
}

// Get returns the named value.
func (p *Properties) Get(name string) (any, bool) {
	if p == nil {
		return nil, false
	}
	value, ok := p.values[name]
	return value, ok
}

// Names returns the names in declaration order.
func (p *Properties) Names() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.names...)
}

// Len returns the number of values.
func (p *Properties) Len() int {
	if p == nil {
		return 0
	}
	return len(p.names)
}

// Map returns a copy of the values.
func (p *Properties) Map() map[string]any {
	result := make(map[string]any, p.Len())
	if p == nil {
		return result
	}
	for name, value := range p.values {
		result[name] = value
	}
	return result
}

// String implements fmt.Stringer.
func (p *Properties) String() string {
	pairs := make([]string, 0, p.Len())
	for _, name := range p.Names() {
		pairs = append(pairs, fmt.Sprintf("%s=%v", name, p.values[name]))
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}
