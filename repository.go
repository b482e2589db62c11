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
	"sync"
)

// Repository stores objects and recipes by name.
type Repository interface {
	// Contains returns true when the name is bound.
	Contains(name string) bool

	// Get returns the object or recipe bound to the name, or nil.
	Get(name string) any

	// Add binds the name, replacing any previous binding.
	Add(name string, object any)

	// Names returns bound names in the order they were first added.
	Names() []string
}

// NewRepository returns an empty repository safe for concurrent use.
func NewRepository() Repository {
	return &repository{objects: make(map[string]any)}
}

// repository implements Repository.
type repository struct {
	mutex   sync.RWMutex
	objects map[string]any
	names   []string
}

// Contains implements Repository.
func (r *repository) Contains(name string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	_, ok := r.objects[name]
	return ok
}

// Get implements Repository.
func (r *repository) Get(name string) any {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.objects[name]
}

// Add implements Repository.
func (r *repository) Add(name string, object any) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.objects[name]; !ok {
		r.names = append(r.names, name)
	}
	r.objects[name] = object
}

// Names implements Repository.
func (r *repository) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return append([]string(nil), r.names...)
}
