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
)

// Action is invoked once when a reference gets resolved.
type Action func(ref *Reference) error

// Reference is a deferred pointer to a named object that has not been
// constructed yet.
type Reference struct {
	name     string
	resolved bool
	value    any
	action   Action
	fired    bool
}

// NewReference returns an unresolved reference to the named object.
func NewReference(name string) *Reference {
	return &Reference{name: name}
}

// Name returns the referenced name.
func (r *Reference) Name() string {
	return r.name
}

// IsResolved returns true once the reference has been set.
func (r *Reference) IsResolved() bool {
	return r.resolved
}

// Get returns the resolved object, or nil while unresolved.
func (r *Reference) Get() any {
	return r.value
}

// Set resolves the reference and fires its action.
// A reference can be resolved only once.
func (r *Reference) Set(value any) error {
	if r.resolved {
		return constructionErrorf("reference '%s' has already been resolved", r.name)
	}
	r.resolved = true
	r.value = value
	return r.fire()
}

// SetAction installs the resolution action.
// The action runs immediately when the reference is already resolved.
func (r *Reference) SetAction(action Action) error {
	r.action = action
	r.fired = false
	if r.resolved {
		return r.fire()
	}
	return nil
}

// String implements fmt.Stringer.
func (r *Reference) String() string {
	if r.resolved {
		return fmt.Sprintf("Reference[%s=%v]", r.name, r.value)
	}
	return fmt.Sprintf("Reference[%s]", r.name)
}

// fire invokes the action at most once.
func (r *Reference) fire() error {
	if r.action == nil || r.fired {
		return nil
	}
	r.fired = true
	if err := r.action(r); err != nil {
		return fmt.Errorf("failed to apply reference '%s': %w", r.name, err)
	}
	return nil
}

// wrapReference returns a reference named `name` that resolves together
// with the delegate and publishes the delegate value under its own name.
func wrapReference(ec *ExecutionContext, name string, delegate *Reference) (*Reference, error) {
	wrapper := NewReference(name)
	err := delegate.SetAction(func(ref *Reference) error {
		if err := ec.AddObject(name, ref.Get()); err != nil {
			return err
		}
		return wrapper.Set(ref.Get())
	})
	if err != nil {
		return nil, err
	}
	return wrapper, nil
}
