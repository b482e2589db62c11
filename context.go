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
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExecutionContext is the state of a single construction pass.
//
// It is owned by one pass and is not safe for concurrent use. The
// repository, the type registry and the events broker it refers to
// may be shared between passes.
type ExecutionContext struct {
	id          string
	repository  Repository
	types       *TypeRegistry
	logger      *zap.Logger
	events      Events
	stack       []Recipe
	unresolved  map[string][]*Reference
	constructed []string
}

// ContextOpt configures an execution context.
type ContextOpt func(*ExecutionContext)

// WithTypes sets the type registry used to resolve type names,
// constructors and factories.
func WithTypes(types *TypeRegistry) ContextOpt {
	return func(ec *ExecutionContext) {
		ec.types = types
	}
}

// WithLogger sets the construction logger.
func WithLogger(logger *zap.Logger) ContextOpt {
	return func(ec *ExecutionContext) {
		ec.logger = logger
	}
}

// WithEvents sets the events broker receiving construction events.
func WithEvents(events Events) ContextOpt {
	return func(ec *ExecutionContext) {
		ec.events = events
	}
}

// NewExecutionContext returns a new execution context backed by the repository.
func NewExecutionContext(repository Repository, opts ...ContextOpt) *ExecutionContext {
	if repository == nil {
		repository = NewRepository()
	}
	ec := &ExecutionContext{
		id:         uuid.NewString(),
		repository: repository,
		unresolved: make(map[string][]*Reference),
	}
	for _, opt := range opts {
		opt(ec)
	}
	if ec.types == nil {
		ec.types = NewTypeRegistry()
	}
	if ec.logger == nil {
		ec.logger = zap.NewNop()
	}
	ec.logger = ec.logger.With(zap.String("pass", ec.id))
	return ec
}

// contextKey is the context.Context key of the execution context.
type contextKey struct{}

// WithExecutionContext returns a copy of ctx carrying the execution context.
func WithExecutionContext(ctx context.Context, ec *ExecutionContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ec)
}

// FromContext returns the execution context carried by ctx.
func FromContext(ctx context.Context) (*ExecutionContext, bool) {
	if ctx == nil {
		return nil, false
	}
	ec, ok := ctx.Value(contextKey{}).(*ExecutionContext)
	return ec, ok && ec != nil
}

// ID returns the unique pass id.
func (ec *ExecutionContext) ID() string {
	return ec.id
}

// Repository returns the backing repository.
func (ec *ExecutionContext) Repository() Repository {
	return ec.repository
}

// Types returns the type registry.
func (ec *ExecutionContext) Types() *TypeRegistry {
	return ec.types
}

// Logger returns the pass logger.
func (ec *ExecutionContext) Logger() *zap.Logger {
	return ec.logger
}

// Push adds the recipe to the construction stack.
// Re-entering a recipe already on the stack is a circular dependency.
func (ec *ExecutionContext) Push(recipe Recipe) error {
	if index := slices.Index(ec.stack, recipe); index >= 0 {
		cycle := make([]Recipe, 0, len(ec.stack)-index+1)
		for _, item := range ec.stack[index:] {
			if item != recipe && item.Name() == "" {
				continue
			}
			cycle = append(cycle, item)
		}
		cycle = append(cycle, recipe)

		err := &CircularDependencyError{Cycle: cycle}
		ec.logger.Debug("circular dependency detected", zap.Strings("cycle", err.Names()))
		if triggerErr := ec.trigger(CircularDependency, err); triggerErr != nil {
			ec.logger.Warn("failed to trigger circular dependency event", zap.Error(triggerErr))
		}
		return err
	}
	ec.stack = append(ec.stack, recipe)
	return nil
}

// Pop removes and returns the top of the construction stack.
func (ec *ExecutionContext) Pop() Recipe {
	if len(ec.stack) == 0 {
		return nil
	}
	top := ec.stack[len(ec.stack)-1]
	ec.stack = ec.stack[:len(ec.stack)-1]
	return top
}

// Stack returns a copy of the construction stack, outermost first.
func (ec *ExecutionContext) Stack() []Recipe {
	return append([]Recipe(nil), ec.stack...)
}

// Caller returns the recipe that requested the recipe on top of the stack.
func (ec *ExecutionContext) Caller() Recipe {
	if len(ec.stack) < 2 {
		return nil
	}
	return ec.stack[len(ec.stack)-2]
}

// ContainsObject returns true when the name is bound to an object or a recipe.
func (ec *ExecutionContext) ContainsObject(name string) bool {
	return ec.repository.Contains(name)
}

// GetObject returns the object or recipe bound to the name.
func (ec *ExecutionContext) GetObject(name string) any {
	return ec.repository.Get(name)
}

// AddObject publishes the object under the name and resolves pending
// references to it. A name can be bound to one object only, replacing
// a recipe binding is allowed.
func (ec *ExecutionContext) AddObject(name string, object any) error {
	if ec.repository.Contains(name) {
		if existing := ec.repository.Get(name); !isRecipe(existing) {
			return constructionErrorf("name '%s' is already registered to instance %v", name, existing)
		}
	}
	ec.repository.Add(name, object)
	ec.constructed = append(ec.constructed, name)
	ec.logger.Debug("object created", zap.String("name", name), zap.String("type", fmt.Sprintf("%T", object)))
	if err := ec.trigger(ObjectCreated, name, object); err != nil {
		return fmt.Errorf("failed to trigger object created event: %w", err)
	}

	refs := ec.unresolved[name]
	delete(ec.unresolved, name)
	for _, ref := range refs {
		if err := ec.resolve(ref, object); err != nil {
			return err
		}
	}
	return nil
}

// AddReference registers a pending reference. It is resolved at once when
// the name is already bound to an object.
func (ec *ExecutionContext) AddReference(ref *Reference) error {
	if object := ec.repository.Get(ref.Name()); object != nil && !isRecipe(object) {
		return ec.resolve(ref, object)
	}
	ec.unresolved[ref.Name()] = append(ec.unresolved[ref.Name()], ref)
	ec.logger.Debug("reference deferred", zap.String("name", ref.Name()))
	return nil
}

// UnresolvedRefs returns a copy of the pending references keyed by name.
func (ec *ExecutionContext) UnresolvedRefs() map[string][]*Reference {
	refs := make(map[string][]*Reference, len(ec.unresolved))
	for name, list := range ec.unresolved {
		refs[name] = append([]*Reference(nil), list...)
	}
	return refs
}

// Constructed returns names published during the pass in publication order.
func (ec *ExecutionContext) Constructed() []string {
	return append([]string(nil), ec.constructed...)
}

// resolve sets the reference and announces the resolution.
func (ec *ExecutionContext) resolve(ref *Reference, object any) error {
	if err := ref.Set(object); err != nil {
		return err
	}
	ec.logger.Debug("reference resolved", zap.String("name", ref.Name()))
	if err := ec.trigger(ReferenceResolved, ref.Name(), object); err != nil {
		return fmt.Errorf("failed to trigger reference resolved event: %w", err)
	}
	return nil
}

// begin announces the start of the pass.
func (ec *ExecutionContext) begin() error {
	ec.logger.Debug("construction pass started")
	if err := ec.trigger(PassStarted, ec.id); err != nil {
		return fmt.Errorf("failed to trigger pass started event: %w", err)
	}
	return nil
}

// finish checks pending references and announces the end of the pass.
func (ec *ExecutionContext) finish(err error) error {
	if err == nil && len(ec.unresolved) > 0 {
		err = &UnresolvedReferencesError{References: ec.UnresolvedRefs()}
	}
	if err != nil {
		ec.logger.Debug("construction pass failed", zap.Error(err))
	} else {
		ec.logger.Debug("construction pass finished", zap.Int("objects", len(ec.constructed)))
	}
	if triggerErr := ec.trigger(PassFinished, ec.id, err); triggerErr != nil {
		ec.logger.Warn("failed to trigger pass finished event", zap.Error(triggerErr))
	}
	return err
}

// trigger sends the event when an events broker is configured.
func (ec *ExecutionContext) trigger(name string, args ...any) error {
	if ec.events == nil {
		return nil
	}
	return ec.events.Trigger(NewEvent(name, args...))
}

// ensureContext returns the execution context of ctx, creating one when
// absent. The returned done func must be called with the result error
// and returns the final error; it is a no-op for reused contexts.
func ensureContext(ctx context.Context, factory func() *ExecutionContext) (context.Context, *ExecutionContext, func(error) error, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if ec, ok := FromContext(ctx); ok {
		return ctx, ec, func(err error) error { return err }, nil
	}
	ec := factory()
	if err := ec.begin(); err != nil {
		return nil, nil, nil, err
	}
	return WithExecutionContext(ctx, ec), ec, ec.finish, nil
}
