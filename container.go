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
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// Names of the container services bound in the graph repository.
const (
	EventsObjectName   = "recipe.events"
	ResolverObjectName = "recipe.resolver"
	InvokerObjectName  = "recipe.invoker"
)

var serviceNames = []string{EventsObjectName, ResolverObjectName, InvokerObjectName}

// NewContainer returns new container instance building the graph.
//
// The events broker, the resolver and the invoker are bound in the graph
// repository, so recipes may refer to them by name.
func NewContainer(graph *ObjectGraph) (result Container, err error) {
	// Don't accept the context in args, since it mustn't be cancelled outside.
	// The container context is cancelled after closing of all objects.
	ctx, cancel := context.WithCancel(context.Background())

	// Cancel context only when returning an error.
	// Otherwise, in will be cancelled by container.
	defer func() {
		if err != nil {
			cancel()
		}
	}()

	resolver := &resolver{ctx: ctx, graph: graph}
	container := &container{
		ctx:      ctx,
		cancel:   cancel,
		graph:    graph,
		resolver: resolver,
		invoker:  &invoker{resolver: resolver},
	}

	// Trigger panic events in object container.
	defer container.recoverPanic()

	services := []NamedObject{
		{Name: EventsObjectName, Object: graph.Events()},
		{Name: ResolverObjectName, Object: container.resolver},
		{Name: InvokerObjectName, Object: container.invoker},
	}
	for _, service := range services {
		if graph.Repository().Contains(service.Name) {
			return nil, fmt.Errorf("failed to register %s: name is already registered", service.Name)
		}
		graph.Repository().Add(service.Name, service.Object)
	}

	return container, nil
}

// Container defines object container interface.
type Container interface {
	// Start builds every recipe of the graph.
	Start(ctx context.Context) error

	// Close closes built objects in the reverse construction order.
	// Blocks invocation until the container is closed.
	Close() error

	// Done is closing after closing of all objects.
	Done() <-chan struct{}

	// Events returns events broker instance.
	Events() Events

	// Resolver returns object resolver instance.
	Resolver() Resolver

	// Invoker returns function invoker instance.
	Invoker() Invoker

	// Objects returns objects of the graph in construction order,
	// without the container services.
	Objects() []NamedObject
}

// container implements object container.
type container struct {
	ctx    context.Context
	cancel context.CancelFunc
	closer sync.Once
	mutex  sync.Mutex

	graph    *ObjectGraph
	resolver *resolver
	invoker  *invoker
	objects  []NamedObject
}

// Start implements Container interface.
func (c *container) Start(ctx context.Context) error {
	// Trigger panic events in object container.
	defer c.recoverPanic()

	// Trigger container starting event.
	if err := c.Events().Trigger(NewEvent(ContainerStarting)); err != nil {
		return fmt.Errorf("failed to trigger container starting event: %w", err)
	}

	// Build all recipes of the graph.
	objects, startErr := c.graph.CreateAll(ctx)
	objects = slices.DeleteFunc(objects, func(object NamedObject) bool {
		return slices.Contains(serviceNames, object.Name)
	})
	c.mutex.Lock()
	c.objects = objects
	c.mutex.Unlock()

	// Trigger container started event.
	if err := c.Events().Trigger(NewEvent(ContainerStarted, startErr)); err != nil {
		return fmt.Errorf("failed to trigger container started event: %w", err)
	}

	// Handle container start error.
	if startErr != nil {
		return fmt.Errorf("failed to start objects in container: %w", startErr)
	}

	c.graph.Logger().Debug("container started", zap.Int("objects", len(objects)))
	return nil
}

// Close implements Container interface.
func (c *container) Close() (err error) {
	// Trigger panic events in object container.
	defer c.recoverPanic()

	// Init container close once.
	c.closer.Do(func() {
		// Close container context independently of errors.
		// It will unblock all concurrent close calls.
		defer c.cancel()

		// Trigger container closing event.
		if triggerErr := c.Events().Trigger(NewEvent(ContainerClosing)); triggerErr != nil {
			err = fmt.Errorf("failed to trigger container closing event: %w", triggerErr)
			return
		}

		// Close all built objects.
		closeErr := c.closeObjects()
		if closeErr != nil {
			err = fmt.Errorf("failed to close objects: %w", closeErr)
			return
		}

		// Trigger container closed event.
		if triggerErr := c.Events().Trigger(NewEvent(ContainerClosed, closeErr)); triggerErr != nil {
			err = fmt.Errorf("failed to trigger container closed event: %w", triggerErr)
			return
		}
	})

	// Await container close, e.g. from concurrent close call.
	<-c.ctx.Done()

	return
}

// Done implements Container interface.
func (c *container) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Events implements Container interface.
func (c *container) Events() Events {
	return c.graph.Events()
}

// Resolver implements Container interface.
func (c *container) Resolver() Resolver {
	return c.resolver
}

// Invoker implements Container interface.
func (c *container) Invoker() Invoker {
	return c.invoker
}

// Objects implements Container interface.
func (c *container) Objects() []NamedObject {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return append([]NamedObject(nil), c.objects...)
}

// closeObjects closes objects implementing io.Closer in the reverse order.
func (c *container) closeObjects() error {
	c.mutex.Lock()
	objects := c.objects
	c.objects = nil
	c.mutex.Unlock()

	var errs []error
	for index := len(objects) - 1; index >= 0; index-- {
		if closer, ok := objects[index].Object.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close '%s': %w", objects[index].Name, err))
			}
		}
	}
	return errors.Join(errs...)
}

// recoverPanic triggers the unhandled panic event and repanics.
func (c *container) recoverPanic() {
	if recovered := recover(); recovered != nil {
		_ = c.Events().Trigger(NewEvent(UnhandledPanic, recovered, string(debug.Stack())))
		panic(recovered)
	}
}
