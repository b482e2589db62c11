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
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// Construction events.
const (
	// PassStarted is triggered when an execution context is created.
	// Args: pass id.
	PassStarted = "PassStarted"

	// PassFinished is triggered when the outermost construction call returns.
	// Args: pass id, error.
	PassFinished = "PassFinished"

	// ObjectCreated is triggered when an object is published under a name.
	// Args: name, object.
	ObjectCreated = "ObjectCreated"

	// ReferenceResolved is triggered when a pending reference is resolved.
	// Args: name, object.
	ReferenceResolved = "ReferenceResolved"

	// CircularDependency is triggered before a circular dependency error
	// is returned. Args: error.
	CircularDependency = "CircularDependency"
)

// Container events.
const (
	ContainerStarting = "ContainerStarting"
	ContainerStarted  = "ContainerStarted"
	ContainerClosing  = "ContainerClosing"
	ContainerClosed   = "ContainerClosed"
	UnhandledPanic    = "UnhandledPanic"
)

// Events declares the construction events broker.
type Events interface {
	// Subscribe registers an event handler.
	//
	// The handler is a function returning nothing or an error. It accepts
	// either `...any` or concrete argument types matching the event args.
	Subscribe(name string, handlerFn any)

	// Trigger calls handlers of the event and joins their errors.
	Trigger(event Event) error
}

// NewEvents returns a new events broker.
func NewEvents() Events {
	return &events{handlers: make(map[string][]handler)}
}

// events implements Events interface.
type events struct {
	mutex    sync.RWMutex
	handlers map[string][]handler
}

// Subscribe implements Events interface.
func (em *events) Subscribe(name string, handlerFn any) {
	em.mutex.Lock()
	defer em.mutex.Unlock()

	handlerValue := reflect.ValueOf(handlerFn)
	handlerType := handlerValue.Type()
	if handlerType.Kind() != reflect.Func {
		panic(fmt.Sprintf("unexpected event handler type: %T", handlerFn))
	}

	switch {
	case handlerType.NumOut() == 0:
	case handlerType.NumOut() == 1 && handlerType.Out(0).Implements(errorType):
	default:
		panic(fmt.Sprintf("unexpected event handler signature: %T", handlerFn))
	}

	if handlerType.NumIn() == 1 && handlerType.IsVariadic() && handlerType.In(0) == anySliceType {
		em.handlers[name] = append(em.handlers[name], func(event Event) error {
			return em.callVariadic(handlerValue, event.Args())
		})
	} else {
		em.handlers[name] = append(em.handlers[name], func(event Event) error {
			return em.callTyped(handlerValue, event.Args())
		})
	}
}

// Trigger implements Events interface.
func (em *events) Trigger(event Event) error {
	em.mutex.RLock()
	handlers := append([]handler(nil), em.handlers[event.Name()]...)
	em.mutex.RUnlock()

	errs := make([]error, 0, len(handlers))
	for _, handler := range handlers {
		if err := handler(event); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// callTyped calls `func(TypeA, TypeB) [error]` handlers.
// Missing trailing arguments are passed as zero values.
func (em *events) callTyped(handler reflect.Value, args []any) error {
	handlerType := handler.Type()
	in := make([]reflect.Value, 0, handlerType.NumIn())

	for index := 0; index < min(len(args), handlerType.NumIn()); index++ {
		argValue := reflect.ValueOf(args[index])
		argType := handlerType.In(index)

		// Untyped nils become typed zero values.
		if !argValue.IsValid() && isNillableType(argType) {
			argValue = reflect.Zero(argType)
		}
		if !argValue.IsValid() {
			return fmt.Errorf("%w: argument '%s' could not receive type 'nil' (index %d)",
				ErrHandlerArgTypeMismatch, argType, index)
		}
		if !argValue.Type().AssignableTo(argType) {
			return fmt.Errorf("%w: argument '%s' could not receive type '%s' (index %d)",
				ErrHandlerArgTypeMismatch, argType, argValue.Type(), index)
		}
		in = append(in, argValue)
	}

	for index := len(in); index < handlerType.NumIn(); index++ {
		in = append(in, reflect.Zero(handlerType.In(index)))
	}

	return outError(handler.Call(in))
}

// callVariadic calls `func(...any) [error]` handlers.
func (em *events) callVariadic(handler reflect.Value, args []any) error {
	in := make([]reflect.Value, 0, len(args))
	for _, arg := range args {
		if arg == nil {
			in = append(in, reflect.Zero(anyType))
			continue
		}
		in = append(in, reflect.ValueOf(arg))
	}
	return outError(handler.Call(in))
}

// outError extracts an optional error result.
func outError(out []reflect.Value) error {
	if len(out) == 1 {
		err, _ := out[0].Interface().(error)
		return err
	}
	return nil
}

// Event declares a construction event.
type Event interface {
	// Name returns event name.
	Name() string

	// Args returns event arguments.
	Args() []any
}

// NewEvent returns new event instance.
func NewEvent(name string, args ...any) Event {
	return &event{name: name, args: args}
}

// handler declares event handler function.
type handler func(event Event) error

// event implements Event interface.
type event struct {
	name string
	args []any
}

// Name implements Event interface.
func (e *event) Name() string { return e.name }

// Args implements Event interface.
func (e *event) Args() []any { return e.args }

// ErrHandlerArgTypeMismatch is returned when event args do not fit a handler.
var ErrHandlerArgTypeMismatch = errors.New("handler argument type mismatch")
