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
	"reflect"
)

// Invoker defines invoker interface.
type Invoker interface {
	// Invoke calls the function with built objects as arguments.
	//
	// Arguments are bound positionally to the named objects. Arguments
	// past the given names are resolved by type, Optional and Multiple
	// arguments accept zero or more objects.
	Invoke(fn any, names ...string) (InvokeResult, error)
}

// invoker implements invoker interface.
type invoker struct {
	resolver Resolver
}

// Invoke implements Invoker interface.
func (i *invoker) Invoke(fn any, names ...string) (InvokeResult, error) {
	// Get reflection of the fn.
	fnValue := reflect.ValueOf(fn)
	if fnValue.Kind() != reflect.Func {
		return nil, fmt.Errorf("fn must be a function")
	}
	fnType := fnValue.Type()
	if len(names) > fnType.NumIn() {
		return nil, fmt.Errorf("%d names given for %d arguments", len(names), fnType.NumIn())
	}

	// Resolve function arguments.
	fnInArgs := make([]reflect.Value, 0, fnType.NumIn())
	for index := 0; index < fnType.NumIn(); index++ {
		fnArg, err := i.resolveArg(fnType.In(index), index, names)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve argument %d: %w", index, err)
		}
		fnInArgs = append(fnInArgs, fnArg)
	}

	// Convert function results.
	fnOutArgs := fnValue.Call(fnInArgs)
	result := &invokeResult{
		values: make([]any, 0, len(fnOutArgs)),
		err:    nil,
	}
	for index, fnOut := range fnOutArgs {
		// The last error result is the invocation error.
		if index == len(fnOutArgs)-1 && fnOut.Type().Implements(errorType) {
			result.err, _ = fnOut.Interface().(error)
		}
		result.values = append(result.values, fnOut.Interface())
	}

	return result, nil
}

// resolveArg resolves the argument by name when one is given, otherwise
// by type. Optional and Multiple arguments are boxed.
func (i *invoker) resolveArg(typ reflect.Type, index int, names []string) (reflect.Value, error) {
	if index < len(names) {
		argPtr := reflect.New(typ)
		if err := i.resolver.Resolve(names[index], argPtr.Interface()); err != nil {
			return reflect.Value{}, err
		}
		return argPtr.Elem(), nil
	}

	if _, ok := isMultipleType(typ); ok {
		argPtr := reflect.New(typ)
		if err := i.resolver.Implements(argPtr.Interface()); err != nil {
			return reflect.Value{}, err
		}
		return argPtr.Elem(), nil
	}

	if elemType, ok := isOptionalType(typ); ok {
		objects := reflect.New(reflect.SliceOf(elemType))
		if err := i.resolver.Implements(objects.Interface()); err != nil {
			return reflect.Value{}, err
		}
		switch objects.Elem().Len() {
		case 0:
			return newOptionalValue(typ, reflect.Value{}), nil
		case 1:
			return newOptionalValue(typ, objects.Elem().Index(0)), nil
		}
		return reflect.Value{}, fmt.Errorf("failed to resolve type '%s': %d objects found",
			elemType, objects.Elem().Len())
	}

	argPtr := reflect.New(typ)
	if err := i.resolver.ResolveType(argPtr.Interface()); err != nil {
		return reflect.Value{}, err
	}
	return argPtr.Elem(), nil
}

// InvokeResult provides access to the invocation result.
type InvokeResult interface {
	// Values returns a slice of function result values.
	Values() []any

	// Error returns function result error, if any.
	Error() error
}

// invokeResult implements corresponding interface.
type invokeResult struct {
	values []any
	err    error
}

// Values implements corresponding interface method.
func (r *invokeResult) Values() []any {
	return r.values
}

// Error implements corresponding interface method.
func (r *invokeResult) Error() error {
	return r.err
}

// callFunc calls a constructor, factory, setter or getter and splits the
// produced value from a trailing error result.
func callFunc(fn reflect.Value, args []reflect.Value) (reflect.Value, error) {
	if !fn.IsValid() {
		return reflect.Value{}, fmt.Errorf("invalid function")
	}
	out := fn.Call(args)
	if len(out) > 0 && out[len(out)-1].Type() == errorType {
		if err, _ := out[len(out)-1].Interface().(error); err != nil {
			return reflect.Value{}, err
		}
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return reflect.Value{}, nil
	}
	return out[0], nil
}
