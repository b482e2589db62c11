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
	"runtime"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// ConstructorFunc declares the type for a constructor or factory function.
// The function may accept any arguments and must return the produced
// value, optionally followed by an error.
//
// Valid example signatures:
//
//	// Default-like constructor.
//	func() *Server
//
//	// Constructor with arguments, an error.
//	func(host string, port int) (*Server, error)
type ConstructorFunc any

// Constructor describes a function producing values of a type.
//
// Go functions carry no parameter names, so named-parameter matching
// uses the names given with WithParameterNames.
type Constructor struct {
	// Constructor function.
	fn ConstructorFunc

	// Constructor display name.
	name string

	// Constructor function package.
	source string

	// Constructor function exported status.
	exported bool

	// Declared parameter names, nil when unknown.
	paramNames []string

	// Loaded function metadata.
	once      sync.Once
	loadErr   error
	funcType  reflect.Type
	funcValue reflect.Value
	inTypes   []reflect.Type
	outType   reflect.Type
	outError  bool
}

// ConstructorOpt defines a functional option for configuring a constructor.
type ConstructorOpt func(*Constructor)

// WithParameterNames declares the constructor parameter names.
func WithParameterNames(names ...string) ConstructorOpt {
	return func(c *Constructor) {
		c.paramNames = append([]string(nil), names...)
	}
}

// NewConstructor returns a constructor for the function.
//
// Example:
//
//	recipe.NewConstructor(NewServer, recipe.WithParameterNames("host", "port"))
func NewConstructor(fn ConstructorFunc, opts ...ConstructorOpt) *Constructor {
	c := &Constructor{fn: fn}
	funcValue := reflect.ValueOf(fn)
	if funcValue.Kind() == reflect.Func {
		c.name = fmt.Sprintf("Constructor[%s]", funcValue.Type())
		c.source, c.exported = getFuncSource(funcValue)
	} else {
		c.name = fmt.Sprintf("Constructor[%T]", fn)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns constructor display name.
func (c *Constructor) Name() string {
	return c.name
}

// Source returns the package of the constructor function.
func (c *Constructor) Source() string {
	return c.source
}

// ParameterNames returns declared parameter names, nil when unknown.
func (c *Constructor) ParameterNames() []string {
	return c.paramNames
}

// ParameterTypes returns the function parameter types.
func (c *Constructor) ParameterTypes() []reflect.Type {
	if err := c.load(); err != nil {
		return nil
	}
	return c.inTypes
}

// OutType returns the type of the produced value.
func (c *Constructor) OutType() reflect.Type {
	if err := c.load(); err != nil {
		return nil
	}
	return c.outType
}

// String implements fmt.Stringer.
func (c *Constructor) String() string {
	return c.name
}

// load validates the function and indexes its signature.
func (c *Constructor) load() error {
	c.once.Do(func() {
		c.loadErr = c.doLoad()
	})
	return c.loadErr
}

// doLoad indexes the function signature.
func (c *Constructor) doLoad() error {
	if c.fn == nil {
		return errors.New("invalid constructor: no func specified")
	}

	c.funcType = reflect.TypeOf(c.fn)
	c.funcValue = reflect.ValueOf(c.fn)
	if c.funcType.Kind() != reflect.Func {
		return fmt.Errorf("invalid constructor: not a function: %s", c.funcType)
	}
	if c.funcType.IsVariadic() {
		return fmt.Errorf("invalid constructor: variadic function: %s", c.funcType)
	}

	c.inTypes = make([]reflect.Type, 0, c.funcType.NumIn())
	for index := 0; index < c.funcType.NumIn(); index++ {
		c.inTypes = append(c.inTypes, c.funcType.In(index))
	}

	switch {
	case c.funcType.NumOut() == 1 && c.funcType.Out(0) != errorType:
		c.outType = c.funcType.Out(0)
	case c.funcType.NumOut() == 2 && c.funcType.Out(1) == errorType:
		c.outType = c.funcType.Out(0)
		c.outError = true
	default:
		return fmt.Errorf("invalid constructor: unexpected results: %s", c.funcType)
	}

	if c.paramNames != nil && len(c.paramNames) != len(c.inTypes) {
		return fmt.Errorf("invalid constructor: %d parameter names for %d parameters: %s",
			len(c.paramNames), len(c.inTypes), c.funcType)
	}
	return nil
}

// call invokes the function with prepared arguments.
func (c *Constructor) call(args []reflect.Value) (reflect.Value, error) {
	if err := c.load(); err != nil {
		return reflect.Value{}, err
	}
	return callFunc(c.funcValue, args)
}

// getFuncSource returns the package of the function and whether it may
// be called without PrivateConstructor or PrivateFactory.
func getFuncSource(funcValue reflect.Value) (string, bool) {
	fn := runtime.FuncForPC(funcValue.Pointer())
	if fn == nil {
		return "", false
	}
	funcPackage, funcName := splitFuncName(fn.Name())
	return funcPackage, isExportedFunc(funcName)
}

// isExportedFunc checks the name of a top level function or method.
// Closures and method values are values handed over by the caller, so
// they are always callable.
func isExportedFunc(funcName string) bool {
	if strings.HasSuffix(funcName, "-fm") || strings.Contains(funcName, ".func") {
		return true
	}
	if index := strings.LastIndex(funcName, "."); index >= 0 {
		funcName = funcName[index+1:]
	}
	return isExportedName(funcName)
}

// splitFuncName splits specified func name to package and a name.
func splitFuncName(funcFullName string) (string, string) {
	// Split the full function name with package by dots.
	fullNameChunks := strings.Split(funcFullName, ".")
	if len(fullNameChunks) < 2 {
		return "", funcFullName
	}

	// Find the index of the last element containing "/".
	lastPackageChunkIndex := len(fullNameChunks) - 1
	for ; lastPackageChunkIndex >= 0; lastPackageChunkIndex-- {
		if strings.Contains(fullNameChunks[lastPackageChunkIndex], "/") {
			break
		}
	}

	// The name contains no package path.
	if lastPackageChunkIndex == -1 {
		packageName := fullNameChunks[0]
		funcName := strings.Join(fullNameChunks[1:], ".")
		return packageName, funcName
	}

	packageName := strings.Join(fullNameChunks[:lastPackageChunkIndex+1], ".")
	funcName := strings.Join(fullNameChunks[lastPackageChunkIndex+1:], ".")
	return packageName, funcName
}

// isExportedName returns true when the identifier starts with an upper case letter.
func isExportedName(name string) bool {
	first, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(first)
}
