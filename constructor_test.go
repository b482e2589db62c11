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
	"testing"
)

// TestConstructorLoad tests constructor loading.
func TestConstructorLoad(t *testing.T) {
	fun := func(a, b, c string) (int, error) {
		return 1, nil
	}

	constructor := NewConstructor(fun, WithParameterNames("a", "b", "c"))
	equal(t, constructor.load(), nil)

	equal(t, constructor.fn == nil, false)
	equal(t, constructor.funcType.String(), "func(string, string, string) (int, error)")
	equal(t, fmt.Sprint(constructor.inTypes), "[string string string]")
	equal(t, constructor.outType, reflect.TypeOf(0))
	equal(t, constructor.outError, true)
	equal(t, constructor.ParameterNames(), []string{"a", "b", "c"})
	equal(t, constructor.OutType(), reflect.TypeOf(0))
}

// TestConstructorLoadErrors tests rejection of unsupported functions.
func TestConstructorLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		fn   ConstructorFunc
		opts []ConstructorOpt
		want string
	}{{
		name: "Nil",
		fn:   nil,
		want: "invalid constructor: no func specified",
	}, {
		name: "NotFunction",
		fn:   "string",
		want: "invalid constructor: not a function: string",
	}, {
		name: "Variadic",
		fn:   func(...string) int { return 0 },
		want: "invalid constructor: variadic function: func(...string) int",
	}, {
		name: "NoResult",
		fn:   func() {},
		want: "invalid constructor: unexpected results: func()",
	}, {
		name: "OnlyError",
		fn:   func() error { return nil },
		want: "invalid constructor: unexpected results: func() error",
	}, {
		name: "ParameterNames",
		fn:   func(string, int) int { return 0 },
		opts: []ConstructorOpt{WithParameterNames("host")},
		want: "invalid constructor: 1 parameter names for 2 parameters: func(string, int) int",
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewConstructor(tt.fn, tt.opts...).load()
			if err == nil || err.Error() != tt.want {
				t.Errorf("Constructor.load() got = %v, want %v", err, tt.want)
			}
		})
	}
}

// TestConstructorInfo tests constructors info.
func TestConstructorInfo(t *testing.T) {
	localFunc := func(globalType) string {
		return "string"
	}

	tests := []struct {
		name  string
		arg1  *Constructor
		want1 string
		want2 string
		want3 bool
	}{
		{
			name:  "LocalFunc",
			arg1:  NewConstructor(localFunc),
			want1: "Constructor[func(recipe.globalType) string]",
			want2: "github.com/NVIDIA/recipe",
			want3: true,
		},
		{
			name:  "GlobalFunc",
			arg1:  NewConstructor(globalFunc),
			want1: "Constructor[func(string) int]",
			want2: "github.com/NVIDIA/recipe",
			want3: false,
		},
		{
			name:  "HelperClosure",
			arg1:  newLimitTypes(new(int)).Constructors(reflect.TypeOf((*Limit)(nil)))[0],
			want1: "Constructor[func() *recipe.Limit]",
			want2: "github.com/NVIDIA/recipe",
			want3: true,
		},
		{
			name:  "MethodValue",
			arg1:  NewConstructor((&EndpointBuilder{}).Build),
			want1: "Constructor[func() (*recipe.Endpoint, error)]",
			want2: "github.com/NVIDIA/recipe",
			want3: true,
		},
		{
			name:  "ExportedFunc",
			arg1:  NewConstructor(NewEndpoint),
			want1: "Constructor[func(string, int) *recipe.Endpoint]",
			want2: "github.com/NVIDIA/recipe",
			want3: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got1 := tt.arg1.Name()
			if got1 != tt.want1 {
				t.Errorf("Constructor.Name() got = %v, want %v", got1, tt.want1)
			}
			got2 := tt.arg1.Source()
			if got2 != tt.want2 {
				t.Errorf("Constructor.Source() got = %v, want %v", got2, tt.want2)
			}
			got3 := tt.arg1.exported
			if got3 != tt.want3 {
				t.Errorf("Constructor.exported got = %v, want %v", got3, tt.want3)
			}
		})
	}
}

type globalType struct{}

func globalFunc(string) int { return 0 }

// TestSplitFuncName tests splitting of function name.
func TestSplitFuncName(t *testing.T) {
	tests := []struct {
		name  string
		arg   string
		want1 string
		want2 string
	}{{
		name:  "SplitPublicPackage",
		arg:   "github.com/NVIDIA/recipe/loader.Recipes.func1",
		want1: "github.com/NVIDIA/recipe/loader",
		want2: "Recipes.func1",
	}, {
		name:  "SplitMainPackage",
		arg:   "main.main.func1",
		want1: "main",
		want2: "main.func1",
	}, {
		name:  "SplitNoPackage",
		arg:   "func1",
		want1: "",
		want2: "func1",
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got1, got2 := splitFuncName(tt.arg)
			if got1 != tt.want1 {
				t.Errorf("splitFuncName() got1 = %v, want %v", got1, tt.want1)
			}
			if got2 != tt.want2 {
				t.Errorf("splitFuncName() got2 = %v, want %v", got2, tt.want2)
			}
		})
	}
}

// TestTypeRegistry tests registration of types and functions.
func TestTypeRegistry(t *testing.T) {
	types := NewTypeRegistry()

	typ, err := types.Lookup("time.Duration")
	equal(t, err, nil)
	equal(t, typ, durationType)

	equal(t, RegisterType[*Endpoint](types, "endpoint"), endpointType)
	typ, err = types.Lookup("endpoint")
	equal(t, err, nil)
	equal(t, typ, endpointType)

	_, err = types.Lookup("unknown")
	equal(t, err.Error(), "type could not be found: unknown")

	equal(t, types.AddConstructor(endpointType, NewConstructor(NewEndpoint)), nil)
	equal(t, len(types.Constructors(endpointType)), 1)
	err = types.AddConstructor(serverType, NewConstructor(NewEndpoint))
	equal(t, err.Error(), "failed to add constructor of *recipe.Server: produces *recipe.Endpoint")

	equal(t, types.AddFactory(endpointType, "Local", NewConstructor(LocalEndpoint)), nil)
	equal(t, len(types.Factories(endpointType, "Local", false)), 1)
	equal(t, len(types.Factories(endpointType, "local", false)), 0)
	equal(t, len(types.Factories(endpointType, "local", true)), 1)
	equal(t, types.AddFactory(endpointType, "", NewConstructor(LocalEndpoint)) != nil, true)

	var value int
	equal(t, types.AddStatic(endpointType, "Value", &value), nil)
	equal(t, types.AddStatic(endpointType, "Value", value) != nil, true)
	equal(t, len(types.Statics(endpointType)), 1)
}
