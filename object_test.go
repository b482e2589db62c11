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
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Server struct {
	Host     string
	Port     int
	Timeout  time.Duration
	Alias    string `recipe:"name"`
	Limit    *Limit
	Handler  *Handler
	Settings *Properties
	secret   string
}

func (s *Server) SetPort(port int) error {
	if port < 0 {
		return errors.New("negative port")
	}
	s.Port = port
	return nil
}

func (s *Server) Secret() string {
	return s.secret
}

type Limit struct {
	Rate int
}

func (l *Limit) SetRate(rate int) {
	l.Rate = rate
}

type Handler struct {
	Server *Server
	Name   string
}

type Endpoint struct {
	Host string
	Port int
	Via  string
}

func NewEndpoint(host string, port int) *Endpoint {
	return &Endpoint{Host: host, Port: port, Via: "constructor"}
}

func LocalEndpoint(port int) (*Endpoint, error) {
	if port == 0 {
		return nil, errors.New("port is required")
	}
	return &Endpoint{Host: "localhost", Port: port, Via: "factory"}, nil
}

type EndpointBuilder struct {
	Host string
}

func (b *EndpointBuilder) Build() (*Endpoint, error) {
	return &Endpoint{Host: b.Host, Port: 443, Via: "builder"}, nil
}

var (
	serverType   = reflect.TypeOf((*Server)(nil))
	endpointType = reflect.TypeOf((*Endpoint)(nil))
)

// buildWith creates the recipe in a new pass using the types.
func buildWith(types *TypeRegistry, r Recipe) (any, error) {
	if types == nil {
		types = NewTypeRegistry()
	}
	graph := NewObjectGraph(nil, WithTypes(types))
	ctx, _, done, err := ensureContext(context.Background(), graph.newContext)
	if err != nil {
		return nil, err
	}
	object, err := r.Create(ctx, nil, false)
	return object, done(err)
}

func TestObjectRecipeProperties(t *testing.T) {
	r := NewObjectRecipe(serverType)
	r.SetProperty("host", "localhost")
	r.SetProperty("port", "8080")
	r.SetProperty("timeout", "5s")
	r.SetProperty("name", "primary")

	object, err := buildWith(nil, r)
	require.NoError(t, err)
	server := object.(*Server)
	assert.Equal(t, "localhost", server.Host)
	assert.Equal(t, 8080, server.Port)
	assert.Equal(t, 5*time.Second, server.Timeout)
	assert.Equal(t, "primary", server.Alias)
}

func TestObjectRecipeSetterError(t *testing.T) {
	r := NewObjectRecipe(serverType)
	r.SetMethodProperty("port", -1)

	_, err := buildWith(nil, r)
	require.Error(t, err)
	assert.ErrorContains(t, err, "negative port")

	var constructionErr *ConstructionError
	assert.True(t, errors.As(err, &constructionErr))
}

func TestObjectRecipeFieldInjection(t *testing.T) {
	r := NewObjectRecipe(serverType)
	r.Disallow(FieldInjection)
	r.SetProperty("host", "localhost")

	_, err := buildWith(nil, r)
	var miss *MissingAccessorError
	require.True(t, errors.As(err, &miss))

	// Field properties enable field injection.
	r = NewObjectRecipe(serverType)
	r.Disallow(FieldInjection)
	r.SetFieldProperty("host", "localhost")
	object, err := buildWith(nil, r)
	require.NoError(t, err)
	assert.Equal(t, "localhost", object.(*Server).Host)
}

func TestObjectRecipePrivateProperties(t *testing.T) {
	r := NewObjectRecipe(serverType)
	r.SetProperty("secret", "s3cr3t")

	_, err := buildWith(nil, r)
	var miss *MissingAccessorError
	require.True(t, errors.As(err, &miss))
	assert.Equal(t, 4, miss.MatchLevel)
	assert.Contains(t, miss.Message, "not exported")

	r.Allow(PrivateProperties)
	object, err := buildWith(nil, r)
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", object.(*Server).Secret())
}

func TestObjectRecipeCaseInsensitiveProperties(t *testing.T) {
	r := NewObjectRecipe(serverType)
	r.SetProperty("HOST", "localhost")

	_, err := buildWith(nil, r)
	require.Error(t, err)

	r.Allow(CaseInsensitiveProperties)
	object, err := buildWith(nil, r)
	require.NoError(t, err)
	assert.Equal(t, "localhost", object.(*Server).Host)
}

func TestObjectRecipeIgnoreMissingProperties(t *testing.T) {
	r := NewObjectRecipe(serverType)
	r.Allow(IgnoreMissingProperties)
	r.SetProperty("host", "localhost")
	r.SetProperty("unknown", 1)

	object, err := buildWith(nil, r)
	require.NoError(t, err)
	assert.Equal(t, "localhost", object.(*Server).Host)

	unset := r.UnsetProperties()
	assert.Equal(t, []string{"unknown"}, unset.Names())
	value, ok := unset.Get("unknown")
	assert.True(t, ok)
	assert.Equal(t, 1, value)
}

func TestObjectRecipeConversionError(t *testing.T) {
	r := NewObjectRecipe(serverType)
	r.SetProperty("timeout", "soon")

	_, err := buildWith(nil, r)
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to parse 'soon'")
}

func TestObjectRecipeCompoundProperty(t *testing.T) {
	types := NewTypeRegistry()
	require.NoError(t, types.AddConstructor(serverType, NewConstructor(func() *Server {
		return &Server{Limit: &Limit{}}
	})))

	r := NewObjectRecipe(serverType)
	r.SetCompoundProperty("limit.rate", "10")
	object, err := buildWith(types, r)
	require.NoError(t, err)
	assert.Equal(t, 10, object.(*Server).Limit.Rate)

	// Nil intermediate values are reported.
	_, err = buildWith(nil, r)
	assert.ErrorContains(t, err, "property limit is nil")
}

func TestObjectRecipeAutoMatchProperty(t *testing.T) {
	limit := &Limit{Rate: 5}
	r := NewObjectRecipe(serverType)
	r.SetAutoMatchProperty("anything", limit)

	object, err := buildWith(nil, r)
	require.NoError(t, err)
	assert.Same(t, limit, object.(*Server).Limit)

	// Values matching several fields are ambiguous.
	r = NewObjectRecipe(serverType)
	r.SetAutoMatchProperty("anything", "text")
	_, err = buildWith(nil, r)
	var miss *MissingAccessorError
	require.True(t, errors.As(err, &miss))
	assert.Contains(t, miss.Message, "more than one field")
}

func TestObjectRecipeConstructor(t *testing.T) {
	types := NewTypeRegistry()
	require.NoError(t, types.AddConstructor(endpointType,
		NewConstructor(NewEndpoint, WithParameterNames("host", "port"))))

	t.Run("ExplicitArgs", func(t *testing.T) {
		r := NewObjectRecipe(endpointType)
		r.SetConstructorArgNames("host", "port")
		r.SetProperty("host", "example.com")
		r.SetProperty("port", "8443")

		object, err := buildWith(types, r)
		require.NoError(t, err)
		assert.Equal(t, &Endpoint{Host: "example.com", Port: 8443, Via: "constructor"}, object)
	})

	t.Run("NamedParameters", func(t *testing.T) {
		r := NewObjectRecipe(endpointType)
		r.Allow(NamedParameters)
		r.SetProperty("host", "example.com")
		r.SetProperty("port", 80)

		object, err := buildWith(types, r)
		require.NoError(t, err)
		assert.Equal(t, &Endpoint{Host: "example.com", Port: 80, Via: "constructor"}, object)
	})

	t.Run("DefaultConstructor", func(t *testing.T) {
		r := NewObjectRecipe(endpointType)
		r.SetProperty("host", "example.com")

		object, err := buildWith(types, r)
		require.NoError(t, err)
		assert.Equal(t, &Endpoint{Host: "example.com"}, object)
	})

	t.Run("ArgumentTypeMismatch", func(t *testing.T) {
		r := NewObjectRecipe(endpointType)
		r.SetConstructorArgNames("host", "port")
		r.SetConstructorArgTypes(reflect.TypeOf(""), reflect.TypeOf(""))

		_, err := buildWith(types, r)
		var miss *MissingFactoryMethodError
		require.True(t, errors.As(err, &miss))
		assert.Equal(t, 2, miss.MatchLevel)
	})
}

func TestObjectRecipeStaticFactory(t *testing.T) {
	types := NewTypeRegistry()
	require.NoError(t, types.AddFactory(endpointType, "Local",
		NewConstructor(LocalEndpoint, WithParameterNames("port"))))

	r := NewObjectRecipe(endpointType)
	r.SetFactoryMethod("Local")
	r.SetConstructorArgNames("port")
	r.SetProperty("port", "9090")
	r.SetProperty("via", "static")

	object, err := buildWith(types, r)
	require.NoError(t, err)
	assert.Equal(t, &Endpoint{Host: "localhost", Port: 9090, Via: "static"}, object)

	// Factory errors are wrapped.
	r.SetProperty("port", 0)
	_, err = buildWith(types, r)
	assert.ErrorContains(t, err, "port is required")

	// Factory names are case sensitive unless allowed.
	r.SetProperty("port", 1)
	r.SetFactoryMethod("local")
	_, err = buildWith(types, r)
	require.Error(t, err)

	r.Allow(CaseInsensitiveFactory)
	_, err = buildWith(types, r)
	require.NoError(t, err)
}

func TestObjectRecipeInstanceFactory(t *testing.T) {
	r := NewObjectRecipe(reflect.TypeOf((*EndpointBuilder)(nil)))
	r.SetName("endpoint")
	r.SetFactoryMethod("Build")
	r.SetProperty("host", "example.com")

	repository := NewRepository()
	graph := NewObjectGraph(repository)
	require.NoError(t, graph.Add(r))

	object, err := graph.Create(context.Background(), "endpoint")
	require.NoError(t, err)
	assert.Equal(t, &Endpoint{Host: "example.com", Port: 443, Via: "builder"}, object)
	assert.Equal(t, object, repository.Get("endpoint"))
}

func TestObjectRecipeTypeName(t *testing.T) {
	types := NewTypeRegistry()
	RegisterType[*Server](types, "server")

	r := NewObjectRecipeByName("server")
	r.SetProperty("host", "localhost")
	object, err := buildWith(types, r)
	require.NoError(t, err)
	assert.Equal(t, "localhost", object.(*Server).Host)

	_, err = buildWith(types, NewObjectRecipeByName("client"))
	assert.ErrorContains(t, err, "type could not be found: client")
}

func TestObjectRecipeUnexportedType(t *testing.T) {
	type hidden struct{ Value int }

	r := NewObjectRecipe(reflect.TypeOf(&hidden{}))
	_, err := buildWith(nil, r)
	assert.ErrorContains(t, err, "type is not exported")

	r.Allow(PrivateConstructor)
	object, err := buildWith(nil, r)
	require.NoError(t, err)
	assert.IsType(t, &hidden{}, object)
}

func TestObjectRecipeAllProperties(t *testing.T) {
	r := NewObjectRecipe(serverType)
	r.SetProperty("host", "localhost")
	r.SetProperty("port", 80)
	r.SetProperty("settings", NewAllPropertiesRecipe())

	object, err := buildWith(nil, r)
	require.NoError(t, err)
	settings := object.(*Server).Settings
	require.NotNil(t, settings)
	assert.Equal(t, []string{"host", "port"}, settings.Names())
	assert.Equal(t, map[string]any{"host": "localhost", "port": 80}, settings.Map())

	// Outside of object recipes there are no properties to copy.
	_, err = buildWith(nil, NewAllPropertiesRecipe())
	assert.ErrorContains(t, err, "can only be nested in an object recipe")
}

func TestObjectRecipeSetProperties(t *testing.T) {
	r := NewObjectRecipe(serverType)
	r.SetProperty("host", "localhost")
	r.SetProperty("port", "8080")

	server := &Server{Host: "old", Timeout: time.Second}
	require.NoError(t, r.SetProperties(context.Background(), server))
	assert.Equal(t, &Server{Host: "localhost", Port: 8080, Timeout: time.Second}, server)

	assert.Error(t, r.SetProperties(context.Background(), Server{}))
}

var defaultTimeout = time.Second

func TestObjectRecipeStaticProperties(t *testing.T) {
	types := NewTypeRegistry()
	require.NoError(t, types.AddStatic(serverType, "DefaultTimeout", &defaultTimeout))
	t.Cleanup(func() { defaultTimeout = time.Second })

	r := NewObjectRecipe(serverType)
	r.SetProperty("defaultTimeout", "1m")

	ctx := WithExecutionContext(context.Background(), NewExecutionContext(nil, WithTypes(types)))
	_, err := r.SetStaticProperties(ctx)
	var miss *MissingAccessorError
	require.True(t, errors.As(err, &miss))
	assert.Equal(t, time.Second, defaultTimeout)

	r.Allow(StaticProperties)
	typ, err := r.SetStaticProperties(ctx)
	require.NoError(t, err)
	assert.Equal(t, serverType, typ)
	assert.Equal(t, time.Minute, defaultTimeout)
}

func TestObjectRecipeMemoization(t *testing.T) {
	r := NewObjectRecipe(serverType)
	r.SetName("server")

	ec := NewExecutionContext(nil)
	ec.Repository().Add("server", r)
	ctx := WithExecutionContext(context.Background(), ec)

	first, err := r.Create(ctx, nil, false)
	require.NoError(t, err)
	second, err := r.Create(ctx, nil, false)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, []string{"server"}, ec.Constructed())

	// Anonymous recipes build a new object every time.
	anonymous := NewObjectRecipe(serverType)
	first, err = anonymous.Create(ctx, nil, false)
	require.NoError(t, err)
	second, err = anonymous.Create(ctx, nil, false)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestObjectRecipeCanCreate(t *testing.T) {
	types := NewTypeRegistry()
	require.NoError(t, types.AddFactory(endpointType, "Local", NewConstructor(LocalEndpoint)))
	ec := NewExecutionContext(nil, WithTypes(types))

	r := NewObjectRecipe(serverType)
	assert.True(t, r.CanCreate(ec, serverType))
	assert.True(t, r.CanCreate(ec, anyType))
	assert.False(t, r.CanCreate(ec, endpointType))

	r = NewObjectRecipe(endpointType)
	r.SetFactoryMethod("Local")
	assert.True(t, r.CanCreate(ec, endpointType))
	assert.False(t, r.CanCreate(ec, serverType))

	assert.False(t, NewObjectRecipeByName("missing").CanCreate(ec, serverType))
}

// newLimitTypes registers a closure constructor counting its calls.
func newLimitTypes(calls *int) *TypeRegistry {
	types := NewTypeRegistry()
	_ = types.AddConstructor(reflect.TypeOf((*Limit)(nil)), NewConstructor(func() *Limit {
		*calls++
		return &Limit{Rate: 7}
	}))
	return types
}

func newHiddenLimit() *Limit {
	return &Limit{Rate: 9}
}

func TestObjectRecipeRegisteredConstructor(t *testing.T) {
	limitType := reflect.TypeOf((*Limit)(nil))

	t.Run("Closure", func(t *testing.T) {
		var calls int
		object, err := buildWith(newLimitTypes(&calls), NewObjectRecipe(limitType))
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.Equal(t, &Limit{Rate: 7}, object)
	})

	t.Run("MethodValue", func(t *testing.T) {
		types := NewTypeRegistry()
		builder := &EndpointBuilder{Host: "builder.local"}
		require.NoError(t, types.AddConstructor(endpointType, NewConstructor(builder.Build)))

		object, err := buildWith(types, NewObjectRecipe(endpointType))
		require.NoError(t, err)
		assert.Equal(t, &Endpoint{Host: "builder.local", Port: 443, Via: "builder"}, object)
	})

	t.Run("UnexportedFunction", func(t *testing.T) {
		types := NewTypeRegistry()
		require.NoError(t, types.AddConstructor(limitType, NewConstructor(newHiddenLimit)))

		r := NewObjectRecipe(limitType)
		_, err := buildWith(types, r)
		var miss *MissingFactoryMethodError
		require.True(t, errors.As(err, &miss))
		assert.Equal(t, 5, miss.MatchLevel)
		assert.Contains(t, miss.Message, "not exported")

		r.Allow(PrivateConstructor)
		object, err := buildWith(types, r)
		require.NoError(t, err)
		assert.Equal(t, &Limit{Rate: 9}, object)
	})
}
