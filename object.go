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
	"reflect"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// PropertyKind selects how a property finds its member.
type PropertyKind int

// Supported property kinds.
const (
	// PlainProperty tries setters, then fields when FieldInjection is allowed.
	PlainProperty PropertyKind = iota

	// SetterProperty uses setters only.
	SetterProperty

	// FieldProperty uses fields only.
	FieldProperty

	// AutoMatchProperty finds the only field or setter of the value type.
	AutoMatchProperty

	// CompoundProperty walks `a.b.c` through getters and sets the last name.
	CompoundProperty
)

// String implements fmt.Stringer.
func (k PropertyKind) String() string {
	switch k {
	case PlainProperty:
		return "plain"
	case SetterProperty:
		return "setter"
	case FieldProperty:
		return "field"
	case AutoMatchProperty:
		return "auto-match"
	case CompoundProperty:
		return "compound"
	}
	return fmt.Sprintf("PropertyKind(%d)", int(k))
}

// propertyKey identifies a declared property.
type propertyKey struct {
	kind PropertyKind
	name string
}

// String implements fmt.Stringer.
func (k propertyKey) String() string {
	if k.kind == PlainProperty {
		return k.name
	}
	return fmt.Sprintf("[%s] %s", k.kind, k.name)
}

// property is a declared property value.
type property struct {
	key   propertyKey
	value any
}

// ObjectRecipe builds an object through a constructor or a factory and
// injects its properties.
type ObjectRecipe struct {
	base

	typ           reflect.Type
	typeName      string
	factoryMethod string
	argNames      []string
	argTypes      []reflect.Type
	properties    []property
	options       Options
	unset         []property
}

// NewObjectRecipe returns a recipe building values of the type.
//
// Example:
//
//	server := recipe.NewObjectRecipe(reflect.TypeFor[*Server]())
//	server.SetProperty("port", "8080")
func NewObjectRecipe(typ reflect.Type) *ObjectRecipe {
	return &ObjectRecipe{typ: typ, options: Options(FieldInjection)}
}

// NewObjectRecipeByName returns a recipe building values of the type
// registered under the name.
func NewObjectRecipeByName(typeName string) *ObjectRecipe {
	return &ObjectRecipe{typeName: typeName, options: Options(FieldInjection)}
}

// TypeName returns the registered type name, empty for recipes created
// with a type.
func (r *ObjectRecipe) TypeName() string {
	return r.typeName
}

// Allow adds the option.
func (r *ObjectRecipe) Allow(option Option) {
	r.options = r.options.With(option)
}

// Disallow removes the option.
func (r *ObjectRecipe) Disallow(option Option) {
	r.options = r.options.Without(option)
}

// Options returns the enabled options.
func (r *ObjectRecipe) Options() Options {
	return r.options
}

// FactoryMethod returns the factory method name.
func (r *ObjectRecipe) FactoryMethod() string {
	return r.factoryMethod
}

// SetFactoryMethod sets the name of a static factory registered for the
// type, or of a parameterless method called on the constructed instance.
func (r *ObjectRecipe) SetFactoryMethod(name string) {
	r.factoryMethod = name
}

// ConstructorArgNames returns the names of properties passed as
// constructor arguments.
func (r *ObjectRecipe) ConstructorArgNames() []string {
	return r.argNames
}

// SetConstructorArgNames sets the names of properties passed as
// constructor arguments.
func (r *ObjectRecipe) SetConstructorArgNames(names ...string) {
	r.argNames = append([]string{}, names...)
}

// ConstructorArgTypes returns the explicit constructor argument types.
func (r *ObjectRecipe) ConstructorArgTypes() []reflect.Type {
	return r.argTypes
}

// SetConstructorArgTypes sets the explicit constructor argument types.
// A nil type matches any parameter.
func (r *ObjectRecipe) SetConstructorArgTypes(types ...reflect.Type) {
	r.argTypes = append([]reflect.Type{}, types...)
}

// Property returns the value of the plain property.
func (r *ObjectRecipe) Property(name string) (any, bool) {
	index := r.indexOf(propertyKey{kind: PlainProperty, name: name})
	if index < 0 {
		return nil, false
	}
	return r.properties[index].value, true
}

// Properties returns the declared properties of every kind by name.
func (r *ObjectRecipe) Properties() *Properties {
	return propertiesOf(r.properties)
}

// SetProperty declares a plain property.
func (r *ObjectRecipe) SetProperty(name string, value any) {
	r.declare(propertyKey{kind: PlainProperty, name: name}, value)
}

// SetFieldProperty declares a property injected into a field and enables
// field injection.
func (r *ObjectRecipe) SetFieldProperty(name string, value any) {
	r.declare(propertyKey{kind: FieldProperty, name: name}, value)
	r.Allow(FieldInjection)
}

// SetMethodProperty declares a property injected through a setter.
func (r *ObjectRecipe) SetMethodProperty(name string, value any) {
	r.declare(propertyKey{kind: SetterProperty, name: name}, value)
}

// SetAutoMatchProperty declares a value injected into the only field or
// setter of its type. The name only identifies the declaration.
func (r *ObjectRecipe) SetAutoMatchProperty(name string, value any) {
	r.declare(propertyKey{kind: AutoMatchProperty, name: name}, value)
}

// SetCompoundProperty declares a `a.b.c` property.
func (r *ObjectRecipe) SetCompoundProperty(name string, value any) {
	r.declare(propertyKey{kind: CompoundProperty, name: name}, value)
}

// SetAllProperties declares plain properties in the order of names.
func (r *ObjectRecipe) SetAllProperties(properties *Properties) {
	for _, name := range properties.Names() {
		value, _ := properties.Get(name)
		r.SetProperty(name, value)
	}
}

// UnsetProperties returns properties of the last construction no member
// accepted. It is filled only with IgnoreMissingProperties.
func (r *ObjectRecipe) UnsetProperties() *Properties {
	return propertiesOf(r.unset)
}

// Type returns the type of built values.
func (r *ObjectRecipe) Type(ec *ExecutionContext) (reflect.Type, error) {
	if r.typ != nil {
		return r.typ, nil
	}
	if r.typeName == "" {
		return nil, nil
	}
	if ec == nil {
		return nil, constructionErrorf("type could not be resolved without a context: %s", r.typeName)
	}
	return ec.Types().Lookup(r.typeName)
}

// String implements fmt.Stringer.
func (r *ObjectRecipe) String() string {
	typeName := r.typeName
	if r.typ != nil {
		typeName = r.typ.String()
	}
	if r.Name() != "" {
		return fmt.Sprintf("ObjectRecipe[%s %s]", r.Name(), typeName)
	}
	return fmt.Sprintf("ObjectRecipe[%s]", typeName)
}

// Create implements Recipe.
func (r *ObjectRecipe) Create(ctx context.Context, expectedType reflect.Type, lazyRefAllowed bool) (any, error) {
	return create(ctx, r, expectedType, lazyRefAllowed)
}

// CanCreate implements Recipe.
func (r *ObjectRecipe) CanCreate(ec *ExecutionContext, typ reflect.Type) bool {
	myType, err := r.Type(ec)
	if err != nil {
		return false
	}
	if r.factoryMethod != "" && myType != nil && ec != nil {
		factories := ec.Types().Factories(myType, r.factoryMethod, r.options.Has(CaseInsensitiveFactory))
		if len(factories) > 0 {
			return slices.ContainsFunc(factories, func(factory *Constructor) bool {
				return isAssignableType(typ, factory.OutType())
			})
		}
	}
	return isAssignableType(typ, myType) || isAssignableType(myType, typ)
}

// NestedRecipes implements Recipe.
func (r *ObjectRecipe) NestedRecipes(_ *ExecutionContext) ([]Recipe, error) {
	nested := make([]Recipe, 0, len(r.properties))
	for _, property := range r.properties {
		if recipe, ok := property.value.(Recipe); ok {
			nested = append(nested, recipe)
		}
	}
	return nested, nil
}

// ConstructorRecipes implements Recipe.
//
// Only constructor arguments are needed before the object exists when
// it is produced by an instance factory or may be published partially.
// Otherwise every nested recipe is. When no factory can be found every
// nested recipe is needed, the failure itself is reported by Create.
func (r *ObjectRecipe) ConstructorRecipes(ec *ExecutionContext) ([]Recipe, error) {
	typ, err := r.Type(ec)
	if err != nil {
		return r.NestedRecipes(ec)
	}
	f, err := r.findFactory(ec, typ, anyType)
	if err != nil {
		return r.NestedRecipes(ec)
	}
	if (r.factoryMethod == "" || f.static) && !r.AllowPartial() {
		return r.NestedRecipes(ec)
	}

	nested := make([]Recipe, 0, len(f.paramNames))
	for _, property := range r.properties {
		recipe, ok := property.value.(Recipe)
		if ok && slices.Contains(f.paramNames, property.key.name) {
			nested = append(nested, recipe)
		}
	}
	return nested, nil
}

// build implements builder.
func (r *ObjectRecipe) build(ctx context.Context, ec *ExecutionContext, expectedType reflect.Type, _ bool) (any, error) {
	r.unset = nil

	typ, err := r.Type(ec)
	if err != nil {
		return nil, err
	}

	// Copy properties so the recipe can be built again.
	properties := slices.Clone(r.properties)

	f, err := r.findFactory(ec, typ, expectedType)
	if err != nil {
		return nil, err
	}
	args, properties, err := r.extractConstructorArgs(ctx, ec, properties, f)
	if err != nil {
		return nil, err
	}
	instance, err := f.create(args)
	if err != nil {
		return nil, wrapConstructionError(err, "failed to create instance with %s", f)
	}

	instanceFactory := r.factoryMethod != "" && !f.static
	published := false
	if name := r.Name(); name != "" && r.AllowPartial() && !instanceFactory && isNillableType(instance.Type()) {
		if err := ec.AddObject(name, instance.Interface()); err != nil {
			return nil, err
		}
		published = true
	}

	if err := r.setProperties(ctx, ec, properties, instance, instance.Type()); err != nil {
		return nil, err
	}

	result := instance
	if instanceFactory {
		method, err := findInstanceFactory(instance.Type(), r.factoryMethod, r.options)
		if err != nil {
			return nil, err
		}
		result, err = callFunc(method.Func, []reflect.Value{receiverOf(instance)})
		if err != nil {
			return nil, wrapConstructionError(err, "failed to call instance factory method %s", method.Name)
		}
	}

	object := result.Interface()
	if name := r.Name(); name != "" && !published {
		if err := ec.AddObject(name, object); err != nil {
			return nil, err
		}
	}
	return object, nil
}

// SetProperties injects the properties into an existing instance.
// The instance must be a pointer.
func (r *ObjectRecipe) SetProperties(ctx context.Context, instance any) (err error) {
	value := reflect.ValueOf(instance)
	if value.Kind() != reflect.Pointer || value.IsNil() {
		return constructionErrorf("instance must be a non-nil pointer: %T", instance)
	}

	ctx, ec, done, err := ensureContext(ctx, func() *ExecutionContext {
		return NewExecutionContext(NewRepository())
	})
	if err != nil {
		return err
	}
	defer func() {
		err = done(err)
	}()

	r.unset = nil
	return r.setProperties(ctx, ec, slices.Clone(r.properties), value, value.Type())
}

// SetStaticProperties injects the properties into the package variables
// registered for the type.
func (r *ObjectRecipe) SetStaticProperties(ctx context.Context) (typ reflect.Type, err error) {
	ctx, ec, done, err := ensureContext(ctx, func() *ExecutionContext {
		return NewExecutionContext(NewRepository())
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		err = done(err)
	}()

	r.unset = nil
	typ, err = r.Type(ec)
	if err != nil {
		return nil, err
	}
	if typ == nil {
		return nil, constructionErrorf("no type specified")
	}
	if err := r.setProperties(ctx, ec, slices.Clone(r.properties), reflect.Value{}, typ); err != nil {
		return nil, err
	}
	return typ, nil
}

// findFactory selects a static factory, or the constructor when no
// static factory matches.
func (r *ObjectRecipe) findFactory(ec *ExecutionContext, typ reflect.Type, expectedType reflect.Type) (*factory, error) {
	available := make(map[string]bool, len(r.properties))
	for _, property := range r.properties {
		available[property.key.name] = true
	}

	if r.factoryMethod != "" && typ != nil {
		f, err := findStaticFactory(ec, typ, r.factoryMethod, r.argNames, r.argTypes, available, r.options)
		if err == nil {
			return f, nil
		}
		var miss *MissingFactoryMethodError
		if !errors.As(err, &miss) {
			return nil, err
		}
	}

	// A concrete expected type implementing the declared interface is
	// constructed instead.
	constructorType := typ
	if expectedType != nil && expectedType != anyType && expectedType.Kind() != reflect.Interface &&
		(typ == nil || typ.Kind() == reflect.Interface && expectedType.AssignableTo(typ)) {
		constructorType = expectedType
	}
	return findConstructor(ec, constructorType, r.argNames, r.argTypes, available, r.options)
}

// extractConstructorArgs converts the properties named by the factory
// parameters and returns the remaining properties.
func (r *ObjectRecipe) extractConstructorArgs(ctx context.Context, ec *ExecutionContext, properties []property,
	f *factory,
) ([]reflect.Value, []property, error) {
	paramTypes := f.paramTypes()
	if f.constructor == nil {
		return nil, properties, nil
	}

	args := make([]reflect.Value, 0, len(f.paramNames))
	for index, name := range f.paramNames {
		paramType := paramTypes[index]
		position := slices.IndexFunc(properties, func(p property) bool { return p.key.name == name })
		if position < 0 {
			args = append(args, reflect.Zero(paramType))
			continue
		}
		value := properties[position].value
		properties = slices.Delete(properties, position, position+1)

		if !isInstance(paramType, value) && !isConvertible(ec, paramType, value) {
			return nil, nil, constructionErrorf(
				"invalid and non-convertible constructor parameter type: name=%s, index=%d, expected=%s, actual=%s",
				name, index, paramType, valueTypeName(value))
		}
		converted, err := convert(ctx, paramType, value, false)
		if err != nil {
			return nil, nil, wrapConstructionError(err, "failed to convert constructor parameter %s", name)
		}
		arg, err := assignable(paramType, converted)
		if err != nil {
			return nil, nil, wrapConstructionError(err, "failed to convert constructor parameter %s", name)
		}
		args = append(args, arg)
	}
	return args, properties, nil
}

// setProperties injects the properties in declaration order.
func (r *ObjectRecipe) setProperties(ctx context.Context, ec *ExecutionContext, properties []property,
	instance reflect.Value, typ reflect.Type,
) error {
	for _, property := range properties {
		if err := r.setProperty(ctx, ec, instance, typ, property); err != nil {
			return err
		}
	}
	return nil
}

// setProperty finds the members able to receive the property and sets
// the value on the first one accepting it.
func (r *ObjectRecipe) setProperty(ctx context.Context, ec *ExecutionContext, instance reflect.Value,
	typ reflect.Type, p property,
) error {
	members, instance, err := r.findMembers(ec, instance, typ, p)
	if err != nil {
		var miss *MissingAccessorError
		if errors.As(err, &miss) && r.options.Has(IgnoreMissingProperties) {
			ec.Logger().Debug("property has no matching member",
				zap.String("property", p.key.String()), zap.Error(err))
			r.unset = append(r.unset, p)
			return nil
		}
		return err
	}

	var conversionErr error
	for _, m := range members {
		converted, err := convert(ctx, m.Type(), p.value, false)
		if isGraphError(err) {
			return err
		}
		if err == nil {
			var value reflect.Value
			value, err = assignable(m.Type(), converted)
			if err == nil {
				if err := m.Set(instance, value); err != nil {
					return wrapConstructionError(err, "failed to set property %s with %s", p.key, m)
				}
				return nil
			}
		}
		if conversionErr == nil {
			conversionErr = wrapConstructionError(err, "unable to convert property value from %s to %s for injection %s",
				valueTypeName(p.value), m.Type(), m)
		}
	}
	return conversionErr
}

// isGraphError reports failures of the object graph itself, which no
// other member can fix.
func isGraphError(err error) bool {
	var cycle *CircularDependencyError
	var unresolved *UnresolvedReferencesError
	return errors.As(err, &cycle) || errors.As(err, &unresolved)
}

// findMembers returns members for the property and the instance they
// belong to, which differs from the given one for compound properties.
func (r *ObjectRecipe) findMembers(ec *ExecutionContext, instance reflect.Value, typ reflect.Type,
	p property,
) ([]member, reflect.Value, error) {
	switch p.key.kind {
	case SetterProperty:
		members, err := findSetters(ec, typ, p.key.name, p.value, r.options)
		return members, instance, err

	case FieldProperty:
		field, err := findField(ec, typ, p.key.name, p.value, r.options)
		if err != nil {
			return nil, instance, err
		}
		return []member{field}, instance, nil

	case AutoMatchProperty:
		members, err := r.findByType(ec, typ, p.value)
		return members, instance, err

	case CompoundProperty:
		names := strings.Split(p.key.name, ".")
		for _, name := range names[:len(names)-1] {
			get := findGetter(typ, name, r.options)
			if get == nil {
				return nil, instance, constructionErrorf("no getter for %s property", name)
			}
			next, err := get(instance)
			if err != nil {
				return nil, instance, wrapConstructionError(err, "failed to get property %s", name)
			}
			if next.Kind() == reflect.Interface {
				next = next.Elem()
			}
			if !next.IsValid() || isNillableType(next.Type()) && next.IsNil() {
				return nil, instance, constructionErrorf("property %s is nil", name)
			}
			instance, typ = next, next.Type()
		}
		members, err := findSetters(ec, typ, names[len(names)-1], p.value, r.options)
		return members, instance, err
	}

	var members []member
	setters, noSetter := findSetters(ec, typ, p.key.name, p.value, r.options)
	if noSetter != nil && !r.options.Has(FieldInjection) {
		return nil, instance, noSetter
	}
	members = append(members, setters...)
	if r.options.Has(FieldInjection) {
		field, noField := findField(ec, typ, p.key.name, p.value, r.options)
		switch {
		case noField == nil:
			members = append(members, field)
		case len(members) == 0:
			return nil, instance, closerMiss(noSetter, noField)
		}
	}
	return members, instance, nil
}

// findByType returns the only field, or else the only setter, of the
// value type.
func (r *ObjectRecipe) findByType(ec *ExecutionContext, typ reflect.Type, value any) ([]member, error) {
	var noField error
	if r.options.Has(FieldInjection) {
		fields, err := findFieldsByType(ec, typ, value, r.options)
		if err == nil {
			if len(fields) > 1 {
				return nil, &MissingAccessorError{
					Message: fmt.Sprintf("property of type %s can be mapped to more than one field: %s",
						valueTypeName(value), memberNames(fields)),
				}
			}
			return fields, nil
		}
		noField = err
	}

	setters, noSetter := findSettersByType(ec, typ, value, r.options)
	if noSetter != nil {
		if noField == nil {
			return nil, noSetter
		}
		return nil, closerMiss(noSetter, noField)
	}
	if len(setters) > 1 {
		return nil, &MissingAccessorError{
			Message: fmt.Sprintf("property of type %s can be mapped to more than one setter: %s",
				valueTypeName(value), memberNames(setters)),
		}
	}
	return setters, nil
}

// indexOf returns the position of the declared property.
func (r *ObjectRecipe) indexOf(key propertyKey) int {
	return slices.IndexFunc(r.properties, func(p property) bool { return p.key == key })
}

// declare sets the property value keeping the first declaration position.
func (r *ObjectRecipe) declare(key propertyKey, value any) {
	if index := r.indexOf(key); index >= 0 {
		r.properties[index].value = value
		return
	}
	r.properties = append(r.properties, property{key: key, value: value})
}

// closerMiss returns the accessor miss with the higher match level.
func closerMiss(first, second error) error {
	var firstMiss, secondMiss *MissingAccessorError
	if !errors.As(first, &firstMiss) {
		return second
	}
	if !errors.As(second, &secondMiss) {
		return first
	}
	if secondMiss.MatchLevel > firstMiss.MatchLevel {
		return second
	}
	return first
}

// memberNames formats member descriptions.
func memberNames(members []member) string {
	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.String())
	}
	return "[" + strings.Join(names, ", ") + "]"
}

// propertiesOf returns the declared values by name.
func propertiesOf(properties []property) *Properties {
	names := make([]string, 0, len(properties))
	values := make(map[string]any, len(properties))
	for _, p := range properties {
		names = append(names, p.key.name)
		values[p.key.name] = p.value
	}
	return NewProperties(names, values)
}
