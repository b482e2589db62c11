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
	"slices"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
	"unsafe"
)

// member is a setter method, a struct field or a static variable
// able to receive a property value.
type member interface {
	// Type returns the type of accepted values.
	Type() reflect.Type

	// Set assigns the value on the instance.
	Set(instance reflect.Value, value reflect.Value) error

	// String returns the member description.
	String() string
}

// methodMember is a `SetX(value) [error]` method.
type methodMember struct {
	method reflect.Method
}

func (m *methodMember) Type() reflect.Type {
	return m.method.Type.In(1)
}

func (m *methodMember) Set(instance reflect.Value, value reflect.Value) error {
	receiver := receiverOf(instance)
	if !receiver.IsValid() {
		return fmt.Errorf("no instance to call %s on", m.method.Name)
	}
	_, err := callFunc(m.method.Func, []reflect.Value{receiver, value})
	return err
}

func (m *methodMember) String() string {
	return fmt.Sprintf("method %s%s", m.method.Name, strings.TrimPrefix(m.method.Type.String(), "func"))
}

// fieldMember is a struct field, possibly promoted or unexported.
type fieldMember struct {
	field reflect.StructField
}

func (m *fieldMember) Type() reflect.Type {
	return m.field.Type
}

func (m *fieldMember) Set(instance reflect.Value, value reflect.Value) error {
	structValue := structOf(instance)
	if !structValue.IsValid() {
		return fmt.Errorf("no instance to set field %s on", m.field.Name)
	}
	fieldValue, err := structValue.FieldByIndexErr(m.field.Index)
	if err != nil {
		return fmt.Errorf("failed to access field %s: %w", m.field.Name, err)
	}
	settableField(fieldValue).Set(value)
	return nil
}

func (m *fieldMember) String() string {
	return fmt.Sprintf("field %s %s", m.field.Name, m.field.Type)
}

// staticMember is a package variable registered on the type registry.
type staticMember struct {
	name  string
	value reflect.Value
}

func (m *staticMember) Type() reflect.Type {
	return m.value.Type()
}

func (m *staticMember) Set(_ reflect.Value, value reflect.Value) error {
	m.value.Set(value)
	return nil
}

func (m *staticMember) String() string {
	return fmt.Sprintf("static %s %s", m.name, m.value.Type())
}

// settableField returns a settable view of an addressable field, including
// unexported ones.
func settableField(field reflect.Value) reflect.Value {
	if field.CanSet() {
		return field
	}
	pointer := unsafe.Pointer(field.UnsafeAddr())
	return reflect.NewAt(field.Type(), pointer).Elem()
}

// receiverOf returns the value methods should be called on.
// Addressable values are called through their pointer.
func receiverOf(instance reflect.Value) reflect.Value {
	if !instance.IsValid() {
		return instance
	}
	if instance.Kind() != reflect.Pointer && instance.CanAddr() {
		return instance.Addr()
	}
	return instance
}

// receiverType returns the method set type of instances of the type.
func receiverType(typ reflect.Type) reflect.Type {
	if typ == nil {
		return nil
	}
	if typ.Kind() == reflect.Pointer || typ.Kind() == reflect.Interface {
		return typ
	}
	return reflect.PointerTo(typ)
}

// structOf dereferences the instance down to an addressable struct.
func structOf(instance reflect.Value) reflect.Value {
	for instance.IsValid() && instance.Kind() == reflect.Pointer {
		if instance.IsNil() {
			return reflect.Value{}
		}
		instance = instance.Elem()
	}
	if !instance.IsValid() || instance.Kind() != reflect.Struct || !instance.CanAddr() {
		return reflect.Value{}
	}
	return instance
}

// structType dereferences the type down to a struct.
func structType(typ reflect.Type) reflect.Type {
	for typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Struct {
		return nil
	}
	return typ
}

// accepts checks a candidate member type against the value.
// It returns the miss level and reason when the value does not fit.
func accepts(ec *ExecutionContext, typ reflect.Type, value any) (int, string) {
	if value == nil {
		if !isNillableType(typ) {
			return 6, fmt.Sprintf("nil can not be assigned to %s", typ)
		}
		return 0, ""
	}
	if !isInstance(typ, value) && !isConvertible(ec, typ, value) {
		return 5, fmt.Sprintf("value of type %s is not assignable to %s", valueTypeName(value), typ)
	}
	return 0, ""
}

// acceptsByType checks a member for auto-matching, which requires the
// value to be of the member type without string or number conversion.
func acceptsByType(ec *ExecutionContext, typ reflect.Type, value any) bool {
	if value == nil {
		return false
	}
	if r, ok := value.(Recipe); ok {
		return r.CanCreate(ec, typ)
	}
	return isInstance(typ, value)
}

// valueTypeName returns a printable value type.
func valueTypeName(value any) string {
	if value == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", value)
}

// upperFirst capitalizes the first letter of the name.
func upperFirst(name string) string {
	first, size := utf8.DecodeRuneInString(name)
	if first == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(first)) + name[size:]
}

// matchesName compares a member name against a property name.
func matchesName(memberName, propertyName string, options Options) bool {
	if memberName == propertyName || memberName == upperFirst(propertyName) {
		return true
	}
	return options.Has(CaseInsensitiveProperties) && strings.EqualFold(memberName, propertyName)
}

// tagName returns the property name declared by the `recipe` struct tag.
func tagName(field reflect.StructField) string {
	tag, ok := field.Tag.Lookup("recipe")
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	return name
}

// isSetter returns true when the method name has the setter prefix.
func isSetter(method reflect.Method) bool {
	return len(method.Name) > 3 && strings.HasPrefix(method.Name, "Set")
}

// checkSetterSignature returns the miss level and reason for methods not
// shaped like `SetX(value) [error]`.
func checkSetterSignature(method reflect.Method) (int, string) {
	if method.Type.NumIn() != 2 {
		return 1, fmt.Sprintf("setter %s takes %d parameters", method.Name, method.Type.NumIn()-1)
	}
	switch {
	case method.Type.NumOut() == 0:
	case method.Type.NumOut() == 1 && method.Type.Out(0) == errorType:
	default:
		return 2, fmt.Sprintf("setter %s returns a value", method.Name)
	}
	return 0, ""
}

// findSetters returns every setter of the type able to receive the value
// as the named property.
func findSetters(ec *ExecutionContext, typ reflect.Type, propertyName string, value any, options Options) ([]member, error) {
	if propertyName == "" {
		return nil, &MissingAccessorError{Message: "empty property name", MatchLevel: 0}
	}
	recvType := receiverType(typ)
	if recvType == nil {
		return nil, &MissingAccessorError{Message: fmt.Sprintf("no instance to find setter %s on", propertyName)}
	}

	setterName := "Set" + upperFirst(propertyName)
	var miss *MissingAccessorError
	var members []member
	for index := 0; index < recvType.NumMethod(); index++ {
		method := recvType.Method(index)
		if method.Name != setterName &&
			(!options.Has(CaseInsensitiveProperties) || !strings.EqualFold(method.Name, setterName)) {
			continue
		}
		if level, reason := checkSetterSignature(method); level > 0 {
			miss = missAccessor(miss, level, "%s: %s", recvType, reason)
			continue
		}
		if level, reason := accepts(ec, method.Type.In(1), value); level > 0 {
			miss = missAccessor(miss, level, "%s: setter %s: %s", recvType, method.Name, reason)
			continue
		}
		members = append(members, &methodMember{method: method})
	}

	if len(members) > 0 {
		return members, nil
	}
	if miss != nil {
		return nil, miss
	}
	return nil, &MissingAccessorError{
		Message: fmt.Sprintf("unable to find a valid setter method: %s.%s(%s)", recvType, setterName, valueTypeName(value)),
	}
}

// findField returns the struct field or static variable able to receive
// the value as the named property.
func findField(ec *ExecutionContext, typ reflect.Type, propertyName string, value any, options Options) (member, error) {
	if propertyName == "" {
		return nil, &MissingAccessorError{Message: "empty property name", MatchLevel: 0}
	}

	var miss *MissingAccessorError
	if structTyp := structType(typ); structTyp != nil && typ.Kind() != reflect.Interface {
		fields := reflect.VisibleFields(structTyp)

		// Tagged fields take precedence over names.
		sort.SliceStable(fields, func(i, j int) bool {
			return tagName(fields[i]) != "" && tagName(fields[j]) == ""
		})
		for _, field := range fields {
			if field.Anonymous && field.Type.Kind() == reflect.Struct {
				continue
			}
			if tag := tagName(field); tag != propertyName && !matchesName(field.Name, propertyName, options) {
				continue
			}
			if !field.IsExported() && !options.Has(PrivateProperties) {
				miss = missAccessor(miss, 4, "%s: field %s is not exported", structTyp, field.Name)
				continue
			}
			if level, reason := accepts(ec, field.Type, value); level > 0 {
				miss = missAccessor(miss, level, "%s: field %s: %s", structTyp, field.Name, reason)
				continue
			}
			return &fieldMember{field: field}, nil
		}
	}

	static, err := findStatic(ec, typ, propertyName, value, options)
	if err == nil {
		return static, nil
	}
	var staticMiss *MissingAccessorError
	if errors.As(err, &staticMiss) && staticMiss.MatchLevel > 0 {
		miss = missAccessor(miss, staticMiss.MatchLevel, "%s", staticMiss.Message)
	}

	if miss != nil {
		return nil, miss
	}
	return nil, &MissingAccessorError{
		Message: fmt.Sprintf("unable to find a valid field: %s.%s %s", typ, upperFirst(propertyName), valueTypeName(value)),
	}
}

// findStatic returns the static variable of the type registered under
// the property name.
func findStatic(ec *ExecutionContext, typ reflect.Type, propertyName string, value any, options Options) (member, error) {
	if ec == nil || typ == nil {
		return nil, &MissingAccessorError{Message: "no statics"}
	}
	statics := ec.Types().Statics(typ)
	names := make([]string, 0, len(statics))
	for name := range statics {
		names = append(names, name)
	}
	sort.Strings(names)

	var miss *MissingAccessorError
	for _, name := range names {
		if !matchesName(name, propertyName, options) {
			continue
		}
		static := statics[name]
		if !options.Has(StaticProperties) {
			miss = missAccessor(miss, 4, "%s: %s is static", typ, name)
			continue
		}
		if level, reason := accepts(ec, static.Type(), value); level > 0 {
			miss = missAccessor(miss, level, "%s: static %s: %s", typ, name, reason)
			continue
		}
		return &staticMember{name: name, value: static}, nil
	}
	if miss != nil {
		return nil, miss
	}
	return nil, &MissingAccessorError{Message: fmt.Sprintf("%s has no static %s", typ, propertyName)}
}

// findFieldsByType returns every field and static variable of the type
// holding values of the value type.
func findFieldsByType(ec *ExecutionContext, typ reflect.Type, value any, options Options) ([]member, error) {
	var miss *MissingAccessorError
	var members []member
	if structTyp := structType(typ); structTyp != nil && typ.Kind() != reflect.Interface {
		for _, field := range reflect.VisibleFields(structTyp) {
			if field.Anonymous && field.Type.Kind() == reflect.Struct {
				continue
			}
			if !acceptsByType(ec, field.Type, value) {
				continue
			}
			if !field.IsExported() && !options.Has(PrivateProperties) {
				miss = missAccessor(miss, 4, "%s: field %s is not exported", structTyp, field.Name)
				continue
			}
			members = append(members, &fieldMember{field: field})
		}
	}
	if ec != nil && typ != nil {
		statics := ec.Types().Statics(typ)
		names := make([]string, 0, len(statics))
		for name := range statics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if !acceptsByType(ec, statics[name].Type(), value) {
				continue
			}
			if !options.Has(StaticProperties) {
				miss = missAccessor(miss, 4, "%s: %s is static", typ, name)
				continue
			}
			members = append(members, &staticMember{name: name, value: statics[name]})
		}
	}

	if len(members) > 0 {
		return members, nil
	}
	if miss != nil {
		return nil, miss
	}
	return nil, &MissingAccessorError{
		Message: fmt.Sprintf("unable to find a field of type %s in %s", valueTypeName(value), typ),
	}
}

// findSettersByType returns every setter of the type accepting values of
// the value type.
func findSettersByType(ec *ExecutionContext, typ reflect.Type, value any, options Options) ([]member, error) {
	recvType := receiverType(typ)
	if recvType == nil {
		return nil, &MissingAccessorError{Message: "no instance to find setters on"}
	}

	var miss *MissingAccessorError
	var members []member
	for index := 0; index < recvType.NumMethod(); index++ {
		method := recvType.Method(index)
		if !isSetter(method) {
			continue
		}
		if level, reason := checkSetterSignature(method); level > 0 {
			miss = missAccessor(miss, level, "%s: %s", recvType, reason)
			continue
		}
		if !acceptsByType(ec, method.Type.In(1), value) {
			continue
		}
		members = append(members, &methodMember{method: method})
	}

	if len(members) > 0 {
		return members, nil
	}
	if miss != nil && miss.MatchLevel > 2 {
		return nil, miss
	}
	return nil, &MissingAccessorError{
		Message: fmt.Sprintf("unable to find a setter of type %s in %s", valueTypeName(value), recvType),
	}
}

// getter reads a property from an instance.
type getter func(instance reflect.Value) (reflect.Value, error)

// findGetter returns a getter of the named property: a `GetX()` or `X()`
// method, or a field.
func findGetter(typ reflect.Type, propertyName string, options Options) getter {
	if recvType := receiverType(typ); recvType != nil {
		names := []string{"Get" + upperFirst(propertyName), upperFirst(propertyName)}
		for index := 0; index < recvType.NumMethod(); index++ {
			method := recvType.Method(index)
			matched := slices.Contains(names, method.Name)
			if !matched && options.Has(CaseInsensitiveProperties) {
				matched = slices.ContainsFunc(names, func(name string) bool {
					return strings.EqualFold(method.Name, name)
				})
			}
			if !matched || method.Type.NumIn() != 1 {
				continue
			}
			if method.Type.NumOut() == 1 && method.Type.Out(0) != errorType ||
				method.Type.NumOut() == 2 && method.Type.Out(1) == errorType {
				return func(instance reflect.Value) (reflect.Value, error) {
					return callFunc(method.Func, []reflect.Value{receiverOf(instance)})
				}
			}
		}
	}

	if structTyp := structType(typ); structTyp != nil {
		for _, field := range reflect.VisibleFields(structTyp) {
			if tagName(field) != propertyName && !matchesName(field.Name, propertyName, options) {
				continue
			}
			if !field.IsExported() && !options.Has(PrivateProperties) {
				continue
			}
			return func(instance reflect.Value) (reflect.Value, error) {
				structValue := structOf(instance)
				if !structValue.IsValid() {
					return reflect.Value{}, fmt.Errorf("no instance to read field %s from", field.Name)
				}
				fieldValue, err := structValue.FieldByIndexErr(field.Index)
				if err != nil {
					return reflect.Value{}, err
				}
				return settableField(fieldValue), nil
			}
		}
	}
	return nil
}

// factory is a matched way to produce an instance: a registered
// constructor, a static factory or the zero value of the type.
type factory struct {
	constructor *Constructor
	typ         reflect.Type
	paramNames  []string
	static      bool
}

// paramTypes returns the factory parameter types.
func (f *factory) paramTypes() []reflect.Type {
	if f.constructor == nil {
		return nil
	}
	return f.constructor.ParameterTypes()
}

// String implements fmt.Stringer.
func (f *factory) String() string {
	if f.constructor == nil {
		return fmt.Sprintf("default constructor of %s", f.typ)
	}
	return f.constructor.Name()
}

// create produces an addressable instance from prepared arguments.
func (f *factory) create(args []reflect.Value) (reflect.Value, error) {
	if f.constructor == nil {
		return newZeroValue(f.typ), nil
	}
	result, err := f.constructor.call(args)
	if err != nil {
		return reflect.Value{}, err
	}
	if result.Kind() == reflect.Interface {
		result = result.Elem()
	}
	if !result.IsValid() {
		return reflect.Value{}, fmt.Errorf("%s produced nil", f.constructor.Name())
	}
	if result.Kind() != reflect.Pointer && !result.CanAddr() {
		addressable := reflect.New(result.Type()).Elem()
		addressable.Set(result)
		result = addressable
	}
	return result, nil
}

// newZeroValue returns an addressable zero value of the type. Pointer
// types get a new pointee and maps an empty map.
func newZeroValue(typ reflect.Type) reflect.Value {
	switch typ.Kind() {
	case reflect.Pointer:
		return reflect.New(typ.Elem())
	case reflect.Map:
		value := reflect.New(typ).Elem()
		value.Set(reflect.MakeMap(typ))
		return value
	default:
		return reflect.New(typ).Elem()
	}
}

// checkConstructible returns an error for types no default constructor
// can produce.
func checkConstructible(typ reflect.Type, options Options) error {
	named := typ
	if named.Kind() == reflect.Pointer {
		named = named.Elem()
	}
	switch named.Kind() {
	case reflect.Interface:
		return constructionErrorf("type is an interface: %s", typ)
	case reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Invalid:
		return constructionErrorf("type can not be constructed: %s", typ)
	}
	if named.Name() != "" && named.PkgPath() != "" && !isExportedName(named.Name()) &&
		!options.Has(PrivateConstructor) {
		return constructionErrorf("type is not exported: %s", typ)
	}
	return nil
}

// normalizeParameters aligns explicit argument names and types.
// Without explicit names and without NamedParameters only the
// parameterless factories are candidates.
func normalizeParameters(paramNames []string, paramTypes []reflect.Type, options Options) ([]string, []reflect.Type, error) {
	if paramNames != nil {
		if paramTypes == nil {
			paramTypes = make([]reflect.Type, len(paramNames))
		}
		if len(paramNames) != len(paramTypes) {
			return nil, nil, constructionErrorf("invalid object recipe: %d argument names and %d argument types",
				len(paramNames), len(paramTypes))
		}
		return paramNames, paramTypes, nil
	}
	if !options.Has(NamedParameters) {
		return []string{}, []reflect.Type{}, nil
	}
	return nil, nil, nil
}

// matchCandidate checks a candidate against explicit arguments or the
// available property names. It returns the names to feed the candidate
// with, or a miss level and reason.
func matchCandidate(candidateNames []string, candidateTypes []reflect.Type, paramNames []string,
	paramTypes []reflect.Type, available map[string]bool,
) ([]string, int, string) {
	if paramTypes != nil {
		if len(candidateTypes) != len(paramTypes) {
			return nil, 1, fmt.Sprintf("has %d arguments but expected %d", len(candidateTypes), len(paramTypes))
		}
		for index, paramType := range paramTypes {
			if !isAssignableType(candidateTypes[index], paramType) {
				return nil, 2, fmt.Sprintf("has signature %s but expected %s",
					typeList(candidateTypes), typeList(paramTypes))
			}
		}
		return paramNames, 0, ""
	}

	// Implicit selection requires a value for every declared parameter.
	if candidateNames == nil || len(candidateNames) != len(candidateTypes) {
		return nil, -1, ""
	}
	for _, name := range candidateNames {
		if !available[name] {
			return nil, -1, ""
		}
	}
	return candidateNames, 0, ""
}

// typeList formats parameter types.
func typeList(types []reflect.Type) string {
	names := make([]string, 0, len(types))
	for _, typ := range types {
		if typ == nil {
			names = append(names, "any")
			continue
		}
		names = append(names, typ.String())
	}
	return "(" + strings.Join(names, ", ") + ")"
}

// sortByParameterCount orders candidates with most parameters first.
func sortByParameterCount(candidates []*factory) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i].paramTypes()) > len(candidates[j].paramTypes())
	})
}

// findConstructor selects a constructor of the type.
func findConstructor(ec *ExecutionContext, typ reflect.Type, paramNames []string, paramTypes []reflect.Type,
	available map[string]bool, options Options,
) (*factory, error) {
	if typ == nil {
		return nil, constructionErrorf("no type specified")
	}
	constructors := ec.Types().Constructors(typ)
	constructibleErr := checkConstructible(typ, options)
	if constructibleErr != nil && len(constructors) == 0 {
		return nil, constructibleErr
	}

	paramNames, paramTypes, err := normalizeParameters(paramNames, paramTypes, options)
	if err != nil {
		return nil, err
	}

	candidates := make([]*factory, 0, len(constructors)+1)
	for _, constructor := range constructors {
		candidates = append(candidates, &factory{
			constructor: constructor,
			typ:         typ,
			paramNames:  constructor.ParameterNames(),
		})
	}
	if constructibleErr == nil {
		candidates = append(candidates, &factory{typ: typ, paramNames: []string{}})
	}
	sortByParameterCount(candidates)

	var miss *MissingFactoryMethodError
	private := false
	for _, candidate := range candidates {
		names, level, reason := matchCandidate(candidate.paramNames, candidate.paramTypes(), paramNames, paramTypes, available)
		if level < 0 {
			continue
		}
		if level > 0 {
			miss = missFactory(miss, level, "%s %s", candidate, reason)
			continue
		}
		if candidate.constructor != nil && !candidate.constructor.exported && !options.Has(PrivateConstructor) {
			miss = missFactory(miss, 5, "%s is not exported", candidate)
			private = true
			continue
		}
		// A rejected registered constructor is not replaced by the zero value.
		if candidate.constructor == nil && private {
			break
		}
		return &factory{constructor: candidate.constructor, typ: typ, paramNames: names}, nil
	}

	if miss != nil {
		return nil, miss
	}
	return nil, constructionErrorf("unable to find a valid constructor: %s%s", typ, typeList(paramTypes))
}

// findStaticFactory selects a factory function registered for the type
// under the name.
func findStaticFactory(ec *ExecutionContext, typ reflect.Type, name string, paramNames []string,
	paramTypes []reflect.Type, available map[string]bool, options Options,
) (*factory, error) {
	if typ == nil {
		return nil, constructionErrorf("no type specified")
	}
	if name == "" {
		return nil, constructionErrorf("empty factory method name")
	}

	paramNames, paramTypes, err := normalizeParameters(paramNames, paramTypes, options)
	if err != nil {
		return nil, err
	}

	factories := ec.Types().Factories(typ, name, options.Has(CaseInsensitiveFactory))
	candidates := make([]*factory, 0, len(factories))
	for _, constructor := range factories {
		candidates = append(candidates, &factory{
			constructor: constructor,
			typ:         constructor.OutType(),
			paramNames:  constructor.ParameterNames(),
			static:      true,
		})
	}
	sortByParameterCount(candidates)

	var miss *MissingFactoryMethodError
	for _, candidate := range candidates {
		names, level, reason := matchCandidate(candidate.paramNames, candidate.paramTypes(), paramNames, paramTypes, available)
		if level < 0 {
			continue
		}
		if level > 0 {
			miss = missFactory(miss, level, "static factory %s.%s %s", typ, name, reason)
			continue
		}
		if !candidate.constructor.exported && !options.Has(PrivateFactory) {
			miss = missFactory(miss, 5, "static factory %s.%s is not exported", typ, name)
			continue
		}
		candidate.paramNames = names
		return candidate, nil
	}

	if miss != nil {
		return nil, miss
	}
	return nil, &MissingFactoryMethodError{
		Message: fmt.Sprintf("unable to find a valid factory method: %s.%s%s", typ, name, typeList(paramTypes)),
	}
}

// findInstanceFactory returns the parameterless method producing the
// final object from a constructed instance.
func findInstanceFactory(typ reflect.Type, name string, options Options) (reflect.Method, error) {
	if name == "" {
		return reflect.Method{}, constructionErrorf("empty factory method name")
	}
	recvType := receiverType(typ)

	var miss *MissingFactoryMethodError
	for index := 0; index < recvType.NumMethod(); index++ {
		method := recvType.Method(index)
		if method.Name != name && (!options.Has(CaseInsensitiveFactory) || !strings.EqualFold(method.Name, name)) {
			continue
		}
		if method.Type.NumIn() != 1 {
			miss = missFactory(miss, 2, "instance factory method %s.%s takes %d parameters",
				recvType, method.Name, method.Type.NumIn()-1)
			continue
		}
		if method.Type.NumOut() == 0 || method.Type.NumOut() == 1 && method.Type.Out(0) == errorType {
			miss = missFactory(miss, 3, "instance factory method %s.%s does not return a value", recvType, method.Name)
			continue
		}
		if method.Type.NumOut() > 2 || method.Type.NumOut() == 2 && method.Type.Out(1) != errorType {
			miss = missFactory(miss, 3, "instance factory method %s.%s returns too many values", recvType, method.Name)
			continue
		}
		return method, nil
	}

	if miss != nil {
		return reflect.Method{}, miss
	}
	return reflect.Method{}, &MissingFactoryMethodError{
		Message: fmt.Sprintf("unable to find a valid factory method: %s.%s()", recvType, name),
	}
}
