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
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// isInstance returns true when the value can be assigned to the type as is.
func isInstance(typ reflect.Type, value any) bool {
	if typ == nil {
		return true
	}
	if value == nil {
		return isNillableType(typ)
	}
	return reflect.TypeOf(value).AssignableTo(typ)
}

// isConvertible returns true when the value can be converted to the type.
func isConvertible(ec *ExecutionContext, typ reflect.Type, value any) bool {
	switch v := value.(type) {
	case Recipe:
		return v.CanCreate(ec, typ)
	case string:
		return canParse(typ)
	case nil:
		return false
	}
	return isNumericConvertible(reflect.TypeOf(value), typ)
}

// convert produces the value of a nested recipe and converts strings and
// numbers to the type. Other values are returned as is.
func convert(ctx context.Context, typ reflect.Type, value any, lazyRefAllowed bool) (any, error) {
	if typ == nil {
		typ = anyType
	}

	if r, ok := value.(Recipe); ok {
		created, err := r.Create(ctx, typ, lazyRefAllowed)
		if err != nil {
			return nil, err
		}
		value = created
	}

	switch v := value.(type) {
	case *Reference:
		return v, nil
	case string:
		if !isInstance(typ, v) && canParse(typ) {
			parsed, err := parseString(typ, v)
			if err != nil {
				return nil, err
			}
			return parsed.Interface(), nil
		}
	case nil:
		return nil, nil
	default:
		valueType := reflect.TypeOf(value)
		if !valueType.AssignableTo(typ) && isNumericConvertible(valueType, typ) {
			converted, err := convertNumber(reflect.ValueOf(value), typ)
			if err != nil {
				return nil, err
			}
			return converted.Interface(), nil
		}
	}
	return value, nil
}

// assignable returns a value of the type holding the object.
func assignable(typ reflect.Type, object any) (reflect.Value, error) {
	if object == nil {
		if !isNillableType(typ) {
			return reflect.Value{}, fmt.Errorf("nil can not be assigned to %s", typ)
		}
		return reflect.Zero(typ), nil
	}
	value := reflect.ValueOf(object)
	if value.Type().AssignableTo(typ) {
		if typ.Kind() == reflect.Interface {
			boxed := reflect.New(typ).Elem()
			boxed.Set(value)
			return boxed, nil
		}
		return value, nil
	}
	if isNumericConvertible(value.Type(), typ) {
		return convertNumber(value, typ)
	}
	return reflect.Value{}, fmt.Errorf("%s can not be assigned to %s", value.Type(), typ)
}

// canParse returns true when strings can be parsed into the type.
func canParse(typ reflect.Type) bool {
	if typ == nil {
		return false
	}
	if typ == durationType || reflect.PointerTo(typ).Implements(textUnmarshalerType) {
		return true
	}
	switch typ.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.Slice:
		return typ.Elem().Kind() == reflect.Uint8
	case reflect.Pointer:
		return typ.Elem().Kind() != reflect.Pointer && canParse(typ.Elem())
	}
	return false
}

// parseString parses the text into a value of the type.
func parseString(typ reflect.Type, text string) (reflect.Value, error) {
	result := reflect.New(typ).Elem()

	if typ.Kind() == reflect.Pointer {
		elem, err := parseString(typ.Elem(), text)
		if err != nil {
			return reflect.Value{}, err
		}
		pointer := reflect.New(typ.Elem())
		pointer.Elem().Set(elem)
		return pointer, nil
	}

	if unmarshaler, ok := result.Addr().Interface().(encoding.TextUnmarshaler); ok {
		if err := unmarshaler.UnmarshalText([]byte(text)); err != nil {
			return reflect.Value{}, fmt.Errorf("failed to parse '%s' as %s: %w", text, typ, err)
		}
		return result, nil
	}

	if typ == durationType {
		duration, err := time.ParseDuration(text)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("failed to parse '%s' as %s: %w", text, typ, err)
		}
		result.SetInt(int64(duration))
		return result, nil
	}

	var err error
	switch typ.Kind() {
	case reflect.String:
		result.SetString(text)
	case reflect.Bool:
		var parsed bool
		if parsed, err = strconv.ParseBool(text); err == nil {
			result.SetBool(parsed)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var parsed int64
		if parsed, err = strconv.ParseInt(text, 0, typ.Bits()); err == nil {
			result.SetInt(parsed)
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		var parsed uint64
		if parsed, err = strconv.ParseUint(text, 0, typ.Bits()); err == nil {
			result.SetUint(parsed)
		}
	case reflect.Float32, reflect.Float64:
		var parsed float64
		if parsed, err = strconv.ParseFloat(text, typ.Bits()); err == nil {
			result.SetFloat(parsed)
		}
	case reflect.Slice:
		result.SetBytes([]byte(text))
	default:
		err = fmt.Errorf("unsupported kind %s", typ.Kind())
	}
	if err != nil {
		return reflect.Value{}, fmt.Errorf("failed to parse '%s' as %s: %w", text, typ, err)
	}
	return result, nil
}

// isNumericConvertible returns true for lossless-by-kind numeric conversions:
// integers to integers and floats, floats to floats.
func isNumericConvertible(from, to reflect.Type) bool {
	if from == nil || to == nil {
		return false
	}
	switch {
	case isIntegerKind(from.Kind()):
		return isIntegerKind(to.Kind()) || isFloatKind(to.Kind())
	case isFloatKind(from.Kind()):
		return isFloatKind(to.Kind())
	}
	return false
}

// convertNumber converts a numeric value checking the target range.
func convertNumber(value reflect.Value, typ reflect.Type) (reflect.Value, error) {
	result := reflect.New(typ).Elem()
	switch {
	case isSignedKind(value.Kind()) && isSignedKind(typ.Kind()):
		if result.OverflowInt(value.Int()) {
			return reflect.Value{}, fmt.Errorf("%v overflows %s", value.Interface(), typ)
		}
	case isSignedKind(value.Kind()) && isUnsignedKind(typ.Kind()):
		if value.Int() < 0 || result.OverflowUint(uint64(value.Int())) {
			return reflect.Value{}, fmt.Errorf("%v overflows %s", value.Interface(), typ)
		}
	case isUnsignedKind(value.Kind()) && isSignedKind(typ.Kind()):
		if value.Uint() > uint64(1<<63-1) || result.OverflowInt(int64(value.Uint())) {
			return reflect.Value{}, fmt.Errorf("%v overflows %s", value.Interface(), typ)
		}
	case isUnsignedKind(value.Kind()) && isUnsignedKind(typ.Kind()):
		if result.OverflowUint(value.Uint()) {
			return reflect.Value{}, fmt.Errorf("%v overflows %s", value.Interface(), typ)
		}
	}
	return value.Convert(typ), nil
}

func isSignedKind(kind reflect.Kind) bool {
	return kind >= reflect.Int && kind <= reflect.Int64
}

func isUnsignedKind(kind reflect.Kind) bool {
	return kind >= reflect.Uint && kind <= reflect.Uintptr
}

func isIntegerKind(kind reflect.Kind) bool {
	return isSignedKind(kind) || isUnsignedKind(kind)
}

func isFloatKind(kind reflect.Kind) bool {
	return kind == reflect.Float32 || kind == reflect.Float64
}

// isNillableType returns true whether the specified type kind could accept nil.
func isNillableType(typ reflect.Type) bool {
	switch typ.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Chan, reflect.Interface, reflect.Func:
		return true
	default:
		return false
	}
}

// isAssignableType returns true when values of `from` fit into `to`.
// A nil type accepts anything.
func isAssignableType(to, from reflect.Type) bool {
	if to == nil || from == nil {
		return true
	}
	return from.AssignableTo(to)
}

var (
	durationType        = reflect.TypeOf(time.Duration(0))
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)
