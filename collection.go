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
	"reflect"
)

// CollectionKind is the category of a built collection.
type CollectionKind int

// Supported collection kinds.
const (
	ListKind CollectionKind = iota
	SetKind
	SortedSetKind
)

// String implements fmt.Stringer.
func (k CollectionKind) String() string {
	switch k {
	case ListKind:
		return "list"
	case SetKind:
		return "set"
	case SortedSetKind:
		return "sortedSet"
	}
	return fmt.Sprintf("CollectionKind(%d)", int(k))
}

// Collection is implemented by pointer types a collection recipe can fill.
type Collection interface {
	// Add appends the value.
	Add(value any) error
}

// IndexedCollection is a collection with replaceable positions.
// Forward references get a placeholder patched in place once resolved.
type IndexedCollection interface {
	Collection

	// Len returns the number of values.
	Len() int

	// Set replaces the value at the index.
	Set(index int, value any) error
}

// CollectionRecipe builds a list, a set or a sorted set.
type CollectionRecipe struct {
	base

	kind     CollectionKind
	typ      reflect.Type
	typeName string
	elements []any
	options  Options
}

// NewCollectionRecipe returns a recipe of the kind with the elements.
func NewCollectionRecipe(kind CollectionKind, elements ...any) *CollectionRecipe {
	return &CollectionRecipe{kind: kind, elements: append([]any(nil), elements...)}
}

// Kind returns the collection kind.
func (r *CollectionRecipe) Kind() CollectionKind {
	return r.kind
}

// SetType sets the requested collection type.
func (r *CollectionRecipe) SetType(typ reflect.Type) {
	r.typ = typ
}

// SetTypeName sets the name of the requested collection type.
func (r *CollectionRecipe) SetTypeName(typeName string) {
	r.typeName = typeName
}

// Add appends an element value or recipe.
func (r *CollectionRecipe) Add(element any) {
	r.elements = append(r.elements, element)
}

// Elements returns the declared elements.
func (r *CollectionRecipe) Elements() []any {
	return append([]any(nil), r.elements...)
}

// Len returns the number of declared elements.
func (r *CollectionRecipe) Len() int {
	return len(r.elements)
}

// Allow adds the option.
func (r *CollectionRecipe) Allow(option Option) {
	r.options = r.options.With(option)
}

// Disallow removes the option.
func (r *CollectionRecipe) Disallow(option Option) {
	r.options = r.options.Without(option)
}

// Options returns the enabled options.
func (r *CollectionRecipe) Options() Options {
	return r.options
}

// String implements fmt.Stringer.
func (r *CollectionRecipe) String() string {
	if r.Name() != "" {
		return fmt.Sprintf("CollectionRecipe[%s %s]", r.Name(), r.kind)
	}
	return fmt.Sprintf("CollectionRecipe[%s]", r.kind)
}

// Create implements Recipe.
func (r *CollectionRecipe) Create(ctx context.Context, expectedType reflect.Type, lazyRefAllowed bool) (any, error) {
	return create(ctx, r, expectedType, lazyRefAllowed)
}

// CanCreate implements Recipe.
func (r *CollectionRecipe) CanCreate(ec *ExecutionContext, typ reflect.Type) bool {
	collectionType, err := r.collectionType(ec, typ)
	if err != nil {
		return false
	}
	return isAssignableType(typ, collectionType)
}

// NestedRecipes implements Recipe.
func (r *CollectionRecipe) NestedRecipes(_ *ExecutionContext) ([]Recipe, error) {
	nested := make([]Recipe, 0, len(r.elements))
	for _, element := range r.elements {
		if recipe, ok := element.(Recipe); ok {
			nested = append(nested, recipe)
		}
	}
	return nested, nil
}

// ConstructorRecipes implements Recipe.
// Lazily assigned elements are not needed to build the collection.
func (r *CollectionRecipe) ConstructorRecipes(ec *ExecutionContext) ([]Recipe, error) {
	if r.options.Has(LazyAssignment) {
		return nil, nil
	}
	return r.NestedRecipes(ec)
}

// build implements builder.
func (r *CollectionRecipe) build(ctx context.Context, ec *ExecutionContext, expectedType reflect.Type, _ bool) (any, error) {
	typ, err := r.collectionType(ec, expectedType)
	if err != nil {
		return nil, err
	}

	target, err := newCollectionTarget(typ, len(r.elements))
	if err != nil {
		return nil, err
	}

	if name := r.Name(); name != "" && r.AllowPartial() {
		if err := ec.AddObject(name, target.value.Interface()); err != nil {
			return nil, err
		}
	}

	lazy := r.options.Has(LazyAssignment)
	for index, element := range r.elements {
		value, err := convert(ctx, target.elemType, element, lazy)
		if err != nil {
			return nil, wrapConstructionError(err, "failed to convert element %d of %s", index, r)
		}
		if ref, ok := value.(*Reference); ok {
			if err := target.addLater(index, ref); err != nil {
				return nil, err
			}
			continue
		}
		if err := target.add(index, value); err != nil {
			return nil, wrapConstructionError(err, "failed to add element %d to %s", index, r)
		}
	}

	object := target.value.Interface()
	if name := r.Name(); name != "" && !r.AllowPartial() {
		if err := ec.AddObject(name, object); err != nil {
			return nil, err
		}
	}
	return object, nil
}

// collectionType returns the type to build: the declared type, or the
// expected type when it is more specific, or the canonical type of the kind.
func (r *CollectionRecipe) collectionType(ec *ExecutionContext, expectedType reflect.Type) (reflect.Type, error) {
	typ := r.typ
	if typ == nil && r.typeName != "" {
		if ec == nil {
			return nil, constructionErrorf("type could not be resolved without a context: %s", r.typeName)
		}
		var err error
		if typ, err = ec.Types().Lookup(r.typeName); err != nil {
			return nil, err
		}
	}

	if expectedType != nil && expectedType != anyType && (typ == nil || expectedType.AssignableTo(typ)) &&
		isCollectionType(expectedType) {
		return expectedType, nil
	}
	if typ != nil && isCollectionType(typ) {
		return typ, nil
	}
	switch r.kind {
	case SetKind:
		return anySetType, nil
	case SortedSetKind:
		return sortedSetType, nil
	default:
		return anySliceType, nil
	}
}

// isCollectionType returns true for slices, set maps and pointers to
// Collection implementations.
func isCollectionType(typ reflect.Type) bool {
	switch typ.Kind() {
	case reflect.Slice:
		return true
	case reflect.Map:
		return typ.Elem() == emptyStructType || typ.Elem().Kind() == reflect.Bool
	case reflect.Pointer:
		return typ.Elem().Kind() == reflect.Struct && typ.Implements(collectionInterface)
	}
	return false
}

// collectionTarget fills a collection value of a supported type.
type collectionTarget struct {
	value    reflect.Value
	elemType reflect.Type
}

// newCollectionTarget allocates an empty collection. Slices are allocated
// with their final length.
func newCollectionTarget(typ reflect.Type, size int) (*collectionTarget, error) {
	switch typ.Kind() {
	case reflect.Slice:
		return &collectionTarget{value: reflect.MakeSlice(typ, size, size), elemType: typ.Elem()}, nil
	case reflect.Map:
		return &collectionTarget{value: reflect.MakeMapWithSize(typ, size), elemType: typ.Key()}, nil
	case reflect.Pointer:
		if isCollectionType(typ) {
			return &collectionTarget{value: reflect.New(typ.Elem()), elemType: anyType}, nil
		}
	}
	return nil, constructionErrorf("type is not a collection: %s", typ)
}

// add stores the element at the index.
func (t *collectionTarget) add(index int, value any) error {
	switch t.value.Kind() {
	case reflect.Slice:
		element, err := assignable(t.elemType, value)
		if err != nil {
			return err
		}
		t.value.Index(index).Set(element)
		return nil

	case reflect.Map:
		key, err := assignable(t.elemType, value)
		if err != nil {
			return err
		}
		if !key.Comparable() {
			return fmt.Errorf("value of type %s can not be a set element", valueTypeName(value))
		}
		present := reflect.ValueOf(struct{}{})
		if t.value.Type().Elem().Kind() == reflect.Bool {
			present = reflect.ValueOf(true).Convert(t.value.Type().Elem())
		}
		t.value.SetMapIndex(key, present)
		return nil
	}
	return t.value.Interface().(Collection).Add(value)
}

// addLater installs the action storing the element once the reference
// is resolved. Indexed targets reserve the position with a zero value.
func (t *collectionTarget) addLater(index int, ref *Reference) error {
	switch t.value.Kind() {
	case reflect.Slice, reflect.Map:
		return ref.SetAction(func(ref *Reference) error {
			return t.add(index, ref.Get())
		})
	}

	collection := t.value.Interface().(Collection)
	if indexed, ok := collection.(IndexedCollection); ok {
		position := indexed.Len()
		if err := indexed.Add(nil); err != nil {
			return err
		}
		return ref.SetAction(func(ref *Reference) error {
			return indexed.Set(position, ref.Get())
		})
	}
	return ref.SetAction(func(ref *Reference) error {
		return collection.Add(ref.Get())
	})
}

var (
	emptyStructType     = reflect.TypeOf(struct{}{})
	anySetType          = reflect.TypeOf(map[any]struct{}{})
	sortedSetType       = reflect.TypeOf((*SortedSet)(nil))
	collectionInterface = reflect.TypeOf((*Collection)(nil)).Elem()
)
