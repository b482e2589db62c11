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

package loader

import (
	"fmt"
	"strings"

	"github.com/NVIDIA/recipe"
)

// Property name prefixes selecting the property kind.
const (
	prefixField  = "field:"
	prefixSetter = "setter:"
	prefixAuto   = "auto:"
)

// Recipes converts the document objects to named recipes.
func Recipes(doc *Document) ([]recipe.Recipe, error) {
	if err := Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}
	recipes := make([]recipe.Recipe, 0, len(doc.Objects))
	for _, object := range doc.Objects {
		r, err := objectRecipe(object)
		if err != nil {
			return nil, fmt.Errorf("object '%s': %w", object.Name, err)
		}
		recipes = append(recipes, r)
	}
	return recipes, nil
}

// Populate adds the document recipes to the graph.
func Populate(graph *recipe.ObjectGraph, doc *Document) error {
	recipes, err := Recipes(doc)
	if err != nil {
		return err
	}
	for _, r := range recipes {
		if err := graph.Add(r); err != nil {
			return fmt.Errorf("failed to add recipe: %w", err)
		}
	}
	return nil
}

func objectRecipe(object *Object) (*recipe.ObjectRecipe, error) {
	r := recipe.NewObjectRecipeByName(object.Type)
	r.SetName(object.Name)
	r.SetAllowPartial(object.AllowPartial)
	if object.Factory != "" {
		r.SetFactoryMethod(object.Factory)
	}
	if len(object.Args) > 0 {
		r.SetConstructorArgNames(object.Args...)
	}
	for _, name := range object.Options {
		option, err := recipe.ParseOption(name)
		if err != nil {
			return nil, err
		}
		r.Allow(option)
	}

	for _, property := range object.Properties {
		value, err := recipeValue(property.Value)
		if err != nil {
			return nil, fmt.Errorf("property '%s': %w", property.Name, err)
		}
		switch name := property.Name; {
		case strings.HasPrefix(name, prefixField):
			r.SetFieldProperty(strings.TrimPrefix(name, prefixField), value)
		case strings.HasPrefix(name, prefixSetter):
			r.SetMethodProperty(strings.TrimPrefix(name, prefixSetter), value)
		case strings.HasPrefix(name, prefixAuto):
			r.SetAutoMatchProperty(strings.TrimPrefix(name, prefixAuto), value)
		case strings.Contains(name, "."):
			r.SetCompoundProperty(name, value)
		default:
			r.SetProperty(name, value)
		}
	}
	return r, nil
}

// recipeValue converts a property value to a plain value or a recipe.
func recipeValue(value any) (any, error) {
	switch v := value.(type) {
	case *Ref:
		return recipe.NewReferenceRecipe(v.Name), nil

	case *Collection:
		kind, err := collectionKind(v.Kind)
		if err != nil {
			return nil, err
		}
		r := recipe.NewCollectionRecipe(kind)
		if v.Type != "" {
			r.SetTypeName(v.Type)
		}
		for index, item := range v.Items {
			element, err := recipeValue(item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", index, err)
			}
			r.Add(element)
		}
		return r, nil

	case *Map:
		r := recipe.NewMapRecipe()
		if v.Type != "" {
			r.SetTypeName(v.Type)
		}
		for _, entry := range v.Entries {
			key, err := recipeValue(entry.Key)
			if err != nil {
				return nil, fmt.Errorf("key %v: %w", entry.Key, err)
			}
			element, err := recipeValue(entry.Value)
			if err != nil {
				return nil, fmt.Errorf("value of %v: %w", entry.Key, err)
			}
			r.Put(key, element)
		}
		return r, nil

	case *Object:
		return objectRecipe(v)

	case *AllProperties:
		return recipe.NewAllPropertiesRecipe(), nil
	}
	return value, nil
}

func collectionKind(form string) (recipe.CollectionKind, error) {
	switch form {
	case formList:
		return recipe.ListKind, nil
	case formSet:
		return recipe.SetKind, nil
	case formSortedSet:
		return recipe.SortedSetKind, nil
	}
	return 0, fmt.Errorf("unknown collection kind %q", form)
}
