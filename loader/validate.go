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
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/NVIDIA/recipe"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("option", func(fl validator.FieldLevel) bool {
		_, err := recipe.ParseOption(fl.Field().String())
		return err == nil
	}); err != nil {
		panic(err)
	}
	return v
}

// Validate checks the document structure: every top level object is
// named, names are unique, types are given and options are known.
func Validate(doc *Document) error {
	if doc == nil {
		return errors.New("document is empty")
	}
	if err := validate.Struct(doc); err != nil {
		return formatValidationError(err)
	}

	var errs []string
	seen := make(map[string]bool)
	for index, object := range doc.Objects {
		if object.Name == "" {
			errs = append(errs, fmt.Sprintf("objects[%d]: name is required", index))
		}
		walkObjects(object, func(object *Object) {
			if object.Name == "" {
				return
			}
			if seen[object.Name] {
				errs = append(errs, fmt.Sprintf("name '%s' is declared more than once", object.Name))
			}
			seen[object.Name] = true
		})
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// walkObjects calls fn for the object and every inner object.
func walkObjects(object *Object, fn func(*Object)) {
	fn(object)
	for _, property := range object.Properties {
		walkValue(property.Value, fn)
	}
}

func walkValue(value any, fn func(*Object)) {
	switch v := value.(type) {
	case *Object:
		walkObjects(v, fn)
	case *Collection:
		for _, item := range v.Items {
			walkValue(item, fn)
		}
	case *Map:
		for _, entry := range v.Entries {
			walkValue(entry.Key, fn)
			walkValue(entry.Value, fn)
		}
	}
}

// formatValidationError formats validation errors into readable messages.
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, formatFieldError(e))
	}
	return errors.New(strings.Join(messages, "; "))
}

// formatFieldError formats a single field validation error.
func formatFieldError(e validator.FieldError) string {
	field := strings.TrimPrefix(e.Namespace(), "Document.")
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "option":
		return fmt.Sprintf("%s: unknown option '%v', expected one of: %s",
			field, e.Value(), strings.Join(recipe.OptionNames(), ", "))
	case "printascii":
		return fmt.Sprintf("%s must be printable ascii", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
