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

// Package loader reads object graph definitions from YAML and TOML
// documents and turns them into recipes.
//
// A document declares named objects:
//
//	objects:
//	  - name: server
//	    type: app.Server
//	    args: [addr]
//	    options: [named-parameters]
//	    properties:
//	      addr: ":8080"
//	      timeout: 5s
//	      store: {ref: store}
//	      tags: [a, b]
//	      limits: {map: {read: 10, write: 5}}
//
// Property values are scalars or one of the forms {ref: name},
// {list: [...]}, {set: [...]}, {sortedSet: [...]}, {map: {...}},
// {object: {...}} and {allProperties: true}. The collection and map forms
// accept a type key naming a registered type. Plain sequences are lists
// and plain mappings are maps.
//
// Property names may carry a kind prefix: "field:", "setter:" or "auto:".
// Dotted names are compound properties.
package loader
