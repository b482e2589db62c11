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

// Package recipe builds object graphs from recipes.
//
// A recipe describes how to produce one value: an object built by a
// constructor or a factory and configured by properties, a collection,
// a map or a reference to another named recipe. An ObjectGraph builds
// named recipes in dependency order, resolves forward references and
// reports circular dependencies. A Container builds the whole graph,
// gives access to the objects by name or type and closes them in
// reverse construction order.
package recipe
