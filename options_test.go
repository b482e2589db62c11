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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	var options Options
	assert.False(t, options.Has(FieldInjection))

	options = options.With(FieldInjection).With(LazyAssignment)
	assert.True(t, options.Has(FieldInjection))
	assert.True(t, options.Has(LazyAssignment))
	assert.False(t, options.Has(NamedParameters))

	options = options.Without(FieldInjection)
	assert.False(t, options.Has(FieldInjection))
	assert.True(t, options.Has(LazyAssignment))
}

func TestParseOption(t *testing.T) {
	for _, name := range OptionNames() {
		option, err := ParseOption(name)
		require.NoError(t, err)
		assert.Equal(t, name, option.String())
	}

	option, err := ParseOption("Named-Parameters")
	require.NoError(t, err)
	assert.Equal(t, NamedParameters, option)

	_, err = ParseOption("bogus")
	require.EqualError(t, err, "unknown option 'bogus'")

	assert.Len(t, OptionNames(), 10)
	assert.Equal(t, "field-injection", OptionNames()[0])
	assert.Equal(t, "Option(0)", Option(0).String())
}
