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

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("RECIPECTL_LOG_LEVEL", "debug")
	t.Setenv("RECIPECTL_LOG_DEV", "true")
	t.Setenv("RECIPECTL_WORKERS", "8")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Level)
	assert.True(t, cfg.Development)
	assert.Equal(t, 8, cfg.Workers)
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("RECIPECTL_WORKERS", "0")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("RECIPECTL_WORKERS", "many")
	_, err = Load()
	assert.Error(t, err)
}
