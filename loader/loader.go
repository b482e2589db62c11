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
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is a document serialization format.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Formats returns the supported formats.
func Formats() []Format {
	return []Format{FormatYAML, FormatTOML}
}

// ParseFormat returns the format by name.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(name)) {
	case FormatYAML, "yml":
		return FormatYAML, nil
	case FormatTOML:
		return FormatTOML, nil
	}
	return "", fmt.Errorf("unknown format: %q", name)
}

// FormatFromPath determines the format by the file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("file %q has no extension", path)
	}
	return ParseFormat(ext)
}

// Parse decodes a document.
//
// TOML tables carry no key order, so TOML properties are declared in
// key order.
func Parse(data []byte, format Format) (*Document, error) {
	if format == FormatTOML {
		var tree map[string]any
		if err := toml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("failed to parse toml: %w", err)
		}
		converted, err := yaml.Marshal(tree)
		if err != nil {
			return nil, fmt.Errorf("failed to convert toml: %w", err)
		}
		data = converted
	} else if format != FormatYAML {
		return nil, fmt.Errorf("unknown format: %q", format)
	}

	doc := &Document{}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", format, err)
	}
	return doc, nil
}

// LoadFile reads and decodes the document, the format is taken from the
// file extension.
func LoadFile(path string) (*Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	doc, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to load %q: %w", path, err)
	}
	return doc, nil
}

// Marshal encodes the document.
func Marshal(doc *Document, format Format) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}

	switch format {
	case FormatYAML:
		return buf.Bytes(), nil
	case FormatTOML:
		var tree map[string]any
		if err := yaml.Unmarshal(buf.Bytes(), &tree); err != nil {
			return nil, fmt.Errorf("failed to convert document: %w", err)
		}
		data, err := toml.Marshal(tree)
		if err != nil {
			return nil, fmt.Errorf("failed to encode toml: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("unknown format: %q", format)
}
