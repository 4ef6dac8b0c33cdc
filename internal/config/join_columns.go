/*
 * Copyright 2025 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/schema"
)

// joinColumnsFile is the document form of a join columns file.
type joinColumnsFile struct {
	JoinColumns []schema.JoinColumn `yaml:"join_columns"`
}

// LoadJoinColumns reads join column declarations from a YAML or JSON file.
// The document is either a list of join columns or a mapping with a
// join_columns key.
func LoadJoinColumns(path string) ([]schema.JoinColumn, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open join columns file: %w", err)
	}
	defer f.Close()
	return ReadJoinColumns(f)
}

// ReadJoinColumns decodes join column declarations from r.
func ReadJoinColumns(r io.Reader) ([]schema.JoinColumn, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode join columns: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var jcs []schema.JoinColumn
		if err := root.Decode(&jcs); err != nil {
			return nil, fmt.Errorf("failed to decode join columns: %w", err)
		}
		return jcs, nil
	case yaml.MappingNode:
		var file joinColumnsFile
		if err := root.Decode(&file); err != nil {
			return nil, fmt.Errorf("failed to decode join columns: %w", err)
		}
		return file.JoinColumns, nil
	default:
		return nil, fmt.Errorf("join columns document must be a list or a mapping, line %d", root.Line)
	}
}

// WriteJoinColumns encodes join columns as a YAML document readable by
// ReadJoinColumns.
func WriteJoinColumns(w io.Writer, jcs []schema.JoinColumn) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(joinColumnsFile{JoinColumns: jcs}); err != nil {
		return fmt.Errorf("failed to encode join columns: %w", err)
	}
	return enc.Close()
}
