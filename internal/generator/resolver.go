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
package generator

import (
	"fmt"

	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/schema"
)

// DefaultPlaceholderCount is the number of values produced for a
// random_generated join column.
const DefaultPlaceholderCount = 10

// JoinValues maps a join column name to its ordered candidate values.
type JoinValues map[string][]string

// Lookup returns the values for name, or an empty list when the column has no
// declaration.
func (jv JoinValues) Lookup(name string) []string {
	if values, ok := jv[name]; ok {
		return values
	}
	return []string{}
}

// PlaceholderValues returns "{prefix}_1" … "{prefix}_{count}".
func PlaceholderValues(prefix string, count int) []string {
	if count < 0 {
		count = 0
	}
	values := make([]string, count)
	for i := range values {
		values[i] = fmt.Sprintf("%s_%d", prefix, i+1)
	}
	return values
}

// ResolveJoinValues turns join column declarations into concrete value lists.
//
// random_from_list expands exactly like use_all: every listed value becomes a
// factor of the primary key cartesian product. Per-row sampling was never
// implemented by the original tool and is not assumed here.
//
// Settings other than use_all and random_from_list resolve to placeholders.
// A later declaration for the same column name replaces an earlier one.
func ResolveJoinValues(joinColumns []schema.JoinColumn, placeholderCount int) JoinValues {
	if placeholderCount <= 0 {
		placeholderCount = DefaultPlaceholderCount
	}
	resolved := make(JoinValues, len(joinColumns))
	for _, jc := range joinColumns {
		switch jc.Setting {
		case schema.SettingUseAll, schema.SettingRandomFromList:
			resolved[jc.ColumnName] = append([]string{}, jc.Values...)
		default:
			resolved[jc.ColumnName] = PlaceholderValues(jc.ColumnName, placeholderCount)
		}
	}
	return resolved
}
