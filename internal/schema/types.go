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
package schema

import (
	"fmt"
	"sort"
	"strings"
)

// DataType is a normalized column type token.
type DataType string

const (
	TypeVarchar     DataType = "character varying"
	TypeText        DataType = "text"
	TypeInt         DataType = "integer"
	TypeBool        DataType = "boolean"
	TypeNumeric     DataType = "numeric"
	TypeTimestampTZ DataType = "timestamp with time zone"
)

// typeAliases maps lower-cased source tokens to their normalized type.
var typeAliases = map[string]DataType{
	"character varying":        TypeVarchar,
	"varchar":                  TypeVarchar,
	"text":                     TypeText,
	"int":                      TypeInt,
	"int4":                     TypeInt,
	"integer":                  TypeInt,
	"bool":                     TypeBool,
	"boolean":                  TypeBool,
	"numeric":                  TypeNumeric,
	"decimal":                  TypeNumeric,
	"timestamptz":              TypeTimestampTZ,
	"timestamp with time zone": TypeTimestampTZ,
}

// NormalizeDataType returns the canonical token for a raw type name. Unknown
// names are returned trimmed but otherwise untouched.
func NormalizeDataType(raw string) DataType {
	trimmed := strings.TrimSpace(raw)
	if dt, ok := typeAliases[strings.ToLower(trimmed)]; ok {
		return dt
	}
	return DataType(trimmed)
}

// Known reports whether the type has a dedicated value generator.
func (d DataType) Known() bool {
	switch d {
	case TypeVarchar, TypeText, TypeInt, TypeBool, TypeNumeric, TypeTimestampTZ:
		return true
	}
	return false
}

// Column describes a single column of an imported table.
type Column struct {
	Name             string   `json:"column_name"`
	DataType         DataType `json:"data_type"`
	CharLength       *int     `json:"char_length,omitempty"`
	NumericPrecision *int     `json:"numeric_precision,omitempty"`
	NumericScale     *int     `json:"numeric_scale,omitempty"`
	NotNull          bool     `json:"not_null"`
	IsPrimaryKey     bool     `json:"is_primary_key"`
	IsJoinColumn     bool     `json:"is_join_column"`
}

// IsPrimaryKeyJoin reports whether the column drives row expansion.
func (c Column) IsPrimaryKeyJoin() bool {
	return c.IsPrimaryKey && c.IsJoinColumn
}

// Table is an imported table. Columns keep declaration order, which is also
// the column order of generated INSERT statements.
type Table struct {
	Name       string   `json:"table_name"`
	Columns    []Column `json:"columns"`
	PKOrdering []string `json:"pk_ordering"`
}

// checkSizes enforces a positive CharLength, non-negative precision and scale,
// and precision >= scale when both are set.
func (c Column) checkSizes() error {
	if c.CharLength != nil && *c.CharLength <= 0 {
		return fmt.Errorf("char_length must be positive, got %d", *c.CharLength)
	}
	if c.NumericPrecision != nil && *c.NumericPrecision < 0 {
		return fmt.Errorf("numeric_precision must not be negative, got %d", *c.NumericPrecision)
	}
	if c.NumericScale != nil && *c.NumericScale < 0 {
		return fmt.Errorf("numeric_scale must not be negative, got %d", *c.NumericScale)
	}
	if c.NumericPrecision != nil && c.NumericScale != nil && *c.NumericScale > *c.NumericPrecision {
		return fmt.Errorf("numeric_scale %d exceeds numeric_precision %d", *c.NumericScale, *c.NumericPrecision)
	}
	return nil
}

// Column returns the named column and whether it exists.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns the column names in declaration order.
func (t Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}

// Validate checks the table invariants: a name, at least one column, unique
// column names with consistent size metadata, and a PKOrdering that only
// references primary-key columns.
func (t Table) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("table name is empty")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %s has no columns", t.Name)
	}
	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if seen[c.Name] {
			return fmt.Errorf("table %s declares column %s more than once", t.Name, c.Name)
		}
		seen[c.Name] = true
		if err := c.checkSizes(); err != nil {
			return fmt.Errorf("table %s column %s: %w", t.Name, c.Name, err)
		}
	}
	inOrdering := make(map[string]bool, len(t.PKOrdering))
	for _, name := range t.PKOrdering {
		col, ok := t.Column(name)
		if !ok {
			return fmt.Errorf("table %s: primary key ordering references unknown column %s", t.Name, name)
		}
		if !col.IsPrimaryKey {
			return fmt.Errorf("table %s: column %s is in the primary key ordering but not marked as primary key", t.Name, name)
		}
		inOrdering[name] = true
	}
	for _, c := range t.Columns {
		if c.IsPrimaryKey && !inOrdering[c.Name] {
			return fmt.Errorf("table %s: primary key column %s is missing from the primary key ordering", t.Name, c.Name)
		}
	}
	return nil
}

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	out := Table{
		Name:       t.Name,
		Columns:    make([]Column, len(t.Columns)),
		PKOrdering: append([]string{}, t.PKOrdering...),
	}
	for i, c := range t.Columns {
		out.Columns[i] = c
		out.Columns[i].CharLength = cloneInt(c.CharLength)
		out.Columns[i].NumericPrecision = cloneInt(c.NumericPrecision)
		out.Columns[i].NumericScale = cloneInt(c.NumericScale)
	}
	return out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

// JoinSetting controls how a join column's candidate values are produced.
type JoinSetting string

const (
	SettingUseAll          JoinSetting = "use_all"
	SettingRandomFromList  JoinSetting = "random_from_list"
	SettingRandomGenerated JoinSetting = "random_generated"
)

// Valid reports whether s is one of the supported settings.
func (s JoinSetting) Valid() bool {
	switch s {
	case SettingUseAll, SettingRandomFromList, SettingRandomGenerated:
		return true
	}
	return false
}

// UsesValues reports whether the setting reads the declared value list.
func (s JoinSetting) UsesValues() bool {
	return s == SettingUseAll || s == SettingRandomFromList
}

// JoinColumn is a user-declared column whose values are shared across tables.
type JoinColumn struct {
	ID         string      `json:"id" yaml:"id" mapstructure:"id"`
	ColumnName string      `json:"column_name" yaml:"column_name" mapstructure:"column_name"`
	Setting    JoinSetting `json:"setting" yaml:"setting" mapstructure:"setting"`
	Values     []string    `json:"values,omitempty" yaml:"values,omitempty" mapstructure:"values"`
}

// MarkJoinColumns flags every column whose name matches a declared join
// column. Flags are only ever set, never cleared.
func MarkJoinColumns(tables []Table, joinColumns []JoinColumn) {
	names := make(map[string]bool, len(joinColumns))
	for _, jc := range joinColumns {
		names[jc.ColumnName] = true
	}
	for ti := range tables {
		for ci := range tables[ti].Columns {
			if names[tables[ti].Columns[ci].Name] {
				tables[ti].Columns[ci].IsJoinColumn = true
			}
		}
	}
}

// SortByName returns a copy of tables ordered by table name.
func SortByName(tables []Table) []Table {
	out := append([]Table(nil), tables...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}
