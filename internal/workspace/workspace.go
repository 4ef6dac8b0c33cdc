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
// Package workspace holds the editable state of a generation session: the
// declared join columns and the imported tables. Generation always runs on a
// Snapshot copied out of it.
package workspace

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/schema"
)

// Workspace is safe for concurrent use.
type Workspace struct {
	mu          sync.RWMutex
	logger      *zap.Logger
	joinColumns []schema.JoinColumn
	tables      []schema.Table
}

// JoinColumnPatch carries the fields of an UpdateJoinColumn call. Nil fields
// are left unchanged.
type JoinColumnPatch struct {
	ColumnName *string             `json:"column_name,omitempty"`
	Setting    *schema.JoinSetting `json:"setting,omitempty"`
	Values     []string            `json:"values,omitempty"`
}

// Snapshot is an immutable copy of the workspace used for one generation run.
type Snapshot struct {
	Tables      []schema.Table      `json:"tables"`
	JoinColumns []schema.JoinColumn `json:"join_columns"`
}

func New(logger *zap.Logger) *Workspace {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workspace{logger: logger}
}

// AddJoinColumn declares a new join column. An empty ID is replaced with a
// random UUID and an empty setting defaults to random_generated.
func (w *Workspace) AddJoinColumn(jc schema.JoinColumn) (schema.JoinColumn, error) {
	jc.ColumnName = strings.TrimSpace(jc.ColumnName)
	if jc.ColumnName == "" {
		return schema.JoinColumn{}, &ErrInvalidInput{Msg: "join column name is required"}
	}
	if jc.ID == "" {
		jc.ID = uuid.NewString()
	}
	if jc.Setting == "" {
		jc.Setting = schema.SettingRandomGenerated
	}
	if !jc.Setting.Valid() {
		return schema.JoinColumn{}, &ErrInvalidInput{Msg: "unknown join setting " + string(jc.Setting)}
	}
	jc.Values = valuesFor(jc.Setting, jc.Values)

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, existing := range w.joinColumns {
		if existing.ID == jc.ID {
			return schema.JoinColumn{}, &ErrInvalidInput{Msg: "duplicate join column id " + jc.ID}
		}
		if existing.ColumnName == jc.ColumnName {
			return schema.JoinColumn{}, &ErrInvalidInput{Msg: "join column " + jc.ColumnName + " is already declared"}
		}
	}
	w.joinColumns = append(w.joinColumns, jc)
	w.logger.Debug("join column added", zap.String("id", jc.ID), zap.String("column", jc.ColumnName))
	return cloneJoinColumn(jc), nil
}

// ReplaceJoinColumns swaps the declared join columns for jcs, applying the
// same defaults and checks as AddJoinColumn.
func (w *Workspace) ReplaceJoinColumns(jcs []schema.JoinColumn) error {
	staged := New(w.logger)
	for _, jc := range jcs {
		if _, err := staged.AddJoinColumn(jc); err != nil {
			return err
		}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.joinColumns = staged.joinColumns
	return nil
}

// UpdateJoinColumn applies patch to the join column with the given id. A
// setting change resets the values: random_generated drops them and the list
// settings start from an empty list unless the patch carries values.
func (w *Workspace) UpdateJoinColumn(id string, patch JoinColumnPatch) (schema.JoinColumn, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	idx := w.joinColumnIndex(id)
	if idx < 0 {
		return schema.JoinColumn{}, &ErrNotFound{Kind: "join column", Key: id}
	}
	jc := cloneJoinColumn(w.joinColumns[idx])

	if patch.ColumnName != nil {
		name := strings.TrimSpace(*patch.ColumnName)
		if name == "" {
			return schema.JoinColumn{}, &ErrInvalidInput{Msg: "join column name is required"}
		}
		for i, existing := range w.joinColumns {
			if i != idx && existing.ColumnName == name {
				return schema.JoinColumn{}, &ErrInvalidInput{Msg: "join column " + name + " is already declared"}
			}
		}
		jc.ColumnName = name
	}

	if patch.Setting != nil && *patch.Setting != jc.Setting {
		if !patch.Setting.Valid() {
			return schema.JoinColumn{}, &ErrInvalidInput{Msg: "unknown join setting " + string(*patch.Setting)}
		}
		jc.Setting = *patch.Setting
		jc.Values = valuesFor(jc.Setting, patch.Values)
	} else if patch.Values != nil && jc.Setting.UsesValues() {
		jc.Values = valuesFor(jc.Setting, patch.Values)
	}

	w.joinColumns[idx] = jc
	return cloneJoinColumn(jc), nil
}

// DeleteJoinColumn removes the join column with the given id. Column flags
// already set on imported tables are kept.
func (w *Workspace) DeleteJoinColumn(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	idx := w.joinColumnIndex(id)
	if idx < 0 {
		return &ErrNotFound{Kind: "join column", Key: id}
	}
	w.joinColumns = append(w.joinColumns[:idx], w.joinColumns[idx+1:]...)
	return nil
}

// JoinColumns returns the declared join columns ordered by column name.
func (w *Workspace) JoinColumns() []schema.JoinColumn {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]schema.JoinColumn, len(w.joinColumns))
	for i, jc := range w.joinColumns {
		out[i] = cloneJoinColumn(jc)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ColumnName < out[j].ColumnName
	})
	return out
}

// ImportRecords normalizes records into tables, flags the columns matching
// declared join columns and replaces the current table set. Nothing changes
// when normalization fails.
func (w *Workspace) ImportRecords(records []schema.Record) ([]schema.Table, error) {
	tables, err := schema.Normalize(records)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	schema.MarkJoinColumns(tables, w.joinColumns)
	w.tables = tables
	w.logger.Info("schema imported", zap.Int("records", len(records)), zap.Int("tables", len(tables)))
	return schema.SortByName(cloneTables(tables)), nil
}

// SetTables replaces the table set. Every table must be valid and names must
// be unique.
func (w *Workspace) SetTables(tables []schema.Table) error {
	seen := make(map[string]bool, len(tables))
	for _, t := range tables {
		if err := t.Validate(); err != nil {
			return &ErrInvalidInput{Msg: "table " + t.Name, Err: err}
		}
		if seen[t.Name] {
			return &ErrInvalidInput{Msg: "duplicate table " + t.Name}
		}
		seen[t.Name] = true
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.tables = cloneTables(tables)
	return nil
}

// Tables returns copies of the imported tables ordered by name.
func (w *Workspace) Tables() []schema.Table {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return schema.SortByName(cloneTables(w.tables))
}

func (w *Workspace) Table(name string) (schema.Table, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	idx := w.tableIndex(name)
	if idx < 0 {
		return schema.Table{}, &ErrNotFound{Kind: "table", Key: name}
	}
	return w.tables[idx].Clone(), nil
}

// UpdateTable replaces the stored table that has the same name.
func (w *Workspace) UpdateTable(table schema.Table) error {
	if err := table.Validate(); err != nil {
		return &ErrInvalidInput{Msg: "table " + table.Name, Err: err}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	idx := w.tableIndex(table.Name)
	if idx < 0 {
		return &ErrNotFound{Kind: "table", Key: table.Name}
	}
	w.tables[idx] = table.Clone()
	return nil
}

// SelectPrimaryKey marks column as a primary key and appends it to the
// table's PK ordering.
func (w *Workspace) SelectPrimaryKey(tableName, columnName string) (schema.Table, error) {
	return w.mutateColumn(tableName, columnName, func(t *schema.Table, col *schema.Column) {
		col.IsPrimaryKey = true
		for _, name := range t.PKOrdering {
			if name == columnName {
				return
			}
		}
		t.PKOrdering = append(t.PKOrdering, columnName)
	})
}

// DeselectPrimaryKey clears the primary key flag of column and removes it
// from the table's PK ordering.
func (w *Workspace) DeselectPrimaryKey(tableName, columnName string) (schema.Table, error) {
	return w.mutateColumn(tableName, columnName, func(t *schema.Table, col *schema.Column) {
		col.IsPrimaryKey = false
		ordering := make([]string, 0, len(t.PKOrdering))
		for _, name := range t.PKOrdering {
			if name != columnName {
				ordering = append(ordering, name)
			}
		}
		t.PKOrdering = ordering
	})
}

// ToggleJoinColumn flips the join flag of a single column.
func (w *Workspace) ToggleJoinColumn(tableName, columnName string) (schema.Table, error) {
	return w.mutateColumn(tableName, columnName, func(_ *schema.Table, col *schema.Column) {
		col.IsJoinColumn = !col.IsJoinColumn
	})
}

// Snapshot copies the workspace for a generation run. Tables keep their
// import order.
func (w *Workspace) Snapshot() Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	jcs := make([]schema.JoinColumn, len(w.joinColumns))
	for i, jc := range w.joinColumns {
		jcs[i] = cloneJoinColumn(jc)
	}
	return Snapshot{Tables: cloneTables(w.tables), JoinColumns: jcs}
}

func (w *Workspace) mutateColumn(tableName, columnName string, fn func(*schema.Table, *schema.Column)) (schema.Table, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	idx := w.tableIndex(tableName)
	if idx < 0 {
		return schema.Table{}, &ErrNotFound{Kind: "table", Key: tableName}
	}
	table := &w.tables[idx]
	for ci := range table.Columns {
		if table.Columns[ci].Name == columnName {
			fn(table, &table.Columns[ci])
			return table.Clone(), nil
		}
	}
	return schema.Table{}, &ErrNotFound{Kind: "column", Key: tableName + "." + columnName}
}

func (w *Workspace) joinColumnIndex(id string) int {
	for i, jc := range w.joinColumns {
		if jc.ID == id {
			return i
		}
	}
	return -1
}

func (w *Workspace) tableIndex(name string) int {
	for i, t := range w.tables {
		if t.Name == name {
			return i
		}
	}
	return -1
}

func valuesFor(setting schema.JoinSetting, values []string) []string {
	if !setting.UsesValues() {
		return nil
	}
	return append([]string{}, values...)
}

func cloneJoinColumn(jc schema.JoinColumn) schema.JoinColumn {
	if jc.Values != nil {
		jc.Values = append([]string{}, jc.Values...)
	}
	return jc
}

func cloneTables(tables []schema.Table) []schema.Table {
	out := make([]schema.Table, len(tables))
	for i, t := range tables {
		out[i] = t.Clone()
	}
	return out
}
