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
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/schema"
)

// Config configures a generation Service.
type Config struct {
	PlaceholderCount int
	Options          Options
	// Seed makes runs reproducible when set.
	Seed *int64
	// Samples holds per table, per column string values that replace the
	// default text placeholders.
	Samples map[string]map[string][]string
}

// Service turns tables and join column declarations into INSERT statements.
type Service struct {
	logger *zap.Logger
	cfg    Config
}

func NewService(logger *zap.Logger, cfg Config) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger, cfg: cfg}
}

// TableResult summarizes the statement generated for one table.
type TableResult struct {
	Table         string   `json:"table"`
	Rows          int      `json:"rows"`
	PKJoinColumns []string `json:"pk_join_columns"`
	Statement     string   `json:"-"`
}

// Result is the outcome of one generation run.
type Result struct {
	SQL         string        `json:"-"`
	Tables      []TableResult `json:"tables"`
	EmptyTables []string      `json:"empty_tables"`
	Failures    []error       `json:"-"`
}

// Err combines every per-table failure, or returns nil.
func (r *Result) Err() error {
	return multierr.Combine(r.Failures...)
}

// Generate builds one INSERT statement per table in the given order. Tables
// are processed independently: invalid tables are recorded in Failures and
// tables without rows are recorded in EmptyTables, neither stops the run.
func (s *Service) Generate(ctx context.Context, tables []schema.Table, joinColumns []schema.JoinColumn) (*Result, error) {
	startTime := time.Now()
	values := ResolveJoinValues(joinColumns, s.cfg.PlaceholderCount)
	src := s.randSource()

	result := &Result{}
	var statements []string

	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generation cancelled: %w", err)
		}

		opts := s.cfg.Options
		if samples, ok := s.cfg.Samples[table.Name]; ok && len(samples) > 0 {
			opts.StringFormat = SampleFormatter(samples, opts.StringFormat)
		}
		synth := NewSynthesizer(opts, src)

		tableResult, err := s.generateTable(table, values, synth)
		if err != nil {
			s.logger.Warn("skipping table", zap.String("table", table.Name), zap.Error(err))
			result.Failures = append(result.Failures, err)
			continue
		}
		if tableResult.Rows == 0 {
			s.logger.Warn("no rows generated: a primary key join column has no values",
				zap.String("table", table.Name),
				zap.Strings("pk_join_columns", tableResult.PKJoinColumns))
			result.EmptyTables = append(result.EmptyTables, table.Name)
			continue
		}
		s.logger.Debug("generated table",
			zap.String("table", table.Name),
			zap.Int("rows", tableResult.Rows))
		result.Tables = append(result.Tables, tableResult)
		statements = append(statements, tableResult.Statement)
	}

	result.SQL = strings.Join(statements, "\n")
	s.logger.Info("generation finished",
		zap.Int("tables", len(result.Tables)),
		zap.Int("empty_tables", len(result.EmptyTables)),
		zap.Int("failed_tables", len(result.Failures)),
		zap.Duration("elapsed", time.Since(startTime)))
	return result, nil
}

func (s *Service) randSource() rand.Source {
	if s.cfg.Seed != nil {
		return rand.NewSource(*s.cfg.Seed)
	}
	return rand.NewSource(time.Now().UnixNano())
}

func (s *Service) generateTable(table schema.Table, values JoinValues, synth *Synthesizer) (tr TableResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ErrInvalidTable{Table: table.Name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if err := table.Validate(); err != nil {
		return TableResult{}, &ErrInvalidTable{Table: table.Name, Err: err}
	}

	expansion := ExpandRows(table, values)
	rows := GenerateRows(table, expansion, synth)

	tr = TableResult{
		Table:         table.Name,
		Rows:          len(rows),
		PKJoinColumns: expansion.PKJoinColumns,
	}
	if len(rows) > 0 {
		tr.Statement = BuildInsertStatement(table.Name, table.ColumnNames(), rows)
	}
	return tr, nil
}

// GenerateRows fills every cell of every expanded row. Primary key join
// columns come from the expansion tuple; other columns are synthesized.
func GenerateRows(table schema.Table, expansion Expansion, synth *Synthesizer) [][]Cell {
	rows := make([][]Cell, 0, expansion.TotalRows)
	for rowIdx := 0; rowIdx < expansion.TotalRows; rowIdx++ {
		row := make([]Cell, 0, len(table.Columns))
		for _, col := range table.Columns {
			if col.IsPrimaryKeyJoin() {
				row = append(row, expansion.Value(col.Name, rowIdx))
			} else {
				row = append(row, synth.Synthesize(col, rowIdx))
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// BuildInsertStatement renders a multi-row INSERT terminated by ";\n".
func BuildInsertStatement(tableName string, columns []string, rows [][]Cell) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES\n", tableName, strings.Join(columns, ", "))
	for i, row := range rows {
		literals := make([]string, len(row))
		for j, cell := range row {
			literals[j] = cell.Literal
		}
		b.WriteString("(" + strings.Join(literals, ", ") + ")")
		if i < len(rows)-1 {
			b.WriteString(",\n")
		}
	}
	b.WriteString(";\n")
	return b.String()
}

// SampleFormatter returns a StringFormatter that cycles through the samples of
// each column by row index. Columns without samples use next, or the default
// '{column}_{row}' value when next is nil.
func SampleFormatter(samples map[string][]string, next StringFormatter) StringFormatter {
	return func(rowIndex int, columnName string) string {
		if values := samples[columnName]; len(values) > 0 {
			return values[rowIndex%len(values)]
		}
		if next != nil {
			return next(rowIndex, columnName)
		}
		return fmt.Sprintf("%s_%d", columnName, rowIndex+1)
	}
}
