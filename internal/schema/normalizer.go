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
	"strconv"
	"strings"
)

// Record is one flat row of schema metadata, as exported from
// information_schema or read from a schema CSV file.
type Record struct {
	TableName        string `json:"table_name"`
	ColumnName       string `json:"column_name"`
	DataType         string `json:"data_type"`
	CharLength       string `json:"char_length"`
	NumericPrecision string `json:"numeric_precision"`
	NumericScale     string `json:"numeric_scale"`
	NotNull          string `json:"not_null"`
	IsPrimaryKey     string `json:"is_primary_key"`
}

// truthyTokens is the single accepted set of affirmative indicator values.
var truthyTokens = map[string]bool{
	"yes":  true,
	"y":    true,
	"true": true,
	"t":    true,
	"1":    true,
}

// IsTruthy reports whether an indicator field is affirmative.
func IsTruthy(v string) bool {
	return truthyTokens[strings.ToLower(strings.TrimSpace(v))]
}

// parseOptionalInt returns nil for empty or non-numeric input.
func parseOptionalInt(v string) *int {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

// Normalize groups records into tables. Tables appear in first-seen order and
// columns in record order. Records without a table or column name, repeated
// (table, column) pairs and inconsistent size metadata are rejected.
func Normalize(records []Record) ([]Table, error) {
	var tables []Table
	index := make(map[string]int)
	seen := make(map[string]map[string]bool)

	for i, rec := range records {
		tableName := strings.TrimSpace(rec.TableName)
		columnName := strings.TrimSpace(rec.ColumnName)
		if tableName == "" {
			return nil, &ErrMalformedInput{Record: i + 1, Msg: "missing table_name"}
		}
		if columnName == "" {
			return nil, &ErrMalformedInput{Record: i + 1, Msg: "missing column_name for table " + tableName}
		}

		pos, ok := index[tableName]
		if !ok {
			pos = len(tables)
			index[tableName] = pos
			seen[tableName] = make(map[string]bool)
			tables = append(tables, Table{
				Name:       tableName,
				Columns:    []Column{},
				PKOrdering: []string{},
			})
		}
		if seen[tableName][columnName] {
			return nil, &ErrMalformedInput{Record: i + 1, Msg: "duplicate column " + tableName + "." + columnName}
		}
		seen[tableName][columnName] = true

		col := Column{
			Name:             columnName,
			DataType:         NormalizeDataType(rec.DataType),
			CharLength:       parseOptionalInt(rec.CharLength),
			NumericPrecision: parseOptionalInt(rec.NumericPrecision),
			NumericScale:     parseOptionalInt(rec.NumericScale),
			NotNull:          IsTruthy(rec.NotNull),
			IsPrimaryKey:     IsTruthy(rec.IsPrimaryKey),
		}
		if err := col.checkSizes(); err != nil {
			return nil, &ErrMalformedInput{Record: i + 1, Msg: tableName + "." + columnName, Err: err}
		}
		tables[pos].Columns = append(tables[pos].Columns, col)
		if col.IsPrimaryKey {
			tables[pos].PKOrdering = append(tables[pos].PKOrdering, col.Name)
		}
	}
	return tables, nil
}
