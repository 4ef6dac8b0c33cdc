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
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// CSVHeader is the column layout read by ReadRecords and written by WriteRecords.
var CSVHeader = []string{
	"table_name",
	"column_name",
	"data_type",
	"char_length",
	"numeric_precision",
	"numeric_scale",
	"not_null",
	"is_primary_key",
}

// ReadRecords parses a header-led schema CSV. Header names are matched case
// insensitively; optional columns may be absent and blank lines are skipped.
func ReadRecords(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("schema csv is empty")
		}
		return nil, fmt.Errorf("failed to read schema csv header: %w", err)
	}

	positions := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		positions[name] = i
	}
	for _, required := range []string{"table_name", "column_name"} {
		if _, ok := positions[required]; !ok {
			return nil, fmt.Errorf("schema csv header is missing required column %q", required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := positions[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read schema csv: %w", err)
		}
		if isBlankRow(row) {
			continue
		}
		records = append(records, Record{
			TableName:        field(row, "table_name"),
			ColumnName:       field(row, "column_name"),
			DataType:         field(row, "data_type"),
			CharLength:       field(row, "char_length"),
			NumericPrecision: field(row, "numeric_precision"),
			NumericScale:     field(row, "numeric_scale"),
			NotNull:          field(row, "not_null"),
			IsPrimaryKey:     field(row, "is_primary_key"),
		})
	}
	return records, nil
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// WriteRecords writes records in the layout accepted by ReadRecords.
func WriteRecords(w io.Writer, records []Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write schema csv header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.TableName,
			rec.ColumnName,
			rec.DataType,
			rec.CharLength,
			rec.NumericPrecision,
			rec.NumericScale,
			rec.NotNull,
			rec.IsPrimaryKey,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write schema csv row for %s.%s: %w", rec.TableName, rec.ColumnName, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
