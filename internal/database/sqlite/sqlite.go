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
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/config"
	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/database"
)

// sqliteHandler implements database.DialectHandler for SQLite files. The
// database name is the path of the file.
type sqliteHandler struct {
	qb squirrel.StatementBuilderType
}

var _ database.DialectHandler = (*sqliteHandler)(nil)

func newHandler() sqliteHandler {
	return sqliteHandler{qb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)}
}

var (
	identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
	typePattern       = regexp.MustCompile(`^\s*([^(]+?)\s*(?:\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?\))?\s*$`)
)

func (h sqliteHandler) CreateCloudSQLPool(cfg config.DatabaseConfig) (*sql.DB, error) {
	return nil, fmt.Errorf("cloud sql is not available for sqlite")
}

func (h sqliteHandler) CreateStandardPool(cfg config.DatabaseConfig) (*sql.DB, error) {
	path := strings.TrimPrefix(cfg.DBName, "sqlite://")
	if path == "" {
		return nil, fmt.Errorf("sqlite requires a database file path")
	}
	if !strings.Contains(path, "?") {
		path += "?_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

func (h sqliteHandler) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (h sqliteHandler) ListTables(ctx context.Context, db *database.DB) ([]string, error) {
	query, args, err := h.qb.Select("name").
		From("sqlite_master").
		Where(squirrel.Eq{"type": "table"}).
		Where(squirrel.NotLike{"name": "sqlite_%"}).
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building tables query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("error scanning table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating table rows: %w", err)
	}
	return tables, nil
}

// ListColumns reads PRAGMA table_info. PRAGMA does not take bound
// parameters, so the table name is validated first.
func (h sqliteHandler) ListColumns(ctx context.Context, db *database.DB, tableName string) ([]database.ColumnInfo, error) {
	if !identifierPattern.MatchString(tableName) {
		return nil, fmt.Errorf("invalid table name: %s", tableName)
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", h.QuoteIdentifier(tableName)))
	if err != nil {
		return nil, fmt.Errorf("error querying columns for table %s: %w", tableName, err)
	}
	defer rows.Close()

	var columns []database.ColumnInfo
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, declared   string
			defaultValue     sql.NullString
		)
		if err := rows.Scan(&cid, &name, &declared, &notNull, &defaultValue, &pk); err != nil {
			return nil, fmt.Errorf("error scanning column details: %w", err)
		}
		col := parseDeclaredType(declared)
		col.Name = name
		col.NotNull = notNull != 0 || pk > 0
		col.IsPrimaryKey = pk > 0
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column rows: %w", err)
	}
	return columns, nil
}

// parseDeclaredType splits a declared column type such as VARCHAR(120) or
// NUMERIC(8,2) into its name and size arguments.
func parseDeclaredType(declared string) database.ColumnInfo {
	m := typePattern.FindStringSubmatch(declared)
	if m == nil {
		return database.ColumnInfo{DataType: strings.ToLower(strings.TrimSpace(declared))}
	}

	col := database.ColumnInfo{DataType: strings.ToLower(m[1])}
	if m[2] == "" {
		return col
	}
	first, _ := strconv.Atoi(m[2])
	switch col.DataType {
	case "numeric", "decimal":
		col.NumericPrecision = &first
		if m[3] != "" {
			scale, _ := strconv.Atoi(m[3])
			col.NumericScale = &scale
		}
	default:
		col.CharLength = &first
	}
	return col
}

func init() {
	database.RegisterDialectHandler("sqlite", newHandler())
}
