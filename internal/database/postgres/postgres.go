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
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strings"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"

	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/config"
	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/database"
)

// postgresHandler struct implements database.DialectHandler for PostgreSQL.
type postgresHandler struct {
	qb squirrel.StatementBuilderType
}

var _ database.DialectHandler = (*postgresHandler)(nil)

func newHandler() postgresHandler {
	return postgresHandler{qb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)}
}

// CreateCloudSQLPool for PostgreSQL
func (h postgresHandler) CreateCloudSQLPool(cfg config.DatabaseConfig) (*sql.DB, error) {
	params := database.ResolveCloudSQLParams(cfg)

	dsn := fmt.Sprintf("user=%s password=%s database=%s", params.User, params.Password, params.DBName)
	pgxConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	var opts []cloudsqlconn.Option
	if params.UsePrivateIP {
		opts = append(opts, cloudsqlconn.WithDefaultDialOptions(cloudsqlconn.WithPrivateIP()))
	}
	d, err := cloudsqlconn.NewDialer(context.Background(), opts...)
	if err != nil {
		return nil, err
	}
	pgxConfig.DialFunc = func(ctx context.Context, network, instance string) (net.Conn, error) {
		return d.Dial(ctx, params.Instance)
	}
	dbURI := stdlib.RegisterConnConfig(pgxConfig)
	dbPool, err := sql.Open("pgx", dbURI)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}

	return dbPool, nil
}

// CreateStandardPool creates a standard PostgreSQL connection pool
func (h postgresHandler) CreateStandardPool(cfg config.DatabaseConfig) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	dbPool, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	return dbPool, nil
}

// QuoteIdentifier for PostgreSQL
func (h postgresHandler) QuoteIdentifier(name string) string {
	return pq.QuoteIdentifier(name)
}

// ListTables for PostgreSQL
func (h postgresHandler) ListTables(ctx context.Context, db *database.DB) ([]string, error) {
	query, args, err := h.qb.Select("table_name").
		From("information_schema.tables").
		Where("table_schema = current_schema()").
		Where(squirrel.Eq{"table_type": "BASE TABLE"}).
		OrderBy("table_name").
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
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, fmt.Errorf("error scanning table name: %w", err)
		}
		tables = append(tables, tableName)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating table rows: %w", err)
	}

	return tables, nil
}

// primaryKeyExpr reports whether c.column_name is part of the table's
// primary key constraint.
const primaryKeyExpr = `EXISTS (
		SELECT 1
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = c.table_schema
			AND kcu.table_name = c.table_name
			AND kcu.column_name = c.column_name
	) AS is_primary_key`

// ListColumns for PostgreSQL
func (h postgresHandler) ListColumns(ctx context.Context, db *database.DB, tableName string) ([]database.ColumnInfo, error) {
	query, args, err := h.qb.Select(
		"c.column_name",
		"c.data_type",
		"c.character_maximum_length",
		"c.numeric_precision",
		"c.numeric_scale",
		"c.is_nullable",
		primaryKeyExpr,
	).
		From("information_schema.columns c").
		Where("c.table_schema = current_schema()").
		Where(squirrel.Eq{"c.table_name": tableName}).
		OrderBy("c.ordinal_position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building columns query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying columns for table %s: %w", tableName, err)
	}
	defer rows.Close()

	var columns []database.ColumnInfo
	for rows.Next() {
		var (
			colInfo                   database.ColumnInfo
			charLen, precision, scale sql.NullInt64
			isNullable                string
		)
		if err := rows.Scan(&colInfo.Name, &colInfo.DataType, &charLen, &precision, &scale, &isNullable, &colInfo.IsPrimaryKey); err != nil {
			return nil, fmt.Errorf("error scanning column details: %w", err)
		}
		colInfo.CharLength = database.NullIntPtr(charLen)
		colInfo.NumericPrecision = database.NullIntPtr(precision)
		colInfo.NumericScale = database.NullIntPtr(scale)
		colInfo.NotNull = strings.EqualFold(isNullable, "NO")
		columns = append(columns, colInfo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column rows: %w", err)
	}

	return columns, nil
}

func init() {
	database.RegisterDialectHandler("postgres", newHandler())
	database.RegisterDialectHandler("cloudsqlpostgres", newHandler())
}
