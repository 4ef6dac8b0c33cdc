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
package sqlserver

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strings"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/Masterminds/squirrel"
	mssql "github.com/denisenkom/go-mssqldb"

	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/config"
	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/database"
)

// sqlServerHandler struct implements database.DialectHandler for SQL Server.
type sqlServerHandler struct {
	qb squirrel.StatementBuilderType
}

var _ database.DialectHandler = (*sqlServerHandler)(nil)

func newHandler() sqlServerHandler {
	return sqlServerHandler{qb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.AtP)}
}

type csqlDialer struct {
	dialer     *cloudsqlconn.Dialer
	connName   string
	usePrivate bool
}

// DialContext adheres to the mssql.Dialer interface.
func (c *csqlDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	var opts []cloudsqlconn.DialOption
	if c.usePrivate {
		opts = append(opts, cloudsqlconn.WithPrivateIP())
	}
	return c.dialer.Dial(ctx, c.connName, opts...)
}

func connectionURL(user, password, host string, port int, dbName string) string {
	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(user, password),
		Host:     fmt.Sprintf("%s:%d", host, port),
		RawQuery: url.Values{"database": {dbName}}.Encode(),
	}
	return u.String()
}

// CreateCloudSQLPool for SQL Server
func (h sqlServerHandler) CreateCloudSQLPool(cfg config.DatabaseConfig) (*sql.DB, error) {
	params := database.ResolveCloudSQLParams(cfg)

	// WithLazyRefresh refreshes certificates on demand instead of on a
	// background interval.
	dialer, err := cloudsqlconn.NewDialer(context.Background(), cloudsqlconn.WithLazyRefresh())
	if err != nil {
		return nil, fmt.Errorf("cloudsqlconn.NewDialer: %w", err)
	}
	connector, err := mssql.NewConnector(connectionURL(params.User, params.Password, "localhost", 1433, params.DBName))
	if err != nil {
		return nil, fmt.Errorf("mssql.NewConnector: %w", err)
	}
	connector.Dialer = &csqlDialer{
		dialer:     dialer,
		connName:   params.Instance,
		usePrivate: params.UsePrivateIP,
	}

	return sql.OpenDB(connector), nil
}

// CreateStandardPool creates a standard SQL Server connection pool
func (h sqlServerHandler) CreateStandardPool(cfg config.DatabaseConfig) (*sql.DB, error) {
	port := cfg.Port
	if port == 0 {
		port = 1433 // Default SQL Server port
	}

	dbPool, err := sql.Open("sqlserver", connectionURL(cfg.User, cfg.Password, cfg.Host, port, cfg.DBName))
	if err != nil {
		return nil, fmt.Errorf("sql.Open (standard sqlserver): %w", err)
	}
	return dbPool, nil
}

// QuoteIdentifier for SQL Server uses square brackets.
func (h sqlServerHandler) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// ListTables for SQL Server
func (h sqlServerHandler) ListTables(ctx context.Context, db *database.DB) ([]string, error) {
	query, args, err := h.qb.Select("TABLE_NAME").
		From("INFORMATION_SCHEMA.TABLES").
		Where("TABLE_CATALOG = DB_NAME()").
		Where(squirrel.Eq{"TABLE_TYPE": "BASE TABLE"}).
		OrderBy("TABLE_NAME").
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

const primaryKeyExpr = `CASE WHEN EXISTS (
		SELECT 1
		FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
		JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
			ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
			AND tc.TABLE_SCHEMA = kcu.TABLE_SCHEMA
		WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY'
			AND kcu.TABLE_SCHEMA = c.TABLE_SCHEMA
			AND kcu.TABLE_NAME = c.TABLE_NAME
			AND kcu.COLUMN_NAME = c.COLUMN_NAME
	) THEN 1 ELSE 0 END AS IS_PRIMARY_KEY`

// ListColumns for SQL Server
func (h sqlServerHandler) ListColumns(ctx context.Context, db *database.DB, tableName string) ([]database.ColumnInfo, error) {
	query, args, err := h.qb.Select(
		"c.COLUMN_NAME",
		"c.DATA_TYPE",
		"c.CHARACTER_MAXIMUM_LENGTH",
		"c.NUMERIC_PRECISION",
		"c.NUMERIC_SCALE",
		"c.IS_NULLABLE",
		primaryKeyExpr,
	).
		From("INFORMATION_SCHEMA.COLUMNS c").
		Where("c.TABLE_CATALOG = DB_NAME()").
		Where(squirrel.Eq{"c.TABLE_NAME": tableName}).
		OrderBy("c.ORDINAL_POSITION").
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
		// varchar(max) and nvarchar(max) report -1.
		if charLen.Valid && charLen.Int64 < 0 {
			charLen.Valid = false
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
	database.RegisterDialectHandler("sqlserver", newHandler())
	database.RegisterDialectHandler("cloudsqlsqlserver", newHandler())
}
