package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strings"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/config"
	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/database"
)

type mysqlHandler struct {
	qb squirrel.StatementBuilderType
}

var _ database.DialectHandler = (*mysqlHandler)(nil)

func newHandler() mysqlHandler {
	return mysqlHandler{qb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)}
}

func (h mysqlHandler) CreateCloudSQLPool(cfg config.DatabaseConfig) (*sql.DB, error) {
	params := database.ResolveCloudSQLParams(cfg)
	if !params.Complete() {
		return nil, fmt.Errorf("missing required CloudSQL connection parameter (user, pass, db, instance)")
	}
	instanceConnectionName := params.Instance

	d, err := cloudsqlconn.NewDialer(context.Background())
	if err != nil {
		return nil, fmt.Errorf("cloudsqlconn.NewDialer: %w", err)
	}

	var opts []cloudsqlconn.DialOption
	if params.UsePrivateIP {
		opts = append(opts, cloudsqlconn.WithPrivateIP())
	}

	network := fmt.Sprintf("cloudsql-%s", instanceConnectionName)

	mysql.RegisterDialContext(network,
		func(ctx context.Context, addr string) (net.Conn, error) {
			conn, dialErr := d.Dial(ctx, instanceConnectionName, opts...)
			if dialErr != nil {
				zap.S().Errorf("Cloud SQL dial failed for %s: %v", instanceConnectionName, dialErr)
			}
			return conn, dialErr
		})

	mysqlCfg := mysql.Config{
		User:                 params.User,
		Passwd:               params.Password,
		Net:                  network,
		Addr:                 instanceConnectionName,
		DBName:               params.DBName,
		AllowNativePasswords: true,
		ParseTime:            true,
	}

	dbPool, err := sql.Open("mysql", mysqlCfg.FormatDSN())
	if err != nil {
		mysql.DeregisterDialContext(network)
		d.Close()
		return nil, fmt.Errorf("sql.Open failed for CloudSQL MySQL: %w", err)
	}
	return dbPool, nil
}

func (h mysqlHandler) CreateStandardPool(cfg config.DatabaseConfig) (*sql.DB, error) {
	port := cfg.Port
	if port == 0 {
		port = 3306
	}
	mysqlCfg := mysql.Config{
		User:                 cfg.User,
		Passwd:               cfg.Password,
		Net:                  "tcp",
		Addr:                 fmt.Sprintf("%s:%d", cfg.Host, port),
		DBName:               cfg.DBName,
		AllowNativePasswords: true,
		ParseTime:            true,
		MultiStatements:      false,
	}

	dbPool, err := sql.Open("mysql", mysqlCfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("sql.Open (standard mysql): %w", err)
	}
	return dbPool, nil
}

func (h mysqlHandler) QuoteIdentifier(name string) string {
	name = strings.ReplaceAll(name, "`", "``")
	return fmt.Sprintf("`%s`", name)
}

func (h mysqlHandler) ListTables(ctx context.Context, db *database.DB) ([]string, error) {
	query, args, err := h.qb.Select("TABLE_NAME").
		From("information_schema.TABLES").
		Where("TABLE_SCHEMA = DATABASE()").
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

func (h mysqlHandler) ListColumns(ctx context.Context, db *database.DB, tableName string) ([]database.ColumnInfo, error) {
	query, args, err := h.qb.Select(
		"COLUMN_NAME",
		"DATA_TYPE",
		"CHARACTER_MAXIMUM_LENGTH",
		"NUMERIC_PRECISION",
		"NUMERIC_SCALE",
		"IS_NULLABLE",
		"COLUMN_KEY",
	).
		From("information_schema.COLUMNS").
		Where("TABLE_SCHEMA = DATABASE()").
		Where(squirrel.Eq{"TABLE_NAME": tableName}).
		OrderBy("ORDINAL_POSITION").
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
			isNullable, columnKey     string
		)
		if err := rows.Scan(&colInfo.Name, &colInfo.DataType, &charLen, &precision, &scale, &isNullable, &columnKey); err != nil {
			return nil, fmt.Errorf("error scanning column details: %w", err)
		}
		colInfo.CharLength = database.NullIntPtr(charLen)
		colInfo.NumericPrecision = database.NullIntPtr(precision)
		colInfo.NumericScale = database.NullIntPtr(scale)
		colInfo.NotNull = strings.EqualFold(isNullable, "NO")
		colInfo.IsPrimaryKey = columnKey == "PRI"
		columns = append(columns, colInfo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column rows: %w", err)
	}
	return columns, nil
}

func init() {
	database.RegisterDialectHandler("mysql", newHandler())
	database.RegisterDialectHandler("cloudsqlmysql", newHandler())
}
