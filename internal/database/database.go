package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/config"
	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/schema"
)

// DBAdapter defines the database operations used by the commands.
type DBAdapter interface {
	ListTables(ctx context.Context) ([]string, error)
	ListColumns(ctx context.Context, tableName string) ([]ColumnInfo, error)
	ExportRecords(ctx context.Context, filter map[string][]string) ([]schema.Record, error)
	ExecuteSQLStatements(ctx context.Context, sqlStatements []string) error
	Ping(ctx context.Context) error
	Close() error
	GetConfig() config.DatabaseConfig
}

var _ DBAdapter = (*DB)(nil)

// DB holds the database connection pool and dialect handler.
type DB struct {
	Pool    *sql.DB
	Handler DialectHandler
	Config  config.DatabaseConfig
	Retry   RetryOptions
}

// ColumnInfo holds the metadata of a database column needed to build a
// schema record.
type ColumnInfo struct {
	Name             string
	DataType         string
	CharLength       *int
	NumericPrecision *int
	NumericScale     *int
	NotNull          bool
	IsPrimaryKey     bool
}

// Record converts the column into a schema record of tableName.
func (c ColumnInfo) Record(tableName string) schema.Record {
	return schema.Record{
		TableName:        tableName,
		ColumnName:       c.Name,
		DataType:         c.DataType,
		CharLength:       formatOptionalInt(c.CharLength),
		NumericPrecision: formatOptionalInt(c.NumericPrecision),
		NumericScale:     formatOptionalInt(c.NumericScale),
		NotNull:          yesNo(c.NotNull),
		IsPrimaryKey:     yesNo(c.IsPrimaryKey),
	}
}

func formatOptionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

// NullIntPtr converts a scanned nullable integer into an optional int.
func NullIntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

var (
	dialectHandlers = make(map[string]DialectHandler)
	mu              sync.RWMutex
)

func RegisterDialectHandler(dialect string, handler DialectHandler) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := dialectHandlers[dialect]; exists {
		zap.S().Warnf("Dialect handler for '%s' is being overwritten.", dialect)
	}
	dialectHandlers[dialect] = handler
}

func GetDialectHandler(dialect string) (DialectHandler, error) {
	mu.RLock()
	defer mu.RUnlock()
	handler, ok := dialectHandlers[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported database dialect: %s", dialect)
	}
	return handler, nil
}

// New opens a pool for cfg and pings it, retrying transient connection
// failures.
func New(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	handler, err := GetDialectHandler(cfg.Dialect)
	if err != nil {
		return nil, err
	}

	var pool *sql.DB
	if strings.HasPrefix(cfg.Dialect, "cloudsql") {
		pool, err = handler.CreateCloudSQLPool(cfg)
	} else {
		pool, err = handler.CreateStandardPool(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool for dialect %s: %w", cfg.Dialect, err)
	}

	db := &DB{
		Pool:    pool,
		Handler: handler,
		Config:  cfg,
		Retry:   DefaultRetryOptions,
	}
	_, err = withRetry(ctx, db.Retry, func(ctx context.Context) (struct{}, error) {
		if pingErr := pool.PingContext(ctx); pingErr != nil {
			return struct{}{}, &ErrDatabaseConnection{Msg: "ping failed for dialect " + cfg.Dialect, Err: pingErr}
		}
		return struct{}{}, nil
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func (db *DB) GetConfig() config.DatabaseConfig {
	return db.Config
}

func (db *DB) Ping(ctx context.Context) error {
	if db.Pool == nil {
		return fmt.Errorf("database connection pool is not initialized")
	}
	return db.Pool.PingContext(ctx)
}

func (db *DB) Close() error {
	if db.Pool != nil {
		return db.Pool.Close()
	}
	zap.L().Warn("Attempted to close a nil database connection pool.")
	return nil
}

// QueryContext runs a query on the pool. Dialect handlers use it for
// metadata queries.
func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	if db.Pool == nil {
		return nil, fmt.Errorf("database connection pool is not initialized")
	}
	return db.Pool.QueryContext(ctx, query, args...)
}

func (db *DB) ListTables(ctx context.Context) ([]string, error) {
	if db.Handler == nil {
		return nil, fmt.Errorf("dialect handler not initialized")
	}
	return db.Handler.ListTables(ctx, db)
}

func (db *DB) ListColumns(ctx context.Context, tableName string) ([]ColumnInfo, error) {
	if db.Handler == nil {
		return nil, fmt.Errorf("dialect handler not initialized")
	}
	return db.Handler.ListColumns(ctx, db, tableName)
}

// ExportRecords reads the column metadata of every table as schema records.
// A non-empty filter restricts the export to its tables, and to the listed
// columns of a table when the list is not empty.
func (db *DB) ExportRecords(ctx context.Context, filter map[string][]string) ([]schema.Record, error) {
	tables, err := db.ListTables(ctx)
	if err != nil {
		return nil, &ErrQueryExecution{Msg: "failed to list tables", Err: err}
	}

	var records []schema.Record
	for _, table := range tables {
		wanted, ok := filter[table]
		if len(filter) > 0 && !ok {
			continue
		}
		columns, err := withRetry(ctx, db.Retry, func(ctx context.Context) ([]ColumnInfo, error) {
			cols, err := db.ListColumns(ctx, table)
			if err != nil {
				return nil, &ErrQueryExecution{Msg: "failed to list columns of " + table, Err: err}
			}
			return cols, nil
		})
		if err != nil {
			return nil, err
		}

		keep := make(map[string]bool, len(wanted))
		for _, c := range wanted {
			keep[c] = true
		}
		for _, col := range columns {
			if len(keep) > 0 && !keep[col.Name] {
				continue
			}
			records = append(records, col.Record(table))
		}
		zap.L().Debug("exported table", zap.String("table", table), zap.Int("columns", len(columns)))
	}
	return records, nil
}

// ExecuteSQLStatements runs the statements in a single transaction.
func (db *DB) ExecuteSQLStatements(ctx context.Context, sqlStatements []string) error {
	if db.Pool == nil {
		return fmt.Errorf("database connection pool is not initialized")
	}
	if len(sqlStatements) == 0 {
		zap.L().Info("No SQL statements provided to ExecuteSQLStatements.")
		return nil
	}

	tx, err := db.Pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range sqlStatements {
		trimmedStmt := strings.TrimSpace(stmt)
		if trimmedStmt == "" {
			continue
		}
		if _, err = tx.ExecContext(ctx, trimmedStmt); err != nil {
			zap.L().Error("failed executing statement",
				zap.Int("statement", i+1),
				zap.String("sql", trimmedStmt),
				zap.Error(err))
			return fmt.Errorf("failed executing statement #%d: %w", i+1, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DialectHandler implements the dialect specific parts of the database layer.
type DialectHandler interface {
	CreateCloudSQLPool(cfg config.DatabaseConfig) (*sql.DB, error)
	CreateStandardPool(cfg config.DatabaseConfig) (*sql.DB, error)
	QuoteIdentifier(name string) string
	ListTables(ctx context.Context, db *DB) ([]string, error)
	ListColumns(ctx context.Context, db *DB, tableName string) ([]ColumnInfo, error)
}
