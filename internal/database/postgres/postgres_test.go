package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/config"
	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/database"
)

// Helper to create a mock DB and handler for testing
func newMockPostgresDB(t *testing.T) (*database.DB, sqlmock.Sqlmock, *postgresHandler) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}

	handler := newHandler()
	db := &database.DB{
		Pool:    mockDb,
		Handler: &handler,
		Config:  config.DatabaseConfig{Dialect: "postgres"},
	}
	return db, mock, &handler
}

func TestPostgresQuoteIdentifier(t *testing.T) {
	handler := newHandler()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Simple name", "mytable", `"mytable"`},
		{"Name with spaces", "my table", `"my table"`},
		{"Name with quotes", `my"table`, `"my""table"`},
		{"Empty name", "", `""`},
		{"Keyword", "user", `"user"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := handler.QuoteIdentifier(tt.in); got != tt.want {
				t.Errorf("QuoteIdentifier() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPostgresListTables(t *testing.T) {
	db, mock, handler := newMockPostgresDB(t)
	defer db.Close()
	ctx := context.Background()

	expectedQuery := `SELECT table_name FROM information_schema\.tables WHERE table_schema = current_schema\(\)`

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"table_name"}).
			AddRow("users").
			AddRow("products")
		mock.ExpectQuery(expectedQuery).WithArgs("BASE TABLE").WillReturnRows(rows)

		tables, err := handler.ListTables(ctx, db)
		if err != nil {
			t.Fatalf("ListTables() unexpected error: %v", err)
		}

		if len(tables) != 2 || tables[0] != "users" || tables[1] != "products" {
			t.Errorf("ListTables() got %v, want [users products]", tables)
		}
	})

	t.Run("Query Error", func(t *testing.T) {
		dbError := errors.New("connection failed")
		mock.ExpectQuery(expectedQuery).WithArgs("BASE TABLE").WillReturnError(dbError)

		_, err := handler.ListTables(ctx, db)
		if err == nil {
			t.Fatalf("ListTables() expected error, got nil")
		}
		if !errors.Is(err, dbError) {
			t.Errorf("ListTables() got error %v, want error containing %v", err, dbError)
		}
	})

	t.Run("Scan Error", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"table_name"}).
			AddRow("users").
			AddRow(nil)
		mock.ExpectQuery(expectedQuery).WithArgs("BASE TABLE").WillReturnRows(rows)

		_, err := handler.ListTables(ctx, db)
		if err == nil {
			t.Fatalf("ListTables() expected scan error, got nil")
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestPostgresListColumns(t *testing.T) {
	db, mock, handler := newMockPostgresDB(t)
	defer db.Close()
	ctx := context.Background()
	tableName := "orders"

	expectedQuery := `FROM information_schema\.columns c WHERE c\.table_schema = current_schema\(\)`
	columns := []string{"column_name", "data_type", "character_maximum_length", "numeric_precision", "numeric_scale", "is_nullable", "is_primary_key"}

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows(columns).
			AddRow("order_id", "integer", nil, 32, 0, "NO", true).
			AddRow("note", "character varying", 120, nil, nil, "YES", false).
			AddRow("amount", "numeric", nil, 8, 2, "YES", false)
		mock.ExpectQuery(expectedQuery).WithArgs(tableName).WillReturnRows(rows)

		cols, err := handler.ListColumns(ctx, db, tableName)
		if err != nil {
			t.Fatalf("ListColumns() unexpected error: %v", err)
		}
		if len(cols) != 3 {
			t.Fatalf("ListColumns() got %d columns, want 3", len(cols))
		}

		if cols[0].Name != "order_id" || !cols[0].IsPrimaryKey || !cols[0].NotNull || cols[0].CharLength != nil {
			t.Errorf("ListColumns() col 0 got %+v", cols[0])
		}
		if cols[1].CharLength == nil || *cols[1].CharLength != 120 || cols[1].NotNull || cols[1].NumericPrecision != nil {
			t.Errorf("ListColumns() col 1 got %+v", cols[1])
		}
		if *cols[2].NumericPrecision != 8 || *cols[2].NumericScale != 2 {
			t.Errorf("ListColumns() col 2 got %+v", cols[2])
		}

		rec := cols[2].Record(tableName)
		if rec.NumericPrecision != "8" || rec.NumericScale != "2" || rec.IsPrimaryKey != "NO" || rec.CharLength != "" {
			t.Errorf("Record() got %+v", rec)
		}
	})

	t.Run("Query Error", func(t *testing.T) {
		dbError := errors.New("table not found")
		mock.ExpectQuery(expectedQuery).WithArgs(tableName).WillReturnError(dbError)

		_, err := handler.ListColumns(ctx, db, tableName)
		if err == nil {
			t.Fatalf("ListColumns() expected error, got nil")
		}
		if !errors.Is(err, dbError) {
			t.Errorf("ListColumns() got error %v, want error containing %v", err, dbError)
		}
	})

	t.Run("Scan Error", func(t *testing.T) {
		rows := sqlmock.NewRows(columns).AddRow("id", "integer", nil, nil, nil, "NO", "not-a-bool")
		mock.ExpectQuery(expectedQuery).WithArgs(tableName).WillReturnRows(rows)

		_, err := handler.ListColumns(ctx, db, tableName)
		if err == nil {
			t.Fatalf("ListColumns() expected scan error, got nil")
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestPostgresExportRecords(t *testing.T) {
	db, mock, _ := newMockPostgresDB(t)
	defer db.Close()

	mock.ExpectQuery(`FROM information_schema\.tables`).WithArgs("BASE TABLE").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("audit").AddRow("users"))
	mock.ExpectQuery(`FROM information_schema\.columns c`).WithArgs("users").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "character_maximum_length", "numeric_precision", "numeric_scale", "is_nullable", "is_primary_key"}).
			AddRow("id", "integer", nil, 32, 0, "NO", true).
			AddRow("email", "text", nil, nil, nil, "YES", false))

	records, err := db.ExportRecords(context.Background(), map[string][]string{"users": nil})
	if err != nil {
		t.Fatalf("ExportRecords() unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("ExportRecords() got %d records, want 2", len(records))
	}
	if records[0].TableName != "users" || records[0].IsPrimaryKey != "YES" || records[0].NotNull != "YES" {
		t.Errorf("ExportRecords() record 0 got %+v", records[0])
	}
	if records[1].ColumnName != "email" || records[1].DataType != "text" {
		t.Errorf("ExportRecords() record 1 got %+v", records[1])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestPostgresRegistration(t *testing.T) {
	for _, dialect := range []string{"postgres", "cloudsqlpostgres"} {
		if _, err := database.GetDialectHandler(dialect); err != nil {
			t.Errorf("GetDialectHandler(%q) unexpected error: %v", dialect, err)
		}
	}
}
