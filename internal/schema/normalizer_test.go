package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func ordersRecords() []Record {
	return []Record{
		{TableName: "orders", ColumnName: "order_id", DataType: "int", NotNull: "YES", IsPrimaryKey: "yes"},
		{TableName: "customers", ColumnName: "customer_id", DataType: "integer", NotNull: "yes", IsPrimaryKey: "yes"},
		{TableName: "orders", ColumnName: "customer_id", DataType: "int", NotNull: "yes", IsPrimaryKey: "True"},
		{TableName: "orders", ColumnName: "amount", DataType: "numeric", NumericPrecision: "8", NumericScale: "2", NotNull: "no", IsPrimaryKey: "no"},
		{TableName: "customers", ColumnName: "name", DataType: "character varying", CharLength: "255", NotNull: "", IsPrimaryKey: ""},
	}
}

func TestNormalize(t *testing.T) {
	tables, err := Normalize(ordersRecords())
	require.NoError(t, err)
	require.Len(t, tables, 2)

	orders := tables[0]
	assert.Equal(t, "orders", orders.Name)
	assert.Equal(t, []string{"order_id", "customer_id", "amount"}, orders.ColumnNames())
	assert.Equal(t, []string{"order_id", "customer_id"}, orders.PKOrdering)
	assert.Equal(t, TypeInt, orders.Columns[0].DataType)
	assert.True(t, orders.Columns[0].NotNull)
	assert.True(t, orders.Columns[1].IsPrimaryKey)
	assert.False(t, orders.Columns[2].IsPrimaryKey)
	assert.Equal(t, TypeNumeric, orders.Columns[2].DataType)
	assert.Equal(t, intPtr(8), orders.Columns[2].NumericPrecision)
	assert.Equal(t, intPtr(2), orders.Columns[2].NumericScale)
	assert.Nil(t, orders.Columns[2].CharLength)

	customers := tables[1]
	assert.Equal(t, "customers", customers.Name)
	assert.Equal(t, []string{"customer_id"}, customers.PKOrdering)
	assert.Equal(t, intPtr(255), customers.Columns[1].CharLength)
	assert.False(t, customers.Columns[1].NotNull)

	for _, tbl := range tables {
		for _, c := range tbl.Columns {
			assert.False(t, c.IsJoinColumn, "%s.%s", tbl.Name, c.Name)
		}
		assert.NoError(t, tbl.Validate())
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	first, err := Normalize(ordersRecords())
	require.NoError(t, err)
	second, err := Normalize(ordersRecords())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNormalizeOptionalIntegers(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want *int
	}{
		{"empty", "", nil},
		{"whitespace", "  ", nil},
		{"number", "12", intPtr(12)},
		{"padded number", " 7 ", intPtr(7)},
		{"not a number", "n/a", nil},
		{"fraction", "1.5", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tables, err := Normalize([]Record{{TableName: "t", ColumnName: "c", DataType: "numeric", NumericPrecision: tt.in}})
			require.NoError(t, err)
			assert.Equal(t, tt.want, tables[0].Columns[0].NumericPrecision)
		})
	}
}

func TestNormalizeErrors(t *testing.T) {
	tests := []struct {
		name       string
		records    []Record
		wantRecord int
		wantMsg    string
	}{
		{
			name:       "missing table name",
			records:    []Record{{TableName: "a", ColumnName: "id"}, {ColumnName: "id"}},
			wantRecord: 2,
			wantMsg:    "missing table_name",
		},
		{
			name:       "missing column name",
			records:    []Record{{TableName: "a", ColumnName: "  "}},
			wantRecord: 1,
			wantMsg:    "missing column_name",
		},
		{
			name: "duplicate column",
			records: []Record{
				{TableName: "a", ColumnName: "id"},
				{TableName: "b", ColumnName: "id"},
				{TableName: "a", ColumnName: "id"},
			},
			wantRecord: 3,
			wantMsg:    "duplicate column a.id",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tables, err := Normalize(tt.records)
			require.Error(t, err)
			assert.Nil(t, tables)
			assert.True(t, errors.Is(err, ErrMalformedSchema))

			var malformed *ErrMalformedInput
			require.True(t, errors.As(err, &malformed))
			assert.Equal(t, tt.wantRecord, malformed.Record)
			assert.Contains(t, malformed.Msg, tt.wantMsg)
		})
	}
}

func TestNormalizeRejectsInconsistentSizes(t *testing.T) {
	tests := []struct {
		name    string
		record  Record
		wantErr string
	}{
		{"negative precision", Record{TableName: "t", ColumnName: "a", DataType: "numeric", NumericPrecision: "-5", NumericScale: "2"}, "numeric_precision must not be negative"},
		{"negative scale", Record{TableName: "t", ColumnName: "a", DataType: "numeric", NumericPrecision: "5", NumericScale: "-1"}, "numeric_scale must not be negative"},
		{"scale above precision", Record{TableName: "t", ColumnName: "b", DataType: "numeric", NumericPrecision: "2", NumericScale: "5"}, "exceeds numeric_precision"},
		{"negative char length", Record{TableName: "t", ColumnName: "c", DataType: "varchar", CharLength: "-1"}, "char_length must be positive"},
		{"zero char length", Record{TableName: "t", ColumnName: "c", DataType: "varchar", CharLength: "0"}, "char_length must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := []Record{{TableName: "t", ColumnName: "id", DataType: "int", IsPrimaryKey: "yes"}, tt.record}
			tables, err := Normalize(records)
			require.Error(t, err)
			assert.Nil(t, tables)
			assert.True(t, errors.Is(err, ErrMalformedSchema))

			var malformed *ErrMalformedInput
			require.True(t, errors.As(err, &malformed))
			assert.Equal(t, 2, malformed.Record)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("scale equal to precision", func(t *testing.T) {
		tables, err := Normalize([]Record{{TableName: "t", ColumnName: "ratio", DataType: "numeric", NumericPrecision: "3", NumericScale: "3"}})
		require.NoError(t, err)
		assert.Equal(t, intPtr(3), tables[0].Columns[0].NumericScale)
	})
}

func TestIsTruthy(t *testing.T) {
	for _, v := range []string{"yes", "YES", " Yes ", "y", "true", "TRUE", "t", "1"} {
		assert.True(t, IsTruthy(v), v)
	}
	for _, v := range []string{"", "no", "false", "0", "nope", "f"} {
		assert.False(t, IsTruthy(v), v)
	}
}
