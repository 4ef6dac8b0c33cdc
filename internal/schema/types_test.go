package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDataType(t *testing.T) {
	tests := []struct {
		in   string
		want DataType
	}{
		{"character varying", TypeVarchar},
		{"VARCHAR", TypeVarchar},
		{"text", TypeText},
		{"int", TypeInt},
		{"INTEGER", TypeInt},
		{"int4", TypeInt},
		{"bool", TypeBool},
		{"boolean", TypeBool},
		{"decimal", TypeNumeric},
		{"numeric", TypeNumeric},
		{"timestamptz", TypeTimestampTZ},
		{"Timestamp With Time Zone", TypeTimestampTZ},
		{" uuid ", DataType("uuid")},
		{"jsonb", DataType("jsonb")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := NormalizeDataType(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Known(), got.Known())
		})
	}
	assert.False(t, DataType("uuid").Known())
}

func TestTableValidate(t *testing.T) {
	tests := []struct {
		name    string
		table   Table
		wantErr string
	}{
		{
			name: "valid",
			table: Table{
				Name:       "orders",
				Columns:    []Column{{Name: "id", IsPrimaryKey: true}, {Name: "note"}},
				PKOrdering: []string{"id"},
			},
		},
		{
			name:    "empty name",
			table:   Table{Columns: []Column{{Name: "id"}}},
			wantErr: "table name is empty",
		},
		{
			name:    "no columns",
			table:   Table{Name: "t"},
			wantErr: "has no columns",
		},
		{
			name:    "duplicate column",
			table:   Table{Name: "t", Columns: []Column{{Name: "a"}, {Name: "a"}}},
			wantErr: "more than once",
		},
		{
			name:    "negative precision",
			table:   Table{Name: "t", Columns: []Column{{Name: "a", NumericPrecision: intPtr(-5), NumericScale: intPtr(2)}}},
			wantErr: "column a: numeric_precision must not be negative",
		},
		{
			name:    "scale above precision",
			table:   Table{Name: "t", Columns: []Column{{Name: "a", NumericPrecision: intPtr(2), NumericScale: intPtr(5)}}},
			wantErr: "exceeds numeric_precision",
		},
		{
			name:    "non positive char length",
			table:   Table{Name: "t", Columns: []Column{{Name: "a", CharLength: intPtr(-1)}}},
			wantErr: "char_length must be positive",
		},
		{
			name:    "ordering references unknown column",
			table:   Table{Name: "t", Columns: []Column{{Name: "a"}}, PKOrdering: []string{"b"}},
			wantErr: "unknown column b",
		},
		{
			name:    "ordering references non key column",
			table:   Table{Name: "t", Columns: []Column{{Name: "a"}}, PKOrdering: []string{"a"}},
			wantErr: "not marked as primary key",
		},
		{
			name:    "primary key missing from ordering",
			table:   Table{Name: "t", Columns: []Column{{Name: "a", IsPrimaryKey: true}}},
			wantErr: "missing from the primary key ordering",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMarkJoinColumns(t *testing.T) {
	tables := []Table{
		{Name: "orders", Columns: []Column{{Name: "order_id"}, {Name: "customer_id"}}},
		{Name: "customers", Columns: []Column{{Name: "customer_id"}, {Name: "Customer_ID"}}},
	}
	MarkJoinColumns(tables, []JoinColumn{{ColumnName: "customer_id", Setting: SettingUseAll}})

	assert.False(t, tables[0].Columns[0].IsJoinColumn)
	assert.True(t, tables[0].Columns[1].IsJoinColumn)
	assert.True(t, tables[1].Columns[0].IsJoinColumn)
	assert.False(t, tables[1].Columns[1].IsJoinColumn, "matching is exact")
}

func TestSortByNameLeavesInputUntouched(t *testing.T) {
	tables := []Table{{Name: "orders"}, {Name: "accounts"}, {Name: "customers"}}
	sorted := SortByName(tables)

	assert.Equal(t, []string{"accounts", "customers", "orders"}, []string{sorted[0].Name, sorted[1].Name, sorted[2].Name})
	assert.Equal(t, "orders", tables[0].Name)
}

func TestTableCloneIsDeep(t *testing.T) {
	p := 5
	orig := Table{Name: "t", Columns: []Column{{Name: "a", NumericPrecision: &p, IsPrimaryKey: true}}, PKOrdering: []string{"a"}}
	clone := orig.Clone()

	*clone.Columns[0].NumericPrecision = 9
	clone.Columns[0].Name = "b"
	clone.PKOrdering[0] = "b"

	assert.Equal(t, 5, *orig.Columns[0].NumericPrecision)
	assert.Equal(t, "a", orig.Columns[0].Name)
	assert.Equal(t, []string{"a"}, orig.PKOrdering)
}

func TestJoinSetting(t *testing.T) {
	assert.True(t, SettingUseAll.Valid())
	assert.True(t, SettingRandomFromList.UsesValues())
	assert.False(t, SettingRandomGenerated.UsesValues())
	assert.False(t, JoinSetting("sometimes").Valid())
}
