package schema

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRecords(t *testing.T) {
	input := "Table_Name,column_name,data_type,char_length,numeric_precision,numeric_scale,not_null,is_primary_key\n" +
		"orders,order_id,integer,,32,0,YES,YES\n" +
		"\n" +
		"orders,amount,numeric,,8,2,NO,NO\n" +
		",,,,,,,\n" +
		"customers,email,character varying,255,,,YES,NO\n"

	records, err := ReadRecords(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, Record{
		TableName:        "orders",
		ColumnName:       "amount",
		DataType:         "numeric",
		NumericPrecision: "8",
		NumericScale:     "2",
		NotNull:          "NO",
		IsPrimaryKey:     "NO",
	}, records[1])
	assert.Equal(t, "255", records[2].CharLength)
}

func TestReadRecordsToleratesMissingOptionalColumns(t *testing.T) {
	records, err := ReadRecords(strings.NewReader("column_name,table_name\nid,users\n"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "users", records[0].TableName)
	assert.Equal(t, "id", records[0].ColumnName)
	assert.Empty(t, records[0].DataType)
}

func TestReadRecordsErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"empty input", "", "schema csv is empty"},
		{"missing table_name header", "column_name,data_type\nid,int\n", `"table_name"`},
		{"missing column_name header", "table_name\nusers\n", `"column_name"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRecords(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWriteRecordsRoundTripsThroughNormalize(t *testing.T) {
	records := []Record{
		{TableName: "orders", ColumnName: "order_id", DataType: "integer", NumericPrecision: "32", NumericScale: "0", NotNull: "YES", IsPrimaryKey: "YES"},
		{TableName: "orders", ColumnName: "note", DataType: "text", NotNull: "NO", IsPrimaryKey: "NO"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, records))
	assert.True(t, strings.HasPrefix(buf.String(), strings.Join(CSVHeader, ",")+"\n"))

	read, err := ReadRecords(&buf)
	require.NoError(t, err)
	assert.Equal(t, records, read)

	tables, err := Normalize(read)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, []string{"order_id"}, tables[0].PKOrdering)
}
