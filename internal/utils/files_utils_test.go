package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSQLStatementsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "insert_statements.sql")
	require.NoError(t, os.WriteFile(path, []byte("INSERT INTO a (x) VALUES\n(1),\n(2);\n\nINSERT INTO b (y) VALUES\n('y_1');\n"), 0o644))

	got, err := ReadSQLStatementsFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"INSERT INTO a (x) VALUES\n(1),\n(2)", "INSERT INTO b (y) VALUES\n('y_1')"}, got)

	_, err = ReadSQLStatementsFromFile(filepath.Join(dir, "missing.sql"))
	assert.Error(t, err)
}

func TestWriteOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "nested", "insert_statements.sql")
	require.NoError(t, WriteOutputFile(path, "SELECT 1;\n"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1;\n", string(content))
}

func TestReadContextFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.md")
	b := filepath.Join(dir, "b.md")
	require.NoError(t, os.WriteFile(a, []byte("alpha"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("beta"), 0o644))

	got, err := ReadContextFiles(a + ", " + b)
	require.NoError(t, err)
	assert.Contains(t, got, "-- Context from file: "+a+" --\nalpha")
	assert.Contains(t, got, "-- Context from file: "+b+" --\nbeta")

	empty, err := ReadContextFiles("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ReadContextFiles(filepath.Join(dir, "missing.md"))
	assert.Error(t, err)
}

func TestGetDefaultOutputFilePath(t *testing.T) {
	assert.Equal(t, "sales_schema.csv", GetDefaultOutputFilePath("sales", "export-schema"))
	assert.Equal(t, "insert_statements.sql", GetDefaultOutputFilePath("sales", "generate"))
}

func TestConfirmAction(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"yes\n", true},
		{"Y\n", true},
		{"no\n", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			got := ConfirmAction(strings.NewReader(tt.input), &out, "2 INSERT statements")
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Generated 2 INSERT statements:")
		})
	}
}

func TestParseTablesFlag(t *testing.T) {
	tests := []struct {
		name    string
		flag    string
		want    map[string][]string
		wantErr bool
	}{
		{name: "empty", flag: "", want: map[string][]string{}},
		{name: "tables only", flag: "users, orders", want: map[string][]string{"users": nil, "orders": nil}},
		{
			name: "with columns",
			flag: "users[id, email],orders",
			want: map[string][]string{"users": {"id", "email"}, "orders": nil},
		},
		{name: "missing bracket", flag: "users[id,email", wantErr: true},
		{name: "missing table", flag: "[id]", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTablesFlag(tt.flag)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitOutsideBrackets(t *testing.T) {
	assert.Equal(t, []string{"a[x,y]", "b", "c[z]"}, SplitOutsideBrackets("a[x,y],b,c[z]"))
	assert.Nil(t, SplitOutsideBrackets(""))
}
