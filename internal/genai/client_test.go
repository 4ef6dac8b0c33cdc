package genai

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/schema"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(context.Background(), Config{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is missing")
}

func TestParseSamples(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		limit   int
		want    []string
		wantErr bool
	}{
		{
			name:  "one per line",
			text:  "Sure!\n<samples>\nHarbor View Cafe\nNorthwind, Ltd.\n</samples>",
			limit: 5,
			want:  []string{"Harbor View Cafe", "Northwind, Ltd."},
		},
		{
			name:  "markers quotes and duplicates",
			text:  "<samples>\n- \"alpha\"\n* 'beta'\n- alpha\n\n</samples>",
			limit: 5,
			want:  []string{"alpha", "beta"},
		},
		{
			name:  "limit",
			text:  "<samples>a\nb\nc</samples>",
			limit: 2,
			want:  []string{"a", "b"},
		},
		{
			name:    "missing tags",
			text:    "a\nb",
			limit:   2,
			wantErr: true,
		},
		{
			name:    "empty block",
			text:    "<samples>\n \n</samples>",
			limit:   2,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSamples(tt.text, tt.limit)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetFirstTextPart(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("<samples>x</samples>")}},
		}},
	}
	text, err := getFirstTextPart(resp)
	require.NoError(t, err)
	assert.Equal(t, "<samples>x</samples>", text)

	_, err = getFirstTextPart(nil)
	assert.Error(t, err)

	_, err = getFirstTextPart(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}})
	assert.Error(t, err)
}

func TestBuildSamplesPrompt(t *testing.T) {
	p := buildSamplesPrompt("customers", "city", "text", 4, "Retail chain in Portugal")
	assert.Contains(t, p, "Table Name: customers")
	assert.Contains(t, p, "Column Name: city")
	assert.Contains(t, p, "Produce 4 distinct values")
	assert.Contains(t, p, "Retail chain in Portugal")

	assert.NotContains(t, buildSamplesPrompt("t", "c", "text", 1, ""), "Knowledge Context")
}

type fakeClient struct {
	calls   []string
	failFor string
}

func (f *fakeClient) GenerateStringSamples(ctx context.Context, tableName, columnName, dataType string, count int) ([]string, error) {
	f.calls = append(f.calls, tableName+"."+columnName)
	if columnName == f.failFor {
		return nil, errors.New("quota exceeded")
	}
	out := make([]string, count)
	for i := range out {
		out[i] = columnName + "-sample"
	}
	return out, nil
}

func (f *fakeClient) IsAPIKeyValid(ctx context.Context) error { return nil }
func (f *fakeClient) Close() error                            { return nil }

func TestCollectSamples(t *testing.T) {
	tables := []schema.Table{{
		Name: "customers",
		Columns: []schema.Column{
			{Name: "customer_id", DataType: schema.TypeVarchar, IsPrimaryKey: true, IsJoinColumn: true},
			{Name: "name", DataType: schema.TypeVarchar},
			{Name: "city", DataType: schema.TypeText},
			{Name: "notes", DataType: schema.TypeText},
			{Name: "age", DataType: schema.TypeInt},
		},
		PKOrdering: []string{"customer_id"},
	}}
	client := &fakeClient{failFor: "notes"}

	got, err := CollectSamples(context.Background(), client, tables, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"customers.name", "customers.city", "customers.notes"}, client.calls)
	assert.Equal(t, map[string]map[string][]string{
		"customers": {
			"name": {"name-sample", "name-sample"},
			"city": {"city-sample", "city-sample"},
		},
	}, got)
}

func TestCollectSamplesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tables := []schema.Table{{Name: "t", Columns: []schema.Column{{Name: "c", DataType: schema.TypeText}}}}
	_, err := CollectSamples(ctx, &fakeClient{}, tables, 1, nil)
	assert.ErrorIs(t, err, context.Canceled)

	got, err := CollectSamples(context.Background(), nil, tables, 1, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
