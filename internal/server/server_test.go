package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/config"
	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/generator"
	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/schema"
	"github.com/GoogleCloudPlatform/db-dummy-data-generator/internal/workspace"
)

const ordersCSV = `table_name,column_name,data_type,char_length,numeric_precision,numeric_scale,not_null,is_primary_key
orders,order_id,integer,,,,YES,YES
orders,customer_id,character varying,36,,,YES,YES
orders,note,text,,,,NO,NO
`

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestServer(t *testing.T) (*Server, *workspace.Workspace) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ws := workspace.New(zap.NewNop())
	cfg := config.GetConfig().Server
	return New(cfg, ws, generator.Config{PlaceholderCount: 10}, zap.NewNop()), ws
}

func do(t *testing.T, s *Server, method, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", decode(t, rec).Status)
}

func TestGenerateFlow(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/join-columns",
		[]byte(`{"column_name":"customer_id","setting":"use_all","values":["c1","c2"]}`), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var jc schema.JoinColumn
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &jc))
	assert.NotEmpty(t, jc.ID)

	rec = do(t, s, http.MethodPost, "/api/v1/tables/import", []byte(ordersCSV), "text/csv")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tables []schema.Table
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &tables))
	require.Len(t, tables, 1)
	customer, ok := tables[0].Column("customer_id")
	require.True(t, ok)
	assert.True(t, customer.IsPrimaryKeyJoin())

	rec = do(t, s, http.MethodPost, "/api/v1/generate?seed=7", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/sql", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "insert_statements.sql")
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "INSERT INTO orders (order_id, customer_id, note) VALUES\n"), body)
	assert.Contains(t, body, "'c1'")
	assert.Contains(t, body, "'c2'")

	rec = do(t, s, http.MethodPost, "/api/v1/generate?format=json", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary struct {
		SQL    string                  `json:"sql"`
		Tables []generator.TableResult `json:"tables"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &summary))
	require.Len(t, summary.Tables, 1)
	assert.Equal(t, 2, summary.Tables[0].Rows)
	assert.Contains(t, summary.SQL, "INSERT INTO orders")

	rec = do(t, s, http.MethodPost, "/api/v1/generate?seed=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateWithoutTables(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/v1/generate", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "error", decode(t, rec).Status)
}

func TestImportMultipartAndJSON(t *testing.T) {
	s, ws := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "schema.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(ordersCSV))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := do(t, s, http.MethodPost, "/api/v1/tables/import", buf.Bytes(), mw.FormDataContentType())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, ws.Tables(), 1)

	records := `[{"table_name":"users","column_name":"id","data_type":"int","is_primary_key":"yes"}]`
	rec = do(t, s, http.MethodPost, "/api/v1/tables/import", []byte(records), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tables := ws.Tables()
	require.Len(t, tables, 1)
	assert.Equal(t, "users", tables[0].Name)

	rec = do(t, s, http.MethodPost, "/api/v1/tables/import", []byte("not,a\nschema"), "text/csv")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTableEndpoints(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/v1/tables/import", []byte(ordersCSV), "text/csv")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/tables/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/v1/tables/orders/primary-keys/order_id", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var table schema.Table
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &table))
	assert.Equal(t, []string{"customer_id"}, table.PKOrdering)

	rec = do(t, s, http.MethodPost, "/api/v1/tables/orders/primary-keys/order_id", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &table))
	assert.Equal(t, []string{"customer_id", "order_id"}, table.PKOrdering)

	rec = do(t, s, http.MethodPost, "/api/v1/tables/orders/join-columns/note/toggle", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &table))
	note, _ := table.Column("note")
	assert.True(t, note.IsJoinColumn)

	rec = do(t, s, http.MethodPost, "/api/v1/tables/orders/join-columns/nope/toggle", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	update := `{"table_name":"orders","columns":[{"column_name":"order_id","data_type":"integer","is_primary_key":true}],"pk_ordering":["order_id"]}`
	rec = do(t, s, http.MethodPut, "/api/v1/tables/orders", []byte(update), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodPut, "/api/v1/tables/other", []byte(update), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	broken := `{"columns":[{"column_name":"order_id","data_type":"integer"}],"pk_ordering":["order_id"]}`
	rec = do(t, s, http.MethodPut, "/api/v1/tables/orders", []byte(broken), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJoinColumnEndpoints(t *testing.T) {
	s, ws := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/join-columns", []byte(`{"column_name":"  "}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	jc, err := ws.AddJoinColumn(schema.JoinColumn{ColumnName: "tenant_id"})
	require.NoError(t, err)

	rec = do(t, s, http.MethodPatch, "/api/v1/join-columns/"+jc.ID,
		[]byte(`{"setting":"random_from_list","values":["t1","t2"]}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated schema.JoinColumn
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &updated))
	assert.Equal(t, schema.SettingRandomFromList, updated.Setting)
	assert.Equal(t, []string{"t1", "t2"}, updated.Values)

	rec = do(t, s, http.MethodPatch, "/api/v1/join-columns/"+jc.ID, []byte(`{"setting":"sometimes"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/join-columns/export", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "column_name: tenant_id")

	rec = do(t, s, http.MethodPut, "/api/v1/join-columns",
		[]byte(`[{"column_name":"a"},{"column_name":"b","setting":"use_all","values":["x"]}]`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, ws.JoinColumns(), 2)

	rec = do(t, s, http.MethodDelete, "/api/v1/join-columns/"+jc.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/join-columns", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []schema.JoinColumn
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &listed))
	require.Len(t, listed, 2)

	rec = do(t, s, http.MethodDelete, "/api/v1/join-columns/"+listed[0].ID, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, ws.JoinColumns(), 1)
}

func TestCORS(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/tables", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRunShutsDownOnCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.ServerConfig{Host: "127.0.0.1", Port: 0, ShutdownTimeout: time.Second}
	s := New(cfg, workspace.New(nil), generator.Config{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
