package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/oidcast/pkg/model"
	"github.com/ssargent/oidcast/pkg/objectid"
	"github.com/ssargent/oidcast/pkg/schema"
	"github.com/ssargent/oidcast/pkg/store"
)

const testAPIKey = "test-key"

// setupTestServer creates a router over an in-memory store holding a cats
// table keyed by identifier and a counters table keyed by integer.
func setupTestServer(t *testing.T) http.Handler {
	t.Helper()
	return newTestRouter(t, ServerConfig{APIKey: testAPIKey})
}

func newTestRouter(t *testing.T, config ServerConfig) http.Handler {
	t.Helper()
	s, err := store.Open(store.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	tables := []schema.Table{
		schema.Create("cats", func(b *schema.Blueprint) {
			b.ObjectID("id").Primary()
			b.String("name")
			b.ObjectID("owner_id").Nullable()
		}),
		schema.Create("counters", func(b *schema.Blueprint) {
			b.Int64("n").Primary()
			b.String("label")
		}),
	}

	metrics := NewMetrics(nil)
	var repos []*model.Repository
	for _, table := range tables {
		def, err := model.ForTable(table)
		require.NoError(t, err)
		repos = append(repos, model.NewRepository(def, s, nil, metrics))
	}

	server := NewServer(repos, config, metrics, nil)
	return server.Router()
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Key", testAPIKey)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp APIResponse
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func dataMap(t *testing.T, resp APIResponse) map[string]interface{} {
	t.Helper()
	m, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "data is %T", resp.Data)
	return m
}

func createCat(t *testing.T, h http.Handler, body string) map[string]interface{} {
	t.Helper()
	w, resp := do(t, h, "POST", "/api/v1/tables/cats/records", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return dataMap(t, resp)
}

func TestHealth(t *testing.T) {
	h := setupTestServer(t)

	w, resp := do(t, h, "GET", "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestAuthRequired(t *testing.T) {
	h := setupTestServer(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/health", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// metrics stay open for scraping
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateRecord_AssignsIdentifier(t *testing.T) {
	h := setupTestServer(t)

	cat := createCat(t, h, `{"name":"Tom"}`)
	id, ok := cat["id"].(string)
	require.True(t, ok)
	_, err := objectid.FromHex(id)
	require.NoError(t, err)
	assert.Equal(t, "Tom", cat["name"])
	assert.Nil(t, cat["owner_id"])
}

func TestCreateRecord_KeepsProvidedIdentifier(t *testing.T) {
	h := setupTestServer(t)
	id := objectid.New()
	owner := objectid.New()

	cat := createCat(t, h, `{"id":"`+id.Hex()+`","name":"Tom","owner_id":"`+owner.Hex()+`"}`)
	assert.Equal(t, id.Hex(), cat["id"])
	assert.Equal(t, owner.Hex(), cat["owner_id"])

	w, _ := do(t, h, "POST", "/api/v1/tables/cats/records", `{"id":"`+id.Hex()+`","name":"Again"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateRecord_MalformedIdentifierIsReplaced(t *testing.T) {
	h := setupTestServer(t)

	cat := createCat(t, h, `{"id":"not-an-id","name":"Tom"}`)
	id := cat["id"].(string)
	assert.NotEqual(t, "not-an-id", id)
	_, err := objectid.FromHex(id)
	assert.NoError(t, err)
}

func TestCreateRecord_BadRequests(t *testing.T) {
	h := setupTestServer(t)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"invalid json", "/api/v1/tables/cats/records", `{`, http.StatusBadRequest},
		{"unknown column", "/api/v1/tables/cats/records", `{"name":"Tom","color":"grey"}`, http.StatusBadRequest},
		{"missing required column", "/api/v1/tables/cats/records", `{}`, http.StatusBadRequest},
		{"wrong type", "/api/v1/tables/cats/records", `{"name":7}`, http.StatusBadRequest},
		{"unknown table", "/api/v1/tables/dogs/records", `{"name":"Rex"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := do(t, h, "POST", tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestGetRecord(t *testing.T) {
	h := setupTestServer(t)
	cat := createCat(t, h, `{"name":"Tom"}`)
	id := cat["id"].(string)

	w, resp := do(t, h, "GET", "/api/v1/tables/cats/records/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Tom", dataMap(t, resp)["name"])

	w, _ = do(t, h, "GET", "/api/v1/tables/cats/records/"+objectid.New().Hex(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, h, "GET", "/api/v1/tables/cats/records/garbage", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIntegerKeyedTable(t *testing.T) {
	h := setupTestServer(t)

	w, _ := do(t, h, "POST", "/api/v1/tables/counters/records", `{"n":5,"label":"five"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, resp := do(t, h, "GET", "/api/v1/tables/counters/records/5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "five", dataMap(t, resp)["label"])

	w, _ = do(t, h, "POST", "/api/v1/tables/counters/records", `{"label":"no key"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuery(t *testing.T) {
	h := setupTestServer(t)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ids := make([]string, 3)
	for i := range ids {
		ids[i] = objectid.FromTime(base.Add(time.Duration(i) * time.Hour)).Hex()
		createCat(t, h, `{"id":"`+ids[i]+`","name":"cat`+string(rune('a'+i))+`"}`)
	}

	query := func(body string) QueryResponse {
		t.Helper()
		w, _ := do(t, h, "POST", "/api/v1/tables/cats/query", body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var out struct {
			Data QueryResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		return out.Data
	}

	t.Run("equality", func(t *testing.T) {
		res := query(`{"where":[{"column":"id","op":"=","value":"` + ids[1] + `"}]}`)
		require.Equal(t, 1, res.Count)
		assert.Equal(t, "catb", res.Records[0]["name"])
	})

	t.Run("greater than is byte ordered", func(t *testing.T) {
		res := query(`{"where":[{"column":"id","op":">","value":"` + ids[0] + `"}]}`)
		require.Equal(t, 2, res.Count)
		assert.Equal(t, ids[1], res.Records[0]["id"])
		assert.Equal(t, ids[2], res.Records[1]["id"])
	})

	t.Run("range", func(t *testing.T) {
		res := query(`{"where":[{"column":"id","op":">=","value":"` + ids[1] + `"},{"column":"id","op":"<","value":"` + ids[2] + `"}]}`)
		require.Equal(t, 1, res.Count)
		assert.Equal(t, ids[1], res.Records[0]["id"])
	})

	t.Run("in", func(t *testing.T) {
		res := query(`{"where":[{"column":"id","op":"in","values":["` + ids[0] + `","` + ids[2] + `","bogus"]}]}`)
		assert.Equal(t, 2, res.Count)
	})

	t.Run("non identifier text matches nothing", func(t *testing.T) {
		res := query(`{"where":[{"column":"id","op":"=","value":"hello"}]}`)
		assert.Equal(t, 0, res.Count)
		assert.NotNil(t, res.Records)
	})

	t.Run("other columns", func(t *testing.T) {
		res := query(`{"where":[{"column":"name","op":">=","value":"catb"}]}`)
		assert.Equal(t, 2, res.Count)
	})
}

func TestQuery_BadRequests(t *testing.T) {
	h := setupTestServer(t)

	for _, body := range []string{
		`{"where":[{"column":"id","op":"~","value":"x"}]}`,
		`{"where":[{"column":"color","op":"=","value":"grey"}]}`,
		`not json`,
	} {
		w, _ := do(t, h, "POST", "/api/v1/tables/cats/query", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestNormalize(t *testing.T) {
	h := setupTestServer(t)
	id := objectid.New()

	w, resp := do(t, h, "GET", "/api/v1/normalize?value="+id.Hex(), "")
	require.Equal(t, http.StatusOK, w.Code)
	data := dataMap(t, resp)
	assert.Equal(t, "binary", data["kind"])
	assert.Equal(t, id.Hex(), data["binary"])

	_, resp = do(t, h, "GET", "/api/v1/normalize?value=hello", "")
	data = dataMap(t, resp)
	assert.Equal(t, "passthrough", data["kind"])
	assert.Equal(t, "hello", data["input"])
	assert.Nil(t, data["binary"])

	w, _ = do(t, h, "GET", "/api/v1/normalize", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteAndStats(t *testing.T) {
	h := setupTestServer(t)
	first := createCat(t, h, `{"name":"Tom"}`)
	createCat(t, h, `{"name":"Felix"}`)

	w, resp := do(t, h, "GET", "/api/v1/tables/cats/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, dataMap(t, resp)["rows"])

	path := "/api/v1/tables/cats/records/" + first["id"].(string)
	w, _ = do(t, h, "DELETE", path, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, h, "DELETE", path, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	_, resp = do(t, h, "GET", "/api/v1/tables/cats/stats", "")
	assert.EqualValues(t, 1, dataMap(t, resp)["rows"])
}

func TestListTables(t *testing.T) {
	h := setupTestServer(t)

	w, resp := do(t, h, "GET", "/api/v1/tables", "")
	require.Equal(t, http.StatusOK, w.Code)
	tables, ok := resp.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, tables, 2)
	cats := tables[0].(map[string]interface{})
	assert.Equal(t, "cats", cats["name"])
	assert.Equal(t, "id", cats["primary"])
	assert.Contains(t, cats["ddl"], "BINARY(12)")
}

func TestMetricsExposed(t *testing.T) {
	h := setupTestServer(t)
	createCat(t, h, `{"name":"Tom"}`)
	do(t, h, "GET", "/api/v1/normalize?value=hello", "")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	body := w.Body.String()
	assert.Contains(t, body, "oidcast_http_requests_total")
	assert.Contains(t, body, `oidcast_db_operations_total{operation="create",status="success"} 1`)
	assert.Contains(t, body, `oidcast_normalize_total{kind="passthrough"} 1`)
	assert.Contains(t, body, `oidcast_auth_requests_total{status="success"}`)
}
