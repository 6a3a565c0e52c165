package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"logreader/internal/resolver"
	"logreader/internal/search"
	"logreader/internal/store"
)

func archive(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	period := filepath.Join(root, "S1", "202403")
	require.NoError(t, os.MkdirAll(filepath.Join(period, "DEBUG"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(period, "S1.mlnx"), []byte("SN1 burn_in\nSN1 final\n"), 0o644))

	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	for i, name := range []string{"SN1_burn.log", "SN1_final.log"} {
		p := filepath.Join(period, "DEBUG", name)
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
		when := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, os.Chtimes(p, when, when))
	}
	return root
}

func newTestServer(t *testing.T, res resolver.Resolver) (*Server, *store.SQLiteStore) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	srv := NewServer(search.New(search.DefaultOptions()), []string{archive(t)}, res, st, zap.NewNop())
	return srv, st
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body["error"]
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := get(t, srv, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSearchWithPN(t *testing.T) {
	srv, st := newTestServer(t, nil)

	rec := get(t, srv, "/api/search?sn=SN1&pn=S1")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp searchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "SN1", resp.SN)
	assert.Equal(t, "S1", resp.PN)
	require.Len(t, resp.Candidates, 2)
	assert.Equal(t, "SN1_final.log", resp.Candidates[0].Name)
	assert.Equal(t, "SN1 final", resp.Candidates[0].Description)
	assert.Equal(t, "SN1_burn.log", resp.Candidates[1].Name)
	assert.Equal(t, "SN1 burn_in", resp.Candidates[1].Description)

	hist, err := st.RecentSearches(10)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, 2, hist[0].Results)
}

func TestSearchResolvesPN(t *testing.T) {
	srv, _ := newTestServer(t, resolver.Static("S1"))

	rec := get(t, srv, "/api/search?sn=SN1")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp searchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "S1", resp.PN)
	assert.Len(t, resp.Candidates, 2)
}

func TestSearchNoResultsIsEmptyArray(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := get(t, srv, "/api/search?sn=SN404&pn=S1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"candidates":[]`)
}

func TestSearchErrors(t *testing.T) {
	failing := resolver.Func(func(context.Context, string) (string, error) {
		return "", assert.AnError
	})

	tests := []struct {
		name   string
		res    resolver.Resolver
		target string
		code   int
	}{
		{"missing sn", nil, "/api/search?pn=S1", http.StatusBadRequest},
		{"invalid pn", nil, "/api/search?sn=SN1&pn=../etc", http.StatusBadRequest},
		{"no resolver", nil, "/api/search?sn=SN1", http.StatusServiceUnavailable},
		{"not resolved", resolver.Static(""), "/api/search?sn=SN1", http.StatusNotFound},
		{"resolver fault", failing, "/api/search?sn=SN1", http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.res)
			rec := get(t, srv, tt.target)
			assert.Equal(t, tt.code, rec.Code)
			assert.NotEmpty(t, decodeError(t, rec))
		})
	}
}

func TestResolve(t *testing.T) {
	srv, _ := newTestServer(t, resolver.Static("S7"))

	rec := get(t, srv, "/api/resolve?sn=SN7")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sn":"SN7","pn":"S7"}`, rec.Body.String())

	rec = get(t, srv, "/api/resolve")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistory(t *testing.T) {
	srv, st := newTestServer(t, nil)
	require.NoError(t, st.RecordSearch("SN1", "S1", 3))
	require.NoError(t, st.RecordSearch("SN2", "S2", 0))

	rec := get(t, srv, "/api/history?limit=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Searches []historyEntry `json:"searches"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Searches, 1)
	assert.Equal(t, "SN2", body.Searches[0].SN)

	rec = get(t, srv, "/api/history?limit=zero")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryUnavailable(t *testing.T) {
	srv := NewServer(search.New(search.DefaultOptions()), nil, nil, nil, nil)
	rec := get(t, srv, "/api/history")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	srv := NewServer(search.New(search.DefaultOptions()), nil, nil, nil, zap.New(core))

	get(t, srv, "/health")

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/health", fields["path"])
	assert.EqualValues(t, http.StatusOK, fields["status"])
}
