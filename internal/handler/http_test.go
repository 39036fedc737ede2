package handler

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MikhailRaia/shortlinks/internal/auth"
	"github.com/MikhailRaia/shortlinks/internal/metrics"
	"github.com/MikhailRaia/shortlinks/internal/service"
	"github.com/MikhailRaia/shortlinks/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	handler http.Handler
	table   *auth.TokenTable
}

func newTestEnv(t *testing.T, users UserService, trusted ...string) *testEnv {
	t.Helper()

	table := auth.NewTokenTable()
	require.NoError(t, table.Register("cred_A", "alice"))
	require.NoError(t, table.Register("cred_B", "bob"))

	shortener := service.NewShortenerService(memory.NewStorage(), table, service.DefaultOptions())
	h := NewHandler(shortener, users, table, trusted)

	return &testEnv{handler: h.RegisterRoutes(), table: table}
}

func (e *testEnv) do(t *testing.T, method, target, credential, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if credential != "" {
		req.Header.Set("Authorization", credential)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) create(t *testing.T, credential, body string) string {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/", credential, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp createResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.ID
}

func TestHandler_Create(t *testing.T) {
	tests := []struct {
		name       string
		credential string
		body       string
		wantStatus int
		wantIDLen  int
	}{
		{name: "default length", credential: "cred_A", body: `{"value":"https://example.com"}`, wantStatus: http.StatusCreated, wantIDLen: 5},
		{name: "custom length", credential: "Bearer cred_A", body: `{"value":"https://example.com/a","length":8}`, wantStatus: http.StatusCreated, wantIDLen: 8},
		{name: "missing credential", body: `{"value":"https://example.com"}`, wantStatus: http.StatusForbidden},
		{name: "unknown credential", credential: "cred_X", body: `{"value":"https://example.com"}`, wantStatus: http.StatusForbidden},
		{name: "invalid url", credential: "cred_A", body: `{"value":"not a url"}`, wantStatus: http.StatusBadRequest},
		{name: "missing value", credential: "cred_A", body: `{"length":5}`, wantStatus: http.StatusBadRequest},
		{name: "zero length", credential: "cred_A", body: `{"value":"https://example.com","length":0}`, wantStatus: http.StatusBadRequest},
		{name: "too long", credential: "cred_A", body: `{"value":"https://example.com","length":44}`, wantStatus: http.StatusBadRequest},
		{name: "malformed json", credential: "cred_A", body: `{"value":`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			rec := env.do(t, http.MethodPost, "/", tt.credential, tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusCreated {
				return
			}

			var resp createResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Len(t, resp.ID, tt.wantIDLen)
		})
	}
}

func TestHandler_Create_Forbidden_Body(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/", "", `{"value":"https://example.com"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"value":"forbidden"}`, rec.Body.String())
}

func TestHandler_Read(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.create(t, "cred_A", `{"value":"https://example.com/page"}`)

	rec := env.do(t, http.MethodGet, "/"+id, "", "")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "https://example.com/page", rec.Header().Get("Location"))
	assert.JSONEq(t, `{"value":"https://example.com/page"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/zzzzz", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Update(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.create(t, "cred_A", `{"value":"https://example.com"}`)

	tests := []struct {
		name       string
		id         string
		credential string
		body       string
		wantStatus int
	}{
		{name: "missing credential", id: id, body: `{"url":"https://example.org"}`, wantStatus: http.StatusForbidden},
		{name: "unknown id", id: "zzzzz", credential: "cred_A", body: `{"url":"https://example.org"}`, wantStatus: http.StatusNotFound},
		{name: "unknown id beats invalid url", id: "zzzzz", credential: "cred_A", body: `{"url":"not a url"}`, wantStatus: http.StatusNotFound},
		{name: "invalid url", id: id, credential: "cred_A", body: `{"url":"not a url"}`, wantStatus: http.StatusBadRequest},
		{name: "missing url", id: id, credential: "cred_A", body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "other owner", id: id, credential: "cred_B", body: `{"url":"https://example.org"}`, wantStatus: http.StatusForbidden},
		{name: "owner", id: id, credential: "cred_A", body: `{"url":"https://example.org"}`, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPut, "/"+tt.id, tt.credential, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}

	rec := env.do(t, http.MethodGet, "/"+id, "", "")
	assert.Equal(t, "https://example.org", rec.Header().Get("Location"))
}

func TestHandler_Update_Body(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.create(t, "cred_A", `{"value":"https://example.com"}`)

	rec := env.do(t, http.MethodPut, "/"+id, "cred_A", `{"url":"https://example.org/new"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"url":"https://example.org/new"}`, rec.Body.String())
}

func TestHandler_Delete(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.create(t, "cred_A", `{"value":"https://example.com"}`)

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodDelete, "/"+id, "", "").Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodDelete, "/"+id, "cred_B", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/zzzzz", "cred_A", "").Code)
	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/"+id, "cred_A", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/"+id, "", "").Code)
}

func TestHandler_ListAndDeleteAll(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/", "cred_A", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"value":[]}`, rec.Body.String())

	idA := env.create(t, "cred_A", `{"value":"https://a.example.com"}`)
	idB := env.create(t, "cred_B", `{"value":"https://b.example.com"}`)

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/", "", "").Code)

	rec = env.do(t, http.MethodGet, "/", "cred_B", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var listed struct {
		Value []struct {
			ID       string `json:"id"`
			LongURL  string `json:"long_url"`
			Username string `json:"username"`
		} `json:"value"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Value, 2)
	assert.Equal(t, idA, listed.Value[0].ID)
	assert.Equal(t, "alice", listed.Value[0].Username)
	assert.Equal(t, idB, listed.Value[1].ID)
	assert.Equal(t, "https://b.example.com", listed.Value[1].LongURL)

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodDelete, "/", "", "").Code)
	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/", "cred_B", "").Code)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/"+idA, "", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/"+idB, "", "").Code)
}

func TestHandler_Authorization(t *testing.T) {
	body := `{"jwt":"pushed-token","username":"carol"}`

	t.Run("untrusted source", func(t *testing.T) {
		env := newTestEnv(t, nil, "127.0.0.1")
		rec := env.do(t, http.MethodPost, "/authorization", "", body)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		_, err := env.table.Resolve("pushed-token")
		assert.ErrorIs(t, err, auth.ErrUnknownCredential)
	})

	t.Run("trusted source", func(t *testing.T) {
		// httptest requests originate from 192.0.2.1.
		env := newTestEnv(t, nil, "192.0.2.1")
		rec := env.do(t, http.MethodPost, "/authorization", "", body)
		require.Equal(t, http.StatusOK, rec.Code)

		id := env.create(t, "pushed-token", `{"value":"https://carol.example.com"}`)
		assert.NotEmpty(t, id)
	})

	t.Run("missing fields", func(t *testing.T) {
		env := newTestEnv(t, nil, "192.0.2.1")
		rec := env.do(t, http.MethodPost, "/authorization", "", `{"jwt":"t"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

type failingPing struct {
	*service.ShortenerService
}

func (failingPing) Ping(context.Context) error {
	return errors.New("database unreachable")
}

func TestHandler_Ping(t *testing.T) {
	env := newTestEnv(t, nil)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/ping", "", "").Code)

	h := NewHandler(failingPing{}, nil, nil, nil)
	rec := httptest.NewRecorder()
	h.RegisterRoutes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandler_Metrics(t *testing.T) {
	metrics.Init()
	env := newTestEnv(t, nil)
	env.create(t, "cred_A", `{"value":"https://example.com"}`)

	rec := env.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "shortlinks_links_created_total")
	assert.Contains(t, rec.Body.String(), "shortlinks_http_requests_total")
}

func TestHandler_Gzip(t *testing.T) {
	env := newTestEnv(t, nil)

	var compressed bytes.Buffer
	zw := gzip.NewWriter(&compressed)
	_, err := zw.Write([]byte(`{"value":"https://gzip.example.com"}`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &compressed)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Authorization", "cred_A")

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)

	var resp createResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Len(t, resp.ID, 5)
}

func TestHandler_Read_SchemelessDestination(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.create(t, "cred_A", `{"value":"www.example.com/docs"}`)

	rec := env.do(t, http.MethodGet, "/"+id, "", "")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "http://www.example.com/docs", rec.Header().Get("Location"))
	assert.JSONEq(t, `{"value":"www.example.com/docs"}`, rec.Body.String())
}

func TestHandler_Create_OversizedBody(t *testing.T) {
	env := newTestEnv(t, nil)

	body := `{"value":"https://example.com","pad":"` + strings.Repeat("a", maxBodyBytes) + `"}`

	rec := env.do(t, http.MethodPost, "/", "cred_A", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/", "cred_A", `{"value":"https://example.com","pad":"small"}`)
	assert.Equal(t, http.StatusCreated, rec.Code, "unknown fields within the limit are ignored")
}

func TestHandler_Create_OversizedGzipBody(t *testing.T) {
	env := newTestEnv(t, nil)

	var compressed bytes.Buffer
	zw := gzip.NewWriter(&compressed)
	_, err := zw.Write([]byte(`{"value":"https://example.com","pad":"` + strings.Repeat("a", 4*maxBodyBytes) + `"}`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.Less(t, compressed.Len(), maxBodyBytes)

	req := httptest.NewRequest(http.MethodPost, "/", &compressed)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("Authorization", "cred_A")

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
