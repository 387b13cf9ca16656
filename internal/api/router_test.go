package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novaport-mcp/internal/config"
	"novaport-mcp/internal/embeddings"
	"novaport-mcp/internal/workspace"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	registry := workspace.NewRegistry(config.DefaultConfig().Database, 64)
	t.Cleanup(registry.Close)

	embedder, err := embeddings.New(config.EmbeddingsConfig{Provider: "local", Dimensions: 64})
	require.NoError(t, err)

	srv := httptest.NewServer(NewRouter(registry, embedder, 4<<20).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func workspaceURL(srv *httptest.Server, workspaceID, path string) string {
	return srv.URL + "/workspaces/" + config.EncodeWorkspaceID(workspaceID) + path
}

func doJSON(t *testing.T, method, url string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMalformedWorkspaceIDIs400(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/workspaces/%21%21not-base64/decisions/")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestContextRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	root := t.TempDir()

	resp := doJSON(t, http.MethodPut, workspaceURL(srv, root, "/context/product/"), map[string]interface{}{
		"content": map[string]interface{}{"project": "Nova"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	var content map[string]interface{}
	getResp, err := http.Get(workspaceURL(srv, root, "/context/product/"))
	require.NoError(t, err)
	decodeInto(t, getResp, &content)
	assert.Equal(t, "Nova", content["project"])
}

func TestDecisionLifecycle(t *testing.T) {
	srv := newTestServer(t)
	root := t.TempDir()

	resp := doJSON(t, http.MethodPost, workspaceURL(srv, root, "/decisions/"), map[string]interface{}{
		"summary": "expose the HTTP surface",
		"tags":    []string{"api"},
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		ID int64 `json:"id"`
	}
	decodeInto(t, resp, &created)
	require.NotZero(t, created.ID)

	del, err := http.NewRequest(http.MethodDelete,
		fmt.Sprintf("%s/%d", workspaceURL(srv, root, "/decisions"), created.ID), nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(del)
	require.NoError(t, err)
	_ = delResp.Body.Close()
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)

	delResp2, err := http.DefaultClient.Do(del.Clone(del.Context()))
	require.NoError(t, err)
	_ = delResp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, delResp2.StatusCode)
}

func TestValidationErrorIs400(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, workspaceURL(srv, t.TempDir(), "/decisions/"), map[string]interface{}{
		"rationale": "missing summary",
	})
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSemanticSearchEndpoint(t *testing.T) {
	srv := newTestServer(t)
	root := t.TempDir()

	resp := doJSON(t, http.MethodPost, workspaceURL(srv, root, "/decisions/"), map[string]interface{}{
		"summary": "cache embeddings in memory",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	searchResp := doJSON(t, http.MethodPost, workspaceURL(srv, root, "/search/semantic"), map[string]interface{}{
		"query_text": "embedding cache",
	})
	assert.Equal(t, http.StatusOK, searchResp.StatusCode)
	var hits []map[string]interface{}
	decodeInto(t, searchResp, &hits)
	require.NotEmpty(t, hits)
}
