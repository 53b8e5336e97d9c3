package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gargooie/Config-control-service/internal/core/render"
	"github.com/Gargooie/Config-control-service/internal/shell/store"
)

// =============================================================================
// Test Helpers
// =============================================================================

func setupTestHandler(t *testing.T) http.Handler {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Close()
	})

	h := NewHandler(s, render.NewRenderer(), slog.New(slog.NewTextHandler(testWriter{t}, nil)))
	return h.Routes()
}

// testWriter routes handler logs through the test log.
type testWriter struct {
	t *testing.T
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func doRequest(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

const validBody = "version: 1\ndatabase:\n  host: localhost\n  port: 5432\n"

// =============================================================================
// Create Configuration Tests
// =============================================================================

func TestCreateConfiguration_Success(t *testing.T) {
	handler := setupTestHandler(t)

	rec := doRequest(t, handler, http.MethodPost, "/config/payments", validBody)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var resp CreateConfigurationResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "payments", resp.Service)
	assert.Equal(t, 1, resp.Version)
	assert.Equal(t, "saved", resp.Status)
}

func TestCreateConfiguration_AutoVersioning(t *testing.T) {
	handler := setupTestHandler(t)
	body := "database:\n  host: localhost\n  port: 5432\n"

	for want := 1; want <= 3; want++ {
		rec := doRequest(t, handler, http.MethodPost, "/config/payments", body)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp CreateConfigurationResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, want, resp.Version)
	}
}

func TestCreateConfiguration_EmptyBody(t *testing.T) {
	handler := setupTestHandler(t)

	rec := doRequest(t, handler, http.MethodPost, "/config/payments", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "empty request body", resp.Error)
}

func TestCreateConfiguration_InvalidYAML(t *testing.T) {
	handler := setupTestHandler(t)

	rec := doRequest(t, handler, http.MethodPost, "/config/payments", "invalid: yaml: content:")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	assert.Contains(t, resp.Error, "invalid YAML syntax")
	assert.Equal(t, "validation_error", resp.Code)
}

func TestCreateConfiguration_SchemaViolations(t *testing.T) {
	handler := setupTestHandler(t)
	body := "database:\n  host: \"\"\n  port: 99999\n"

	rec := doRequest(t, handler, http.MethodPost, "/config/payments", body)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	assert.Contains(t, resp.Error, "database.host must be a non-empty string")
	assert.Contains(t, resp.Error, "database.port must be an integer between 1 and 65535")
}

func TestCreateConfiguration_VersionConflict(t *testing.T) {
	handler := setupTestHandler(t)

	rec := doRequest(t, handler, http.MethodPost, "/config/payments", validBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, handler, http.MethodPost, "/config/payments", validBody)
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "version_conflict", resp.Code)
}

// =============================================================================
// Get Configuration Tests
// =============================================================================

func TestGetConfiguration_Latest(t *testing.T) {
	handler := setupTestHandler(t)
	doRequest(t, handler, http.MethodPost, "/config/payments", "name: first\n")
	doRequest(t, handler, http.MethodPost, "/config/payments", "name: second\n")

	rec := doRequest(t, handler, http.MethodGet, "/config/payments", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]any
	decodeBody(t, rec, &payload)
	assert.Equal(t, "second", payload["name"])
	assert.Equal(t, float64(2), payload["version"])
}

func TestGetConfiguration_SpecificVersion(t *testing.T) {
	handler := setupTestHandler(t)
	doRequest(t, handler, http.MethodPost, "/config/payments", "name: first\n")
	doRequest(t, handler, http.MethodPost, "/config/payments", "name: second\n")

	rec := doRequest(t, handler, http.MethodGet, "/config/payments?version=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]any
	decodeBody(t, rec, &payload)
	assert.Equal(t, "first", payload["name"])
}

func TestGetConfiguration_InvalidVersionParam(t *testing.T) {
	handler := setupTestHandler(t)

	for _, raw := range []string{"abc", "0", "-1", "1.5"} {
		rec := doRequest(t, handler, http.MethodGet, "/config/payments?version="+raw, "")
		require.Equal(t, http.StatusBadRequest, rec.Code, "version=%s", raw)

		var resp ErrorResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, "invalid version parameter", resp.Error)
	}
}

func TestGetConfiguration_UnknownService(t *testing.T) {
	handler := setupTestHandler(t)

	rec := doRequest(t, handler, http.MethodGet, "/config/ghost", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "configuration not found for service 'ghost'", resp.Error)
}

func TestGetConfiguration_UnknownVersion(t *testing.T) {
	handler := setupTestHandler(t)
	doRequest(t, handler, http.MethodPost, "/config/payments", validBody)

	rec := doRequest(t, handler, http.MethodGet, "/config/payments?version=9", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "configuration not found for service 'payments' version 9", resp.Error)
}

// =============================================================================
// Template Rendering Tests
// =============================================================================

func TestGetConfiguration_RendersTemplate(t *testing.T) {
	handler := setupTestHandler(t)
	body := "version: 1\nmessage: Hello {{ user }}!\n"
	rec := doRequest(t, handler, http.MethodPost, "/config/payments", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/config/payments?template=1&user=alice", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]any
	decodeBody(t, rec, &payload)
	assert.Equal(t, "Hello alice!", payload["message"])
}

func TestGetConfiguration_TemplateDefaults(t *testing.T) {
	handler := setupTestHandler(t)
	body := "version: 1\nmessage: Hello {{ user }} in {{ env }}\n"
	doRequest(t, handler, http.MethodPost, "/config/payments", body)

	rec := doRequest(t, handler, http.MethodGet, "/config/payments?template=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]any
	decodeBody(t, rec, &payload)
	assert.Equal(t, "Hello anonymous in development", payload["message"])
}

func TestGetConfiguration_TemplateOffReturnsRaw(t *testing.T) {
	handler := setupTestHandler(t)
	body := "version: 1\nmessage: Hello {{ user }}!\n"
	doRequest(t, handler, http.MethodPost, "/config/payments", body)

	rec := doRequest(t, handler, http.MethodGet, "/config/payments", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]any
	decodeBody(t, rec, &payload)
	assert.Equal(t, "Hello {{ user }}!", payload["message"])
}

func TestGetConfiguration_TemplateFailure(t *testing.T) {
	handler := setupTestHandler(t)
	body := "version: 1\nbroken: '{% invalidtag %}'\n"
	rec := doRequest(t, handler, http.MethodPost, "/config/payments", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, handler, http.MethodGet, "/config/payments?template=1", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	assert.Contains(t, resp.Error, "template processing failed")
	assert.Equal(t, "template_error", resp.Code)
}

// =============================================================================
// History Tests
// =============================================================================

func TestHistory_ReturnsAllVersions(t *testing.T) {
	handler := setupTestHandler(t)
	doRequest(t, handler, http.MethodPost, "/config/payments", "name: first\n")
	doRequest(t, handler, http.MethodPost, "/config/payments", "name: second\n")

	rec := doRequest(t, handler, http.MethodGet, "/config/payments/history", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []HistoryEntryResponse
	decodeBody(t, rec, &entries)
	require.Len(t, entries, 2)
	assert.Equal(t, 2, entries[0].Version)
	assert.Equal(t, 1, entries[1].Version)
	assert.False(t, entries[0].CreatedAt.IsZero())
}

func TestHistory_UnknownService(t *testing.T) {
	handler := setupTestHandler(t)

	rec := doRequest(t, handler, http.MethodGet, "/config/ghost/history", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "no configuration history found for service 'ghost'", resp.Error)
}

// =============================================================================
// Health / Index / OpenAPI Tests
// =============================================================================

func TestHealth(t *testing.T) {
	handler := setupTestHandler(t)

	rec := doRequest(t, handler, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "connected", resp.Database)
}

func TestReady(t *testing.T) {
	handler := setupTestHandler(t)

	rec := doRequest(t, handler, http.MethodGet, "/ready", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ReadyResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "ready", resp.Status)
	assert.Equal(t, "ok", resp.Checks["database"])
}

func TestIndex(t *testing.T) {
	handler := setupTestHandler(t)

	rec := doRequest(t, handler, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp IndexResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "config-control-service", resp.Service)
	assert.Contains(t, resp.Endpoints, "POST /config/{service}")
}

func TestOpenAPISpec(t *testing.T) {
	handler := setupTestHandler(t)

	rec := doRequest(t, handler, http.MethodGet, "/openapi.json", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var spec map[string]any
	decodeBody(t, rec, &spec)
	assert.Equal(t, "3.0.3", spec["openapi"])

	paths, ok := spec["paths"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, paths, "/config/{service}")
	assert.Contains(t, paths, "/config/{service}/history")
	assert.Contains(t, paths, "/health")
}
