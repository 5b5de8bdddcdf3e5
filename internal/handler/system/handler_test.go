package system

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedCounter int

func (c fixedCounter) Len() int { return int(c) }

func TestHealthHealthy(t *testing.T) {
	t.Parallel()

	h := New(Info{Provider: "gemini", Model: "gemini-2.5-flash", Environment: "development"}, fixedCounter(2))
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, 2, resp.ActiveSessions)
	assert.Equal(t, "pass", resp.Checks["model"].Status)
	assert.Equal(t, "gemini/gemini-2.5-flash", resp.Checks["model"].Message)
}

func TestHealthDegradedWithoutProvider(t *testing.T) {
	t.Parallel()

	h := New(Info{}, nil)
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRoot(t *testing.T) {
	t.Parallel()

	h := New(Info{}, nil)
	rec := httptest.NewRecorder()
	h.Root(rec, httptest.NewRequest(http.MethodGet, "/api", nil))

	var resp RootResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, Version, resp.Version)
	assert.Contains(t, resp.Endpoints, "POST /api/analyze")
}
