package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHealthHandlerReportsRegistrySize(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	handler := NewHealthHandler(registry)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	req.Equal(http.StatusOK, rec.Code)
	req.Equal("application/json", rec.Header().Get("Content-Type"))

	var status HealthStatus
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &status))
	req.Equal("ok", status.Status)
	req.Equal(0, status.OnlineUsers)

	ts, err := time.Parse(time.RFC3339, status.Timestamp)
	req.NoError(err)
	req.WithinDuration(time.Now(), ts, time.Minute)

	// Health tracks the registry as it changes.
	req.NoError(registry.Register(newRegistryClient("conn-1", "alice")))
	req.NoError(registry.Register(newRegistryClient("conn-2", "bob")))

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &status))
	req.Equal(2, status.OnlineUsers)
}

func TestRootHandlerBanner(t *testing.T) {
	rec := httptest.NewRecorder()
	RootHandler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "running")
}

func TestTestPageHandlerServesHTML(t *testing.T) {
	rec := httptest.NewRecorder()
	TestPageHandler(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "WebSocket")
}

func TestWebSocketHandlerRejectsPlainRequests(t *testing.T) {
	hub := NewHub(DefaultConfig(), zap.NewNop())
	handler := NewWebSocketHandler(hub, DefaultConfig(), zap.NewNop())

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))

	// No upgrade headers, no websocket.
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
