// Package testhelpers provides shared utilities for black-box tests that run
// the Beacon service over real HTTP and WebSocket connections.
package testhelpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/beaconchat/beacon/internal/server"
)

// StartServer boots a hub and its router on an httptest server with the
// default configuration. Both are torn down when the test finishes.
func StartServer(t *testing.T) (*httptest.Server, *server.Hub) {
	t.Helper()
	return StartServerWithConfig(t, server.DefaultConfig())
}

// StartServerWithConfig is StartServer with a caller-supplied configuration.
func StartServerWithConfig(t *testing.T, cfg server.Config) (*httptest.Server, *server.Hub) {
	t.Helper()

	logger := zap.NewNop()
	hub := server.NewHub(cfg, logger)
	go hub.Run()

	ts := httptest.NewServer(server.NewRouter(hub, cfg, logger))
	t.Cleanup(func() {
		ts.Close()
		_ = hub.Shutdown(2 * time.Second)
	})
	return ts, hub
}

// WebSocketURL converts the test server's base URL into the ws endpoint for
// the given userId. An empty userId omits the query parameter.
func WebSocketURL(ts *httptest.Server, userID string) string {
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	if userID != "" {
		wsURL += "?userId=" + url.QueryEscape(userID)
	}
	return wsURL
}

// Dial opens a WebSocket connection and registers its teardown.
func Dial(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, resp, err := dialer.Dial(wsURL, nil)
	require.NoError(t, err, "websocket dial failed")
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// ReadEnvelope reads the next frame off the connection, failing the test if
// nothing arrives within the deadline.
func ReadEnvelope(t *testing.T, conn *websocket.Conn) server.Envelope {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err, "reading websocket frame")

	var env server.Envelope
	require.NoError(t, json.Unmarshal(payload, &env))
	return env
}

// ReadPresence reads the next frame and asserts it is the given presence event.
func ReadPresence(t *testing.T, conn *websocket.Conn, wantEvent string) server.PresenceEvent {
	t.Helper()

	env := ReadEnvelope(t, conn)
	require.Equal(t, wantEvent, env.Event)

	var pe server.PresenceEvent
	require.NoError(t, json.Unmarshal(env.Data, &pe))
	return pe
}

// ReadChatMessage reads the next frame and asserts it is a chat message.
func ReadChatMessage(t *testing.T, conn *websocket.Conn) server.ChatMessage {
	t.Helper()

	env := ReadEnvelope(t, conn)
	require.Equal(t, server.EventMessage, env.Event)

	var msg server.ChatMessage
	require.NoError(t, json.Unmarshal(env.Data, &msg))
	return msg
}

// SendChatMessage writes a chat message envelope on the connection.
func SendChatMessage(t *testing.T, conn *websocket.Conn, msg server.ChatMessage) {
	t.Helper()

	data, err := json.Marshal(msg)
	require.NoError(t, err)
	frame, err := json.Marshal(server.Envelope{Event: server.EventMessage, Data: data})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

// GetHealth fetches and decodes the health document.
func GetHealth(t *testing.T, ts *httptest.Server) server.HealthStatus {
	t.Helper()

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status server.HealthStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	return status
}
