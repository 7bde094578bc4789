// Package server defines the wire-level payload types exchanged between the
// hub and connected clients.
package server

import (
	"encoding/json"
	"strings"
	"time"
)

// Event names carried in the envelope, mirroring the client protocol.
const (
	EventMessage     = "message"
	EventUserOnline  = "userOnline"
	EventUserOffline = "userOffline"
)

// AnonymousUser is the userId assigned to connections that do not declare one.
const AnonymousUser = "anonymous"

// Session identifies one live connection. Records are immutable once the
// registry has inserted them; only their presence in the registry changes.
type Session struct {
	ConnectionID string
	UserID       string
	ConnectedAt  time.Time
}

// ChatMessage is the chat payload relayed between clients. The server performs
// no content validation: a missing userId or text is rebroadcast as-is.
// Timestamps are Unix milliseconds; zero means the sender omitted it.
type ChatMessage struct {
	UserID    string `json:"userId"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// PresenceEvent announces a membership change together with the registry
// cardinality read after the mutation completed.
type PresenceEvent struct {
	UserID      string `json:"userId"`
	OnlineCount int    `json:"onlineCount"`
}

// Envelope frames every message on the wire in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// HealthStatus is the document served by the health endpoint.
type HealthStatus struct {
	Status      string `json:"status"`
	OnlineUsers int    `json:"onlineUsers"`
	Timestamp   string `json:"timestamp"`
}

// marshalEvent wraps data in an Envelope and returns the encoded frame.
func marshalEvent(event string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: payload})
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
