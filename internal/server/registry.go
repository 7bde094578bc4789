// Package server owns the connection registry, the single source of truth
// for which sessions are currently online.
package server

import (
	"errors"
	"sync"
	"time"

	"github.com/samber/lo"
)

// ErrDuplicateConnection signals that a connection id already has a live
// session. This points at a transport-layer bug upstream; the existing record
// is never overwritten.
var ErrDuplicateConnection = errors.New("connection id already registered")

// Registry maps connection ids to live clients. The hub loop is the only
// mutator; the mutex exists so the health endpoint and tests can read the
// size concurrently with hub activity.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*Client)}
}

// Register inserts the client's session, stamping its ConnectedAt at
// insertion time. Returns ErrDuplicateConnection if the connection id is
// already present.
func (r *Registry) Register(c *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients[c.session.ConnectionID]; exists {
		return ErrDuplicateConnection
	}

	c.session.ConnectedAt = time.Now()
	r.clients[c.session.ConnectionID] = c
	return nil
}

// Unregister removes and returns the client for the given connection id.
// Removing an unknown id is a no-op; duplicate close notifications are a
// normal transport artifact.
func (r *Registry) Unregister(connectionID string) (*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[connectionID]
	if !ok {
		return nil, false
	}
	delete(r.clients, connectionID)
	return c, true
}

// Size returns the current number of live sessions.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Snapshot returns a point-in-time copy of the live clients for fan-out.
// Iteration order is unspecified.
func (r *Registry) Snapshot() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Values(r.clients)
}
