// Package server coordinates session registration, presence notification, and
// message broadcast for the Beacon WebSocket core via the Hub type.
package server

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// inboundFrame carries a decoded chat message from a client's read pump to
// the hub loop.
type inboundFrame struct {
	sender  *Client
	message ChatMessage
}

// Hub serializes every registry mutation and every broadcast through a single
// event loop, so per-connection presence ordering (online strictly before
// offline) and receipt-order message delivery hold without further locking.
type Hub struct {
	registry *Registry
	cfg      Config
	logger   *zap.Logger

	register   chan *Client
	unregister chan *Client
	inbound    chan inboundFrame

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHub creates a Hub bound to its own registry. The returned Hub is inert
// until Run is called.
func NewHub(cfg Config, logger *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		registry:   NewRegistry(),
		cfg:        cfg,
		logger:     logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundFrame),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Registry exposes the hub's registry for read-only consumers such as the
// health endpoint.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Run executes the hub's event loop until Shutdown is called. It must run in
// its own goroutine; everything that mutates the registry happens here.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.closeClients()
			return
		case client := <-h.register:
			h.handleRegister(client)
		case client := <-h.unregister:
			h.drop(client)
		case frame := <-h.inbound:
			h.handleInbound(frame)
		}
	}
}

func (h *Hub) handleRegister(c *Client) {
	if c == nil {
		h.logger.Warn("received nil client registration; skipping")
		return
	}

	if err := h.registry.Register(c); err != nil {
		// Invariant breach upstream: surface loudly, never overwrite.
		h.logger.Error("refusing duplicate connection registration",
			zap.String("connectionId", c.session.ConnectionID),
			zap.String("userId", c.session.UserID),
			zap.Error(err))
		c.closeConn()
		return
	}

	h.logger.Info("client connected",
		zap.String("connectionId", c.session.ConnectionID),
		zap.String("userId", c.session.UserID),
		zap.Int("onlineCount", h.registry.Size()))

	if c.conn != nil {
		h.wg.Add(2)
		go func() {
			defer h.wg.Done()
			c.writePump()
		}()
		go func() {
			defer h.wg.Done()
			c.readPump()
		}()
	}

	h.broadcast(EventUserOnline, PresenceEvent{
		UserID:      c.session.UserID,
		OnlineCount: h.registry.Size(),
	})
}

// drop removes the client and announces it offline. Removal happens before
// the presence fan-out, so the departing connection is excluded naturally.
// Dropping an already-removed client is a tolerated no-op.
func (h *Hub) drop(c *Client) {
	if c == nil {
		return
	}

	removed, ok := h.registry.Unregister(c.session.ConnectionID)
	if !ok {
		h.logger.Debug("ignoring close for unknown connection",
			zap.String("connectionId", c.session.ConnectionID))
		return
	}

	removed.closed = true
	close(removed.send)
	removed.closeConn()

	h.logger.Info("client disconnected",
		zap.String("connectionId", removed.session.ConnectionID),
		zap.String("userId", removed.session.UserID),
		zap.Int("onlineCount", h.registry.Size()))

	h.broadcast(EventUserOffline, PresenceEvent{
		UserID:      removed.session.UserID,
		OnlineCount: h.registry.Size(),
	})
}

// handleInbound normalizes a chat message and rebroadcasts it to every live
// connection, the sender included. No deduplication, no validation: payloads
// missing text or userId are relayed verbatim.
func (h *Hub) handleInbound(frame inboundFrame) {
	msg := frame.message
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}

	h.logger.Debug("broadcasting message",
		zap.String("connectionId", frame.sender.session.ConnectionID),
		zap.String("userId", msg.UserID),
		zap.Int("recipients", h.registry.Size()))

	h.broadcast(EventMessage, msg)
}

// broadcast fans the event out to a snapshot of the registry. Delivery is
// best-effort per subscriber: a failed send never aborts the loop or reaches
// the caller; the stuck client is dropped instead.
func (h *Hub) broadcast(event string, data any) {
	payload, err := marshalEvent(event, data)
	if err != nil {
		h.logger.Error("failed to encode event", zap.String("event", event), zap.Error(err))
		return
	}

	var failed []*Client
	for _, c := range h.registry.Snapshot() {
		if !h.send(c, payload) {
			failed = append(failed, c)
		}
	}

	for _, c := range failed {
		h.logger.Warn("evicting unresponsive client",
			zap.String("connectionId", c.session.ConnectionID),
			zap.String("userId", c.session.UserID))
		h.drop(c)
	}
}

// send enqueues a payload on the client's outbound buffer without blocking.
// Only the hub loop calls send and close on the buffer, so the two cannot race.
func (h *Hub) send(c *Client, payload []byte) bool {
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (h *Hub) closeClients() {
	clients := h.registry.Snapshot()
	for _, c := range clients {
		c.closeConn()
	}
	h.logger.Info("closed client connections", zap.Int("count", len(clients)))
}

// Shutdown stops the event loop, closes all connections, and waits for client
// goroutines to finish or for the timeout to elapse.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.logger.Info("initiating hub shutdown")
	h.cancel()
	<-h.done

	finished := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		h.logger.Info("hub shutdown completed")
		return nil
	case <-time.After(timeout):
		h.logger.Warn("hub shutdown timeout reached")
		return context.DeadlineExceeded
	}
}
