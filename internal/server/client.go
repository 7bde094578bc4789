// Package server manages individual WebSocket clients, handling read/write
// pumps, keepalive, and lifecycle control for each connection.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Client binds one WebSocket connection to its session record and its
// outbound buffer. The session is immutable after registration; only the hub
// loop touches the closed flag and the buffer's close.
type Client struct {
	session Session
	conn    *websocket.Conn
	send    chan []byte
	hub     *Hub
	logger  *zap.Logger
	closed  bool

	maxMessageSize int64
	writeTimeout   time.Duration
	pongTimeout    time.Duration
	pingInterval   time.Duration
}

// NewClient creates a Client for the given connection and session. The
// outbound buffer is sized from the hub's configuration so a slow reader
// stalls only itself.
func NewClient(conn *websocket.Conn, hub *Hub, session Session) *Client {
	cfg := hub.cfg
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}

	return &Client{
		session: session,
		conn:    conn,
		send:    make(chan []byte, cfg.SendBufferSize),
		hub:     hub,
		logger: hub.logger.With(
			zap.String("connectionId", session.ConnectionID),
			zap.String("userId", session.UserID)),
		maxMessageSize: cfg.MaxMessageSize,
		writeTimeout:   cfg.WriteTimeout,
		pongTimeout:    cfg.PongTimeout,
		pingInterval:   cfg.PingInterval,
	}
}

// Session returns the client's session record.
func (c *Client) Session() Session {
	return c.session
}

func (c *Client) closeConn() {
	if c.conn == nil {
		return
	}
	if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
		c.logger.Debug("error closing connection", zap.Error(err))
	}
}

// setupReadConnection configures the read deadline and pong handler that keep
// the transport's liveness signal flowing.
func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.pongTimeout)); err != nil {
		c.logger.Debug("error setting initial read deadline", zap.Error(err))
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.pongTimeout)); err != nil {
			c.logger.Debug("error refreshing read deadline", zap.Error(err))
		}
		return nil
	})
}

// logReadError classifies a read failure. Every read failure ends the pump;
// classification only decides how loudly it is logged.
func (c *Client) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.logger.Warn("frame exceeded maximum size",
			zap.Int64("maxMessageSize", c.maxMessageSize))
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		c.logger.Debug("client disconnected", zap.Error(err))
	case errors.Is(err, io.EOF), isExpectedCloseError(err):
		c.logger.Debug("connection closed", zap.Error(err))
	default:
		c.logger.Warn("websocket read error", zap.Error(err))
	}
}

// decodeFrame parses an inbound envelope. Frames that fail to parse or carry
// an unknown event are dropped without touching any state.
func (c *Client) decodeFrame(raw []byte) (ChatMessage, bool) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.logger.Debug("dropping malformed frame", zap.Error(err))
		return ChatMessage{}, false
	}

	if env.Event != EventMessage {
		c.logger.Debug("ignoring unknown event", zap.String("event", env.Event))
		return ChatMessage{}, false
	}

	var msg ChatMessage
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			c.logger.Debug("dropping undecodable message payload", zap.Error(err))
			return ChatMessage{}, false
		}
	}
	return msg, true
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.ctx.Done():
		}
		c.closeConn()
	}()

	c.setupReadConnection()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}

		msg, ok := c.decodeFrame(raw)
		if !ok {
			continue
		}

		select {
		case c.hub.inbound <- inboundFrame{sender: c, message: msg}:
		case <-c.hub.ctx.Done():
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		c.closeConn()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
				c.logger.Debug("error setting write deadline", zap.Error(err))
				return
			}
			if !ok {
				// Hub closed the buffer; say goodbye.
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil && !isExpectedCloseError(err) {
					c.logger.Debug("error writing close message", zap.Error(err))
				}
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				if !isExpectedCloseError(err) {
					c.logger.Debug("error writing message", zap.Error(err))
				}
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
				c.logger.Debug("error setting write deadline for ping", zap.Error(err))
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if !isExpectedCloseError(err) {
					c.logger.Debug("error writing ping", zap.Error(err))
				}
				return
			}
		case <-c.hub.ctx.Done():
			return
		}
	}
}
