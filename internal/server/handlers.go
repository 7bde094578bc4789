// Package server exposes the HTTP handlers: the WebSocket upgrade, the health
// document, and the built-in test page.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// NewWebSocketHandler upgrades inbound requests and hands the resulting
// connection to the hub. The caller's identity comes from the optional userId
// query parameter; the connection id is assigned here and never reused while
// the connection lives.
func NewWebSocketHandler(hub *Hub, cfg Config, logger *zap.Logger) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     newOriginPolicy(cfg.AllowedOrigins, logger).check,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		userID := r.URL.Query().Get("userId")
		if userID == "" {
			userID = AnonymousUser
		}

		client := NewClient(conn, hub, Session{
			ConnectionID: uuid.NewString(),
			UserID:       userID,
		})

		// The hub loop performs the registration and launches the pumps.
		select {
		case hub.register <- client:
		case <-hub.ctx.Done():
			client.closeConn()
		}
	}
}

// NewHealthHandler answers liveness polls with the registry's current size.
// Pure read; it cannot fail while the process is up.
func NewHealthHandler(registry *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(HealthStatus{
			Status:      "ok",
			OnlineUsers: registry.Size(),
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// RootHandler responds with a short banner so load balancers hitting / get a
// 200 without touching the health document.
func RootHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("Beacon presence server is running!"))
}

// TestPageHandler serves a minimal HTML client speaking the envelope protocol
// for manual poking: connect with a userId, watch presence, send messages.
func TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write([]byte(testPageHTML))
}

const testPageHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Beacon Test Client</title>
    <style>
        body { font-family: sans-serif; margin: 20px; }
        #log { border: 1px solid #ccc; height: 300px; padding: 10px; overflow-y: scroll; margin: 10px 0; }
        .presence { color: gray; font-style: italic; }
        .message { color: black; }
    </style>
</head>
<body>
    <h1>Beacon Test Client</h1>
    <div>
        <input type="text" id="userId" placeholder="userId" value="anonymous">
        <button onclick="connect()">Connect</button>
        <span id="count"></span>
    </div>
    <div>
        <input type="text" id="text" placeholder="Type a message...">
        <button onclick="sendMessage()">Send</button>
    </div>
    <div id="log"></div>
    <script>
        let ws = null;
        function append(line, cls) {
            const div = document.createElement('div');
            div.className = cls;
            div.textContent = line;
            const log = document.getElementById('log');
            log.appendChild(div);
            log.scrollTop = log.scrollHeight;
        }
        function connect() {
            const userId = document.getElementById('userId').value || 'anonymous';
            const proto = location.protocol === 'https:' ? 'wss' : 'ws';
            ws = new WebSocket(proto + '://' + location.host + '/ws?userId=' + encodeURIComponent(userId));
            ws.onmessage = function(evt) {
                const env = JSON.parse(evt.data);
                if (env.event === 'message') {
                    append(env.data.userId + ': ' + env.data.text, 'message');
                } else if (env.event === 'userOnline' || env.event === 'userOffline') {
                    append(env.data.userId + ' is ' + (env.event === 'userOnline' ? 'online' : 'offline'), 'presence');
                    document.getElementById('count').textContent = env.data.onlineCount + ' online';
                }
            };
            ws.onclose = function() { append('disconnected', 'presence'); };
        }
        function sendMessage() {
            if (!ws || ws.readyState !== WebSocket.OPEN) return;
            const input = document.getElementById('text');
            ws.send(JSON.stringify({
                event: 'message',
                data: { userId: document.getElementById('userId').value, text: input.value }
            }));
            input.value = '';
        }
        document.getElementById('text').addEventListener('keypress', function(e) {
            if (e.key === 'Enter') sendMessage();
        });
    </script>
</body>
</html>`
