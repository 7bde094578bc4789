// Package server wires the HTTP surface onto a chi router.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// NewRouter assembles the application routes with request middleware and the
// cross-origin policy. The default configuration accepts any origin.
func NewRouter(hub *Hub, cfg Config, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}))

	r.Get("/", RootHandler)
	r.Get("/health", NewHealthHandler(hub.Registry()))
	r.Get("/ws", NewWebSocketHandler(hub, cfg, logger))
	r.Get("/test", TestPageHandler)

	return r
}

// requestLogger logs each request at debug level. WebSocket upgrades are
// logged after the connection ends, so the duration covers the session.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote", r.RemoteAddr),
				zap.Duration("duration", time.Since(start)))
		})
	}
}
