// Package server constructs and runs the Beacon HTTP service.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// CreateServer creates an HTTP server for the given address and handler.
// Connection-level read/write deadlines stay off so upgraded WebSocket
// sessions are not cut; header and idle timeouts still apply.
func CreateServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// Run serves until the context is cancelled, then drains the HTTP server and
// shuts the hub down within the configured timeout.
func Run(ctx context.Context, srv *http.Server, hub *Hub, cfg Config, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("server listening", zap.String("addr", srv.Addr))

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http server shutdown error", zap.Error(err))
		}

		if err := hub.Shutdown(cfg.ShutdownTimeout); err != nil {
			logger.Warn("hub shutdown error", zap.Error(err))
		}

		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
