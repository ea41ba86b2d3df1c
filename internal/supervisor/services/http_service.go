// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/crumb/internal/config"
	"github.com/tomtom215/crumb/internal/logging"
)

const defaultShutdownTimeout = 10 * time.Second

// HTTPServer is the lifecycle subset of *http.Server.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService runs the Crumb API server under the api-layer supervisor.
//
//	server := &http.Server{Addr: cfg.Server.Addr(), Handler: router}
//	tree.AddAPIService(services.NewHTTPServerService(server, &cfg.Server))
type HTTPServerService struct {
	server          HTTPServer
	addr            string
	shutdownTimeout time.Duration
	log             zerolog.Logger
}

// NewHTTPServerService wraps server. A non-positive cfg.ShutdownTimeout
// falls back to 10 s.
func NewHTTPServerService(server HTTPServer, cfg *config.ServerConfig) *HTTPServerService {
	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	return &HTTPServerService{
		server:          server,
		addr:            cfg.Addr(),
		shutdownTimeout: timeout,
		log:             logging.WithComponent("http"),
	}
}

// Serve implements suture.Service. A canceled ctx drains in-flight requests
// and returns ctx.Err(); a listener failure returns a wrapped error so the
// supervisor restarts the server.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	listenErr := make(chan error, 1)
	go func() {
		err := h.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		listenErr <- err
	}()

	h.log.Info().Str("addr", h.addr).Msg("HTTP server listening")

	select {
	case err := <-listenErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	return h.drain(ctx.Err(), listenErr)
}

// drain shuts the server down on a fresh deadline and waits for the
// listener goroutine.
func (h *HTTPServerService) drain(cause error, listenErr <-chan error) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer cancel()

	h.log.Info().Dur("timeout", h.shutdownTimeout).Msg("HTTP server shutting down")
	if err := h.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	<-listenErr
	return cause
}

func (h *HTTPServerService) String() string {
	return "http-server"
}
