// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tomtom215/cbbaguard/internal/logging"
)

// HTTPServer is the subset of *http.Server the service drives.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService runs the decision API under supervision. Cancellation
// triggers a graceful Shutdown bounded by the configured timeout. The
// optional drain is closed only after Shutdown has returned, so handlers
// still finishing a batch can raise alerts before it stops accepting them.
type HTTPServerService struct {
	server          HTTPServer
	drain           io.Closer
	shutdownTimeout time.Duration
	addr            string
}

// NewHTTPServerService wraps server. addr is used for logging only. drain
// may be nil.
func NewHTTPServerService(server HTTPServer, addr string, shutdownTimeout time.Duration, drain io.Closer) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPServerService{
		server:          server,
		drain:           drain,
		shutdownTimeout: shutdownTimeout,
		addr:            addr,
	}
}

// Serve implements suture.Service. http.ErrServerClosed is not an error.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		err := h.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		done <- err
	}()

	logging.Info().Str("addr", h.addr).Msg("HTTP server listening")

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("http server on %s: %w", h.addr, err)
		}
		return nil

	case <-ctx.Done():
		// ctx is already canceled, Shutdown needs a fresh deadline.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()

		logging.Info().Str("addr", h.addr).Dur("timeout", h.shutdownTimeout).Msg("HTTP server shutting down")
		shutdownErr := h.server.Shutdown(shutdownCtx)
		if shutdownErr == nil {
			<-done
		}
		// Drain even when Shutdown timed out: the process is exiting either way.
		if err := h.closeDrain(); err != nil {
			return err
		}
		if shutdownErr != nil {
			return fmt.Errorf("http server shutdown: %w", shutdownErr)
		}
		return ctx.Err()
	}
}

func (h *HTTPServerService) closeDrain() error {
	if h.drain == nil {
		return nil
	}
	if err := h.drain.Close(); err != nil {
		logging.Error().Err(err).Msg("detection engine drain failed")
		return fmt.Errorf("drain after shutdown: %w", err)
	}
	logging.Info().Msg("detection engine drained")
	return nil
}

func (h *HTTPServerService) String() string {
	return "http-server"
}
