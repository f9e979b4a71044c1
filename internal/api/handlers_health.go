// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package api

import (
	"context"
	"net/http"
	"time"
)

// readinessTimeout bounds the database ping of the readiness check.
const readinessTimeout = 2 * time.Second

// HealthLive reports that the process is up, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady returns 200 only when the audit database answers a ping.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	dbConnected := true
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		dbConnected = h.db.Ping(ctx) == nil
	}

	if !dbConnected {
		rw.ServiceUnavailable("Database not connected")
		return
	}

	wsClients := 0
	if h.wsHub != nil {
		wsClients = h.wsHub.GetClientCount()
	}

	rw.Success(map[string]interface{}{
		"ready":              true,
		"database_connected": dbConnected,
		"websocket_clients":  wsClients,
		"uptime":             time.Since(h.startTime).Seconds(),
	})
}
