// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package api

import (
	"net/http"

	ws "github.com/tomtom215/cbbaguard/internal/websocket"
)

// WebSocket upgrades the request to a cbba_alert stream.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		NewResponseWriter(w, r).ServiceUnavailable("Alert stream disabled")
		return
	}
	ws.ServeWS(h.wsHub, h.corsOrigins(), w, r)
}
