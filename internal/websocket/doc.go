// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

/*
Package websocket pushes CBBA anomaly alerts to connected operator consoles.

It uses gorilla/websocket with a hub-client architecture: the Hub owns the
client set and fans each broadcast out to every client's send queue, and
each Client runs a read pump (pings, close detection) and a write pump
(JSON frames, keepalive pings).

Message Types:

  - cbba_alert: an anomaly alert was persisted (data is the stored alert)
  - ping / pong: application-level keepalive initiated by the client

Usage Example:

	hub := websocket.NewHub()
	supervisor.AddAPIService(hub) // runs hub.Serve(ctx)

	r.Get("/ws/alerts", func(w http.ResponseWriter, r *http.Request) {
	    websocket.ServeWS(hub, allowedOrigins, w, r)
	})

	// From the decision engine:
	hub.BroadcastJSON(websocket.MessageTypeAlert, alert)

Slow clients whose send queue is full are disconnected rather than allowed
to stall the broadcast loop.
*/
package websocket
