// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

// Package supervisor runs cbbaguard's long-lived components under a
// thejerf/suture/v4 supervision tree.
//
// # Layers
//
//	cbbaguard (root)
//	├── data-layer       session.Sweeper
//	├── messaging-layer  websocket.Hub, actions.FeedSource, actions.EmbeddedServer
//	└── api-layer        services.HTTPServerService (closes the detection engine after Shutdown)
//
// Every service implements suture.Service (Serve(ctx) error plus String()).
// Supervisor events are logged through sutureslog into the zerolog-backed
// slog handler from internal/logging.
//
// # Failure Handling
//
// A service that returns an error is restarted. After FailureThreshold
// failures (decaying at FailureDecay per second) its layer backs off for
// FailureBackoff, or FeedBackoff in the messaging layer. Layers back off
// independently, so a broker outage never stalls the decision API. On shutdown each service gets ShutdownTimeout to
// return; UnstoppedServiceReport names those that did not.
package supervisor
