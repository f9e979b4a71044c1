// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

// Package audit persists the evidence of anomaly decisions: an append-only
// audit record and a security alert for every terminated session.
//
// # Overview
//
// When the decision engine terminates a session it hands an AnomalyInput to
// the Emitter. The Emitter formats the audit details and the alert message,
// then asks the Store to append both rows. DuckDBStore writes them inside a
// single transaction, so a reader never sees an alert without its audit
// record or the reverse.
//
// # Record formats
//
// Audit record (action CBBA_ANOMALY_DETECTED):
//
//	Anomaly Score: 0.9100, Features: {"typing_speed_delta":0.8}
//	Scoring unavailable: scoring request failed: dial tcp ...
//
// Alert (category Security, severity Critical, status Active):
//
//	CBBA Anomaly for user alice (Session: s2). Score: 0.9100
//	CBBA Anomaly for user alice (Session: s2). Score: unavailable
//
// # Stores
//
//   - DuckDBStore: durable storage in tables cbba_audit_logs and cbba_alerts
//   - MemoryStore: bounded in-memory storage for development and tests
//
// # Thread Safety
//
// Emitter and both stores are safe for concurrent use.
package audit
