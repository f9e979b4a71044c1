// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

// Package detection decides, batch by batch, whether a session's behavior
// is still that of its owner.
//
// Decision pipeline:
//
//	Batch -> session.Tx (append behavioral + privileged action)
//	      -> scoring.AssemblePayload -> Scorer
//	      -> Continue: clear buffer, 200
//	      -> Terminate: audit.Emitter (record + alert), remove session, 403
//	                    -> async fan-out to notifiers and the websocket hub
//
// The scorer's is_anomaly flag is authoritative; no local threshold is
// applied. When the scorer cannot answer, the configured failure policy
// decides: fail_closed terminates the session, fail_open keeps the buffer
// for the next batch and lets the caller continue.
//
// Every step from append to decision runs under the session's lock, so two
// batches for one session are decided one after the other while other
// sessions proceed in parallel.
package detection
