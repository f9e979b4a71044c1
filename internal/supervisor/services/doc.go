// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

// Package services provides suture.Service wrappers for components whose
// lifecycle does not already match Serve(ctx) error.
//
// HTTPServerService adapts http.Server's ListenAndServe/Shutdown pair. It
// also owns the detection engine's drain: the engine is closed only after
// Shutdown has let in-flight handlers return, so a batch that terminates a
// session during shutdown still gets its webhook delivered.
//
// The websocket hub, session sweeper, and action feed implement
// suture.Service themselves and are added to the tree directly.
package services
