// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

// Package middleware provides HTTP middleware shared by every route.
//
// # Request IDs
//
// RequestID assigns an X-Request-ID to each request (reusing a bounded
// upstream value), echoes it back, and stores it in the context so that
// logging.Ctx(ctx) includes request_id on every log line.
//
// # Prometheus
//
// PrometheusMetrics records api_requests_total, api_request_duration_seconds
// and api_active_requests. The endpoint label comes from the chi route
// pattern so that session IDs in query strings or paths never create new
// series. The wrapped writer supports Hijack and Flush so websocket
// upgrades pass through unchanged.
//
// # Ordering
//
// The router installs them outermost first:
//
//	r.Use(middleware.RequestID)
//	r.Use(middleware.PrometheusMetrics)
package middleware
