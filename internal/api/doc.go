// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

// Package api provides the HTTP surface of cbbaguard using the Chi router.
//
// # Routes
//
//	POST /collect-biometrics?sessionId=   authenticated; behavioral batch upload
//	GET  /api/v1/audit-logs?limit=        dba, admin; newest audit records
//	GET  /api/v1/alerts?limit=            dba, admin; active alerts
//	GET  /ws/alerts                       dba, admin; live cbba_alert stream
//	GET  /health/live, /health/ready      health checks
//	GET  /metrics                         Prometheus
//
// # Responses
//
// The collect endpoint answers with the compact decision body expected by
// the browser collector:
//
//	{"message": "Behavior is normal.", "score": 0.12}
//
// Every other JSON endpoint uses the APIResponse envelope with success,
// data, error and meta fields.
//
// # Middleware
//
// Global: request ID, Prometheus, RealIP, Recoverer, CORS, security
// headers. Per group: httprate limits and JWT authentication, then Casbin
// authorization on the security views.
package api
