// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

// Package authz provides role-based authorization using Casbin.
//
// Authentication (internal/auth) puts the caller's claims on the request
// context; this package decides whether the claimed role may perform an
// action on a route:
//
//	Request -> auth.Authenticate -> authz.Authorize -> Handler
//
// # Model
//
// The embedded model is RBAC with keyMatch2 object patterns:
//
//	m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
//
// The embedded policy grants dba (and admin, which inherits dba) read
// access to the audit log, alert list and alert websocket. Deployments can
// replace either file through config.CasbinConfig.
//
// # Caching
//
// Decisions are cached per (role, object, action) for CacheTTL. The cache
// is cleared whenever policy changes through the Enforcer.
package authz
