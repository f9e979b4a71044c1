// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

/*
Package auth authenticates callers of the collection and operator APIs.

Callers present an HS256 JWT either as "Authorization: Bearer <token>" or in
a "token" cookie. The token carries the username (the identity recorded in
audit trails) and a role, which internal/authz uses for the operator views.

Key Components:

  - JWTManager: Token generation and validation using HMAC-SHA256
  - Middleware: chi-compatible middleware that validates the token and stores
    the claims in the request context
  - SecurityHeaders: response hardening for a JSON API

Authentication Modes (AUTH_MODE):

  - jwt (default): every protected route requires a valid token
  - none: development only; requests run as the anonymous user with the
    configured default role

Usage:

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	mw := auth.NewMiddleware(jwtManager, cfg.Security.AuthMode, cfg.Security.Casbin.DefaultRole)

	r.With(mw.Authenticate).Post("/collect-biometrics", handler)

	claims, ok := auth.ClaimsFromContext(r.Context())
*/
package auth
