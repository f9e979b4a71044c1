// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package authz

import (
	"net/http"

	"github.com/tomtom215/cbbaguard/internal/auth"
	"github.com/tomtom215/cbbaguard/internal/logging"
)

// Middleware enforces role policy on authenticated requests.
type Middleware struct {
	enforcer *Enforcer
}

// NewMiddleware creates authorization middleware backed by enforcer.
func NewMiddleware(enforcer *Enforcer) *Middleware {
	return &Middleware{enforcer: enforcer}
}

// Authorize enforces a fixed object and action for next.
func (m *Middleware) Authorize(object, action string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.allow(w, r, object, action) {
			next(w, r)
		}
	}
}

// AuthorizeRequest is chi-style middleware that authorizes the request
// path with an action derived from the HTTP method.
func (m *Middleware) AuthorizeRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.allow(w, r, r.URL.Path, methodToAction(r.Method)) {
			next.ServeHTTP(w, r)
		}
	})
}

// allow writes the error response and returns false when the request is denied.
func (m *Middleware) allow(w http.ResponseWriter, r *http.Request, object, action string) bool {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok || claims == nil {
		http.Error(w, "Unauthorized: no authentication context", http.StatusUnauthorized)
		return false
	}

	allowed, err := m.enforcer.Enforce(claims.Role, object, action)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).
			Str("role", claims.Role).
			Str("object", object).
			Msg("Authorization error")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return false
	}

	if !allowed {
		logging.Ctx(r.Context()).Warn().
			Str("username", claims.Username).
			Str("role", claims.Role).
			Str("object", object).
			Str("action", action).
			Msg("Authorization denied")
		http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
		return false
	}
	return true
}

// methodToAction maps HTTP methods to policy actions.
func methodToAction(method string) string {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return ActionWrite
	default:
		return ActionRead
	}
}
