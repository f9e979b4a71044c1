// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/cbbaguard/internal/auth"
	"github.com/tomtom215/cbbaguard/internal/authz"
	"github.com/tomtom215/cbbaguard/internal/middleware"
)

// Route paths, shared with the authorization policy.
const (
	PathCollect   = "/collect-biometrics"
	PathAuditLogs = "/api/v1/audit-logs"
	PathAlerts    = "/api/v1/alerts"
	PathWSAlerts  = "/ws/alerts"
)

// Router sets up HTTP routes using Chi router.
type Router struct {
	handler         *Handler
	authMiddleware  *auth.Middleware
	authzMiddleware *authz.Middleware
	chiMiddleware   *ChiMiddleware
}

// NewRouter creates a router. chiMW may be nil for defaults.
func NewRouter(handler *Handler, authMW *auth.Middleware, authzMW *authz.Middleware, chiMW *ChiMiddleware) *Router {
	if chiMW == nil {
		chiMW = NewChiMiddleware(nil)
	}
	return &Router{
		handler:         handler,
		authMiddleware:  authMW,
		authzMiddleware: authzMW,
		chiMiddleware:   chiMW,
	}
}

// SetupChi builds the complete route tree.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Applied to ALL routes in order
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight
	r.Use(auth.SecurityHeaders)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusNotFound, ErrCodeNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
	})

	r.Route("/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitHealth))
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Handle("/metrics", promhttp.Handler())

	// Any authenticated caller may submit behavior for its own session.
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(router.authMiddleware.Authenticate)
		r.Post(PathCollect, router.handler.Collect)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(router.authMiddleware.Authenticate)

		r.Get("/audit-logs", router.authzMiddleware.Authorize(PathAuditLogs, authz.ActionRead, router.handler.AuditLogs))
		r.Get("/alerts", router.authzMiddleware.Authorize(PathAlerts, authz.ActionRead, router.handler.Alerts))
	})

	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitWebSocket))
		r.Use(router.authMiddleware.Authenticate)
		r.Get(PathWSAlerts, router.authzMiddleware.Authorize(PathWSAlerts, authz.ActionRead, router.handler.WebSocket))
	})

	return r
}
