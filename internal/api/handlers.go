// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package api

import (
	"context"
	"time"

	"github.com/tomtom215/cbbaguard/internal/audit"
	"github.com/tomtom215/cbbaguard/internal/config"
	"github.com/tomtom215/cbbaguard/internal/detection"
	ws "github.com/tomtom215/cbbaguard/internal/websocket"
)

// BatchProcessor runs one behavioral batch through the decision pipeline.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, b detection.Batch) (*detection.Result, error)
}

// AuditReader lists persisted audit records and alerts.
type AuditReader interface {
	ListRecords(ctx context.Context, limit int) ([]audit.Record, error)
	ListActiveAlerts(ctx context.Context, limit int) ([]audit.Alert, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains dependencies for API handlers
//
// Handler methods are split across files:
//   - handlers_collect.go: behavioral batch upload
//   - handlers_audit.go: audit log and alert listings
//   - handlers_health.go: liveness and readiness checks
//   - handlers_websocket.go: alert stream upgrade
type Handler struct {
	engine    BatchProcessor
	audit     AuditReader
	db        Pinger
	wsHub     *ws.Hub
	config    *config.Config
	startTime time.Time
}

// NewHandler creates the API handler. db and wsHub may be nil: readiness
// then skips the database check and /ws/alerts answers 503.
func NewHandler(engine BatchProcessor, auditReader AuditReader, db Pinger, wsHub *ws.Hub, cfg *config.Config) *Handler {
	return &Handler{
		engine:    engine,
		audit:     auditReader,
		db:        db,
		wsHub:     wsHub,
		config:    cfg,
		startTime: time.Now(),
	}
}

func (h *Handler) maxBatchSize() int {
	if h.config == nil {
		return 0
	}
	return h.config.Session.MaxBatchSize
}

func (h *Handler) corsOrigins() []string {
	if h.config == nil {
		return nil
	}
	return h.config.Security.CORSOrigins
}
