// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tomtom215/cbbaguard/internal/audit"
	"github.com/tomtom215/cbbaguard/internal/detection"
	"github.com/tomtom215/cbbaguard/internal/logging"
)

func init() {
	logging.Init(logging.Config{Level: "disabled", Format: "json"})
}

// mockEngine records batches and replies with a canned result or error.
type mockEngine struct {
	mu      sync.Mutex
	batches []detection.Batch
	result  *detection.Result
	err     error
}

func (m *mockEngine) ProcessBatch(_ context.Context, b detection.Batch) (*detection.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, b)
	return m.result, m.err
}

func (m *mockEngine) calls() []detection.Batch {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]detection.Batch, len(m.batches))
	copy(out, m.batches)
	return out
}

// mockAudit serves fixed lists and records the requested limits.
type mockAudit struct {
	mu      sync.Mutex
	records []audit.Record
	alerts  []audit.Alert
	err     error
	limits  []int
}

func (m *mockAudit) ListRecords(_ context.Context, limit int) ([]audit.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limits = append(m.limits, limit)
	return m.records, m.err
}

func (m *mockAudit) ListActiveAlerts(_ context.Context, limit int) ([]audit.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limits = append(m.limits, limit)
	return m.alerts, m.err
}

func (m *mockAudit) lastLimit() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.limits) == 0 {
		return 0
	}
	return m.limits[len(m.limits)-1]
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(context.Context) error {
	return m.err
}

var errBoom = errors.New("boom")

func floatPtr(f float64) *float64 { return &f }

func sampleRecord() audit.Record {
	return audit.Record{
		ID:        "rec-1",
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Username:  "alice",
		Action:    audit.ActionAnomalyDetected,
		Details:   "Score: 0.9100",
		SessionID: "s2",
	}
}
