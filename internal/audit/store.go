// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package audit

import (
	"context"
	"errors"
	"sync"
)

// Listing bounds shared by every Store.
const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// Store persists audit records and alerts.
type Store interface {
	// AppendAnomaly writes the record and the alert atomically.
	AppendAnomaly(ctx context.Context, record *Record, alert *Alert) error

	// ListRecords returns the most recent records, newest first.
	ListRecords(ctx context.Context, limit int) ([]Record, error)

	// ListActiveAlerts returns Active alerts, newest first.
	ListActiveAlerts(ctx context.Context, limit int) ([]Alert, error)
}

// ClampLimit maps a caller supplied limit into [1, MaxListLimit], using
// DefaultListLimit for zero or negative values.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// MemoryStore implements Store using in-memory storage.
// Suitable for development and testing. Data is lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
	alerts  []Alert
	maxLen  int
}

// NewMemoryStore creates a new in-memory store holding at most maxLen
// records and maxLen alerts.
func NewMemoryStore(maxLen int) *MemoryStore {
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &MemoryStore{
		records: make([]Record, 0, 64),
		alerts:  make([]Alert, 0, 64),
		maxLen:  maxLen,
	}
}

// AppendAnomaly stores both rows under one lock.
func (s *MemoryStore) AppendAnomaly(ctx context.Context, record *Record, alert *Alert) error {
	if record == nil || alert == nil {
		return &StorageError{Op: OpAppendAnomaly, Err: errors.New("record and alert are required")}
	}
	if err := ctx.Err(); err != nil {
		return &StorageError{Op: OpAppendAnomaly, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Remove oldest 10% once full
	if len(s.records) >= s.maxLen {
		s.records = s.records[max(1, s.maxLen/10):]
	}
	if len(s.alerts) >= s.maxLen {
		s.alerts = s.alerts[max(1, s.maxLen/10):]
	}

	s.records = append(s.records, *record)
	s.alerts = append(s.alerts, *alert)
	return nil
}

// ListRecords returns the most recent records, newest first.
func (s *MemoryStore) ListRecords(ctx context.Context, limit int) ([]Record, error) {
	limit = ClampLimit(limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]Record, 0, min(limit, len(s.records)))
	for i := len(s.records) - 1; i >= 0 && len(results) < limit; i-- {
		results = append(results, s.records[i])
	}
	return results, nil
}

// ListActiveAlerts returns Active alerts, newest first.
func (s *MemoryStore) ListActiveAlerts(ctx context.Context, limit int) ([]Alert, error) {
	limit = ClampLimit(limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []Alert
	for i := len(s.alerts) - 1; i >= 0 && len(results) < limit; i-- {
		if s.alerts[i].Status == AlertStatusActive {
			results = append(results, s.alerts[i])
		}
	}
	if results == nil {
		results = []Alert{}
	}
	return results, nil
}

// Len returns the number of stored records and alerts.
func (s *MemoryStore) Len() (records, alerts int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), len(s.alerts)
}
