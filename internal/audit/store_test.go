// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package audit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func appendN(t *testing.T, s *MemoryStore, n int) {
	t.Helper()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%03d", i)
		err := s.AppendAnomaly(context.Background(),
			&Record{ID: "r" + id, Timestamp: base.Add(time.Duration(i) * time.Second), Action: ActionAnomalyDetected},
			&Alert{ID: "a" + id, Timestamp: base.Add(time.Duration(i) * time.Second), Status: AlertStatusActive},
		)
		if err != nil {
			t.Fatalf("AppendAnomaly() error = %v", err)
		}
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, DefaultListLimit},
		{-5, DefaultListLimit},
		{1, 1},
		{250, 250},
		{MaxListLimit + 1, MaxListLimit},
	}
	for _, tt := range tests {
		if got := ClampLimit(tt.in); got != tt.want {
			t.Errorf("ClampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestMemoryStore_ListRecords_NewestFirst(t *testing.T) {
	s := NewMemoryStore(100)
	appendN(t, s, 5)

	got, err := s.ListRecords(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, want := range []string{"r004", "r003", "r002"} {
		if got[i].ID != want {
			t.Errorf("records[%d].ID = %q, want %q", i, got[i].ID, want)
		}
	}
}

func TestMemoryStore_ListActiveAlerts_SkipsResolved(t *testing.T) {
	s := NewMemoryStore(100)
	appendN(t, s, 2)
	_ = s.AppendAnomaly(context.Background(), &Record{ID: "r-x"}, &Alert{ID: "a-x", Status: AlertStatusResolved})

	got, _ := s.ListActiveAlerts(context.Background(), 0)
	if len(got) != 2 {
		t.Fatalf("active alerts = %d, want 2", len(got))
	}
	if got[0].ID != "a001" {
		t.Errorf("first alert = %q, want a001", got[0].ID)
	}
}

func TestMemoryStore_EmptyListsAreNonNil(t *testing.T) {
	s := NewMemoryStore(0)
	records, _ := s.ListRecords(context.Background(), 0)
	alerts, _ := s.ListActiveAlerts(context.Background(), 0)
	if records == nil || alerts == nil {
		t.Errorf("records = %v, alerts = %v, want empty non-nil slices", records, alerts)
	}
}

func TestMemoryStore_EvictsOldest(t *testing.T) {
	s := NewMemoryStore(10)
	appendN(t, s, 11)

	records, alerts := s.Len()
	if records != 10 || alerts != 10 {
		t.Errorf("Len() = %d/%d, want 10/10", records, alerts)
	}
	got, _ := s.ListRecords(context.Background(), MaxListLimit)
	if got[len(got)-1].ID != "r001" {
		t.Errorf("oldest record = %q, want r001", got[len(got)-1].ID)
	}
}

func TestMemoryStore_AppendAnomaly_Rejects(t *testing.T) {
	s := NewMemoryStore(10)

	if err := s.AppendAnomaly(context.Background(), nil, &Alert{}); !IsStorageError(err) {
		t.Errorf("nil record: error = %v, want *StorageError", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.AppendAnomaly(ctx, &Record{}, &Alert{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("canceled ctx: error = %v, want context.Canceled", err)
	}
	if r, a := s.Len(); r != 0 || a != 0 {
		t.Errorf("Len() = %d/%d after rejected writes, want 0/0", r, a)
	}
}

func TestStorageError(t *testing.T) {
	inner := errors.New("io error")
	err := &StorageError{Op: OpListRecords, Err: inner}
	if err.Error() != "audit list_records: io error" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("errors.Is(err, inner) = false")
	}
	if IsStorageError(inner) {
		t.Error("IsStorageError(plain error) = true")
	}
}
