// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package actions

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/tomtom215/cbbaguard/internal/session"
)

// fixedRNG returns scripted values so both branches can be exercised.
type fixedRNG struct {
	float float64
	intn  int
}

func (r *fixedRNG) Float64() float64 { return r.float }
func (r *fixedRNG) IntN(n int) int {
	if r.intn >= n {
		return n - 1
	}
	return r.intn
}

var fixedNow = func() time.Time { return time.Unix(1_760_000_000, 0) }

// nextOne calls Next and requires exactly one action.
func nextOne(t *testing.T, src *SyntheticSource, id Identity) session.ActionEvent {
	t.Helper()
	evs, err := src.Next(context.Background(), id)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if len(evs) != 1 {
		t.Fatalf("Next() returned %d actions, want 1", len(evs))
	}
	return evs[0]
}

func TestSyntheticSource_NormalAction(t *testing.T) {
	src := NewSyntheticSource(SyntheticConfig{
		AnomalyProbability: DefaultAnomalyProbability,
		RNG:                &fixedRNG{float: 0.5, intn: 7},
		Now:                fixedNow,
	})

	ev := nextOne(t, src, Identity{Username: "alice", SessionID: "s1"})
	if ev.EventType != EventSimulatedQuery {
		t.Errorf("EventType = %q, want %q", ev.EventType, EventSimulatedQuery)
	}
	if ev.QuerySizeKB != 17 {
		t.Errorf("QuerySizeKB = %d, want 17", ev.QuerySizeKB)
	}
	if ev.User != "alice" || ev.SessionID != "s1" {
		t.Errorf("attribution = %q/%q, want alice/s1", ev.User, ev.SessionID)
	}
	if ev.Timestamp != 1_760_000_000 {
		t.Errorf("Timestamp = %v, want 1760000000", ev.Timestamp)
	}
}

func TestSyntheticSource_AnomalousAction(t *testing.T) {
	src := NewSyntheticSource(SyntheticConfig{
		AnomalyProbability: DefaultAnomalyProbability,
		RNG:                &fixedRNG{float: 0.01, intn: 100},
		Now:                fixedNow,
	})

	ev := nextOne(t, src, Identity{Username: "mallory", SessionID: "s2"})
	if ev.EventType != EventBulkDataExport {
		t.Errorf("EventType = %q, want %q", ev.EventType, EventBulkDataExport)
	}
	if ev.QuerySizeKB != 2100 {
		t.Errorf("QuerySizeKB = %d, want 2100", ev.QuerySizeKB)
	}
}

func TestSyntheticSource_ProbabilityBounds(t *testing.T) {
	tests := []struct {
		name string
		p    float64
		want string
	}{
		{"never", 0, EventSimulatedQuery},
		{"always", 1, EventBulkDataExport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewSyntheticSource(SyntheticConfig{
				AnomalyProbability: tt.p,
				RNG:                rand.New(rand.NewPCG(1, 2)),
			})
			for i := 0; i < 200; i++ {
				ev := nextOne(t, src, Identity{SessionID: "s"})
				if ev.EventType != tt.want {
					t.Fatalf("iteration %d: EventType = %q, want %q", i, ev.EventType, tt.want)
				}
			}
		})
	}
}

func TestSyntheticSource_SizeRanges(t *testing.T) {
	src := NewSyntheticSource(SyntheticConfig{
		AnomalyProbability: 0.5,
		RNG:                rand.New(rand.NewPCG(42, 7)),
	})
	sawNormal, sawBulk := false, false
	for i := 0; i < 1000; i++ {
		ev := nextOne(t, src, Identity{SessionID: "s"})
		switch ev.EventType {
		case EventSimulatedQuery:
			sawNormal = true
			if ev.QuerySizeKB < 10 || ev.QuerySizeKB >= 60 {
				t.Fatalf("normal size %d outside [10,60)", ev.QuerySizeKB)
			}
		case EventBulkDataExport:
			sawBulk = true
			if ev.QuerySizeKB < 2000 || ev.QuerySizeKB >= 5000 {
				t.Fatalf("bulk size %d outside [2000,5000)", ev.QuerySizeKB)
			}
		default:
			t.Fatalf("unexpected event type %q", ev.EventType)
		}
	}
	if !sawNormal || !sawBulk {
		t.Errorf("sawNormal=%v sawBulk=%v, want both", sawNormal, sawBulk)
	}
}
