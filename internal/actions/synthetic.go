// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package actions

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/tomtom215/cbbaguard/internal/logging"
	"github.com/tomtom215/cbbaguard/internal/metrics"
	"github.com/tomtom215/cbbaguard/internal/session"
)

// DefaultAnomalyProbability is the chance that SyntheticSource emits a bulk export.
const DefaultAnomalyProbability = 0.05

const (
	normalBaseKB   = 10
	normalSpreadKB = 50
	bulkBaseKB     = 2000
	bulkSpreadKB   = 3000
)

// RNG is the subset of *rand.Rand used by SyntheticSource.
type RNG interface {
	Float64() float64
	IntN(n int) int
}

// SyntheticConfig configures a SyntheticSource.
type SyntheticConfig struct {
	AnomalyProbability float64
	// RNG defaults to a PCG generator seeded from the clock.
	RNG RNG
	Now func() time.Time
}

// SyntheticSource generates query activity, occasionally injecting a
// BULK_DATA_EXPORT action sized far outside the normal range.
type SyntheticSource struct {
	mu          sync.Mutex
	rng         RNG
	probability float64
	now         func() time.Time
}

// NewSyntheticSource creates a SyntheticSource.
func NewSyntheticSource(cfg SyntheticConfig) *SyntheticSource {
	if cfg.RNG == nil {
		seed := uint64(time.Now().UnixNano())
		cfg.RNG = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &SyntheticSource{
		rng:         cfg.RNG,
		probability: cfg.AnomalyProbability,
		now:         cfg.Now,
	}
}

// Next implements Source. It returns exactly one action and never fails.
func (s *SyntheticSource) Next(ctx context.Context, id Identity) ([]session.ActionEvent, error) {
	s.mu.Lock()
	anomalous := s.rng.Float64() < s.probability
	var size int
	if anomalous {
		size = bulkBaseKB + s.rng.IntN(bulkSpreadKB)
	} else {
		size = normalBaseKB + s.rng.IntN(normalSpreadKB)
	}
	s.mu.Unlock()

	ev := session.ActionEvent{
		Timestamp:   float64(s.now().Unix()),
		User:        id.Username,
		SessionID:   id.SessionID,
		EventType:   EventSimulatedQuery,
		QuerySizeKB: size,
	}
	if anomalous {
		ev.EventType = EventBulkDataExport
		metrics.SyntheticAnomaliesInjected.Inc()
		logging.Ctx(ctx).Warn().
			Str("user", id.Username).
			Int("query_size_kb", size).
			Msg("injected synthetic bulk data export")
	}
	return []session.ActionEvent{ev}, nil
}
