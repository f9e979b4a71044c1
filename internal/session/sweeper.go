// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package session

import (
	"context"
	"time"

	"github.com/tomtom215/cbbaguard/internal/logging"
)

// Sweeper periodically evicts idle sessions. It implements suture.Service.
type Sweeper struct {
	manager  *Manager
	interval time.Duration
}

// NewSweeper creates a Sweeper that calls manager.Sweep every interval.
func NewSweeper(manager *Manager, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{manager: manager, interval: interval}
}

// Serve runs until ctx is canceled.
func (s *Sweeper) Serve(ctx context.Context) error {
	logger := logging.WithComponent("session-sweeper")
	logger.Info().Dur("interval", s.interval).Dur("idle_ttl", s.manager.cfg.IdleTTL).Msg("session sweeper started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Int("sessions", s.manager.Len()).Msg("session sweeper stopped")
			return ctx.Err()
		case now := <-ticker.C:
			s.manager.Sweep(now)
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (s *Sweeper) String() string {
	return "session-sweeper"
}
