// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package detection

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/tomtom215/cbbaguard/internal/actions"
	"github.com/tomtom215/cbbaguard/internal/audit"
	"github.com/tomtom215/cbbaguard/internal/config"
	"github.com/tomtom215/cbbaguard/internal/logging"
	"github.com/tomtom215/cbbaguard/internal/metrics"
	"github.com/tomtom215/cbbaguard/internal/scoring"
	"github.com/tomtom215/cbbaguard/internal/session"
)

const defaultFanOutTimeout = 15 * time.Second

// EngineConfig configures the decision engine.
type EngineConfig struct {
	// FailurePolicy is config.FailClosed (default) or config.FailOpen.
	FailurePolicy string

	// FanOutTimeout bounds each notifier delivery.
	FanOutTimeout time.Duration
}

// Engine runs the per-batch decision cycle.
type Engine struct {
	sessions    *session.Manager
	source      actions.Source
	scorer      Scorer
	recorder    Recorder
	broadcaster AlertBroadcaster
	cfg         EngineConfig

	mu        sync.RWMutex
	notifiers []Notifier
	closing   bool

	fanOut sync.WaitGroup
}

// NewEngine creates a decision engine. broadcaster may be nil.
func NewEngine(
	sessions *session.Manager,
	source actions.Source,
	scorer Scorer,
	recorder Recorder,
	broadcaster AlertBroadcaster,
	cfg EngineConfig,
) *Engine {
	if cfg.FailurePolicy == "" {
		cfg.FailurePolicy = config.FailClosed
	}
	if cfg.FanOutTimeout <= 0 {
		cfg.FanOutTimeout = defaultFanOutTimeout
	}
	return &Engine{
		sessions:    sessions,
		source:      source,
		scorer:      scorer,
		recorder:    recorder,
		broadcaster: broadcaster,
		cfg:         cfg,
	}
}

// RegisterNotifier adds a notifier to the engine.
func (e *Engine) RegisterNotifier(notifier Notifier) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.notifiers = append(e.notifiers, notifier)
	logging.Info().Str("notifier", notifier.Name()).Msg("registered notifier")
}

// ProcessBatch appends the batch to its session, scores the whole buffer and
// applies the decision. Errors are returned only when no decision could be
// applied: session.ErrEmptyKey, an actions.Source failure, or an
// *audit.StorageError while recording a termination. In each case the
// session's buffer is left as it was before the decision step.
func (e *Engine) ProcessBatch(ctx context.Context, b Batch) (*Result, error) {
	// The decision must complete once the batch is accepted.
	ctx = logging.ContextWithSessionID(context.WithoutCancel(ctx), b.SessionID)

	var (
		result *Result
		alert  *audit.Alert
	)
	err := e.sessions.WithSession(b.SessionID, func(tx *session.Tx) error {
		acts, err := e.source.Next(ctx, actions.Identity{Username: b.Username, SessionID: b.SessionID})
		if err != nil {
			return err
		}
		tx.Append(b.Events, acts)

		snapshot := tx.Snapshot()
		if snapshot.Empty() {
			// The scorer answers an empty window with no_activity, not a verdict.
			logging.Ctx(ctx).Debug().Str("username", b.Username).Msg("empty window, nothing to score")
			result = &Result{Status: http.StatusOK, Outcome: OutcomeContinue, Message: MessageNormal}
			return nil
		}

		payload := scoring.AssemblePayload(snapshot)
		verdict, scoreErr := e.scorer.Score(ctx, payload)

		if scoreErr != nil {
			if e.cfg.FailurePolicy == config.FailOpen {
				logging.Ctx(ctx).Warn().Err(scoreErr).Str("username", b.Username).
					Int("behavioral_events", len(payload.BiometricEvents)).
					Msg("scorer unavailable, keeping buffer (fail_open)")
				result = &Result{Status: http.StatusOK, Outcome: OutcomeUnavailable, Message: MessageUnavailable}
				return nil
			}
			logging.Ctx(ctx).Warn().Err(scoreErr).Str("username", b.Username).
				Msg("scorer unavailable, terminating session (fail_closed)")
			alert, err = e.terminate(ctx, tx, b, nil, nil, scoreErr)
			if err != nil {
				return err
			}
			result = &Result{Status: http.StatusForbidden, Outcome: OutcomeTerminate, Message: MessageTerminated}
			return nil
		}

		score := verdict.Score
		if verdict.IsAnomaly {
			alert, err = e.terminate(ctx, tx, b, &score, verdict.Features, nil)
			if err != nil {
				return err
			}
			result = &Result{Status: http.StatusForbidden, Outcome: OutcomeTerminate, Message: MessageTerminated, Score: &score}
			return nil
		}

		logging.Ctx(ctx).Info().Str("username", b.Username).Float64("anomaly_score", score).
			Msg("CBBA behavior normal")
		tx.Clear()
		result = &Result{Status: http.StatusOK, Outcome: OutcomeContinue, Message: MessageNormal, Score: &score}
		return nil
	})
	if err != nil {
		if !errors.Is(err, session.ErrEmptyKey) {
			metrics.RecordDecision(OutcomeError)
			logging.Ctx(ctx).Error().Err(err).Str("username", b.Username).Msg("CBBA decision failed")
		}
		return nil, err
	}

	metrics.RecordDecision(result.Outcome)
	if alert != nil {
		e.dispatch(alert)
	}
	return result, nil
}

// terminate records the anomaly and removes the session. On a recording
// error the session is kept so the next batch re-detects the anomaly.
func (e *Engine) terminate(
	ctx context.Context,
	tx *session.Tx,
	b Batch,
	score *float64,
	features map[string]float64,
	cause error,
) (*audit.Alert, error) {
	alert, err := e.recorder.RecordAnomaly(ctx, audit.AnomalyInput{
		Username:  b.Username,
		SessionID: b.SessionID,
		IPAddress: b.IPAddress,
		Score:     score,
		Features:  features,
		Cause:     cause,
	})
	if err != nil {
		return nil, err
	}
	tx.Remove()

	ev := logging.Ctx(ctx).Warn().Str("username", b.Username).Str("alert_id", alert.ID)
	if score != nil {
		ev = ev.Float64("anomaly_score", *score)
	}
	ev.Msg("CBBA anomaly detected, session terminated")
	return alert, nil
}

// dispatch fans the alert out to the websocket hub and enabled notifiers
// without blocking the caller.
func (e *Engine) dispatch(alert *audit.Alert) {
	if e.broadcaster != nil {
		e.broadcaster.BroadcastJSON(AlertMessageType, alert)
	}

	e.mu.RLock()
	notifiers := make([]Notifier, 0, len(e.notifiers))
	for _, n := range e.notifiers {
		if n.Enabled() {
			notifiers = append(notifiers, n)
		}
	}
	// Add under the read lock so Close never starts waiting before it.
	async := !e.closing
	if async {
		e.fanOut.Add(len(notifiers))
	}
	e.mu.RUnlock()

	for _, n := range notifiers {
		if !async {
			e.notify(n, alert)
			continue
		}
		go func(n Notifier) {
			defer e.fanOut.Done()
			e.notify(n, alert)
		}(n)
	}
}

// notify delivers one alert bounded by FanOutTimeout.
func (e *Engine) notify(n Notifier, alert *audit.Alert) {
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.FanOutTimeout)
	defer cancel()

	err := n.Send(ctx, alert)
	metrics.RecordNotification(n.Name(), err)
	if err != nil {
		logging.Error().Err(err).Str("notifier", n.Name()).Str("alert_id", alert.ID).
			Msg("failed to send alert notification")
	}
}

// Close waits for in-flight notifier deliveries. Alerts raised after Close
// has begun are delivered synchronously by the caller.
func (e *Engine) Close() error {
	e.mu.Lock()
	e.closing = true
	e.mu.Unlock()

	e.fanOut.Wait()
	return nil
}
