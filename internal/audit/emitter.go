// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/cbbaguard/internal/logging"
)

// AnomalyInput describes a terminated session. Score is nil when the
// scorer could not produce a verdict; Cause then carries the scoring error.
type AnomalyInput struct {
	Username  string
	SessionID string
	IPAddress string
	Score     *float64
	Features  map[string]float64
	Cause     error
}

// Emitter turns anomaly decisions into persisted audit records and alerts.
type Emitter struct {
	store Store
	now   func() time.Time
	newID func() string
}

// NewEmitter creates an Emitter writing to store.
func NewEmitter(store Store) *Emitter {
	return &Emitter{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// RecordAnomaly persists the audit record and alert for a terminated
// session and returns the stored alert. Nothing is written on error.
func (e *Emitter) RecordAnomaly(ctx context.Context, in AnomalyInput) (*Alert, error) {
	now := e.now().UTC()

	record := &Record{
		ID:        e.newID(),
		Timestamp: now,
		Username:  in.Username,
		Action:    ActionAnomalyDetected,
		Details:   FormatDetails(in.Score, in.Features, in.Cause),
		IPAddress: in.IPAddress,
		SessionID: in.SessionID,
	}
	alert := &Alert{
		ID:        e.newID(),
		Timestamp: now,
		Category:  CategorySecurity,
		Message:   FormatAlertMessage(in.Username, in.SessionID, in.Score),
		Severity:  SeverityCritical,
		Status:    AlertStatusActive,
		Username:  in.Username,
		SessionID: in.SessionID,
	}

	if err := e.store.AppendAnomaly(ctx, record, alert); err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Warn().
		Str("username", in.Username).
		Str("alert_id", alert.ID).
		Str("audit_id", record.ID).
		Msg("CBBA anomaly recorded")

	return alert, nil
}

// FormatDetails renders the audit details for an anomaly decision.
func FormatDetails(score *float64, features map[string]float64, cause error) string {
	if score == nil {
		return fmt.Sprintf("Scoring unavailable: %v", cause)
	}
	if features == nil {
		features = map[string]float64{}
	}
	encoded, err := json.Marshal(features)
	if err != nil {
		encoded = []byte("{}")
	}
	return fmt.Sprintf("Anomaly Score: %.4f, Features: %s", *score, encoded)
}

// FormatAlertMessage renders the operator-facing alert text.
func FormatAlertMessage(username, sessionID string, score *float64) string {
	scoreText := "unavailable"
	if score != nil {
		scoreText = fmt.Sprintf("%.4f", *score)
	}
	return fmt.Sprintf("CBBA Anomaly for user %s (Session: %s). Score: %s", username, sessionID, scoreText)
}
