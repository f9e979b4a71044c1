// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package detection

import (
	"context"
	"net/http"

	"github.com/tomtom215/cbbaguard/internal/audit"
	"github.com/tomtom215/cbbaguard/internal/scoring"
	"github.com/tomtom215/cbbaguard/internal/session"
)

// Response messages returned to the collecting client.
const (
	MessageNormal      = "Behavior is normal."
	MessageTerminated  = "Anomaly detected. Session terminated."
	MessageUnavailable = "Behavior check unavailable."
)

// Decision outcomes, used as the metrics label.
const (
	OutcomeContinue    = "continue"
	OutcomeTerminate   = "terminate"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

// AlertMessageType is the websocket message type for anomaly alerts.
const AlertMessageType = "cbba_alert"

// Batch is one upload of behavioral events from an authenticated caller.
type Batch struct {
	Username  string
	SessionID string
	IPAddress string
	Events    []session.BehavioralEvent
}

// Result is the decision for one batch. Score is nil when no verdict was
// available.
type Result struct {
	Status  int      `json:"-"`
	Outcome string   `json:"-"`
	Message string   `json:"message"`
	Score   *float64 `json:"score"`
}

// Terminated reports whether the session was ended by this decision.
func (r *Result) Terminated() bool {
	return r.Status == http.StatusForbidden
}

// Scorer produces an anomaly verdict for an assembled payload.
type Scorer interface {
	Score(ctx context.Context, p scoring.Payload) (*scoring.Verdict, error)
}

// Recorder persists the evidence of a terminated session.
type Recorder interface {
	RecordAnomaly(ctx context.Context, in audit.AnomalyInput) (*audit.Alert, error)
}

// Notifier delivers an alert to an external channel.
type Notifier interface {
	// Send delivers an alert to the notification channel.
	Send(ctx context.Context, alert *audit.Alert) error

	// Name returns the notifier name (e.g., "webhook").
	Name() string

	// Enabled returns whether this notifier is enabled.
	Enabled() bool
}

// AlertBroadcaster broadcasts alerts via WebSocket.
type AlertBroadcaster interface {
	BroadcastJSON(messageType string, data interface{})
}
