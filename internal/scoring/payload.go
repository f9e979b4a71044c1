// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

// Package scoring talks to the external anomaly scoring service.
//
// AssemblePayload turns a session buffer into the request body and Client
// posts it to {base}/predict_anomaly. Every failure, including a response
// that carries no verdict, is returned as a *ScoringError; the client never
// invents a verdict. What to do about a failure is decided by the caller.
package scoring

import (
	"github.com/tomtom215/cbbaguard/internal/session"
)

// Prediction codes returned by the scorer.
const (
	PredictionInlier  = 1
	PredictionOutlier = -1
)

// Payload is the body sent to the scorer.
type Payload struct {
	BiometricEvents []session.BehavioralEvent `json:"biometric_events"`
	DBEvents        []session.ActionEvent     `json:"db_events"`
}

// AssemblePayload includes every event accumulated since the last decision.
// Empty sequences are sent as [] rather than null.
func AssemblePayload(buf session.Buffer) Payload {
	p := Payload{
		BiometricEvents: buf.Behavioral,
		DBEvents:        buf.Actions,
	}
	if p.BiometricEvents == nil {
		p.BiometricEvents = []session.BehavioralEvent{}
	}
	if p.DBEvents == nil {
		p.DBEvents = []session.ActionEvent{}
	}
	return p
}

// Verdict is the scorer's judgement of one payload.
type Verdict struct {
	Score      float64            `json:"anomaly_score"`
	Prediction int                `json:"prediction"`
	IsAnomaly  bool               `json:"is_anomaly"`
	Features   map[string]float64 `json:"features"`
}

// verdictResponse distinguishes a missing is_anomaly from false.
type verdictResponse struct {
	Score      *float64           `json:"anomaly_score"`
	Prediction int                `json:"prediction"`
	IsAnomaly  *bool              `json:"is_anomaly"`
	Features   map[string]float64 `json:"features"`
	Status     string             `json:"status"`
}
