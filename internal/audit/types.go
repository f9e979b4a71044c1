// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package audit

import (
	"time"
)

// ActionAnomalyDetected is the audit action written when a session is
// terminated for anomalous behavior.
const ActionAnomalyDetected = "CBBA_ANOMALY_DETECTED"

// Alert classification.
const (
	CategorySecurity = "Security"

	SeverityCritical = "Critical"

	AlertStatusActive   = "Active"
	AlertStatusResolved = "Resolved"
)

// Record is one append-only audit log entry.
type Record struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Username  string    `json:"username"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	IPAddress string    `json:"ip_address,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
}

// Alert is a security alert raised for operators. Alerts are created
// Active; resolving them happens outside this service.
type Alert struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	Status    string    `json:"status"`
	Username  string    `json:"username"`
	SessionID string    `json:"session_id"`
}
