// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

// Package actions supplies the privileged-action events that are correlated
// with each behavioral batch.
//
// Two sources exist. SyntheticSource fabricates query activity with a small
// probability of a bulk-export style anomaly so the decision pipeline can be
// exercised without a live feed. FeedSource consumes real privileged-action
// audit events from a watermill subscriber (NATS JetStream in production).
package actions

import (
	"context"

	"github.com/tomtom215/cbbaguard/internal/session"
)

// Action event types.
const (
	EventSimulatedQuery = "SIMULATED_QUERY"
	EventBulkDataExport = "BULK_DATA_EXPORT"
)

// Identity is the caller a privileged action is attributed to.
type Identity struct {
	Username  string
	SessionID string
}

// Source returns the privileged actions that belong in the window of the
// next behavioral batch, oldest first. An empty result is valid.
type Source interface {
	Next(ctx context.Context, id Identity) ([]session.ActionEvent, error)
}
