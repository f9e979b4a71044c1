// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/collect-biometrics", "200"))
	RecordAPIRequest("POST", "/collect-biometrics", "200", 12*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/collect-biometrics", "200"))
	if after-before != 1 {
		t.Errorf("api_requests_total delta = %v, want 1", after-before)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("active = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("active = %v, want %v", got, before)
	}
}

func TestRecordDecision(t *testing.T) {
	for _, outcome := range []string{"continue", "terminate"} {
		before := testutil.ToFloat64(DecisionsTotal.WithLabelValues(outcome))
		RecordDecision(outcome)
		if got := testutil.ToFloat64(DecisionsTotal.WithLabelValues(outcome)); got != before+1 {
			t.Errorf("decisions{%s} = %v, want %v", outcome, got, before+1)
		}
	}
}

func TestRecordScorerCall(t *testing.T) {
	before := testutil.ToFloat64(ScorerErrors.WithLabelValues("status"))
	RecordScorerCall(time.Millisecond, "")
	if got := testutil.ToFloat64(ScorerErrors.WithLabelValues("status")); got != before {
		t.Errorf("successful call counted as error")
	}
	RecordScorerCall(time.Millisecond, "status")
	if got := testutil.ToFloat64(ScorerErrors.WithLabelValues("status")); got != before+1 {
		t.Errorf("scorer errors = %v, want %v", got, before+1)
	}
}

func TestRecordPersistence(t *testing.T) {
	before := testutil.ToFloat64(PersistenceErrors.WithLabelValues("append_anomaly"))
	RecordPersistence("append_anomaly", time.Millisecond, nil)
	RecordPersistence("append_anomaly", time.Millisecond, errors.New("disk full"))
	if got := testutil.ToFloat64(PersistenceErrors.WithLabelValues("append_anomaly")); got != before+1 {
		t.Errorf("persistence errors = %v, want %v", got, before+1)
	}
}

func TestRecordNotification(t *testing.T) {
	s := testutil.ToFloat64(NotificationsSent.WithLabelValues("webhook", "success"))
	f := testutil.ToFloat64(NotificationsSent.WithLabelValues("webhook", "failure"))
	RecordNotification("webhook", nil)
	RecordNotification("webhook", errors.New("502"))
	if got := testutil.ToFloat64(NotificationsSent.WithLabelValues("webhook", "success")); got != s+1 {
		t.Errorf("success = %v, want %v", got, s+1)
	}
	if got := testutil.ToFloat64(NotificationsSent.WithLabelValues("webhook", "failure")); got != f+1 {
		t.Errorf("failure = %v, want %v", got, f+1)
	}
}
