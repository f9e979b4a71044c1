// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Session buffers
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cbba_sessions_active",
			Help: "Number of session buffers currently held in memory",
		},
	)

	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cbba_sessions_created_total",
			Help: "Total number of session buffers created",
		},
	)

	SessionsEvicted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cbba_sessions_evicted_total",
			Help: "Total number of session buffers removed",
		},
		[]string{"reason"}, // terminated, idle
	)

	EventsBuffered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cbba_events_buffered_total",
			Help: "Total number of events appended to session buffers",
		},
		[]string{"kind"}, // behavioral, action
	)

	EventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cbba_events_dropped_total",
			Help: "Behavioral events dropped because a session buffer reached its cap",
		},
	)

	// Decisions
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cbba_decisions_total",
			Help: "Total number of decision cycles by outcome",
		},
		[]string{"outcome"}, // continue, terminate, scorer_fail_open, scorer_fail_closed, error
	)

	AnomalyScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cbba_anomaly_score",
			Help:    "Distribution of anomaly scores returned by the scorer",
			Buckets: prometheus.LinearBuckets(-1, 0.2, 11),
		},
	)

	SyntheticAnomaliesInjected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cbba_synthetic_anomalies_injected_total",
			Help: "Anomalous privileged actions emitted by the synthetic source",
		},
	)

	// Scorer
	ScorerRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cbba_scorer_request_duration_seconds",
			Help:    "Latency of calls to the anomaly scoring service",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	ScorerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cbba_scorer_errors_total",
			Help: "Scoring failures by operation",
		},
		[]string{"op"}, // request, status, decode, no_verdict, breaker
	)

	// Circuit breaker
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Persistence
	PersistenceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB statements in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	PersistenceErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of failed DuckDB statements",
		},
		[]string{"operation"},
	)

	// Alert fan-out
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cbba_notifications_total",
			Help: "Alert notifications by notifier and result",
		},
		[]string{"notifier", "result"},
	)

	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Current number of connected alert stream clients",
		},
	)

	// Action feed
	ActionFeedMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cbba_action_feed_messages_total",
			Help: "Privileged-action feed messages by result",
		},
		[]string{"result"}, // accepted, malformed, overflow, user_mismatch
	)

	// Authorization
	AuthzCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cbba_authz_cache_lookups_total",
			Help: "Authorization decision cache lookups by result",
		},
		[]string{"result"}, // hit, miss
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordDecision counts one decision cycle outcome.
func RecordDecision(outcome string) {
	DecisionsTotal.WithLabelValues(outcome).Inc()
}

// RecordScorerCall observes scorer latency and, on failure, the failing op.
func RecordScorerCall(duration time.Duration, failedOp string) {
	ScorerRequestDuration.Observe(duration.Seconds())
	if failedOp != "" {
		ScorerErrors.WithLabelValues(failedOp).Inc()
	}
}

// RecordPersistence observes a DuckDB write.
func RecordPersistence(operation string, duration time.Duration, err error) {
	PersistenceDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		PersistenceErrors.WithLabelValues(operation).Inc()
	}
}

// RecordNotification counts one notifier delivery attempt.
func RecordNotification(notifier string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	NotificationsSent.WithLabelValues(notifier, result).Inc()
}
