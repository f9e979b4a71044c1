// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

// Package config loads cbbaguard configuration from struct defaults, an
// optional YAML file and environment variables, in that order of precedence
// (environment wins).
package config

import (
	"time"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
	Database DatabaseConfig `koanf:"database"`
	Scorer   ScorerConfig   `koanf:"scorer"`
	Session  SessionConfig  `koanf:"session"`
	Actions  ActionsConfig  `koanf:"actions"`
	NATS     NATSConfig     `koanf:"nats"`
	Alerts   AlertsConfig   `koanf:"alerts"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging, production
}

// SecurityConfig holds authentication and authorization settings.
type SecurityConfig struct {
	AuthMode          string        `koanf:"auth_mode"` // jwt or none
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	Casbin            CasbinConfig  `koanf:"casbin"`
}

// CasbinConfig selects the authorization model and policy. Empty paths use
// the embedded defaults.
type CasbinConfig struct {
	ModelPath    string        `koanf:"model_path"`
	PolicyPath   string        `koanf:"policy_path"`
	DefaultRole  string        `koanf:"default_role"`
	CacheEnabled bool          `koanf:"cache_enabled"`
	CacheTTL     time.Duration `koanf:"cache_ttl"`

	// Grants are extra permissions in "role:object:action" form, applied on
	// top of the loaded policy at startup.
	Grants []string `koanf:"grants"`
	// Inherits are extra role links in "role:parent" form.
	Inherits []string `koanf:"inherits"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// DatabaseConfig configures the DuckDB file holding audit logs and alerts.
type DatabaseConfig struct {
	Path      string `koanf:"path"` // ":memory:" for an in-process database
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// ScorerConfig configures the external anomaly scoring service.
type ScorerConfig struct {
	URL           string        `koanf:"url"`
	Timeout       time.Duration `koanf:"timeout"`
	FailurePolicy string        `koanf:"failure_policy"` // fail_closed or fail_open
	Breaker       BreakerConfig `koanf:"breaker"`
}

// BreakerConfig tunes the circuit breaker in front of the scorer.
type BreakerConfig struct {
	MaxRequests  uint32        `koanf:"max_requests"`
	Interval     time.Duration `koanf:"interval"`
	Timeout      time.Duration `koanf:"timeout"`
	FailureRatio float64       `koanf:"failure_ratio"`
	MinRequests  uint32        `koanf:"min_requests"`
}

// SessionConfig bounds the per-session event buffers.
type SessionConfig struct {
	IdleTTL       time.Duration `koanf:"idle_ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
	MaxEvents     int           `koanf:"max_events"` // 0 = unbounded
	MaxBatchSize  int           `koanf:"max_batch_size"`
}

// ActionsConfig selects the privileged-action source.
type ActionsConfig struct {
	Source             string  `koanf:"source"` // synthetic or feed
	AnomalyProbability float64 `koanf:"anomaly_probability"`
	Topic              string  `koanf:"topic"`
	PendingLimit       int     `koanf:"pending_limit"`
}

// NATSConfig configures the JetStream transport for the action feed.
type NATSConfig struct {
	Enabled          bool          `koanf:"enabled"`
	URL              string        `koanf:"url"`
	EmbeddedServer   bool          `koanf:"embedded_server"`
	StoreDir         string        `koanf:"store_dir"`
	SubscribersCount int           `koanf:"subscribers_count"`
	DurableName      string        `koanf:"durable_name"`
	QueueGroup       string        `koanf:"queue_group"`
	AckWaitTimeout   time.Duration `koanf:"ack_wait_timeout"`
}

// AlertsConfig configures alert fan-out after an anomaly is persisted.
type AlertsConfig struct {
	WebSocketEnabled bool          `koanf:"websocket_enabled"`
	Webhook          WebhookConfig `koanf:"webhook"`
}

// WebhookConfig configures the generic webhook notifier.
type WebhookConfig struct {
	Enabled   bool              `koanf:"enabled"`
	URL       string            `koanf:"url"`
	RateLimit time.Duration     `koanf:"rate_limit"`
	Headers   map[string]string `koanf:"headers"`
}
