// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/cbbaguard/config.yaml",
	"/etc/cbbaguard/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Security: SecurityConfig{
			AuthMode:        "jwt",
			SessionTimeout:  24 * time.Hour,
			RateLimitReqs:   600,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
			Casbin: CasbinConfig{
				DefaultRole:  "viewer",
				CacheEnabled: true,
				CacheTTL:     5 * time.Minute,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Database: DatabaseConfig{
			Path:      "/data/cbbaguard.duckdb",
			MaxMemory: "512MB",
		},
		Scorer: ScorerConfig{
			URL:           "http://127.0.0.1:5000",
			Timeout:       5 * time.Second,
			FailurePolicy: "fail_closed",
			Breaker: BreakerConfig{
				MaxRequests:  3,
				Interval:     time.Minute,
				Timeout:      30 * time.Second,
				FailureRatio: 0.6,
				MinRequests:  10,
			},
		},
		Session: SessionConfig{
			IdleTTL:       30 * time.Minute,
			SweepInterval: time.Minute,
			MaxEvents:     10000,
			MaxBatchSize:  5000,
		},
		Actions: ActionsConfig{
			Source:             "synthetic",
			AnomalyProbability: 0.05,
			Topic:              "cbba.privileged_actions",
			PendingLimit:       256,
		},
		NATS: NATSConfig{
			Enabled:          false,
			URL:              "nats://127.0.0.1:4222",
			EmbeddedServer:   false,
			StoreDir:         "/data/nats/jetstream",
			SubscribersCount: 2,
			DurableName:      "cbbaguard-actions",
			QueueGroup:       "cbbaguard",
			AckWaitTimeout:   30 * time.Second,
		},
		Alerts: AlertsConfig{
			WebSocketEnabled: true,
			Webhook: WebhookConfig{
				RateLimit: time.Second,
			},
		},
	}
}

// Load is an alias for LoadWithKoanf.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// LoadWithKoanf layers defaults, the optional config file and environment
// variables, then validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// SCORER_URL -> scorer.url, SESSION_IDLE_TTL -> session.idle_ttl
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths accept comma separated strings from the environment.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.casbin.grants",
	"security.casbin.inherits",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"http_port":        "server.port",
	"http_host":        "server.host",
	"http_timeout":     "server.timeout",
	"shutdown_timeout": "server.shutdown_timeout",
	"environment":      "server.environment",

	"auth_mode":           "security.auth_mode",
	"jwt_secret":          "security.jwt_secret",
	"session_timeout":     "security.session_timeout",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",
	"casbin_model_path":   "security.casbin.model_path",
	"casbin_policy_path":  "security.casbin.policy_path",
	"casbin_default_role": "security.casbin.default_role",
	"casbin_grants":       "security.casbin.grants",
	"casbin_inherits":     "security.casbin.inherits",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	"scorer_url":                   "scorer.url",
	"scorer_timeout":               "scorer.timeout",
	"scorer_failure_policy":        "scorer.failure_policy",
	"scorer_breaker_timeout":       "scorer.breaker.timeout",
	"scorer_breaker_failure_ratio": "scorer.breaker.failure_ratio",

	"session_idle_ttl":       "session.idle_ttl",
	"session_sweep_interval": "session.sweep_interval",
	"session_max_events":     "session.max_events",
	"max_batch_size":         "session.max_batch_size",

	"action_source":              "actions.source",
	"action_anomaly_probability": "actions.anomaly_probability",
	"action_topic":               "actions.topic",

	"nats_enabled":      "nats.enabled",
	"nats_url":          "nats.url",
	"nats_embedded":     "nats.embedded_server",
	"nats_store_dir":    "nats.store_dir",
	"nats_subscribers":  "nats.subscribers_count",
	"nats_durable_name": "nats.durable_name",
	"nats_queue_group":  "nats.queue_group",

	"alerts_websocket_enabled": "alerts.websocket_enabled",
	"webhook_enabled":          "alerts.webhook.enabled",
	"webhook_url":              "alerts.webhook.url",
	"webhook_rate_limit":       "alerts.webhook.rate_limit",
}

// envTransformFunc maps known environment variables to koanf paths.
// Unknown variables map to "" and are skipped.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
