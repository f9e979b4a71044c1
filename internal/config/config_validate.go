// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Failure policies applied when the scorer cannot produce a verdict.
const (
	FailClosed = "fail_closed"
	FailOpen   = "fail_open"
)

// Privileged-action sources.
const (
	ActionSourceSynthetic = "synthetic"
	ActionSourceFeed      = "feed"
)

const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
	minJWTSecretLength   = 32
)

var validAuthModes = map[string]bool{
	"none": true,
	"jwt":  true,
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"PLACEHOLDER",
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateScorer(); err != nil {
		return err
	}
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.validateActions(); err != nil {
		return err
	}
	return c.validateAlerts()
}

// IsProduction reports whether ENVIRONMENT=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if !validAuthModes[c.Security.AuthMode] {
		return fmt.Errorf("AUTH_MODE must be one of: jwt, none (got %q)", c.Security.AuthMode)
	}
	if c.Security.AuthMode == "jwt" {
		if err := c.validateJWTSecret(); err != nil {
			return err
		}
	}
	if c.Security.AuthMode == "none" && c.IsProduction() {
		return fmt.Errorf("AUTH_MODE=none is not allowed in production")
	}
	if c.Security.AuthMode != "none" && c.hasWildcardCORS() && c.IsProduction() {
		return fmt.Errorf("CORS_ORIGINS=* is not allowed in production with authentication enabled")
	}
	if err := c.validateCasbin(); err != nil {
		return err
	}
	return c.validateRateLimits()
}

func (c *Config) validateCasbin() error {
	for _, g := range c.Security.Casbin.Grants {
		if _, err := ParseGrant(g); err != nil {
			return fmt.Errorf("CASBIN_GRANTS: %w", err)
		}
	}
	for _, in := range c.Security.Casbin.Inherits {
		if _, err := ParseInheritance(in); err != nil {
			return fmt.Errorf("CASBIN_INHERITS: %w", err)
		}
	}
	return nil
}

func (c *Config) validateJWTSecret() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_MODE is jwt")
	}
	if len(c.Security.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	upper := strings.ToUpper(c.Security.JWTSecret)
	for _, p := range placeholderPatterns {
		if strings.Contains(upper, p) {
			return fmt.Errorf("JWT_SECRET contains a placeholder value - generate one with: openssl rand -base64 32")
		}
	}
	return nil
}

func (c *Config) hasWildcardCORS() bool {
	for _, o := range c.Security.CORSOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error (got %q)", c.Logging.Level)
	}
	if !validLogFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("LOG_FORMAT must be json or console (got %q)", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateScorer() error {
	u, err := url.Parse(c.Scorer.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("SCORER_URL must be an absolute http(s) URL (got %q)", c.Scorer.URL)
	}
	if c.Scorer.Timeout <= 0 {
		return fmt.Errorf("SCORER_TIMEOUT must be positive")
	}
	switch c.Scorer.FailurePolicy {
	case FailClosed, FailOpen:
	default:
		return fmt.Errorf("SCORER_FAILURE_POLICY must be %s or %s (got %q)", FailClosed, FailOpen, c.Scorer.FailurePolicy)
	}
	if r := c.Scorer.Breaker.FailureRatio; r <= 0 || r > 1 {
		return fmt.Errorf("SCORER_BREAKER_FAILURE_RATIO must be in (0, 1]")
	}
	return nil
}

func (c *Config) validateSession() error {
	if c.Session.IdleTTL <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL must be positive")
	}
	if c.Session.SweepInterval <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must be positive")
	}
	if c.Session.MaxEvents < 0 {
		return fmt.Errorf("SESSION_MAX_EVENTS must not be negative")
	}
	if c.Session.MaxBatchSize < 1 {
		return fmt.Errorf("MAX_BATCH_SIZE must be at least 1")
	}
	return nil
}

func (c *Config) validateActions() error {
	switch c.Actions.Source {
	case ActionSourceSynthetic:
		if p := c.Actions.AnomalyProbability; p < 0 || p > 1 {
			return fmt.Errorf("ACTION_ANOMALY_PROBABILITY must be between 0 and 1")
		}
	case ActionSourceFeed:
		if c.Actions.Topic == "" {
			return fmt.Errorf("ACTION_TOPIC is required when ACTION_SOURCE is feed")
		}
		if !c.NATS.Enabled {
			return fmt.Errorf("NATS_ENABLED must be true when ACTION_SOURCE is feed")
		}
	default:
		return fmt.Errorf("ACTION_SOURCE must be synthetic or feed (got %q)", c.Actions.Source)
	}
	return nil
}

func (c *Config) validateAlerts() error {
	if !c.Alerts.Webhook.Enabled {
		return nil
	}
	u, err := url.Parse(c.Alerts.Webhook.URL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("WEBHOOK_URL must be an absolute URL when WEBHOOK_ENABLED is true")
	}
	return nil
}
