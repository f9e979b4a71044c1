// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package authz

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/tomtom215/cbbaguard/internal/config"
	"github.com/tomtom215/cbbaguard/internal/logging"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Actions used by the HTTP layer.
const (
	ActionRead  = "read"
	ActionWrite = "write"
)

// ErrNilEnforcer is returned when a nil enforcer is used.
var ErrNilEnforcer = errors.New("authz: enforcer is nil")

// Enforcer wraps the Casbin enforcer with a decision cache.
type Enforcer struct {
	cfg      config.CasbinConfig
	enforcer *casbin.SyncedEnforcer
	cache    *enforcementCache
}

// NewEnforcer creates an enforcer from cfg. Empty or missing model and
// policy paths fall back to the embedded files.
func NewEnforcer(ctx context.Context, cfg config.CasbinConfig) (*Enforcer, error) {
	if cfg.DefaultRole == "" {
		cfg.DefaultRole = "viewer"
	}

	var m model.Model
	var err error
	if cfg.ModelPath != "" && fileExists(cfg.ModelPath) {
		m, err = model.NewModelFromFile(cfg.ModelPath)
	} else {
		m, err = model.NewModelFromString(embeddedModel)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer
	if cfg.PolicyPath != "" && fileExists(cfg.PolicyPath) {
		enforcer, err = casbin.NewSyncedEnforcer(m, fileadapter.NewAdapter(cfg.PolicyPath))
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
		if err == nil {
			err = loadEmbeddedPolicy(enforcer, embeddedPolicy)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	e := &Enforcer{cfg: cfg, enforcer: enforcer}
	if err := e.applyConfigRules(cfg); err != nil {
		return nil, err
	}
	if cfg.CacheEnabled {
		e.cache = newEnforcementCache(cfg.CacheTTL)
	}

	logging.Ctx(ctx).Info().
		Bool("custom_model", cfg.ModelPath != "").
		Bool("custom_policy", cfg.PolicyPath != "").
		Bool("cache_enabled", cfg.CacheEnabled).
		Int("extra_grants", len(cfg.Grants)).
		Int("extra_inherits", len(cfg.Inherits)).
		Int("policies", len(e.GetPolicy())).
		Msg("Authorization enforcer initialized")

	return e, nil
}

// applyConfigRules layers the configured grants and role links over the
// loaded policy. Rules already present are not an error.
func (e *Enforcer) applyConfigRules(cfg config.CasbinConfig) error {
	for _, raw := range cfg.Grants {
		g, err := config.ParseGrant(raw)
		if err != nil {
			return err
		}
		if _, err := e.AddPolicy(g.Role, g.Object, g.Action); err != nil {
			return fmt.Errorf("failed to add grant %q: %w", raw, err)
		}
	}
	for _, raw := range cfg.Inherits {
		in, err := config.ParseInheritance(raw)
		if err != nil {
			return err
		}
		if _, err := e.AddRoleInheritance(in.Role, in.Parent); err != nil {
			return fmt.Errorf("failed to add inheritance %q: %w", raw, err)
		}
	}
	return nil
}

// loadEmbeddedPolicy parses policy CSV lines of the form "p, sub, obj, act"
// and "g, user, role". Comments and blank lines are skipped.
func loadEmbeddedPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) < 3 {
			continue
		}

		rule := parts[1:]
		switch parts[0] {
		case "p":
			if len(rule) >= 3 {
				if _, err := enforcer.AddPolicy(rule[0], rule[1], rule[2]); err != nil {
					return fmt.Errorf("failed to add policy %v: %w", rule, err)
				}
			}
		case "g":
			if _, err := enforcer.AddGroupingPolicy(rule[0], rule[1]); err != nil {
				return fmt.Errorf("failed to add grouping policy %v: %w", rule, err)
			}
		}
	}
	return nil
}

// DefaultRole is the role assumed for callers whose token carries none.
func (e *Enforcer) DefaultRole() string {
	return e.cfg.DefaultRole
}

// Enforce reports whether role may perform action on object.
func (e *Enforcer) Enforce(role, object, action string) (bool, error) {
	if e == nil {
		return false, ErrNilEnforcer
	}
	if role == "" {
		role = e.cfg.DefaultRole
	}

	if e.cache != nil {
		if allowed, ok := e.cache.get(role, object, action); ok {
			return allowed, nil
		}
	}

	allowed, err := e.enforcer.Enforce(role, object, action)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}

	if e.cache != nil {
		e.cache.set(role, object, action, allowed)
	}
	return allowed, nil
}

// AddPolicy grants role the action on object.
func (e *Enforcer) AddPolicy(role, object, action string) (bool, error) {
	added, err := e.enforcer.AddPolicy(role, object, action)
	if err == nil && added {
		e.invalidate()
	}
	return added, err
}

// AddRoleInheritance makes role inherit every permission of parent.
func (e *Enforcer) AddRoleInheritance(role, parent string) (bool, error) {
	added, err := e.enforcer.AddGroupingPolicy(role, parent)
	if err == nil && added {
		e.invalidate()
	}
	return added, err
}

// GetPolicy returns every permission rule.
func (e *Enforcer) GetPolicy() [][]string {
	//nolint:errcheck // only fails on a nil enforcer
	policy, _ := e.enforcer.GetPolicy()
	return policy
}

// Close stops background work.
func (e *Enforcer) Close() {
	if e == nil {
		return
	}
	if e.cache != nil {
		e.cache.stop()
	}
}

func (e *Enforcer) invalidate() {
	if e.cache != nil {
		e.cache.clear()
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
