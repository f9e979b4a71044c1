// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package authz

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/cbbaguard/internal/config"
)

func newTestEnforcer(t *testing.T, cfg config.CasbinConfig) *Enforcer {
	t.Helper()
	e, err := NewEnforcer(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestEnforcer_EmbeddedPolicy(t *testing.T) {
	e := newTestEnforcer(t, config.CasbinConfig{})

	tests := []struct {
		role   string
		object string
		action string
		want   bool
	}{
		{"dba", "/api/v1/audit-logs", ActionRead, true},
		{"dba", "/api/v1/alerts", ActionRead, true},
		{"dba", "/ws/alerts", ActionRead, true},
		{"admin", "/api/v1/audit-logs", ActionRead, true},
		{"admin", "/ws/alerts", ActionRead, true},
		{"viewer", "/api/v1/audit-logs", ActionRead, false},
		{"viewer", "/api/v1/alerts", ActionRead, false},
		{"viewer", "/ws/alerts", ActionRead, false},
		{"dba", "/api/v1/audit-logs", ActionWrite, false},
		{"unknown", "/api/v1/alerts", ActionRead, false},
	}
	for _, tt := range tests {
		t.Run(tt.role+" "+tt.action+" "+tt.object, func(t *testing.T) {
			got, err := e.Enforce(tt.role, tt.object, tt.action)
			if err != nil {
				t.Fatalf("Enforce() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Enforce(%q, %q, %q) = %v, want %v", tt.role, tt.object, tt.action, got, tt.want)
			}
		})
	}
}

func TestEnforcer_EmptyRoleUsesDefault(t *testing.T) {
	e := newTestEnforcer(t, config.CasbinConfig{DefaultRole: "dba"})

	if e.DefaultRole() != "dba" {
		t.Errorf("DefaultRole() = %q, want dba", e.DefaultRole())
	}
	got, err := e.Enforce("", "/api/v1/alerts", ActionRead)
	if err != nil {
		t.Fatalf("Enforce() error = %v", err)
	}
	if !got {
		t.Error("empty role should be evaluated as the default role")
	}
}

func TestEnforcer_PolicyChangesInvalidateCache(t *testing.T) {
	e := newTestEnforcer(t, config.CasbinConfig{CacheEnabled: true, CacheTTL: time.Minute})

	allowed, _ := e.Enforce("auditor", "/api/v1/audit-logs", ActionRead)
	if allowed {
		t.Fatal("auditor should be denied before the grant")
	}

	if _, err := e.AddPolicy("auditor", "/api/v1/audit-logs", ActionRead); err != nil {
		t.Fatalf("AddPolicy() error = %v", err)
	}
	allowed, _ = e.Enforce("auditor", "/api/v1/audit-logs", ActionRead)
	if !allowed {
		t.Error("auditor should be allowed after the grant despite a cached denial")
	}
}

func TestEnforcer_ConfigRulesApplied(t *testing.T) {
	e := newTestEnforcer(t, config.CasbinConfig{
		CacheEnabled: true,
		CacheTTL:     time.Minute,
		Grants:       []string{"auditor:/api/v1/audit-logs:read"},
		Inherits:     []string{"secops:dba"},
	})

	tests := []struct {
		role   string
		object string
		action string
		want   bool
	}{
		{"auditor", "/api/v1/audit-logs", ActionRead, true},
		{"auditor", "/api/v1/alerts", ActionRead, false},
		{"secops", "/ws/alerts", ActionRead, true},
		{"secops", "/api/v1/audit-logs", ActionRead, true},
	}
	for _, tt := range tests {
		got, err := e.Enforce(tt.role, tt.object, tt.action)
		if err != nil {
			t.Fatalf("Enforce(%s, %s) error = %v", tt.role, tt.object, err)
		}
		if got != tt.want {
			t.Errorf("Enforce(%s, %s, %s) = %v, want %v", tt.role, tt.object, tt.action, got, tt.want)
		}
	}
}

func TestEnforcer_ConfigRulesMalformed(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.CasbinConfig
	}{
		{"grant missing action", config.CasbinConfig{Grants: []string{"auditor:/api/v1/alerts"}}},
		{"inherit from self", config.CasbinConfig{Inherits: []string{"dba:dba"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewEnforcer(context.Background(), tt.cfg); err == nil {
				t.Error("NewEnforcer() error = nil, want error")
			}
		})
	}
}

func TestEnforcer_RoleInheritance(t *testing.T) {
	e := newTestEnforcer(t, config.CasbinConfig{})

	if _, err := e.AddRoleInheritance("secops", "dba"); err != nil {
		t.Fatalf("AddRoleInheritance() error = %v", err)
	}
	allowed, err := e.Enforce("secops", "/ws/alerts", ActionRead)
	if err != nil {
		t.Fatalf("Enforce() error = %v", err)
	}
	if !allowed {
		t.Error("secops should inherit dba permissions")
	}
}

func TestEnforcer_CustomPolicyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.csv")
	policy := "p, auditor, /api/v1/audit-logs, read\n"
	if err := os.WriteFile(path, []byte(policy), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	e := newTestEnforcer(t, config.CasbinConfig{PolicyPath: path})

	if allowed, _ := e.Enforce("auditor", "/api/v1/audit-logs", ActionRead); !allowed {
		t.Error("auditor should be allowed by the file policy")
	}
	if allowed, _ := e.Enforce("dba", "/api/v1/audit-logs", ActionRead); allowed {
		t.Error("embedded policy should not apply when a policy file is configured")
	}
}

func TestEnforcer_MissingFilesFallBackToEmbedded(t *testing.T) {
	e := newTestEnforcer(t, config.CasbinConfig{
		ModelPath:  "/nonexistent/model.conf",
		PolicyPath: "/nonexistent/policy.csv",
	})
	if len(e.GetPolicy()) == 0 {
		t.Error("GetPolicy() is empty, want embedded rules")
	}
}

func TestEnforcer_Nil(t *testing.T) {
	var e *Enforcer
	if _, err := e.Enforce("dba", "/x", ActionRead); err != ErrNilEnforcer {
		t.Errorf("Enforce() error = %v, want ErrNilEnforcer", err)
	}
	e.Close()
}

func TestLoadEmbeddedPolicy_SkipsCommentsAndShortLines(t *testing.T) {
	e := newTestEnforcer(t, config.CasbinConfig{})
	before := len(e.GetPolicy())

	policy := "# comment\n\np, only\np, r1, /a, read\n"
	if err := loadEmbeddedPolicy(e.enforcer, policy); err != nil {
		t.Fatalf("loadEmbeddedPolicy() error = %v", err)
	}
	if got := len(e.GetPolicy()); got != before+1 {
		t.Errorf("policy count = %d, want %d", got, before+1)
	}
}
