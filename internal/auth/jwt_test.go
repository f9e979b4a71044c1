// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/cbbaguard/internal/config"
)

const testSecret = "this_is_a_very_long_secret_key_for_testing_purposes_12345"

func testManager(t *testing.T, timeout time.Duration) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(&config.SecurityConfig{JWTSecret: testSecret, SessionTimeout: timeout})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	return m
}

func TestNewJWTManager(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.SecurityConfig
		wantErr bool
	}{
		{"valid secret", &config.SecurityConfig{JWTSecret: testSecret, SessionTimeout: time.Hour}, false},
		{"empty secret", &config.SecurityConfig{SessionTimeout: time.Hour}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager, err := NewJWTManager(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("NewJWTManager() expected error, got nil")
				}
				return
			}
			if err != nil || manager == nil {
				t.Errorf("NewJWTManager() = %v, %v", manager, err)
			}
		})
	}
}

func TestNewJWTManager_DefaultTimeout(t *testing.T) {
	m := testManager(t, 0)
	if m.timeout != 24*time.Hour {
		t.Errorf("timeout = %v, want 24h", m.timeout)
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	m := testManager(t, time.Hour)

	token, err := m.GenerateToken("alice", "dba")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.Username != "alice" || claims.Role != "dba" {
		t.Errorf("claims = %s/%s, want alice/dba", claims.Username, claims.Role)
	}
	if claims.Subject != "alice" {
		t.Errorf("Subject = %q, want alice", claims.Subject)
	}
}

func TestValidateToken_Rejects(t *testing.T) {
	m := testManager(t, time.Hour)
	other, err := NewJWTManager(&config.SecurityConfig{JWTSecret: strings.Repeat("z", 40), SessionTimeout: time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	foreign, _ := other.GenerateToken("alice", "admin")

	expired := &JWTManager{secret: []byte(testSecret), timeout: -time.Minute}
	expiredToken, _ := expired.GenerateToken("alice", "admin")

	noUser, _ := m.GenerateToken("", "admin")

	noneAlg := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Username: "mallory", Role: "admin"})
	noneToken, _ := noneAlg.SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", foreign},
		{"expired", expiredToken},
		{"missing username", noUser},
		{"alg none", noneToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if claims, err := m.ValidateToken(tt.token); err == nil {
				t.Errorf("ValidateToken() = %+v, want error", claims)
			}
		})
	}
}
