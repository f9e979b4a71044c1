// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package config

import (
	"fmt"
	"strings"
)

// Grant is one extra permission from CasbinConfig.Grants.
type Grant struct {
	Role   string
	Object string
	Action string
}

// Inheritance is one extra role link from CasbinConfig.Inherits.
type Inheritance struct {
	Role   string
	Parent string
}

// ParseGrant parses "role:object:action". Objects are URL paths and may
// not contain a colon.
func ParseGrant(s string) (Grant, error) {
	parts := splitFields(s)
	if len(parts) != 3 {
		return Grant{}, fmt.Errorf("grant %q must have the form role:object:action", s)
	}
	return Grant{Role: parts[0], Object: parts[1], Action: parts[2]}, nil
}

// ParseInheritance parses "role:parent".
func ParseInheritance(s string) (Inheritance, error) {
	parts := splitFields(s)
	if len(parts) != 2 {
		return Inheritance{}, fmt.Errorf("inheritance %q must have the form role:parent", s)
	}
	if parts[0] == parts[1] {
		return Inheritance{}, fmt.Errorf("role %q cannot inherit from itself", parts[0])
	}
	return Inheritance{Role: parts[0], Parent: parts[1]}, nil
}

// splitFields returns nil if any field is empty.
func splitFields(s string) []string {
	parts := strings.Split(s, ":")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil
		}
		parts[i] = p
	}
	return parts
}
