// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package scoring

import (
	"errors"
	"fmt"
)

// Operations reported in ScoringError.Op.
const (
	OpRequest   = "request"    // transport failure or timeout
	OpStatus    = "status"     // non-2xx response
	OpDecode    = "decode"     // body was not a verdict document
	OpNoVerdict = "no_verdict" // well-formed answer without is_anomaly
	OpBreaker   = "breaker"    // rejected by the circuit breaker
)

// ErrNoVerdict is wrapped when the scorer answers without a verdict, such
// as its {"status":"no_activity"} reply to an empty payload.
var ErrNoVerdict = errors.New("scorer returned no verdict")

// ScoringError reports why no verdict could be obtained.
type ScoringError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *ScoringError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("scoring %s failed (HTTP %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("scoring %s failed: %v", e.Op, e.Err)
}

func (e *ScoringError) Unwrap() error {
	return e.Err
}

// IsScoringError reports whether err is or wraps a *ScoringError.
func IsScoringError(err error) bool {
	var se *ScoringError
	return errors.As(err, &se)
}
