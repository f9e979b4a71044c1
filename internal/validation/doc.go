// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

// Package validation provides request validation using go-playground/validator v10.
//
// A single validator instance is built once and shared; it reports field
// names from json tags so error messages match the wire format.
//
// # Behavioral batches
//
// ValidateBatch checks a submitted batch of session.BehavioralEvent values:
//
//	if verr := validation.ValidateBatch(events, cfg.Session.MaxBatchSize); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    // respond 400 with apiErr.Message
//	}
//
// Batches above the configured size are rejected before any element is
// inspected. Each element is then validated by diving into the slice, and
// failures are reported with paths such as "events[3].type".
//
// # Error Format
//
// RequestValidationError.ToAPIError produces the VALIDATION_ERROR envelope.
// A single failure carries field, tag and value in Details; multiple
// failures carry a "fields" list.
package validation
