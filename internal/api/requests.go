// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/tomtom215/cbbaguard/internal/audit"
	"github.com/tomtom215/cbbaguard/internal/validation"
)

// ErrInvalidLimit is returned for a limit query value that is not an integer.
var ErrInvalidLimit = errors.New("limit must be an integer")

// ListRequest is the query of the audit and alert list endpoints.
type ListRequest struct {
	Limit int `json:"limit" validate:"min=1,max=1000"`
}

// parseListRequest reads ?limit=, defaulting to audit.DefaultListLimit.
func parseListRequest(r *http.Request) (*ListRequest, *validation.RequestValidationError, error) {
	req := &ListRequest{Limit: audit.DefaultListLimit}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return nil, nil, ErrInvalidLimit
		}
		req.Limit = limit
	}

	if verr := validation.ValidateStruct(req); verr != nil {
		return nil, verr, nil
	}
	return req, nil, nil
}
