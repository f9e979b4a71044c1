// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package api

import (
	"errors"
	"net/http"
)

// AuditLogs lists the most recent audit records, newest first.
func (h *Handler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req, ok := h.listRequest(rw, r)
	if !ok {
		return
	}

	records, err := h.audit.ListRecords(r.Context(), req.Limit)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.SuccessWithPagination(records, &PaginationMeta{Count: len(records), Limit: req.Limit})
}

// Alerts lists active alerts, newest first.
func (h *Handler) Alerts(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req, ok := h.listRequest(rw, r)
	if !ok {
		return
	}

	alerts, err := h.audit.ListActiveAlerts(r.Context(), req.Limit)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.SuccessWithPagination(alerts, &PaginationMeta{Count: len(alerts), Limit: req.Limit})
}

func (h *Handler) listRequest(rw *ResponseWriter, r *http.Request) (*ListRequest, bool) {
	req, verr, err := parseListRequest(r)
	if err != nil {
		if errors.Is(err, ErrInvalidLimit) {
			rw.BadRequest(err.Error())
		} else {
			rw.InternalError("Failed to parse request")
		}
		return nil, false
	}
	if verr != nil {
		apiErr := verr.ToAPIError()
		rw.ErrorWithDetails(http.StatusBadRequest, ErrCodeValidationFailed, apiErr.Message, apiErr.Details)
		return nil, false
	}
	return req, true
}
