// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package api

import (
	"errors"
	"io"
	"net"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cbbaguard/internal/audit"
	"github.com/tomtom215/cbbaguard/internal/auth"
	"github.com/tomtom215/cbbaguard/internal/detection"
	"github.com/tomtom215/cbbaguard/internal/logging"
	"github.com/tomtom215/cbbaguard/internal/session"
	"github.com/tomtom215/cbbaguard/internal/validation"
)

// maxCollectBodyBytes caps one uploaded batch.
const maxCollectBodyBytes = 4 << 20

// Collect response messages for requests that never reach a decision.
const (
	msgSessionIDRequired = "Session ID is required."
	msgInvalidBody       = "Request body must be a JSON array of behavioral events."
	msgRecordFailed      = "Anomaly detected but could not be recorded."
	msgInternalError     = "Internal server error."
)

// CollectResponse is the body of every /collect-biometrics response.
type CollectResponse struct {
	Message string   `json:"message"`
	Score   *float64 `json:"score"`
}

// Collect accepts a batch of behavioral events for ?sessionId= and answers
// with the decision: 200 to continue, 403 when the session was terminated.
func (h *Handler) Collect(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		writeCollect(w, http.StatusBadRequest, msgSessionIDRequired, nil)
		return
	}

	var events []session.BehavioralEvent
	body := http.MaxBytesReader(w, r.Body, maxCollectBodyBytes)
	if err := json.NewDecoder(body).Decode(&events); err != nil && !errors.Is(err, io.EOF) {
		logging.Ctx(r.Context()).Debug().Err(err).Str("session_id", sessionID).Msg("Rejected collect body")
		writeCollect(w, http.StatusBadRequest, msgInvalidBody, nil)
		return
	}

	if verr := validation.ValidateBatch(events, h.maxBatchSize()); verr != nil {
		writeCollect(w, http.StatusBadRequest, verr.Error(), nil)
		return
	}

	username := auth.AnonymousUser
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok && claims.Username != "" {
		username = claims.Username
	}

	result, err := h.engine.ProcessBatch(r.Context(), detection.Batch{
		Username:  username,
		SessionID: sessionID,
		IPAddress: clientIP(r),
		Events:    events,
	})
	if err != nil {
		switch {
		case errors.Is(err, session.ErrEmptyKey):
			writeCollect(w, http.StatusBadRequest, msgSessionIDRequired, nil)
		case audit.IsStorageError(err):
			writeCollect(w, http.StatusInternalServerError, msgRecordFailed, nil)
		default:
			writeCollect(w, http.StatusInternalServerError, msgInternalError, nil)
		}
		return
	}

	writeCollect(w, result.Status, result.Message, result.Score)
}

func writeCollect(w http.ResponseWriter, status int, message string, score *float64) {
	writeJSON(w, status, CollectResponse{Message: message, Score: score})
}

// clientIP returns the caller address without its port. chi's RealIP has
// already replaced RemoteAddr when a trusted proxy header was present.
func clientIP(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "N/A"
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
