// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cbbaguard/internal/audit"
	"github.com/tomtom215/cbbaguard/internal/auth"
	"github.com/tomtom215/cbbaguard/internal/config"
	"github.com/tomtom215/cbbaguard/internal/detection"
	"github.com/tomtom215/cbbaguard/internal/session"
)

func testConfig() *config.Config {
	return &config.Config{
		Session:  config.SessionConfig{MaxBatchSize: 5},
		Security: config.SecurityConfig{CORSOrigins: []string{"http://localhost:3000"}},
	}
}

func collectRequest(sessionID, body string, claims *auth.Claims) *http.Request {
	target := "/collect-biometrics"
	if sessionID != "" {
		target += "?sessionId=" + sessionID
	}
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.RemoteAddr = "192.0.2.10:54321"
	if claims != nil {
		req = req.WithContext(auth.ContextWithClaims(req.Context(), claims))
	}
	return req
}

func decodeCollect(t *testing.T, rec *httptest.ResponseRecorder) CollectResponse {
	t.Helper()
	var resp CollectResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestCollect_Decisions(t *testing.T) {
	tests := []struct {
		name       string
		result     *detection.Result
		wantStatus int
		wantMsg    string
		wantScore  *float64
	}{
		{
			name:       "continue",
			result:     &detection.Result{Status: http.StatusOK, Message: detection.MessageNormal, Score: floatPtr(0.12)},
			wantStatus: http.StatusOK,
			wantMsg:    detection.MessageNormal,
			wantScore:  floatPtr(0.12),
		},
		{
			name:       "terminate",
			result:     &detection.Result{Status: http.StatusForbidden, Message: detection.MessageTerminated, Score: floatPtr(0.91)},
			wantStatus: http.StatusForbidden,
			wantMsg:    detection.MessageTerminated,
			wantScore:  floatPtr(0.91),
		},
		{
			name:       "fail open",
			result:     &detection.Result{Status: http.StatusOK, Message: detection.MessageUnavailable},
			wantStatus: http.StatusOK,
			wantMsg:    detection.MessageUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &mockEngine{result: tt.result}
			h := NewHandler(engine, &mockAudit{}, nil, nil, testConfig())

			rec := httptest.NewRecorder()
			h.Collect(rec, collectRequest("s1", `[{"type":"keydown","time":1,"key":"a"}]`,
				&auth.Claims{Username: "alice", Role: "viewer"}))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			resp := decodeCollect(t, rec)
			if resp.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", resp.Message, tt.wantMsg)
			}
			switch {
			case tt.wantScore == nil && resp.Score != nil:
				t.Errorf("score = %v, want null", *resp.Score)
			case tt.wantScore != nil && (resp.Score == nil || *resp.Score != *tt.wantScore):
				t.Errorf("score = %v, want %v", resp.Score, *tt.wantScore)
			}
		})
	}
}

func TestCollect_ScoreNullSerialized(t *testing.T) {
	engine := &mockEngine{result: &detection.Result{Status: http.StatusForbidden, Message: detection.MessageTerminated}}
	h := NewHandler(engine, &mockAudit{}, nil, nil, testConfig())

	rec := httptest.NewRecorder()
	h.Collect(rec, collectRequest("s1", `[]`, nil))

	if !strings.Contains(rec.Body.String(), `"score":null`) {
		t.Errorf("body = %s, want explicit null score", rec.Body.String())
	}
}

func TestCollect_BatchFields(t *testing.T) {
	engine := &mockEngine{result: &detection.Result{Status: http.StatusOK, Message: detection.MessageNormal, Score: floatPtr(0.1)}}
	h := NewHandler(engine, &mockAudit{}, nil, nil, testConfig())

	body := `[{"type":"keydown","time":1,"key":"a"},{"type":"mousemove","time":2,"x":10,"y":20}]`
	h.Collect(httptest.NewRecorder(), collectRequest("sess-9", body, &auth.Claims{Username: "bob", Role: "dba"}))

	calls := engine.calls()
	if len(calls) != 1 {
		t.Fatalf("ProcessBatch calls = %d, want 1", len(calls))
	}
	b := calls[0]
	if b.SessionID != "sess-9" || b.Username != "bob" || b.IPAddress != "192.0.2.10" {
		t.Errorf("batch = %+v", b)
	}
	if len(b.Events) != 2 || b.Events[1].X == nil || *b.Events[1].X != 10 {
		t.Errorf("events = %+v", b.Events)
	}
}

func TestCollect_AnonymousWithoutClaims(t *testing.T) {
	engine := &mockEngine{result: &detection.Result{Status: http.StatusOK, Message: detection.MessageNormal}}
	h := NewHandler(engine, &mockAudit{}, nil, nil, testConfig())

	h.Collect(httptest.NewRecorder(), collectRequest("s1", `[]`, nil))

	if calls := engine.calls(); len(calls) != 1 || calls[0].Username != auth.AnonymousUser {
		t.Errorf("calls = %+v, want anonymous username", calls)
	}
}

func TestCollect_BadRequests(t *testing.T) {
	tests := []struct {
		name      string
		sessionID string
		body      string
		wantMsg   string
	}{
		{"missing session", "", `[]`, msgSessionIDRequired},
		{"malformed json", "s1", `[{"type":`, msgInvalidBody},
		{"object instead of array", "s1", `{"type":"keydown"}`, msgInvalidBody},
		{"missing event type", "s1", `[{"time":1}]`, "events[0].type is required"},
		{"batch too large", "s1", `[{"type":"a"},{"type":"a"},{"type":"a"},{"type":"a"},{"type":"a"},{"type":"a"}]`,
			"events must contain at most 5 items"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &mockEngine{}
			h := NewHandler(engine, &mockAudit{}, nil, nil, testConfig())

			rec := httptest.NewRecorder()
			h.Collect(rec, collectRequest(tt.sessionID, tt.body, &auth.Claims{Username: "alice"}))

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if resp := decodeCollect(t, rec); resp.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", resp.Message, tt.wantMsg)
			}
			if n := len(engine.calls()); n != 0 {
				t.Errorf("ProcessBatch called %d times for a rejected request", n)
			}
		})
	}
}

func TestCollect_EmptyBodyIsEmptyBatch(t *testing.T) {
	engine := &mockEngine{result: &detection.Result{Status: http.StatusOK, Message: detection.MessageNormal}}
	h := NewHandler(engine, &mockAudit{}, nil, nil, testConfig())

	rec := httptest.NewRecorder()
	h.Collect(rec, collectRequest("s1", "", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if calls := engine.calls(); len(calls) != 1 || len(calls[0].Events) != 0 {
		t.Errorf("calls = %+v, want one empty batch", calls)
	}
}

func TestCollect_EngineErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"empty key", session.ErrEmptyKey, http.StatusBadRequest, msgSessionIDRequired},
		{"storage", &audit.StorageError{Op: audit.OpAppendAnomaly, Err: errBoom}, http.StatusInternalServerError, msgRecordFailed},
		{"other", errBoom, http.StatusInternalServerError, msgInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&mockEngine{err: tt.err}, &mockAudit{}, nil, nil, testConfig())

			rec := httptest.NewRecorder()
			h.Collect(rec, collectRequest("s1", `[]`, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if resp := decodeCollect(t, rec); resp.Message != tt.wantMsg || resp.Score != nil {
				t.Errorf("body = %+v, want message %q and null score", resp, tt.wantMsg)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remote string
		want   string
	}{
		{"192.0.2.1:1234", "192.0.2.1"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"203.0.113.5", "203.0.113.5"},
		{"", "N/A"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remote
		if got := clientIP(req); got != tt.want {
			t.Errorf("clientIP(%q) = %q, want %q", tt.remote, got, tt.want)
		}
	}
}
