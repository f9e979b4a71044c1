// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package scoring

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/cbbaguard/internal/metrics"
)

const (
	predictPath     = "/predict_anomaly"
	breakerName     = "anomaly-scorer"
	maxResponseSize = 1 << 20
	defaultTimeout  = 5 * time.Second
)

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Breaker BreakerSettings

	// HTTPClient defaults to a client with no timeout of its own; Timeout is
	// applied per call through the request context.
	HTTPClient *http.Client
}

// Client scores payloads against the external model.
type Client struct {
	endpoint string
	timeout  time.Duration
	http     *http.Client
	cb       *gobreaker.CircuitBreaker[*Verdict]
}

// NewClient creates a Client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Breaker == (BreakerSettings{}) {
		cfg.Breaker = DefaultBreakerSettings()
	}
	return &Client{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + predictPath,
		timeout:  cfg.Timeout,
		http:     cfg.HTTPClient,
		cb:       newBreaker(breakerName, cfg.Breaker),
	}
}

// Score sends p to the scorer. Any error is a *ScoringError.
func (c *Client) Score(ctx context.Context, p Payload) (*Verdict, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, &ScoringError{Op: OpRequest, Err: fmt.Errorf("encode payload: %w", err)}
	}

	start := time.Now()
	v, err := c.cb.Execute(func() (*Verdict, error) {
		return c.post(ctx, body)
	})

	if err != nil {
		var se *ScoringError
		if !errors.As(err, &se) {
			// gobreaker.ErrOpenState or gobreaker.ErrTooManyRequests
			se = &ScoringError{Op: OpBreaker, Err: err}
			metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
		} else if se.Op != OpNoVerdict {
			metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
		}
		metrics.RecordScorerCall(time.Since(start), se.Op)
		return nil, se
	}

	metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
	metrics.RecordScorerCall(time.Since(start), "")
	metrics.AnomalyScore.Observe(v.Score)
	return v, nil
}

func (c *Client) post(ctx context.Context, body []byte) (*Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &ScoringError{Op: OpRequest, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ScoringError{Op: OpRequest, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &ScoringError{Op: OpRequest, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ScoringError{
			Op:         OpStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", snippet(raw)),
		}
	}

	var vr verdictResponse
	if err := json.Unmarshal(raw, &vr); err != nil {
		return nil, &ScoringError{Op: OpDecode, StatusCode: resp.StatusCode, Err: err}
	}
	if vr.IsAnomaly == nil || vr.Score == nil {
		err := ErrNoVerdict
		if vr.Status != "" {
			err = fmt.Errorf("%w (status %q)", ErrNoVerdict, vr.Status)
		}
		return nil, &ScoringError{Op: OpNoVerdict, StatusCode: resp.StatusCode, Err: err}
	}

	return &Verdict{
		Score:      *vr.Score,
		Prediction: vr.Prediction,
		IsAnomaly:  *vr.IsAnomaly,
		Features:   vr.Features,
	}, nil
}

func snippet(b []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(b))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	if s == "" {
		return "<empty body>"
	}
	return s
}
