// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig tunes restart behavior. Zero fields take the defaults from
// DefaultTreeConfig.
type TreeConfig struct {
	// FailureThreshold is how many failures a layer absorbs before backing off.
	FailureThreshold float64
	// FailureDecay is the failure count decay rate, in seconds.
	FailureDecay float64
	// FailureBackoff is the pause once FailureThreshold is crossed.
	FailureBackoff time.Duration
	// FeedBackoff replaces FailureBackoff in the messaging layer, where the
	// action feed consumer restarts while the broker is unreachable.
	FeedBackoff time.Duration
	// ShutdownTimeout bounds how long each service may take to return.
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig returns the restart budget used in production.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		FeedBackoff:      2 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

func (c TreeConfig) withDefaults() TreeConfig {
	d := DefaultTreeConfig()
	if c.FailureThreshold == 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.FailureDecay == 0 {
		c.FailureDecay = d.FailureDecay
	}
	if c.FailureBackoff == 0 {
		c.FailureBackoff = d.FailureBackoff
	}
	if c.FeedBackoff == 0 {
		c.FeedBackoff = d.FeedBackoff
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	return c
}

func (c TreeConfig) spec(backoff time.Duration) suture.Spec {
	return suture.Spec{
		FailureThreshold: c.FailureThreshold,
		FailureDecay:     c.FailureDecay,
		FailureBackoff:   backoff,
		Timeout:          c.ShutdownTimeout,
	}
}

type layer int

// Layers start in declaration order.
const (
	dataLayer layer = iota
	messagingLayer
	apiLayer
	layerCount
)

var layerNames = [layerCount]string{
	dataLayer:      "data-layer",
	messagingLayer: "messaging-layer",
	apiLayer:       "api-layer",
}

// SupervisorTree runs the guard's long-lived services in three isolated
// layers. A layer that exhausts its restart budget backs off on its own:
// a flapping feed consumer or a dead NATS connection pauses the messaging
// layer, yet the decision API keeps scoring behavior-only windows and the
// idle sweeper keeps evicting.
type SupervisorTree struct {
	root   *suture.Supervisor
	layers [layerCount]*suture.Supervisor
	config TreeConfig
}

// NewSupervisorTree builds the root and its layers. Supervisor events are
// logged through logger.
func NewSupervisorTree(logger *slog.Logger, config TreeConfig) (*SupervisorTree, error) {
	config = config.withDefaults()

	rootSpec := config.spec(config.FailureBackoff)
	// MustHook has a pointer receiver. Layers inherit the hook from root.
	rootSpec.EventHook = (&sutureslog.Handler{Logger: logger}).MustHook()

	t := &SupervisorTree{
		root:   suture.New("cbbaguard", rootSpec),
		config: config,
	}
	for l := dataLayer; l < layerCount; l++ {
		backoff := config.FailureBackoff
		if l == messagingLayer {
			backoff = config.FeedBackoff
		}
		t.layers[l] = suture.New(layerNames[l], config.spec(backoff))
		t.root.Add(t.layers[l])
	}
	return t, nil
}

// AddDataService adds svc to the layer that owns session state.
func (t *SupervisorTree) AddDataService(svc suture.Service) suture.ServiceToken {
	return t.layers[dataLayer].Add(svc)
}

// AddMessagingService adds svc to the layer for alert fan-out and the
// privileged-action feed.
func (t *SupervisorTree) AddMessagingService(svc suture.Service) suture.ServiceToken {
	return t.layers[messagingLayer].Add(svc)
}

// AddAPIService adds svc to the layer that serves decisions.
func (t *SupervisorTree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.layers[apiLayer].Add(svc)
}

// Serve runs every layer until ctx is canceled.
func (t *SupervisorTree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground is Serve in a goroutine; the channel yields its result.
func (t *SupervisorTree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport names services that outlived ShutdownTimeout.
func (t *SupervisorTree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
