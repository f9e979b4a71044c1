// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

//go:build !nats

package actions

import (
	"context"
	"errors"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
)

// NATSAvailable reports whether the binary was built with NATS support.
const NATSAvailable = false

// ErrNATSNotAvailable is returned by the NATS constructors in builds without -tags=nats.
var ErrNATSNotAvailable = errors.New("NATS support not available: build with -tags=nats")

// NATSConfig configures the JetStream subscriber for the action feed.
type NATSConfig struct {
	URL              string
	QueueGroup       string
	DurableName      string
	SubscribersCount int
	AckWaitTimeout   time.Duration
	CloseTimeout     time.Duration
}

// NewNATSSubscriber always fails in this build.
func NewNATSSubscriber(NATSConfig) (message.Subscriber, error) {
	return nil, ErrNATSNotAvailable
}

// EmbeddedServer is unavailable in this build.
type EmbeddedServer struct{}

// NewEmbeddedServer always fails in this build.
func NewEmbeddedServer(string) (*EmbeddedServer, error) {
	return nil, ErrNATSNotAvailable
}

// ClientURL returns "".
func (s *EmbeddedServer) ClientURL() string { return "" }

// Serve returns immediately.
func (s *EmbeddedServer) Serve(context.Context) error { return ErrNATSNotAvailable }

// String implements fmt.Stringer.
func (s *EmbeddedServer) String() string { return "nats-server" }
