// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

//go:build nats

package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/nats-io/nats-server/v2/server"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/cbbaguard/internal/logging"
)

// NATSAvailable reports whether the binary was built with NATS support.
const NATSAvailable = true

// NATSConfig configures the JetStream subscriber for the action feed.
type NATSConfig struct {
	URL              string
	QueueGroup       string
	DurableName      string
	SubscribersCount int
	AckWaitTimeout   time.Duration
	CloseTimeout     time.Duration
}

// NewNATSSubscriber creates a durable JetStream subscriber for the feed topic.
func NewNATSSubscriber(cfg NATSConfig) (message.Subscriber, error) {
	logger := watermill.NewSlogLogger(logging.NewSlogLogger())

	if cfg.SubscribersCount <= 0 {
		cfg.SubscribersCount = 1
	}
	if cfg.AckWaitTimeout <= 0 {
		cfg.AckWaitTimeout = 30 * time.Second
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = 10 * time.Second
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logging.Warn().Err(err).Msg("action feed disconnected from NATS")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("action feed reconnected to NATS")
		}),
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              cfg.URL,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: cfg.SubscribersCount,
		AckWaitTimeout:   cfg.AckWaitTimeout,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: true,
			SubscribeOptions: []natsgo.SubOpt{
				natsgo.AckWait(cfg.AckWaitTimeout),
				natsgo.DeliverNew(),
			},
			DurablePrefix: cfg.DurableName,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill subscriber: %w", err)
	}
	return sub, nil
}

// EmbeddedServer is an in-process NATS server with JetStream enabled, for
// single-node deployments without an external broker.
type EmbeddedServer struct {
	server *server.Server
}

// NewEmbeddedServer starts a NATS server and waits until it accepts clients.
func NewEmbeddedServer(storeDir string) (*EmbeddedServer, error) {
	ns, err := server.NewServer(&server.Options{
		ServerName: "cbbaguard",
		Host:       "127.0.0.1",
		Port:       -1,
		JetStream:  true,
		StoreDir:   storeDir,
		MaxPayload: 1024 * 1024,
	})
	if err != nil {
		return nil, fmt.Errorf("create NATS server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(30 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("NATS server not ready within timeout")
	}
	logging.Info().Str("url", ns.ClientURL()).Msg("embedded NATS server started")
	return &EmbeddedServer{server: ns}, nil
}

// ClientURL returns the URL clients connect to.
func (s *EmbeddedServer) ClientURL() string {
	return s.server.ClientURL()
}

// Serve keeps the server up until ctx is canceled. It implements suture.Service.
func (s *EmbeddedServer) Serve(ctx context.Context) error {
	<-ctx.Done()
	s.server.Shutdown()
	s.server.WaitForShutdown()
	return ctx.Err()
}

// String implements fmt.Stringer for suture logging.
func (s *EmbeddedServer) String() string {
	return "nats-server"
}
