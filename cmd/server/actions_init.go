// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package main

import (
	"fmt"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/cbbaguard/internal/actions"
	"github.com/tomtom215/cbbaguard/internal/config"
	"github.com/tomtom215/cbbaguard/internal/logging"
)

// serviceAdder is the part of the supervisor tree the action source needs.
type serviceAdder interface {
	AddMessagingService(svc suture.Service) suture.ServiceToken
}

// initActionSource builds the privileged-action source. The feed source
// needs NATS support compiled in (-tags nats); its consumer and, when
// configured, the embedded NATS server run in the messaging layer.
func initActionSource(cfg *config.Config, tree serviceAdder) (actions.Source, error) {
	switch cfg.Actions.Source {
	case config.ActionSourceFeed:
		url := cfg.NATS.URL
		if cfg.NATS.EmbeddedServer {
			srv, err := actions.NewEmbeddedServer(cfg.NATS.StoreDir)
			if err != nil {
				return nil, fmt.Errorf("start embedded NATS server: %w", err)
			}
			tree.AddMessagingService(srv)
			url = srv.ClientURL()
		}

		sub, err := actions.NewNATSSubscriber(actions.NATSConfig{
			URL:              url,
			QueueGroup:       cfg.NATS.QueueGroup,
			DurableName:      cfg.NATS.DurableName,
			SubscribersCount: cfg.NATS.SubscribersCount,
			AckWaitTimeout:   cfg.NATS.AckWaitTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("create action feed subscriber: %w", err)
		}

		feed := actions.NewFeedSource(sub, actions.FeedConfig{
			Topic:        cfg.Actions.Topic,
			PendingLimit: cfg.Actions.PendingLimit,
		})
		tree.AddMessagingService(feed)
		logging.Info().Str("nats_url", url).Str("topic", cfg.Actions.Topic).Msg("Privileged-action feed configured")
		return feed, nil

	case config.ActionSourceSynthetic, "":
		logging.Info().Float64("anomaly_probability", cfg.Actions.AnomalyProbability).
			Msg("Using synthetic privileged-action source")
		return actions.NewSyntheticSource(actions.SyntheticConfig{
			AnomalyProbability: cfg.Actions.AnomalyProbability,
		}), nil

	default:
		return nil, fmt.Errorf("unknown action source %q", cfg.Actions.Source)
	}
}
