// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package actions

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/cbbaguard/internal/logging"
	"github.com/tomtom215/cbbaguard/internal/metrics"
	"github.com/tomtom215/cbbaguard/internal/session"
)

// FeedConfig configures a FeedSource.
type FeedConfig struct {
	Topic string

	// PendingLimit bounds the unconsumed actions kept per session; the oldest
	// are discarded first.
	PendingLimit int

	// Retention drops pending actions for sessions that stop sending batches.
	Retention time.Duration

	Now func() time.Time
}

type pendingQueue struct {
	events   []session.ActionEvent
	lastSeen time.Time
}

// FeedSource adapts a privileged-action audit feed to Source. Serve consumes
// the topic and queues actions by session id in timestamp order, since
// concurrent subscribers deliver out of order. Next hands a session's whole
// queue to the next behavioral batch.
type FeedSource struct {
	sub message.Subscriber
	cfg FeedConfig

	mu      sync.Mutex
	pending map[string]*pendingQueue
}

// NewFeedSource creates a FeedSource reading from sub.
func NewFeedSource(sub message.Subscriber, cfg FeedConfig) *FeedSource {
	if cfg.PendingLimit <= 0 {
		cfg.PendingLimit = 256
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 10 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &FeedSource{
		sub:     sub,
		cfg:     cfg,
		pending: make(map[string]*pendingQueue),
	}
}

// Next implements Source. It drains every action queued for the session,
// oldest first, and returns nil when none are pending. Actions are always
// attributed to the caller; a feed user that disagrees is logged.
func (f *FeedSource) Next(ctx context.Context, id Identity) ([]session.ActionEvent, error) {
	f.mu.Lock()
	q, ok := f.pending[id.SessionID]
	if ok {
		delete(f.pending, id.SessionID)
	}
	f.mu.Unlock()

	if !ok || len(q.events) == 0 {
		return nil, nil
	}

	for i := range q.events {
		ev := &q.events[i]
		if ev.User != "" && ev.User != id.Username {
			metrics.ActionFeedMessages.WithLabelValues("user_mismatch").Inc()
			logging.Ctx(ctx).Warn().
				Str("username", id.Username).
				Str("feed_user", ev.User).
				Str("event_type", ev.EventType).
				Msg("privileged action reported for another user in this session")
		}
		ev.User = id.Username
	}
	return q.events, nil
}

// Pending returns the number of queued actions for a session.
func (f *FeedSource) Pending(sessionID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if q, ok := f.pending[sessionID]; ok {
		return len(q.events)
	}
	return 0
}

// Serve subscribes to the topic and consumes until ctx is canceled. It
// implements suture.Service.
func (f *FeedSource) Serve(ctx context.Context) error {
	messages, err := f.sub.Subscribe(ctx, f.cfg.Topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", f.cfg.Topic, err)
	}

	logger := logging.WithComponent("action-feed")
	logger.Info().Str("topic", f.cfg.Topic).Msg("privileged-action feed started")

	prune := time.NewTicker(f.cfg.Retention / 2)
	defer prune.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("privileged-action feed stopped")
			return ctx.Err()
		case <-prune.C:
			f.prune()
		case msg, ok := <-messages:
			if !ok {
				return errors.New("action feed subscription closed")
			}
			if err := f.handle(msg); err != nil {
				logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("discarding malformed privileged-action message")
			}
			// Malformed payloads will not parse on redelivery either.
			msg.Ack()
		}
	}
}

func (f *FeedSource) handle(msg *message.Message) error {
	var ev session.ActionEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		metrics.ActionFeedMessages.WithLabelValues("malformed").Inc()
		return fmt.Errorf("decode action: %w", err)
	}
	if ev.SessionID == "" || ev.EventType == "" {
		metrics.ActionFeedMessages.WithLabelValues("malformed").Inc()
		return errors.New("action is missing session_id or event_type")
	}
	f.enqueue(ev)
	return nil
}

// enqueue keeps each session's queue sorted by action timestamp. Equal
// timestamps stay in arrival order.
func (f *FeedSource) enqueue(ev session.ActionEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	q, ok := f.pending[ev.SessionID]
	if !ok {
		q = &pendingQueue{}
		f.pending[ev.SessionID] = q
	}
	q.lastSeen = f.cfg.Now()

	i := sort.Search(len(q.events), func(i int) bool {
		return q.events[i].Timestamp > ev.Timestamp
	})
	q.events = slices.Insert(q.events, i, ev)

	if over := len(q.events) - f.cfg.PendingLimit; over > 0 {
		q.events = append([]session.ActionEvent(nil), q.events[over:]...)
		metrics.ActionFeedMessages.WithLabelValues("overflow").Add(float64(over))
	}
	metrics.ActionFeedMessages.WithLabelValues("accepted").Inc()
}

func (f *FeedSource) prune() {
	cutoff := f.cfg.Now().Add(-f.cfg.Retention)
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, q := range f.pending {
		if q.lastSeen.Before(cutoff) {
			delete(f.pending, id)
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (f *FeedSource) String() string {
	return "action-feed"
}
