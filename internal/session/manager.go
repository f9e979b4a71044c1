// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

// Package session owns the per-session event buffers that feed each CBBA
// decision cycle.
//
// Buffers live in a sharded map. Every session entry carries its own mutex,
// so work on different sessions never contends while all work on one
// session is serialized. WithSession runs a caller function with that mutex
// held, which is how the decision engine makes append, snapshot, scoring
// and clear/remove a single critical section.
package session

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/tomtom215/cbbaguard/internal/logging"
	"github.com/tomtom215/cbbaguard/internal/metrics"
)

const shardCount = 64

// ErrEmptyKey is returned for an empty session key.
var ErrEmptyKey = errors.New("session key is empty")

// Config bounds buffer growth.
type Config struct {
	// IdleTTL is how long a session may go without an append before Sweep
	// evicts it. Zero disables eviction.
	IdleTTL time.Duration

	// MaxEvents caps the behavioral events held per session. When exceeded
	// the oldest events are dropped. Zero means unbounded.
	MaxEvents int
}

type entry struct {
	mu       sync.Mutex
	buf      Buffer
	live     atomic.Bool
	removed  bool
	lastSeen atomic.Int64
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// Manager is the exclusive owner of session buffers.
type Manager struct {
	cfg    Config
	now    func() time.Time
	shards [shardCount]shard
	active atomic.Int64
}

// NewManager creates an empty Manager.
func NewManager(cfg Config) *Manager {
	m := &Manager{cfg: cfg, now: time.Now}
	for i := range m.shards {
		m.shards[i].entries = make(map[string]*entry)
	}
	return m
}

func (m *Manager) shardFor(key string) *shard {
	return &m.shards[xxhash.Sum64String(key)%shardCount]
}

// acquire returns the entry for key with its mutex held. With create set a
// placeholder entry is inserted for unseen keys; it only becomes a session
// once something is appended to it.
func (m *Manager) acquire(key string, create bool) *entry {
	s := m.shardFor(key)
	for {
		s.mu.Lock()
		e := s.entries[key]
		if e == nil {
			if !create {
				s.mu.Unlock()
				return nil
			}
			e = &entry{}
			s.entries[key] = e
		}
		s.mu.Unlock()

		e.mu.Lock()
		if !e.removed {
			return e
		}
		// Lost a race with Remove or Sweep; the key is free again.
		e.mu.Unlock()
	}
}

// drop unlinks e from its shard. Caller holds e.mu.
func (m *Manager) drop(key string, e *entry) {
	e.removed = true
	if e.live.Swap(false) {
		metrics.SessionsActive.Set(float64(m.active.Add(-1)))
	}
	e.buf = Buffer{}

	s := m.shardFor(key)
	s.mu.Lock()
	if s.entries[key] == e {
		delete(s.entries, key)
	}
	s.mu.Unlock()
}

// WithSession runs fn with exclusive access to the buffer for key. The Tx
// must not be used after fn returns. An entry that is still empty and was
// never appended to when fn returns is discarded, so a rejected batch never
// creates a session.
func (m *Manager) WithSession(key string, fn func(tx *Tx) error) error {
	if key == "" {
		return ErrEmptyKey
	}
	e := m.acquire(key, true)
	defer e.mu.Unlock()

	tx := &Tx{m: m, key: key, e: e}
	err := fn(tx)
	tx.done = true

	if !e.removed && !e.live.Load() {
		m.drop(key, e)
	}
	return err
}

// Append adds a batch and its correlated actions to the session, creating
// the session if needed. It reports whether the session was created.
func (m *Manager) Append(key string, behavioral []BehavioralEvent, actions []ActionEvent) (bool, error) {
	var created bool
	err := m.WithSession(key, func(tx *Tx) error {
		created = tx.Append(behavioral, actions)
		return nil
	})
	return created, err
}

// Snapshot returns a copy of the session's buffer. ok is false for unknown keys.
func (m *Manager) Snapshot(key string) (buf Buffer, ok bool) {
	e := m.acquire(key, false)
	if e == nil {
		return Buffer{}, false
	}
	defer e.mu.Unlock()
	if !e.live.Load() {
		return Buffer{}, false
	}
	return e.buf.clone(), true
}

// Clear empties both sequences of a session and keeps the key.
func (m *Manager) Clear(key string) bool {
	e := m.acquire(key, false)
	if e == nil {
		return false
	}
	defer e.mu.Unlock()
	if !e.live.Load() {
		return false
	}
	e.buf = Buffer{}
	return true
}

// Remove deletes the session and its buffer.
func (m *Manager) Remove(key string) bool {
	e := m.acquire(key, false)
	if e == nil {
		return false
	}
	defer e.mu.Unlock()
	if !e.live.Load() {
		return false
	}
	m.drop(key, e)
	metrics.SessionsEvicted.WithLabelValues("terminated").Inc()
	return true
}

// Exists reports whether key names a live session. It does not wait for an
// in-flight decision on that session.
func (m *Manager) Exists(key string) bool {
	s := m.shardFor(key)
	s.mu.Lock()
	e := s.entries[key]
	s.mu.Unlock()
	return e != nil && e.live.Load()
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	return int(m.active.Load())
}

// Sweep evicts sessions idle for longer than IdleTTL and returns how many
// were removed. Sessions with a decision in flight are skipped.
func (m *Manager) Sweep(now time.Time) int {
	if m.cfg.IdleTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-m.cfg.IdleTTL).UnixNano()

	type candidate struct {
		key string
		e   *entry
	}
	var candidates []candidate
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		for k, e := range s.entries {
			if e.live.Load() && e.lastSeen.Load() < cutoff {
				candidates = append(candidates, candidate{k, e})
			}
		}
		s.mu.Unlock()
	}

	evicted := 0
	for _, c := range candidates {
		if !c.e.mu.TryLock() {
			continue
		}
		if !c.e.removed && c.e.live.Load() && c.e.lastSeen.Load() < cutoff {
			m.drop(c.key, c.e)
			evicted++
		}
		c.e.mu.Unlock()
	}

	if evicted > 0 {
		metrics.SessionsEvicted.WithLabelValues("idle").Add(float64(evicted))
		logging.Info().Int("evicted", evicted).Int("remaining", m.Len()).Msg("evicted idle sessions")
	}
	return evicted
}

// Tx is a handle to one session's buffer, valid only inside WithSession.
type Tx struct {
	m    *Manager
	key  string
	e    *entry
	done bool
}

// Key returns the session key.
func (tx *Tx) Key() string { return tx.key }

// Append adds events to the buffer and reports whether this call created
// the session. Empty behavioral input still creates the session.
func (tx *Tx) Append(behavioral []BehavioralEvent, actions []ActionEvent) bool {
	tx.mustBeOpen()
	e := tx.e
	m := tx.m

	if e.removed {
		panic("session: Tx.Append after Tx.Remove")
	}

	created := false
	if !e.live.Load() {
		e.live.Store(true)
		created = true
		metrics.SessionsActive.Set(float64(m.active.Add(1)))
		metrics.SessionsCreated.Inc()
		logging.Info().Str("session_id", tx.key).Msg("CBBA session created")
	}
	e.lastSeen.Store(m.now().UnixNano())

	if len(behavioral) > 0 {
		e.buf.Behavioral = append(e.buf.Behavioral, behavioral...)
		metrics.EventsBuffered.WithLabelValues("behavioral").Add(float64(len(behavioral)))
		if limit := m.cfg.MaxEvents; limit > 0 && len(e.buf.Behavioral) > limit {
			dropped := len(e.buf.Behavioral) - limit
			kept := make([]BehavioralEvent, limit)
			copy(kept, e.buf.Behavioral[dropped:])
			e.buf.Behavioral = kept
			metrics.EventsDropped.Add(float64(dropped))
			logging.Warn().Str("session_id", tx.key).Int("dropped", dropped).Int("max_events", limit).
				Msg("session buffer full, dropped oldest behavioral events")
		}
	}
	if len(actions) > 0 {
		e.buf.Actions = append(e.buf.Actions, actions...)
		metrics.EventsBuffered.WithLabelValues("action").Add(float64(len(actions)))
	}
	return created
}

// Snapshot returns a copy of the current buffer.
func (tx *Tx) Snapshot() Buffer {
	tx.mustBeOpen()
	return tx.e.buf.clone()
}

// Clear empties both sequences and keeps the session.
func (tx *Tx) Clear() {
	tx.mustBeOpen()
	tx.e.buf = Buffer{}
}

// Remove deletes the session. Append must not be called afterwards.
func (tx *Tx) Remove() {
	tx.mustBeOpen()
	if tx.e.removed {
		return
	}
	wasLive := tx.e.live.Load()
	tx.m.drop(tx.key, tx.e)
	if wasLive {
		metrics.SessionsEvicted.WithLabelValues("terminated").Inc()
	}
}

func (tx *Tx) mustBeOpen() {
	if tx.done {
		panic("session: Tx used after WithSession returned")
	}
}
