// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package authz

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/cbbaguard/internal/metrics"
)

const (
	defaultCacheTTL = 5 * time.Minute
	// The route table is small; hitting the cap means callers are
	// inventing objects, so the cache starts over instead of growing.
	maxCacheEntries = 4096
)

type decisionKey struct {
	role, object, action string
}

type decision struct {
	allowed bool
	expires time.Time
}

// enforcementCache remembers Casbin decisions for the audit and alert
// views. Decisions made before the last clear are never served.
type enforcementCache struct {
	ttl  time.Duration
	stop context.CancelFunc

	mu        sync.RWMutex
	decisions map[decisionKey]decision
}

func newEnforcementCache(ttl time.Duration) *enforcementCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &enforcementCache{
		ttl:       ttl,
		stop:      cancel,
		decisions: make(map[decisionKey]decision),
	}
	go c.sweepEvery(ctx, ttl)
	return c
}

func (c *enforcementCache) get(role, object, action string) (allowed, ok bool) {
	c.mu.RLock()
	d, found := c.decisions[decisionKey{role, object, action}]
	c.mu.RUnlock()

	if !found || !time.Now().Before(d.expires) {
		metrics.AuthzCacheLookups.WithLabelValues("miss").Inc()
		return false, false
	}
	metrics.AuthzCacheLookups.WithLabelValues("hit").Inc()
	return d.allowed, true
}

func (c *enforcementCache) set(role, object, action string, allowed bool) {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.decisions) >= maxCacheEntries {
		c.dropExpiredLocked(now)
		if len(c.decisions) >= maxCacheEntries {
			c.decisions = make(map[decisionKey]decision)
		}
	}
	c.decisions[decisionKey{role, object, action}] = decision{allowed: allowed, expires: now.Add(c.ttl)}
}

// clear forgets every decision. Called whenever the policy changes.
func (c *enforcementCache) clear() {
	c.mu.Lock()
	c.decisions = make(map[decisionKey]decision)
	c.mu.Unlock()
}

func (c *enforcementCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.decisions)
}

func (c *enforcementCache) sweepEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			c.mu.Lock()
			c.dropExpiredLocked(now)
			c.mu.Unlock()
		}
	}
}

func (c *enforcementCache) dropExpiredLocked(now time.Time) {
	for k, d := range c.decisions {
		if !now.Before(d.expires) {
			delete(c.decisions, k)
		}
	}
}
