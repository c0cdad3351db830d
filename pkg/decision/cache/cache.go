// Package cache memoizes derived scopes keyed by deterministic context
// hashes.
//
// The cache is the one shared mutable resource on the derivation path, so it
// carries the concurrency contract for the whole engine: a get-or-compute
// operation is single-flight per key. When several goroutines miss on the
// same key at once, exactly one runs the computation and the rest wait for
// its result, so a popular profile never triggers a thundering herd of
// identical derivations.
//
// Invalidation is non-destructive. The ruleset version is part of every key,
// so activating a new version simply makes old entries unreachable; they age
// out by TTL.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Metrics receives cache observability events. The telemetry package
// provides a Prometheus-backed implementation; a nil Metrics disables
// instrumentation.
type Metrics interface {
	Hit()
	Miss()
	Evict(n int)
	SetEntries(n int)
}

// entry is one cached value with its expiry.
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// inflight tracks a computation in progress so concurrent callers can await it.
type inflight[V any] struct {
	done  chan struct{}
	value V
	err   error
}

// Cache is a TTL cache with single-flight computation. V is the cached value
// type (the engine caches *engine.DerivedScope).
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]*entry[V]
	calls   map[string]*inflight[V]
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
	metrics Metrics
}

// New creates a cache with the given TTL. A non-positive TTL defaults to
// seven days, in line with the 5-10 day window the decision records carry.
func New[V any](ttl time.Duration, logger *slog.Logger, metrics Metrics) *Cache[V] {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache[V]{
		entries: make(map[string]*entry[V]),
		calls:   make(map[string]*inflight[V]),
		ttl:     ttl,
		now:     time.Now,
		logger:  logger.With("component", "decision.cache"),
		metrics: metrics,
	}
}

// SetClock overrides the cache's time source. Tests use this to step through
// expiry without sleeping.
func (c *Cache[V]) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// GetOrCompute returns the cached value for key, or runs compute exactly
// once to produce it. The second return value reports whether the value came
// from a stored entry; goroutines that join an in-flight computation share a
// freshly computed value and report false. Failed computations are not
// cached.
func (c *Cache[V]) GetOrCompute(ctx context.Context, key string, compute func() (V, error)) (V, bool, error) {
	for {
		c.mu.Lock()

		if e, ok := c.entries[key]; ok {
			if c.now().Before(e.expiresAt) {
				value := e.value
				c.mu.Unlock()
				if c.metrics != nil {
					c.metrics.Hit()
				}
				return value, true, nil
			}
			// Expired entries are removed on access rather than by a
			// background reaper.
			delete(c.entries, key)
			if c.metrics != nil {
				c.metrics.Evict(1)
			}
		}

		if call, ok := c.calls[key]; ok {
			// Another goroutine is computing this key; await it.
			c.mu.Unlock()
			select {
			case <-call.done:
			case <-ctx.Done():
				var zero V
				return zero, false, ctx.Err()
			}
			if call.err == nil {
				return call.value, false, nil
			}
			// The leader failed; retry as a fresh computation.
			continue
		}

		call := &inflight[V]{done: make(chan struct{})}
		c.calls[key] = call
		c.mu.Unlock()

		if c.metrics != nil {
			c.metrics.Miss()
		}

		value, err := compute()
		call.value, call.err = value, err

		c.mu.Lock()
		delete(c.calls, key)
		if err == nil {
			c.entries[key] = &entry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
			if c.metrics != nil {
				c.metrics.SetEntries(len(c.entries))
			}
		}
		c.mu.Unlock()
		close(call.done)

		var zero V
		if err != nil {
			return zero, false, err
		}
		return value, false, nil
	}
}

// Invalidate removes a single key.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		if c.metrics != nil {
			c.metrics.Evict(1)
			c.metrics.SetEntries(len(c.entries))
		}
	}
}

// PurgeExpired removes every expired entry and returns how many were evicted.
// Old-version entries (unreachable after a ruleset activation) age out here.
func (c *Cache[V]) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	evicted := 0
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}
	if evicted > 0 {
		c.logger.Debug("purged expired cache entries", "evicted", evicted)
		if c.metrics != nil {
			c.metrics.Evict(evicted)
			c.metrics.SetEntries(len(c.entries))
		}
	}
	return evicted
}

// Len returns the current number of live entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// TTL returns the configured entry lifetime.
func (c *Cache[V]) TTL() time.Duration {
	return c.ttl
}
