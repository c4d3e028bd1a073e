// Package ratelimit provides a per-client token bucket used to shield
// the upstream data providers from request bursts: every search fans
// out into several third-party fetches, so one noisy client can burn
// through provider quotas quickly.
package ratelimit

import (
	"sync"
	"time"
)

// staleAfter is how long an idle bucket survives before eviction.
const staleAfter = 10 * time.Minute

type bucket struct {
	tokens float64
	last   time.Time
}

// Limiter tracks one token bucket per client key.
type Limiter struct {
	capacity float64
	refill   float64 // tokens per second

	mu sync.Mutex
	m  map[string]*bucket
}

// New creates a limiter allowing bursts of capacity requests, refilled
// at refillPerSec.
func New(capacity, refillPerSec float64) *Limiter {
	return &Limiter{
		capacity: capacity,
		refill:   refillPerSec,
		m:        make(map[string]*bucket),
	}
}

// Allow consumes one token for key, reporting whether the request may
// proceed. Idle buckets are evicted opportunistically.
func (l *Limiter) Allow(key string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.m[key]
	if !ok {
		b = &bucket{tokens: l.capacity, last: now}
		l.m[key] = b
		l.evictStale(now)
	}

	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens += elapsed * l.refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// evictStale drops buckets idle long enough to be full again anyway.
// Called with the lock held.
func (l *Limiter) evictStale(now time.Time) {
	for k, b := range l.m {
		if now.Sub(b.last) > staleAfter {
			delete(l.m, k)
		}
	}
}
