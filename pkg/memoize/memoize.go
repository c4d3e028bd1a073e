// Package memoize wraps functions so repeated calls with equivalent keys
// return a cached result. Backends are pluggable: in-process map, JSON
// file store tolerant of external rewrites, or Redis for shared caches.
package memoize

import (
	"context"
	"encoding/json"
	"time"
)

// Entry wraps a memoized result with the timestamp it was computed,
// used to compute age for expiration. Values are kept as JSON so every
// store persists and revives them the same way (dates come back from
// RFC3339 strings).
type Entry struct {
	Date  time.Time       `json:"date"`
	Value json.RawMessage `json:"value"`
}

// Store is a cache backend.
type Store interface {
	Get(key string) (Entry, bool)
	Set(key string, e Entry)
	Delete(key string)
	Flush()
	// Invalidate removes every entry matching pred.
	Invalidate(pred func(key string, e Entry) bool)
}

// Config controls a wrapped function.
type Config struct {
	Store Store
	// Key derives the cache key from the call argument. Defaults to the
	// argument's JSON. Time-bucketed sources return a logical-day id
	// here so entries expire at the bucket boundary.
	Key func(arg any) string
	// MaxAge expires entries older than this. Zero means no TTL.
	MaxAge time.Duration
	// OnCall runs before every lookup; sources use it to sweep stale
	// bucket keys.
	OnCall func(s Store)
	// Disabled calls straight through.
	Disabled bool
}

// Wrap memoizes fn. A failed call propagates its error and is not
// cached.
func Wrap[A, R any](fn func(context.Context, A) (R, error), cfg Config) func(context.Context, A) (R, error) {
	return func(ctx context.Context, arg A) (R, error) {
		if cfg.Disabled || cfg.Store == nil {
			return fn(ctx, arg)
		}

		if cfg.OnCall != nil {
			cfg.OnCall(cfg.Store)
		}

		key := defaultKey(arg)
		if cfg.Key != nil {
			key = cfg.Key(arg)
		}

		if e, ok := cfg.Store.Get(key); ok {
			if cfg.MaxAge <= 0 || time.Since(e.Date) < cfg.MaxAge {
				var cached R
				if err := json.Unmarshal(e.Value, &cached); err == nil {
					return cached, nil
				}
			}
			cfg.Store.Delete(key)
		}

		result, err := fn(ctx, arg)
		if err != nil {
			var zero R
			return zero, err
		}

		if raw, err := json.Marshal(result); err == nil {
			cfg.Store.Set(key, Entry{Date: time.Now(), Value: raw})
		}

		return result, nil
	}
}

func defaultKey(arg any) string {
	raw, err := json.Marshal(arg)
	if err != nil {
		return "?"
	}
	return string(raw)
}
