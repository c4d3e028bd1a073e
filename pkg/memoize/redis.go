package memoize

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps entries in Redis under a key prefix, for deployments
// where several instances should share one upstream cache.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(addr, password string, db int, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	if prefix == "" {
		prefix = "memoize"
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error { return s.client.Close() }

func (s *RedisStore) wrap(key string) string {
	return fmt.Sprintf("%s:%s", s.prefix, key)
}

func (s *RedisStore) Get(key string) (Entry, bool) {
	ctx, cancel := opCtx()
	defer cancel()

	raw, err := s.client.Get(ctx, s.wrap(key)).Bytes()
	if err != nil {
		return Entry{}, false
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, false
	}
	return e, true
}

func (s *RedisStore) Set(key string, e Entry) {
	ctx, cancel := opCtx()
	defer cancel()

	raw, err := json.Marshal(e)
	if err != nil {
		return
	}
	s.client.Set(ctx, s.wrap(key), raw, 0)
}

func (s *RedisStore) Delete(key string) {
	ctx, cancel := opCtx()
	defer cancel()
	s.client.Del(ctx, s.wrap(key))
}

func (s *RedisStore) Flush() {
	s.Invalidate(func(string, Entry) bool { return true })
}

func (s *RedisStore) Invalidate(pred func(key string, e Entry) bool) {
	ctx, cancel := opCtx()
	defer cancel()

	iter := s.client.Scan(ctx, 0, s.prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		full := iter.Val()
		key := full[len(s.prefix)+1:]

		raw, err := s.client.Get(ctx, full).Bytes()
		if err != nil {
			continue
		}
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			s.client.Del(ctx, full)
			continue
		}
		if pred(key, e) {
			s.client.Del(ctx, full)
		}
	}
}

func opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}
