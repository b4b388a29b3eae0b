// Package cache is a small JSON cache used in front of the feed queries.
//
// Two implementations share the Store interface:
//   - Redis: shared between server instances (REDIS_URL set)
//   - Memory: a process-local map, used when no Redis is configured
//
// The cache is an optimisation only. Aside logs and bypasses every cache
// error, so a Redis outage slows requests down but never fails them.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the cache contract.
//
// Get reports (true, nil) on a hit, (false, nil) on a miss, and an error
// only when the backend itself failed.
type Store interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string) (int64, error)
}

// =========================================================================
// REDIS
// =========================================================================

type Redis struct {
	client *redis.Client
}

var _ Store = (*Redis)(nil)

// NewRedis accepts either a redis:// URL or a bare host:port and pings the
// server once so a bad address fails at startup instead of on first use.
func NewRedis(ctx context.Context, addr string) (*Redis, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("cache: parsing redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cache: pinging redis: %w", err)
	}

	return &Redis{client: client}, nil
}

func (r *Redis) Get(ctx context.Context, key string, dest any) (bool, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return false, fmt.Errorf("cache: decoding %s: %w", key, err)
	}
	return true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encoding %s: %w", key, err)
	}
	return r.client.Set(ctx, key, b, ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *Redis) Incr(ctx context.Context, key string) (int64, error) {
	return r.client.Incr(ctx, key).Result()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// =========================================================================
// MEMORY
// =========================================================================

// Memory stores JSON-encoded values so a hit returns a fresh copy, exactly
// like Redis would. Callers can mutate what they get back without
// corrupting the cache.
type Memory struct {
	mu    sync.Mutex
	items map[string]memoryItem
	now   func() time.Time
}

type memoryItem struct {
	value   []byte
	expires time.Time // zero = never
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{items: make(map[string]memoryItem), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	item, ok := m.items[key]
	if ok && !item.expires.IsZero() && m.now().After(item.expires) {
		delete(m.items, key)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(item.value, dest); err != nil {
		return false, fmt.Errorf("cache: decoding %s: %w", key, err)
	}
	return true, nil
}

func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encoding %s: %w", key, err)
	}
	item := memoryItem{value: b}
	if ttl > 0 {
		item.expires = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.items[key] = item
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.items, k)
	}
	m.mu.Unlock()
	return nil
}

// Incr stores the counter as its JSON encoding so Get can read it back.
func (m *Memory) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	if item, ok := m.items[key]; ok {
		if err := json.Unmarshal(item.value, &n); err != nil {
			return 0, fmt.Errorf("cache: %s is not a counter: %w", key, err)
		}
	}
	n++
	b, _ := json.Marshal(n)
	m.items[key] = memoryItem{value: b}
	return n, nil
}

// =========================================================================
// CACHE-ASIDE
// =========================================================================

// Aside returns the cached value for key, or calls fetch, stores its result
// and returns it.
//
// GENERICS:
// T is the cached type ([]model.FeedPost, ...). The caller gets a typed
// value back instead of filling an `any` destination.
//
// A nil store disables caching entirely. Cache read and write failures are
// logged at Warn and otherwise ignored; only fetch errors are returned.
func Aside[T any](ctx context.Context, store Store, logger *slog.Logger, key string, ttl time.Duration, fetch func() (T, error)) (T, error) {
	if store == nil {
		return fetch()
	}

	var cached T
	hit, err := store.Get(ctx, key, &cached)
	if err != nil {
		logger.Warn("cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	if hit {
		return cached, nil
	}

	value, err := fetch()
	if err != nil {
		return value, err
	}

	if err := store.Set(ctx, key, value, ttl); err != nil {
		logger.Warn("cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return value, nil
}
