package client

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// QueryCache holds the latest successful result of each query.
//
// It replaces an ambient, framework-owned cache with an explicit value that
// components receive in their constructors, so every test gets its own.
//
// WHAT IT DOES:
//   - Query returns the cached value or runs the fetch function once
//   - concurrent Query calls for one key share a single fetch (singleflight)
//   - Invalidate drops keys and tells their watchers, which refetch
//
// Errors are never cached: the next Query after a failure fetches again.
type QueryCache struct {
	mu       sync.Mutex
	entries  map[string]any
	gens     map[string]uint64
	watchers map[string]map[int]func()
	nextID   int

	flight singleflight.Group
}

func NewQueryCache() *QueryCache {
	return &QueryCache{
		entries:  make(map[string]any),
		gens:     make(map[string]uint64),
		watchers: make(map[string]map[int]func()),
	}
}

// Query returns the value cached under key, fetching it on a miss.
//
// WHY A FUNCTION AND NOT A METHOD?
// Go methods cannot have type parameters. A package-level generic function
// lets one cache hold results of many types while callers still get a
// typed value back.
//
// STALE IN-FLIGHT RESULTS:
// If the key is invalidated while a fetch is running, the result is
// returned to the callers that asked for it but not stored: it may predate
// the mutation that caused the invalidation.
func Query[T any](ctx context.Context, qc *QueryCache, key string, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := Peek[T](qc, key); ok {
		return v, nil
	}

	v, err, _ := qc.flight.Do(key, func() (any, error) {
		gen := qc.generation(key)
		res, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		qc.store(key, gen, res)
		return res, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	typed, ok := v.(T)
	if !ok {
		// Two callers used one key for different types. That is a bug in
		// the caller, not a cache miss.
		var zero T
		return zero, fmt.Errorf("client: query %s holds %T, not %T", key, v, zero)
	}
	return typed, nil
}

// Peek returns the cached value without fetching.
func Peek[T any](qc *QueryCache, key string) (T, bool) {
	qc.mu.Lock()
	defer qc.mu.Unlock()

	v, ok := qc.entries[key].(T)
	return v, ok
}

// Set stores a value directly, e.g. the body a mutation returned.
func (qc *QueryCache) Set(key string, value any) {
	qc.mu.Lock()
	qc.entries[key] = value
	qc.mu.Unlock()
	qc.notify(key)
}

// Invalidate drops the given keys and notifies their watchers.
func (qc *QueryCache) Invalidate(keys ...string) {
	qc.mu.Lock()
	for _, key := range keys {
		delete(qc.entries, key)
		qc.gens[key]++
	}
	qc.mu.Unlock()

	for _, key := range keys {
		qc.notify(key)
	}
}

// Watch calls fn after every change to key (Set or Invalidate). fn runs
// on the goroutine that made the change. The returned function stops
// the watch.
func (qc *QueryCache) Watch(key string, fn func()) (stop func()) {
	qc.mu.Lock()
	defer qc.mu.Unlock()

	id := qc.nextID
	qc.nextID++
	if qc.watchers[key] == nil {
		qc.watchers[key] = make(map[int]func())
	}
	qc.watchers[key][id] = fn

	return func() {
		qc.mu.Lock()
		defer qc.mu.Unlock()
		delete(qc.watchers[key], id)
		if len(qc.watchers[key]) == 0 {
			delete(qc.watchers, key)
		}
	}
}

func (qc *QueryCache) generation(key string) uint64 {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	return qc.gens[key]
}

func (qc *QueryCache) store(key string, gen uint64, value any) {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	if qc.gens[key] == gen {
		qc.entries[key] = value
	}
}

// notify copies the watcher list before calling out, so a watcher may
// itself call Watch, Query or Invalidate without deadlocking.
func (qc *QueryCache) notify(key string) {
	qc.mu.Lock()
	fns := make([]func(), 0, len(qc.watchers[key]))
	for _, fn := range qc.watchers[key] {
		fns = append(fns, fn)
	}
	qc.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
