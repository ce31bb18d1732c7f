package core

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// LoadFunc loads the full contents of a collection.
type LoadFunc[T any] func(ctx context.Context) ([]T, error)

// Cache mirrors one collection in memory. It is never mutated directly;
// callers run Refresh after every change to the store.
type Cache[T any] struct {
	load LoadFunc[T]
	now  func() time.Time

	// started numbers loads in start order. applied is the newest load whose
	// result reached the cache; older results are discarded.
	started atomic.Uint64

	mu          sync.RWMutex
	applied     uint64
	items       []T
	loaded      bool
	refreshedAt time.Time
	lastErr     error
}

// NewCache creates an empty cache backed by load.
func NewCache[T any](load LoadFunc[T]) *Cache[T] {
	return &Cache[T]{load: load, now: time.Now}
}

// Refresh reloads the collection. On failure the previous contents are kept
// and the error is returned. A load that started before the one currently
// applied is dropped without touching the cache.
func (c *Cache[T]) Refresh(ctx context.Context) error {
	gen := c.started.Add(1)
	items, err := c.load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen < c.applied {
		// Still better than nothing when every newer load has failed.
		if err == nil && !c.loaded {
			c.items = items
			c.loaded = true
			c.refreshedAt = c.now()
		}
		return err
	}
	c.applied = gen
	c.lastErr = err
	if err != nil {
		return err
	}
	c.items = items
	c.loaded = true
	c.refreshedAt = c.now()
	return nil
}

// Items returns a copy of the cached records in store order.
func (c *Cache[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Ensure loads the collection if it has never been loaded successfully.
func (c *Cache[T]) Ensure(ctx context.Context) error {
	if c.Loaded() {
		return nil
	}
	return c.Refresh(ctx)
}

// Loaded reports whether a refresh has ever succeeded.
func (c *Cache[T]) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Len returns the number of cached records.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// CacheStatus is a snapshot of a cache for monitoring.
type CacheStatus struct {
	Loaded      bool      `json:"loaded"`
	Items       int       `json:"items"`
	RefreshedAt time.Time `json:"refreshed_at,omitzero"`
	LastError   string    `json:"last_error,omitempty"`
}

// Status returns the current cache state.
func (c *Cache[T]) Status() CacheStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := CacheStatus{Loaded: c.loaded, Items: len(c.items), RefreshedAt: c.refreshedAt}
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
	}
	return s
}
