// Package admin provides administrative operations for the record store.
package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/registers/internal/core"
)

// ResetTimeout is the maximum duration for a reset of all collections.
const ResetTimeout = 30 * time.Second

// Resetter clears collections through the service, so caches and the import
// limiter stay consistent with the store.
type Resetter struct {
	Service *core.Service
}

// Cleared is the outcome of resetting one collection.
type Cleared struct {
	Collection string
	Removed    int
}

type resetFn func(ctx context.Context) (Cleared, error)

// ResetAll deletes every record in every registered collection.
// This is a destructive operation - use with caution.
func (r *Resetter) ResetAll(ctx context.Context) ([]Cleared, error) {
	keys := make([]string, 0, core.CollectionCount())
	for _, def := range core.All() {
		keys = append(keys, def.Info.Key)
	}
	return r.Reset(ctx, keys...)
}

// Reset deletes every record in the named collections, in order. It stops at
// the first failure and returns what was cleared before it.
func (r *Resetter) Reset(ctx context.Context, keys ...string) ([]Cleared, error) {
	ctx, cancel := context.WithTimeout(ctx, ResetTimeout)
	defer cancel()

	resets := make([]resetFn, len(keys))
	for i, key := range keys {
		resets[i] = r.collection(key)
	}
	return runResets(ctx, resets)
}

func (r *Resetter) collection(key string) resetFn {
	return func(ctx context.Context) (Cleared, error) {
		n, err := r.Service.ResetCollection(ctx, key)
		if err != nil {
			return Cleared{}, fmt.Errorf("reset %s: %w", key, err)
		}
		return Cleared{Collection: key, Removed: n}, nil
	}
}

func runResets(ctx context.Context, resets []resetFn) ([]Cleared, error) {
	done := make([]Cleared, 0, len(resets))
	for _, reset := range resets {
		c, err := reset(ctx)
		if err != nil {
			return done, err
		}
		done = append(done, c)
	}
	return done, nil
}
