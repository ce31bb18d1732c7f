package core

// scheduler.go reloads both collection caches on a fixed interval.
//
// The server is not the only writer: registerctl imports and seeds straight
// into the database. Periodic reloads make those writes visible without a
// restart. A failed reload is logged and kept in CacheStatus; the cache keeps
// serving its last good contents.

import (
	"context"
	"log/slog"
	"time"
)

// StartRefreshScheduler reloads the caches every interval until ctx is
// cancelled. It blocks, so run it in its own goroutine. A non-positive
// interval returns immediately.
func (s *Service) StartRefreshScheduler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	slog.Info("refresh scheduler started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("refresh scheduler stopped")
			return
		case <-ticker.C:
			s.runRefreshJob(ctx)
		}
	}
}

// runRefreshJob performs one reload of both caches.
func (s *Service) runRefreshJob(ctx context.Context) {
	start := time.Now()
	if err := s.Refresh(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Error("scheduled refresh failed", "error", err)
		return
	}
	slog.Debug("scheduled refresh complete",
		"actions", s.actions.Len(),
		"register", s.register.Len(),
		"duration", time.Since(start),
	)
}
