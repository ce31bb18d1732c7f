package core

import (
	"context"
	"testing"
	"time"
)

func TestStartRefreshScheduler_PicksUpExternalWrites(t *testing.T) {
	svc, store := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	entries, err := svc.Actions(ctx)
	if err != nil {
		t.Fatalf("Actions: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("got %d actions before seeding, want 0", len(entries))
	}

	done := make(chan struct{})
	go func() {
		svc.StartRefreshScheduler(ctx, 10*time.Millisecond)
		close(done)
	}()

	// Written behind the service's back, as registerctl would.
	seedStore(t, store, ActionsKey, externalOf(sampleActions())...)

	waitFor(t, 2*time.Second, func() bool {
		entries, err := svc.Actions(ctx)
		return err == nil && len(entries) == 2
	})

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}

func TestStartRefreshScheduler_DisabledReturns(t *testing.T) {
	svc, _ := newTestService(t)

	done := make(chan struct{})
	go func() {
		svc.StartRefreshScheduler(context.Background(), 0)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("zero interval should return immediately")
	}
}
