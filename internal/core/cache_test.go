package core

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"testing"
)

func TestCache_RefreshAndItems(t *testing.T) {
	calls := 0
	c := NewCache(func(context.Context) ([]string, error) {
		calls++
		return []string{"a", "b"}, nil
	})

	if c.Loaded() {
		t.Fatal("new cache reports Loaded")
	}
	for i := 0; i < 2; i++ {
		if err := c.Ensure(context.Background()); err != nil {
			t.Fatalf("Ensure: %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("load calls = %d, want 1 (Ensure loads only once)", calls)
	}

	items := c.Items()
	items[0] = "mutated"
	if got := c.Items(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Items = %v, want a copy [a b]", got)
	}
	if got := c.Len(); got != 2 {
		t.Errorf("Len = %d, want 2", got)
	}
}

func TestCache_KeepsContentsOnFailure(t *testing.T) {
	fail := false
	boom := errors.New("boom")
	c := NewCache(func(context.Context) ([]int, error) {
		if fail {
			return nil, boom
		}
		return []int{1, 2, 3}, nil
	})

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	okStatus := c.Status()

	fail = true
	if err := c.Refresh(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Refresh error = %v, want %v", err, boom)
	}
	if got := c.Items(); !slices.Equal(got, []int{1, 2, 3}) {
		t.Errorf("Items after failure = %v, want [1 2 3]", got)
	}

	st := c.Status()
	if !st.Loaded || st.Items != 3 {
		t.Errorf("Status = %+v, want loaded with 3 items", st)
	}
	if st.LastError != "boom" {
		t.Errorf("LastError = %q, want %q", st.LastError, "boom")
	}
	if !st.RefreshedAt.Equal(okStatus.RefreshedAt) {
		t.Errorf("RefreshedAt moved on failure: %v -> %v", okStatus.RefreshedAt, st.RefreshedAt)
	}

	fail = false
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := c.Status().LastError; got != "" {
		t.Errorf("LastError after recovery = %q, want empty", got)
	}
}

func TestCache_EnsureRetriesAfterFailedFirstLoad(t *testing.T) {
	fail := true
	c := NewCache(func(context.Context) ([]int, error) {
		if fail {
			return nil, errors.New("down")
		}
		return []int{7}, nil
	})

	if err := c.Ensure(context.Background()); err == nil {
		t.Fatal("Ensure succeeded, want error")
	}
	if c.Loaded() {
		t.Error("Loaded after failed first load")
	}

	fail = false
	if err := c.Ensure(context.Background()); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if got := c.Items(); !slices.Equal(got, []int{7}) {
		t.Errorf("Items = %v, want [7]", got)
	}
}

// blockingLoader holds its first call until release is closed, then returns
// first. Later calls return later straight away.
func blockingLoader(first, later []string) (LoadFunc[string], chan struct{}, chan struct{}) {
	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	load := func(context.Context) ([]string, error) {
		if calls.Add(1) == 1 {
			close(entered)
			<-release
			return first, nil
		}
		return later, nil
	}
	return load, entered, release
}

func TestCache_OlderRefreshDoesNotOverwriteNewer(t *testing.T) {
	ctx := context.Background()
	load, entered, release := blockingLoader([]string{"old"}, []string{"old", "imported"})
	c := NewCache(load)

	// A scheduled reload starts before the import and stalls in the store.
	done := make(chan error, 1)
	go func() { done <- c.Refresh(ctx) }()
	<-entered

	// The import's own reload starts later and finishes first.
	if err := c.Refresh(ctx); err != nil {
		t.Fatalf("import refresh: %v", err)
	}
	if got := c.Items(); !slices.Equal(got, []string{"old", "imported"}) {
		t.Fatalf("after import refresh = %v, want [old imported]", got)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("scheduled refresh: %v", err)
	}
	if got := c.Items(); !slices.Equal(got, []string{"old", "imported"}) {
		t.Errorf("after the older refresh finished = %v, want [old imported]", got)
	}
}

func TestCache_OlderRefreshFillsNeverLoadedCache(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	c := NewCache(func(context.Context) ([]string, error) {
		if calls.Add(1) == 1 {
			close(entered)
			<-release
			return []string{"a"}, nil
		}
		return nil, errors.New("down")
	})

	done := make(chan error, 1)
	go func() { done <- c.Refresh(ctx) }()
	<-entered

	if err := c.Refresh(ctx); err == nil {
		t.Fatal("second refresh succeeded, want error")
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first refresh: %v", err)
	}

	if !c.Loaded() {
		t.Fatal("cache not loaded after a successful refresh")
	}
	if got := c.Items(); !slices.Equal(got, []string{"a"}) {
		t.Errorf("Items = %v, want [a]", got)
	}
	if got := c.Status().LastError; got != "down" {
		t.Errorf("LastError = %q, want %q", got, "down")
	}
}
