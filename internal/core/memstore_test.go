package core

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/registers/internal/config"
)

// memStore is an in-memory Store for tests. Setting fail[op] makes that
// operation return the error.
type memStore struct {
	mu    sync.Mutex
	data  map[string][]ExternalRecord
	fail  map[string]error
	calls []string
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]ExternalRecord{}, fail: map[string]error{}}
}

func (m *memStore) record(op string) error {
	m.calls = append(m.calls, op)
	return m.fail[op]
}

func (m *memStore) SelectAll(_ context.Context, collection string) ([]ExternalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("select"); err != nil {
		return nil, err
	}
	out := make([]ExternalRecord, 0, len(m.data[collection]))
	for _, r := range m.data[collection] {
		out = append(out, r.Clone())
	}
	slices.SortStableFunc(out, func(a, b ExternalRecord) int {
		return timeValue(b["created_at"]).Compare(timeValue(a["created_at"]))
	})
	return out, nil
}

func (m *memStore) Insert(_ context.Context, collection string, records ...ExternalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("insert"); err != nil {
		return err
	}
	for _, r := range records {
		if m.indexOf(collection, r.ID()) >= 0 {
			return fmt.Errorf("duplicate key value violates unique constraint: id %s", r.ID())
		}
	}
	for _, r := range records {
		m.data[collection] = append(m.data[collection], r.Clone())
	}
	return nil
}

func (m *memStore) Update(_ context.Context, collection, id string, fields ExternalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("update"); err != nil {
		return err
	}
	i := m.indexOf(collection, id)
	if i < 0 {
		return ErrNotFound
	}
	for k, v := range fields.Clone() {
		m.data[collection][i][k] = v
	}
	return nil
}

func (m *memStore) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("delete"); err != nil {
		return err
	}
	i := m.indexOf(collection, id)
	if i < 0 {
		return ErrNotFound
	}
	m.data[collection] = slices.Delete(m.data[collection], i, i+1)
	return nil
}

func (m *memStore) DeleteAll(_ context.Context, collection string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("delete_all"); err != nil {
		return err
	}
	m.data[collection] = nil
	return nil
}

func (m *memStore) Upsert(_ context.Context, collection string, records ...ExternalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("upsert"); err != nil {
		return err
	}
	for _, r := range records {
		if i := m.indexOf(collection, r.ID()); i >= 0 {
			m.data[collection][i] = r.Clone()
			continue
		}
		m.data[collection] = append(m.data[collection], r.Clone())
	}
	return nil
}

func (m *memStore) indexOf(collection, id string) int {
	for i, r := range m.data[collection] {
		if r.ID() == id {
			return i
		}
	}
	return -1
}

func (m *memStore) count(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data[collection])
}

func (m *memStore) get(collection, id string) ExternalRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexOf(collection, id); i >= 0 {
		return m.data[collection][i].Clone()
	}
	return nil
}

var errStoreDown = errors.New("connection refused")

// fixedNow is the clock used by service tests.
var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		Import: config.ImportConfig{
			MaxFileSize:   1 << 20,
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
		},
		Registers: config.RegistersConfig{
			Owners:    []string{"Steve Braddock", "Alex Chen"},
			RuleOwner: "Steve Braddock",
			OrgName:   "TradieCheck",
		},
	}
}

func newTestService(t *testing.T) (*Service, *memStore) {
	t.Helper()
	store := newMemStore()
	svc, err := NewService(store, testConfig())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	svc.SetClock(func() time.Time { return fixedNow })
	return svc, store
}

// waitFor polls cond until it holds or timeout passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %v", timeout)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
