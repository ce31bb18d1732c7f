package core

import (
	"context"
	"errors"
	"reflect"
	"regexp"
	"slices"
	"testing"
	"time"
)

func newTestReconciler(store Store) *Reconciler {
	r := NewReconciler(store)
	r.now = func() time.Time { return fixedNow }
	return r
}

func seedStore(t *testing.T, store *memStore, key string, recs ...ExternalRecord) {
	t.Helper()
	if err := store.Insert(context.Background(), key, recs...); err != nil {
		t.Fatalf("seeding %s: %v", key, err)
	}
}

var importIDPattern = regexp.MustCompile(`^import-\d+-[0-9a-f]{8}$`)

func TestNewImportID(t *testing.T) {
	id := NewImportID(fixedNow)
	if !regexp.MustCompile(`^import-1741944600000-[0-9a-f]{8}$`).MatchString(id) {
		t.Errorf("NewImportID = %q, want import-1741944600000-<8 hex>", id)
	}
	if again := NewImportID(fixedNow); again == id {
		t.Errorf("NewImportID returned %q twice", id)
	}
}

func TestPrepare_FillsDefaults(t *testing.T) {
	def, _ := Get(ActionsKey)
	r := newTestReconciler(newMemStore())

	in := ExternalRecord{"action": "Hire CFO"}
	out, dups := r.Prepare(def, []ExternalRecord{in})
	if len(out) != 1 || dups != 0 {
		t.Fatalf("Prepare = %d records, %d duplicates; want 1, 0", len(out), dups)
	}

	rec := out[0]
	if !importIDPattern.MatchString(rec.ID()) {
		t.Errorf("id = %q, want a generated import id", rec.ID())
	}
	tests := []struct {
		column string
		want   any
	}{
		{"num", 0},
		{"created_at", fixedNow},
		{"updated_at", fixedNow},
		{"owner", OwnerUnassigned},
		{"linked_rules", []string{}},
	}
	for _, tt := range tests {
		if got := rec[tt.column]; !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s = %#v, want %#v", tt.column, got, tt.want)
		}
	}

	if _, touched := in["id"]; touched {
		t.Error("Prepare modified its input record")
	}
}

func TestPrepare_KeepsProvidedValues(t *testing.T) {
	def, _ := Get(ActionsKey)
	r := newTestReconciler(newMemStore())
	created := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	out, _ := r.Prepare(def, []ExternalRecord{{
		"id": "  keep-me ", "num": 12, "action": "X", "created_at": created,
	}})
	if len(out) != 1 {
		t.Fatalf("Prepare returned %d records, want 1", len(out))
	}

	rec := out[0]
	if rec.ID() != "keep-me" {
		t.Errorf("id = %q, want keep-me", rec.ID())
	}
	if rec["num"] != 12 {
		t.Errorf("num = %v, want 12", rec["num"])
	}
	if rec["created_at"] != created {
		t.Errorf("created_at = %v, want %v", rec["created_at"], created)
	}
	if rec["updated_at"] != fixedNow {
		t.Errorf("updated_at = %v, want %v", rec["updated_at"], fixedNow)
	}
}

func TestPrepare_CollapsesDuplicateIDs(t *testing.T) {
	def, _ := Get(RegisterKey)
	r := newTestReconciler(newMemStore())

	out, dups := r.Prepare(def, []ExternalRecord{
		{"id": "r1", "title": "first"},
		{"id": "r2", "title": "other"},
		{"id": "r1", "title": "second"},
	})

	if dups != 1 {
		t.Errorf("duplicates = %d, want 1", dups)
	}
	if len(out) != 2 {
		t.Fatalf("Prepare returned %d records, want 2", len(out))
	}
	if out[0]["title"] != "second" || out[1]["title"] != "other" {
		t.Errorf("titles = [%v %v], want [second other]", out[0]["title"], out[1]["title"])
	}
	if _, hasNum := out[0]["num"]; hasNum {
		t.Error("register record was numbered")
	}
}

func TestReconcile_Merge(t *testing.T) {
	def, _ := Get(RegisterKey)
	store := newMemStore()
	seedStore(t, store, RegisterKey,
		RegisterEntry{ID: "keep", Title: "Untouched", CreatedAt: fixedNow}.External(),
		RegisterEntry{ID: "r1", Title: "Old title", CreatedAt: fixedNow}.External(),
	)
	refreshed := 0
	refresh := func(context.Context) error { refreshed++; return nil }

	res := newTestReconciler(store).Reconcile(context.Background(), def, []ExternalRecord{
		{"id": "r1", "title": "New title"},
		{"title": "Brand new"},
	}, ImportMerge, refresh)

	if !res.OK() {
		t.Fatalf("Reconcile errors: %v", res.Errors)
	}
	if res.Written != 2 || !res.Refreshed || res.Cleared {
		t.Errorf("result = %+v, want 2 written, refreshed, not cleared", res)
	}
	if refreshed != 1 {
		t.Errorf("refresh called %d times, want 1", refreshed)
	}

	if got := store.count(RegisterKey); got != 3 {
		t.Errorf("store holds %d entries, want 3", got)
	}
	if got := store.get(RegisterKey, "keep")["title"]; got != "Untouched" {
		t.Errorf("keep title = %v, want Untouched", got)
	}
	if got := store.get(RegisterKey, "r1")["title"]; got != "New title" {
		t.Errorf("r1 title = %v, want New title", got)
	}
}

func TestReconcile_Replace(t *testing.T) {
	def, _ := Get(ActionsKey)
	store := newMemStore()
	seedStore(t, store, ActionsKey,
		ActionEntry{ID: "gone", Action: "Old", CreatedAt: fixedNow}.External(),
	)

	res := newTestReconciler(store).Reconcile(context.Background(), def, []ExternalRecord{
		{"id": "a1", "action": "One"},
		{"action": "Two"},
	}, ImportReplace, nil)

	if !res.OK() {
		t.Fatalf("Reconcile errors: %v", res.Errors)
	}
	if !res.Cleared || res.Written != 2 {
		t.Errorf("result = %+v, want cleared with 2 written", res)
	}
	if got := store.count(ActionsKey); got != 2 {
		t.Errorf("store holds %d actions, want 2", got)
	}
	if store.get(ActionsKey, "gone") != nil {
		t.Error("replace kept a record missing from the file")
	}
	if got := store.calls[len(store.calls)-2:]; !slices.Equal(got, []string{"delete_all", "insert"}) {
		t.Errorf("last store calls = %v, want [delete_all insert]", got)
	}
}

func TestReconcile_ReplaceInsertFailureLeavesCollectionEmpty(t *testing.T) {
	def, _ := Get(ActionsKey)
	store := newMemStore()
	seedStore(t, store, ActionsKey, ActionEntry{ID: "old", Action: "Old"}.External())
	store.fail["insert"] = errStoreDown

	refreshed := false
	res := newTestReconciler(store).Reconcile(context.Background(), def, []ExternalRecord{
		{"action": "New"},
	}, ImportReplace, func(context.Context) error { refreshed = true; return nil })

	if res.OK() {
		t.Fatal("Reconcile reported success with a failing insert")
	}
	if !res.Cleared || res.Written != 0 {
		t.Errorf("result = %+v, want cleared with nothing written", res)
	}
	if !refreshed {
		t.Error("refresh did not run after a failed store call")
	}
	if got := store.count(ActionsKey); got != 0 {
		t.Errorf("store holds %d actions, want 0", got)
	}

	var se *StoreError
	if !errors.As(res.Err(), &se) {
		t.Fatalf("Err() = %v, want *StoreError", res.Err())
	}
	if se.Op != "insert" {
		t.Errorf("Op = %q, want insert", se.Op)
	}
	if !errors.Is(res.Err(), errStoreDown) {
		t.Errorf("Err() = %v, want it to wrap %v", res.Err(), errStoreDown)
	}
}

func TestReconcile_FailuresAreCollected(t *testing.T) {
	def, _ := Get(RegisterKey)
	store := newMemStore()
	store.fail["upsert"] = errStoreDown
	refreshErr := errors.New("reload failed")

	res := newTestReconciler(store).Reconcile(context.Background(), def, []ExternalRecord{
		{"title": "X"},
	}, ImportMerge, func(context.Context) error { return refreshErr })

	if res.OK() || res.Refreshed {
		t.Errorf("result = %+v, want failed and not refreshed", res)
	}
	if len(res.Errors) != 2 {
		t.Errorf("got %d errors, want 2: %v", len(res.Errors), res.Errors)
	}
	for _, want := range []error{errStoreDown, refreshErr} {
		if !errors.Is(res.Err(), want) {
			t.Errorf("Err() = %v, want it to wrap %v", res.Err(), want)
		}
	}
}
