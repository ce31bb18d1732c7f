package core

// reconcile.go commits a parsed import batch to the store.
//
// Preprocessing gives every record an id (import-<unix ms>-<8 hex>), a num of
// 0 where the collection numbers records, and created/updated timestamps of
// now, then fills remaining defaults through the collection's mapper.
//
// Replace mode deletes every record and then inserts the batch. The two
// steps are separate store calls: a failed insert leaves the collection
// empty. Merge mode upserts the batch by id.
//
// Store failures do not stop the reconciler. They are logged and collected
// in the ImportResult, and the cache refresh always runs afterwards.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/registers/internal/logging"
	"github.com/google/uuid"
)

// ImportResult reports what an import did.
type ImportResult struct {
	Collection string     `json:"collection"`
	Mode       ImportMode `json:"mode"`
	Rows       int        `json:"rows"`
	Written    int        `json:"written"`
	Duplicates int        `json:"duplicates"` // rows replaced by a later row with the same id
	Cleared    bool       `json:"cleared"`    // replace mode removed existing records
	Refreshed  bool       `json:"refreshed"`
	Errors     []string   `json:"errors,omitempty"`
	DurationMs int64      `json:"duration_ms"`

	errs []error
}

// Err returns the joined store and refresh errors, or nil.
func (r *ImportResult) Err() error {
	return errors.Join(r.errs...)
}

// OK reports whether every step succeeded.
func (r *ImportResult) OK() bool {
	return len(r.errs) == 0
}

func (r *ImportResult) addErr(err error) {
	r.errs = append(r.errs, err)
	r.Errors = append(r.Errors, err.Error())
}

// Reconciler drives the store to the state an import asks for.
type Reconciler struct {
	store Store
	now   func() time.Time
}

// NewReconciler creates a reconciler writing to store.
func NewReconciler(store Store) *Reconciler {
	return &Reconciler{store: store, now: time.Now}
}

// Prepare fills ids, sequence numbers, timestamps and field defaults.
// Rows sharing an id collapse to the last one; the count of collapsed rows
// is returned.
func (r *Reconciler) Prepare(def CollectionDefinition, records []ExternalRecord) ([]ExternalRecord, int) {
	now := r.now()
	hasNum := def.HasColumn("num")

	prepared := make([]ExternalRecord, 0, len(records))
	index := make(map[string]int, len(records))
	duplicates := 0

	for _, rec := range records {
		rec = rec.Clone()

		id := strings.TrimSpace(rec.ID())
		if id == "" {
			id = NewImportID(now)
			for index[id] > 0 {
				id = NewImportID(now)
			}
		}
		rec["id"] = id

		if hasNum {
			if _, ok := rec["num"]; !ok {
				rec["num"] = 0
			}
		}
		for _, col := range []string{"created_at", "updated_at"} {
			if def.HasColumn(col) && timeValue(rec[col]).IsZero() {
				rec[col] = now
			}
		}
		if def.Normalize != nil {
			rec = def.Normalize(rec)
		}

		if i, ok := index[id]; ok {
			prepared[i-1] = rec
			duplicates++
			continue
		}
		prepared = append(prepared, rec)
		index[id] = len(prepared)
	}

	return prepared, duplicates
}

// Reconcile prepares records and applies them in the given mode, then calls
// refresh. It never returns early on a store failure.
func (r *Reconciler) Reconcile(ctx context.Context, def CollectionDefinition, records []ExternalRecord, mode ImportMode, refresh func(context.Context) error) *ImportResult {
	start := r.now()
	key := def.Info.Key
	logger := logging.WithFields(ctx, "collection", key, "mode", string(mode))

	prepared, dups := r.Prepare(def, records)
	result := &ImportResult{
		Collection: key,
		Mode:       mode,
		Rows:       len(prepared),
		Duplicates: dups,
	}

	switch mode {
	case ImportReplace:
		if err := r.store.DeleteAll(ctx, key); err != nil {
			err = storeErr("delete_all", key, err)
			logger.Error("import: clearing collection failed", "error", err)
			result.addErr(err)
		} else {
			result.Cleared = true
		}
		if err := r.store.Insert(ctx, key, prepared...); err != nil {
			err = storeErr("insert", key, err)
			logger.Error("import: inserting rows failed", "error", err, "rows", len(prepared))
			result.addErr(err)
		} else {
			result.Written = len(prepared)
		}

	case ImportMerge:
		if err := r.store.Upsert(ctx, key, prepared...); err != nil {
			err = storeErr("upsert", key, err)
			logger.Error("import: merging rows failed", "error", err, "rows", len(prepared))
			result.addErr(err)
		} else {
			result.Written = len(prepared)
		}

	default:
		result.addErr(fmt.Errorf("import: unsupported mode %q", mode))
	}

	if refresh != nil {
		if err := refresh(ctx); err != nil {
			logger.Error("import: reloading collection failed", "error", err)
			result.addErr(fmt.Errorf("refresh %s: %w", key, err))
		} else {
			result.Refreshed = true
		}
	}

	result.DurationMs = r.now().Sub(start).Milliseconds()
	logger.Info("import finished",
		"rows", result.Rows,
		"written", result.Written,
		"duplicates", result.Duplicates,
		"errors", len(result.Errors),
		"duration_ms", result.DurationMs,
	)
	return result
}

// NewImportID returns an id for an imported row that carried none.
func NewImportID(now time.Time) string {
	return fmt.Sprintf("import-%d-%s", now.UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
