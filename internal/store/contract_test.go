package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/registers/internal/core"
)

// storeContract exercises behavior every core.Store implementation must
// share. The store must start empty.
func storeContract(t *testing.T, s core.Store) {
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	action := func(id string, num int, created time.Time) core.ExternalRecord {
		return core.ActionEntry{
			ID:          id,
			Num:         num,
			Action:      "Action " + id,
			Decision:    "Line one\nline \"two\"",
			Owner:       "Alex Chen",
			Category:    "Operations",
			Priority:    core.PriorityHigh,
			Status:      core.StatusNotStarted,
			DueDate:     "2025-04-01",
			LinkedRules: []string{"rule-1", "rule-2"},
			CreatedAt:   created,
			UpdatedAt:   created,
		}.External()
	}

	t.Run("insert and select newest first", func(t *testing.T) {
		require.NoError(t, s.Insert(ctx, core.ActionsKey,
			action("a-1", 1, base),
			action("a-2", 2, base.Add(time.Hour)),
		))

		recs, err := s.SelectAll(ctx, core.ActionsKey)
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, "a-2", recs[0].ID())

		got := core.ActionEntryFromExternal(recs[1])
		assert.Equal(t, 1, got.Num)
		assert.Equal(t, "Line one\nline \"two\"", got.Decision)
		assert.Equal(t, []string{"rule-1", "rule-2"}, got.LinkedRules)
		assert.Equal(t, "2025-04-01", got.DueDate)
		assert.True(t, base.Equal(got.CreatedAt))
	})

	t.Run("insert duplicate id fails", func(t *testing.T) {
		err := s.Insert(ctx, core.ActionsKey, action("a-1", 9, base))
		require.Error(t, err)
		assert.Equal(t, "STORE001", core.MapError(err).Code)
	})

	t.Run("update sets only given columns", func(t *testing.T) {
		later := base.Add(48 * time.Hour)
		require.NoError(t, s.Update(ctx, core.ActionsKey, "a-1", core.ExternalRecord{
			"status":     core.StatusDone,
			"updated_at": later,
		}))

		rec := find(t, s, core.ActionsKey, "a-1")
		got := core.ActionEntryFromExternal(rec)
		assert.Equal(t, core.StatusDone, got.Status)
		assert.True(t, later.Equal(got.UpdatedAt))
		assert.True(t, base.Equal(got.CreatedAt))
		assert.Equal(t, "Alex Chen", got.Owner)
	})

	t.Run("update and delete missing id", func(t *testing.T) {
		err := s.Update(ctx, core.ActionsKey, "nope", core.ExternalRecord{"status": core.StatusDone})
		assert.ErrorIs(t, err, core.ErrNotFound)
		assert.ErrorIs(t, s.Update(ctx, core.ActionsKey, "nope", core.ExternalRecord{}), core.ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, core.ActionsKey, "nope"), core.ErrNotFound)
	})

	t.Run("upsert overwrites and inserts", func(t *testing.T) {
		replaced := action("a-2", 2, base)
		replaced["action"] = "Rewritten"
		replaced["linked_rules"] = []string{}

		require.NoError(t, s.Upsert(ctx, core.ActionsKey, replaced, action("a-3", 3, base.Add(2*time.Hour))))

		recs, err := s.SelectAll(ctx, core.ActionsKey)
		require.NoError(t, err)
		assert.Len(t, recs, 3)

		got := core.ActionEntryFromExternal(find(t, s, core.ActionsKey, "a-2"))
		assert.Equal(t, "Rewritten", got.Action)
		assert.Equal(t, []string{}, got.LinkedRules)
		assert.True(t, base.Equal(got.CreatedAt))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, core.ActionsKey, "a-3"))
		assert.Nil(t, lookup(t, s, core.ActionsKey, "a-3"))
	})

	t.Run("delete all leaves other collections alone", func(t *testing.T) {
		require.NoError(t, s.Insert(ctx, core.RegisterKey, core.RegisterEntry{
			ID:        "r-1",
			Type:      core.TypeIssue,
			Title:     "Late supplier",
			Status:    core.StatusOpen,
			Tags:      []string{"supply"},
			CreatedAt: base,
			UpdatedAt: base,
		}.External()))

		require.NoError(t, s.DeleteAll(ctx, core.ActionsKey))

		recs, err := s.SelectAll(ctx, core.ActionsKey)
		require.NoError(t, err)
		assert.Empty(t, recs)

		reg, err := s.SelectAll(ctx, core.RegisterKey)
		require.NoError(t, err)
		require.Len(t, reg, 1)
		assert.Equal(t, []string{"supply"}, core.RegisterEntryFromExternal(reg[0]).Tags)
	})

	t.Run("unknown collection", func(t *testing.T) {
		_, err := s.SelectAll(ctx, "nope")
		assert.ErrorIs(t, err, core.ErrUnknownCollection)
	})
}

func lookup(t *testing.T, s core.Store, collection, id string) core.ExternalRecord {
	t.Helper()
	recs, err := s.SelectAll(context.Background(), collection)
	require.NoError(t, err)
	for _, r := range recs {
		if r.ID() == id {
			return r
		}
	}
	return nil
}

func find(t *testing.T, s core.Store, collection, id string) core.ExternalRecord {
	t.Helper()
	rec := lookup(t, s, collection, id)
	require.NotNil(t, rec, "record %s not found", id)
	return rec
}
