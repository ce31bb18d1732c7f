package admin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/registers/internal/config"
	"github.com/JonMunkholm/registers/internal/core"
	"github.com/JonMunkholm/registers/internal/store"
)

func newService(t *testing.T) *core.Service {
	t.Helper()
	ctx := context.Background()

	db, err := store.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = store.Migrate(ctx, db, config.DriverSQLite)
	require.NoError(t, err)

	svc, err := core.NewService(store.NewSQLiteStore(db), &config.Config{
		Import: config.ImportConfig{MaxConcurrent: 1, MaxWaitTime: time.Second},
	})
	require.NoError(t, err)
	return svc
}

func TestResetAll(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.CreateAction(ctx, core.ActionEntry{Action: "Register company"})
	require.NoError(t, err)
	_, err = svc.CreateAction(ctx, core.ActionEntry{Action: "Open bank account"})
	require.NoError(t, err)
	_, err = svc.CreateRegisterEntry(ctx, core.RegisterEntry{Title: "Referral scheme"})
	require.NoError(t, err)

	cleared, err := (&Resetter{Service: svc}).ResetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Cleared{
		{Collection: core.ActionsKey, Removed: 2},
		{Collection: core.RegisterKey, Removed: 1},
	}, cleared)

	actions, err := svc.Actions(ctx)
	require.NoError(t, err)
	assert.Empty(t, actions)
	entries, err := svc.RegisterEntries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReset_StopsAtUnknownCollection(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.CreateAction(ctx, core.ActionEntry{Action: "Register company"})
	require.NoError(t, err)

	cleared, err := (&Resetter{Service: svc}).Reset(ctx, core.ActionsKey, "audit_log", core.RegisterKey)
	assert.ErrorIs(t, err, core.ErrUnknownCollection)
	assert.Equal(t, []Cleared{{Collection: core.ActionsKey, Removed: 1}}, cleared)
}
