package inbox

import (
	"context"
	"os"
	"path/filepath"
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
	return newServiceOn(t, func(s core.Store) core.Store { return s })
}

func newServiceOn(t *testing.T, wrap func(core.Store) core.Store) *core.Service {
	t.Helper()
	ctx := context.Background()

	db, err := store.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = store.Migrate(ctx, db, config.DriverSQLite)
	require.NoError(t, err)

	svc, err := core.NewService(wrap(store.NewSQLiteStore(db)), &config.Config{
		Import: config.ImportConfig{MaxFileSize: 1 << 20, MaxConcurrent: 1, MaxWaitTime: time.Second},
	})
	require.NoError(t, err)
	return svc
}

func drop(t *testing.T, root, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, dir, name), []byte(content), 0o644))
}

func TestRun_ImportsAndMovesFiles(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	root := t.TempDir()

	drop(t, root, "actions", "week1.csv", "id,num,action,status\na-1,1,Register company,Done\n")
	drop(t, root, "actions", "readme.txt", "not a csv")
	drop(t, root, "register", "broken.csv", "title\n")

	results, err := New(svc, root).Run(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)

	ok := results[0]
	assert.Equal(t, core.ActionsKey, ok.Collection)
	assert.True(t, ok.OK())
	assert.Equal(t, 1, ok.Result.Written)
	assert.FileExists(t, filepath.Join(root, "actions", UploadedDir, "week1.csv"))
	assert.NoFileExists(t, filepath.Join(root, "actions", "week1.csv"))
	assert.FileExists(t, filepath.Join(root, "actions", "readme.txt"))

	bad := results[1]
	assert.Equal(t, core.RegisterKey, bad.Collection)
	assert.False(t, bad.OK())
	assert.Error(t, bad.Err)
	assert.FileExists(t, filepath.Join(root, "register", FailedDir, "broken.csv"))
	note, err := os.ReadFile(filepath.Join(root, "register", FailedDir, "broken - failed.txt"))
	require.NoError(t, err)
	assert.NotEmpty(t, note)

	actions, err := svc.Actions(ctx)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "Register company", actions[0].Action)

	// A second scan finds nothing new.
	results, err = New(svc, root).Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRun_MissingDirectoriesAreSkipped(t *testing.T) {
	results, err := New(newService(t), t.TempDir()).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRun_RequiresRoot(t *testing.T) {
	_, err := New(newService(t), "").Run(context.Background())
	assert.Error(t, err)
}

func TestRetryable(t *testing.T) {
	live := context.Background()
	stopped, cancel := context.WithCancel(context.Background())
	cancel()

	assert.True(t, retryable(live, core.ErrTooManyImports))
	assert.False(t, retryable(live, context.DeadlineExceeded), "per-file timeout must fail the file")
	assert.False(t, retryable(live, &core.StoreError{Op: "upsert", Err: context.DeadlineExceeded}))
	assert.True(t, retryable(stopped, context.Canceled))
	assert.True(t, retryable(stopped, &core.StoreError{Op: "upsert", Err: context.Canceled}))
	assert.False(t, retryable(live, core.ErrEmptyImport))
	assert.False(t, retryable(live, nil))
}

// stallingStore blocks writes until the caller's context ends.
type stallingStore struct {
	core.Store
}

func (s stallingStore) Upsert(ctx context.Context, _ string, _ ...core.ExternalRecord) error {
	<-ctx.Done()
	return ctx.Err()
}

func (s stallingStore) DeleteAll(ctx context.Context, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestRun_TimedOutFileMovesToFailed(t *testing.T) {
	prev := FileTimeout
	FileTimeout = 50 * time.Millisecond
	t.Cleanup(func() { FileTimeout = prev })

	svc := newServiceOn(t, func(s core.Store) core.Store { return stallingStore{s} })
	root := t.TempDir()
	drop(t, root, "actions", "slow.csv", "action\nReconcile bank feed\n")

	for _, mode := range []core.ImportMode{core.ImportMerge, core.ImportReplace} {
		im := New(svc, root)
		im.Mode = mode

		results, err := im.Run(context.Background())
		require.NoError(t, err)
		require.Len(t, results, 1, "mode %s", mode)

		res := results[0]
		assert.False(t, res.Deferred, "mode %s: timed out file was deferred", mode)
		assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
		assert.FileExists(t, filepath.Join(root, "actions", FailedDir, "slow.csv"))
		assert.FileExists(t, filepath.Join(root, "actions", FailedDir, "slow - failed.txt"))
		assert.NoFileExists(t, filepath.Join(root, "actions", "slow.csv"))

		// Nothing is left to retry on the next scan.
		results, err = im.Run(context.Background())
		require.NoError(t, err)
		assert.Empty(t, results)

		drop(t, root, "actions", "slow.csv", "action\nReconcile bank feed\n")
	}
}

func TestWatch_StopsOnCancel(t *testing.T) {
	svc := newService(t)
	root := t.TempDir()
	drop(t, root, "register", "ideas.csv", "title,type\nReferral scheme,Idea\n")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		New(svc, root).Watch(ctx, time.Hour)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(root, "register", UploadedDir, "ideas.csv"))
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
