// Package inbox imports CSV files dropped into a directory tree.
//
// Each collection has its own subdirectory under the root:
//
//	<root>/actions/*.csv    Actions & Decisions log
//	<root>/register/*.csv   Ideas & Issues register
//
// Imported files move to <dir>/Uploaded. Files that fail move to <dir>/Failed
// with a "<name> - failed.txt" note beside them, including files that take
// longer than FileTimeout. Files that could not get an import slot stay where
// they are for the next scan.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/JonMunkholm/registers/internal/core"
	"github.com/JonMunkholm/registers/internal/logging"
)

const (
	UploadedDir = "Uploaded"
	FailedDir   = "Failed"

	// Actor is recorded as the author of inbox imports.
	Actor = "inbox"
)

// FileTimeout is the maximum duration for importing one file.
// Can be overridden for testing.
var FileTimeout = 5 * time.Minute

// Dirs maps inbox subdirectories to collection keys.
var Dirs = map[string]string{
	"actions":  core.ActionsKey,
	"register": core.RegisterKey,
}

// FileResult is the outcome of one inbox file.
type FileResult struct {
	Collection string
	File       string
	Result     *core.ImportResult
	Err        error
	Deferred   bool // left in place for the next scan
}

// OK reports whether the file was imported without error.
func (r FileResult) OK() bool {
	return r.Err == nil && r.Result != nil && r.Result.OK()
}

// Importer scans an inbox root and imports what it finds.
type Importer struct {
	Service *core.Service
	Root    string
	Mode    core.ImportMode
}

// New returns an Importer that merges files found under root.
func New(svc *core.Service, root string) *Importer {
	return &Importer{Service: svc, Root: root, Mode: core.ImportMerge}
}

/* ----------------------------------------
	Main entry for scanning
---------------------------------------- */

// Run imports every pending file once. Collections are visited in name order
// and files within a collection in name order. A missing subdirectory is
// skipped. The error is non-nil only when the scan itself could not proceed;
// per-file failures are reported in the results.
func (im *Importer) Run(ctx context.Context) ([]FileResult, error) {
	if im.Root == "" {
		return nil, errors.New("inbox root not set")
	}

	dirs := make([]string, 0, len(Dirs))
	for d := range Dirs {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)

	var results []FileResult
	for _, dir := range dirs {
		full := filepath.Join(im.Root, dir)

		entries, err := os.ReadDir(full)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return results, fmt.Errorf("reading directory %s: %w", dir, err)
		}

		for _, entry := range entries {
			if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
				continue
			}
			if err := ctx.Err(); err != nil {
				return results, fmt.Errorf("operation cancelled: %w", err)
			}
			results = append(results, im.processFile(ctx, full, Dirs[dir], entry.Name()))
		}
	}
	return results, nil
}

/* ----------------------------------------
	Process individual CSV file
---------------------------------------- */

func (im *Importer) processFile(ctx context.Context, dir, key, name string) FileResult {
	res := FileResult{Collection: key, File: filepath.Join(dir, name)}
	log := logging.WithFields(ctx, "collection", key, "file", name)

	res.Result, res.Err = im.importFile(ctx, key, res.File)
	if res.Err == nil && !res.Result.OK() {
		res.Err = res.Result.Err()
	}

	if retryable(ctx, res.Err) {
		res.Deferred = true
		log.Warn("inbox file deferred", "error", res.Err)
		return res
	}

	dest := UploadedDir
	if res.Err != nil {
		dest = FailedDir
		if err := writeFailureNote(dir, name, res); err != nil {
			log.Error("failed writing failure note", "error", err)
		}
	}
	if err := moveFile(dir, dest, name); err != nil {
		res.Err = errors.Join(res.Err, err)
	}

	if res.Err != nil {
		log.Error("inbox import failed", "error", res.Err)
	} else {
		log.Info("inbox import complete", "rows", res.Result.Rows, "written", res.Result.Written)
	}
	return res
}

func (im *Importer) importFile(ctx context.Context, key, path string) (*core.ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	data, err := im.Service.ReadImportFile(f)
	f.Close()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, FileTimeout)
	defer cancel()
	ctx = core.ContextWithActor(ctx, Actor)

	switch key {
	case core.ActionsKey:
		batch, err := core.ParseActionsCSV(data)
		if err != nil {
			return nil, err
		}
		return im.Service.ImportActions(ctx, batch, im.Mode)
	case core.RegisterKey:
		batch, err := core.ParseRegisterCSV(data)
		if err != nil {
			return nil, err
		}
		return im.Service.ImportRegister(ctx, batch, im.Mode)
	}
	return nil, fmt.Errorf("%w: %s", core.ErrUnknownCollection, key)
}

// retryable reports whether a failed file stays in the inbox for the next
// scan: no import slot was free, or the scan itself was stopped. A file that
// runs past FileTimeout fails like any other.
func retryable(scan context.Context, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, core.ErrTooManyImports) {
		return true
	}
	return scan.Err() != nil &&
		(errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}

func writeFailureNote(dir, name string, res FileResult) error {
	failedDir := filepath.Join(dir, FailedDir)
	if err := os.MkdirAll(failedDir, 0o755); err != nil {
		return err
	}

	var b strings.Builder
	if msg := core.FormatUserError(res.Err); msg != "" {
		fmt.Fprintln(&b, msg)
	}
	fmt.Fprintln(&b, res.Err.Error())
	if res.Result != nil {
		for _, e := range res.Result.Errors {
			fmt.Fprintln(&b, e)
		}
	}

	note := fmt.Sprintf("%s - failed.txt", strings.TrimSuffix(name, filepath.Ext(name)))
	return os.WriteFile(filepath.Join(failedDir, note), []byte(b.String()), 0o644)
}

// moveFile moves dir/name into dir/dest, replacing a file of the same name.
func moveFile(dir, dest, name string) error {
	target := filepath.Join(dir, dest)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", dest, err)
	}
	if err := os.Rename(filepath.Join(dir, name), filepath.Join(target, name)); err != nil {
		return fmt.Errorf("failed moving file %s: %w", name, err)
	}
	return nil
}

/* ----------------------------------------
	Polling
---------------------------------------- */

// Watch scans the inbox every interval until ctx is cancelled, starting with
// an immediate scan. It blocks, so run it in its own goroutine.
func (im *Importer) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 || im.Root == "" {
		return
	}
	slog.Info("inbox watcher started", "root", im.Root, "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := im.Run(ctx); err != nil && ctx.Err() == nil {
			slog.Error("inbox scan failed", "error", err)
		}
		select {
		case <-ctx.Done():
			slog.Info("inbox watcher stopped")
			return
		case <-ticker.C:
		}
	}
}
