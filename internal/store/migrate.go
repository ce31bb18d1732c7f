package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"

	"github.com/JonMunkholm/registers/internal/config"
)

//go:embed migrations
var migrations embed.FS

// newProvider returns a goose provider for the driver's migration set.
func newProvider(db *sql.DB, driver string) (*goose.Provider, error) {
	var dialect goose.Dialect
	switch driver {
	case config.DriverPostgres:
		dialect = goose.DialectPostgres
	case config.DriverSQLite:
		dialect = goose.DialectSQLite3
	default:
		return nil, fmt.Errorf("no migrations for driver %q", driver)
	}

	fsys, err := fs.Sub(migrations, "migrations/"+driver)
	if err != nil {
		return nil, err
	}
	return goose.NewProvider(dialect, db, fsys)
}

// Migrate applies pending migrations and returns the number applied.
func Migrate(ctx context.Context, db *sql.DB, driver string) (int, error) {
	provider, err := newProvider(db, driver)
	if err != nil {
		return 0, fmt.Errorf("goose new provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("goose up: %w", err)
	}
	for _, r := range results {
		slog.Info("migration applied",
			"version", r.Source.Version,
			"file", r.Source.Path,
			"duration", r.Duration,
		)
	}
	return len(results), nil
}

// MigrationState describes one migration for status output.
type MigrationState struct {
	Version int64
	File    string
	Applied bool
}

// MigrationStatus lists every known migration and whether it is applied.
func MigrationStatus(ctx context.Context, db *sql.DB, driver string) ([]MigrationState, error) {
	provider, err := newProvider(db, driver)
	if err != nil {
		return nil, fmt.Errorf("goose new provider: %w", err)
	}
	statuses, err := provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("goose status: %w", err)
	}
	out := make([]MigrationState, len(statuses))
	for i, st := range statuses {
		out[i] = MigrationState{
			Version: st.Source.Version,
			File:    st.Source.Path,
			Applied: st.State == goose.StateApplied,
		}
	}
	return out, nil
}
