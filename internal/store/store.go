// Package store implements core.Store on PostgreSQL (pgx) and SQLite
// (modernc.org/sqlite). The driver is chosen by the DATABASE_URL scheme.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/JonMunkholm/registers/internal/config"
	"github.com/JonMunkholm/registers/internal/core"
)

// DB is an open record store together with the handles needed to migrate
// and close it.
type DB struct {
	Store  core.Store
	Driver string

	pool  *pgxpool.Pool // postgres only
	sqlDB *sql.DB       // migrations; the store itself on sqlite
}

// Open connects to the store named by cfg.URL.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	switch driver := cfg.Driver(); driver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg)
	case config.DriverSQLite:
		db, err := OpenSQLite(ctx, SQLiteDSN(cfg.URL))
		if err != nil {
			return nil, err
		}
		slog.Info("connected to database", "driver", driver)
		return &DB{Store: NewSQLiteStore(db), Driver: driver, sqlDB: db}, nil
	default:
		return nil, fmt.Errorf("unsupported DATABASE_URL scheme")
	}
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "driver", config.DriverPostgres, "name", strings.TrimPrefix(u.Path, "/"))
	}

	return &DB{
		Store:  NewPostgresStore(pool),
		Driver: config.DriverPostgres,
		pool:   pool,
		sqlDB:  stdlib.OpenDBFromPool(pool),
	}, nil
}

// Migrate applies pending schema migrations.
func (d *DB) Migrate(ctx context.Context) (int, error) {
	return Migrate(ctx, d.sqlDB, d.Driver)
}

// MigrationStatus reports applied and pending migrations.
func (d *DB) MigrationStatus(ctx context.Context) ([]MigrationState, error) {
	return MigrationStatus(ctx, d.sqlDB, d.Driver)
}

// Ping checks the connection.
func (d *DB) Ping(ctx context.Context) error {
	if d.pool != nil {
		return d.pool.Ping(ctx)
	}
	return d.sqlDB.PingContext(ctx)
}

// Close releases all connections.
func (d *DB) Close() {
	if d.sqlDB != nil {
		d.sqlDB.Close()
	}
	if d.pool != nil {
		d.pool.Close()
	}
}
