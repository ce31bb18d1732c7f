package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/registers/internal/core"
)

// SQLiteStore implements core.Store on an embedded SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	sql statements
}

var _ core.Store = (*SQLiteStore)(nil)

// OpenSQLite opens the database at dsn. The schema must be migrated before
// the store is used.
//
// SQLite allows one writer at a time, so the pool holds a single
// connection. An in-memory database also lives only as long as its
// connection.
func OpenSQLite(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return db, nil
}

// SQLiteDSN converts a DATABASE_URL of the form sqlite:<path> or
// file:<path> into a driver DSN.
func SQLiteDSN(url string) string {
	if rest, ok := strings.CutPrefix(url, "sqlite://"); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(url, "sqlite:"); ok {
		return rest
	}
	return url
}

// NewSQLiteStore returns a store using db.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, sql: newStatements(sq.Question, sqliteCodec{})}
}

func (s *SQLiteStore) SelectAll(ctx context.Context, collection string) ([]core.ExternalRecord, error) {
	def, err := core.Lookup(collection)
	if err != nil {
		return nil, err
	}
	query, args, err := s.sql.selectAll(def)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.ExternalRecord
	for rows.Next() {
		values := make([]any, len(def.FieldSpecs))
		ptrs := make([]any, len(values))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rec, err := decodeRow(def, s.sql.codec, values)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Insert(ctx context.Context, collection string, records ...core.ExternalRecord) error {
	def, err := core.Lookup(collection)
	if err != nil {
		return err
	}
	stmts, err := s.sql.insert(def, records)
	if err != nil {
		return err
	}
	return s.execAll(ctx, stmts)
}

func (s *SQLiteStore) Upsert(ctx context.Context, collection string, records ...core.ExternalRecord) error {
	def, err := core.Lookup(collection)
	if err != nil {
		return err
	}
	stmts, err := s.sql.upsert(def, records)
	if err != nil {
		return err
	}
	return s.execAll(ctx, stmts)
}

func (s *SQLiteStore) Update(ctx context.Context, collection, id string, fields core.ExternalRecord) error {
	def, err := core.Lookup(collection)
	if err != nil {
		return err
	}
	if !hasSettableFields(fields) {
		return s.exists(ctx, def, id)
	}
	query, args, err := s.sql.update(def, id, fields)
	if err != nil {
		return err
	}
	return s.execOne(ctx, query, args)
}

func (s *SQLiteStore) Delete(ctx context.Context, collection, id string) error {
	def, err := core.Lookup(collection)
	if err != nil {
		return err
	}
	query, args, err := s.sql.delete(def, id)
	if err != nil {
		return err
	}
	return s.execOne(ctx, query, args)
}

func (s *SQLiteStore) DeleteAll(ctx context.Context, collection string) error {
	def, err := core.Lookup(collection)
	if err != nil {
		return err
	}
	query, args, err := s.sql.deleteAll(def)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

// execOne runs a statement that must touch exactly one record.
func (s *SQLiteStore) execOne(ctx context.Context, query string, args []any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// execAll runs the statements in one transaction.
func (s *SQLiteStore) execAll(ctx context.Context, stmts []sqlStatement) (err error) {
	if len(stmts) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, st := range stmts {
		if _, err = tx.ExecContext(ctx, st.query, st.args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) exists(ctx context.Context, def core.CollectionDefinition, id string) error {
	query, args, err := s.sql.b.Select("1").From(def.Info.Key).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	var one int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrNotFound
		}
		return err
	}
	return nil
}
