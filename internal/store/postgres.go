package store

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/registers/internal/core"
)

// PostgresStore implements core.Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
	sql  statements
}

var _ core.Store = (*PostgresStore)(nil)

// NewPostgresStore returns a store using pool. The schema must already be
// migrated.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, sql: newStatements(sq.Dollar, pgCodec{})}
}

func (s *PostgresStore) SelectAll(ctx context.Context, collection string) ([]core.ExternalRecord, error) {
	def, err := core.Lookup(collection)
	if err != nil {
		return nil, err
	}
	query, args, err := s.sql.selectAll(def)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.ExternalRecord
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
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

func (s *PostgresStore) Insert(ctx context.Context, collection string, records ...core.ExternalRecord) error {
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

func (s *PostgresStore) Upsert(ctx context.Context, collection string, records ...core.ExternalRecord) error {
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

func (s *PostgresStore) Update(ctx context.Context, collection, id string, fields core.ExternalRecord) error {
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
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	def, err := core.Lookup(collection)
	if err != nil {
		return err
	}
	query, args, err := s.sql.delete(def, id)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteAll(ctx context.Context, collection string) error {
	def, err := core.Lookup(collection)
	if err != nil {
		return err
	}
	query, args, err := s.sql.deleteAll(def)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, query, args...)
	return err
}

// execAll runs the statements in one transaction.
func (s *PostgresStore) execAll(ctx context.Context, stmts []sqlStatement) error {
	if len(stmts) == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, st := range stmts {
			if _, err := tx.Exec(ctx, st.query, st.args...); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *PostgresStore) exists(ctx context.Context, def core.CollectionDefinition, id string) error {
	query, args, err := s.sql.b.Select("1").From(def.Info.Key).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	var one int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.ErrNotFound
		}
		return err
	}
	return nil
}

// decodeRow builds an external record from values in column order.
func decodeRow(def core.CollectionDefinition, c codec, values []any) (core.ExternalRecord, error) {
	if len(values) != len(def.FieldSpecs) {
		return nil, fmt.Errorf("%s: expected %d columns, got %d", def.Info.Key, len(def.FieldSpecs), len(values))
	}
	rec := make(core.ExternalRecord, len(values))
	for i, spec := range def.FieldSpecs {
		v, err := c.decode(spec, values[i])
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", def.Info.Key, spec.Column, err)
		}
		rec[spec.Column] = v
	}
	return rec, nil
}
