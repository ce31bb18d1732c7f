package store

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/JonMunkholm/registers/internal/core"
)

// maxRowsPerStatement keeps multi-row inserts well under the PostgreSQL
// limit of 65535 bind parameters.
const maxRowsPerStatement = 500

// statements builds SQL for one dialect. Column lists always come from the
// collection definition, never from record keys.
type statements struct {
	b     sq.StatementBuilderType
	codec codec
}

func newStatements(format sq.PlaceholderFormat, c codec) statements {
	return statements{b: sq.StatementBuilder.PlaceholderFormat(format), codec: c}
}

func (s statements) selectAll(def core.CollectionDefinition) (string, []any, error) {
	return s.b.Select(def.Columns()...).
		From(def.Info.Key).
		OrderBy("created_at DESC", "id").
		ToSql()
}

// insert returns one statement per chunk of records.
func (s statements) insert(def core.CollectionDefinition, records []core.ExternalRecord) ([]sqlStatement, error) {
	return s.insertChunks(def, records, "")
}

// upsert is insert with every non-id column overwritten on an id conflict.
func (s statements) upsert(def core.CollectionDefinition, records []core.ExternalRecord) ([]sqlStatement, error) {
	var set []string
	for _, col := range def.Columns() {
		if col == "id" {
			continue
		}
		set = append(set, fmt.Sprintf("%s = excluded.%s", col, col))
	}
	return s.insertChunks(def, records, "ON CONFLICT (id) DO UPDATE SET "+strings.Join(set, ", "))
}

func (s statements) insertChunks(def core.CollectionDefinition, records []core.ExternalRecord, suffix string) ([]sqlStatement, error) {
	cols := def.Columns()
	var out []sqlStatement

	for start := 0; start < len(records); start += maxRowsPerStatement {
		end := min(start+maxRowsPerStatement, len(records))

		q := s.b.Insert(def.Info.Key).Columns(cols...)
		for _, rec := range records[start:end] {
			values, err := s.row(def, rec)
			if err != nil {
				return nil, err
			}
			q = q.Values(values...)
		}
		if suffix != "" {
			q = q.Suffix(suffix)
		}

		query, args, err := q.ToSql()
		if err != nil {
			return nil, fmt.Errorf("build insert: %w", err)
		}
		out = append(out, sqlStatement{query: query, args: args})
	}
	return out, nil
}

// row encodes rec in column order. Absent columns are written as the
// type's zero value.
func (s statements) row(def core.CollectionDefinition, rec core.ExternalRecord) ([]any, error) {
	values := make([]any, len(def.FieldSpecs))
	for i, spec := range def.FieldSpecs {
		v, err := s.codec.encode(spec, rec[spec.Column])
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", spec.Column, err)
		}
		values[i] = v
	}
	return values, nil
}

// update sets the given columns on one record. Unknown columns are an error.
func (s statements) update(def core.CollectionDefinition, id string, fields core.ExternalRecord) (string, []any, error) {
	q := s.b.Update(def.Info.Key)
	for _, spec := range def.FieldSpecs {
		v, ok := fields[spec.Column]
		if !ok || spec.Column == "id" {
			continue
		}
		enc, err := s.codec.encode(spec, v)
		if err != nil {
			return "", nil, fmt.Errorf("encode %s: %w", spec.Column, err)
		}
		q = q.Set(spec.Column, enc)
	}
	for col := range fields {
		if !def.HasColumn(col) {
			return "", nil, fmt.Errorf("unknown column %q for %s", col, def.Info.Key)
		}
	}
	return q.Where(sq.Eq{"id": id}).ToSql()
}

func (s statements) delete(def core.CollectionDefinition, id string) (string, []any, error) {
	return s.b.Delete(def.Info.Key).Where(sq.Eq{"id": id}).ToSql()
}

// deleteAll removes every record with a non-empty id.
func (s statements) deleteAll(def core.CollectionDefinition) (string, []any, error) {
	return s.b.Delete(def.Info.Key).Where(sq.NotEq{"id": ""}).ToSql()
}

type sqlStatement struct {
	query string
	args  []any
}

// hasSettableFields reports whether fields names any column update would set.
func hasSettableFields(fields core.ExternalRecord) bool {
	for col := range fields {
		if col != "id" {
			return true
		}
	}
	return false
}
