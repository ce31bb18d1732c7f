package store

import (
	"fmt"
	"strings"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/registers/internal/core"
)

func actionsDef(t testing.TB) core.CollectionDefinition {
	t.Helper()
	def, err := core.Lookup(core.ActionsKey)
	require.NoError(t, err)
	return def
}

func TestStatements_SelectAll(t *testing.T) {
	s := newStatements(sq.Dollar, pgCodec{})
	query, args, err := s.selectAll(actionsDef(t))
	require.NoError(t, err)

	assert.Equal(t, "SELECT id, num, action, decision, owner, category, priority, status, due_date, meeting, notes, linked_rules, created_at, updated_at FROM action_entries ORDER BY created_at DESC, id", query)
	assert.Empty(t, args)
}

func TestStatements_Update(t *testing.T) {
	s := newStatements(sq.Dollar, pgCodec{})
	now := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

	query, args, err := s.update(actionsDef(t), "a-1", core.ExternalRecord{
		"updated_at": now,
		"status":     core.StatusDone,
	})
	require.NoError(t, err)

	assert.Equal(t, "UPDATE action_entries SET status = $1, updated_at = $2 WHERE id = $3", query)
	assert.Equal(t, []any{core.StatusDone, now, "a-1"}, args)
}

func TestStatements_UpdateRejectsUnknownColumn(t *testing.T) {
	s := newStatements(sq.Dollar, pgCodec{})
	_, _, err := s.update(actionsDef(t), "a-1", core.ExternalRecord{"status": "Done", "colour": "red"})
	assert.ErrorContains(t, err, `unknown column "colour"`)
}

func TestStatements_DeleteAll(t *testing.T) {
	s := newStatements(sq.Question, sqliteCodec{})
	query, args, err := s.deleteAll(actionsDef(t))
	require.NoError(t, err)

	assert.Equal(t, "DELETE FROM action_entries WHERE id <> ?", query)
	assert.Equal(t, []any{""}, args)
}

func TestStatements_UpsertOverwritesAllButID(t *testing.T) {
	s := newStatements(sq.Dollar, pgCodec{})
	stmts, err := s.upsert(actionsDef(t), []core.ExternalRecord{{"id": "a-1", "action": "x"}})
	require.NoError(t, err)
	require.Len(t, stmts, 1)

	q := stmts[0].query
	assert.Contains(t, q, "ON CONFLICT (id) DO UPDATE SET num = excluded.num, action = excluded.action")
	assert.NotContains(t, q, "id = excluded.id")
	assert.Len(t, stmts[0].args, 14)
}

func TestStatements_InsertChunks(t *testing.T) {
	s := newStatements(sq.Dollar, pgCodec{})

	records := make([]core.ExternalRecord, 2*maxRowsPerStatement+1)
	for i := range records {
		records[i] = core.ExternalRecord{"id": fmt.Sprintf("a-%d", i), "action": "x"}
	}
	stmts, err := s.insert(actionsDef(t), records)
	require.NoError(t, err)

	require.Len(t, stmts, 3)
	assert.Len(t, stmts[0].args, 14*maxRowsPerStatement)
	assert.Len(t, stmts[2].args, 14)
	assert.True(t, strings.HasPrefix(stmts[0].query, "INSERT INTO action_entries (id,num,action,"))
}

func TestStatements_EncodeError(t *testing.T) {
	s := newStatements(sq.Dollar, pgCodec{})
	_, err := s.insert(actionsDef(t), []core.ExternalRecord{{"id": "a-1", "num": "seven"}})
	assert.ErrorContains(t, err, "encode num")
}

func TestSQLiteCodec(t *testing.T) {
	def := actionsDef(t)
	rules, _ := def.FieldByColumn("linked_rules")
	created, _ := def.FieldByColumn("created_at")
	c := sqliteCodec{}

	enc, err := c.encode(rules, []string{"r1", "r2"})
	require.NoError(t, err)
	assert.Equal(t, `["r1","r2"]`, enc)

	dec, err := c.decode(rules, enc)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2"}, dec)

	dec, err = c.decode(rules, "")
	require.NoError(t, err)
	assert.Equal(t, []string{}, dec)

	ts := time.Date(2025, 3, 14, 22, 30, 0, 5, time.FixedZone("NZDT", 13*3600))
	enc, err = c.encode(created, ts)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-14T09:30:00.000000005Z", enc)

	dec, err = c.decode(created, enc)
	require.NoError(t, err)
	assert.True(t, ts.Equal(dec.(time.Time)))
}

func TestPgCodec_DecodesDriverValues(t *testing.T) {
	def := actionsDef(t)
	num, _ := def.FieldByColumn("num")
	rules, _ := def.FieldByColumn("linked_rules")
	c := pgCodec{}

	n, err := c.decode(num, int32(7))
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	list, err := c.decode(rules, []any{"r1", "r2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2"}, list)

	_, err = c.decode(rules, []any{1})
	assert.Error(t, err)
}
