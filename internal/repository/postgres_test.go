package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSelect(t *testing.T) {
	sql, args, err := buildSelect("emergency", Query{
		Filters: []Filter{
			Prefix("item", "Ri_ce"),
			Eq("location.city", "Mumbai"),
			{Field: "priority", Op: OpGte, Value: 50.0},
		},
		OrderBy: []Order{{Field: "priority", Desc: true}, {Field: "createdAt", Desc: true}},
		Limit:   25,
	})
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT doc FROM documents WHERE collection = $1`+
			` AND lower(doc #>> $2::text[]) LIKE $3`+
			` AND doc #> $4::text[] = ($5::text)::jsonb`+
			` AND doc #> $6::text[] >= ($7::text)::jsonb`+
			` ORDER BY doc #> $8::text[] DESC NULLS LAST, doc #> $9::text[] DESC NULLS LAST, created_at ASC`+
			` LIMIT $10`,
		sql)
	assert.Equal(t, []any{
		"emergency",
		[]string{"item"}, `ri\_ce%`,
		[]string{"location", "city"}, `"Mumbai"`,
		[]string{"priority"}, `50`,
		[]string{"priority"},
		[]string{"createdAt"},
		25,
	}, args)
}

func TestBuildSelectNoFilters(t *testing.T) {
	sql, args, err := buildSelect("vendors", Query{})
	require.NoError(t, err)
	assert.Equal(t, `SELECT doc FROM documents WHERE collection = $1 ORDER BY created_at ASC`, sql)
	assert.Equal(t, []any{"vendors"}, args)
}

func TestBuildWhereContinuesNumbering(t *testing.T) {
	where, args, err := buildWhere([]Filter{Eq("status", "available")}, []any{"surplus", "id-1", Fields{}})
	require.NoError(t, err)
	assert.Equal(t, ` AND doc #> $4::text[] = ($5::text)::jsonb`, where)
	assert.Len(t, args, 5)
}

func TestBuildWhereRejectsUnknownOp(t *testing.T) {
	_, _, err := buildWhere([]Filter{{Field: "x", Op: "!="}}, nil)
	assert.Error(t, err)
}

// stubDB answers the UPDATE with a fixed command tag and the follow-up
// existence check with exists.
type stubDB struct {
	tag       string
	execErr   error
	exists    bool
	existsErr error

	execSQL  string
	execArgs []any
	checked  bool
}

func (db *stubDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.execSQL, db.execArgs = sql, args
	return pgconn.NewCommandTag(db.tag), db.execErr
}

func (db *stubDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not used")
}

func (db *stubDB) QueryRow(context.Context, string, ...any) pgx.Row {
	db.checked = true
	return existsRow{exists: db.exists, err: db.existsErr}
}

type existsRow struct {
	exists bool
	err    error
}

func (r existsRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*bool) = r.exists
	return nil
}

func TestPostgresUpdateIfOutcome(t *testing.T) {
	expect := []Filter{Eq("status", "available")}
	fields := Fields{"status": "claimed"}
	down := errors.New("connection reset")

	tests := []struct {
		name        string
		db          *stubDB
		want        error
		wantChecked bool
	}{
		{"row updated", &stubDB{tag: "UPDATE 1"}, nil, false},
		{"expectation failed", &stubDB{tag: "UPDATE 0", exists: true}, ErrConflict, true},
		{"row missing", &stubDB{tag: "UPDATE 0", exists: false}, ErrNotFound, true},
		{"update fails", &stubDB{execErr: down}, down, false},
		{"existence check fails", &stubDB{tag: "UPDATE 0", existsErr: down}, down, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &PostgresCollection{db: tt.db, name: "surplus"}
			err := c.UpdateIf(context.Background(), "s1", expect, fields)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
			assert.Equal(t, tt.wantChecked, tt.db.checked)
		})
	}
}

func TestPostgresUpdateIfStatement(t *testing.T) {
	db := &stubDB{tag: "UPDATE 1"}
	c := &PostgresCollection{db: db, name: "surplus"}

	require.NoError(t, c.UpdateIf(context.Background(), "s1",
		[]Filter{Eq("status", "available")}, Fields{"status": "claimed"}))

	assert.Contains(t, db.execSQL, "WHERE collection = $1 AND id = $2 AND doc #> $4::text[] = ($5::text)::jsonb")
	assert.Equal(t, []any{"surplus", "s1", Fields{"status": "claimed"}, []string{"status"}, `"available"`}, db.execArgs)
}
