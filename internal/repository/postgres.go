package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// dbtx is the part of *pgxpool.Pool the collection uses.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ dbtx = (*pgxpool.Pool)(nil)

// PostgresCollection stores one named collection as rows of the shared
// documents table (collection, id, doc jsonb). It uses pgx directly.
type PostgresCollection struct {
	db   dbtx
	name string
}

// NewPostgresCollection constructs a PostgresCollection for the named collection.
func NewPostgresCollection(db *pgxpool.Pool, name string) *PostgresCollection {
	return &PostgresCollection{db: db, name: name}
}

// Get returns a single document or ErrNotFound.
func (c *PostgresCollection) Get(ctx context.Context, id string) (Document, error) {
	var doc Document
	err := c.db.QueryRow(ctx,
		`SELECT doc FROM documents WHERE collection = $1 AND id = $2`,
		c.name, id,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s document: %w", c.name, err)
	}
	return doc, nil
}

// Put inserts or replaces the document under id.
func (c *PostgresCollection) Put(ctx context.Context, id string, doc Document) error {
	_, err := c.db.Exec(ctx,
		`INSERT INTO documents (collection, id, doc)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (collection, id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		c.name, id, doc,
	)
	if err != nil {
		return fmt.Errorf("put %s document: %w", c.name, err)
	}
	return nil
}

// Update merges fields into the top level of the stored document.
func (c *PostgresCollection) Update(ctx context.Context, id string, fields Fields) error {
	return c.UpdateIf(ctx, id, nil, fields)
}

// UpdateIf merges fields only while the expect filters still hold.
//
// ─────────────────────────────────────────────────────────────────────────────
// CONDITIONAL WRITE
// ─────────────────────────────────────────────────────────────────────────────
//
// Services read a document, validate the transition, then write. Two claims
// on the same listing can both read status='available' before either writes.
// The expectation is folded into the UPDATE's WHERE clause:
//
//	UPDATE documents SET doc = doc || $3
//	WHERE collection = $1 AND id = $2 AND doc #> '{status}' = '"available"'
//
// Postgres re-evaluates the WHERE clause against the latest row version after
// waiting on any concurrent writer's row lock, so exactly one of the two
// claims matches. The loser sees zero rows affected and gets ErrConflict.
// ─────────────────────────────────────────────────────────────────────────────
func (c *PostgresCollection) UpdateIf(ctx context.Context, id string, expect []Filter, fields Fields) error {
	args := []any{c.name, id, fields}
	where, args, err := buildWhere(expect, args)
	if err != nil {
		return err
	}

	sql := `UPDATE documents SET doc = doc || $3, updated_at = now()
		 WHERE collection = $1 AND id = $2` + where

	tag, err := c.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s document: %w", c.name, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Nothing matched: either the row is gone or the expectation failed.
	var exists bool
	err = c.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM documents WHERE collection = $1 AND id = $2)`,
		c.name, id,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check %s document: %w", c.name, err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConflict
}

// Query returns the documents matching q.
func (c *PostgresCollection) Query(ctx context.Context, q Query) ([]Document, error) {
	sql, args, err := buildSelect(c.name, q)
	if err != nil {
		return nil, err
	}

	rows, err := c.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s documents: %w", c.name, err)
	}
	defer rows.Close()

	docs := make([]Document, 0)
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan %s document: %w", c.name, err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// buildSelect compiles q into a SELECT over one collection. Ties on every
// sort key fall back to insertion time.
func buildSelect(collection string, q Query) (string, []any, error) {
	args := []any{collection}
	where, args, err := buildWhere(q.Filters, args)
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	b.WriteString(`SELECT doc FROM documents WHERE collection = $1`)
	b.WriteString(where)

	b.WriteString(` ORDER BY `)
	for _, o := range q.OrderBy {
		args = append(args, strings.Split(o.Field, "."))
		if o.Desc {
			fmt.Fprintf(&b, "doc #> $%d::text[] DESC NULLS LAST, ", len(args))
		} else {
			fmt.Fprintf(&b, "doc #> $%d::text[] ASC NULLS FIRST, ", len(args))
		}
	}
	b.WriteString(`created_at ASC`)

	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	return b.String(), args, nil
}

// buildWhere appends one AND clause per filter, numbering placeholders after
// the args already present.
func buildWhere(filters []Filter, args []any) (string, []any, error) {
	var b strings.Builder
	for _, f := range filters {
		path := strings.Split(f.Field, ".")

		switch f.Op {
		case OpEq, OpGte, OpLte:
			op := string(f.Op)
			if f.Op == OpEq {
				op = "="
			}
			value, err := json.Marshal(f.Value)
			if err != nil {
				return "", nil, fmt.Errorf("encode filter %s: %w", f.Field, err)
			}
			args = append(args, path, string(value))
			fmt.Fprintf(&b, " AND doc #> $%d::text[] %s ($%d::text)::jsonb", len(args)-1, op, len(args))
		case OpPrefix:
			prefix, _ := f.Value.(string)
			args = append(args, path, escapeLike(strings.ToLower(prefix))+"%")
			fmt.Fprintf(&b, " AND lower(doc #>> $%d::text[]) LIKE $%d", len(args)-1, len(args))
		default:
			return "", nil, fmt.Errorf("unsupported filter op %q on %s", f.Op, f.Field)
		}
	}
	return b.String(), args, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
