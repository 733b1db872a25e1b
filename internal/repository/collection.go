// Package repository is the storage facade the marketplace services run on:
// a keyed document collection with conjunctive filters, ordering and limit,
// backed either by process memory or by a PostgreSQL jsonb table.
package repository

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned by UpdateIf when the stored document no longer
// matches the expected field values.
var ErrConflict = errors.New("document changed concurrently")

// Document is the JSON-object form of a stored entity.
type Document = map[string]any

// Fields is a set of top-level fields to merge into a document.
type Fields = map[string]any

// Op is a filter comparison.
type Op string

const (
	OpEq     Op = "=="
	OpGte    Op = ">="
	OpLte    Op = "<="
	OpPrefix Op = "prefix" // case-insensitive starts-with on strings
)

// Filter restricts a query to documents whose Field satisfies Op against
// Value. Field may be a dotted path into nested objects.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Eq is shorthand for an equality filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEq, Value: value}
}

// Prefix is shorthand for a case-insensitive starts-with filter.
func Prefix(field, prefix string) Filter {
	return Filter{Field: field, Op: OpPrefix, Value: prefix}
}

// Order sorts query results on a field.
type Order struct {
	Field string
	Desc  bool
}

// Query combines filters (ANDed), sort keys and an optional limit.
type Query struct {
	Filters []Filter
	OrderBy []Order
	Limit   int
}

// Collection is a keyed set of documents. Implementations must be safe for
// concurrent use.
type Collection interface {
	// Get returns the document stored under id or ErrNotFound.
	Get(ctx context.Context, id string) (Document, error)
	// Put stores doc under id, replacing any previous document.
	Put(ctx context.Context, id string, doc Document) error
	// Update merges fields into the top level of the document under id.
	Update(ctx context.Context, id string, fields Fields) error
	// UpdateIf merges fields only if every expect filter still holds,
	// returning ErrConflict otherwise.
	UpdateIf(ctx context.Context, id string, expect []Filter, fields Fields) error
	// Query returns the documents matching q.
	Query(ctx context.Context, q Query) ([]Document, error)
}

func lookup(doc Document, path string) any {
	var cur any = doc
	for _, key := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[key]
	}
	return cur
}

// compare orders two JSON scalars. ok is false when they are not comparable;
// nil sorts before everything.
func compare(a, b any) (c int, ok bool) {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0, true
		case a == nil:
			return -1, true
		default:
			return 1, true
		}
	}

	switch av := a.(type) {
	case float64:
		bv, isNum := b.(float64)
		if !isNum {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case string:
		bv, isStr := b.(string)
		if !isStr {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case bool:
		bv, isBool := b.(bool)
		if !isBool {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func matches(doc Document, f Filter) bool {
	v := lookup(doc, f.Field)

	if f.Op == OpPrefix {
		s, ok := v.(string)
		p, _ := f.Value.(string)
		return ok && strings.HasPrefix(strings.ToLower(s), strings.ToLower(p))
	}

	c, ok := compare(v, f.Value)
	if !ok {
		return false
	}
	switch f.Op {
	case OpEq:
		return c == 0
	case OpGte:
		return v != nil && c >= 0
	case OpLte:
		return v != nil && c <= 0
	}
	return false
}

func matchesAll(doc Document, filters []Filter) bool {
	for _, f := range filters {
		if !matches(doc, f) {
			return false
		}
	}
	return true
}
