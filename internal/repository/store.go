package repository

import (
	"context"
	"encoding/json"
	"fmt"
)

// Store is a typed view over a Collection. Entities, update fields and filter
// values pass through encoding/json, so the collection only ever holds
// JSON-native values (objects, arrays, strings, float64, bool, nil).
type Store[T any] struct {
	coll Collection
}

// NewStore wraps coll.
func NewStore[T any](coll Collection) *Store[T] {
	return &Store[T]{coll: coll}
}

// Get returns the entity stored under id or ErrNotFound.
func (s *Store[T]) Get(ctx context.Context, id string) (*T, error) {
	doc, err := s.coll.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var v T
	if err := convert(doc, &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", id, err)
	}
	return &v, nil
}

// Put stores v under id.
func (s *Store[T]) Put(ctx context.Context, id string, v *T) error {
	var doc Document
	if err := convert(v, &doc); err != nil {
		return fmt.Errorf("encode %s: %w", id, err)
	}
	return s.coll.Put(ctx, id, doc)
}

// Update merges fields into the entity under id.
func (s *Store[T]) Update(ctx context.Context, id string, fields Fields) error {
	return s.UpdateIf(ctx, id, nil, fields)
}

// UpdateIf merges fields into the entity under id if expect still holds.
func (s *Store[T]) UpdateIf(ctx context.Context, id string, expect []Filter, fields Fields) error {
	var normalized Fields
	if err := convert(fields, &normalized); err != nil {
		return fmt.Errorf("encode update %s: %w", id, err)
	}
	filters, err := normalizeFilters(expect)
	if err != nil {
		return err
	}
	return s.coll.UpdateIf(ctx, id, filters, normalized)
}

// Query returns the entities matching q.
func (s *Store[T]) Query(ctx context.Context, q Query) ([]T, error) {
	filters, err := normalizeFilters(q.Filters)
	if err != nil {
		return nil, err
	}
	q.Filters = filters

	docs, err := s.coll.Query(ctx, q)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := convert(doc, &v); err != nil {
			return nil, fmt.Errorf("decode query result: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}

func normalizeFilters(filters []Filter) ([]Filter, error) {
	if len(filters) == 0 {
		return nil, nil
	}
	out := make([]Filter, len(filters))
	for i, f := range filters {
		var v any
		if err := convert(f.Value, &v); err != nil {
			return nil, fmt.Errorf("encode filter %s: %w", f.Field, err)
		}
		out[i] = Filter{Field: f.Field, Op: f.Op, Value: v}
	}
	return out, nil
}

func convert(src, dst any) error {
	data, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
