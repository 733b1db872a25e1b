package repository

import (
	"context"
	"sort"
	"sync"
)

// Compile-time contract assertions.
var (
	_ Collection = (*MemoryCollection)(nil)
	_ Collection = (*PostgresCollection)(nil)
)

// MemoryCollection is an in-process Collection for development and tests.
// Documents are deep-copied on the way in and out.
type MemoryCollection struct {
	mu    sync.RWMutex
	docs  map[string]Document
	order []string // insertion order, the tiebreak for equal sort keys
}

// NewMemoryCollection returns an empty collection.
func NewMemoryCollection() *MemoryCollection {
	return &MemoryCollection{docs: make(map[string]Document)}
}

// Get returns a copy of the document under id.
func (m *MemoryCollection) Get(_ context.Context, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDoc(doc), nil
}

// Put stores a copy of doc under id.
func (m *MemoryCollection) Put(_ context.Context, id string, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.docs[id]; !exists {
		m.order = append(m.order, id)
	}
	m.docs[id] = cloneDoc(doc)
	return nil
}

// Update merges fields into the document under id.
func (m *MemoryCollection) Update(ctx context.Context, id string, fields Fields) error {
	return m.UpdateIf(ctx, id, nil, fields)
}

// UpdateIf merges fields when every expect filter matches. The check and the
// write happen under one lock, so concurrent callers cannot both pass.
func (m *MemoryCollection) UpdateIf(_ context.Context, id string, expect []Filter, fields Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[id]
	if !ok {
		return ErrNotFound
	}
	if !matchesAll(doc, expect) {
		return ErrConflict
	}

	updated := cloneDoc(doc)
	for k, v := range fields {
		updated[k] = cloneValue(v)
	}
	m.docs[id] = updated
	return nil
}

// Query filters, sorts and limits the stored documents.
func (m *MemoryCollection) Query(_ context.Context, q Query) ([]Document, error) {
	m.mu.RLock()
	results := make([]Document, 0)
	for _, id := range m.order {
		doc := m.docs[id]
		if matchesAll(doc, q.Filters) {
			results = append(results, cloneDoc(doc))
		}
	}
	m.mu.RUnlock()

	if len(q.OrderBy) > 0 {
		sort.SliceStable(results, func(i, j int) bool {
			for _, o := range q.OrderBy {
				c, _ := compare(lookup(results[i], o.Field), lookup(results[j], o.Field))
				if c == 0 {
					continue
				}
				if o.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, nil
}

func cloneDoc(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch vv := v.(type) {
	case map[string]any:
		return cloneDoc(vv)
	case []any:
		out := make([]any, len(vv))
		for i, e := range vv {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
