// Package publishertest provides an in-memory GraphStore for testing
// pkg/publisher without a real ArangoDB instance.
package publishertest

import (
	"context"
	"sync"
)

// MemStore is a trivial in-memory implementation of
// publisher.GraphStore, keyed by collection then document key.
type MemStore struct {
	mu   sync.Mutex
	data map[string]map[string]map[string]any
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{data: map[string]map[string]map[string]any{}}
}

func (s *MemStore) GetDocument(ctx context.Context, collection, key string) (map[string]any, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll, ok := s.data[collection]
	if !ok {
		return nil, false, nil
	}
	doc, ok := coll[key]
	if !ok {
		return nil, false, nil
	}
	copied := make(map[string]any, len(doc))
	for k, v := range doc {
		copied[k] = v
	}
	return copied, true, nil
}

func (s *MemStore) UpsertDocument(ctx context.Context, collection, key string, fields map[string]any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll, ok := s.data[collection]
	if !ok {
		coll = map[string]map[string]any{}
		s.data[collection] = coll
	}
	_, existed := coll[key]
	stored := make(map[string]any, len(fields))
	for k, v := range fields {
		stored[k] = v
	}
	coll[key] = stored
	return !existed, nil
}

func (s *MemStore) Close() error { return nil }

// Collection returns a read-only snapshot of one collection, for test
// assertions.
func (s *MemStore) Collection(name string) map[string]map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make(map[string]map[string]any, len(s.data[name]))
	for k, doc := range s.data[name] {
		snapshot[k] = doc
	}
	return snapshot
}
