// Package memory provides in-memory implementations of the document
// store and vector index, for tests and ephemeral runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/ragd/internal/core/domain"
	"github.com/custodia-labs/ragd/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory namespaced chunk store.
type DocumentStore struct {
	mu sync.RWMutex
	// namespaces maps namespace -> composite id -> chunk set.
	namespaces map[string]map[string][]domain.ChunkRecord
}

// NewDocumentStore creates an empty in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		namespaces: make(map[string]map[string][]domain.ChunkRecord),
	}
}

// PutChunks upserts the full chunk set for one composite id.
func (s *DocumentStore) PutChunks(_ context.Context, namespace string, records []domain.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}
	id := records[0].CompositeID
	for _, r := range records {
		if r.CompositeID != id {
			return fmt.Errorf("mixed composite ids in one chunk set: %s and %s", id, r.CompositeID)
		}
	}

	cp := make([]domain.ChunkRecord, len(records))
	copy(cp, records)
	sort.Slice(cp, func(i, j int) bool { return cp[i].Seq < cp[j].Seq })

	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.namespaces[namespace]
	if !ok {
		ns = make(map[string][]domain.ChunkRecord)
		s.namespaces[namespace] = ns
	}
	ns[id] = cp
	return nil
}

// GetChunks retrieves the chunk set for a composite id.
func (s *DocumentStore) GetChunks(_ context.Context, namespace, compositeID string) ([]domain.ChunkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, ok := s.namespaces[namespace][compositeID]
	if !ok {
		return nil, fmt.Errorf("chunks %s: %w", compositeID, domain.ErrNotFound)
	}
	out := make([]domain.ChunkRecord, len(records))
	copy(out, records)
	return out, nil
}

// DeleteChunks removes the chunk set for a composite id.
func (s *DocumentStore) DeleteChunks(_ context.Context, namespace, compositeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.namespaces[namespace]
	if !ok {
		return false, nil
	}
	if _, ok := ns[compositeID]; !ok {
		return false, nil
	}
	delete(ns, compositeID)
	return true, nil
}

// List returns all chunk records in a namespace ordered by composite id
// then sequence number.
func (s *DocumentStore) List(_ context.Context, namespace string) ([]domain.ChunkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ns := s.namespaces[namespace]
	ids := make([]string, 0, len(ns))
	for id := range ns {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []domain.ChunkRecord
	for _, id := range ids {
		out = append(out, ns[id]...)
	}
	return out, nil
}

// Close releases resources.
func (s *DocumentStore) Close() error {
	return nil
}
