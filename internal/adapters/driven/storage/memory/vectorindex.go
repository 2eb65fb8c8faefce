package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/ragd/internal/core/domain"
	"github.com/custodia-labs/ragd/internal/core/ports/driven"
	"github.com/custodia-labs/ragd/internal/vectormath"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// entryKey identifies one index entry within a collection.
type entryKey struct {
	id  string
	seq int
}

// VectorIndex is an in-memory brute-force similarity index.
type VectorIndex struct {
	alpha float64

	mu          sync.RWMutex
	collections map[string]map[entryKey]domain.IndexEntry
}

// NewVectorIndex creates an empty in-memory vector index. alpha is the
// dense weight for hybrid fusion; zero means vectormath.DefaultAlpha.
func NewVectorIndex(alpha float64) *VectorIndex {
	if alpha <= 0 || alpha > 1 {
		alpha = vectormath.DefaultAlpha
	}
	return &VectorIndex{
		alpha:       alpha,
		collections: make(map[string]map[entryKey]domain.IndexEntry),
	}
}

// Upsert writes entries into a collection.
func (v *VectorIndex) Upsert(_ context.Context, collection string, entries []domain.IndexEntry) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	col, ok := v.collections[collection]
	if !ok {
		col = make(map[entryKey]domain.IndexEntry)
		v.collections[collection] = col
	}
	for _, e := range entries {
		col[entryKey{id: e.CompositeID, seq: e.Seq}] = e
	}
	return nil
}

// Delete removes every entry whose composite id is in ids.
func (v *VectorIndex) Delete(_ context.Context, collection string, ids []string) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	col := v.collections[collection]
	if col == nil {
		return 0, nil
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	removed := 0
	for k := range col {
		if _, ok := drop[k.id]; ok {
			delete(col, k)
			removed++
		}
	}
	return removed, nil
}

// Search scores every entry in the collection and returns the TopK
// best, ties broken by composite id then sequence number.
func (v *VectorIndex) Search(
	_ context.Context, collection string, q driven.VectorQuery,
) ([]driven.VectorHit, error) {
	if q.TopK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be >= 1", domain.ErrInvalidArgument)
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	col := v.collections[collection]
	hits := make([]driven.VectorHit, 0, len(col))
	for k, e := range col {
		if !vectormath.MatchesFilters(e.Metadata, q.Filters) {
			continue
		}
		score, ok := vectormath.Score(v.alpha, q, e)
		if !ok {
			continue
		}
		hits = append(hits, driven.VectorHit{
			CompositeID: k.id,
			Seq:         k.seq,
			Score:       score,
			Metadata:    e.Metadata,
		})
	}

	vectormath.SortHits(hits)
	if len(hits) > q.TopK {
		hits = hits[:q.TopK]
	}
	return hits, nil
}

// Close releases resources.
func (v *VectorIndex) Close() error {
	return nil
}
