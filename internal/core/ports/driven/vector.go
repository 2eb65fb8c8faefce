package driven

import (
	"context"

	"github.com/custodia-labs/ragd/internal/core/domain"
)

// VectorQuery describes one similarity search against a collection.
type VectorQuery struct {
	// Dense is the query's dense embedding. Required for dense and
	// hybrid modes.
	Dense []float32

	// Sparse is the query's lexical embedding. Required for sparse mode;
	// optional for hybrid (hybrid degrades to dense scoring without it).
	Sparse domain.SparseVector

	// TopK bounds the number of candidates returned.
	TopK int

	// Mode selects which similarity signal to combine.
	Mode domain.SearchMode

	// Filters restricts candidates to entries whose metadata matches
	// every key-value pair exactly.
	Filters map[string]string
}

// VectorHit is one ranked candidate from a similarity search.
type VectorHit struct {
	// CompositeID is the matched entry's composite id.
	CompositeID string

	// Seq is the matched chunk's sequence number.
	Seq int

	// Score is the similarity score. Dense cosine lies in [-1, 1];
	// hybrid scores are an alpha-weighted fusion on a similar scale.
	Score float64

	// Metadata is the entry's metadata copy.
	Metadata map[string]any
}

// VectorIndex is a collection-scoped similarity-searchable store of
// embedding vectors, supporting hybrid dense+sparse queries and exact
// metadata filtering. Collections are created implicitly on first write.
type VectorIndex interface {
	// Upsert writes entries into a collection. Entries are keyed by
	// (composite id, seq); writing an existing key replaces it.
	Upsert(ctx context.Context, collection string, entries []domain.IndexEntry) error

	// Delete removes every entry whose composite id is in ids, cascading
	// across all sequence numbers. Returns how many entries were removed;
	// absent ids are not an error.
	Delete(ctx context.Context, collection string, ids []string) (int, error)

	// Search returns up to TopK candidates ordered by descending score.
	// Ties break by composite id then sequence number for determinism.
	Search(ctx context.Context, collection string, q VectorQuery) ([]VectorHit, error)

	// Close releases resources.
	Close() error
}
