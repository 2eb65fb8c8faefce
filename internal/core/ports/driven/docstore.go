package driven

import (
	"context"

	"github.com/custodia-labs/ragd/internal/core/domain"
)

// DocumentStore is a namespaced store of chunk text and metadata, keyed
// by composite id. All chunks of one document live under one composite id
// and are written and deleted as a set.
//
// Namespaces are created implicitly on first write.
type DocumentStore interface {
	// PutChunks upserts the full chunk set for one composite id. The
	// write replaces any chunk set previously stored under that id.
	PutChunks(ctx context.Context, namespace string, records []domain.ChunkRecord) error

	// GetChunks retrieves the chunk set for a composite id ordered by
	// sequence number. Returns domain.ErrNotFound when the id is absent.
	GetChunks(ctx context.Context, namespace, compositeID string) ([]domain.ChunkRecord, error)

	// DeleteChunks removes the chunk set for a composite id. Returns
	// false, not an error, when the id was absent.
	DeleteChunks(ctx context.Context, namespace, compositeID string) (bool, error)

	// List returns all chunk records in a namespace ordered by composite
	// id then sequence number.
	List(ctx context.Context, namespace string) ([]domain.ChunkRecord, error)

	// Close releases resources.
	Close() error
}
