package driving

import (
	"context"

	"github.com/custodia-labs/ragd/internal/core/domain"
)

// Engine is the per-tenant indexing and retrieval surface.
//
// Ingestion and queries against the same tenant may run concurrently;
// the engine does not serialize unrelated requests. A query racing an
// in-flight ingestion may or may not observe it.
type Engine interface {
	// Ingest chunks, embeds and indexes documents, returning the
	// composite ids actually committed to both stores. When some
	// documents commit and others fail, the committed ids are returned
	// alongside a *domain.PartialFailureError.
	Ingest(ctx context.Context, docs []domain.Document) ([]string, error)

	// Update replaces a document's indexed representation by deleting and
	// re-ingesting it. The two steps are not atomic: a crash between them
	// leaves the document absent from the index.
	Update(ctx context.Context, doc domain.Document) (bool, error)

	// Delete removes a document's entries from both stores, cascading
	// across all chunks sharing its composite id. Returns false, not an
	// error, when the document was not indexed.
	Delete(ctx context.Context, documentID int64) (bool, error)

	// DeleteMany removes several documents. Absent ids are skipped;
	// the call reports success as long as every store operation succeeded.
	DeleteMany(ctx context.Context, documentIDs []int64) (bool, error)

	// Query runs the retrieval pipeline: embed, hybrid search, optional
	// rerank, similarity cutoff. An empty result is valid, not an error.
	Query(ctx context.Context, text string, opts domain.QueryOptions) (*domain.QueryResult, error)

	// Stats summarises the tenant's indexed corpus.
	Stats(ctx context.Context) (*domain.Stats, error)

	// ListDocuments returns one summary per indexed document.
	ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error)
}
