package driven

import (
	"context"

	"github.com/custodia-labs/ragd/internal/core/domain"
)

// EmbeddingService maps text to vectors.
//
// Implementations may produce dense vectors only, sparse vectors only, or
// both; the hybrid adapter composes a dense provider with a lexical
// encoder so the engine always sees one provider.
type EmbeddingService interface {
	// EmbedBatch generates embeddings for multiple texts in one provider
	// call. Output preserves input order and has the same length as the
	// input. Fails with a *domain.ProviderError on transport or auth
	// failure.
	EmbedBatch(ctx context.Context, texts []string) ([]domain.Embedding, error)

	// Dimensions returns the dense vector size (e.g. 1536). Zero when the
	// service produces sparse vectors only.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string
}
