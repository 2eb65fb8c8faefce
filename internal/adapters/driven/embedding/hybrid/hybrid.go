// Package hybrid composes a dense embedding provider with the lexical
// sparse encoder so every stored entry carries both representations.
package hybrid

import (
	"context"

	"github.com/custodia-labs/ragd/internal/adapters/driven/embedding/lexical"
	"github.com/custodia-labs/ragd/internal/core/domain"
	"github.com/custodia-labs/ragd/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService wraps a dense embedder and adds sparse lexical
// vectors to its output. The dense provider remains the source of
// truth for dimensions and model name.
type EmbeddingService struct {
	dense   driven.EmbeddingService
	encoder *lexical.Encoder
}

// NewEmbeddingService composes dense and sparse embedding. A nil
// encoder gets a default one.
func NewEmbeddingService(dense driven.EmbeddingService, encoder *lexical.Encoder) *EmbeddingService {
	if encoder == nil {
		encoder = lexical.NewEncoder(0)
	}
	return &EmbeddingService{dense: dense, encoder: encoder}
}

// EmbedBatch delegates to the dense provider and attaches a sparse
// vector per text. A dense failure fails the whole batch.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([]domain.Embedding, error) {
	embeddings, err := s.dense.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	for i := range embeddings {
		embeddings[i].Sparse = s.encoder.Encode(texts[i])
	}
	return embeddings, nil
}

// Dimensions returns the dense provider's vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dense.Dimensions()
}

// ModelName returns the dense provider's model name.
func (s *EmbeddingService) ModelName() string {
	return s.dense.ModelName()
}
