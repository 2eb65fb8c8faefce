package hybrid

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragd/internal/adapters/driven/embedding/lexical"
	"github.com/custodia-labs/ragd/internal/core/domain"
)

type stubDense struct {
	err error
}

func (s *stubDense) EmbedBatch(_ context.Context, texts []string) ([]domain.Embedding, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]domain.Embedding, len(texts))
	for i := range texts {
		out[i] = domain.Embedding{Dense: []float32{float32(i), 1}}
	}
	return out, nil
}

func (s *stubDense) Dimensions() int   { return 2 }
func (s *stubDense) ModelName() string { return "stub-dense" }

func TestEmbedBatch_AttachesSparseVectors(t *testing.T) {
	svc := NewEmbeddingService(&stubDense{}, lexical.NewEncoder(0))

	embs, err := svc.EmbedBatch(context.Background(), []string{"first text", "second text"})
	require.NoError(t, err)
	require.Len(t, embs, 2)

	for i, e := range embs {
		assert.NotEmpty(t, e.Dense, "embedding %d keeps its dense vector", i)
		assert.NotEmpty(t, e.Sparse, "embedding %d gains a sparse vector", i)
	}
	assert.Equal(t, []float32{0, 1}, embs[0].Dense)
	assert.Equal(t, []float32{1, 1}, embs[1].Dense)
}

func TestEmbedBatch_DenseFailureFailsBatch(t *testing.T) {
	cause := &domain.ProviderError{Provider: "stub", Err: errors.New("down")}
	svc := NewEmbeddingService(&stubDense{err: cause}, nil)

	_, err := svc.EmbedBatch(context.Background(), []string{"text"})
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestDelegation(t *testing.T) {
	svc := NewEmbeddingService(&stubDense{}, nil)

	assert.Equal(t, 2, svc.Dimensions())
	assert.Equal(t, "stub-dense", svc.ModelName())
}
