package cli

import (
	"context"
	"hash/fnv"
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragd/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragd/internal/core/domain"
	"github.com/custodia-labs/ragd/internal/core/ports/driving"
	"github.com/custodia-labs/ragd/internal/core/services"
)

// testEmbedder hashes words into a small dense space so related texts
// score higher, without any network dependency.
type testEmbedder struct{}

const testDims = 128

func (testEmbedder) EmbedBatch(_ context.Context, texts []string) ([]domain.Embedding, error) {
	out := make([]domain.Embedding, len(texts))
	for i, text := range texts {
		dense := make([]float32, testDims)
		sparse := make(domain.SparseVector)
		words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, w := range words {
			h := fnv.New32a()
			h.Write([]byte(w))
			sum := h.Sum32()
			dense[sum%testDims]++
			sparse[sum]++
		}
		out[i] = domain.Embedding{Dense: dense, Sparse: sparse}
	}
	return out, nil
}

func (testEmbedder) Dimensions() int   { return testDims }
func (testEmbedder) ModelName() string { return "test-embedder" }

type testTokenCounter struct{}

func (testTokenCounter) Count(text string) int { return len(strings.Fields(text)) }

// setupTestServices wires an in-memory registry into the package-level
// services and returns a cleanup restoring the previous state.
func setupTestServices(t *testing.T) func() {
	t.Helper()

	docs := memory.NewDocumentStore()
	vectors := memory.NewVectorIndex(0)

	reg, err := services.NewRegistry(func(_ context.Context, tenant domain.Tenant) (driving.Engine, error) {
		eng, err := services.NewEngine(
			services.EngineConfig{Tenant: tenant, Prefix: "ragd"},
			testEmbedder{}, nil, docs, vectors, testTokenCounter{},
		)
		if err != nil {
			return nil, err
		}
		return eng, nil
	})
	require.NoError(t, err)

	oldRegistry := registry
	registry = reg
	return func() {
		registry = oldRegistry
	}
}
