package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragd/internal/core/domain"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *EmbeddingService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewEmbeddingService(Config{
		APIKey:            "test-key",
		BaseURL:           server.URL,
		Model:             "text-embedding-3-small",
		RequestsPerSecond: -1,
	})
	require.NoError(t, err)
	return svc
}

func TestNewEmbeddingService_RequiresAPIKey(t *testing.T) {
	_, err := NewEmbeddingService(Config{})
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc, err := NewEmbeddingService(Config{APIKey: "k"})
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, 1536, svc.Dimensions())
}

func TestEmbedBatch_OrdersByResponseIndex(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"first", "second"}, req.Input)

		// Results deliberately out of order; Index must restore it.
		resp := map[string]any{
			"data": []map[string]any{
				{"embedding": []float64{0, 1}, "index": 1},
				{"embedding": []float64{1, 0}, "index": 0},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})

	embs, err := svc.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, embs, 2)
	assert.Equal(t, []float32{1, 0}, embs[0].Dense)
	assert.Equal(t, []float32{0, 1}, embs[1].Dense)
	assert.Nil(t, embs[0].Sparse)
}

func TestEmbedBatch_EmptyInputSkipsRequest(t *testing.T) {
	called := false
	svc := newTestService(t, func(http.ResponseWriter, *http.Request) { called = true })

	embs, err := svc.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, embs)
	assert.False(t, called)
}

func TestEmbedBatch_RetriesOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float64{1}, "index": 0}},
		})
	})

	embs, err := svc.EmbedBatch(context.Background(), []string{"text"})
	require.NoError(t, err)
	require.Len(t, embs, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEmbedBatch_APIErrorIsProviderError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "invalid api key", "type": "auth"},
		})
	})

	_, err := svc.EmbedBatch(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "invalid api key")

	var provErr *domain.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "openai", provErr.Provider)
}

func TestEmbedBatch_OutOfRangeIndexRejected(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float64{1}, "index": 5}},
		})
	})

	_, err := svc.EmbedBatch(context.Background(), []string{"text"})
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestEmbedBatch_ShortResponseRejected(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float64{1, 0}, "index": 0}},
		})
	})

	// One data item for a two-text batch must fail, never pad with
	// zero-valued embeddings.
	_, err := svc.EmbedBatch(context.Background(), []string{"first", "second"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "1 embeddings for 2 inputs")
}

func TestEmbedBatch_DuplicateIndexRejected(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"embedding": []float64{1, 0}, "index": 0},
				{"embedding": []float64{0, 1}, "index": 0},
			},
		})
	})

	_, err := svc.EmbedBatch(context.Background(), []string{"first", "second"})
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestEmbedBatch_CancelledContext(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{}})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.EmbedBatch(ctx, []string{"text"})
	assert.Error(t, err)
}
