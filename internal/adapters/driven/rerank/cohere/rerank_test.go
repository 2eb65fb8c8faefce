package cohere

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragd/internal/core/domain"
	"github.com/custodia-labs/ragd/internal/core/ports/driven"
)

func newTestReranker(t *testing.T, handler http.HandlerFunc) *Reranker {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	r, err := NewReranker(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})
	require.NoError(t, err)
	return r
}

func TestNewReranker_RequiresAPIKey(t *testing.T) {
	_, err := NewReranker(Config{})
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestNewReranker_Defaults(t *testing.T) {
	r, err := NewReranker(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, r.ModelName())
}

func TestRerank_MapsIndicesToCandidateIDs(t *testing.T) {
	r := newTestReranker(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/rerank", req.URL.Path)
		assert.Equal(t, "Bearer test-key", req.Header.Get("Authorization"))

		var body rerankRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, "which doc", body.Query)
		assert.Equal(t, []string{"text a", "text b", "text c"}, body.Documents)
		assert.Equal(t, 2, body.TopN)

		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"index": 2, "relevance_score": 0.9},
				{"index": 0, "relevance_score": 0.4},
			},
		})
	})

	candidates := []driven.RerankCandidate{
		{ID: "acme:1#0", Text: "text a", Score: 0.5},
		{ID: "acme:2#0", Text: "text b", Score: 0.4},
		{ID: "acme:3#0", Text: "text c", Score: 0.3},
	}
	results, err := r.Rerank(context.Background(), "which doc", candidates, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "acme:3#0", results[0].ID)
	assert.InDelta(t, 0.9, results[0].Score, 1e-9)
	assert.Equal(t, "acme:1#0", results[1].ID)
}

func TestRerank_EmptyCandidatesSkipsRequest(t *testing.T) {
	called := false
	r := newTestReranker(t, func(http.ResponseWriter, *http.Request) { called = true })

	results, err := r.Rerank(context.Background(), "query", nil, 5)
	require.NoError(t, err)
	assert.Nil(t, results)
	assert.False(t, called)
}

func TestRerank_APIErrorIsProviderError(t *testing.T) {
	r := newTestReranker(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"message": "model not found"})
	})

	_, err := r.Rerank(context.Background(), "query", []driven.RerankCandidate{{ID: "a", Text: "t"}}, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "model not found")

	var provErr *domain.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "cohere", provErr.Provider)
}

func TestRerank_OutOfRangeIndexRejected(t *testing.T) {
	r := newTestReranker(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{"index": 9, "relevance_score": 0.9}},
		})
	})

	_, err := r.Rerank(context.Background(), "query", []driven.RerankCandidate{{ID: "a", Text: "t"}}, 1)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestRerank_CancellationIsNotAProviderError(t *testing.T) {
	r := newTestReranker(t, func(w http.ResponseWriter, req *http.Request) {
		<-req.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Rerank(ctx, "query", []driven.RerankCandidate{{ID: "a", Text: "t"}}, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrProviderUnavailable)
}
