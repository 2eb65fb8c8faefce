package driven

import "context"

// RerankCandidate is one first-stage result handed to the reranker.
type RerankCandidate struct {
	// ID is the candidate's composite id.
	ID string

	// Text is the chunk text scored against the query.
	Text string

	// Score is the first-stage similarity score.
	Score float64
}

// RerankResult is one reranked candidate.
type RerankResult struct {
	// ID is the candidate's composite id.
	ID string

	// Score is the reranker's relevance score, on the provider's scale.
	Score float64
}

// Reranker is a second-pass relevance scorer applied to a small candidate
// set from first-stage retrieval. It is an optional capability: when
// absent the engine returns the first-stage ordering.
type Reranker interface {
	// Rerank scores candidates against the raw query and returns at most
	// topN results ordered by descending score. Fails with a
	// *domain.ProviderError; the retrieval pipeline treats that as
	// non-fatal and falls back to the first-stage ordering.
	Rerank(ctx context.Context, query string, candidates []RerankCandidate, topN int) ([]RerankResult, error)
}
