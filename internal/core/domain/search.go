package domain

// SearchMode selects which similarity signal the vector index combines.
type SearchMode string

const (
	// SearchModeDense uses cosine similarity over dense embeddings only.
	SearchModeDense SearchMode = "dense"

	// SearchModeSparse uses normalized lexical overlap only.
	SearchModeSparse SearchMode = "sparse"

	// SearchModeHybrid fuses dense and sparse signal in one ranked query.
	SearchModeHybrid SearchMode = "hybrid"
)

// Valid reports whether the mode is a known search mode.
func (m SearchMode) Valid() bool {
	switch m {
	case SearchModeDense, SearchModeSparse, SearchModeHybrid:
		return true
	}
	return false
}

// QueryOptions configures one retrieval call.
type QueryOptions struct {
	// TopK bounds the first-stage vector search. Must be >= 1.
	TopK int

	// Rerank enables the second-pass reranking stage when a reranker
	// capability is configured.
	Rerank bool

	// RerankTopK caps how many results the reranker is asked for.
	// Zero means TopK.
	RerankTopK int

	// SimilarityCutoff drops any result scoring below it. The cutoff is
	// evaluated after reranking, against the most refined score available.
	SimilarityCutoff float64

	// Mode selects the similarity signal. Empty means the engine default.
	Mode SearchMode

	// Filters restricts candidates to entries whose metadata matches
	// every key-value pair exactly.
	Filters map[string]string
}

// SourceNode is one ranked passage returned from a query. It is created
// per query and never persisted.
type SourceNode struct {
	// Text is the chunk text.
	Text string `json:"text"`

	// DocumentID is the originating document.
	DocumentID int64 `json:"document_id"`

	// Score is the relevance score on whichever scale the last-applied
	// pipeline stage produced. Callers must not assume a fixed scale.
	Score float64 `json:"score"`

	// Metadata is the chunk metadata.
	Metadata map[string]any `json:"metadata"`
}

// QueryResult is the outcome of one retrieval call.
type QueryResult struct {
	// Query is the original query text.
	Query string `json:"query"`

	// Sources are the ranked passages after rerank and cutoff.
	Sources []SourceNode `json:"sources"`

	// TotalResults is the number of sources after the cutoff stage.
	TotalResults int `json:"total_results"`
}
