// Package cohere provides a reranker adapter for the Cohere rerank
// API and compatible endpoints.
package cohere

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/ragd/internal/core/domain"
	"github.com/custodia-labs/ragd/internal/core/ports/driven"
)

var _ driven.Reranker = (*Reranker)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.cohere.com/v2"
	DefaultModel   = "rerank-v3.5"
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the Cohere reranker.
type Config struct {
	// APIKey is the API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.cohere.com/v2).
	BaseURL string

	// Model is the rerank model to use (default: rerank-v3.5).
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Reranker scores candidates against a query via the Cohere API.
type Reranker struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// rerankRequest is the Cohere API request format.
type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n,omitempty"`
}

// rerankResponse is the Cohere API response format.
type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
	Message string `json:"message,omitempty"`
}

// NewReranker creates a new Cohere reranker.
func NewReranker(cfg Config) (*Reranker, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: cohere API key is required", domain.ErrInvalidConfiguration)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Reranker{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Rerank scores the candidates against the query and returns them in
// relevance order, truncated to topN when topN is positive. Transport
// and API failures come back as a *domain.ProviderError so callers can
// fall back to first-stage scores; context cancellation is returned
// as-is.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []driven.RerankCandidate, topN int) ([]driven.RerankResult, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	docs := make([]string, len(candidates))
	for i, c := range candidates {
		docs[i] = c.Text
	}

	reqBody := rerankRequest{
		Model:     r.model,
		Query:     query,
		Documents: docs,
		TopN:      topN,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		r.baseURL+"/rerank",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &domain.ProviderError{Provider: "cohere", Err: fmt.Errorf("send request: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.ProviderError{Provider: "cohere", Err: fmt.Errorf("read response: %w", err)}
	}

	var rerankResp rerankResponse
	if err := json.Unmarshal(respBody, &rerankResp); err != nil {
		return nil, &domain.ProviderError{Provider: "cohere", Err: fmt.Errorf("decode response: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		msg := rerankResp.Message
		if msg == "" {
			msg = string(respBody)
		}
		return nil, &domain.ProviderError{Provider: "cohere", Err: fmt.Errorf("cohere status %d: %s", resp.StatusCode, msg)}
	}

	results := make([]driven.RerankResult, 0, len(rerankResp.Results))
	for _, res := range rerankResp.Results {
		if res.Index < 0 || res.Index >= len(candidates) {
			return nil, &domain.ProviderError{Provider: "cohere", Err: fmt.Errorf("cohere returned out-of-range index %d", res.Index)}
		}
		results = append(results, driven.RerankResult{
			ID:    candidates[res.Index].ID,
			Score: res.RelevanceScore,
		})
	}
	return results, nil
}

// ModelName returns the rerank model being used.
func (r *Reranker) ModelName() string {
	return r.model
}
