package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragd/internal/chunker"
	"github.com/custodia-labs/ragd/internal/core/domain"
	"github.com/custodia-labs/ragd/internal/core/ports/driven"
	"github.com/custodia-labs/ragd/internal/core/ports/driving"
	"github.com/custodia-labs/ragd/internal/logger"
)

// Ensure Engine implements the interface.
var _ driving.Engine = (*Engine)(nil)

// DefaultMaxTopK caps the first-stage candidate count when the
// configuration does not say otherwise.
const DefaultMaxTopK = 100

// EngineConfig holds construction-time parameters for one tenant engine.
type EngineConfig struct {
	// Tenant is the sanitized tenant identifier.
	Tenant domain.Tenant

	// Prefix namespaces the tenant's stores, e.g. "ragd".
	Prefix string

	// ChunkSize and ChunkOverlap configure the chunker (bytes).
	ChunkSize    int
	ChunkOverlap int

	// DefaultMode is the search mode used when a query does not pick one.
	DefaultMode domain.SearchMode

	// MaxTopK clamps a query's top_k. Zero means DefaultMaxTopK.
	MaxTopK int
}

// Engine is the per-tenant indexing and retrieval pipeline. The reranker
// is an optional capability resolved once at construction: nil means the
// rerank stage is absent and queries return first-stage ordering.
type Engine struct {
	tenant     domain.Tenant
	namespace  string
	collection string

	splitter *chunker.Splitter
	embedder driven.EmbeddingService
	reranker driven.Reranker
	docStore driven.DocumentStore
	vectors  driven.VectorIndex
	tokens   driven.TokenCounter

	defaultMode domain.SearchMode
	maxTopK     int
}

// NewEngine creates an engine for one tenant. The embedder, document
// store, vector index and token counter are required; the reranker may
// be nil.
func NewEngine(
	cfg EngineConfig,
	embedder driven.EmbeddingService,
	reranker driven.Reranker,
	docStore driven.DocumentStore,
	vectors driven.VectorIndex,
	tokens driven.TokenCounter,
) (*Engine, error) {
	if cfg.Tenant == "" {
		return nil, fmt.Errorf("%w: empty tenant", domain.ErrInvalidConfiguration)
	}
	if embedder == nil || docStore == nil || vectors == nil || tokens == nil {
		return nil, fmt.Errorf("%w: embedder, stores and token counter are required",
			domain.ErrInvalidConfiguration)
	}

	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = chunker.DefaultChunkSize
		cfg.ChunkOverlap = chunker.DefaultOverlap
	}
	splitter, err := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	mode := cfg.DefaultMode
	if mode == "" {
		mode = domain.SearchModeHybrid
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unknown search mode %q",
			domain.ErrInvalidConfiguration, cfg.DefaultMode)
	}

	maxTopK := cfg.MaxTopK
	if maxTopK <= 0 {
		maxTopK = DefaultMaxTopK
	}

	return &Engine{
		tenant:      cfg.Tenant,
		namespace:   cfg.Tenant.DocNamespace(cfg.Prefix),
		collection:  cfg.Tenant.VectorCollection(cfg.Prefix),
		splitter:    splitter,
		embedder:    embedder,
		reranker:    reranker,
		docStore:    docStore,
		vectors:     vectors,
		tokens:      tokens,
		defaultMode: mode,
		maxTopK:     maxTopK,
	}, nil
}

// Namespace returns the tenant's document-store namespace.
func (e *Engine) Namespace() string { return e.namespace }

// Collection returns the tenant's vector-index collection name.
func (e *Engine) Collection() string { return e.collection }

// preparedDoc is one document after chunking, before embedding.
type preparedDoc struct {
	compositeID string
	records     []domain.ChunkRecord
}

// Ingest runs the ingestion pipeline: chunk every document, embed all
// chunk texts in one provider call, then commit each document to the
// document store followed by the vector index.
//
// The shared embedding call failing fails the whole batch atomically.
// After it succeeds each document commits in isolation: a failing
// document is rolled back and reported through a PartialFailureError
// while already-committed documents stay committed. A context cancelled
// between commits stops the batch and returns the context error
// directly, alongside the composite ids committed so far. When one
// document id appears more than once in the batch the last occurrence
// wins.
func (e *Engine) Ingest(ctx context.Context, docs []domain.Document) ([]string, error) {
	// The batch id ties every chunk of one ingestion together; it is
	// stored in chunk metadata and tags the batch's log lines.
	batchID := uuid.NewString()
	logger.Section("Ingest " + batchID[:8])
	logger.Info("[%s] ingesting %d documents into %s", batchID[:8], len(docs), e.namespace)

	preps := make([]preparedDoc, 0, len(docs))
	prepIdx := make(map[string]int, len(docs))
	for i := range docs {
		doc := &docs[i]
		cid := e.tenant.CompositeID(doc.ID)
		records := e.chunkDocument(doc, cid, batchID)
		if len(records) == 0 {
			logger.Debug("Document %d has no content, skipping", doc.ID)
			continue
		}
		p := preparedDoc{compositeID: cid, records: records}
		if j, ok := prepIdx[cid]; ok {
			logger.Debug("Document %d repeats in the batch, keeping the last occurrence", doc.ID)
			preps[j] = p
			continue
		}
		prepIdx[cid] = len(preps)
		preps = append(preps, p)
	}
	if len(preps) == 0 {
		return nil, nil
	}

	var texts []string
	for _, p := range preps {
		for _, r := range p.records {
			texts = append(texts, r.Text)
		}
	}

	logger.Debug("Embedding %d chunks in one batch", len(texts))
	embs, err := e.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}
	if len(embs) != len(texts) {
		return nil, &domain.ProviderError{
			Provider: e.embedder.ModelName(),
			Err:      fmt.Errorf("got %d embeddings for %d texts", len(embs), len(texts)),
		}
	}

	committed := make([]string, 0, len(preps))
	failures := make(map[string]error)
	off := 0
	for _, p := range preps {
		entries := make([]domain.IndexEntry, len(p.records))
		for i, r := range p.records {
			entries[i] = domain.IndexEntry{
				CompositeID: r.CompositeID,
				Seq:         r.Seq,
				Dense:       embs[off+i].Dense,
				Sparse:      embs[off+i].Sparse,
				Metadata:    r.Metadata,
			}
		}
		off += len(p.records)

		if err := ctx.Err(); err != nil {
			logger.Warn("Ingest cancelled after %d of %d documents", len(committed), len(preps))
			return committed, err
		}
		if err := e.commitOne(ctx, p.compositeID, p.records, entries); err != nil {
			logger.Warn("Ingest of %s failed: %v", p.compositeID, err)
			failures[p.compositeID] = err
			continue
		}
		committed = append(committed, p.compositeID)
	}

	logger.Info("Ingest done: %d committed, %d failed", len(committed), len(failures))
	if len(failures) > 0 {
		return committed, &domain.PartialFailureError{Committed: committed, Failures: failures}
	}
	return committed, nil
}

// chunkDocument splits one document and builds its chunk records.
func (e *Engine) chunkDocument(doc *domain.Document, compositeID, batchID string) []domain.ChunkRecord {
	var records []domain.ChunkRecord
	seq := 0
	for c := range e.splitter.Split(doc.Content) {
		records = append(records, domain.ChunkRecord{
			CompositeID: compositeID,
			DocumentID:  doc.ID,
			Seq:         seq,
			Text:        c.Text,
			Metadata:    e.chunkMetadata(doc, batchID),
		})
		seq++
	}
	return records
}

// chunkMetadata merges the document's metadata with the engine-owned keys.
func (e *Engine) chunkMetadata(doc *domain.Document, batchID string) map[string]any {
	md := make(map[string]any, len(doc.Metadata)+5)
	for k, v := range doc.Metadata {
		md[k] = v
	}
	md["document_id"] = doc.ID
	md["filename"] = doc.Filename
	md["tenant"] = string(e.tenant)
	md["created_at"] = doc.CreatedAt.UTC().Format(time.RFC3339)
	md["ingest_batch"] = batchID
	return md
}

// commitOne writes one document's chunk set to both stores. The
// document-store write precedes the vector-store write so a reader can
// never observe a vector entry whose text is unavailable. A failed
// vector write rolls the document store back; composite ids are
// deterministic and both writes are upserts, so a retry is safe.
func (e *Engine) commitOne(
	ctx context.Context,
	compositeID string,
	records []domain.ChunkRecord,
	entries []domain.IndexEntry,
) error {
	if err := e.docStore.PutChunks(ctx, e.namespace, records); err != nil {
		return fmt.Errorf("put chunks: %w", err)
	}
	if err := e.vectors.Upsert(ctx, e.collection, entries); err != nil {
		if _, rbErr := e.docStore.DeleteChunks(ctx, e.namespace, compositeID); rbErr != nil {
			logger.Warn("Rollback of %s failed: %v", compositeID, rbErr)
		}
		return fmt.Errorf("upsert vectors: %w", err)
	}
	return nil
}

// Update replaces a document's indexed representation via
// delete-then-ingest. The two steps are not atomic: a crash between them
// leaves the document absent until the caller retries.
func (e *Engine) Update(ctx context.Context, doc domain.Document) (bool, error) {
	if _, err := e.Delete(ctx, doc.ID); err != nil {
		return false, err
	}
	ids, err := e.Ingest(ctx, []domain.Document{doc})
	if err != nil {
		return false, err
	}
	return len(ids) == 1, nil
}

// Delete removes a document's entries from both stores, cascading across
// every chunk sharing its composite id. The vector entries go first so a
// reader never holds a hit whose text has already been removed. Returns
// false when the document was not indexed; deletion is idempotent.
func (e *Engine) Delete(ctx context.Context, documentID int64) (bool, error) {
	cid := e.tenant.CompositeID(documentID)

	removed, err := e.vectors.Delete(ctx, e.collection, []string{cid})
	if err != nil {
		return false, fmt.Errorf("delete vectors: %w", err)
	}
	existed, err := e.docStore.DeleteChunks(ctx, e.namespace, cid)
	if err != nil {
		return false, fmt.Errorf("delete chunks: %w", err)
	}

	logger.Debug("Delete %s: %d vectors, existed=%t", cid, removed, existed)
	return existed || removed > 0, nil
}

// DeleteMany removes several documents. Ids that were never indexed are
// skipped; the call succeeds as long as every store operation succeeded.
func (e *Engine) DeleteMany(ctx context.Context, documentIDs []int64) (bool, error) {
	var errs []error
	for _, id := range documentIDs {
		if _, err := e.Delete(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("delete %d: %w", id, err))
		}
	}
	if len(errs) > 0 {
		return false, errors.Join(errs...)
	}
	return true, nil
}

// candidate pairs a hydrated source node with a key unique across the
// candidate set (composite id plus chunk sequence number).
type candidate struct {
	key  string
	node domain.SourceNode
}

// Query runs the retrieval pipeline: embed the query, hybrid search,
// optional rerank, then the similarity cutoff. The cutoff runs after
// reranking so it is evaluated against the most refined score available.
// Scores are never renormalized across stages.
func (e *Engine) Query(
	ctx context.Context, text string, opts domain.QueryOptions,
) (*domain.QueryResult, error) {
	if opts.TopK < 1 {
		return nil, fmt.Errorf("%w: top_k must be >= 1, got %d",
			domain.ErrInvalidArgument, opts.TopK)
	}
	topK := opts.TopK
	if topK > e.maxTopK {
		logger.Warn("Clamping top_k %d to configured maximum %d", topK, e.maxTopK)
		topK = e.maxTopK
	}
	mode := opts.Mode
	if mode == "" {
		mode = e.defaultMode
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unknown search mode %q",
			domain.ErrInvalidArgument, opts.Mode)
	}

	qid := uuid.NewString()[:8]
	logger.Section("Query " + qid)
	logger.Debug("[%s] query=%q top_k=%d mode=%s rerank=%t cutoff=%.3f",
		qid, text, topK, mode, opts.Rerank, opts.SimilarityCutoff)

	embs, err := e.embedder.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(embs) != 1 {
		return nil, &domain.ProviderError{
			Provider: e.embedder.ModelName(),
			Err:      fmt.Errorf("got %d embeddings for one query", len(embs)),
		}
	}

	// A failed vector search propagates; it is never reported as
	// zero matches.
	hits, err := e.vectors.Search(ctx, e.collection, driven.VectorQuery{
		Dense:   embs[0].Dense,
		Sparse:  embs[0].Sparse,
		TopK:    topK,
		Mode:    mode,
		Filters: opts.Filters,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	logger.Debug("[%s] first stage: %d candidates", qid, len(hits))

	cands, err := e.hydrate(ctx, hits)
	if err != nil {
		return nil, err
	}

	if opts.Rerank && e.reranker != nil {
		// Cancellation between stages stops further provider calls.
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cands, err = e.rerank(ctx, qid, text, cands, rerankLimit(opts))
		if err != nil {
			return nil, err
		}
	}

	sources := make([]domain.SourceNode, 0, len(cands))
	for _, c := range cands {
		if c.node.Score < opts.SimilarityCutoff {
			continue
		}
		sources = append(sources, c.node)
	}
	logger.Info("[%s] %d results after cutoff", qid, len(sources))

	return &domain.QueryResult{
		Query:        text,
		Sources:      sources,
		TotalResults: len(sources),
	}, nil
}

// rerankLimit resolves the rerank stage's result cap.
func rerankLimit(opts domain.QueryOptions) int {
	if opts.RerankTopK > 0 {
		return opts.RerankTopK
	}
	return opts.TopK
}

// hydrate fetches chunk text for first-stage hits. A hit whose chunk
// vanished mid-flight (the deletion consistency window) is skipped.
func (e *Engine) hydrate(ctx context.Context, hits []driven.VectorHit) ([]candidate, error) {
	cache := make(map[string][]domain.ChunkRecord)
	cands := make([]candidate, 0, len(hits))

	for _, hit := range hits {
		records, ok := cache[hit.CompositeID]
		if !ok {
			var err error
			records, err = e.docStore.GetChunks(ctx, e.namespace, hit.CompositeID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					continue
				}
				return nil, fmt.Errorf("get chunks %s: %w", hit.CompositeID, err)
			}
			cache[hit.CompositeID] = records
		}

		for _, rec := range records {
			if rec.Seq != hit.Seq {
				continue
			}
			cands = append(cands, candidate{
				key: fmt.Sprintf("%s#%d", rec.CompositeID, rec.Seq),
				node: domain.SourceNode{
					Text:       rec.Text,
					DocumentID: rec.DocumentID,
					Score:      hit.Score,
					Metadata:   rec.Metadata,
				},
			})
			break
		}
	}

	return cands, nil
}

// rerank runs the second-pass scorer. Provider failure is non-fatal: the
// first-stage ordering is kept and the fallback is surfaced in logs, not
// to the caller. Cancellation is the exception and propagates.
func (e *Engine) rerank(
	ctx context.Context, qid, query string, cands []candidate, topN int,
) ([]candidate, error) {
	if len(cands) == 0 {
		return cands, nil
	}
	if topN > len(cands) {
		topN = len(cands)
	}

	req := make([]driven.RerankCandidate, len(cands))
	for i, c := range cands {
		req[i] = driven.RerankCandidate{ID: c.key, Text: c.node.Text, Score: c.node.Score}
	}

	results, err := e.reranker.Rerank(ctx, query, req, topN)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		logger.Warn("[%s] rerank failed, falling back to first-stage ordering: %v", qid, err)
		return cands, nil
	}

	byKey := make(map[string]candidate, len(cands))
	for _, c := range cands {
		byKey[c.key] = c
	}

	reranked := make([]candidate, 0, len(results))
	for _, r := range results {
		c, ok := byKey[r.ID]
		if !ok {
			logger.Warn("[%s] reranker returned unknown id %q, dropping", qid, r.ID)
			continue
		}
		c.node.Score = r.Score
		reranked = append(reranked, c)
	}

	// Providers are asked for descending order; enforce it so the cutoff
	// and callers see a consistent ranking.
	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].node.Score > reranked[j].node.Score
	})
	logger.Debug("[%s] rerank kept %d of %d candidates", qid, len(reranked), len(cands))
	return reranked, nil
}

// Stats summarises the tenant's corpus from the document store.
// Document length is measured over stored chunk text, so overlapping
// windows count their overlap twice.
func (e *Engine) Stats(ctx context.Context) (*domain.Stats, error) {
	records, err := e.docStore.List(ctx, e.namespace)
	if err != nil {
		return nil, fmt.Errorf("list namespace: %w", err)
	}

	docs := make(map[string]struct{})
	totalTokens := 0
	totalChars := 0
	for _, rec := range records {
		docs[rec.CompositeID] = struct{}{}
		totalTokens += e.tokens.Count(rec.Text)
		totalChars += len(rec.Text)
	}

	avg := 0.0
	if len(docs) > 0 {
		avg = float64(totalChars) / float64(len(docs))
	}

	return &domain.Stats{
		Tenant:            string(e.tenant),
		TotalDocuments:    len(docs),
		TotalTokens:       totalTokens,
		AvgDocumentLength: avg,
		Namespace:         e.namespace,
		Collection:        e.collection,
	}, nil
}

// ListDocuments returns one summary per indexed document, ordered by
// composite id. The preview comes from the document's first chunk.
func (e *Engine) ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error) {
	records, err := e.docStore.List(ctx, e.namespace)
	if err != nil {
		return nil, fmt.Errorf("list namespace: %w", err)
	}

	seen := make(map[string]struct{})
	var summaries []domain.DocumentSummary
	for _, rec := range records {
		if _, ok := seen[rec.CompositeID]; ok {
			continue
		}
		seen[rec.CompositeID] = struct{}{}

		filename, _ := rec.Metadata["filename"].(string)
		summaries = append(summaries, domain.DocumentSummary{
			ID:          rec.CompositeID,
			DocumentID:  rec.DocumentID,
			Filename:    filename,
			Metadata:    rec.Metadata,
			TextPreview: preview(rec.Text),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ID < summaries[j].ID
	})
	return summaries, nil
}

// preview caps text at domain.PreviewLength characters, appending an
// ellipsis when truncated. Truncation is rune-safe.
func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= domain.PreviewLength {
		return text
	}
	return string(runes[:domain.PreviewLength]) + "..."
}
