package domain

import "time"

// Document is an externally owned record submitted for indexing.
// The engine treats it as immutable input: it owns the document's
// indexed representation, never its lifecycle.
type Document struct {
	// ID is the caller-assigned document identifier.
	ID int64

	// Filename is the original file name, carried into chunk metadata.
	Filename string

	// Content is the full text to be chunked and indexed.
	Content string

	// Metadata contains arbitrary key-value pairs supplied by the caller.
	Metadata map[string]any

	// CreatedAt is when the document was created by its owner.
	CreatedAt time.Time
}

// ChunkRecord is one retrievable unit produced by chunking a document.
// All chunks of one document share the same composite id; Seq
// distinguishes them and matches left-to-right production order.
type ChunkRecord struct {
	// CompositeID is "<tenant>:<document_id>", shared across the chunk set.
	CompositeID string

	// DocumentID is the owning document's identifier.
	DocumentID int64

	// Seq is the chunk sequence number within the document, starting at 0.
	Seq int

	// Text is the chunk text.
	Text string

	// Metadata is the parent document's metadata merged with
	// document_id, filename, tenant and created_at.
	Metadata map[string]any
}

// SparseVector is a lexical (sparse) embedding: term bucket to weight.
type SparseVector map[uint32]float32

// Embedding is the output of an embedding provider for one text.
type Embedding struct {
	// Dense is the dense vector at the provider's fixed dimensionality.
	Dense []float32

	// Sparse is the optional lexical vector. Nil when the provider
	// produces dense signal only.
	Sparse SparseVector
}

// IndexEntry is the vector-index representation of one chunk. For every
// IndexEntry there is exactly one ChunkRecord with the same composite id
// and sequence number, except during an in-flight ingestion or deletion.
type IndexEntry struct {
	// CompositeID is the shared retrievable key, "<tenant>:<document_id>".
	CompositeID string

	// Seq is the chunk sequence number within the document.
	Seq int

	// Dense is the dense embedding vector.
	Dense []float32

	// Sparse is the optional sparse embedding vector.
	Sparse SparseVector

	// Metadata is a copy of the chunk's metadata.
	Metadata map[string]any
}

// Stats summarises a tenant's indexed corpus.
type Stats struct {
	Tenant            string  `json:"tenant"`
	TotalDocuments    int     `json:"total_documents"`
	TotalTokens       int     `json:"total_tokens"`
	AvgDocumentLength float64 `json:"avg_document_length"`
	Namespace         string  `json:"namespace"`
	Collection        string  `json:"collection"`
}

// PreviewLength is the maximum number of characters in a document listing
// preview before truncation.
const PreviewLength = 200

// DocumentSummary is one row of a document listing.
type DocumentSummary struct {
	// ID is the composite id.
	ID string `json:"id"`

	// DocumentID is the owning document's identifier.
	DocumentID int64 `json:"document_id"`

	// Filename is the original file name.
	Filename string `json:"filename"`

	// Metadata is the chunk metadata of the document's first chunk.
	Metadata map[string]any `json:"metadata"`

	// TextPreview is the first chunk's text capped at PreviewLength
	// characters, with a trailing ellipsis when truncated.
	TextPreview string `json:"text_preview"`
}
