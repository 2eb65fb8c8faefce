package vectormath

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/ragd/internal/core/domain"
	"github.com/custodia-labs/ragd/internal/core/ports/driven"
)

func TestCosine(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{0, 1, 0}

	assert.InDelta(t, 1.0, Cosine(a, a), 1e-9)
	assert.InDelta(t, 0.0, Cosine(a, b), 1e-9)
	assert.InDelta(t, -1.0, Cosine(a, []float32{-1, 0, 0}), 1e-9)
}

func TestCosine_Degenerate(t *testing.T) {
	assert.Zero(t, Cosine(nil, nil))
	assert.Zero(t, Cosine([]float32{1, 2}, []float32{1, 2, 3}))
	assert.Zero(t, Cosine([]float32{0, 0}, []float32{1, 1}))
}

func TestSparseCosine(t *testing.T) {
	a := domain.SparseVector{1: 1, 2: 1}
	b := domain.SparseVector{2: 1, 3: 1}

	// One shared bucket out of two per vector: 1 / (sqrt2 * sqrt2).
	assert.InDelta(t, 0.5, SparseCosine(a, b), 1e-9)
	assert.InDelta(t, 1.0, SparseCosine(a, a), 1e-9)
	assert.Zero(t, SparseCosine(a, domain.SparseVector{9: 1}))
	assert.Zero(t, SparseCosine(a, nil))
}

func TestFuse(t *testing.T) {
	assert.InDelta(t, 0.7*0.8+0.3*0.4, Fuse(0.7, 0.8, 0.4), 1e-9)
	assert.InDelta(t, 0.8, Fuse(1.0, 0.8, 0.4), 1e-9)
	assert.InDelta(t, 0.4, Fuse(0.0, 0.8, 0.4), 1e-9)
}

func TestScore_Modes(t *testing.T) {
	entry := domain.IndexEntry{
		Dense:  []float32{1, 0},
		Sparse: domain.SparseVector{1: 1},
	}

	dense, ok := Score(0.7, driven.VectorQuery{
		Mode:  domain.SearchModeDense,
		Dense: []float32{1, 0},
	}, entry)
	assert.True(t, ok)
	assert.InDelta(t, 1.0, dense, 1e-9)

	sparse, ok := Score(0.7, driven.VectorQuery{
		Mode:   domain.SearchModeSparse,
		Sparse: domain.SparseVector{1: 1},
	}, entry)
	assert.True(t, ok)
	assert.InDelta(t, 1.0, sparse, 1e-9)

	hybrid, ok := Score(0.7, driven.VectorQuery{
		Mode:   domain.SearchModeHybrid,
		Dense:  []float32{1, 0},
		Sparse: domain.SparseVector{1: 1},
	}, entry)
	assert.True(t, ok)
	assert.InDelta(t, 1.0, hybrid, 1e-9)
}

func TestScore_HybridDegradesToDense(t *testing.T) {
	entry := domain.IndexEntry{Dense: []float32{1, 0}}

	score, ok := Score(0.7, driven.VectorQuery{
		Mode:  domain.SearchModeHybrid,
		Dense: []float32{1, 0},
	}, entry)
	assert.True(t, ok)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestScore_NoSignal(t *testing.T) {
	_, ok := Score(0.7, driven.VectorQuery{
		Mode:   domain.SearchModeSparse,
		Sparse: domain.SparseVector{1: 1},
	}, domain.IndexEntry{Dense: []float32{1}})
	assert.False(t, ok)

	_, ok = Score(0.7, driven.VectorQuery{Mode: "bogus"}, domain.IndexEntry{})
	assert.False(t, ok)
}

func TestSortHits_TieBreak(t *testing.T) {
	hits := []driven.VectorHit{
		{CompositeID: "acme:2", Seq: 0, Score: 0.5},
		{CompositeID: "acme:1", Seq: 1, Score: 0.5},
		{CompositeID: "acme:1", Seq: 0, Score: 0.5},
		{CompositeID: "acme:3", Seq: 0, Score: 0.9},
	}

	SortHits(hits)

	assert.Equal(t, "acme:3", hits[0].CompositeID)
	assert.Equal(t, "acme:1", hits[1].CompositeID)
	assert.Equal(t, 0, hits[1].Seq)
	assert.Equal(t, "acme:1", hits[2].CompositeID)
	assert.Equal(t, 1, hits[2].Seq)
	assert.Equal(t, "acme:2", hits[3].CompositeID)
}

func TestMatchesFilters(t *testing.T) {
	md := map[string]any{"filename": "a.txt", "document_id": int64(7)}

	assert.True(t, MatchesFilters(md, nil))
	assert.True(t, MatchesFilters(md, map[string]string{"filename": "a.txt"}))
	assert.True(t, MatchesFilters(md, map[string]string{"document_id": "7"}))
	assert.False(t, MatchesFilters(md, map[string]string{"filename": "b.txt"}))
	assert.False(t, MatchesFilters(md, map[string]string{"missing": "x"}))
}
