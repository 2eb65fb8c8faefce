package vectormath

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/ragd/internal/core/domain"
	"github.com/custodia-labs/ragd/internal/core/ports/driven"
)

// Score computes one entry's similarity for a query. The second return
// is false when the entry carries no signal for the requested mode.
// Both vector index adapters rank through this function so they order
// candidates identically.
func Score(alpha float64, q driven.VectorQuery, e domain.IndexEntry) (float64, bool) {
	switch q.Mode {
	case domain.SearchModeDense:
		if len(q.Dense) == 0 || len(e.Dense) == 0 {
			return 0, false
		}
		return Cosine(q.Dense, e.Dense), true

	case domain.SearchModeSparse:
		if len(q.Sparse) == 0 || len(e.Sparse) == 0 {
			return 0, false
		}
		return SparseCosine(q.Sparse, e.Sparse), true

	case domain.SearchModeHybrid:
		if len(q.Dense) == 0 || len(e.Dense) == 0 {
			return 0, false
		}
		dense := Cosine(q.Dense, e.Dense)
		if len(q.Sparse) == 0 || len(e.Sparse) == 0 {
			// Hybrid degrades to dense scoring without sparse signal.
			return dense, true
		}
		return Fuse(alpha, dense, SparseCosine(q.Sparse, e.Sparse)), true

	default:
		return 0, false
	}
}

// SortHits orders hits by descending score, ties broken by composite id
// then sequence number for deterministic rankings.
func SortHits(hits []driven.VectorHit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].CompositeID != hits[j].CompositeID {
			return hits[i].CompositeID < hits[j].CompositeID
		}
		return hits[i].Seq < hits[j].Seq
	})
}

// MatchesFilters reports whether metadata satisfies every filter pair.
// Values compare by their string form.
func MatchesFilters(md map[string]any, filters map[string]string) bool {
	for k, want := range filters {
		got, ok := md[k]
		if !ok {
			return false
		}
		if fmt.Sprintf("%v", got) != want {
			return false
		}
	}
	return true
}
