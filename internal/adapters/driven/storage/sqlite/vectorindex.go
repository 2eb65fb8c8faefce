package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/ragd/internal/core/domain"
	"github.com/custodia-labs/ragd/internal/core/ports/driven"
	"github.com/custodia-labs/ragd/internal/vectormath"
)

// vectorIndex implements driven.VectorIndex.
type vectorIndex struct {
	store *Store
}

var _ driven.VectorIndex = (*vectorIndex)(nil)

// Upsert writes entries into a collection.
func (v *vectorIndex) Upsert(ctx context.Context, collection string, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vectors (collection, composite_id, seq, dense, sparse, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, composite_id, seq) DO UPDATE SET
			dense = excluded.dense,
			sparse = excluded.sparse,
			metadata = excluded.metadata
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		sparseJSON, err := marshalSparse(e.Sparse)
		if err != nil {
			return fmt.Errorf("marshalling sparse vector: %w", err)
		}
		metadataJSON, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling entry metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, collection, e.CompositeID, e.Seq,
			float32SliceToBytes(e.Dense), sparseJSON, string(metadataJSON)); err != nil {
			return fmt.Errorf("saving entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Delete removes every entry whose composite id is in ids.
func (v *vectorIndex) Delete(ctx context.Context, collection string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(ids)+1)
	args = append(args, collection)
	for _, id := range ids {
		args = append(args, id)
	}

	res, err := v.store.db.ExecContext(ctx,
		"DELETE FROM vectors WHERE collection = ? AND composite_id IN ("+placeholders+")",
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting entries: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading rows affected: %w", err)
	}
	return int(affected), nil
}

// Search scans the collection's rows and scores them in Go. Exact and
// deterministic; see the package comment for the brute-force trade-off.
func (v *vectorIndex) Search(
	ctx context.Context, collection string, q driven.VectorQuery,
) ([]driven.VectorHit, error) {
	if q.TopK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be >= 1", domain.ErrInvalidArgument)
	}

	rows, err := v.store.db.QueryContext(ctx, `
		SELECT composite_id, seq, dense, sparse, metadata
		FROM vectors WHERE collection = ?
	`, collection)
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}
	defer rows.Close()

	var hits []driven.VectorHit
	for rows.Next() {
		var (
			entry        domain.IndexEntry
			denseBlob    []byte
			sparseJSON   []byte
			metadataJSON string
		)
		if err := rows.Scan(&entry.CompositeID, &entry.Seq, &denseBlob,
			&sparseJSON, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		entry.Dense = bytesToFloat32Slice(denseBlob)
		entry.Sparse, err = unmarshalSparse(sparseJSON)
		if err != nil {
			return nil, fmt.Errorf("unmarshalling sparse vector: %w", err)
		}
		if err := json.Unmarshal([]byte(metadataJSON), &entry.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling entry metadata: %w", err)
		}

		if !vectormath.MatchesFilters(entry.Metadata, q.Filters) {
			continue
		}
		score, ok := vectormath.Score(v.store.alpha, q, entry)
		if !ok {
			continue
		}
		hits = append(hits, driven.VectorHit{
			CompositeID: entry.CompositeID,
			Seq:         entry.Seq,
			Score:       score,
			Metadata:    entry.Metadata,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}

	vectormath.SortHits(hits)
	if len(hits) > q.TopK {
		hits = hits[:q.TopK]
	}
	return hits, nil
}

// Close is a no-op; the connection belongs to the parent Store.
func (v *vectorIndex) Close() error {
	return nil
}

// marshalSparse encodes a sparse vector as a JSON object of bucket -> weight.
func marshalSparse(sv domain.SparseVector) (string, error) {
	if len(sv) == 0 {
		return "", nil
	}
	m := make(map[string]float32, len(sv))
	for k, w := range sv {
		m[strconv.FormatUint(uint64(k), 10)] = w
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// unmarshalSparse decodes the JSON form back to a sparse vector.
func unmarshalSparse(data []byte) (domain.SparseVector, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var m map[string]float32
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	sv := make(domain.SparseVector, len(m))
	for k, w := range m {
		bucket, err := strconv.ParseUint(k, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("bad sparse bucket %q: %w", k, err)
		}
		sv[uint32(bucket)] = w
	}
	return sv, nil
}
