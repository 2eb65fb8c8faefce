package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/ragd/internal/core/domain"
	"github.com/custodia-labs/ragd/internal/core/ports/driven"
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// PutChunks upserts the full chunk set for one composite id. The write
// replaces whatever chunk set was stored under that id, so a re-ingest
// with fewer chunks leaves no stale rows behind.
func (s *documentStore) PutChunks(ctx context.Context, namespace string, records []domain.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}
	compositeID := records[0].CompositeID
	for _, r := range records {
		if r.CompositeID != compositeID {
			return fmt.Errorf("mixed composite ids in one chunk set: %s and %s",
				compositeID, r.CompositeID)
		}
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM chunks WHERE namespace = ? AND composite_id = ?",
		namespace, compositeID,
	); err != nil {
		return fmt.Errorf("clearing chunk set: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (namespace, composite_id, seq, document_id, text, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		metadataJSON, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, namespace, rec.CompositeID, rec.Seq,
			rec.DocumentID, rec.Text, string(metadataJSON)); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunks retrieves the chunk set for a composite id ordered by seq.
func (s *documentStore) GetChunks(ctx context.Context, namespace, compositeID string) ([]domain.ChunkRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT composite_id, seq, document_id, text, metadata
		FROM chunks WHERE namespace = ? AND composite_id = ?
		ORDER BY seq
	`, namespace, compositeID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	records, err := scanChunks(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("chunks %s: %w", compositeID, domain.ErrNotFound)
	}
	return records, nil
}

// DeleteChunks removes the chunk set for a composite id.
func (s *documentStore) DeleteChunks(ctx context.Context, namespace, compositeID string) (bool, error) {
	res, err := s.store.db.ExecContext(ctx,
		"DELETE FROM chunks WHERE namespace = ? AND composite_id = ?",
		namespace, compositeID,
	)
	if err != nil {
		return false, fmt.Errorf("deleting chunks: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading rows affected: %w", err)
	}
	return affected > 0, nil
}

// List returns all chunk records in a namespace.
func (s *documentStore) List(ctx context.Context, namespace string) ([]domain.ChunkRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT composite_id, seq, document_id, text, metadata
		FROM chunks WHERE namespace = ?
		ORDER BY composite_id, seq
	`, namespace)
	if err != nil {
		return nil, fmt.Errorf("querying namespace: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// Close is a no-op; the connection belongs to the parent Store.
func (s *documentStore) Close() error {
	return nil
}

// scanChunks reads chunk rows into records.
func scanChunks(rows *sql.Rows) ([]domain.ChunkRecord, error) {
	var records []domain.ChunkRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var rec domain.ChunkRecord
		var metadataJSON string
		if err := rows.Scan(&rec.CompositeID, &rec.Seq, &rec.DocumentID,
			&rec.Text, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(metadataJSON), &rec.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling chunk metadata: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return records, nil
}
