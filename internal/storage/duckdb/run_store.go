package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	"event-analytics-lab/internal/domain"
	"event-analytics-lab/internal/storage"
)

// RunStore implements storage.RunStore using DuckDB.
type RunStore struct {
	db *DB
}

// NewRunStore creates a new RunStore.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

// InsertBulk adds multiple runs atomically. Fails entire batch on duplicate
// (series_id, entity_id, category, start_ms).
func (s *RunStore) InsertBulk(ctx context.Context, runs []*domain.Run) error {
	if len(runs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO runs (series_id, entity_id, category, length, start_ms, end_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	for _, r := range runs {
		_, err := tx.ExecContext(ctx, query,
			r.SeriesID, r.EntityID, r.Category, r.Length, r.StartMs, r.EndMs,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert run in bulk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetBySeries retrieves all runs of a series, ordered by (entity_id, start_ms) ASC.
func (s *RunStore) GetBySeries(ctx context.Context, seriesID string) ([]*domain.Run, error) {
	query := `
		SELECT series_id, entity_id, category, length, start_ms, end_ms
		FROM runs
		WHERE series_id = ?
		ORDER BY entity_id ASC, start_ms ASC, category ASC
	`

	rows, err := s.db.QueryContext(ctx, query, seriesID)
	if err != nil {
		return nil, fmt.Errorf("query runs by series: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// GetByEntity retrieves one entity's runs, ordered by start_ms ASC.
func (s *RunStore) GetByEntity(ctx context.Context, seriesID, entityID string) ([]*domain.Run, error) {
	query := `
		SELECT series_id, entity_id, category, length, start_ms, end_ms
		FROM runs
		WHERE series_id = ? AND entity_id = ?
		ORDER BY start_ms ASC, category ASC
	`

	rows, err := s.db.QueryContext(ctx, query, seriesID, entityID)
	if err != nil {
		return nil, fmt.Errorf("query runs by entity: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// scanRuns scans multiple rows into a slice of Run.
func scanRuns(rows *sql.Rows) ([]*domain.Run, error) {
	var runs []*domain.Run

	for rows.Next() {
		var r domain.Run
		err := rows.Scan(
			&r.SeriesID, &r.EntityID, &r.Category,
			&r.Length, &r.StartMs, &r.EndMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	return runs, nil
}
