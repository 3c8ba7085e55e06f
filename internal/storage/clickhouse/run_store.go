package clickhouse

import (
	"context"
	"fmt"
	"time"

	"event-analytics-lab/internal/domain"
	"event-analytics-lab/internal/idhash"
	"event-analytics-lab/internal/observability"
	"event-analytics-lab/internal/storage"
)

// RunStore implements storage.RunStore using ClickHouse.
type RunStore struct {
	conn *Conn
}

// NewRunStore creates a new RunStore.
func NewRunStore(conn *Conn) *RunStore {
	return &RunStore{conn: conn}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

// InsertBulk adds multiple runs. Fails entire batch on duplicate
// (series_id, entity_id, category, start_ms).
func (s *RunStore) InsertBulk(ctx context.Context, runs []*domain.Run) (err error) {
	if len(runs) == 0 {
		return nil
	}

	start := time.Now()
	defer func() {
		observability.RecordDBQuery("clickhouse", "runs_insert_bulk", time.Since(start).Seconds(), err)
	}()

	// Check for intra-batch duplicates
	type key struct {
		seriesID string
		entityID string
		category string
		startMs  int64
	}
	seen := make(map[key]struct{})
	for _, r := range runs {
		k := key{r.SeriesID, r.EntityID, r.Category, r.StartMs}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, r := range runs {
		exists, err := s.exists(ctx, r.SeriesID, r.EntityID, r.Category, r.StartMs)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO runs (
			run_id, series_id, entity_id, category, length, start_ms, end_ms
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range runs {
		err = batch.Append(
			idhash.ComputeRunID(r.SeriesID, r.EntityID, r.Category, r.StartMs),
			r.SeriesID, r.EntityID, r.Category,
			uint32(r.Length), uint64(r.StartMs), uint64(r.EndMs),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
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

	rows, err := s.conn.Query(ctx, query, seriesID)
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

	rows, err := s.conn.Query(ctx, query, seriesID, entityID)
	if err != nil {
		return nil, fmt.Errorf("query runs by entity: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// exists checks if a run with the given key exists.
func (s *RunStore) exists(ctx context.Context, seriesID, entityID, category string, startMs int64) (bool, error) {
	query := `
		SELECT count(*) FROM runs
		WHERE series_id = ? AND entity_id = ? AND category = ? AND start_ms = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, seriesID, entityID, category, uint64(startMs)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanRuns scans multiple rows into a slice of Run.
func scanRuns(rows chRows) ([]*domain.Run, error) {
	var runs []*domain.Run

	for rows.Next() {
		var r domain.Run
		var length uint32
		var startMs, endMs uint64

		err := rows.Scan(
			&r.SeriesID, &r.EntityID, &r.Category,
			&length, &startMs, &endMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}

		r.Length = int(length)
		r.StartMs = int64(startMs)
		r.EndMs = int64(endMs)
		runs = append(runs, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}

	return runs, nil
}
