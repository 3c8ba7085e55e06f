package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	"event-analytics-lab/internal/domain"
	"event-analytics-lab/internal/storage"
)

// TemporalPointStore implements storage.TemporalPointStore using DuckDB.
type TemporalPointStore struct {
	db *DB
}

// NewTemporalPointStore creates a new TemporalPointStore.
func NewTemporalPointStore(db *DB) *TemporalPointStore {
	return &TemporalPointStore{db: db}
}

// Compile-time interface check.
var _ storage.TemporalPointStore = (*TemporalPointStore)(nil)

// InsertBulk adds multiple points atomically. Fails entire batch on
// duplicate (series_id, period).
func (s *TemporalPointStore) InsertBulk(ctx context.Context, points []*domain.TemporalPoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO temporal_points (
			series_id, period, value, peak, pct_of_peak, period_over_period_pct, label
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	for _, p := range points {
		_, err := tx.ExecContext(ctx, query,
			p.SeriesID, p.Period, p.Value, p.Peak,
			p.PctOfPeak, p.PeriodOverPeriodPct, p.Label,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert temporal point in bulk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetBySeries retrieves all points of a series, ordered by period ASC.
func (s *TemporalPointStore) GetBySeries(ctx context.Context, seriesID string) ([]*domain.TemporalPoint, error) {
	query := `
		SELECT series_id, period, value, peak, pct_of_peak, period_over_period_pct, label
		FROM temporal_points
		WHERE series_id = ?
		ORDER BY period ASC
	`

	rows, err := s.db.QueryContext(ctx, query, seriesID)
	if err != nil {
		return nil, fmt.Errorf("query temporal points by series: %w", err)
	}
	defer rows.Close()

	return scanTemporalPoints(rows)
}

// scanTemporalPoints scans multiple rows into a slice of TemporalPoint.
func scanTemporalPoints(rows *sql.Rows) ([]*domain.TemporalPoint, error) {
	var points []*domain.TemporalPoint

	for rows.Next() {
		var p domain.TemporalPoint
		err := rows.Scan(
			&p.SeriesID, &p.Period, &p.Value, &p.Peak,
			&p.PctOfPeak, &p.PeriodOverPeriodPct, &p.Label,
		)
		if err != nil {
			return nil, fmt.Errorf("scan temporal point row: %w", err)
		}
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate temporal point rows: %w", err)
	}

	return points, nil
}
