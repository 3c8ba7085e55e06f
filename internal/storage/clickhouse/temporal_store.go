package clickhouse

import (
	"context"
	"fmt"
	"time"

	"event-analytics-lab/internal/domain"
	"event-analytics-lab/internal/observability"
	"event-analytics-lab/internal/storage"
)

// TemporalPointStore implements storage.TemporalPointStore using ClickHouse.
type TemporalPointStore struct {
	conn *Conn
}

// NewTemporalPointStore creates a new TemporalPointStore.
func NewTemporalPointStore(conn *Conn) *TemporalPointStore {
	return &TemporalPointStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TemporalPointStore = (*TemporalPointStore)(nil)

// InsertBulk adds multiple points. Fails entire batch on duplicate (series_id, period).
func (s *TemporalPointStore) InsertBulk(ctx context.Context, points []*domain.TemporalPoint) (err error) {
	if len(points) == 0 {
		return nil
	}

	start := time.Now()
	defer func() {
		observability.RecordDBQuery("clickhouse", "temporal_points_insert_bulk", time.Since(start).Seconds(), err)
	}()

	// Check for intra-batch duplicates
	type key struct {
		seriesID string
		period   string
	}
	seen := make(map[key]struct{})
	for _, p := range points {
		k := key{p.SeriesID, p.Period}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, p := range points {
		exists, err := s.exists(ctx, p.SeriesID, p.Period)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO temporal_points (
			series_id, period, value, peak, pct_of_peak, period_over_period_pct, label
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(
			p.SeriesID, p.Period, p.Value, p.Peak,
			p.PctOfPeak, p.PeriodOverPeriodPct, p.Label,
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

// GetBySeries retrieves all points of a series, ordered by period ASC.
func (s *TemporalPointStore) GetBySeries(ctx context.Context, seriesID string) ([]*domain.TemporalPoint, error) {
	query := `
		SELECT series_id, period, value, peak, pct_of_peak, period_over_period_pct, label
		FROM temporal_points
		WHERE series_id = ?
		ORDER BY period ASC
	`

	rows, err := s.conn.Query(ctx, query, seriesID)
	if err != nil {
		return nil, fmt.Errorf("query temporal points by series: %w", err)
	}
	defer rows.Close()

	return scanTemporalPoints(rows)
}

// exists checks if a point with the given key exists.
func (s *TemporalPointStore) exists(ctx context.Context, seriesID, period string) (bool, error) {
	query := `
		SELECT count(*) FROM temporal_points
		WHERE series_id = ? AND period = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, seriesID, period).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanTemporalPoints scans multiple rows into a slice of TemporalPoint.
func scanTemporalPoints(rows chRows) ([]*domain.TemporalPoint, error) {
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
