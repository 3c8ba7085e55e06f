package clickhouse

import (
	"context"
	"fmt"
	"time"

	"event-analytics-lab/internal/domain"
	"event-analytics-lab/internal/observability"
	"event-analytics-lab/internal/storage"
)

// MatchupAggregateStore implements storage.MatchupAggregateStore using ClickHouse.
type MatchupAggregateStore struct {
	conn *Conn
}

// NewMatchupAggregateStore creates a new MatchupAggregateStore.
func NewMatchupAggregateStore(conn *Conn) *MatchupAggregateStore {
	return &MatchupAggregateStore{conn: conn}
}

// Compile-time interface check.
var _ storage.MatchupAggregateStore = (*MatchupAggregateStore)(nil)

// InsertBulk adds multiple aggregates. Fails entire batch on duplicate
// (series_id, first, second).
func (s *MatchupAggregateStore) InsertBulk(ctx context.Context, aggs []*domain.MatchupAggregate) (err error) {
	if len(aggs) == 0 {
		return nil
	}

	start := time.Now()
	defer func() {
		observability.RecordDBQuery("clickhouse", "matchup_aggregates_insert_bulk", time.Since(start).Seconds(), err)
	}()

	// Check for intra-batch duplicates
	type key struct {
		seriesID string
		first    string
		second   string
	}
	seen := make(map[key]struct{})
	for _, a := range aggs {
		k := key{a.SeriesID, a.Key.First, a.Key.Second}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, a := range aggs {
		exists, err := s.exists(ctx, a.SeriesID, a.Key.First, a.Key.Second)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO matchup_aggregates (
			series_id, first, second, first_wins, second_wins, draws, total
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, a := range aggs {
		err = batch.Append(
			a.SeriesID, a.Key.First, a.Key.Second,
			uint32(a.FirstWins), uint32(a.SecondWins), uint32(a.Draws), uint32(a.Total),
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

// GetBySeries retrieves all aggregates of a series, ordered by total DESC, then key ASC.
func (s *MatchupAggregateStore) GetBySeries(ctx context.Context, seriesID string) ([]*domain.MatchupAggregate, error) {
	query := `
		SELECT series_id, first, second, first_wins, second_wins, draws, total
		FROM matchup_aggregates
		WHERE series_id = ?
		ORDER BY total DESC, first ASC, second ASC
	`

	rows, err := s.conn.Query(ctx, query, seriesID)
	if err != nil {
		return nil, fmt.Errorf("query matchup aggregates by series: %w", err)
	}
	defer rows.Close()

	return scanMatchupAggregates(rows)
}

// exists checks if an aggregate with the given key exists.
func (s *MatchupAggregateStore) exists(ctx context.Context, seriesID, first, second string) (bool, error) {
	query := `
		SELECT count(*) FROM matchup_aggregates
		WHERE series_id = ? AND first = ? AND second = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, seriesID, first, second).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanMatchupAggregates scans multiple rows into a slice of MatchupAggregate.
func scanMatchupAggregates(rows chRows) ([]*domain.MatchupAggregate, error) {
	var aggs []*domain.MatchupAggregate

	for rows.Next() {
		var a domain.MatchupAggregate
		var firstWins, secondWins, draws, total uint32

		err := rows.Scan(
			&a.SeriesID, &a.Key.First, &a.Key.Second,
			&firstWins, &secondWins, &draws, &total,
		)
		if err != nil {
			return nil, fmt.Errorf("scan matchup aggregate row: %w", err)
		}

		a.FirstWins = int(firstWins)
		a.SecondWins = int(secondWins)
		a.Draws = int(draws)
		a.Total = int(total)
		aggs = append(aggs, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matchup aggregate rows: %w", err)
	}

	return aggs, nil
}
