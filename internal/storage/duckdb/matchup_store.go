package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	"event-analytics-lab/internal/domain"
	"event-analytics-lab/internal/storage"
)

// MatchupAggregateStore implements storage.MatchupAggregateStore using DuckDB.
type MatchupAggregateStore struct {
	db *DB
}

// NewMatchupAggregateStore creates a new MatchupAggregateStore.
func NewMatchupAggregateStore(db *DB) *MatchupAggregateStore {
	return &MatchupAggregateStore{db: db}
}

// Compile-time interface check.
var _ storage.MatchupAggregateStore = (*MatchupAggregateStore)(nil)

// InsertBulk adds multiple aggregates atomically. Fails entire batch on
// duplicate (series_id, first, second).
func (s *MatchupAggregateStore) InsertBulk(ctx context.Context, aggs []*domain.MatchupAggregate) error {
	if len(aggs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO matchup_aggregates (
			series_id, first, second, first_wins, second_wins, draws, total
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	for _, a := range aggs {
		_, err := tx.ExecContext(ctx, query,
			a.SeriesID, a.Key.First, a.Key.Second,
			a.FirstWins, a.SecondWins, a.Draws, a.Total,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert matchup aggregate in bulk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
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

	rows, err := s.db.QueryContext(ctx, query, seriesID)
	if err != nil {
		return nil, fmt.Errorf("query matchup aggregates by series: %w", err)
	}
	defer rows.Close()

	return scanMatchupAggregates(rows)
}

// scanMatchupAggregates scans multiple rows into a slice of MatchupAggregate.
func scanMatchupAggregates(rows *sql.Rows) ([]*domain.MatchupAggregate, error) {
	var aggs []*domain.MatchupAggregate

	for rows.Next() {
		var a domain.MatchupAggregate
		err := rows.Scan(
			&a.SeriesID, &a.Key.First, &a.Key.Second,
			&a.FirstWins, &a.SecondWins, &a.Draws, &a.Total,
		)
		if err != nil {
			return nil, fmt.Errorf("scan matchup aggregate row: %w", err)
		}
		aggs = append(aggs, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matchup aggregate rows: %w", err)
	}

	return aggs, nil
}
