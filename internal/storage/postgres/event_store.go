package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"event-analytics-lab/internal/domain"
	"event-analytics-lab/internal/idhash"
	"event-analytics-lab/internal/observability"
	"event-analytics-lab/internal/storage"
)

// EventStore implements storage.EventStore using PostgreSQL.
type EventStore struct {
	pool *Pool
}

// NewEventStore creates a new EventStore.
func NewEventStore(pool *Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

// Insert adds a single event. Returns ErrDuplicateKey if
// (series_id, entity_id, occurred_at, seq) exists.
func (s *EventStore) Insert(ctx context.Context, e *domain.Event) (err error) {
	start := time.Now()
	defer func() {
		observability.RecordDBQuery("postgres", "events_insert", time.Since(start).Seconds(), err)
	}()

	query := `
		INSERT INTO events (
			event_id, series_id, entity_id, occurred_at, seq, category, value, first, second
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = s.pool.Exec(ctx, query,
		idhash.ComputeEventID(e.SeriesID, e.EntityID, e.OccurredAt, e.Seq),
		e.SeriesID,
		e.EntityID,
		e.OccurredAt,
		e.Seq,
		e.Category,
		e.Value,
		e.First,
		e.Second,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert event: %w", err)
	}

	return nil
}

// InsertBulk adds multiple events atomically. Fails entire batch on any
// duplicate (series_id, entity_id, occurred_at, seq).
func (s *EventStore) InsertBulk(ctx context.Context, events []*domain.Event) (err error) {
	if len(events) == 0 {
		return nil
	}

	start := time.Now()
	defer func() {
		observability.RecordDBQuery("postgres", "events_insert_bulk", time.Since(start).Seconds(), err)
	}()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO events (
			event_id, series_id, entity_id, occurred_at, seq, category, value, first, second
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for _, e := range events {
		_, err := tx.Exec(ctx, query,
			idhash.ComputeEventID(e.SeriesID, e.EntityID, e.OccurredAt, e.Seq),
			e.SeriesID,
			e.EntityID,
			e.OccurredAt,
			e.Seq,
			e.Category,
			e.Value,
			e.First,
			e.Second,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert event in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetBySeries retrieves all events of a series, ordered by (entity_id, occurred_at, seq) ASC.
func (s *EventStore) GetBySeries(ctx context.Context, seriesID string) ([]*domain.Event, error) {
	query := `
		SELECT series_id, entity_id, occurred_at, seq, category, value, first, second
		FROM events
		WHERE series_id = $1
		ORDER BY entity_id ASC, occurred_at ASC, seq ASC
	`

	rows, err := s.pool.Query(ctx, query, seriesID)
	if err != nil {
		return nil, fmt.Errorf("get events by series: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetByEntity retrieves one entity's events, ordered by (occurred_at, seq) ASC.
func (s *EventStore) GetByEntity(ctx context.Context, seriesID, entityID string) ([]*domain.Event, error) {
	query := `
		SELECT series_id, entity_id, occurred_at, seq, category, value, first, second
		FROM events
		WHERE series_id = $1 AND entity_id = $2
		ORDER BY occurred_at ASC, seq ASC
	`

	rows, err := s.pool.Query(ctx, query, seriesID, entityID)
	if err != nil {
		return nil, fmt.Errorf("get events by entity: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetByTimeRange retrieves a series' events within [start, end] (inclusive).
func (s *EventStore) GetByTimeRange(ctx context.Context, seriesID string, start, end int64) ([]*domain.Event, error) {
	query := `
		SELECT series_id, entity_id, occurred_at, seq, category, value, first, second
		FROM events
		WHERE series_id = $1 AND occurred_at >= $2 AND occurred_at <= $3
		ORDER BY entity_id ASC, occurred_at ASC, seq ASC
	`

	rows, err := s.pool.Query(ctx, query, seriesID, start, end)
	if err != nil {
		return nil, fmt.Errorf("get events by time range: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListEntities returns the distinct entity ids of a series, sorted ASC.
func (s *EventStore) ListEntities(ctx context.Context, seriesID string) ([]string, error) {
	query := `
		SELECT DISTINCT entity_id
		FROM events
		WHERE series_id = $1
		ORDER BY entity_id ASC
	`

	rows, err := s.pool.Query(ctx, query, seriesID)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer rows.Close()

	var entities []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan entity id: %w", err)
		}
		entities = append(entities, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entity rows: %w", err)
	}

	return entities, nil
}

// scanEvents scans multiple rows into a slice of Event.
func scanEvents(rows pgx.Rows) ([]*domain.Event, error) {
	var events []*domain.Event

	for rows.Next() {
		var e domain.Event

		err := rows.Scan(
			&e.SeriesID,
			&e.EntityID,
			&e.OccurredAt,
			&e.Seq,
			&e.Category,
			&e.Value,
			&e.First,
			&e.Second,
		)
		if err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}

		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}

	return events, nil
}
