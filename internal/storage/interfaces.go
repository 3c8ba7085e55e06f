// Package storage defines the store contracts for normalized events and the
// derived analytical tables, with in-memory, PostgreSQL, ClickHouse, and
// DuckDB implementations in subpackages.
package storage

import (
	"context"

	"event-analytics-lab/internal/domain"
)

// EventStore provides access to normalized event storage (the staging layer).
type EventStore interface {
	// Insert adds a single event. Returns ErrDuplicateKey if
	// (series_id, entity_id, occurred_at, seq) exists.
	Insert(ctx context.Context, e *domain.Event) error

	// InsertBulk adds multiple events atomically. Fails the entire batch on
	// any duplicate (series_id, entity_id, occurred_at, seq).
	InsertBulk(ctx context.Context, events []*domain.Event) error

	// GetBySeries retrieves all events of a series, ordered by
	// (entity_id, occurred_at, seq) ASC.
	GetBySeries(ctx context.Context, seriesID string) ([]*domain.Event, error)

	// GetByEntity retrieves one entity's events, ordered by (occurred_at, seq) ASC.
	GetByEntity(ctx context.Context, seriesID, entityID string) ([]*domain.Event, error)

	// GetByTimeRange retrieves a series' events within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, seriesID string, start, end int64) ([]*domain.Event, error)

	// ListEntities returns the distinct entity ids of a series, sorted ASC.
	ListEntities(ctx context.Context, seriesID string) ([]string, error)
}

// RunStore provides access to detected run storage.
type RunStore interface {
	// InsertBulk adds multiple runs. Fails the entire batch on duplicate
	// (series_id, entity_id, category, start_ms).
	InsertBulk(ctx context.Context, runs []*domain.Run) error

	// GetBySeries retrieves all runs of a series, ordered by
	// (entity_id, start_ms) ASC.
	GetBySeries(ctx context.Context, seriesID string) ([]*domain.Run, error)

	// GetByEntity retrieves one entity's runs, ordered by start_ms ASC.
	GetByEntity(ctx context.Context, seriesID, entityID string) ([]*domain.Run, error)
}

// TemporalPointStore provides access to normalized series storage.
type TemporalPointStore interface {
	// InsertBulk adds multiple points. Fails the entire batch on duplicate
	// (series_id, period).
	InsertBulk(ctx context.Context, points []*domain.TemporalPoint) error

	// GetBySeries retrieves all points of a series, ordered by period ASC.
	GetBySeries(ctx context.Context, seriesID string) ([]*domain.TemporalPoint, error)
}

// MatchupAggregateStore provides access to head-to-head aggregate storage.
type MatchupAggregateStore interface {
	// InsertBulk adds multiple aggregates. Fails the entire batch on
	// duplicate (series_id, first, second).
	InsertBulk(ctx context.Context, aggs []*domain.MatchupAggregate) error

	// GetBySeries retrieves all aggregates of a series, ordered by
	// total DESC, then key ASC.
	GetBySeries(ctx context.Context, seriesID string) ([]*domain.MatchupAggregate, error)
}
