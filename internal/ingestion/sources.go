// Package ingestion pulls raw records from external feeds and loads them
// into the event staging store after normalization.
package ingestion

import (
	"context"

	"event-analytics-lab/internal/domain"
)

// RecordSource provides raw records from batch-oriented sources.
type RecordSource interface {
	// Fetch returns records for a series within time range [from, to]
	// (inclusive). Records may be unordered and may fail validation;
	// Runner normalizes and orders them.
	Fetch(ctx context.Context, seriesID string, from, to int64) ([]domain.RawRecord, error)
}

// StreamSource provides raw records from push-oriented sources.
type StreamSource interface {
	// Subscribe returns a channel of raw records for a series.
	// The channel is closed when the context is cancelled or the
	// source shuts down.
	Subscribe(ctx context.Context, seriesID string) (<-chan domain.RawRecord, error)
}
