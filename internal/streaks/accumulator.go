package streaks

import "event-analytics-lab/internal/domain"

// Accumulator tracks the open run for one entity in a streaming context.
// A run can only be confirmed maximal once a differing category or end of
// stream is observed, so the partition must not be finalized before Flush.
//
// Not safe for concurrent use; run one Accumulator per partition.
type Accumulator struct {
	entityID string
	current  *domain.Run
}

// NewAccumulator creates an accumulator for one entity's partition.
func NewAccumulator(entityID string) *Accumulator {
	return &Accumulator{entityID: entityID}
}

// Observe consumes the next event of the partition in order. It returns the
// completed run when the event's category differs from the open run's, and
// nil while the open run keeps extending.
func (a *Accumulator) Observe(e *domain.Event) *domain.Run {
	if a.current != nil && a.current.Category == e.Category {
		a.current.Length++
		a.current.EndMs = e.OccurredAt
		return nil
	}

	completed := a.current
	a.current = &domain.Run{
		SeriesID: e.SeriesID,
		EntityID: a.entityID,
		Category: e.Category,
		Length:   1,
		StartMs:  e.OccurredAt,
		EndMs:    e.OccurredAt,
	}
	return completed
}

// Flush returns the still-open run at end of stream, or nil when no event
// was observed. The accumulator is reset and may be reused.
func (a *Accumulator) Flush() *domain.Run {
	completed := a.current
	a.current = nil
	return completed
}
