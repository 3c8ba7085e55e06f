// Package memory provides in-memory store implementations used by unit tests
// and the fixture-driven pipeline binary.
package memory

import (
	"context"
	"sort"
	"sync"

	"event-analytics-lab/internal/domain"
	"event-analytics-lab/internal/idhash"
	"event-analytics-lab/internal/storage"
)

// EventStore is an in-memory implementation of storage.EventStore.
type EventStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Event // keyed by deterministic event id
}

// NewEventStore creates a new in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{data: make(map[string]*domain.Event)}
}

var _ storage.EventStore = (*EventStore)(nil)

// Insert adds a single event. Returns ErrDuplicateKey if the event already exists.
func (s *EventStore) Insert(_ context.Context, e *domain.Event) error {
	if e == nil || e.SeriesID == "" || e.EntityID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := idhash.ComputeEventID(e.SeriesID, e.EntityID, e.OccurredAt, e.Seq)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}
	eventCopy := *e
	s.data[key] = &eventCopy
	return nil
}

// InsertBulk adds multiple events atomically. Fails the entire batch on any duplicate.
func (s *EventStore) InsertBulk(_ context.Context, events []*domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: detect duplicates, existing and intra-batch.
	batchKeys := make(map[string]struct{}, len(events))
	for _, e := range events {
		if e == nil || e.SeriesID == "" || e.EntityID == "" {
			return storage.ErrInvalidInput
		}
		key := idhash.ComputeEventID(e.SeriesID, e.EntityID, e.OccurredAt, e.Seq)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all.
	for _, e := range events {
		key := idhash.ComputeEventID(e.SeriesID, e.EntityID, e.OccurredAt, e.Seq)
		eventCopy := *e
		s.data[key] = &eventCopy
	}
	return nil
}

// GetBySeries retrieves all events of a series, ordered by (entity_id, occurred_at, seq) ASC.
func (s *EventStore) GetBySeries(_ context.Context, seriesID string) ([]*domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Event
	for _, e := range s.data {
		if e.SeriesID == seriesID {
			eventCopy := *e
			result = append(result, &eventCopy)
		}
	}
	sortEvents(result)
	return result, nil
}

// GetByEntity retrieves one entity's events, ordered by (occurred_at, seq) ASC.
func (s *EventStore) GetByEntity(_ context.Context, seriesID, entityID string) ([]*domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Event
	for _, e := range s.data {
		if e.SeriesID == seriesID && e.EntityID == entityID {
			eventCopy := *e
			result = append(result, &eventCopy)
		}
	}
	sortEvents(result)
	return result, nil
}

// GetByTimeRange retrieves a series' events within [start, end] (inclusive).
func (s *EventStore) GetByTimeRange(_ context.Context, seriesID string, start, end int64) ([]*domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Event
	for _, e := range s.data {
		if e.SeriesID == seriesID && e.OccurredAt >= start && e.OccurredAt <= end {
			eventCopy := *e
			result = append(result, &eventCopy)
		}
	}
	sortEvents(result)
	return result, nil
}

// ListEntities returns the distinct entity ids of a series, sorted ASC.
func (s *EventStore) ListEntities(_ context.Context, seriesID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, e := range s.data {
		if e.SeriesID == seriesID {
			seen[e.EntityID] = struct{}{}
		}
	}
	entities := make([]string, 0, len(seen))
	for entity := range seen {
		entities = append(entities, entity)
	}
	sort.Strings(entities)
	return entities, nil
}

func sortEvents(events []*domain.Event) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].EntityID != events[j].EntityID {
			return events[i].EntityID < events[j].EntityID
		}
		if events[i].OccurredAt != events[j].OccurredAt {
			return events[i].OccurredAt < events[j].OccurredAt
		}
		return events[i].Seq < events[j].Seq
	})
}
