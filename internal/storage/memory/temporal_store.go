package memory

import (
	"context"
	"sort"
	"sync"

	"event-analytics-lab/internal/domain"
	"event-analytics-lab/internal/storage"
)

// TemporalPointStore is an in-memory implementation of storage.TemporalPointStore.
type TemporalPointStore struct {
	mu   sync.RWMutex
	data map[[2]string]*domain.TemporalPoint // keyed by (series_id, period)
}

// NewTemporalPointStore creates a new in-memory temporal point store.
func NewTemporalPointStore() *TemporalPointStore {
	return &TemporalPointStore{data: make(map[[2]string]*domain.TemporalPoint)}
}

var _ storage.TemporalPointStore = (*TemporalPointStore)(nil)

// InsertBulk adds multiple points. Fails the entire batch on duplicate (series_id, period).
func (s *TemporalPointStore) InsertBulk(_ context.Context, points []*domain.TemporalPoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[[2]string]struct{}, len(points))
	for _, p := range points {
		if p == nil || p.SeriesID == "" || p.Period == "" {
			return storage.ErrInvalidInput
		}
		key := [2]string{p.SeriesID, p.Period}
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, p := range points {
		pointCopy := *p
		s.data[[2]string{p.SeriesID, p.Period}] = &pointCopy
	}
	return nil
}

// GetBySeries retrieves all points of a series, ordered by period ASC.
func (s *TemporalPointStore) GetBySeries(_ context.Context, seriesID string) ([]*domain.TemporalPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TemporalPoint
	for _, p := range s.data {
		if p.SeriesID == seriesID {
			pointCopy := *p
			result = append(result, &pointCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Period < result[j].Period
	})
	return result, nil
}
