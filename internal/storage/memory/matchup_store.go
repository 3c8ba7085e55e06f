package memory

import (
	"context"
	"sort"
	"sync"

	"event-analytics-lab/internal/domain"
	"event-analytics-lab/internal/storage"
)

// MatchupAggregateStore is an in-memory implementation of storage.MatchupAggregateStore.
type MatchupAggregateStore struct {
	mu   sync.RWMutex
	data map[[3]string]*domain.MatchupAggregate // keyed by (series_id, first, second)
}

// NewMatchupAggregateStore creates a new in-memory matchup aggregate store.
func NewMatchupAggregateStore() *MatchupAggregateStore {
	return &MatchupAggregateStore{data: make(map[[3]string]*domain.MatchupAggregate)}
}

var _ storage.MatchupAggregateStore = (*MatchupAggregateStore)(nil)

// InsertBulk adds multiple aggregates. Fails the entire batch on duplicate.
func (s *MatchupAggregateStore) InsertBulk(_ context.Context, aggs []*domain.MatchupAggregate) error {
	if len(aggs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[[3]string]struct{}, len(aggs))
	for _, a := range aggs {
		if a == nil || a.SeriesID == "" || a.Key.First == "" || a.Key.Second == "" || a.Total < 1 {
			return storage.ErrInvalidInput
		}
		key := [3]string{a.SeriesID, a.Key.First, a.Key.Second}
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, a := range aggs {
		aggCopy := *a
		s.data[[3]string{a.SeriesID, a.Key.First, a.Key.Second}] = &aggCopy
	}
	return nil
}

// GetBySeries retrieves all aggregates of a series, ordered by total DESC, then key ASC.
func (s *MatchupAggregateStore) GetBySeries(_ context.Context, seriesID string) ([]*domain.MatchupAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MatchupAggregate
	for _, a := range s.data {
		if a.SeriesID == seriesID {
			aggCopy := *a
			result = append(result, &aggCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Total != result[j].Total {
			return result[i].Total > result[j].Total
		}
		return result[i].Key.Less(result[j].Key)
	})
	return result, nil
}
