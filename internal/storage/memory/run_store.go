package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"event-analytics-lab/internal/domain"
	"event-analytics-lab/internal/storage"
)

// RunStore is an in-memory implementation of storage.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Run // keyed by (series_id, entity_id, category, start_ms)
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{data: make(map[string]*domain.Run)}
}

var _ storage.RunStore = (*RunStore)(nil)

func runKey(r *domain.Run) string {
	return fmt.Sprintf("%s|%s|%s|%d", r.SeriesID, r.EntityID, r.Category, r.StartMs)
}

// InsertBulk adds multiple runs. Fails the entire batch on duplicate.
func (s *RunStore) InsertBulk(_ context.Context, runs []*domain.Run) error {
	if len(runs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(runs))
	for _, r := range runs {
		if r == nil || r.SeriesID == "" || r.EntityID == "" || r.Length < 1 {
			return storage.ErrInvalidInput
		}
		key := runKey(r)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, r := range runs {
		runCopy := *r
		s.data[runKey(r)] = &runCopy
	}
	return nil
}

// GetBySeries retrieves all runs of a series, ordered by (entity_id, start_ms) ASC.
func (s *RunStore) GetBySeries(_ context.Context, seriesID string) ([]*domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Run
	for _, r := range s.data {
		if r.SeriesID == seriesID {
			runCopy := *r
			result = append(result, &runCopy)
		}
	}
	sortRuns(result)
	return result, nil
}

// GetByEntity retrieves one entity's runs, ordered by start_ms ASC.
func (s *RunStore) GetByEntity(_ context.Context, seriesID, entityID string) ([]*domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Run
	for _, r := range s.data {
		if r.SeriesID == seriesID && r.EntityID == entityID {
			runCopy := *r
			result = append(result, &runCopy)
		}
	}
	sortRuns(result)
	return result, nil
}

func sortRuns(runs []*domain.Run) {
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].EntityID != runs[j].EntityID {
			return runs[i].EntityID < runs[j].EntityID
		}
		if runs[i].StartMs != runs[j].StartMs {
			return runs[i].StartMs < runs[j].StartMs
		}
		return runs[i].Category < runs[j].Category
	})
}
