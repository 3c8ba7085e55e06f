package memory

import (
	"context"
	"errors"
	"testing"

	"event-analytics-lab/internal/domain"
	"event-analytics-lab/internal/storage"
)

func TestMatchupAggregateStore_InsertBulkAndGet(t *testing.T) {
	store := NewMatchupAggregateStore()
	ctx := context.Background()

	aggs := []*domain.MatchupAggregate{
		{SeriesID: "s", Key: domain.MatchupKey{First: "alice", Second: "bob"}, FirstWins: 3, SecondWins: 1, Total: 4},
		{SeriesID: "s", Key: domain.MatchupKey{First: "carol", Second: "dave"}, FirstWins: 5, SecondWins: 5, Total: 10},
	}
	if err := store.InsertBulk(ctx, aggs); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetBySeries(ctx, "s")
	if err != nil {
		t.Fatalf("GetBySeries failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 aggregates, got %d", len(result))
	}
	if result[0].Key.First != "carol" {
		t.Errorf("Expected highest total first, got %s/%s", result[0].Key.First, result[0].Key.Second)
	}
}

func TestMatchupAggregateStore_DuplicateKey(t *testing.T) {
	store := NewMatchupAggregateStore()
	ctx := context.Background()

	agg := &domain.MatchupAggregate{SeriesID: "s", Key: domain.MatchupKey{First: "alice", Second: "bob"}, Total: 1}
	if err := store.InsertBulk(ctx, []*domain.MatchupAggregate{agg}); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.InsertBulk(ctx, []*domain.MatchupAggregate{agg})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestMatchupAggregateStore_CopyOnRead(t *testing.T) {
	store := NewMatchupAggregateStore()
	ctx := context.Background()

	agg := &domain.MatchupAggregate{SeriesID: "s", Key: domain.MatchupKey{First: "alice", Second: "bob"}, Total: 2}
	if err := store.InsertBulk(ctx, []*domain.MatchupAggregate{agg}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	first, _ := store.GetBySeries(ctx, "s")
	first[0].Total = 999

	second, _ := store.GetBySeries(ctx, "s")
	if second[0].Total != 2 {
		t.Errorf("Store state mutated through returned copy: total=%d", second[0].Total)
	}
}
