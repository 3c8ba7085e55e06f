package memory

import (
	"context"
	"errors"
	"testing"

	"event-analytics-lab/internal/domain"
	"event-analytics-lab/internal/storage"
)

func TestEventStore_InsertBulkAndGet(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	events := []*domain.Event{
		{SeriesID: "s", EntityID: "b", OccurredAt: 1000, Seq: 0, Category: "win"},
		{SeriesID: "s", EntityID: "a", OccurredAt: 2000, Seq: 1, Category: "loss"},
		{SeriesID: "s", EntityID: "a", OccurredAt: 1000, Seq: 2, Category: "win"},
	}
	if err := store.InsertBulk(ctx, events); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetBySeries(ctx, "s")
	if err != nil {
		t.Fatalf("GetBySeries failed: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(result))
	}
	// Grouped by entity, then by time.
	if result[0].EntityID != "a" || result[0].OccurredAt != 1000 {
		t.Errorf("Expected (a, 1000) first, got (%s, %d)", result[0].EntityID, result[0].OccurredAt)
	}
	if result[2].EntityID != "b" {
		t.Errorf("Expected entity b last, got %s", result[2].EntityID)
	}
}

func TestEventStore_Insert(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	event := &domain.Event{SeriesID: "s", EntityID: "a", OccurredAt: 1000, Seq: 0, Category: "win"}
	if err := store.Insert(ctx, event); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	err := store.Insert(ctx, event)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey on re-insert, got %v", err)
	}

	result, err := store.GetByEntity(ctx, "s", "a")
	if err != nil {
		t.Fatalf("GetByEntity failed: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(result))
	}
}

func TestEventStore_DuplicateKey(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	event := &domain.Event{SeriesID: "s", EntityID: "a", OccurredAt: 1000, Seq: 0}
	if err := store.InsertBulk(ctx, []*domain.Event{event}); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.InsertBulk(ctx, []*domain.Event{event})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestEventStore_IntraBatchDuplicateAborts(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	event := &domain.Event{SeriesID: "s", EntityID: "a", OccurredAt: 1000, Seq: 0}
	dup := *event

	err := store.InsertBulk(ctx, []*domain.Event{event, &dup})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}

	// No partial write.
	result, err := store.GetBySeries(ctx, "s")
	if err != nil {
		t.Fatalf("GetBySeries failed: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("Expected empty store after aborted batch, got %d events", len(result))
	}
}

func TestEventStore_GetByEntity(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	events := []*domain.Event{
		{SeriesID: "s", EntityID: "a", OccurredAt: 1000, Seq: 0},
		{SeriesID: "s", EntityID: "b", OccurredAt: 1000, Seq: 1},
	}
	if err := store.InsertBulk(ctx, events); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByEntity(ctx, "s", "a")
	if err != nil {
		t.Fatalf("GetByEntity failed: %v", err)
	}
	if len(result) != 1 || result[0].EntityID != "a" {
		t.Errorf("Expected only entity a, got %+v", result)
	}
}

func TestEventStore_GetByTimeRange(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	events := []*domain.Event{
		{SeriesID: "s", EntityID: "a", OccurredAt: 1000, Seq: 0},
		{SeriesID: "s", EntityID: "a", OccurredAt: 2000, Seq: 1},
		{SeriesID: "s", EntityID: "a", OccurredAt: 3000, Seq: 2},
	}
	if err := store.InsertBulk(ctx, events); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByTimeRange(ctx, "s", 1000, 2000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(result) != 2 {
		t.Errorf("Expected 2 events in inclusive range, got %d", len(result))
	}
}

func TestEventStore_ListEntities(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	events := []*domain.Event{
		{SeriesID: "s", EntityID: "b", OccurredAt: 1000, Seq: 0},
		{SeriesID: "s", EntityID: "a", OccurredAt: 1000, Seq: 1},
		{SeriesID: "s", EntityID: "a", OccurredAt: 2000, Seq: 2},
		{SeriesID: "other", EntityID: "c", OccurredAt: 1000, Seq: 3},
	}
	if err := store.InsertBulk(ctx, events); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	entities, err := store.ListEntities(ctx, "s")
	if err != nil {
		t.Fatalf("ListEntities failed: %v", err)
	}
	if len(entities) != 2 || entities[0] != "a" || entities[1] != "b" {
		t.Errorf("Expected [a b], got %v", entities)
	}
}

func TestEventStore_InvalidInput(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.Event{{SeriesID: "", EntityID: "a"}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
