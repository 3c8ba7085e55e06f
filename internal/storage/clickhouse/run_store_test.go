package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-analytics-lab/internal/domain"
	"event-analytics-lab/internal/storage"
)

func TestRunStore_InsertBulkAndGetBySeries(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunStore(conn)

	runs := []*domain.Run{
		{SeriesID: "chess", EntityID: "bob", Category: "loss", Length: 1, StartMs: 3000, EndMs: 3000},
		{SeriesID: "chess", EntityID: "alice", Category: "win", Length: 3, StartMs: 1000, EndMs: 3000},
		{SeriesID: "chess", EntityID: "alice", Category: "loss", Length: 2, StartMs: 4000, EndMs: 5000},
	}

	err := store.InsertBulk(ctx, runs)
	require.NoError(t, err)

	result, err := store.GetBySeries(ctx, "chess")
	require.NoError(t, err)

	require.Len(t, result, 3)
	// Ordered by (entity_id, start_ms)
	assert.Equal(t, "alice", result[0].EntityID)
	assert.Equal(t, int64(1000), result[0].StartMs)
	assert.Equal(t, 3, result[0].Length)
	assert.Equal(t, "alice", result[1].EntityID)
	assert.Equal(t, int64(4000), result[1].StartMs)
	assert.Equal(t, "bob", result[2].EntityID)
}

func TestRunStore_InsertBulkIntraBatchDuplicate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunStore(conn)

	run := domain.Run{SeriesID: "s", EntityID: "e", Category: "win", Length: 2, StartMs: 1000, EndMs: 2000}

	err := store.InsertBulk(ctx, []*domain.Run{&run, &run})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Nothing should be written
	result, err := store.GetBySeries(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestRunStore_InsertBulkExistingDuplicate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunStore(conn)

	run := &domain.Run{SeriesID: "s", EntityID: "e", Category: "win", Length: 2, StartMs: 1000, EndMs: 2000}

	err := store.InsertBulk(ctx, []*domain.Run{run})
	require.NoError(t, err)

	err = store.InsertBulk(ctx, []*domain.Run{run})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestRunStore_GetByEntity(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunStore(conn)

	runs := []*domain.Run{
		{SeriesID: "s", EntityID: "alice", Category: "win", Length: 2, StartMs: 1000, EndMs: 2000},
		{SeriesID: "s", EntityID: "bob", Category: "win", Length: 1, StartMs: 1000, EndMs: 1000},
		{SeriesID: "s", EntityID: "alice", Category: "loss", Length: 1, StartMs: 3000, EndMs: 3000},
	}

	err := store.InsertBulk(ctx, runs)
	require.NoError(t, err)

	result, err := store.GetByEntity(ctx, "s", "alice")
	require.NoError(t, err)

	require.Len(t, result, 2)
	assert.Equal(t, int64(1000), result[0].StartMs)
	assert.Equal(t, int64(3000), result[1].StartMs)
}

func TestRunStore_InsertBulkEmpty(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunStore(conn)

	err := store.InsertBulk(ctx, []*domain.Run{})
	require.NoError(t, err)
}
