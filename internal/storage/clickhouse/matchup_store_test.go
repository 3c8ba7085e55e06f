package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-analytics-lab/internal/domain"
	"event-analytics-lab/internal/storage"
)

func TestMatchupAggregateStore_InsertBulkAndGetBySeries(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewMatchupAggregateStore(conn)

	aggs := []*domain.MatchupAggregate{
		{
			SeriesID:  "chess",
			Key:       domain.MatchupKey{First: "alice", Second: "bob"},
			FirstWins: 3, SecondWins: 1, Draws: 1, Total: 5,
		},
		{
			SeriesID:  "chess",
			Key:       domain.MatchupKey{First: "carol", Second: "dave"},
			FirstWins: 6, SecondWins: 4, Draws: 2, Total: 12,
		},
	}

	err := store.InsertBulk(ctx, aggs)
	require.NoError(t, err)

	result, err := store.GetBySeries(ctx, "chess")
	require.NoError(t, err)

	require.Len(t, result, 2)
	// Ordered by total DESC
	assert.Equal(t, "carol", result[0].Key.First)
	assert.Equal(t, 12, result[0].Total)
	assert.Equal(t, "alice", result[1].Key.First)
	assert.Equal(t, 3, result[1].FirstWins)
	assert.Equal(t, 1, result[1].SecondWins)
	assert.Equal(t, 1, result[1].Draws)
}

func TestMatchupAggregateStore_DuplicatePair(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewMatchupAggregateStore(conn)

	agg := &domain.MatchupAggregate{
		SeriesID: "s",
		Key:      domain.MatchupKey{First: "alice", Second: "bob"},
		Total:    1,
	}

	err := store.InsertBulk(ctx, []*domain.MatchupAggregate{agg})
	require.NoError(t, err)

	err = store.InsertBulk(ctx, []*domain.MatchupAggregate{agg})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestMatchupAggregateStore_TieBrokenByKey(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewMatchupAggregateStore(conn)

	aggs := []*domain.MatchupAggregate{
		{SeriesID: "s", Key: domain.MatchupKey{First: "carol", Second: "dave"}, Total: 5},
		{SeriesID: "s", Key: domain.MatchupKey{First: "alice", Second: "bob"}, Total: 5},
	}

	err := store.InsertBulk(ctx, aggs)
	require.NoError(t, err)

	result, err := store.GetBySeries(ctx, "s")
	require.NoError(t, err)

	require.Len(t, result, 2)
	assert.Equal(t, "alice", result[0].Key.First)
	assert.Equal(t, "carol", result[1].Key.First)
}
