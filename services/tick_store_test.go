package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockdata-backend/models"
)

func newTestTickStore(t *testing.T) *TickStore {
	t.Helper()
	store, err := NewTickStore(filepath.Join(t.TempDir(), "ticks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestTickStoreInsertAndQuery(t *testing.T) {
	store := newTestTickStore(t)

	ticks := []models.TradeExecution{
		{Ticker: "005930", Price: 71000, Volume: 10, TotalVolume: 100, TradeType: "buy", Rate: 0.5, Time: "093001", Timestamp: 1},
		{Ticker: "005930", Price: 71100, Volume: 5, TotalVolume: 105, TradeType: "sell", Rate: 0.6, Time: "093002", Timestamp: 2},
		{Ticker: "000660", Price: 180000, Volume: 2, TotalVolume: 50, TradeType: "buy", Rate: 1.1, Time: "093003", Timestamp: 3},
	}
	for _, tick := range ticks {
		require.NoError(t, store.InsertExecution(tick))
	}

	got, err := store.RecentTicks("005930", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Newest first
	assert.Equal(t, 71100, got[0].Price)
	assert.Equal(t, "sell", got[0].TradeType)
	assert.Equal(t, 71000, got[1].Price)
}

func TestTickStoreLimit(t *testing.T) {
	store := newTestTickStore(t)

	for i := 0; i < 10; i++ {
		require.NoError(t, store.InsertExecution(models.TradeExecution{
			Ticker: "005930", Price: 71000 + i, Volume: 1, Timestamp: int64(i),
		}))
	}

	got, err := store.RecentTicks("005930", 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, 71009, got[0].Price)
}

func TestTickStoreUnknownTicker(t *testing.T) {
	store := newTestTickStore(t)

	got, err := store.RecentTicks("035420", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTickStorePrune(t *testing.T) {
	store := newTestTickStore(t)

	require.NoError(t, store.InsertExecution(models.TradeExecution{Ticker: "005930", Price: 71000, Volume: 1}))

	// Everything was just inserted, so an old cutoff removes nothing
	removed, err := store.PruneOlderThan(time.Now().AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Zero(t, removed)

	// A future cutoff removes the lot
	removed, err = store.PruneOlderThan(time.Now().AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)
}
