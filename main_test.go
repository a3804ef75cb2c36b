package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockdata-backend/models"
	"stockdata-backend/services"
)

func TestBackendsCloseSeesLateInit(t *testing.T) {
	var b backends

	hub := services.NewHub()
	ticks, err := services.NewTickStore(filepath.Join(t.TempDir(), "ticks.db"))
	require.NoError(t, err)

	// Backends come up after the struct is already in the shutdown path's
	// hands; close must still reach them
	b.set(nil, hub, nil, ticks)
	b.close()

	err = ticks.InsertExecution(models.TradeExecution{Ticker: "005930", Price: 71000, Volume: 1})
	assert.Error(t, err, "tick store must be closed after shutdown")
	assert.Zero(t, hub.ClientCount())
}

func TestBackendsCloseBeforeInit(t *testing.T) {
	var b backends

	// Shutdown can fire before background init assigns anything
	assert.NotPanics(t, func() { b.close() })
}
