package services

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"stockdata-backend/models"
)

// countingGateway records Start/Stop calls
type countingGateway struct {
	starts atomic.Int64
	stops  atomic.Int64
}

func (g *countingGateway) Start(ticker string) error { g.starts.Add(1); return nil }
func (g *countingGateway) Stop(ticker string) error  { g.stops.Add(1); return nil }
func (g *countingGateway) Fetch(ticker, resolution string, period int) ([]models.Candle, error) {
	return nil, nil
}
func (g *countingGateway) FetchInfo(ticker string) (*models.StockInfo, error) { return nil, nil }

func TestSubscribeStartsFeedOnce(t *testing.T) {
	gateway := &countingGateway{}
	registry := NewSubscriptionRegistry(gateway)

	assert.EqualValues(t, 1, registry.Subscribe("005930"))
	assert.EqualValues(t, 2, registry.Subscribe("005930"))
	assert.EqualValues(t, 3, registry.Subscribe("005930"))

	assert.EqualValues(t, 1, gateway.starts.Load(), "only the 0->1 transition starts the feed")
	assert.True(t, registry.HasActiveSubscribers("005930"))
}

func TestUnsubscribeStopsFeedOnLastViewer(t *testing.T) {
	gateway := &countingGateway{}
	registry := NewSubscriptionRegistry(gateway)

	registry.Subscribe("005930")
	registry.Subscribe("005930")

	assert.EqualValues(t, 1, registry.Unsubscribe("005930"))
	assert.EqualValues(t, 0, gateway.stops.Load())

	assert.EqualValues(t, 0, registry.Unsubscribe("005930"))
	assert.EqualValues(t, 1, gateway.stops.Load(), "only the drop to 0 stops the feed")
	assert.False(t, registry.HasActiveSubscribers("005930"))
}

func TestUnsubscribeWithoutSubscription(t *testing.T) {
	gateway := &countingGateway{}
	registry := NewSubscriptionRegistry(gateway)

	assert.EqualValues(t, 0, registry.Unsubscribe("005930"))
	assert.EqualValues(t, 0, gateway.stops.Load())
}

func TestUnsubscribeUnderflowClamped(t *testing.T) {
	gateway := &countingGateway{}
	registry := NewSubscriptionRegistry(gateway)

	registry.Subscribe("005930")
	registry.Unsubscribe("005930")

	// Entry is gone after reaching zero; further calls are no-ops
	registry.Unsubscribe("005930")
	registry.Unsubscribe("005930")

	assert.EqualValues(t, 1, gateway.stops.Load())

	// Resubscribing starts a fresh feed
	registry.Subscribe("005930")
	assert.EqualValues(t, 2, gateway.starts.Load())
	assert.True(t, registry.HasActiveSubscribers("005930"))
}

func TestActiveInstrumentCount(t *testing.T) {
	gateway := &countingGateway{}
	registry := NewSubscriptionRegistry(gateway)

	registry.Subscribe("005930")
	registry.Subscribe("005930")
	registry.Subscribe("000660")

	assert.Equal(t, 2, registry.ActiveInstrumentCount())

	registry.Unsubscribe("000660")
	assert.Equal(t, 1, registry.ActiveInstrumentCount())
}

func TestSubscribeConcurrent(t *testing.T) {
	gateway := &countingGateway{}
	registry := NewSubscriptionRegistry(gateway)

	const viewers = 50
	var wg sync.WaitGroup
	for i := 0; i < viewers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			registry.Subscribe("005930")
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, gateway.starts.Load(), "concurrent subscribes must start the feed exactly once")
	assert.True(t, registry.HasActiveSubscribers("005930"))

	for i := 0; i < viewers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			registry.Unsubscribe("005930")
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, gateway.stops.Load())
	assert.False(t, registry.HasActiveSubscribers("005930"))
}
