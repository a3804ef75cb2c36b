package services

import (
	"log"

	"stockdata-backend/models"
)

// Topic scheme: one topic per instrument per event kind, so viewers only
// receive data for instruments they asked about.
const SummaryTopic = "stock/summary"

// TickerTopic is the quote-ladder topic for one instrument
func TickerTopic(ticker string) string {
	return "stock/" + ticker
}

// ExecutionTopic is the trade-execution topic for one instrument
func ExecutionTopic(ticker string) string {
	return "stock/" + ticker + "/execution"
}

// publisher is the transport the broadcaster fans out on; the websocket hub
// implements it, tests swap it out.
type publisher interface {
	Publish(topic, msgType string, data interface{})
}

// Broadcaster routes inbound live events to per-instrument topics. Detail and
// execution events are gated on the subscription registry so that ladders and
// fills for unwatched tickers are dropped before any fan-out work happens;
// aggregate summaries are cheap and always published.
type Broadcaster struct {
	registry *SubscriptionRegistry
	pub      publisher
}

// NewBroadcaster creates a broadcaster on top of a registry and a transport
func NewBroadcaster(registry *SubscriptionRegistry, pub publisher) *Broadcaster {
	return &Broadcaster{registry: registry, pub: pub}
}

// PublishSummary fans out an aggregate summary update
func (b *Broadcaster) PublishSummary(dto models.RealtimeSummary) {
	b.pub.Publish(SummaryTopic, "summary", dto)
}

// PublishDetail fans out a quote ladder, or drops it when nobody is watching.
// Returns whether the event was published.
func (b *Broadcaster) PublishDetail(dto models.OrderBookDetail) bool {
	if !b.registry.HasActiveSubscribers(dto.Ticker) {
		log.Printf("Dropping detail event for %s: no active subscribers", dto.Ticker)
		return false
	}
	b.pub.Publish(TickerTopic(dto.Ticker), "detail", dto)
	return true
}

// PublishExecution fans out a trade execution, or drops it when nobody is
// watching. Returns whether the event was published.
func (b *Broadcaster) PublishExecution(dto models.TradeExecution) bool {
	if !b.registry.HasActiveSubscribers(dto.Ticker) {
		log.Printf("Dropping execution event for %s: no active subscribers", dto.Ticker)
		return false
	}
	b.pub.Publish(ExecutionTopic(dto.Ticker), "execution", dto)
	return true
}
