package services

import (
	"log"
	"sync"
	"sync/atomic"
)

// SubscriptionRegistry tracks how many viewers are watching each ticker and
// edge-triggers the provider's streaming control: the 0->1 transition starts
// the upstream feed, the drop back to 0 stops it. The local count is the
// source of truth for "should we be streaming" regardless of whether the
// remote call succeeded.
type SubscriptionRegistry struct {
	counts  sync.Map // ticker -> *atomic.Int64
	gateway LiveFeedGateway
}

// NewSubscriptionRegistry creates a registry wired to the provider gateway
func NewSubscriptionRegistry(gateway LiveFeedGateway) *SubscriptionRegistry {
	return &SubscriptionRegistry{gateway: gateway}
}

// Subscribe increments the viewer count for a ticker and returns the new
// count. The first subscriber triggers a best-effort upstream start; its
// failure is logged, not retried and never surfaced to the caller.
func (r *SubscriptionRegistry) Subscribe(ticker string) int64 {
	v, _ := r.counts.LoadOrStore(ticker, &atomic.Int64{})
	count := v.(*atomic.Int64)

	n := count.Add(1)
	if n == 1 {
		log.Printf("First subscriber for %s, starting upstream feed", ticker)
		if err := r.gateway.Start(ticker); err != nil {
			log.Printf("Upstream start for %s failed: %v", ticker, err)
		}
	} else {
		log.Printf("Subscriber added for %s (count=%d)", ticker, n)
	}
	return n
}

// Unsubscribe decrements the viewer count and returns the new count. Reaching
// zero removes the entry (bounding registry memory) and triggers a best-effort
// upstream stop. Unbalanced calls are clamped so the count never goes negative.
func (r *SubscriptionRegistry) Unsubscribe(ticker string) int64 {
	v, ok := r.counts.Load(ticker)
	if !ok {
		log.Printf("Warning: unsubscribe for %s without active subscription", ticker)
		return 0
	}
	count := v.(*atomic.Int64)

	n := count.Add(-1)
	if n < 0 {
		// Double-unsubscribe race; restore and ignore
		count.Add(1)
		log.Printf("Warning: unsubscribe underflow for %s, clamped to zero", ticker)
		return 0
	}
	if n == 0 {
		r.counts.Delete(ticker)
		log.Printf("Last subscriber left %s, stopping upstream feed", ticker)
		if err := r.gateway.Stop(ticker); err != nil {
			log.Printf("Upstream stop for %s failed: %v", ticker, err)
		}
		return 0
	}
	log.Printf("Subscriber removed for %s (count=%d)", ticker, n)
	return n
}

// HasActiveSubscribers reports whether anyone is currently watching a ticker
func (r *SubscriptionRegistry) HasActiveSubscribers(ticker string) bool {
	v, ok := r.counts.Load(ticker)
	if !ok {
		return false
	}
	return v.(*atomic.Int64).Load() > 0
}

// ActiveInstrumentCount returns how many tickers have at least one subscriber
func (r *SubscriptionRegistry) ActiveInstrumentCount() int {
	count := 0
	r.counts.Range(func(_, v interface{}) bool {
		if v.(*atomic.Int64).Load() > 0 {
			count++
		}
		return true
	})
	return count
}
