package models

// RealtimeSummary is the aggregate per-ticker update pushed by the live-quote
// provider. Summaries are cheap and are always fanned out.
type RealtimeSummary struct {
	Ticker     string  `json:"ticker"`
	StockName  string  `json:"stockName"`
	Price      int     `json:"price"`
	Rate       float64 `json:"rate"`
	Volume     int64   `json:"volume"`
	AskPrices  []int   `json:"askPrices"`
	BidPrices  []int   `json:"bidPrices"`
	AskVolumes []int64 `json:"askVolumes"`
	BidVolumes []int64 `json:"bidVolumes"`
	Timestamp  int64   `json:"timestamp"`
}

// OrderBookDetail is the 10-level quote ladder for a single ticker.
// Only forwarded while the ticker has active subscribers.
type OrderBookDetail struct {
	Ticker     string  `json:"ticker"`
	Price      int     `json:"price"`
	Volume     int64   `json:"volume"`
	AskPrices  []int   `json:"askPrices"`
	BidPrices  []int   `json:"bidPrices"`
	AskVolumes []int64 `json:"askVolumes"`
	BidVolumes []int64 `json:"bidVolumes"`
	Timestamp  int64   `json:"timestamp"`
}

// TradeExecution is a single fill reported by the provider.
type TradeExecution struct {
	Ticker      string  `json:"ticker"`
	Price       int     `json:"price"`
	Volume      int64   `json:"volume"`
	TotalVolume int64   `json:"totalVolume"`
	TradeType   string  `json:"tradeType"` // buy / sell
	Rate        float64 `json:"rate"`
	Time        string  `json:"time"` // HHMMSS
	Timestamp   int64   `json:"timestamp"`
}
