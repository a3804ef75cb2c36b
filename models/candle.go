package models

import (
	"github.com/shopspring/decimal"
)

// Chart resolutions supported by the candle cache and chart service.
const (
	ResolutionDaily  = "daily"
	ResolutionWeekly = "weekly"
)

// Candle represents one OHLCV bucket for a ticker.
// Date is YYYYMMDD for daily candles and the ISO week start date for weekly ones.
type Candle struct {
	Ticker string `json:"ticker"`
	Date   string `json:"date"`
	Time   string `json:"time,omitempty"`
	Open   int    `json:"open"`
	High   int    `json:"high"`
	Low    int    `json:"low"`
	Close  int    `json:"close"`
	Volume int64  `json:"volume"`
}

// StockInfo is the quote/fundamental summary returned by the info endpoint.
type StockInfo struct {
	Ticker        string          `json:"ticker"`
	Name          string          `json:"name"`
	CurrentPrice  int             `json:"current_price"`
	ChangeAmount  int             `json:"change_amount"`
	ChangeRate    float64         `json:"change_rate"`
	OpenPrice     int             `json:"open_price"`
	HighPrice     int             `json:"high_price"`
	LowPrice      int             `json:"low_price"`
	Volume        int64           `json:"volume"`
	TradingValue  decimal.Decimal `json:"trading_value"`
	MarketCap     decimal.Decimal `json:"market_cap"`
	PER           float64         `json:"per"`
	PBR           float64         `json:"pbr"`
	EPS           int             `json:"eps"`
	BPS           int             `json:"bps"`
	Sector        string          `json:"sector"`
	ListingShares int64           `json:"listing_shares"`
}
