package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockMaster is the instrument registry. Rows are created lazily the first
// time a ticker is archived and are never deleted.
type StockMaster struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Ticker    string          `gorm:"uniqueIndex;not null;size:10" json:"ticker"`
	Name      string          `json:"name"`
	Market    string          `json:"market"` // KOSPI, KOSDAQ
	Sector    string          `json:"sector"`
	MarketCap decimal.Decimal `gorm:"type:decimal(20,2)" json:"market_cap"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// StockDailyBar is one archived daily OHLCV bar. The archive is append-only
// and queried only as the last resort for long lookbacks.
type StockDailyBar struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Ticker    string    `gorm:"uniqueIndex:idx_ticker_date;index;not null;size:10" json:"ticker"`
	Date      string    `gorm:"uniqueIndex:idx_ticker_date;index;not null;size:8" json:"date"` // YYYYMMDD
	Open      int       `gorm:"not null" json:"open"`
	High      int       `gorm:"not null" json:"high"`
	Low       int       `gorm:"not null" json:"low"`
	Close     int       `gorm:"not null" json:"close"`
	Volume    int64     `gorm:"not null" json:"volume"`
	CreatedAt time.Time `json:"created_at"`
}

// MigrateArchiveModels runs database migrations for archive models
func MigrateArchiveModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&StockMaster{},
		&StockDailyBar{},
	)
}
