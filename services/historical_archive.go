package services

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stockdata-backend/models"
)

// HistoricalArchive is the durable, append-only tier of daily bars in
// Postgres. It is only consulted for long lookbacks after the cache and the
// live provider both came up short, and is refreshed out-of-band by the
// nightly scheduler job.
type HistoricalArchive struct {
	db *gorm.DB
}

// NewHistoricalArchive creates the archive on an existing gorm connection
func NewHistoricalArchive(db *gorm.DB) *HistoricalArchive {
	return &HistoricalArchive{db: db}
}

// QueryDaily returns up to `period` of the most recent archived daily bars,
// ascending by date.
func (a *HistoricalArchive) QueryDaily(ticker string, period int) ([]models.Candle, error) {
	var bars []models.StockDailyBar
	err := a.db.Where("ticker = ?", ticker).
		Order("date DESC").
		Limit(period).
		Find(&bars).Error
	if err != nil {
		return nil, fmt.Errorf("archive query for %s failed: %w", ticker, err)
	}

	// Reverse to ascending order
	candles := make([]models.Candle, len(bars))
	for i, bar := range bars {
		candles[len(bars)-1-i] = models.Candle{
			Ticker: bar.Ticker,
			Date:   bar.Date,
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: bar.Volume,
		}
	}
	return candles, nil
}

// UpsertDaily stores daily bars, updating values on (ticker, date) conflicts.
// The instrument row is created lazily on first reference.
func (a *HistoricalArchive) UpsertDaily(ticker string, candles []models.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	if err := a.ensureStockMaster(ticker); err != nil {
		return err
	}

	bars := make([]models.StockDailyBar, 0, len(candles))
	for _, c := range candles {
		if c.Date == "" {
			continue
		}
		bars = append(bars, models.StockDailyBar{
			Ticker: ticker,
			Date:   c.Date,
			Open:   c.Open,
			High:   c.High,
			Low:    c.Low,
			Close:  c.Close,
			Volume: c.Volume,
		})
	}

	err := a.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ticker"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume"}),
	}).CreateInBatches(bars, 200).Error
	if err != nil {
		return fmt.Errorf("archive upsert for %s failed: %w", ticker, err)
	}
	return nil
}

// BarCount returns how many daily bars are archived for a ticker
func (a *HistoricalArchive) BarCount(ticker string) (int64, error) {
	var count int64
	err := a.db.Model(&models.StockDailyBar{}).Where("ticker = ?", ticker).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("archive count for %s failed: %w", ticker, err)
	}
	return count, nil
}

func (a *HistoricalArchive) ensureStockMaster(ticker string) error {
	master := models.StockMaster{Ticker: ticker, Name: DisplayName(ticker)}
	err := a.db.Where(models.StockMaster{Ticker: ticker}).FirstOrCreate(&master).Error
	if err != nil {
		return fmt.Errorf("stock master lookup for %s failed: %w", ticker, err)
	}
	return nil
}
