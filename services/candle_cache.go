package services

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"stockdata-backend/models"
)

// Cache key prefixes and bounds
const (
	DailyChartPrefix  = "stock:daily:"
	WeeklyChartPrefix = "stock:weekly:"
	StockInfoPrefix   = "stock:info:"

	// Series are bounded to ~3 years per resolution
	DailyHorizon  = 1095
	WeeklyHorizon = 156

	HistoricalDataTTL = 7 * 24 * time.Hour
	StockInfoTTL      = 24 * time.Hour

	cacheOpTimeout = 3 * time.Second
)

// Sufficiency reports whether a cached series covering `have` buckets is good
// enough for a request of `want` buckets. Cached data is accepted once it
// covers at least 80% of the requested horizon, trading marginal gaps for one
// fewer upstream round trip.
func Sufficiency(have, want int) bool {
	if want <= 0 {
		return true
	}
	minimum := int(math.Ceil(float64(want) * 0.8))
	return have >= minimum
}

// MergeCandles unions two series keyed by date. Entries from `incoming` win on
// date conflicts. The result is ascending by date with no duplicates.
func MergeCandles(existing, incoming []models.Candle) []models.Candle {
	merged := make(map[string]models.Candle, len(existing)+len(incoming))
	for _, c := range existing {
		merged[c.Date] = c
	}
	for _, c := range incoming {
		merged[c.Date] = c
	}

	result := make([]models.Candle, 0, len(merged))
	for _, c := range merged {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date < result[j].Date
	})
	return result
}

// tailCandles returns the most recent n entries of an ascending series.
func tailCandles(series []models.Candle, n int) []models.Candle {
	if n >= len(series) {
		return series
	}
	return series[len(series)-n:]
}

// CandleCache is the Redis-backed hot tier for OHLCV series. Entries expire
// passively via TTL; there is no eviction sweep. A partial series is a valid
// state, not an error.
type CandleCache struct {
	rdb       *redis.Client
	seriesTTL time.Duration
	infoTTL   time.Duration
}

// NewCandleCache creates a candle cache on top of an existing Redis client
func NewCandleCache(rdb *redis.Client) *CandleCache {
	return &CandleCache{
		rdb:       rdb,
		seriesTTL: HistoricalDataTTL,
		infoTTL:   StockInfoTTL,
	}
}

func seriesKey(ticker, resolution string) string {
	if resolution == models.ResolutionWeekly {
		return WeeklyChartPrefix + ticker
	}
	return DailyChartPrefix + ticker
}

func horizonFor(resolution string) int {
	if resolution == models.ResolutionWeekly {
		return WeeklyHorizon
	}
	return DailyHorizon
}

// Get returns the most recent `period` candles for a ticker, ascending by
// date. Best effort: cache misses and backend errors come back as an empty
// series.
func (c *CandleCache) Get(ticker, resolution string, period int) []models.Candle {
	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()

	data, err := c.rdb.Get(ctx, seriesKey(ticker, resolution)).Bytes()
	if err == redis.Nil {
		return []models.Candle{}
	}
	if err != nil {
		log.Printf("Cache read failed for %s %s: %v", ticker, resolution, err)
		return []models.Candle{}
	}

	var series []models.Candle
	if err := json.Unmarshal(data, &series); err != nil {
		log.Printf("Cache entry for %s %s is corrupt, ignoring: %v", ticker, resolution, err)
		return []models.Candle{}
	}

	sort.Slice(series, func(i, j int) bool {
		return series[i].Date < series[j].Date
	})
	return tailCandles(series, period)
}

// Merge unions new candles into the stored series (read-modify-write,
// last-write-wins per date), re-sorts, bounds the series to its horizon and
// stores it back with a refreshed TTL. Two concurrent merges for the same key
// can lose one update; callers serialize per ticker where that matters.
func (c *CandleCache) Merge(ticker, resolution string, newCandles []models.Candle) {
	if len(newCandles) == 0 {
		return
	}

	horizon := horizonFor(resolution)
	existing := c.Get(ticker, resolution, horizon)
	merged := MergeCandles(existing, newCandles)
	merged = tailCandles(merged, horizon)

	data, err := json.Marshal(merged)
	if err != nil {
		log.Printf("Failed to marshal %s %s series: %v", ticker, resolution, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()

	if err := c.rdb.Set(ctx, seriesKey(ticker, resolution), data, c.seriesTTL).Err(); err != nil {
		log.Printf("Cache write failed for %s %s: %v", ticker, resolution, err)
		return
	}
	log.Printf("Merged %d %s candles for %s (total %d)", len(newCandles), resolution, ticker, len(merged))
}

// HasCached reports whether any series is stored for the ticker/resolution
func (c *CandleCache) HasCached(ticker, resolution string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()

	n, err := c.rdb.Exists(ctx, seriesKey(ticker, resolution)).Result()
	if err != nil {
		log.Printf("Cache exists check failed for %s %s: %v", ticker, resolution, err)
		return false
	}
	return n > 0
}

// GetInfo returns a cached stock info entry, or nil when absent
func (c *CandleCache) GetInfo(ticker string) *models.StockInfo {
	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()

	data, err := c.rdb.Get(ctx, StockInfoPrefix+ticker).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("Info cache read failed for %s: %v", ticker, err)
		}
		return nil
	}

	var info models.StockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		log.Printf("Info cache entry for %s is corrupt, ignoring: %v", ticker, err)
		return nil
	}
	return &info
}

// PutInfo stores a stock info entry with the short info TTL
func (c *CandleCache) PutInfo(info *models.StockInfo) {
	if info == nil || info.Ticker == "" {
		return
	}

	data, err := json.Marshal(info)
	if err != nil {
		log.Printf("Failed to marshal info for %s: %v", info.Ticker, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()

	if err := c.rdb.Set(ctx, StockInfoPrefix+info.Ticker, data, c.infoTTL).Err(); err != nil {
		log.Printf("Info cache write failed for %s: %v", info.Ticker, err)
	}
}

// Stats returns key counts per cache prefix for the introspection endpoint
func (c *CandleCache) Stats() map[string]interface{} {
	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()

	dailyCount := c.countKeys(ctx, DailyChartPrefix+"*")
	weeklyCount := c.countKeys(ctx, WeeklyChartPrefix+"*")
	infoCount := c.countKeys(ctx, StockInfoPrefix+"*")

	return map[string]interface{}{
		"daily_series_count":  dailyCount,
		"weekly_series_count": weeklyCount,
		"stock_info_count":    infoCount,
		"total_keys":          dailyCount + weeklyCount + infoCount,
	}
}

func (c *CandleCache) countKeys(ctx context.Context, pattern string) int {
	var count int
	iter := c.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		log.Printf("Cache key scan failed for %s: %v", pattern, err)
	}
	return count
}
