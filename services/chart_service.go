package services

import (
	"log"
	"sync"
	"time"

	"stockdata-backend/models"
)

// Chart read-path bounds
const (
	// MaxFetchPeriod caps a single upstream historical fetch
	MaxFetchPeriod = 2000
	// LongRangeThreshold is the minimum period (days) before the durable
	// archive is consulted as the last tier
	LongRangeThreshold = 365
	// MaxWeeklyFetchDays bounds the day window when fetching weekly candles
	MaxWeeklyFetchDays = 365

	infoFetchAttempts = 3
	infoRetryBackoff  = 2 * time.Second
)

// WeeklyFetchableBuckets is the most weekly candles a single provider fetch
// can return, since the weekly fetch window is capped at MaxWeeklyFetchDays.
const WeeklyFetchableBuckets = MaxWeeklyFetchDays / 7

// weeklyCoverageTarget bounds the sufficiency target for weekly series to
// what one fetch can actually deliver. Without the bound a fully fetched
// weekly series would be treated as a perpetual miss for long periods and
// every request would shell out to the provider again.
func weeklyCoverageTarget(period int) int {
	if period > WeeklyFetchableBuckets {
		return WeeklyFetchableBuckets
	}
	return period
}

// candleCache is the hot-tier surface the chart service needs
type candleCache interface {
	Get(ticker, resolution string, period int) []models.Candle
	Merge(ticker, resolution string, candles []models.Candle)
	GetInfo(ticker string) *models.StockInfo
	PutInfo(info *models.StockInfo)
}

// archiveStore is the durable last-resort tier for long lookbacks
type archiveStore interface {
	QueryDaily(ticker string, period int) ([]models.Candle, error)
}

// ChartService serves OHLCV history through the tiered read path:
// candle cache -> live provider fetch -> durable archive. Every tier is best
// effort; callers receive an empty series when all tiers come up empty, never
// an error.
type ChartService struct {
	cache       candleCache
	gateway     LiveFeedGateway
	archive     archiveStore // nil when the archive database is unavailable
	infoBackoff time.Duration

	mu         sync.Mutex
	fetchLocks map[string]*sync.Mutex
}

// NewChartService creates a chart service. archive may be nil; the long-range
// tier is then skipped.
func NewChartService(cache candleCache, gateway LiveFeedGateway, archive archiveStore) *ChartService {
	return &ChartService{
		cache:       cache,
		gateway:     gateway,
		archive:     archive,
		infoBackoff: infoRetryBackoff,
		fetchLocks:  make(map[string]*sync.Mutex),
	}
}

// tickerLock serializes upstream fetches per ticker so concurrent chart
// requests do not stampede the provider or race each other's cache merge.
func (s *ChartService) tickerLock(ticker string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.fetchLocks[ticker]
	if !ok {
		lock = &sync.Mutex{}
		s.fetchLocks[ticker] = lock
	}
	return lock
}

func clampPeriod(period int) int {
	if period < 1 {
		return 1
	}
	if period > MaxFetchPeriod {
		return MaxFetchPeriod
	}
	return period
}

// GetDailyChart returns up to `period` daily candles, ascending by date
func (s *ChartService) GetDailyChart(ticker string, period int) []models.Candle {
	period = clampPeriod(period)

	cached := s.cache.Get(ticker, models.ResolutionDaily, period)
	if Sufficiency(len(cached), period) {
		return tailCandles(cached, period)
	}

	lock := s.tickerLock(ticker)
	lock.Lock()
	defer lock.Unlock()

	fetched, err := s.gateway.Fetch(ticker, models.ResolutionDaily, period)
	if err == nil && len(fetched) > 0 {
		s.cache.Merge(ticker, models.ResolutionDaily, fetched)
		merged := s.cache.Get(ticker, models.ResolutionDaily, period)
		if len(merged) == 0 {
			// Cache backend unavailable; serve the fetch result directly
			merged = MergeCandles(nil, fetched)
		}
		return tailCandles(merged, period)
	}
	if err != nil {
		log.Printf("Live fetch for %s daily failed: %v", ticker, err)
	}

	if period >= LongRangeThreshold && s.archive != nil {
		bars, err := s.archive.QueryDaily(ticker, period)
		if err != nil {
			log.Printf("Archive query for %s failed: %v", ticker, err)
		} else if len(bars) > 0 {
			log.Printf("Serving %s from archive (%d bars, %d cached)", ticker, len(bars), len(cached))
			// Cache entries win on date conflicts; the archive fills gaps only
			combined := MergeCandles(bars, cached)
			return tailCandles(combined, period)
		}
	}

	return []models.Candle{}
}

// GetWeeklyChart returns up to `period` weekly candles, ascending by date
func (s *ChartService) GetWeeklyChart(ticker string, period int) []models.Candle {
	period = clampPeriod(period)

	cached := s.cache.Get(ticker, models.ResolutionWeekly, period)
	if Sufficiency(len(cached), weeklyCoverageTarget(period)) {
		return tailCandles(cached, period)
	}

	lock := s.tickerLock(ticker)
	lock.Lock()
	defer lock.Unlock()

	// The provider takes the weekly window in days
	days := period * 7
	if days > MaxWeeklyFetchDays {
		days = MaxWeeklyFetchDays
	}

	fetched, err := s.gateway.Fetch(ticker, models.ResolutionWeekly, days)
	if err != nil {
		log.Printf("Live fetch for %s weekly failed: %v", ticker, err)
	} else if len(fetched) > 0 {
		s.cache.Merge(ticker, models.ResolutionWeekly, fetched)
	}

	final := s.cache.Get(ticker, models.ResolutionWeekly, period)
	if len(final) == 0 && len(fetched) > 0 {
		final = MergeCandles(nil, fetched)
	}
	return tailCandles(final, period)
}

// GetChart dispatches on resolution
func (s *ChartService) GetChart(ticker, resolution string, period int) []models.Candle {
	if resolution == models.ResolutionWeekly {
		return s.GetWeeklyChart(ticker, period)
	}
	return s.GetDailyChart(ticker, period)
}

// GetStockInfo returns instrument info, trying the info cache, then the
// provider with retries, then a static fallback so the endpoint always has a
// name to render.
func (s *ChartService) GetStockInfo(ticker string) *models.StockInfo {
	if info := s.cache.GetInfo(ticker); info != nil {
		return info
	}

	for attempt := 1; attempt <= infoFetchAttempts; attempt++ {
		info, err := s.gateway.FetchInfo(ticker)
		if err == nil && info != nil {
			if info.Name == "" {
				info.Name = DisplayName(ticker)
			}
			s.cache.PutInfo(info)
			return info
		}
		log.Printf("Info fetch for %s failed (attempt %d/%d): %v", ticker, attempt, infoFetchAttempts, err)
		if attempt < infoFetchAttempts {
			time.Sleep(s.infoBackoff * time.Duration(attempt))
		}
	}

	log.Printf("Info fetch for %s exhausted retries, using fallback name", ticker)
	return &models.StockInfo{
		Ticker: ticker,
		Name:   DisplayName(ticker),
		Sector: "정보 없음",
	}
}
