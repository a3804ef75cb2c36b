package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"stockdata-backend/models"
)

// fakeCache is an in-memory candleCache
type fakeCache struct {
	series map[string][]models.Candle
	infos  map[string]*models.StockInfo
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		series: make(map[string][]models.Candle),
		infos:  make(map[string]*models.StockInfo),
	}
}

func (f *fakeCache) key(ticker, resolution string) string {
	return resolution + ":" + ticker
}

func (f *fakeCache) Get(ticker, resolution string, period int) []models.Candle {
	return tailCandles(f.series[f.key(ticker, resolution)], period)
}

func (f *fakeCache) Merge(ticker, resolution string, candles []models.Candle) {
	k := f.key(ticker, resolution)
	f.series[k] = MergeCandles(f.series[k], candles)
}

func (f *fakeCache) GetInfo(ticker string) *models.StockInfo { return f.infos[ticker] }
func (f *fakeCache) PutInfo(info *models.StockInfo)          { f.infos[info.Ticker] = info }

// fakeGateway records fetches and serves canned candle windows
type fakeGateway struct {
	fetchCalls int
	fetchErr   error
	candles    []models.Candle
	infoErr    error
	info       *models.StockInfo
	lastPeriod int
}

func (f *fakeGateway) Start(ticker string) error { return nil }
func (f *fakeGateway) Stop(ticker string) error  { return nil }

func (f *fakeGateway) Fetch(ticker, resolution string, period int) ([]models.Candle, error) {
	f.fetchCalls++
	f.lastPeriod = period
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.candles, nil
}

func (f *fakeGateway) FetchInfo(ticker string) (*models.StockInfo, error) {
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	return f.info, nil
}

// fakeArchive serves canned archive bars
type fakeArchive struct {
	queries int
	bars    []models.Candle
	err     error
}

func (f *fakeArchive) QueryDaily(ticker string, period int) ([]models.Candle, error) {
	f.queries++
	if f.err != nil {
		return nil, f.err
	}
	return f.bars, nil
}

func dailySeries(n int) []models.Candle {
	series := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		series[i] = models.Candle{
			Ticker: "005930",
			Date:   fmt.Sprintf("2025%02d%02d", i/28+1, i%28+1),
			Close:  100 + i,
		}
	}
	return series
}

func TestGetDailyChartServesFromCache(t *testing.T) {
	cache := newFakeCache()
	cache.Merge("005930", models.ResolutionDaily, dailySeries(25))
	gateway := &fakeGateway{}

	svc := NewChartService(cache, gateway, nil)

	// 25 of 30 cached clears the 80% bar, so no upstream fetch happens
	got := svc.GetDailyChart("005930", 30)

	assert.Len(t, got, 25)
	assert.Zero(t, gateway.fetchCalls)
}

func TestGetDailyChartFetchesAndMerges(t *testing.T) {
	cache := newFakeCache()
	cache.Merge("005930", models.ResolutionDaily, dailySeries(10))
	gateway := &fakeGateway{candles: dailySeries(30)}

	svc := NewChartService(cache, gateway, nil)

	got := svc.GetDailyChart("005930", 30)

	assert.Equal(t, 1, gateway.fetchCalls)
	assert.Len(t, got, 30)
	// Fetched candles must land in the cache
	assert.Len(t, cache.Get("005930", models.ResolutionDaily, DailyHorizon), 30)
}

func TestGetDailyChartFallsBackToArchiveForLongRange(t *testing.T) {
	cache := newFakeCache()
	gateway := &fakeGateway{fetchErr: errors.New("provider down")}
	archive := &fakeArchive{bars: dailySeries(300)}

	svc := NewChartService(cache, gateway, archive)

	got := svc.GetDailyChart("005930", 400)

	assert.Equal(t, 1, archive.queries)
	assert.Len(t, got, 300)
}

func TestGetDailyChartSkipsArchiveForShortRange(t *testing.T) {
	cache := newFakeCache()
	gateway := &fakeGateway{fetchErr: errors.New("provider down")}
	archive := &fakeArchive{bars: dailySeries(300)}

	svc := NewChartService(cache, gateway, archive)

	got := svc.GetDailyChart("005930", 30)

	assert.Zero(t, archive.queries, "archive is a long-range tier only")
	assert.Empty(t, got)
}

func TestGetDailyChartEmptyWhenAllTiersFail(t *testing.T) {
	cache := newFakeCache()
	gateway := &fakeGateway{fetchErr: errors.New("provider down")}
	archive := &fakeArchive{err: errors.New("db down")}

	svc := NewChartService(cache, gateway, archive)

	got := svc.GetDailyChart("005930", 400)

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGetDailyChartCacheWinsOverArchive(t *testing.T) {
	cache := newFakeCache()
	cached := []models.Candle{{Ticker: "005930", Date: "20250101", Close: 999}}
	cache.Merge("005930", models.ResolutionDaily, cached)

	archiveBars := dailySeries(300) // includes 20250101 with a different close
	gateway := &fakeGateway{fetchErr: errors.New("provider down")}
	archive := &fakeArchive{bars: archiveBars}

	svc := NewChartService(cache, gateway, archive)

	got := svc.GetDailyChart("005930", 400)

	for _, c := range got {
		if c.Date == "20250101" {
			assert.Equal(t, 999, c.Close, "cache entry should win over archive on date conflict")
			return
		}
	}
	t.Fatal("expected 20250101 in combined series")
}

func TestClampPeriod(t *testing.T) {
	assert.Equal(t, 1, clampPeriod(0))
	assert.Equal(t, 1, clampPeriod(-5))
	assert.Equal(t, 30, clampPeriod(30))
	assert.Equal(t, MaxFetchPeriod, clampPeriod(MaxFetchPeriod))
	assert.Equal(t, MaxFetchPeriod, clampPeriod(5000))
}

func TestGetWeeklyChartFetchWindowInDays(t *testing.T) {
	testCases := []struct {
		period   int
		wantDays int
	}{
		{period: 10, wantDays: 70},
		{period: 52, wantDays: 364},
		{period: 156, wantDays: 365}, // capped at one year
	}

	for _, tc := range testCases {
		cache := newFakeCache()
		gateway := &fakeGateway{candles: dailySeries(5)}
		svc := NewChartService(cache, gateway, nil)

		svc.GetWeeklyChart("005930", tc.period)

		assert.Equal(t, tc.wantDays, gateway.lastPeriod, "period %d", tc.period)
	}
}

func TestGetWeeklyChartServesFromCache(t *testing.T) {
	cache := newFakeCache()
	cache.Merge("005930", models.ResolutionWeekly, dailySeries(50))
	gateway := &fakeGateway{}

	svc := NewChartService(cache, gateway, nil)

	got := svc.GetWeeklyChart("005930", 52)

	assert.Len(t, got, 50)
	assert.Zero(t, gateway.fetchCalls)
}

func TestGetWeeklyChartFullyFetchedSeriesIsSufficient(t *testing.T) {
	cache := newFakeCache()
	// The capped day window yields at most WeeklyFetchableBuckets candles, so
	// a series of that size must satisfy any longer period without refetching
	cache.Merge("005930", models.ResolutionWeekly, dailySeries(WeeklyFetchableBuckets))
	gateway := &fakeGateway{candles: dailySeries(5)}

	svc := NewChartService(cache, gateway, nil)

	got := svc.GetWeeklyChart("005930", 156)

	assert.Zero(t, gateway.fetchCalls, "fully fetched weekly series must not trigger another fetch")
	assert.Len(t, got, WeeklyFetchableBuckets)
}

func TestGetChartDispatch(t *testing.T) {
	cache := newFakeCache()
	cache.Merge("005930", models.ResolutionDaily, dailySeries(30))
	cache.Merge("005930", models.ResolutionWeekly, dailySeries(10))
	svc := NewChartService(cache, &fakeGateway{}, nil)

	assert.Len(t, svc.GetChart("005930", models.ResolutionDaily, 30), 30)
	assert.Len(t, svc.GetChart("005930", models.ResolutionWeekly, 10), 10)
}

func TestGetStockInfoCacheHit(t *testing.T) {
	cache := newFakeCache()
	cache.PutInfo(&models.StockInfo{Ticker: "005930", Name: "삼성전자"})
	gateway := &fakeGateway{infoErr: errors.New("should not be called")}

	svc := NewChartService(cache, gateway, nil)

	info := svc.GetStockInfo("005930")
	assert.Equal(t, "삼성전자", info.Name)
}

func TestGetStockInfoFallbackName(t *testing.T) {
	cache := newFakeCache()
	gateway := &fakeGateway{infoErr: errors.New("provider down")}

	svc := NewChartService(cache, gateway, nil)
	svc.infoBackoff = 0

	info := svc.GetStockInfo("005930")
	assert.NotNil(t, info)
	assert.Equal(t, "005930", info.Ticker)
	assert.NotEmpty(t, info.Name)
}
