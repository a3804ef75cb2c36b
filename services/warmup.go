package services

import (
	"log"
	"sync"
	"time"

	"stockdata-backend/models"
)

// Warmup defaults
const (
	WarmupWorkers      = 5
	WarmupDelay        = 2 * time.Second
	WarmupWeeklyPeriod = 156
)

// chartFetcher is the chart read path the warmup drives
type chartFetcher interface {
	GetDailyChart(ticker string, period int) []models.Candle
	GetWeeklyChart(ticker string, period int) []models.Candle
}

// coverageReader checks existing cache coverage before fetching
type coverageReader interface {
	Get(ticker, resolution string, period int) []models.Candle
}

// WarmupStatus is a snapshot of warm-up progress
type WarmupStatus struct {
	Running      bool    `json:"running"`
	TotalStocks  int     `json:"total_stocks"`
	Processed    int     `json:"processed"`
	WarmedCount  int     `json:"warmed_count"`
	SkippedCount int     `json:"skipped_count"`
	FailedCount  int     `json:"failed_count"`
	Completion   float64 `json:"completion_percentage"`
	StartedAt    string  `json:"started_at,omitempty"`
	FinishedAt   string  `json:"finished_at,omitempty"`
}

// WarmupInitializer pre-loads daily and weekly series for a fixed instrument
// universe at process start. It runs on a small worker pool fully decoupled
// from request serving; instruments whose cache already passes the 80% rule
// for both resolutions are skipped, and a single instrument's failure never
// aborts the rest of the run.
type WarmupInitializer struct {
	charts      chartFetcher
	cache       coverageReader
	universe    []string
	dailyPeriod int
	delay       time.Duration
	workers     int

	mu     sync.Mutex
	status WarmupStatus
}

// NewWarmupInitializer creates a warmup runner over the given universe
func NewWarmupInitializer(charts chartFetcher, cache coverageReader, universe []string, dailyPeriod int) *WarmupInitializer {
	return &WarmupInitializer{
		charts:      charts,
		cache:       cache,
		universe:    universe,
		dailyPeriod: dailyPeriod,
		delay:       WarmupDelay,
		workers:     WarmupWorkers,
	}
}

// Run executes the warm-up. Call from its own goroutine; the service stays
// usable throughout and cache misses simply fall through to live fetch.
func (w *WarmupInitializer) Run() {
	start := time.Now()

	w.mu.Lock()
	if w.status.Running {
		w.mu.Unlock()
		log.Println("Warmup already running, skipping")
		return
	}
	w.status = WarmupStatus{
		Running:     true,
		TotalStocks: len(w.universe),
		StartedAt:   start.Format(time.RFC3339),
	}
	w.mu.Unlock()

	log.Printf("Warmup started: %d instruments, %d-day daily window, %d workers",
		len(w.universe), w.dailyPeriod, w.workers)

	tickers := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ticker := range tickers {
				w.warmOne(ticker)
				time.Sleep(w.delay)
			}
		}()
	}

	for _, ticker := range w.universe {
		tickers <- ticker
	}
	close(tickers)
	wg.Wait()

	w.mu.Lock()
	w.status.Running = false
	w.status.FinishedAt = time.Now().Format(time.RFC3339)
	w.status.Completion = completion(w.status)
	final := w.status
	w.mu.Unlock()

	log.Printf("Warmup finished in %v: warmed=%d skipped=%d failed=%d",
		time.Since(start).Round(time.Second), final.WarmedCount, final.SkippedCount, final.FailedCount)
}

func (w *WarmupInitializer) warmOne(ticker string) {
	defer func() {
		w.mu.Lock()
		w.status.Processed++
		w.status.Completion = completion(w.status)
		w.mu.Unlock()
	}()

	daily := w.cache.Get(ticker, models.ResolutionDaily, w.dailyPeriod)
	weekly := w.cache.Get(ticker, models.ResolutionWeekly, WarmupWeeklyPeriod)
	if Sufficiency(len(daily), w.dailyPeriod) && Sufficiency(len(weekly), weeklyCoverageTarget(WarmupWeeklyPeriod)) {
		log.Printf("Warmup skip %s: cache coverage sufficient", ticker)
		w.mu.Lock()
		w.status.SkippedCount++
		w.mu.Unlock()
		return
	}

	// GetDailyChart/GetWeeklyChart merge into the cache on success themselves
	gotDaily := w.charts.GetDailyChart(ticker, w.dailyPeriod)
	gotWeekly := w.charts.GetWeeklyChart(ticker, WarmupWeeklyPeriod)

	w.mu.Lock()
	if len(gotDaily) == 0 && len(gotWeekly) == 0 {
		w.status.FailedCount++
		w.mu.Unlock()
		log.Printf("Warmup failed for %s: no data from any tier", ticker)
		return
	}
	w.status.WarmedCount++
	w.mu.Unlock()
	log.Printf("Warmup loaded %s: %d daily, %d weekly", ticker, len(gotDaily), len(gotWeekly))
}

// Status returns a snapshot of warm-up progress
func (w *WarmupInitializer) Status() WarmupStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

func completion(s WarmupStatus) float64 {
	if s.TotalStocks == 0 {
		return 100
	}
	return float64(s.Processed) * 100 / float64(s.TotalStocks)
}
