package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"stockdata-backend/models"
	"stockdata-backend/services"
)

// Scheduler manages scheduled jobs
type Scheduler struct {
	cron     *gocron.Scheduler
	cache    *services.CandleCache
	archive  *services.HistoricalArchive
	ticks    *services.TickStore
	universe []string
}

// NewScheduler creates a new scheduler instance. archive and ticks may be nil;
// their jobs are then skipped.
func NewScheduler(cache *services.CandleCache, archive *services.HistoricalArchive, ticks *services.TickStore, universe []string) *Scheduler {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:     gocron.NewScheduler(loc),
		cache:    cache,
		archive:  archive,
		ticks:    ticks,
		universe: universe,
	}
}

// Start starts all scheduled jobs
func (s *Scheduler) Start() {
	log.Println("Starting scheduler...")

	// Sync cached daily bars into the archive after market close
	s.cron.Every(1).Day().At("18:10").Do(func() {
		s.syncArchive()
	})

	// Log cache stats hourly
	s.cron.Every(1).Hour().Do(func() {
		s.logCacheStats()
	})

	// Prune the tick log weekly on Sunday at 02:00
	s.cron.Every(1).Week().Sunday().At("02:00").Do(func() {
		s.pruneTicks()
	})

	s.cron.StartAsync()
	log.Println("Scheduler started successfully")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("Scheduler stopped")
}

// syncArchive copies cached daily series into the durable archive so long
// lookbacks survive cache expiry and provider outages
func (s *Scheduler) syncArchive() {
	if s.archive == nil {
		log.Println("Archive sync skipped: archive unavailable")
		return
	}

	log.Println("Syncing cached daily bars to archive...")
	synced, failed := 0, 0

	for _, ticker := range s.universe {
		candles := s.cache.Get(ticker, models.ResolutionDaily, services.DailyHorizon)
		if len(candles) == 0 {
			continue
		}
		if err := s.archive.UpsertDaily(ticker, candles); err != nil {
			log.Printf("Archive sync for %s failed: %v", ticker, err)
			failed++
			continue
		}
		synced++
	}

	log.Printf("Archive sync completed: %d synced, %d failed", synced, failed)
}

// logCacheStats logs aggregate cache key counts
func (s *Scheduler) logCacheStats() {
	stats := s.cache.Stats()
	log.Printf("Cache stats: daily=%v weekly=%v info=%v",
		stats["daily_series_count"], stats["weekly_series_count"], stats["stock_info_count"])
}

// pruneTicks removes tick log entries older than 30 days
func (s *Scheduler) pruneTicks() {
	if s.ticks == nil {
		return
	}

	cutoff := time.Now().AddDate(0, 0, -30)
	removed, err := s.ticks.PruneOlderThan(cutoff)
	if err != nil {
		log.Printf("Tick prune failed: %v", err)
		return
	}
	log.Printf("Tick prune completed: %d rows removed", removed)
}
