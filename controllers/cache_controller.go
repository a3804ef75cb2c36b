package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stockdata-backend/models"
	"stockdata-backend/services"
)

// CacheController exposes cache and warmup introspection endpoints
type CacheController struct {
	cache   *services.CandleCache
	archive *services.HistoricalArchive
	warmup  *services.WarmupInitializer
}

// NewCacheController creates a new cache controller. archive and warmup may be
// nil when their backing services are unavailable.
func NewCacheController(cache *services.CandleCache, archive *services.HistoricalArchive, warmup *services.WarmupInitializer) *CacheController {
	return &CacheController{cache: cache, archive: archive, warmup: warmup}
}

// GetCacheStats returns aggregate cache key counts
// GET /api/stock/cache/stats
func (cc *CacheController) GetCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": cc.cache.Stats()})
}

// GetCacheStatus returns per-ticker cache and archive coverage
// GET /api/stock/cache/status/:ticker
func (cc *CacheController) GetCacheStatus(c *gin.Context) {
	ticker := c.Param("ticker")

	daily := cc.cache.Get(ticker, models.ResolutionDaily, services.DailyHorizon)
	weekly := cc.cache.Get(ticker, models.ResolutionWeekly, services.WeeklyHorizon)

	status := gin.H{
		"ticker":        ticker,
		"daily_bars":    len(daily),
		"weekly_bars":   len(weekly),
		"daily_cached":  len(daily) > 0,
		"weekly_cached": len(weekly) > 0,
	}

	if cc.archive != nil {
		if count, err := cc.archive.BarCount(ticker); err == nil {
			status["archived_bars"] = count
		}
	}

	c.JSON(http.StatusOK, gin.H{"data": status})
}

// GetWarmupStatus returns warm-up progress
// GET /api/stock/warmup/status
func (cc *CacheController) GetWarmupStatus(c *gin.Context) {
	if cc.warmup == nil {
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"enabled": false}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cc.warmup.Status()})
}
