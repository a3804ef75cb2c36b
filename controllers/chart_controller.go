package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stockdata-backend/models"
	"stockdata-backend/services"
)

// ChartController serves historical chart and instrument info endpoints
type ChartController struct {
	charts *services.ChartService
	ticks  *services.TickStore
}

// NewChartController creates a new chart controller. ticks may be nil when the
// tick store failed to open.
func NewChartController(charts *services.ChartService, ticks *services.TickStore) *ChartController {
	return &ChartController{charts: charts, ticks: ticks}
}

// GetChart returns OHLCV candles for a ticker
// GET /api/stock/chart/:ticker?resolution=daily&period=30
func (cc *ChartController) GetChart(c *gin.Context) {
	ticker := c.Param("ticker")

	resolution := c.DefaultQuery("resolution", models.ResolutionDaily)
	if resolution != models.ResolutionDaily && resolution != models.ResolutionWeekly {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "resolution must be 'daily' or 'weekly'",
		})
		return
	}

	period, err := strconv.Atoi(c.DefaultQuery("period", "30"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "period must be an integer"})
		return
	}

	// Out-of-range periods are clamped by the chart service, not rejected
	candles := cc.charts.GetChart(ticker, resolution, period)

	c.JSON(http.StatusOK, gin.H{
		"ticker":     ticker,
		"resolution": resolution,
		"period":     period,
		"count":      len(candles),
		"candles":    candles,
	})
}

// GetStockInfo returns instrument metadata for a ticker
// GET /api/stock/info/:ticker
func (cc *ChartController) GetStockInfo(c *gin.Context) {
	ticker := c.Param("ticker")

	info := cc.charts.GetStockInfo(ticker)

	c.JSON(http.StatusOK, gin.H{"data": info})
}

// GetRecentTicks returns recent trade executions recorded for a ticker
// GET /api/stock/ticks/:ticker?limit=50
func (cc *ChartController) GetRecentTicks(c *gin.Context) {
	ticker := c.Param("ticker")

	if cc.ticks == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "tick store unavailable"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 500 {
		limit = 50
	}

	ticks, err := cc.ticks.RecentTicks(ticker, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch ticks"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ticker": ticker,
		"count":  len(ticks),
		"ticks":  ticks,
	})
}
