package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stockdata-backend/services"
)

// SubscriptionController manages per-ticker live feed subscriptions
type SubscriptionController struct {
	registry *services.SubscriptionRegistry
}

// NewSubscriptionController creates a new subscription controller
func NewSubscriptionController(registry *services.SubscriptionRegistry) *SubscriptionController {
	return &SubscriptionController{registry: registry}
}

// Subscribe registers one viewer for a ticker's live feed
// POST /api/stock/subscription/:ticker/subscribe
func (sc *SubscriptionController) Subscribe(c *gin.Context) {
	ticker := c.Param("ticker")
	if ticker == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ticker is required"})
		return
	}

	count := sc.registry.Subscribe(ticker)

	c.JSON(http.StatusOK, gin.H{
		"ticker":      ticker,
		"subscribers": count,
	})
}

// Unsubscribe releases one viewer for a ticker's live feed
// POST /api/stock/subscription/:ticker/unsubscribe
func (sc *SubscriptionController) Unsubscribe(c *gin.Context) {
	ticker := c.Param("ticker")
	if ticker == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ticker is required"})
		return
	}

	count := sc.registry.Unsubscribe(ticker)

	c.JSON(http.StatusOK, gin.H{
		"ticker":      ticker,
		"subscribers": count,
	})
}

// GetStatus returns subscription state for a ticker
// GET /api/stock/subscription/:ticker/status
func (sc *SubscriptionController) GetStatus(c *gin.Context) {
	ticker := c.Param("ticker")

	c.JSON(http.StatusOK, gin.H{
		"ticker": ticker,
		"active": sc.registry.HasActiveSubscribers(ticker),
	})
}

// GetActiveCount returns how many instruments have live subscriptions
// GET /api/stock/subscription/active
func (sc *SubscriptionController) GetActiveCount(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"active_instruments": sc.registry.ActiveInstrumentCount(),
	})
}
