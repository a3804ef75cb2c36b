package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"stockdata-backend/models"
	"stockdata-backend/services"
)

// RealtimeController receives live events pushed by the quote provider and
// fans them out to websocket viewers. Ingress is fire-and-forget: malformed or
// unroutable events are dropped with a 200 so the provider never retries.
type RealtimeController struct {
	broadcaster *services.Broadcaster
	snapshots   *services.SnapshotStore
	ticks       *services.TickStore
	hub         *services.Hub
}

// NewRealtimeController creates a new realtime controller. snapshots and ticks
// may be nil.
func NewRealtimeController(broadcaster *services.Broadcaster, snapshots *services.SnapshotStore, ticks *services.TickStore, hub *services.Hub) *RealtimeController {
	return &RealtimeController{
		broadcaster: broadcaster,
		snapshots:   snapshots,
		ticks:       ticks,
		hub:         hub,
	}
}

// IngestSummary receives an aggregate summary update
// POST /api/stock/realtime/summary
func (rc *RealtimeController) IngestSummary(c *gin.Context) {
	var dto models.RealtimeSummary
	if err := c.ShouldBindJSON(&dto); err != nil {
		log.Printf("Dropping malformed summary event: %v", err)
		c.JSON(http.StatusOK, gin.H{"status": "dropped"})
		return
	}
	if dto.Ticker == "" {
		log.Println("Dropping summary event without ticker")
		c.JSON(http.StatusOK, gin.H{"status": "dropped"})
		return
	}

	rc.broadcaster.PublishSummary(dto)

	if rc.snapshots != nil {
		if err := rc.snapshots.SaveSummary(dto); err != nil {
			log.Printf("Snapshot save for %s failed: %v", dto.Ticker, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "published"})
}

// IngestDetail receives a quote-ladder update
// POST /api/stock/realtime/detail
func (rc *RealtimeController) IngestDetail(c *gin.Context) {
	var dto models.OrderBookDetail
	if err := c.ShouldBindJSON(&dto); err != nil {
		log.Printf("Dropping malformed detail event: %v", err)
		c.JSON(http.StatusOK, gin.H{"status": "dropped"})
		return
	}
	if dto.Ticker == "" {
		log.Println("Dropping detail event without ticker")
		c.JSON(http.StatusOK, gin.H{"status": "dropped"})
		return
	}

	if rc.broadcaster.PublishDetail(dto) {
		c.JSON(http.StatusOK, gin.H{"status": "published"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "dropped"})
}

// IngestExecution receives a trade execution event
// POST /api/stock/realtime/execution
func (rc *RealtimeController) IngestExecution(c *gin.Context) {
	var dto models.TradeExecution
	if err := c.ShouldBindJSON(&dto); err != nil {
		log.Printf("Dropping malformed execution event: %v", err)
		c.JSON(http.StatusOK, gin.H{"status": "dropped"})
		return
	}
	if dto.Ticker == "" {
		log.Println("Dropping execution event without ticker")
		c.JSON(http.StatusOK, gin.H{"status": "dropped"})
		return
	}

	published := rc.broadcaster.PublishExecution(dto)

	// Executions are logged locally regardless of fan-out so the recent-ticks
	// endpoint stays useful for unwatched tickers
	if rc.ticks != nil {
		if err := rc.ticks.InsertExecution(dto); err != nil {
			log.Printf("Tick insert for %s failed: %v", dto.Ticker, err)
		}
	}

	if published {
		c.JSON(http.StatusOK, gin.H{"status": "published"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "dropped"})
}

// GetSnapshot returns the latest stored summary for a ticker
// GET /api/stock/realtime/snapshot/:ticker
func (rc *RealtimeController) GetSnapshot(c *gin.Context) {
	ticker := c.Param("ticker")

	if rc.snapshots == nil || !rc.snapshots.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "snapshot store unavailable"})
		return
	}

	summary, err := rc.snapshots.GetSummary(ticker)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load snapshot"})
		return
	}
	if summary == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No snapshot for ticker"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}

// HandleWebSocket upgrades the connection and hands it to the hub
// GET /ws
func (rc *RealtimeController) HandleWebSocket(c *gin.Context) {
	rc.hub.HandleWebSocket(c.Writer, c.Request)
}

// GetHubStatus returns connected websocket client count
// GET /api/stock/realtime/status
func (rc *RealtimeController) GetHubStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connected_clients": rc.hub.ClientCount(),
		"max_clients":       services.MaxWebSocketClients,
	})
}
