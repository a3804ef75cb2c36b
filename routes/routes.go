package routes

import (
	"github.com/gin-gonic/gin"

	"stockdata-backend/controllers"
	"stockdata-backend/middleware"
	"stockdata-backend/services"
)

// Services bundles the initialized service layer for route wiring. Optional
// backends (archive, snapshots, ticks, warmup) are nil when unavailable and
// their endpoints degrade accordingly.
type Services struct {
	Charts    *services.ChartService
	Cache     *services.CandleCache
	Archive   *services.HistoricalArchive
	Registry  *services.SubscriptionRegistry
	Broadcast *services.Broadcaster
	Hub       *services.Hub
	Snapshots *services.SnapshotStore
	Ticks     *services.TickStore
	Warmup    *services.WarmupInitializer
}

// SetupRoutes sets up all API routes
func SetupRoutes(router *gin.Engine, svc *Services) {
	// Initialize controllers
	chartController := controllers.NewChartController(svc.Charts, svc.Ticks)
	cacheController := controllers.NewCacheController(svc.Cache, svc.Archive, svc.Warmup)
	subscriptionController := controllers.NewSubscriptionController(svc.Registry)
	realtimeController := controllers.NewRealtimeController(svc.Broadcast, svc.Snapshots, svc.Ticks, svc.Hub)

	api := router.Group("/api/stock")
	{
		// Chart and instrument info routes
		api.GET("/chart/:ticker", middleware.ChartRateLimitMiddleware(), chartController.GetChart)
		api.GET("/info/:ticker", chartController.GetStockInfo)
		api.GET("/ticks/:ticker", chartController.GetRecentTicks)

		// Subscription routes
		subscription := api.Group("/subscription")
		{
			subscription.GET("/active", subscriptionController.GetActiveCount)
			subscription.POST("/:ticker/subscribe", subscriptionController.Subscribe)
			subscription.POST("/:ticker/unsubscribe", subscriptionController.Unsubscribe)
			subscription.GET("/:ticker/status", subscriptionController.GetStatus)
		}

		// Provider ingress routes (fire-and-forget callbacks)
		realtime := api.Group("/realtime")
		{
			realtime.POST("/summary", middleware.IngressAuthMiddleware(), realtimeController.IngestSummary)
			realtime.POST("/detail", middleware.IngressAuthMiddleware(), realtimeController.IngestDetail)
			realtime.POST("/execution", middleware.IngressAuthMiddleware(), realtimeController.IngestExecution)
			realtime.GET("/snapshot/:ticker", realtimeController.GetSnapshot)
			realtime.GET("/status", realtimeController.GetHubStatus)
		}

		// Cache introspection routes
		cache := api.Group("/cache")
		{
			cache.GET("/stats", cacheController.GetCacheStats)
			cache.GET("/status/:ticker", cacheController.GetCacheStatus)
		}

		api.GET("/warmup/status", cacheController.GetWarmupStatus)
	}

	// WebSocket endpoint for realtime viewers
	router.GET("/ws", realtimeController.HandleWebSocket)
}
