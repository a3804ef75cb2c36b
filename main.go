package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"stockdata-backend/config"
	"stockdata-backend/models"
	"stockdata-backend/routes"
	"stockdata-backend/scheduler"
	"stockdata-backend/services"
)

// cacheInitialized tracks whether the Redis-backed cache came up. The /ready
// endpoint reads it across goroutines, so access goes through the mutex.
var cacheInitialized bool
var cacheInitMutex sync.RWMutex

func main() {
	log.Println("==============================================")
	log.Println("  Stock Data Backend - Starting...")
	log.Println("==============================================")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("Warning: Config load issue: %v", err)
	}

	// Set Gin mode based on environment
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Add middlewares
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(requestLogger())

	// Setup health check endpoints FIRST so the platform can detect the
	// service is up; backends are initialized in background
	setupHealthEndpoints(router)

	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	// Start serving immediately; routes appear once backends are up
	go func() {
		log.Printf("Server listening on 0.0.0.0:%s", cfg.Port)
		log.Println("==============================================")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Initialize backends and set up routes in background. The struct is
	// filled by the init goroutine and read again at shutdown, which may fire
	// before init finishes.
	var b backends

	go func() {
		// Redis is required; without it the service stays in limited mode
		rdb, err := config.InitRedis()
		if err != nil {
			log.Printf("ERROR: Redis connection failed: %v", err)
			log.Println("Service will continue in limited mode (health check only)")
			return
		}

		// Postgres archive is optional; long lookbacks lose their last tier
		// when it is down
		var archive *services.HistoricalArchive
		if db, err := config.InitDB(); err != nil {
			log.Printf("Warning: Database connection failed, archive tier disabled: %v", err)
		} else {
			if err := models.MigrateArchiveModels(db); err != nil {
				log.Printf("Warning: Archive migration failed: %v", err)
			} else {
				archive = services.NewHistoricalArchive(db)
			}
		}

		gateway := services.NewProviderGateway(
			cfg.ProviderBaseURL,
			cfg.PythonPath,
			cfg.ChartScriptPath,
			time.Duration(cfg.FetchTimeoutSec)*time.Second,
		)

		cache := services.NewCandleCache(rdb)
		charts := newChartService(cache, gateway, archive)
		registry := services.NewSubscriptionRegistry(gateway)
		hub := services.NewHub()
		broadcaster := services.NewBroadcaster(registry, hub)

		snapshots, err := services.NewSnapshotStore()
		if err != nil {
			log.Printf("Warning: Snapshot store unavailable: %v", err)
			snapshots = nil
		}

		ticks, err := services.NewTickStore(services.DefaultTickDBPath)
		if err != nil {
			log.Printf("Warning: Tick store unavailable: %v", err)
			ticks = nil
		}

		var warmup *services.WarmupInitializer
		if cfg.WarmupEnabled {
			warmup = services.NewWarmupInitializer(charts, cache, services.DefaultWarmupUniverse, cfg.WarmupPeriod)
		}

		cacheInitMutex.Lock()
		cacheInitialized = true
		cacheInitMutex.Unlock()

		// Setup all API routes
		routes.SetupRoutes(router, &routes.Services{
			Charts:    charts,
			Cache:     cache,
			Archive:   archive,
			Registry:  registry,
			Broadcast: broadcaster,
			Hub:       hub,
			Snapshots: snapshots,
			Ticks:     ticks,
			Warmup:    warmup,
		})

		// Start background jobs
		jobScheduler := scheduler.NewScheduler(cache, archive, ticks, services.DefaultWarmupUniverse)
		go jobScheduler.Start()

		if warmup != nil {
			go warmup.Run()
		}

		b.set(jobScheduler, hub, snapshots, ticks)
		log.Println("Application fully initialized")
	}()

	gracefulShutdown(server, &b)
}

// backends holds the long-lived components shutdown must stop. Guarded by a
// mutex because the init goroutine fills it while the shutdown path may
// already be reading it.
type backends struct {
	mu        sync.Mutex
	scheduler *scheduler.Scheduler
	hub       *services.Hub
	snapshots *services.SnapshotStore
	ticks     *services.TickStore
}

func (b *backends) set(s *scheduler.Scheduler, hub *services.Hub, snapshots *services.SnapshotStore, ticks *services.TickStore) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scheduler = s
	b.hub = hub
	b.snapshots = snapshots
	b.ticks = ticks
}

// close stops and closes whatever the init goroutine managed to bring up
func (b *backends) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.scheduler != nil {
		b.scheduler.Stop()
	}
	if b.hub != nil {
		b.hub.Shutdown()
	}
	if b.snapshots != nil {
		if err := b.snapshots.Close(); err != nil {
			log.Printf("Snapshot store close failed: %v", err)
		}
	}
	if b.ticks != nil {
		if err := b.ticks.Close(); err != nil {
			log.Printf("Tick store close failed: %v", err)
		}
	}
}

// newChartService wires the chart service, keeping the nil-archive case
// explicit: a typed nil pointer must not reach the interface field.
func newChartService(cache *services.CandleCache, gateway services.LiveFeedGateway, archive *services.HistoricalArchive) *services.ChartService {
	if archive == nil {
		return services.NewChartService(cache, gateway, nil)
	}
	return services.NewChartService(cache, gateway, archive)
}

// setupHealthEndpoints sets up liveness and readiness probes
func setupHealthEndpoints(router *gin.Engine) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Stock Data Backend API",
			"version": "1.0.0",
		})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	router.GET("/ready", func(c *gin.Context) {
		cacheInitMutex.RLock()
		ready := cacheInitialized
		cacheInitMutex.RUnlock()

		if !ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not_ready",
				"message": "Cache not connected",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "ready",
		})
	})
}

// corsMiddleware returns a CORS middleware handler
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestLogger returns a request logging middleware
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip logging for health checks to reduce noise
		path := c.Request.URL.Path
		if path == "/health" || path == "/ready" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		// Only log errors or slow requests
		if c.Writer.Status() >= 400 || duration > 1*time.Second {
			log.Printf("%s %s %d %v", c.Request.Method, path, c.Writer.Status(), duration)
		}
	}
}

// gracefulShutdown handles graceful shutdown of the server and backends
func gracefulShutdown(server *http.Server, b *backends) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Printf("Received signal %v, shutting down gracefully...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	b.close()

	if config.DB != nil {
		if sqlDB, err := config.DB.DB(); err == nil {
			sqlDB.Close()
			log.Println("Database connection closed")
		}
	}

	log.Println("Server shutdown completed")
}
