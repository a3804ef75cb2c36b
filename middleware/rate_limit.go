package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// requestWindow tracks chart requests from one IP
type requestWindow struct {
	Count   int
	FirstAt time.Time
}

// RateLimiter bounds chart requests per client IP over a sliding window, so a
// single misbehaving frontend cannot stampede the upstream fetch path.
type RateLimiter struct {
	mu           sync.Mutex
	windows      map[string]*requestWindow
	maxRequests  int
	windowPeriod time.Duration
}

// Global chart rate limiter instance
var chartRateLimiter *RateLimiter

// InitChartRateLimiter initializes the global chart rate limiter
func InitChartRateLimiter() {
	chartRateLimiter = NewRateLimiter(120, time.Minute)
	go chartRateLimiter.startCleanup()
}

// NewRateLimiter creates a new rate limiter
// maxRequests: requests allowed within the window
// windowPeriod: sliding window length
func NewRateLimiter(maxRequests int, windowPeriod time.Duration) *RateLimiter {
	return &RateLimiter{
		windows:      make(map[string]*requestWindow),
		maxRequests:  maxRequests,
		windowPeriod: windowPeriod,
	}
}

// startCleanup periodically removes expired windows
func (rl *RateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	for range ticker.C {
		rl.cleanup()
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for ip, w := range rl.windows {
		if now.Sub(w.FirstAt) > rl.windowPeriod {
			delete(rl.windows, ip)
		}
	}
}

// Allow records a request for an IP and reports whether it is within bounds
func (rl *RateLimiter) Allow(ip string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, exists := rl.windows[ip]

	if !exists || now.Sub(w.FirstAt) > rl.windowPeriod {
		rl.windows[ip] = &requestWindow{Count: 1, FirstAt: now}
		return true, rl.maxRequests - 1
	}

	w.Count++
	remaining := rl.maxRequests - w.Count
	if remaining < 0 {
		return false, 0
	}
	return true, remaining
}

// ChartRateLimitMiddleware bounds chart endpoint traffic per client IP
func ChartRateLimitMiddleware() gin.HandlerFunc {
	if chartRateLimiter == nil {
		InitChartRateLimiter()
	}

	return func(c *gin.Context) {
		ip := c.ClientIP()
		allowed, remaining := chartRateLimiter.Allow(ip)

		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests, slow down",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
