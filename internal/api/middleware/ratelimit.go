package middleware

import (
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/tenderbridge/tender-ingest/internal/config"
	"github.com/tenderbridge/tender-ingest/internal/models"
)

// RateLimiter limits requests per client IP with a token bucket
type RateLimiter struct {
	config   config.RateLimitConfig
	clients  map[string]*rate.Limiter
	lastSeen map[string]time.Time
	mu       sync.Mutex
	done     chan struct{}
	once     sync.Once
}

// NewRateLimiter creates a new rate limiter and starts its cleanup loop
func NewRateLimiter(config config.RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		config:   config,
		clients:  make(map[string]*rate.Limiter),
		lastSeen: make(map[string]time.Time),
		done:     make(chan struct{}),
	}

	if config.CleanupInterval > 0 {
		go rl.cleanupClients()
	}

	return rl
}

// Middleware returns the rate limiting middleware
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := rl.getLimiter(c.ClientIP())

		if !limiter.Allow() {
			retryAfter := rl.retryAfter()

			c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", rl.config.RequestsPerMinute))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", fmt.Sprintf("%.0f", math.Ceil(retryAfter.Seconds())))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error:     "Rate limit exceeded",
				Message:   fmt.Sprintf("Too many requests. Try again in %v", retryAfter),
				Code:      "RATE_LIMITED",
				Timestamp: time.Now(),
				Path:      c.Request.URL.Path,
			})
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", rl.config.RequestsPerMinute))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", int(limiter.Tokens())))

		c.Next()
	}
}

// getLimiter gets or creates a rate limiter for a client
func (rl *RateLimiter) getLimiter(clientID string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lastSeen[clientID] = time.Now()

	if limiter, exists := rl.clients[clientID]; exists {
		return limiter
	}

	// Convert requests per minute to requests per second
	rps := rate.Limit(float64(rl.config.RequestsPerMinute) / 60.0)
	limiter := rate.NewLimiter(rps, max(rl.config.BurstSize, 1))
	rl.clients[clientID] = limiter

	return limiter
}

// retryAfter is the time for one token to become available
func (rl *RateLimiter) retryAfter() time.Duration {
	tokensPerSecond := float64(rl.config.RequestsPerMinute) / 60.0
	if tokensPerSecond <= 0 {
		return time.Minute
	}
	return time.Duration(float64(time.Second) / tokensPerSecond)
}

// cleanupClients removes idle client limiters
func (rl *RateLimiter) cleanupClients() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mu.Lock()
			cutoff := time.Now().Add(-rl.config.CleanupInterval * 2)
			for clientID, lastSeen := range rl.lastSeen {
				if lastSeen.Before(cutoff) {
					delete(rl.clients, clientID)
					delete(rl.lastSeen, clientID)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Stop ends the cleanup loop
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.done) })
}

// GetStats returns rate limiter statistics
func (rl *RateLimiter) GetStats() map[string]interface{} {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return map[string]interface{}{
		"active_clients":      len(rl.clients),
		"requests_per_minute": rl.config.RequestsPerMinute,
		"burst_size":          rl.config.BurstSize,
	}
}
