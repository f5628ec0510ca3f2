package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// RateLimiter is a per-client token bucket. Buckets refill continuously at
// the configured rate and idle clients are evicted during refills.
type RateLimiter struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	rate       float64 // tokens per second
	bucketSize float64
	lastSweep  time.Time
}

// NewRateLimiter creates a limiter allowing rate requests per second with
// bursts up to bucketSize.
func NewRateLimiter(rate, bucketSize float64) *RateLimiter {
	return &RateLimiter{
		buckets:    make(map[string]*bucket),
		rate:       rate,
		bucketSize: bucketSize,
		lastSweep:  time.Now(),
	}
}

// RateLimit is the gin middleware enforcing the limit per client IP.
func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		rl.mu.Lock()
		now := time.Now()

		b, exists := rl.buckets[ip]
		if !exists {
			b = &bucket{tokens: rl.bucketSize, lastRefill: now}
			rl.buckets[ip] = b
		}

		elapsed := now.Sub(b.lastRefill).Seconds()
		b.tokens = min(rl.bucketSize, b.tokens+elapsed*rl.rate)
		b.lastRefill = now

		if now.Sub(rl.lastSweep) > 10*time.Minute {
			rl.sweepLocked(now)
		}

		if b.tokens < 1 {
			rl.mu.Unlock()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			c.Abort()
			return
		}

		b.tokens--
		rl.mu.Unlock()

		c.Next()
	}
}

// sweepLocked drops buckets that have been idle long enough to refill
// completely. Caller holds the mutex.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	idle := time.Duration(rl.bucketSize/rl.rate) * time.Second
	if idle < time.Minute {
		idle = time.Minute
	}
	for ip, b := range rl.buckets {
		if now.Sub(b.lastRefill) > idle {
			delete(rl.buckets, ip)
		}
	}
	rl.lastSweep = now
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
