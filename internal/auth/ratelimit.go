package auth

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLimiter counts requests per client key within fixed,
// non-overlapping windows. A window starts at the first request seen
// from a client; once the count exceeds the maximum, further requests
// are rejected until the window elapses.
//
// Stale buckets are reset lazily on the next access, and a background
// sweep evicts buckets nobody touches anymore. Correctness never
// depends on the sweep; it only bounds memory.
type RequestLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rateBucket

	window        time.Duration
	maxRequests   int
	sweepInterval time.Duration
	stopSweep     chan struct{}
}

type rateBucket struct {
	windowStart time.Time
	count       int
}

// RequestLimitConfig contains configuration for the request limiter.
type RequestLimitConfig struct {
	Window        time.Duration // Fixed window duration (default: 15m)
	MaxRequests   int           // Requests allowed per window (default: 100)
	SweepInterval time.Duration // How often stale buckets are evicted (default: 5m)
}

// DefaultRequestLimitConfig returns sensible defaults for rate limiting.
func DefaultRequestLimitConfig() RequestLimitConfig {
	return RequestLimitConfig{
		Window:        15 * time.Minute,
		MaxRequests:   100,
		SweepInterval: 5 * time.Minute,
	}
}

// NewRequestLimiter creates a request limiter with the given configuration.
func NewRequestLimiter(cfg RequestLimitConfig) *RequestLimiter {
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 100
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 5 * time.Minute
	}

	rl := &RequestLimiter{
		buckets:       make(map[string]*rateBucket),
		window:        cfg.Window,
		maxRequests:   cfg.MaxRequests,
		sweepInterval: cfg.SweepInterval,
		stopSweep:     make(chan struct{}),
	}

	go rl.sweepLoop()

	return rl
}

// Stop halts the background sweep goroutine.
func (rl *RequestLimiter) Stop() {
	close(rl.stopSweep)
}

// Allow records one request for the client key and reports whether it
// is within the window's budget. The increment is atomic across
// concurrent requests from the same client. When the request is
// rejected, retryAfter says how long until the window resets.
func (rl *RequestLimiter) Allow(key string) (bool, time.Duration) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, exists := rl.buckets[key]
	if !exists {
		b = &rateBucket{windowStart: now}
		rl.buckets[key] = b
	} else if now.Sub(b.windowStart) >= rl.window {
		// Window elapsed, reset in place.
		b.windowStart = now
		b.count = 0
	}

	b.count++
	if b.count > rl.maxRequests {
		return false, b.windowStart.Add(rl.window).Sub(now)
	}
	return true, 0
}

// Middleware returns the Gin middleware enforcing the limit, keyed by
// client IP. It must run before any session or database work so that
// over-limit clients are rejected before stateful processing starts.
func (rl *RequestLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, retryAfter := rl.Allow(c.ClientIP())
		if !allowed {
			seconds := int(retryAfter/time.Second) + 1
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many requests",
				"retry_after": retryAfter.Truncate(time.Second).String(),
			})
			return
		}
		c.Next()
	}
}

// sweepLoop periodically evicts stale buckets.
func (rl *RequestLimiter) sweepLoop() {
	ticker := time.NewTicker(rl.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.stopSweep:
			return
		}
	}
}

// sweep removes buckets whose window has elapsed.
func (rl *RequestLimiter) sweep() {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, b := range rl.buckets {
		if now.Sub(b.windowStart) >= rl.window {
			delete(rl.buckets, key)
		}
	}
}
