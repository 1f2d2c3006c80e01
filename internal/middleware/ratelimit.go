package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a sliding-window request counter keyed by client IP
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	clients map[string][]time.Time
	now     func() time.Time
}

// NewRateLimiter allows limit requests per client in every window
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		clients: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow records a request from key and reports whether it is within the limit
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	timestamps := r.clients[key]
	valid := timestamps[:0]
	for _, ts := range timestamps {
		if now.Sub(ts) < r.window {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= r.limit {
		r.clients[key] = valid
		return false
	}
	r.clients[key] = append(valid, now)
	return true
}

// Cleanup drops clients with no requests inside the window
func (r *RateLimiter) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for key, timestamps := range r.clients {
		if len(timestamps) == 0 || now.Sub(timestamps[len(timestamps)-1]) >= r.window {
			delete(r.clients, key)
		}
	}
}

// DefaultRequestsPerMinute applies when no positive limit is configured
const DefaultRequestsPerMinute = 100

// RateLimitingMiddleware rejects clients exceeding perMinute requests
func RateLimitingMiddleware(perMinute int) gin.HandlerFunc {
	if perMinute <= 0 {
		perMinute = DefaultRequestsPerMinute
	}
	return rateLimit(NewRateLimiter(perMinute, time.Minute))
}

func rateLimit(limiter *RateLimiter) gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(limiter.window.Seconds()))
	var requests int

	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"code":        "RATE_LIMITED",
				"retry_after": retryAfter,
			})
			return
		}

		// Idle clients are swept periodically instead of on every request
		limiter.mu.Lock()
		requests++
		sweep := requests%1000 == 0
		limiter.mu.Unlock()
		if sweep {
			limiter.Cleanup()
		}

		c.Next()
	}
}
