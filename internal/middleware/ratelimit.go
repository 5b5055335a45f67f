package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// RateLimiter limits every client IP to limit requests per window.
//
// Counters live in a per-router cache and expire one window after the
// client's first request. A non-positive limit disables the check.
//
// Response when limit exceeded:
//
//	HTTP/1.1 429 Too Many Requests
//	{
//	    "message": "rate limit exceeded",
//	    "timestamp": "..."
//	}
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if window <= 0 {
		window = time.Minute
	}
	counters := cache.New(window, 2*window)
	var mu sync.Mutex

	return func(c *gin.Context) {
		ip := c.ClientIP()

		mu.Lock()
		n, err := counters.IncrementInt(ip, 1)
		if err != nil {
			// first request of the window
			counters.SetDefault(ip, 1)
			n = 1
		}
		mu.Unlock()

		if n > limit {
			c.Header("Retry-After", "60")
			AbortWithError(c, http.StatusTooManyRequests, "rate limit exceeded", nil)
			return
		}
		c.Next()
	}
}
