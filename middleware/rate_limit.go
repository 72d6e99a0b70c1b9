package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/fesexport/backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

// RateLimiter counts requests per key in fixed windows.
type RateLimiter struct {
	mu        sync.Mutex
	tokens    map[string]int
	lastReset time.Time
	rate      int           // requests per window
	window    time.Duration // time window
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:    make(map[string]int),
		lastReset: time.Now(),
		rate:      rate,
		window:    window,
	}
}

// Allow records a request for key and reports whether it is within the limit.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if time.Since(l.lastReset) > l.window {
		l.tokens = make(map[string]int)
		l.lastReset = time.Now()
	}
	count := l.tokens[key]
	if count >= l.rate {
		return false
	}
	l.tokens[key] = count + 1
	return true
}

func limit(limiter *RateLimiter, scope string, key func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		k := key(c)
		if !limiter.Allow(k) {
			logger.Warn(c.Request.Context(), "rate limit exceeded",
				"scope", scope,
				"key", k,
				"client_ip", c.ClientIP(),
				"path", c.Request.URL.Path,
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			return
		}
		c.Next()
	}
}

// RateLimit middleware limits requests per IP
func RateLimit(rate int, window time.Duration) gin.HandlerFunc {
	return limit(NewRateLimiter(rate, window), "ip", func(c *gin.Context) string {
		return c.ClientIP()
	})
}

// PrincipalRateLimit limits authenticated requests per user principal, so one
// exporter's wizard traffic cannot use up a shared gateway address's budget.
// It must run after AuthMiddleware. A non-positive rate disables it.
func PrincipalRateLimit(rate int, window time.Duration) gin.HandlerFunc {
	if rate <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return limit(NewRateLimiter(rate, window), "principal", func(c *gin.Context) string {
		if p := GetIdentity(c).UserPrincipal; p != "" {
			return p
		}
		return c.ClientIP()
	})
}
