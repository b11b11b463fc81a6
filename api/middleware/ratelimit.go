package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/inserate/config"
	"github.com/use-agent/inserate/models"
	"golang.org/x/time/rate"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// CostFunc reports how many tokens a request consumes.
type CostFunc func(c *gin.Context) int

// SearchCost charges one token per result page the search will walk.
// page_count is read from the query string or, for JSON bodies, from the
// body; the body is cached so the handler can bind it again.
func SearchCost(c *gin.Context) int {
	if v := c.Query("page_count"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		return 1
	}
	if c.Request.Method == http.MethodPost && c.ContentType() == gin.MIMEJSON {
		var body struct {
			PageCount int `json:"page_count"`
		}
		if err := c.ShouldBindBodyWithJSON(&body); err == nil {
			return body.PageCount
		}
	}
	return 1
}

// RateLimit returns per-identity (API key or IP) token-bucket rate limiting
// middleware powered by golang.org/x/time/rate.
//
// Each request takes cost(c) tokens, clamped to [1, Burst]; a nil cost
// charges one token. Entries unused for 1 hour are evicted by a background
// goroutine that runs every 5 minutes.
func RateLimit(cfg config.RateLimitConfig, cost CostFunc) gin.HandlerFunc {
	var mu sync.Mutex
	limiters := make(map[string]*limiterEntry)

	getLimiter := func(identity string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		entry, ok := limiters[identity]
		if !ok {
			entry = &limiterEntry{
				limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
			}
			limiters[identity] = entry
		}
		entry.lastSeen = time.Now()
		return entry.limiter
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			cutoff := time.Now().Add(-1 * time.Hour)
			mu.Lock()
			for id, entry := range limiters {
				if entry.lastSeen.Before(cutoff) {
					delete(limiters, id)
				}
			}
			mu.Unlock()
		}
	}()

	return func(c *gin.Context) {
		// Prefer API key as identity (set by auth middleware); fall back to IP.
		identity := c.GetString(APIKeyKey)
		if identity == "" {
			identity = c.ClientIP()
		}

		n := 1
		if cost != nil {
			n = min(max(cost(c), 1), max(cfg.Burst, 1))
		}

		if !getLimiter(identity).AllowN(time.Now(), n) {
			abortSearch(c, http.StatusTooManyRequests, models.ErrCodeRateLimited,
				"rate limit exceeded, please slow down")
			return
		}

		c.Next()
	}
}
