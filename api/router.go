package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/inserate/api/handler"
	"github.com/use-agent/inserate/api/middleware"
	"github.com/use-agent/inserate/config"
	"github.com/use-agent/inserate/metrics"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → RequestID → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health and metrics stay outside auth so probes and scrapers always work.
func NewRouter(s handler.Searcher, stats handler.StatsSource, m *metrics.Metrics, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(gin.Logger())

	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(stats, startTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit, middleware.SearchCost))

	protected.GET("/inserate", handler.SearchQuery(s, cfg.Scraper.MaxPageCount))
	protected.POST("/search", handler.Search(s, cfg.Scraper.MaxPageCount))

	return r
}
