package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/inserate/api/middleware"
	"github.com/use-agent/inserate/models"
	"github.com/use-agent/inserate/webhook"
)

// Searcher walks result pages for a request. *collector.Collector
// satisfies it.
type Searcher interface {
	Collect(ctx context.Context, req *models.SearchRequest) ([]models.Listing, error)
}

// searchCompleted is the data of a search.completed webhook event.
type searchCompleted struct {
	Count    int                   `json:"count"`
	Request  *models.SearchRequest `json:"request"`
	Listings []models.Listing      `json:"listings"`
}

// Search returns a handler for POST /api/v1/search (JSON body).
func Search(s Searcher, maxPageCount int) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req models.SearchRequest
		if err := c.ShouldBindBodyWithJSON(&req); err != nil {
			respondInvalid(c, err, start)
			return
		}
		runSearch(c, s, &req, maxPageCount, start)
	}
}

// SearchQuery returns a handler for GET /api/v1/inserate (query string).
func SearchQuery(s Searcher, maxPageCount int) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req models.SearchRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			respondInvalid(c, err, start)
			return
		}
		runSearch(c, s, &req, maxPageCount, start)
	}
}

func runSearch(c *gin.Context, s Searcher, req *models.SearchRequest, maxPageCount int, start time.Time) {
	req.Defaults()
	req.ClampPages(maxPageCount)

	requestID := c.GetString(middleware.RequestIDKey)
	slog.Info("search started",
		"request_id", requestID,
		"query", req.Query,
		"location", req.Location,
		"page_count", req.PageCount,
		"strict", req.StrictSearch,
	)

	listings, err := s.Collect(c.Request.Context(), req)
	timing := models.TimingInfo{TotalMs: time.Since(start).Milliseconds()}
	if err != nil {
		slog.Warn("search failed", "request_id", requestID, "error", err)
		respondError(c, err, timing)
		return
	}
	if listings == nil {
		listings = []models.Listing{}
	}

	slog.Info("search finished",
		"request_id", requestID,
		"count", len(listings),
		"total_ms", timing.TotalMs,
	)

	if req.WebhookURL != "" {
		echo := *req
		echo.WebhookSecret = ""
		webhook.DeliverAsync(req.WebhookURL, req.WebhookSecret, webhook.NewEvent(
			webhook.EventSearchCompleted,
			requestID,
			searchCompleted{Count: len(listings), Request: &echo, Listings: listings},
		), nil)
	}

	c.JSON(http.StatusOK, models.SearchResponse{
		Success: true,
		Count:   len(listings),
		Data:    listings,
		Timing:  timing,
	})
}

func respondInvalid(c *gin.Context, err error, start time.Time) {
	c.JSON(http.StatusBadRequest, models.SearchResponse{
		Success: false,
		Data:    []models.Listing{},
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeInvalidInput,
			Message: err.Error(),
		},
		Timing: models.TimingInfo{TotalMs: time.Since(start).Milliseconds()},
	})
}

// respondError maps a ScrapeError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error, timing models.TimingInfo) {
	var scrapeErr *models.ScrapeError
	if !errors.As(err, &scrapeErr) {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, "search failed", err)
	}

	c.JSON(mapErrorToStatus(scrapeErr), models.SearchResponse{
		Success: false,
		Data:    []models.Listing{},
		Error:   scrapeErr.ToDetail(),
		Timing:  timing,
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation:
		return http.StatusBadGateway // 502
	case models.ErrCodeBrowserCrash:
		return http.StatusServiceUnavailable // 503
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
