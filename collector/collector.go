// Package collector walks search result pages and turns listing cards into
// models.Listing records.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/inserate/metrics"
	"github.com/use-agent/inserate/models"
	"github.com/use-agent/inserate/query"
	"github.com/use-agent/inserate/session"
)

// DefaultNavigationTimeout bounds a single page load.
const DefaultNavigationTimeout = 120 * time.Second

// pageOutcome is the result of loading one result page.
type pageOutcome int

const (
	pageLoaded pageOutcome = iota
	pageTimedOut
	pageFailed
)

func (o pageOutcome) String() string {
	switch o {
	case pageLoaded:
		return metrics.PageLoaded
	case pageTimedOut:
		return metrics.PageTimeout
	default:
		return metrics.PageFailed
	}
}

// Options configures a Collector.
type Options struct {
	// BaseURL is the site origin. Default: query.DefaultBaseURL.
	BaseURL string

	// NavigationTimeout bounds each page load. Default: 120s.
	NavigationTimeout time.Duration

	// Metrics is optional.
	Metrics *metrics.Metrics
}

// Collector runs searches against a shared session.Manager. It is safe for
// concurrent use; every Collect call works on its own page.
type Collector struct {
	sessions   session.Manager
	baseURL    string
	navTimeout time.Duration
	metrics    *metrics.Metrics
}

// New creates a Collector.
func New(sessions session.Manager, opts Options) *Collector {
	if opts.BaseURL == "" {
		opts.BaseURL = query.DefaultBaseURL
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = DefaultNavigationTimeout
	}
	return &Collector{
		sessions:   sessions,
		baseURL:    opts.BaseURL,
		navTimeout: opts.NavigationTimeout,
		metrics:    opts.Metrics,
	}
}

// Collect walks req.PageCount result pages and returns their listings in
// page order.
//
// Failure policy:
//   - page 1 cannot be loaded or extracted: *models.ScrapeError, no results.
//   - a later page cannot be loaded or extracted: the walk stops and the
//     listings collected so far are returned with a nil error.
//   - strict search and the page shows the empty-result banner: the page
//     contributes nothing and the walk continues.
func (c *Collector) Collect(ctx context.Context, req *models.SearchRequest) ([]models.Listing, error) {
	start := time.Now()
	listings, err := c.collect(ctx, req)

	status := "ok"
	if err != nil {
		status = "error"
	}
	c.metrics.ObserveSearch(status, time.Since(start))
	return listings, err
}

func (c *Collector) collect(ctx context.Context, req *models.SearchRequest) ([]models.Listing, error) {
	pageCount := req.PageCount
	if pageCount < 1 {
		pageCount = 1
	}

	page, err := c.sessions.NewPage(ctx)
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to acquire page",
			err,
		)
	}
	c.metrics.PageAcquired()
	defer func() {
		if closeErr := c.sessions.ClosePage(page); closeErr != nil {
			slog.Warn("failed to release page", "error", closeErr)
		}
		c.metrics.PageReleased()
	}()

	firstURL := query.BuildSearchURL(c.baseURL, req, 1)
	if outcome, err := c.load(page, firstURL, false); outcome != pageLoaded {
		return nil, navigationError(outcome, err)
	}

	results := make([]models.Listing, 0)
	for i := 1; i <= pageCount; i++ {
		pageListings, err := c.walkPage(page, req.StrictSearch)
		if err != nil {
			if i == 1 {
				return nil, models.NewScrapeError(
					models.ErrCodeExtraction,
					"failed to extract listings",
					err,
				)
			}
			slog.Warn("extraction failed, stopping pagination",
				"page", i,
				"error", err,
			)
			break
		}
		results = append(results, pageListings...)

		if i == pageCount {
			break
		}

		nextURL := query.BuildSearchURL(c.baseURL, req, i+1)
		if outcome, err := c.load(page, nextURL, true); outcome != pageLoaded {
			slog.Warn("failed to load page, stopping pagination",
				"page", i+1,
				"url", nextURL,
				"outcome", outcome.String(),
				"error", err,
			)
			break
		}
	}

	slog.Debug("search collected",
		"pages", pageCount,
		"listings", len(results),
	)
	return results, nil
}

// load navigates page to url. Later pages additionally wait for the network
// to settle because the site lazy-loads parts of the result list.
func (c *Collector) load(page session.Page, url string, waitIdle bool) (pageOutcome, error) {
	outcome, err := c.navigate(page, url, waitIdle)
	c.metrics.ObservePage(outcome.String())
	return outcome, err
}

func (c *Collector) navigate(page session.Page, url string, waitIdle bool) (pageOutcome, error) {
	if err := page.Goto(url, c.navTimeout); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return pageTimedOut, err
		}
		return pageFailed, err
	}
	if waitIdle {
		if err := page.WaitForNetworkIdle(); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return pageTimedOut, err
			}
			return pageFailed, err
		}
	}
	return pageLoaded, nil
}

// walkPage extracts the currently loaded result page.
func (c *Collector) walkPage(page session.Page, strict bool) ([]models.Listing, error) {
	empty, err := hasEmptyResultBanner(page)
	if err != nil {
		c.metrics.ObservePage(metrics.PageExtractFailed)
		return nil, fmt.Errorf("check empty result banner: %w", err)
	}
	if empty && strict {
		c.metrics.ObservePage(metrics.PageEmpty)
		return nil, nil
	}

	listings, err := ExtractListings(page, c.baseURL)
	if err != nil {
		c.metrics.ObservePage(metrics.PageExtractFailed)
		return nil, err
	}
	c.metrics.AddListings(len(listings))
	return listings, nil
}

// navigationError converts a failed first-page load into a ScrapeError.
func navigationError(outcome pageOutcome, err error) *models.ScrapeError {
	if outcome == pageTimedOut {
		return models.NewScrapeError(
			models.ErrCodeTimeout,
			"timed out loading search results",
			err,
		)
	}
	return models.NewScrapeError(
		models.ErrCodeNavigation,
		"failed to load search results",
		err,
	)
}
