package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/use-agent/inserate/api"
	"github.com/use-agent/inserate/api/handler"
	"github.com/use-agent/inserate/collector"
	"github.com/use-agent/inserate/config"
	"github.com/use-agent/inserate/engine"
	"github.com/use-agent/inserate/metrics"
	"github.com/use-agent/inserate/scraper"
	"github.com/use-agent/inserate/session"
)

// backend is a session source that can also report its page usage.
type backend interface {
	session.Manager
	handler.StatsSource
}

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("inserate starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"fetchMode", cfg.Scraper.FetchMode,
		"maxPages", cfg.Browser.MaxPages,
	)

	// ── 3. Metrics registry ─────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// ── 4. Page source: headless browser or plain HTTP ──────────────
	var sessions backend
	switch cfg.Scraper.FetchMode {
	case config.FetchModeHTTP:
		sessions = engine.NewHTTPSession(cfg.Scraper.AcceptLanguage)
	default:
		sc, err := scraper.NewScraper(cfg.Browser, cfg.Scraper)
		if err != nil {
			slog.Error("failed to initialise scraper", "error", err)
			os.Exit(1)
		}
		defer sc.Close()
		sessions = sc
	}

	// ── 5. Collector ────────────────────────────────────────────────
	col := collector.New(sessions, collector.Options{
		BaseURL:           cfg.Scraper.BaseURL,
		NavigationTimeout: cfg.Scraper.NavigationTimeout,
		Metrics:           m,
	})

	// ── 6. Setup router ─────────────────────────────────────────────
	router := api.NewRouter(col, sessions, m, cfg, time.Now())

	// ── 7. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 8. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	drain := drainTimeout(cfg.Scraper)
	ctx, cancel := context.WithTimeout(context.Background(), drain)
	defer cancel()

	slog.Info("draining in-flight searches", "timeout", drain)
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("inserate stopped")
}

// drainTimeout allows one full page load to finish; longer walks are cut
// off when the browser closes.
func drainTimeout(cfg config.ScraperConfig) time.Duration {
	return cfg.NavigationTimeout + 5*time.Second
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg.Format == "text" {
		h = slog.NewTextHandler(os.Stdout, opts)
	} else {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(h))
}
