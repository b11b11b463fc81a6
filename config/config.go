package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Fetch modes for ScraperConfig.FetchMode.
const (
	FetchModeBrowser = "browser"
	FetchModeHTTP    = "http"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent searches).
	MaxPages int // default: 10

	// DefaultProxy is the proxy URL for all browser traffic.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Stealth injects navigator.webdriver masking into every page.
	Stealth bool // default: true
}

// ScraperConfig controls search behaviour.
type ScraperConfig struct {
	// BaseURL is the listing site origin.
	BaseURL string // default: "https://www.kleinanzeigen.de"

	// NavigationTimeout bounds a single result page load.
	NavigationTimeout time.Duration // default: 120s

	// MaxPageCount caps page_count from the client.
	MaxPageCount int // default: 20

	// FetchMode selects the page source: "browser" (Rod) or "http".
	FetchMode string // default: "browser"

	// BlockedResourceTypes lists resource types to block in browser mode.
	// default: ["Image", "Stylesheet", "Font", "Media"]
	BlockedResourceTypes []string

	// BlockAds blocks known ad/tracker hosts in browser mode.
	BlockAds bool // default: true

	// AcceptLanguage is sent with every page request.
	AcceptLanguage string // default: "de-DE,de;q=0.9"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per API key.
	Burst int // default: 5
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("INSERATE_HOST", "0.0.0.0"),
			Port: envIntOr("INSERATE_PORT", 8080),
			Mode: envOr("INSERATE_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("INSERATE_HEADLESS", true),
			MaxPages:     envIntOr("INSERATE_MAX_PAGES", 10),
			DefaultProxy: os.Getenv("INSERATE_PROXY"),
			NoSandbox:    envBoolOr("INSERATE_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("INSERATE_BROWSER_BIN"),
			Stealth:      envBoolOr("INSERATE_STEALTH", true),
		},
		Scraper: ScraperConfig{
			BaseURL:           envOr("INSERATE_BASE_URL", "https://www.kleinanzeigen.de"),
			NavigationTimeout: envDurationOr("INSERATE_NAV_TIMEOUT", 120*time.Second),
			MaxPageCount:      envIntOr("INSERATE_MAX_PAGE_COUNT", 20),
			FetchMode:         envOneOf("INSERATE_FETCH_MODE", FetchModeBrowser, FetchModeBrowser, FetchModeHTTP),
			BlockedResourceTypes: envSliceOr("INSERATE_BLOCKED_RESOURCES", []string{
				"Image", "Stylesheet", "Font", "Media",
			}),
			BlockAds:       envBoolOr("INSERATE_BLOCK_ADS", true),
			AcceptLanguage: envOr("INSERATE_ACCEPT_LANGUAGE", "de-DE,de;q=0.9"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("INSERATE_AUTH_ENABLED", true),
			APIKeys: envSliceOr("INSERATE_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("INSERATE_RATE_RPS", 2.0),
			Burst:             envIntOr("INSERATE_RATE_BURST", 5),
		},
		Log: LogConfig{
			Level:  envOr("INSERATE_LOG_LEVEL", "info"),
			Format: envOr("INSERATE_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envOneOf returns the env value if it is one of allowed, else fallback.
func envOneOf(key, fallback string, allowed ...string) string {
	v := strings.ToLower(os.Getenv(key))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
