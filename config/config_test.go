package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Scraper.NavigationTimeout != 120*time.Second {
		t.Errorf("NavigationTimeout = %v, want 2m", cfg.Scraper.NavigationTimeout)
	}
	if cfg.Scraper.FetchMode != FetchModeBrowser {
		t.Errorf("FetchMode = %q, want %q", cfg.Scraper.FetchMode, FetchModeBrowser)
	}
	if cfg.Scraper.BaseURL != "https://www.kleinanzeigen.de" {
		t.Errorf("BaseURL = %q", cfg.Scraper.BaseURL)
	}
	if !cfg.Browser.Stealth {
		t.Error("Stealth should default to true")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("INSERATE_PORT", "9090")
	t.Setenv("INSERATE_NAV_TIMEOUT", "45s")
	t.Setenv("INSERATE_FETCH_MODE", "HTTP")
	t.Setenv("INSERATE_API_KEYS", "a, b ,,c")
	t.Setenv("INSERATE_HEADLESS", "false")
	t.Setenv("INSERATE_RATE_RPS", "0.5")

	cfg := Load()

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Scraper.NavigationTimeout != 45*time.Second {
		t.Errorf("NavigationTimeout = %v, want 45s", cfg.Scraper.NavigationTimeout)
	}
	if cfg.Scraper.FetchMode != FetchModeHTTP {
		t.Errorf("FetchMode = %q, want %q", cfg.Scraper.FetchMode, FetchModeHTTP)
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(cfg.Auth.APIKeys, want) {
		t.Errorf("APIKeys = %v, want %v", cfg.Auth.APIKeys, want)
	}
	if cfg.Browser.Headless {
		t.Error("Headless should be false")
	}
	if cfg.RateLimit.RequestsPerSecond != 0.5 {
		t.Errorf("RequestsPerSecond = %v, want 0.5", cfg.RateLimit.RequestsPerSecond)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("INSERATE_PORT", "eighty")
	t.Setenv("INSERATE_FETCH_MODE", "carrier-pigeon")
	t.Setenv("INSERATE_NAV_TIMEOUT", "soon")

	cfg := Load()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want fallback 8080", cfg.Server.Port)
	}
	if cfg.Scraper.FetchMode != FetchModeBrowser {
		t.Errorf("FetchMode = %q, want fallback", cfg.Scraper.FetchMode)
	}
	if cfg.Scraper.NavigationTimeout != 120*time.Second {
		t.Errorf("NavigationTimeout = %v, want fallback", cfg.Scraper.NavigationTimeout)
	}
}
