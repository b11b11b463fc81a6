package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/inserate/collector"
	"github.com/use-agent/inserate/config"
	"github.com/use-agent/inserate/engine"
	"github.com/use-agent/inserate/metrics"
	"github.com/use-agent/inserate/models"
)

const filler = `<p>Kleinanzeigen - Kostenlos. Einfach. Lokal. Anzeigen gratis inserieren mit Kleinanzeigen.
Jetzt entdecken, kaufen und verkaufen in deiner Nachbarschaft. Meine Suchen, Merkliste, Nachrichten,
Hilfe und Kontakt. Sicherheitshinweise beachten.</p>`

func sitePage(ids ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body>` + filler + `<ul>`)
	for _, id := range ids {
		fmt.Fprintf(&b, `<li class="ad-listitem"><article class="aditem" data-adid="%s" data-href="/s-anzeige/%s">
<div class="aditem-main"><div class="aditem-main--top"><div class="aditem-main--top--left">10115 Mitte (2 km)</div></div>
<div class="aditem-main--middle"><h2 class="text-module-begin"><a class="ellipsis" href="/s-anzeige/%s">Anzeige %s</a></h2>
<p class="aditem-main--middle--price-shipping--price">1.250 € VB</p></div></div></article></li>`, id, id, id, id)
	}
	b.WriteString(`</ul></body></html>`)
	return b.String()
}

// newSite serves two result pages for the keyword "rad".
func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		switch r.URL.Path {
		case "/s-seite:1":
			fmt.Fprint(w, sitePage("1", "2"))
		case "/s-seite:2":
			fmt.Fprint(w, sitePage("3"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestRouter(t *testing.T, baseURL string, authEnabled bool) *gin.Engine {
	t.Helper()
	cfg := &config.Config{
		Server:    config.ServerConfig{Mode: gin.TestMode},
		Scraper:   config.ScraperConfig{BaseURL: baseURL, NavigationTimeout: 5 * time.Second, MaxPageCount: 3},
		Auth:      config.AuthConfig{Enabled: authEnabled, APIKeys: []string{"key"}},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
	}
	m := metrics.New(prometheus.NewRegistry())
	sessions := engine.NewHTTPSession("de-DE")
	col := collector.New(sessions, collector.Options{
		BaseURL:           cfg.Scraper.BaseURL,
		NavigationTimeout: cfg.Scraper.NavigationTimeout,
		Metrics:           m,
	})
	return NewRouter(col, sessions, m, cfg, time.Now())
}

func TestRouter_SearchEndToEnd(t *testing.T) {
	site := newSite(t)
	r := newTestRouter(t, site.URL, false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/inserate?page_count=3", nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Equal(t, 3, resp.Count)
	assert.Equal(t, "1", resp.Data[0].AdID)
	assert.Equal(t, "3", resp.Data[2].AdID)
	assert.Equal(t, site.URL+"/s-anzeige/1", resp.Data[0].URL)
	assert.Equal(t, "1250", resp.Data[0].Price)
	assert.Equal(t, 2.0, resp.Data[0].Distance)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_AuthProtectsSearchOnly(t *testing.T) {
	site := newSite(t)
	r := newTestRouter(t, site.URL, true)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", "key")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "inserate_searches_total")
}
