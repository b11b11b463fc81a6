package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var longText = strings.Repeat("Gebrauchtes Fahrrad in gutem Zustand zu verkaufen. ", 8)

func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprintf(w, `<html><body><h1 id="lang">%s</h1><p>%s</p></body></html>`,
				r.Header.Get("Accept-Language"), longText)
		case "/shell":
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<html><body><div id="app"></div><script>boot()</script></body></html>`)
		case "/json":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{}`)
		case "/slow":
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPSession_Goto(t *testing.T) {
	srv := newTestSite(t)
	s := NewHTTPSession("de-DE,de;q=0.9")

	page, err := s.NewPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, s.Stats().ActivePages)

	require.NoError(t, page.Goto(srv.URL+"/ok", 5*time.Second))
	require.NoError(t, page.WaitForNetworkIdle())

	el, err := page.QuerySelector("#lang")
	require.NoError(t, err)
	require.NotNil(t, el)
	text, err := el.InnerText()
	require.NoError(t, err)
	assert.Equal(t, "de-DE,de;q=0.9", text)

	require.NoError(t, s.ClosePage(page))
	assert.Equal(t, 0, s.Stats().ActivePages)
}

func TestHTTPSession_GotoErrors(t *testing.T) {
	srv := newTestSite(t)
	s := NewHTTPSession("")

	tests := []struct {
		name    string
		path    string
		timeout time.Duration
		check   func(t *testing.T, err error)
	}{
		{"script shell", "/shell", 5 * time.Second, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrNeedsBrowser)
		}},
		{"not html", "/json", 5 * time.Second, func(t *testing.T, err error) {
			assert.ErrorContains(t, err, "non-html")
		}},
		{"not found", "/missing", 5 * time.Second, func(t *testing.T, err error) {
			assert.ErrorContains(t, err, "404")
		}},
		{"timeout", "/slow", 50 * time.Millisecond, func(t *testing.T, err error) {
			assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := s.NewPage(context.Background())
			require.NoError(t, err)
			defer s.ClosePage(page)

			err = page.Goto(srv.URL+tt.path, tt.timeout)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestHTTPSession_QueryBeforeGoto(t *testing.T) {
	s := NewHTTPSession("")
	page, err := s.NewPage(context.Background())
	require.NoError(t, err)

	_, err = page.QuerySelector("body")
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = page.QuerySelectorAll("body")
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestHTTPSession_ClosePageForeignType(t *testing.T) {
	s := NewHTTPSession("")
	d, err := NewDocumentFromString("<html></html>")
	require.NoError(t, err)
	assert.Error(t, s.ClosePage(d))
}

func TestNeedsBrowser(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"rendered", "<html><body><p>" + longText + "</p></body></html>", false},
		{"empty shell", `<html><body><div id="root"></div></body></html>`, true},
		{"script text ignored", "<html><body><script>" + longText + "</script></body></html>", true},
		{"captcha", "<html><body><p>" + longText + `</p><iframe src="https://geo.captcha-delivery.com/x"></iframe></body></html>`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, needsBrowser([]byte(tt.body)))
		})
	}
}
