package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	tls "github.com/refraction-networking/utls"
	"github.com/use-agent/inserate/models"
	"github.com/use-agent/inserate/session"
	"golang.org/x/net/html"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// ErrNotLoaded is returned when a page is queried before a successful Goto.
var ErrNotLoaded = errors.New("engine: page has no document loaded")

// ErrNeedsBrowser is returned when the fetched HTML is a script shell or a
// bot challenge rather than a rendered result page.
var ErrNeedsBrowser = errors.New("engine: response needs javascript rendering")

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to http/1.1
// only. Computed once at init time and reused for every connection.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	// Go's http.Transport cannot speak h2 over a utls connection.
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// HTTPSession is a session.Manager that fetches result pages over plain
// HTTP with a Chrome TLS fingerprint and parses them with goquery. The
// listing site renders search results server-side, so no browser is needed
// as long as it does not serve a challenge page.
type HTTPSession struct {
	client         *http.Client
	acceptLanguage string
	activePages    atomic.Int32
}

// NewHTTPSession creates an HTTPSession.
func NewHTTPSession(acceptLanguage string) *HTTPSession {
	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: 10 * time.Second}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			host, _, _ := net.SplitHostPort(addr)
			tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
			if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
				conn.Close()
				return nil, fmt.Errorf("http_session: apply tls spec: %w", err)
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		ForceAttemptHTTP2: false,
	}
	return &HTTPSession{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		acceptLanguage: acceptLanguage,
	}
}

// NewPage returns an empty page bound to ctx.
func (s *HTTPSession) NewPage(ctx context.Context) (session.Page, error) {
	s.activePages.Add(1)
	return &httpPage{ctx: ctx, s: s}, nil
}

// ClosePage drops the page's parsed document.
func (s *HTTPSession) ClosePage(p session.Page) error {
	hp, ok := p.(*httpPage)
	if !ok {
		return fmt.Errorf("http_session: foreign page type %T", p)
	}
	hp.doc = nil
	s.activePages.Add(-1)
	return nil
}

// Stats reports in-flight pages. HTTP mode has no pool bound, so MaxPages
// is always zero.
func (s *HTTPSession) Stats() models.PoolStats {
	return models.PoolStats{ActivePages: int(s.activePages.Load())}
}

type httpPage struct {
	ctx context.Context
	s   *HTTPSession
	doc *Document
}

func (p *httpPage) Goto(url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()

	body, err := p.s.fetch(ctx, url)
	if err != nil {
		return err
	}
	if needsBrowser(body) {
		return fmt.Errorf("%w: %s", ErrNeedsBrowser, url)
	}

	doc, err := NewDocument(bytes.NewReader(body))
	if err != nil {
		return err
	}
	p.doc = doc
	return nil
}

// WaitForNetworkIdle is a no-op: the whole document arrived with the response.
func (p *httpPage) WaitForNetworkIdle() error { return nil }

func (p *httpPage) QuerySelector(css string) (session.Element, error) {
	if p.doc == nil {
		return nil, ErrNotLoaded
	}
	return p.doc.QuerySelector(css)
}

func (p *httpPage) QuerySelectorAll(css string) ([]session.Element, error) {
	if p.doc == nil {
		return nil, ErrNotLoaded
	}
	return p.doc.QuerySelectorAll(css)
}

func (s *HTTPSession) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("http_session: build request: %w", err)
	}

	req.Header.Set("User-Agent", chromeUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "identity")
	if s.acceptLanguage != "" {
		req.Header.Set("Accept-Language", s.acceptLanguage)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http_session: do request: %w", err)
	}
	defer resp.Body.Close()

	// Read body with a 10 MB limit to prevent unbounded memory use.
	const maxBody = 10 << 20
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("http_session: read body: %w", err)
	}

	ct := resp.Header.Get("Content-Type")
	if resp.StatusCode >= 400 || !isHTMLContentType(ct) {
		return nil, fmt.Errorf("http_session: non-html or error status %d (content-type: %s)", resp.StatusCode, ct)
	}
	return body, nil
}

// isHTMLContentType returns true if the content-type header looks like HTML.
func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}

// needsBrowser reports whether body is a page that only makes sense after
// script execution: almost no visible text, or a noscript/captcha wall.
func needsBrowser(body []byte) bool {
	if len(extractVisibleText(body)) < 200 {
		return true
	}
	lower := bytes.ToLower(body)
	return bytes.Contains(lower, []byte("captcha-delivery")) ||
		bytes.Contains(lower, []byte("please enable javascript"))
}

// extractVisibleText extracts the visible text from within <body>, stripping
// all tags and <script>/<style> content.
func extractVisibleText(body []byte) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(body))
	var buf strings.Builder
	inBody := false
	skipDepth := 0

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return buf.String()
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			tag := string(tn)
			if tag == "body" {
				inBody = true
			}
			if tag == "script" || tag == "style" || tag == "noscript" {
				skipDepth++
			}
		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			tag := string(tn)
			if (tag == "script" || tag == "style" || tag == "noscript") && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if inBody && skipDepth == 0 {
				text := strings.TrimSpace(string(tokenizer.Text()))
				if text != "" {
					buf.WriteString(text)
					buf.WriteByte(' ')
				}
			}
		}
	}
}

var (
	_ session.Manager = (*HTTPSession)(nil)
	_ session.Page    = (*httpPage)(nil)
)
