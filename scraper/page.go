package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/inserate/models"
	"github.com/use-agent/inserate/session"
	"github.com/ysmood/gson"
)

// networkIdleTimeout bounds WaitForNetworkIdle.
const networkIdleTimeout = 30 * time.Second

// NewPage borrows a tab from the pool and prepares it for a search.
//
// Lifecycle (numbered steps match the inline comments):
//
//  1. Acquire page           – borrow a tab from the pool (or create one)
//  2. Stealth injection      – mask navigator.webdriver etc. (before navigation!)
//  3. Extra headers          – Accept-Language + Google Referer
//  4. Hijack mount           – block images/CSS/fonts/media (before navigation!)
//  5. Context binding        – propagate the caller's context to all Rod operations
//
// Everything installed here is torn down again in ClosePage, which the
// caller must always invoke.
func (s *Scraper) NewPage(ctx context.Context) (session.Page, error) {
	// ── 1. Acquire page from pool ─────────────────────────────────────
	page, err := s.pagePool.Get(func() (*rod.Page, error) {
		return s.browser.Page(proto.TargetCreateTarget{})
	})
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to acquire page from pool",
			err,
		)
	}
	s.activePages.Add(1)

	rp := &rodPage{raw: page}

	// ── 2. Stealth injection ──────────────────────────────────────────
	if s.browserCfg.Stealth {
		remove, evalErr := page.EvalOnNewDocument(stealth.JS)
		if evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", evalErr,
			)
		} else {
			rp.removeStealth = remove
		}
	}

	// ── 3. Extra headers ─────────────────────────────────────────────
	extraHeaders := make(map[string]string, 2)
	if s.scraperCfg.AcceptLanguage != "" {
		extraHeaders["Accept-Language"] = s.scraperCfg.AcceptLanguage
	}
	if u, parseErr := url.Parse(s.scraperCfg.BaseURL); parseErr == nil && u.Hostname() != "" {
		extraHeaders["Referer"] = "https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())
	}
	if len(extraHeaders) > 0 {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(extraHeaders),
		}.Call(page)
	}

	// ── 4. Mount hijack router (blocks Image/Stylesheet/Font/Media + ads) ──
	rp.router = setupHijack(page, s.scraperCfg.BlockedResourceTypes, s.scraperCfg.BlockAds)

	// ── 5. Bind request context to page ───────────────────────────────
	rp.p = page.Context(ctx)

	return rp, nil
}

// ClosePage undoes NewPage and returns the tab to the pool.
//
// about:blank is loaded through the ORIGINAL page reference (without the
// request context), so cleanup succeeds even if the request context has
// already expired.
func (s *Scraper) ClosePage(sp session.Page) error {
	rp, ok := sp.(*rodPage)
	if !ok {
		return fmt.Errorf("scraper: foreign page type %T", sp)
	}
	defer s.activePages.Add(-1)

	if rp.router != nil {
		_ = rp.router.Stop()
	}
	if rp.removeStealth != nil {
		_ = rp.removeStealth()
	}
	if navErr := rp.raw.Navigate("about:blank"); navErr != nil {
		slog.Warn("cleanup: failed to navigate to about:blank",
			"error", navErr,
		)
	}
	s.pagePool.Put(rp.raw)
	return nil
}

// rodPage adapts a rod tab to session.Page.
type rodPage struct {
	raw           *rod.Page // pool reference, no request context
	p             *rod.Page // bound to the request context
	router        *rod.HijackRouter
	removeStealth func() error
}

// Goto navigates and waits for the load event, both under timeout.
func (rp *rodPage) Goto(target string, timeout time.Duration) error {
	tp := rp.p.Timeout(timeout)
	defer tp.CancelTimeout()

	if err := tp.Navigate(target); err != nil {
		return fmt.Errorf("navigate %s: %w", target, err)
	}
	if err := tp.WaitLoad(); err != nil {
		return fmt.Errorf("wait load %s: %w", target, err)
	}
	return nil
}

// WaitForNetworkIdle waits for the DOM to settle.
// NOTE: WaitRequestIdle uses the Fetch domain which conflicts with
// HijackRequests on Chromium 145+, so DOM stability stands in for it.
func (rp *rodPage) WaitForNetworkIdle() error {
	tp := rp.p.Timeout(networkIdleTimeout)
	defer tp.CancelTimeout()
	return tp.WaitDOMStable(300*time.Millisecond, 0.1)
}

func (rp *rodPage) QuerySelector(css string) (session.Element, error) {
	has, el, err := rp.p.Has(css)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, nil
	}
	return &rodElement{el: el}, nil
}

func (rp *rodPage) QuerySelectorAll(css string) ([]session.Element, error) {
	els, err := rp.p.Elements(css)
	if err != nil {
		return nil, err
	}
	out := make([]session.Element, len(els))
	for i, el := range els {
		out[i] = &rodElement{el: el}
	}
	return out, nil
}

// rodElement adapts a rod element to session.Element.
type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Attribute(name string) (string, bool, error) {
	v, err := e.el.Attribute(name)
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (e *rodElement) InnerText() (string, error) {
	return e.el.Text()
}

func (e *rodElement) QuerySelector(css string) (session.Element, error) {
	has, el, err := e.el.Has(css)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, nil
	}
	return &rodElement{el: el}, nil
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
