package engine

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/use-agent/inserate/session"
	"golang.org/x/net/html"
)

// matcherCache holds compiled selectors keyed by their source text.
// The collector queries the same handful of selectors on every page.
var matcherCache sync.Map // string -> cascadia.Selector

func compileSelector(css string) (cascadia.Selector, error) {
	if m, ok := matcherCache.Load(css); ok {
		return m.(cascadia.Selector), nil
	}
	sel, err := cascadia.Compile(css)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", css, err)
	}
	matcherCache.Store(css, sel)
	return sel, nil
}

// Document is a static, already-loaded page backed by goquery. It satisfies
// session.Page; Goto and WaitForNetworkIdle are no-ops.
type Document struct {
	doc *goquery.Document
}

// NewDocument parses r as HTML.
func NewDocument(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{doc: goquery.NewDocumentFromNode(root)}, nil
}

// NewDocumentFromString parses an HTML string.
func NewDocumentFromString(s string) (*Document, error) {
	return NewDocument(strings.NewReader(s))
}

func (d *Document) Goto(string, time.Duration) error { return nil }

func (d *Document) WaitForNetworkIdle() error { return nil }

func (d *Document) QuerySelector(css string) (session.Element, error) {
	return first(d.doc.Selection, css)
}

func (d *Document) QuerySelectorAll(css string) ([]session.Element, error) {
	m, err := compileSelector(css)
	if err != nil {
		return nil, err
	}
	matches := d.doc.FindMatcher(m)
	out := make([]session.Element, 0, matches.Length())
	matches.Each(func(_ int, s *goquery.Selection) {
		out = append(out, &element{sel: s})
	})
	return out, nil
}

// element wraps a single-node goquery selection.
type element struct {
	sel *goquery.Selection
}

func (e *element) Attribute(name string) (string, bool, error) {
	v, ok := e.sel.Attr(name)
	return v, ok, nil
}

func (e *element) InnerText() (string, error) {
	return innerText(e.sel.Text()), nil
}

func (e *element) QuerySelector(css string) (session.Element, error) {
	return first(e.sel, css)
}

func first(s *goquery.Selection, css string) (session.Element, error) {
	m, err := compileSelector(css)
	if err != nil {
		return nil, err
	}
	match := s.FindMatcher(m).First()
	if match.Length() == 0 {
		return nil, nil
	}
	return &element{sel: match}, nil
}

// innerText approximates the browser's rendered text: source indentation is
// dropped, runs of spaces collapse and non-empty lines are kept.
func innerText(raw string) string {
	lines := strings.Split(raw, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

var _ session.Page = (*Document)(nil)
