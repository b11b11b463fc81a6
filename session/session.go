// Package session defines the browser capability the listing collector runs
// against. Implementations live in scraper (go-rod) and engine (plain HTTP
// plus goquery).
package session

import (
	"context"
	"time"
)

// Manager hands out isolated pages. It is shared between concurrent
// searches; a Page it returns is owned by exactly one caller until
// ClosePage is called.
type Manager interface {
	// NewPage allocates a page bound to ctx. Cancelling ctx aborts any
	// in-flight operation on the page.
	NewPage(ctx context.Context) (Page, error)

	// ClosePage releases a page obtained from NewPage.
	ClosePage(p Page) error
}

// Page is a single navigable tab.
type Page interface {
	// Goto navigates to url and waits for the document to load.
	// It fails if loading takes longer than timeout.
	Goto(url string, timeout time.Duration) error

	// WaitForNetworkIdle blocks until the page stops changing.
	WaitForNetworkIdle() error

	// QuerySelector returns the first element matching css, or nil when
	// nothing matches. It does not wait for the element to appear.
	QuerySelector(css string) (Element, error)

	// QuerySelectorAll returns every element matching css in document order.
	QuerySelectorAll(css string) ([]Element, error)
}

// Element is an opaque handle to a DOM node.
type Element interface {
	// Attribute returns the attribute value and whether it is present.
	Attribute(name string) (string, bool, error)

	// InnerText returns the rendered text of the element.
	InnerText() (string, error)

	// QuerySelector returns the first descendant matching css, or nil.
	QuerySelector(css string) (Element, error)
}
