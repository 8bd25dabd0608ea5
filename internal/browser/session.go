package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ErrTimeout is returned by WaitFor when the selector never showed up.
var ErrTimeout = errors.New("wait timed out")

// Session is a single rendered browsing session. A session is owned by one
// goroutine at a time and must be closed by its owner.
type Session interface {
	// Navigate loads url in the session.
	Navigate(ctx context.Context, url string) error

	// WaitFor blocks until selector matches at least one element or the timeout expires.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error

	// Query returns every element currently matching selector.
	Query(ctx context.Context, selector string) ([]Element, error)

	// HTML returns the full rendered document markup.
	HTML(ctx context.Context) (string, error)

	// Execute runs a page-side script and discards its result.
	Execute(ctx context.Context, script string) error

	// Close tears the session down.
	Close() error
}

// Factory opens independent sessions.
type Factory interface {
	NewSession(ctx context.Context) (Session, error)
}

// Element is a snapshot of one rendered element.
type Element struct {
	Text       string            `json:"text"`
	HTML       string            `json:"html"`
	Attributes map[string]string `json:"attributes"`
}

// Attr returns the named attribute or "" when it is absent.
func (e Element) Attr(name string) string {
	return e.Attributes[name]
}

// Find runs selector against the element's descendants. The element itself
// never matches.
func (e Element) Find(selector string) ([]Element, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(e.HTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse element markup: %w", err)
	}
	root := doc.Find("body").Children().First()
	return Select(root, selector), nil
}

// Select converts every match of selector under sel into an Element.
func Select(sel *goquery.Selection, selector string) []Element {
	var elements []Element
	sel.Find(selector).Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, FromSelection(s))
	})
	return elements
}

// FromSelection snapshots the first node of s.
func FromSelection(s *goquery.Selection) Element {
	outer, _ := goquery.OuterHtml(s)
	el := Element{
		Text:       strings.TrimSpace(s.Text()),
		HTML:       outer,
		Attributes: make(map[string]string),
	}
	if node := s.Get(0); node != nil {
		for _, a := range node.Attr {
			el.Attributes[a.Key] = a.Val
		}
	}
	return el
}

// QueryFirst tries each selector in order and returns the matches of the
// first one that yields anything. Query errors count as no match.
func QueryFirst(ctx context.Context, s Session, selectors ...string) ([]Element, error) {
	var lastErr error
	for _, selector := range selectors {
		elements, err := s.Query(ctx, selector)
		if err != nil {
			lastErr = err
			continue
		}
		if len(elements) > 0 {
			return elements, nil
		}
	}
	return nil, lastErr
}
