// Package browsertest provides in-memory sessions over static HTML for tests.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/go-scripts/ycscrape/internal/browser"
)

// Session serves pages from a fixed map of URL to markup.
type Session struct {
	mu      sync.Mutex
	pages   map[string]string
	doc     *goquery.Document
	url     string
	scripts []string
	closed  bool

	// OnExecute, when set, runs after every Execute call with the session
	// locked. It may only touch the session through SetHTML.
	OnExecute func(s *Session, script string)

	// NavigateErr, when set, is returned by every Navigate call.
	NavigateErr error
}

// NewSession returns a session that knows the given pages.
func NewSession(pages map[string]string) *Session {
	return &Session{pages: pages}
}

// SetHTML replaces the currently loaded document.
func (s *Session) SetHTML(html string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		panic(fmt.Sprintf("browsertest: bad fixture markup: %v", err))
	}
	s.doc = doc
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.NavigateErr != nil {
		return s.NavigateErr
	}
	html, ok := s.pages[url]
	if !ok {
		html = "<html><body></body></html>"
	}
	s.url = url
	s.SetHTML(html)
	return nil
}

// WaitFor never sleeps: a missing selector times out immediately.
func (s *Session) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc != nil && s.doc.Find(selector).Length() > 0 {
		return nil
	}
	return fmt.Errorf("%w after %s waiting for %q", browser.ErrTimeout, timeout, selector)
}

func (s *Session) Query(ctx context.Context, selector string) ([]browser.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return nil, errors.New("browsertest: no page loaded")
	}
	return browser.Select(s.doc.Selection, selector), nil
}

func (s *Session) HTML(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		return "", errors.New("browsertest: no page loaded")
	}
	return s.doc.Html()
}

func (s *Session) Execute(ctx context.Context, script string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scripts = append(s.scripts, script)
	if s.OnExecute != nil {
		s.OnExecute(s, script)
	}
	return nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Scripts returns every script passed to Execute.
func (s *Session) Scripts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.scripts...)
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// URL returns the last navigated address.
func (s *Session) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

// Factory hands out independent Sessions over the same pages.
type Factory struct {
	Pages map[string]string

	// Prepare, when set, is applied to every new session before it is returned.
	Prepare func(s *Session)

	// Err, when set, fails every NewSession call.
	Err error

	mu       sync.Mutex
	sessions []*Session
	active   int
	peak     int
}

func (f *Factory) NewSession(ctx context.Context) (browser.Session, error) {
	if f.Err != nil {
		return nil, f.Err
	}

	s := NewSession(f.Pages)
	if f.Prepare != nil {
		f.Prepare(s)
	}

	f.mu.Lock()
	f.sessions = append(f.sessions, s)
	f.active++
	if f.active > f.peak {
		f.peak = f.active
	}
	f.mu.Unlock()

	return &trackedSession{Session: s, factory: f}, nil
}

// Opened returns the number of sessions created so far.
func (f *Factory) Opened() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

// Open returns the number of sessions not yet closed.
func (f *Factory) Open() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

// Peak returns the highest number of simultaneously open sessions.
func (f *Factory) Peak() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.peak
}

type trackedSession struct {
	*Session
	factory *Factory
	once    sync.Once
}

func (t *trackedSession) Close() error {
	t.once.Do(func() {
		t.factory.mu.Lock()
		t.factory.active--
		t.factory.mu.Unlock()
	})
	return t.Session.Close()
}
