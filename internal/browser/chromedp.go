package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/go-scripts/ycscrape/internal/config"
)

// ChromeFactory launches one headless Chrome per session so sessions share no
// browsing state.
type ChromeFactory struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromeFactory sets up the exec allocator used by every session.
func NewChromeFactory(cfg config.BrowserConfig) *ChromeFactory {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("headless", cfg.Headless),
	)
	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &ChromeFactory{
		allocCtx:    allocCtx,
		allocCancel: cancel,
	}
}

// NewSession starts a fresh browser. The caller must Close it.
func (f *ChromeFactory) NewSession(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	browserCtx, cancel := chromedp.NewContext(f.allocCtx)
	// an empty Run launches the browser so start-up failures surface here
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &ChromeSession{ctx: browserCtx, cancel: cancel}, nil
}

// Close releases the allocator. Sessions should be closed first.
func (f *ChromeFactory) Close() {
	f.allocCancel()
}

// ChromeSession is a Session backed by one chromedp browser context.
type ChromeSession struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// run executes actions on the session's browser while honouring ctx.
func (s *ChromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

func (s *ChromeSession) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := s.run(timeoutCtx, chromedp.WaitReady(selector, chromedp.ByQuery))
	if err == nil {
		return nil
	}
	if errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s waiting for %q", ErrTimeout, timeout, selector)
	}
	return fmt.Errorf("waiting for %q failed: %w", selector, err)
}

// queryJS collects text, outer markup and attributes of every match.
const queryJS = `
(() => {
	const elements = document.querySelectorAll(%q);
	const results = [];
	elements.forEach(el => {
		const attributes = {};
		for (let i = 0; i < el.attributes.length; i++) {
			const attr = el.attributes[i];
			attributes[attr.name] = attr.value;
		}
		results.push({
			text: (el.innerText || el.textContent || '').trim(),
			html: el.outerHTML,
			attributes: attributes
		});
	});
	return JSON.stringify(results);
})()`

func (s *ChromeSession) Query(ctx context.Context, selector string) ([]Element, error) {
	var raw string
	if err := s.run(ctx, chromedp.Evaluate(fmt.Sprintf(queryJS, selector), &raw)); err != nil {
		return nil, fmt.Errorf("query %q failed: %w", selector, err)
	}

	var elements []Element
	if err := json.Unmarshal([]byte(raw), &elements); err != nil {
		return nil, fmt.Errorf("failed to decode query %q results: %w", selector, err)
	}
	return elements, nil
}

func (s *ChromeSession) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return html, nil
}

func (s *ChromeSession) Execute(ctx context.Context, script string) error {
	if err := s.run(ctx, chromedp.Evaluate(script, nil)); err != nil {
		return fmt.Errorf("script execution failed: %w", err)
	}
	return nil
}

// Close shuts the browser down. It is safe to call more than once.
func (s *ChromeSession) Close() error {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return nil
}
