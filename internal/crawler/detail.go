package crawler

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/go-scripts/ycscrape/internal/browser"
	"github.com/go-scripts/ycscrape/internal/config"
	"github.com/go-scripts/ycscrape/internal/metrics"
	"github.com/go-scripts/ycscrape/internal/types"
)

// ErrNotFound means the detail page never rendered its heading.
var ErrNotFound = errors.New("company page not found")

const (
	maxRawDescription = 500
	maxFounderName    = 100
	maxFounders       = 5
)

// batchPattern matches codes such as S20, W21 or F25. It scans the whole
// page markup, so an unrelated token elsewhere on the page can win.
var batchPattern = regexp.MustCompile(`\b([SWF]\d{2})\b`)

// Strategy yields one candidate value for a field. An empty value with a nil
// error means "nothing here, try the next strategy".
type Strategy interface {
	Extract(ctx context.Context, s browser.Session) (string, error)
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(ctx context.Context, s browser.Session) (string, error)

func (f StrategyFunc) Extract(ctx context.Context, s browser.Session) (string, error) {
	return f(ctx, s)
}

// TextOf takes the trimmed text of the first element matching selector,
// cut to limit runes when limit is positive.
func TextOf(selector string, limit int) Strategy {
	return StrategyFunc(func(ctx context.Context, s browser.Session) (string, error) {
		elements, err := s.Query(ctx, selector)
		if err != nil {
			return "", err
		}
		if len(elements) == 0 {
			return "", nil
		}
		return truncate(strings.TrimSpace(elements[0].Text), limit), nil
	})
}

// MarkupMatch returns the first submatch of re in the rendered page markup.
func MarkupMatch(re *regexp.Regexp) Strategy {
	return StrategyFunc(func(ctx context.Context, s browser.Session) (string, error) {
		html, err := s.HTML(ctx)
		if err != nil {
			return "", err
		}
		m := re.FindStringSubmatch(html)
		if len(m) < 2 {
			return "", nil
		}
		return m[1], nil
	})
}

// DetailExtractor pulls a CompanyRecord out of one company detail page.
type DetailExtractor struct {
	config  config.Configuration
	logger  *log.Logger
	metrics *metrics.Metrics
	limiter *rate.Limiter

	name        []Strategy
	batch       []Strategy
	description []Strategy
}

// NewDetailExtractor builds the per-field strategy lists from cfg.Selectors.
// limiter paces page loads across all callers and may be nil.
func NewDetailExtractor(cfg config.Configuration, logger *log.Logger, m *metrics.Metrics, limiter *rate.Limiter) *DetailExtractor {
	d := &DetailExtractor{
		config:  cfg,
		logger:  logger,
		metrics: m,
		limiter: limiter,
		name:    []Strategy{TextOf(cfg.Selectors.Heading, 0)},
		batch:   []Strategy{MarkupMatch(batchPattern)},
	}
	for _, selector := range cfg.Selectors.Description {
		d.description = append(d.description, TextOf(selector, maxRawDescription))
	}
	return d
}

// Extract loads the detail page for slug in s and reads every field. It fails
// only when the page cannot be loaded; a failing field is left empty.
// ErrNotFound is returned when the heading does not appear in time.
func (d *DetailExtractor) Extract(ctx context.Context, s browser.Session, slug string) (types.CompanyRecord, error) {
	record := types.CompanyRecord{Slug: slug}
	url := d.config.DetailURL(slug)

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return record, err
		}
	}

	navCtx, cancel := context.WithTimeout(ctx, d.config.PageLoadTimeout)
	err := s.Navigate(navCtx, url)
	cancel()
	if err != nil {
		return record, err
	}

	if err := s.WaitFor(ctx, d.config.Selectors.Heading, d.config.PageLoadTimeout); err != nil {
		if errors.Is(err, browser.ErrTimeout) {
			return record, fmt.Errorf("%w: %s: %v", ErrNotFound, slug, err)
		}
		return record, err
	}

	record.Name = d.field(ctx, s, slug, "name", d.name)
	record.Batch = d.field(ctx, s, slug, "batch", d.batch)
	record.Description = d.field(ctx, s, slug, "description", d.description)

	names, links, err := d.founders(ctx, s)
	if err != nil {
		d.fieldFailed(slug, "founders", err)
	}
	record.FounderNames = names
	record.FounderLinks = links

	return record, nil
}

// field returns the first non-empty value produced by strategies.
func (d *DetailExtractor) field(ctx context.Context, s browser.Session, slug, name string, strategies []Strategy) string {
	for _, strategy := range strategies {
		value, err := safely(func() (string, error) { return strategy.Extract(ctx, s) })
		if err != nil {
			d.fieldFailed(slug, name, err)
			continue
		}
		if value != "" {
			return value
		}
	}
	return ""
}

func (d *DetailExtractor) fieldFailed(slug, field string, err error) {
	d.metrics.FieldErrors.WithLabelValues(field).Inc()
	d.logger.Debug("field extraction failed", "slug", slug, "field", field, "err", err)
}

// founders reads names and LinkedIn URLs from founder-marked elements and
// falls back to every LinkedIn profile link on the page when the cards have
// none. Both lists are capped at maxFounders.
func (d *DetailExtractor) founders(ctx context.Context, s browser.Session) (names, links []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic reading founders: %v", r)
		}
	}()

	sel := d.config.Selectors

	cards, cardErr := s.Query(ctx, sel.Founder)
	for _, card := range cards {
		name := firstLine(card.Text)
		if name != "" && utf8.RuneCountInString(name) < maxFounderName {
			names = append(names, name)
		}

		anchors, findErr := card.Find(sel.FounderLinkedIn)
		if findErr != nil {
			continue
		}
		if len(anchors) > 0 {
			if href := anchors[0].Attr("href"); href != "" {
				links = append(links, href)
			}
		}
	}

	if len(links) == 0 && sel.PageLinkedIn != "" {
		anchors, pageErr := s.Query(ctx, sel.PageLinkedIn)
		if pageErr != nil {
			return capList(names), nil, errors.Join(cardErr, pageErr)
		}
		seen := make(map[string]bool)
		for _, a := range anchors {
			href := a.Attr("href")
			if href == "" || seen[href] {
				continue
			}
			seen[href] = true
			links = append(links, href)
		}
	}

	return capList(names), capList(links), cardErr
}

// safely runs fn, turning a panic into an error.
func safely(fn func() (string, error)) (value string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func firstLine(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return strings.TrimSpace(line)
}

func capList(list []string) []string {
	if len(list) > maxFounders {
		return list[:maxFounders]
	}
	return list
}

func truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
