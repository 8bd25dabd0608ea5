package crawler

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/go-scripts/ycscrape/internal/browser"
	"github.com/go-scripts/ycscrape/internal/config"
	"github.com/go-scripts/ycscrape/internal/metrics"
	"github.com/go-scripts/ycscrape/internal/types"
)

// RecordWriter persists a complete record set to path, replacing what was there.
type RecordWriter interface {
	WriteRecords(records []types.CompanyRecord, path string) error
}

// Crawler drives the listing scroll, slug extraction and detail fetching.
type Crawler struct {
	config      config.Configuration
	factory     browser.Factory
	sink        RecordWriter
	logger      *log.Logger
	metrics     *metrics.Metrics
	progressOut io.Writer
	detail      *DetailExtractor
}

// Option customises a Crawler.
type Option func(*Crawler)

// WithLogger sets the logger. Components log under their own prefix.
func WithLogger(logger *log.Logger) Option {
	return func(c *Crawler) { c.logger = logger }
}

// WithMetrics records run metrics into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Crawler) { c.metrics = m }
}

// WithProgress draws the scroll spinner and fetch progress bar to w.
func WithProgress(w io.Writer) Option {
	return func(c *Crawler) { c.progressOut = w }
}

// New creates a Crawler. The configuration is copied and never changed.
func New(cfg config.Configuration, factory browser.Factory, sink RecordWriter, opts ...Option) *Crawler {
	c := &Crawler{
		config:  cfg,
		factory: factory,
		sink:    sink,
		logger:  log.Default(),
		metrics: metrics.New(),
	}
	for _, opt := range opts {
		opt(c)
	}

	limiter := rate.NewLimiter(rate.Every(cfg.RequestDelay), 1)
	c.detail = NewDetailExtractor(cfg, c.logger.WithPrefix("detail"), c.metrics, limiter)
	return c
}

// Result summarises a finished run.
type Result struct {
	Loaded    int
	Slugs     int
	Attempted int
	Failed    int
	Records   []types.CompanyRecord
	Output    string
}

// Run executes the whole pipeline and writes the output file.
func (c *Crawler) Run(ctx context.Context) (Result, error) {
	var res Result

	slugs, loaded, err := c.collectSlugs(ctx)
	if err != nil {
		return res, err
	}
	res.Loaded = loaded
	res.Slugs = len(slugs)

	c.logger.Info("starting concurrent scraping", "pages", min(c.config.TargetCount, len(slugs)), "workers", c.config.Workers)
	b := c.scrape(ctx, slugs, c.config.TargetCount)
	res.Records = b.records
	res.Attempted = b.attempted
	res.Failed = b.failed

	if err := c.sink.WriteRecords(res.Records, c.config.OutputFile); err != nil {
		return res, fmt.Errorf("failed to write results: %w", err)
	}
	if len(res.Records) > 0 {
		res.Output = c.config.OutputFile
		c.metrics.RecordsWritten.Add(float64(len(res.Records)))
	}
	return res, nil
}

// collectSlugs opens the listing, scrolls it and parses the company slugs.
// The listing session is closed before it returns.
func (c *Crawler) collectSlugs(ctx context.Context) ([]string, int, error) {
	session, err := c.factory.NewSession(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open listing session: %w", err)
	}
	c.metrics.SessionsOpen.Inc()
	defer func() {
		session.Close()
		c.metrics.SessionsOpen.Dec()
		c.logger.Debug("listing session closed")
	}()

	c.logger.Info("opening company directory", "url", c.config.ListingURL)
	navCtx, cancel := context.WithTimeout(ctx, c.config.ListingTimeout)
	err = session.Navigate(navCtx, c.config.ListingURL)
	cancel()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open listing: %w", err)
	}
	sleep(ctx, c.config.InitialWait)

	loaded := c.LoadEntities(ctx, session, c.config.ListingTarget())

	slugs, err := c.ExtractIdentifiers(ctx, session)
	if err != nil {
		return nil, loaded, err
	}
	return slugs, loaded, nil
}

// sleep pauses for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
