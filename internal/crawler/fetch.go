package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-scripts/ycscrape/internal/metrics"
	"github.com/go-scripts/ycscrape/internal/progress"
	"github.com/go-scripts/ycscrape/internal/queue"
	"github.com/go-scripts/ycscrape/internal/types"
)

// outcome is one finished detail page.
type outcome struct {
	slug   string
	record types.CompanyRecord
	err    error
}

// ScrapeAll fetches the detail pages of the first target slugs with at most
// Workers sessions open at once. Records are returned in completion order;
// failures and nameless pages are logged and dropped. Every time the
// accumulated count reaches a multiple of CheckpointInterval the whole set is
// written to CheckpointFile.
func (c *Crawler) ScrapeAll(ctx context.Context, slugs []string, target int) []types.CompanyRecord {
	return c.scrape(ctx, slugs, target).records
}

// batch is the outcome of one ScrapeAll pass.
type batch struct {
	records   []types.CompanyRecord
	attempted int
	failed    int
}

func (c *Crawler) scrape(ctx context.Context, slugs []string, target int) batch {
	logger := c.logger.WithPrefix("scrape")

	n := min(target, len(slugs))
	q := queue.New(slugs[:n]...)
	total := q.Len()
	if total == 0 {
		logger.Warn("no company pages to scrape")
		return batch{}
	}

	tracker := progress.New(c.progressOut)
	tracker.SetTotal(total)
	defer tracker.Finish()

	results := make(chan outcome)
	var wg sync.WaitGroup
	for i := 0; i < min(c.config.Workers, total); i++ {
		wg.Add(1)
		go c.worker(ctx, q, results, &wg)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var records []types.CompanyRecord
	done := 0
	for out := range results {
		done++
		ok := c.accept(out)
		tracker.Done(ok)
		if !ok {
			continue
		}

		records = append(records, out.record)
		logger.Debug("scraped company", "n", done, "total", total, "slug", out.slug, "name", out.record.Name)

		if c.config.CheckpointFile != "" && len(records)%c.config.CheckpointInterval == 0 {
			c.checkpoint(records)
		}
	}

	_, failed := tracker.Counts()
	return batch{records: records, attempted: q.Taken(), failed: failed}
}

// worker drains q, one session per slug.
func (c *Crawler) worker(ctx context.Context, q *queue.Queue, results chan<- outcome, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		slug, ok := q.Next()
		if !ok {
			return
		}
		results <- c.fetch(ctx, slug)
	}
}

// fetch opens a dedicated session for slug and always closes it.
func (c *Crawler) fetch(ctx context.Context, slug string) (out outcome) {
	out.slug = slug
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			out.err = fmt.Errorf("panic while scraping: %v", r)
		}
		c.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	}()

	session, err := c.factory.NewSession(ctx)
	if err != nil {
		out.err = fmt.Errorf("failed to open session: %w", err)
		return out
	}
	c.metrics.SessionsOpen.Inc()
	defer func() {
		session.Close()
		c.metrics.SessionsOpen.Dec()
	}()

	out.record, out.err = c.detail.Extract(ctx, session, slug)
	return out
}

// accept logs and counts out, reporting whether its record should be kept.
func (c *Crawler) accept(out outcome) bool {
	logger := c.logger.WithPrefix("scrape")

	switch {
	case errors.Is(out.err, ErrNotFound):
		c.metrics.PagesFetched.WithLabelValues(metrics.ResultNotFound).Inc()
		logger.Error("failed to scrape", "slug", out.slug, "err", out.err)
		return false
	case out.err != nil:
		c.metrics.PagesFetched.WithLabelValues(metrics.ResultError).Inc()
		logger.Error("failed to scrape", "slug", out.slug, "err", out.err)
		return false
	case out.record.Name == "":
		c.metrics.PagesFetched.WithLabelValues(metrics.ResultEmptyName).Inc()
		logger.Warn("skipping company without a name", "slug", out.slug)
		return false
	}

	c.metrics.PagesFetched.WithLabelValues(metrics.ResultOK).Inc()
	return true
}

// checkpoint overwrites the progress file with the full current set.
func (c *Crawler) checkpoint(records []types.CompanyRecord) {
	if err := c.sink.WriteRecords(records, c.config.CheckpointFile); err != nil {
		c.logger.WithPrefix("backup").Error("failed to save progress", "err", err)
		return
	}
	c.metrics.Checkpoints.Inc()
	c.logger.WithPrefix("backup").Info("progress saved", "count", len(records), "path", c.config.CheckpointFile)
}
