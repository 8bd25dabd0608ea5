package crawler

import (
	"context"

	"github.com/go-scripts/ycscrape/internal/browser"
	"github.com/go-scripts/ycscrape/internal/progress"
)

const scrollScript = "window.scrollTo(0, document.body.scrollHeight);"

// LoadEntities scrolls the listing until target cards are visible, growth
// stalls for StagnationLimit rounds, or MaxScrollAttempts is used up. It
// returns the last observed card count, which may be below target.
func (c *Crawler) LoadEntities(ctx context.Context, s browser.Session, target int) int {
	logger := c.logger.WithPrefix("scroll")
	logger.Info("loading companies via infinite scroll", "target", target)

	spin := progress.NewScrollSpinner(c.progressOut)
	spin.Start()
	defer spin.Stop()

	var loaded, last, stagnant int
	for attempt := 1; attempt <= c.config.MaxScrollAttempts; attempt++ {
		c.metrics.ScrollAttempts.Inc()

		if err := s.Execute(ctx, scrollScript); err != nil {
			logger.Debug("scroll failed", "attempt", attempt, "err", err)
		}
		sleep(ctx, c.config.ScrollWait)

		cards, err := browser.QueryFirst(ctx, s, c.config.Selectors.Cards...)
		if err != nil {
			logger.Debug("card query failed", "attempt", attempt, "err", err)
		}
		loaded = len(cards)

		if loaded == last {
			stagnant++
		} else {
			stagnant = 0
			logger.Info("loaded companies", "count", loaded)
			spin.Update(loaded, target)
		}
		last = loaded

		if stagnant >= c.config.StagnationLimit {
			logger.Warn("no new content loading, stopping scroll", "count", loaded, "attempt", attempt)
			break
		}
		if loaded >= target {
			break
		}
		if attempt == c.config.MaxScrollAttempts {
			logger.Warn("scroll attempts exhausted", "count", loaded, "target", target)
		}
	}

	c.metrics.EntitiesLoaded.Set(float64(loaded))
	return loaded
}
