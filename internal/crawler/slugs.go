package crawler

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-scripts/ycscrape/internal/browser"
)

// ExtractIdentifiers returns the unique company slugs linked from the page,
// in first-seen order.
func (c *Crawler) ExtractIdentifiers(ctx context.Context, s browser.Session) ([]string, error) {
	prefix := c.config.DetailPathPrefix

	links, err := s.Query(ctx, fmt.Sprintf("a[href^='%s']", prefix))
	if err != nil {
		return nil, fmt.Errorf("failed to query company links: %w", err)
	}

	seen := make(map[string]bool, len(links))
	var slugs []string
	for _, link := range links {
		slug := ParseSlug(link.Attr("href"), prefix)
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		slugs = append(slugs, slug)
	}

	c.metrics.SlugsFound.Set(float64(len(slugs)))
	c.logger.WithPrefix("extract").Info("found unique company slugs", "count", len(slugs))
	return slugs, nil
}

// ParseSlug returns the path segment right after prefix, without any query,
// fragment or trailing segments. It returns "" when href has no such segment.
func ParseSlug(href, prefix string) string {
	idx := strings.LastIndex(href, prefix)
	if idx < 0 {
		return ""
	}
	rest := href[idx+len(prefix):]
	if end := strings.IndexAny(rest, "?#/"); end >= 0 {
		rest = rest[:end]
	}
	return rest
}
