package crawler

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/go-scripts/ycscrape/internal/browser/browsertest"
	"github.com/go-scripts/ycscrape/internal/config"
	"github.com/go-scripts/ycscrape/internal/metrics"
	"github.com/go-scripts/ycscrape/internal/types"
)

// testConfig returns the default configuration without any waiting.
func testConfig(t *testing.T) config.Configuration {
	t.Helper()
	cfg := config.Default()
	cfg.InitialWait = 0
	cfg.ScrollWait = 0
	cfg.RequestDelay = 0
	cfg.PageLoadTimeout = time.Second
	cfg.CheckpointFile = "progress.csv"
	cfg.ShowProgress = false
	return cfg
}

func discardLogger() *log.Logger {
	return log.New(io.Discard)
}

// recordingSink remembers the size of every write per path.
type recordingSink struct {
	mu     sync.Mutex
	writes map[string][]int
	last   map[string][]types.CompanyRecord
	err    error
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		writes: make(map[string][]int),
		last:   make(map[string][]types.CompanyRecord),
	}
}

func (s *recordingSink) WriteRecords(records []types.CompanyRecord, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if len(records) == 0 {
		return nil
	}
	s.writes[path] = append(s.writes[path], len(records))
	s.last[path] = append([]types.CompanyRecord(nil), records...)
	return nil
}

func (s *recordingSink) sizes(path string) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes[path]
}

func newTestCrawler(t *testing.T, cfg config.Configuration, f *browsertest.Factory, sink RecordWriter) *Crawler {
	t.Helper()
	return New(cfg, f, sink, WithLogger(discardLogger()), WithMetrics(metrics.New()))
}

type founder struct {
	name     string
	linkedin string
}

// detailPage renders a minimal company page.
func detailPage(name, batch, desc string, founders ...founder) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<h1>%s</h1>", name)
	if batch != "" {
		fmt.Fprintf(&b, `<span class="pill">%s</span>`, batch)
	}
	if desc != "" {
		fmt.Fprintf(&b, `<div class="prose max-w-full">%s</div>`, desc)
	}
	for _, f := range founders {
		b.WriteString(`<div class="founder-card">`)
		fmt.Fprintf(&b, "%s\nFounder/CEO", f.name)
		if f.linkedin != "" {
			fmt.Fprintf(&b, ` <a href="%s">LinkedIn</a>`, f.linkedin)
		}
		b.WriteString("</div>")
	}
	b.WriteString("</body></html>")
	return b.String()
}

// listingPage renders n company cards.
func listingPage(n int) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `<a class="_company_abc" href="/companies/c%d">Company %d</a>`, i, i)
	}
	b.WriteString("</body></html>")
	return b.String()
}
