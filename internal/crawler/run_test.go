package crawler

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-scripts/ycscrape/internal/browser"
	"github.com/go-scripts/ycscrape/internal/browser/browsertest"
	"github.com/go-scripts/ycscrape/internal/writer"
)

func TestRunEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	cfg.OutputFile = filepath.Join(dir, "yc_startups.csv")
	cfg.CheckpointFile = filepath.Join(dir, "progress.csv")
	cfg.TargetCount = 2
	cfg.ListingSlack = 1

	pages := map[string]string{
		cfg.ListingURL:      listingPage(3),
		cfg.DetailURL("c0"): detailPage("Zero", "S20", "First\ncompany", founder{"Ann", "https://linkedin.com/in/ann"}),
		cfg.DetailURL("c1"): detailPage("One", "W21", "Second company"),
		cfg.DetailURL("c2"): detailPage("Two", "F25", "Never fetched"),
	}
	factory := &browsertest.Factory{Pages: pages}

	c := newTestCrawler(t, cfg, factory, writer.New(discardLogger()))
	res, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Loaded)
	assert.Equal(t, 3, res.Slugs)
	assert.Equal(t, 2, res.Attempted)
	assert.Equal(t, 0, res.Failed)
	assert.Len(t, res.Records, 2)
	assert.Equal(t, cfg.OutputFile, res.Output)
	assert.Equal(t, 0, factory.Open())
	assert.Equal(t, 3, factory.Opened(), "one listing session plus one per company")

	f, err := os.Open(cfg.OutputFile)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, "No", rows[0][0])
	names := []string{rows[1][1], rows[2][1]}
	assert.ElementsMatch(t, []string{"Zero", "One"}, names)
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "2", rows[2][0])
	for _, row := range rows[1:] {
		if row[1] == "Zero" {
			assert.Equal(t, "First company", row[3])
			assert.Equal(t, "Ann", row[4])
		}
	}

	// fewer records than the checkpoint interval
	_, err = os.Stat(cfg.CheckpointFile)
	assert.True(t, os.IsNotExist(err))
}

func TestRunCountsSkippedCompanies(t *testing.T) {
	cfg := testConfig(t)
	cfg.OutputFile = filepath.Join(t.TempDir(), "out.csv")
	cfg.CheckpointFile = ""
	factory := &browsertest.Factory{Pages: map[string]string{
		cfg.ListingURL:      listingPage(3),
		cfg.DetailURL("c0"): detailPage("Zero", "S20", ""),
		cfg.DetailURL("c1"): "<html><body><p>gone</p></body></html>",
	}}

	c := newTestCrawler(t, cfg, factory, writer.New(discardLogger()))
	res, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Attempted)
	assert.Equal(t, 2, res.Failed)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Zero", res.Records[0].Name)
}

func TestRunNoCompaniesWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	cfg.OutputFile = filepath.Join(t.TempDir(), "out.csv")
	factory := &browsertest.Factory{Pages: map[string]string{
		cfg.ListingURL: "<html><body><p>empty</p></body></html>",
	}}

	c := newTestCrawler(t, cfg, factory, writer.New(discardLogger()))
	res, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, res.Records)
	assert.Empty(t, res.Output)
	_, err = os.Stat(cfg.OutputFile)
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, 0, factory.Open())
}

func TestRunListingFailureReleasesSession(t *testing.T) {
	cfg := testConfig(t)
	boom := errors.New("dns failure")
	factory := &browsertest.Factory{
		Prepare: func(s *browsertest.Session) { s.NavigateErr = boom },
	}

	c := newTestCrawler(t, cfg, factory, newRecordingSink())
	_, err := c.Run(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, factory.Opened())
	assert.Equal(t, 0, factory.Open())
}

func TestRunSinkFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.TargetCount = 1
	cfg.ListingSlack = 0
	factory := &browsertest.Factory{Pages: map[string]string{
		cfg.ListingURL:      listingPage(1),
		cfg.DetailURL("c0"): detailPage("Zero", "", ""),
	}}
	sink := newRecordingSink()
	sink.err = errors.New("read-only filesystem")

	c := newTestCrawler(t, cfg, factory, sink)
	_, err := c.Run(context.Background())

	assert.ErrorIs(t, err, sink.err)
}

// deadlineFactory records how long each Navigate was allowed to take.
type deadlineFactory struct {
	*browsertest.Factory
	budgets []time.Duration
}

func (f *deadlineFactory) NewSession(ctx context.Context) (browser.Session, error) {
	s, err := f.Factory.NewSession(ctx)
	if err != nil {
		return nil, err
	}
	return &deadlineSession{Session: s, f: f}, nil
}

type deadlineSession struct {
	browser.Session
	f *deadlineFactory
}

func (s *deadlineSession) Navigate(ctx context.Context, url string) error {
	if deadline, ok := ctx.Deadline(); ok {
		s.f.budgets = append(s.f.budgets, time.Until(deadline))
	}
	return s.Session.Navigate(ctx, url)
}

func TestRunListingUsesListingTimeout(t *testing.T) {
	cfg := testConfig(t)
	cfg.PageLoadTimeout = time.Second
	cfg.ListingTimeout = time.Hour
	factory := &deadlineFactory{Factory: &browsertest.Factory{Pages: map[string]string{
		cfg.ListingURL: "<html><body><p>empty</p></body></html>",
	}}}

	c := New(cfg, factory, newRecordingSink(), WithLogger(discardLogger()))
	_, err := c.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, factory.budgets, 1)
	assert.Greater(t, factory.budgets[0], 59*time.Minute)
}
