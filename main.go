package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/go-scripts/ycscrape/internal/browser"
	"github.com/go-scripts/ycscrape/internal/config"
	"github.com/go-scripts/ycscrape/internal/crawler"
	"github.com/go-scripts/ycscrape/internal/metrics"
	"github.com/go-scripts/ycscrape/internal/writer"
	"github.com/go-scripts/ycscrape/ui"
)

// CLIFlags overrides individual configuration values. Zero values leave the
// file or default setting untouched.
type CLIFlags struct {
	Config      string `help:"Path to YAML configuration file" short:"f" type:"path"`
	Target      int    `help:"Number of companies to scrape" short:"n"`
	Workers     int    `help:"Number of concurrent detail fetchers" short:"c"`
	Output      string `help:"Output file (.csv or .xlsx)" short:"o"`
	Checkpoint  string `help:"Checkpoint file written during the run"`
	MetricsFile string `help:"Write Prometheus metrics to this textfile after the run"`
	Debug       bool   `help:"Enable debug logging"`
	Headful     bool   `help:"Show the browser window"`
	NoProgress  bool   `help:"Disable spinner and progress bar"`
}

func loadConfig(path string) (config.Configuration, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadFile(path)
}

func applyFlags(cfg config.Configuration, flags CLIFlags) (config.Configuration, error) {
	if flags.Target != 0 {
		cfg.TargetCount = flags.Target
	}
	if flags.Workers != 0 {
		cfg.Workers = flags.Workers
	}
	if flags.Output != "" {
		cfg.OutputFile = flags.Output
	}
	if flags.Checkpoint != "" {
		cfg.CheckpointFile = flags.Checkpoint
	}
	if flags.MetricsFile != "" {
		cfg.MetricsFile = flags.MetricsFile
	}
	if flags.Headful {
		cfg.Browser.Headless = false
	}
	if flags.NoProgress {
		cfg.ShowProgress = false
	}
	return cfg, cfg.Validate()
}

func newLogger(debug bool) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
	if debug {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

func run(ctx context.Context, cfg config.Configuration, logger *log.Logger) error {
	factory := browser.NewChromeFactory(cfg.Browser)
	defer factory.Close()

	m := metrics.New()
	opts := []crawler.Option{crawler.WithLogger(logger), crawler.WithMetrics(m)}
	if cfg.ShowProgress {
		opts = append(opts, crawler.WithProgress(os.Stderr))
	}
	c := crawler.New(cfg, factory, writer.New(logger), opts...)

	start := time.Now()
	res, err := c.Run(ctx)
	if err != nil {
		return err
	}

	if cfg.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("Failed to write metrics", "file", cfg.MetricsFile, "err", err)
		}
	}

	fmt.Println(ui.RenderSummary(ui.Summary{
		Loaded:    res.Loaded,
		Slugs:     res.Slugs,
		Attempted: res.Attempted,
		Failed:    res.Failed,
		Output:    res.Output,
		Elapsed:   time.Since(start),
		Records:   res.Records,
	}))
	return nil
}

func main() {
	var flags CLIFlags
	kong.Parse(&flags,
		kong.Name("ycscrape"),
		kong.Description("Scrape the Y Combinator company directory into CSV or XLSX."),
	)

	logger := newLogger(flags.Debug)

	cfg, err := loadConfig(flags.Config)
	if err != nil {
		logger.Fatal("Error loading configuration", "err", err)
	}
	cfg, err = applyFlags(cfg, flags)
	if err != nil {
		logger.Fatal("Invalid configuration", "err", err)
	}

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("Scrape failed", "err", err)
		os.Exit(1)
	}
}
