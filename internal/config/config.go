package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration holds the scraper settings. It is fixed once the run starts.
type Configuration struct {
	ListingURL       string `yaml:"listing_url"`
	DetailBaseURL    string `yaml:"detail_base_url"`
	DetailPathPrefix string `yaml:"detail_path_prefix"`

	TargetCount        int           `yaml:"target_count"`
	ListingSlack       int           `yaml:"listing_slack"`
	InitialWait        time.Duration `yaml:"initial_wait"`
	ScrollWait         time.Duration `yaml:"scroll_wait"`
	PageLoadTimeout    time.Duration `yaml:"page_load_timeout"`
	ListingTimeout     time.Duration `yaml:"listing_timeout"`
	RequestDelay       time.Duration `yaml:"request_delay"`
	CheckpointInterval int           `yaml:"checkpoint_interval"`
	MaxScrollAttempts  int           `yaml:"max_scroll_attempts"`
	StagnationLimit    int           `yaml:"stagnation_limit"`
	Workers            int           `yaml:"workers"`

	OutputFile     string `yaml:"output_file"`
	CheckpointFile string `yaml:"checkpoint_file"`
	MetricsFile    string `yaml:"metrics_file"`

	Browser   BrowserConfig `yaml:"browser"`
	Selectors Selectors     `yaml:"selectors"`

	ShowProgress bool `yaml:"show_progress"`
}

// BrowserConfig controls how render sessions are launched.
type BrowserConfig struct {
	Headless     bool   `yaml:"headless"`
	UserAgent    string `yaml:"user_agent"`
	WindowWidth  int    `yaml:"window_width"`
	WindowHeight int    `yaml:"window_height"`
}

// Selectors are the CSS selectors used against the listing and detail pages.
// List-valued selectors are tried in order until one matches.
type Selectors struct {
	Cards           []string `yaml:"cards"`
	Heading         string   `yaml:"heading"`
	Description     []string `yaml:"description"`
	Founder         string   `yaml:"founder"`
	FounderLinkedIn string   `yaml:"founder_linkedin"`
	PageLinkedIn    string   `yaml:"page_linkedin"`
}

// Default returns the settings the scraper ships with.
func Default() Configuration {
	return Configuration{
		ListingURL:         "https://www.ycombinator.com/companies",
		DetailBaseURL:      "https://www.ycombinator.com/companies/",
		DetailPathPrefix:   "/companies/",
		TargetCount:        500,
		ListingSlack:       50,
		InitialWait:        3 * time.Second,
		ScrollWait:         1500 * time.Millisecond,
		PageLoadTimeout:    10 * time.Second,
		ListingTimeout:     5 * time.Minute,
		RequestDelay:       500 * time.Millisecond,
		CheckpointInterval: 50,
		MaxScrollAttempts:  100,
		StagnationLimit:    5,
		Workers:            5,
		OutputFile:         "yc_startups.csv",
		CheckpointFile:     "yc_startups_progress.csv",
		Browser: BrowserConfig{
			Headless: true,
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
				"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			WindowWidth:  1920,
			WindowHeight: 1080,
		},
		Selectors: Selectors{
			Cards: []string{
				"a[class*='_company_']",
				"[class*='CompanyCard'], [class*='company-card'], a[href^='/companies/']",
			},
			Heading: "h1",
			Description: []string{
				"div[class*='prose']",
				"p[class*='description']",
				"div[class*='tagline']",
			},
			Founder:         "[class*='founder'], [class*='Founder']",
			FounderLinkedIn: "a[href*='linkedin.com']",
			PageLinkedIn:    "a[href*='linkedin.com/in/']",
		},
		ShowProgress: true,
	}
}

// LoadFile reads a YAML configuration file. Fields left out of the file keep
// their default values.
func LoadFile(path string) (Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Configuration{}, fmt.Errorf("failed to read configuration file: %w", err)
	}
	return LoadBytes(data)
}

// LoadBytes parses YAML configuration with ${VAR} environment expansion.
func LoadBytes(data []byte) (Configuration, error) {
	cfg := Default()
	if len(data) == 0 {
		return cfg, nil
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Configuration{}, fmt.Errorf("failed to parse YAML configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Configuration{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DetailURL returns the detail page address for a company slug.
func (c Configuration) DetailURL(slug string) string {
	return c.DetailBaseURL + slug
}

// ListingTarget is the number of cards the scroll phase tries to load.
func (c Configuration) ListingTarget() int {
	return c.TargetCount + c.ListingSlack
}

// Validate reports every setting that would make a run meaningless.
func (c Configuration) Validate() error {
	var errs []error

	if c.ListingURL == "" {
		errs = append(errs, errors.New("listing_url is required"))
	}
	if c.DetailBaseURL == "" {
		errs = append(errs, errors.New("detail_base_url is required"))
	}
	if c.DetailPathPrefix == "" {
		errs = append(errs, errors.New("detail_path_prefix is required"))
	}
	if c.TargetCount <= 0 {
		errs = append(errs, fmt.Errorf("target_count must be positive, got %d", c.TargetCount))
	}
	if c.ListingSlack < 0 {
		errs = append(errs, fmt.Errorf("listing_slack must not be negative, got %d", c.ListingSlack))
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.CheckpointInterval <= 0 {
		errs = append(errs, fmt.Errorf("checkpoint_interval must be positive, got %d", c.CheckpointInterval))
	}
	if c.MaxScrollAttempts <= 0 {
		errs = append(errs, fmt.Errorf("max_scroll_attempts must be positive, got %d", c.MaxScrollAttempts))
	}
	if c.StagnationLimit <= 0 {
		errs = append(errs, fmt.Errorf("stagnation_limit must be positive, got %d", c.StagnationLimit))
	}
	if c.PageLoadTimeout <= 0 {
		errs = append(errs, errors.New("page_load_timeout must be positive"))
	}
	if c.ListingTimeout <= 0 {
		errs = append(errs, errors.New("listing_timeout must be positive"))
	}
	if c.ScrollWait < 0 || c.RequestDelay < 0 || c.InitialWait < 0 {
		errs = append(errs, errors.New("wait intervals must not be negative"))
	}
	if c.OutputFile == "" {
		errs = append(errs, errors.New("output_file is required"))
	}
	if len(c.Selectors.Cards) == 0 || len(c.Selectors.Description) == 0 {
		errs = append(errs, errors.New("card and description selector lists must not be empty"))
	}
	if c.Selectors.Heading == "" || c.Selectors.Founder == "" {
		errs = append(errs, errors.New("heading and founder selectors are required"))
	}

	return errors.Join(errs...)
}
