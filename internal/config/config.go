// Package config loads event-enricher settings from an optional YAML file and
// the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/event-enricher/internal/organizer"
	"github.com/pfrederiksen/event-enricher/internal/scraper"
)

const (
	DefaultIndexURL   = "https://10times.com/events"
	DefaultSampleSize = 5
	DefaultOutputDir  = "."
	DefaultUserAgent  = scraper.UserAgent
	DefaultLookupURL  = organizer.DefaultLookupURL

	// APIKeyEnv holds the credential for the domain lookup API
	APIKeyEnv = "CLEARBIT_API_KEY"
)

// HTTP controls page fetching. Zero values keep the single-attempt,
// no-deadline behaviour.
type HTTP struct {
	UserAgent     string        `yaml:"user_agent"`
	Timeout       time.Duration `yaml:"timeout"`         // 0 = no client deadline
	RatePerSecond float64       `yaml:"rate_per_second"` // 0 = unlimited
	Burst         int           `yaml:"burst"`
	MaxRetries    int           `yaml:"max_retries"` // retries after the first attempt
	Backoff       time.Duration `yaml:"backoff"`     // initial backoff (e.g. 500ms)
	MaxBackoff    time.Duration `yaml:"max_backoff"` // cap (e.g. 10s)
}

// Lookup configures the external domain lookup
type Lookup struct {
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	CacheTTL time.Duration `yaml:"cache_ttl"` // 0 = cache for the whole run
}

// Batch configures the concurrent fetch
type Batch struct {
	Concurrency int `yaml:"concurrency"` // 0 = one goroutine per URL
}

type Config struct {
	IndexURL   string `yaml:"index_url"`
	SampleSize int    `yaml:"sample_size"`
	OutputDir  string `yaml:"output_dir"`
	HTTP       HTTP   `yaml:"http"`
	Lookup     Lookup `yaml:"lookup"`
	Batch      Batch  `yaml:"batch"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	c := &Config{SampleSize: DefaultSampleSize}
	c.applyDefaults()
	return c
}

// Load reads a YAML config file. An empty path returns Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c := &Config{SampleSize: DefaultSampleSize}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.IndexURL == "" {
		c.IndexURL = DefaultIndexURL
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.HTTP.UserAgent == "" {
		c.HTTP.UserAgent = DefaultUserAgent
	}
	if c.HTTP.Backoff == 0 {
		c.HTTP.Backoff = 500 * time.Millisecond
	}
	if c.HTTP.MaxBackoff == 0 {
		c.HTTP.MaxBackoff = 10 * time.Second
	}
	if c.HTTP.RatePerSecond > 0 && c.HTTP.Burst <= 0 {
		c.HTTP.Burst = 1
	}
	if c.Lookup.BaseURL == "" {
		c.Lookup.BaseURL = DefaultLookupURL
	}
}

// ApplyEnv overlays values from the environment. The API key from the
// environment wins over one in the file.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(APIKeyEnv); v != "" {
		c.Lookup.APIKey = v
	}
}

// Validate reports settings that cannot be used
func (c *Config) Validate() error {
	if c.SampleSize < 0 {
		return fmt.Errorf("sample_size must be >= 0, got %d", c.SampleSize)
	}
	if c.Batch.Concurrency < 0 {
		return fmt.Errorf("batch.concurrency must be >= 0, got %d", c.Batch.Concurrency)
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0, got %d", c.HTTP.MaxRetries)
	}
	if c.Lookup.CacheTTL < 0 {
		return errors.New("lookup.cache_ttl must not be negative")
	}
	if c.HTTP.Timeout < 0 {
		return errors.New("http.timeout must not be negative")
	}
	return nil
}
