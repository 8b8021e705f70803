// Package config provides configuration management for the communes crawler.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults matching the historical extraction run.
const (
	DefaultSourceURL  = "https://fr.wikipedia.org/wiki/Liste_des_anciennes_communes_de_la_Haute-Corse"
	DefaultCodePrefix = "2B"
	DefaultLatitude   = 42.15
	DefaultLongitude  = 9.08
	DefaultOutputPath = "communes.csv"
	DefaultTimeoutSec = 30
	DefaultUserAgent  = "communes-crawler/1.0 (historical records extraction)"

	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Configuration validation errors.
var (
	ErrMissingSourceURL    = errors.New("source.url is required")
	ErrInvalidSourceURL    = errors.New("source.url must be an absolute http(s) URL")
	ErrInvalidBaseURL      = errors.New("source.base_url must be an absolute http(s) URL")
	ErrInvalidCodePrefix   = errors.New("region.code_prefix is required")
	ErrInvalidLatitude     = errors.New("region.default_latitude must be within [-90, 90]")
	ErrInvalidLongitude    = errors.New("region.default_longitude must be within [-180, 180]")
	ErrInvalidTimeout      = errors.New("fetch.timeout_sec must be at least 1")
	ErrMissingOutputPath   = errors.New("output.path is required")
	ErrInvalidOutputFormat = errors.New("output.format must be 'csv' or 'xlsx'")
	ErrInvalidLogLevel     = errors.New("logging.level must be one of: debug, info, warn, error")
)

// Config represents the complete crawler configuration.
type Config struct {
	Crawler CrawlerConfig `yaml:"crawler"`
}

// CrawlerConfig contains crawler-specific settings.
type CrawlerConfig struct {
	Source  SourceConfig  `yaml:"source"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
	Region  RegionConfig  `yaml:"region"`
	Fetch   FetchConfig   `yaml:"fetch"`
}

// SourceConfig locates the index document.
type SourceConfig struct {
	URL string `yaml:"url"`
	// BaseURL resolves relative commune links. Defaults to URL.
	BaseURL string `yaml:"base_url"`
}

// RegionConfig holds the regional acceptance rule and fallback point.
type RegionConfig struct {
	CodePrefix       string  `yaml:"code_prefix"`
	DefaultLatitude  float64 `yaml:"default_latitude"`
	DefaultLongitude float64 `yaml:"default_longitude"`
}

// FetchConfig defines transport behavior. There is no retry policy.
type FetchConfig struct {
	UserAgent  string `yaml:"user_agent"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// OutputConfig defines where records go.
type OutputConfig struct {
	Path        string `yaml:"path"`
	Format      string `yaml:"format"`
	ArchivePath string `yaml:"archive_path"`
	Preview     bool   `yaml:"preview"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a configuration that reproduces the historical run.
func DefaultConfig() *Config {
	return &Config{
		Crawler: CrawlerConfig{
			Source: SourceConfig{
				URL: DefaultSourceURL,
			},
			Region: RegionConfig{
				CodePrefix:       DefaultCodePrefix,
				DefaultLatitude:  DefaultLatitude,
				DefaultLongitude: DefaultLongitude,
			},
			Fetch: FetchConfig{
				TimeoutSec: DefaultTimeoutSec,
				UserAgent:  DefaultUserAgent,
			},
			Output: OutputConfig{
				Path:   DefaultOutputPath,
				Format: FormatCSV,
			},
			Logging: LoggingConfig{
				Level: "info",
			},
		},
	}
}

// LoadConfig loads configuration from a YAML file on top of the defaults.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to a YAML file.
func (c *Config) SaveConfig(filepath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	src := c.Crawler.Source
	if src.URL == "" {
		return ErrMissingSourceURL
	}

	if !isAbsoluteHTTP(src.URL) {
		return fmt.Errorf("%w: %q", ErrInvalidSourceURL, src.URL)
	}

	if src.BaseURL != "" && !isAbsoluteHTTP(src.BaseURL) {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, src.BaseURL)
	}

	region := c.Crawler.Region
	if region.CodePrefix == "" {
		return ErrInvalidCodePrefix
	}

	if region.DefaultLatitude < -90 || region.DefaultLatitude > 90 {
		return ErrInvalidLatitude
	}

	if region.DefaultLongitude < -180 || region.DefaultLongitude > 180 {
		return ErrInvalidLongitude
	}

	if c.Crawler.Fetch.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	out := c.Crawler.Output
	if out.Path == "" {
		return ErrMissingOutputPath
	}

	if out.Format != FormatCSV && out.Format != FormatXLSX {
		return ErrInvalidOutputFormat
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Crawler.Logging.Level] {
		return ErrInvalidLogLevel
	}

	return nil
}

// GetTimeout returns the per-fetch timeout.
func (f *FetchConfig) GetTimeout() time.Duration {
	return time.Duration(f.TimeoutSec) * time.Second
}

// GetBaseURL returns the locator commune links are resolved against.
func (s *SourceConfig) GetBaseURL() string {
	if s.BaseURL != "" {
		return s.BaseURL
	}

	return s.URL
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Source: %s, Prefix: %s, Output: %s (%s)}",
		c.Crawler.Source.URL,
		c.Crawler.Region.CodePrefix,
		c.Crawler.Output.Path,
		c.Crawler.Output.Format,
	)
}

func isAbsoluteHTTP(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
