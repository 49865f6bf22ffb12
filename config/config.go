package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Mode selects which variant of a run is executed.
type Mode string

const (
	// ModeMirror downloads every discovered page and builds the offline index.
	ModeMirror Mode = "mirror"
	// ModeSitemaps archives the raw sitemap XML tree without downloading pages.
	ModeSitemaps Mode = "sitemaps"
)

// Config holds run configuration.
type Config struct {
	BaseURL      string
	Mode         Mode
	MaxPages     int // 0 means no cap
	OutputDir    string
	Timeout      time.Duration
	PageDelay    time.Duration
	SitemapDelay time.Duration
	UserAgent    string
	CacheSize    int
	FeedBuffer   int
	ListenAddr   string
	Verbose      bool
}

// DefaultConfig returns conservative defaults matching the polite-crawl
// posture of the tool.
func DefaultConfig() *Config {
	return &Config{
		Mode:         ModeMirror,
		MaxPages:     0,
		OutputDir:    "offline_website",
		Timeout:      30 * time.Second,
		PageDelay:    500 * time.Millisecond,
		SitemapDelay: time.Second,
		UserAgent:    "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		CacheSize:    128,
		FeedBuffer:   1024,
		ListenAddr:   ":8080",
		Verbose:      false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return fmt.Errorf("base URL must be absolute with scheme and host")
	}

	if c.Mode != ModeMirror && c.Mode != ModeSitemaps {
		return fmt.Errorf("mode must be %q or %q", ModeMirror, ModeSitemaps)
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("max pages cannot be negative")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.PageDelay < 0 {
		return fmt.Errorf("page delay cannot be negative")
	}
	if c.SitemapDelay < 0 {
		return fmt.Errorf("sitemap delay cannot be negative")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("cache size must be positive")
	}
	if c.FeedBuffer <= 0 {
		return fmt.Errorf("feed buffer must be positive")
	}

	return nil
}

// BaseHost returns the host component of the validated base URL.
func (c *Config) BaseHost() (string, error) {
	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return "", fmt.Errorf("base URL must include a host")
	}
	return parsedURL.Host, nil
}

// NormalizeBaseURL reduces an arbitrary absolute URL to its scheme://host
// origin, the form a run is keyed on.
func NormalizeBaseURL(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("URL must be absolute with scheme and host")
	}
	return parsed.Scheme + "://" + parsed.Host, nil
}

// EnvString reads a string environment variable.
func EnvString(name string) (string, bool) {
	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// EnvInt reads an integer environment variable.
func EnvInt(name string) (int, bool, error) {
	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", name, err)
	}
	return parsed, true, nil
}

// EnvDuration reads a duration environment variable (e.g. "500ms", "2s").
func EnvDuration(name string) (time.Duration, bool, error) {
	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		return 0, false, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", name, err)
	}
	return parsed, true, nil
}
