// Pokefuta Tracker - Pokemon Manhole Dataset Pipeline and Map API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pokefuta-tracker

// Package config holds application configuration, loaded via Koanf v2
// with layered sources (highest priority wins):
//
//  1. Environment variables (POKEFUTA_SCAN_MAX, HTTP_PORT, ...)
//  2. Optional YAML config file (config.yaml, or CONFIG_PATH)
//  3. Built-in defaults
//
// The update CLI additionally overrides a few fields from command-line
// flags after loading.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config is the root configuration for both the update CLI and the server.
type Config struct {
	Scraper ScraperConfig `koanf:"scraper"`
	Update  UpdateConfig  `koanf:"update"`
	Dataset DatasetConfig `koanf:"dataset"`
	Server  ServerConfig  `koanf:"server"`
	API     APIConfig     `koanf:"api"`
	Logging LoggingConfig `koanf:"logging"`
}

// ScraperConfig configures the upstream detail-page fetcher.
type ScraperConfig struct {
	// BaseURL is the upstream manhole listing root.
	BaseURL string `koanf:"base_url"`

	// UserAgent identifies the scraper to the upstream site.
	UserAgent string `koanf:"user_agent"`

	// Timeout bounds a single fetch attempt. A fetch that exceeds it is
	// classified transient, never as a deletion.
	Timeout time.Duration `koanf:"timeout"`

	// RetryMax is the number of in-run retries for transient failures.
	RetryMax int `koanf:"retry_max"`

	// RequestsPerSec rate-limits requests against the upstream host.
	RequestsPerSec float64 `koanf:"requests_per_sec"`
}

// UpdateConfig configures reconciliation runs.
type UpdateConfig struct {
	// Interval is the scheduled run period in server mode.
	Interval time.Duration `koanf:"interval"`

	// ScanMax is the highest upstream numeric ID probed per run.
	ScanMax int `koanf:"scan_max"`

	// LimitNew stops a run after discovering this many new records.
	// Zero means unlimited. Safety valve against runaway scans.
	LimitNew int `koanf:"limit_new"`

	// Concurrency is the fetch worker pool size.
	Concurrency int `koanf:"concurrency"`
}

// DatasetConfig locates the persisted artifacts.
type DatasetConfig struct {
	// Path is the full NDJSON store (active and deleted records).
	Path string `koanf:"path"`

	// ActiveCopyPath, if set, receives the active-only mirror the map
	// frontend consumes.
	ActiveCopyPath string `koanf:"active_copy_path"`

	// ChangelogPath, if set, receives appended per-run changelog entries.
	ChangelogPath string `koanf:"changelog_path"`

	// OverlayPath, if set, is the manual TSV side table merged over
	// scraped fields. The pipeline never writes it.
	OverlayPath string `koanf:"overlay_path"`
}

// ServerConfig configures the HTTP publisher.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// APIConfig configures the API middleware.
type APIConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for values that would make a run
// fail in confusing ways later. Called by Load; exported for tests and
// for the CLI after applying flag overrides.
func (c *Config) Validate() error {
	if c.Scraper.BaseURL == "" {
		return fmt.Errorf("scraper.base_url is required")
	}
	u, err := url.Parse(c.Scraper.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("scraper.base_url %q is not a valid URL", c.Scraper.BaseURL)
	}
	if c.Scraper.Timeout <= 0 {
		return fmt.Errorf("scraper.timeout must be positive, got %s", c.Scraper.Timeout)
	}
	if c.Scraper.RetryMax < 0 {
		return fmt.Errorf("scraper.retry_max must not be negative, got %d", c.Scraper.RetryMax)
	}
	if c.Scraper.RequestsPerSec <= 0 {
		return fmt.Errorf("scraper.requests_per_sec must be positive, got %g", c.Scraper.RequestsPerSec)
	}
	if c.Update.ScanMax <= 0 {
		return fmt.Errorf("update.scan_max must be positive, got %d", c.Update.ScanMax)
	}
	if c.Update.LimitNew < 0 {
		return fmt.Errorf("update.limit_new must not be negative, got %d", c.Update.LimitNew)
	}
	if c.Update.Concurrency <= 0 {
		return fmt.Errorf("update.concurrency must be positive, got %d", c.Update.Concurrency)
	}
	if c.Dataset.Path == "" {
		return fmt.Errorf("dataset.path is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.API.RateLimitReqs <= 0 && !c.API.RateLimitDisabled {
		return fmt.Errorf("api.rate_limit_reqs must be positive when rate limiting is enabled")
	}
	return nil
}
