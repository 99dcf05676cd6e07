// Pokefuta Tracker - Pokemon Manhole Dataset Pipeline and Map API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pokefuta-tracker

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Scraper.BaseURL != "https://local.pokemon.jp/manhole/" {
		t.Errorf("base_url = %q", cfg.Scraper.BaseURL)
	}
	if cfg.Update.ScanMax != 1500 {
		t.Errorf("scan_max = %d, want 1500", cfg.Update.ScanMax)
	}
	if cfg.Update.Concurrency != 4 {
		t.Errorf("concurrency = %d, want 4", cfg.Update.Concurrency)
	}
	if cfg.Server.Port != 3857 {
		t.Errorf("port = %d, want 3857", cfg.Server.Port)
	}
	if cfg.Dataset.Path != "dataset/pokefuta.ndjson" {
		t.Errorf("dataset path = %q", cfg.Dataset.Path)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("POKEFUTA_SCAN_MAX", "200")
	t.Setenv("POKEFUTA_BASE_URL", "https://example.test/manhole/")
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Update.ScanMax != 200 {
		t.Errorf("scan_max = %d, want 200", cfg.Update.ScanMax)
	}
	if cfg.Scraper.BaseURL != "https://example.test/manhole/" {
		t.Errorf("base_url = %q", cfg.Scraper.BaseURL)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q", cfg.Logging.Level)
	}
	if len(cfg.API.CORSOrigins) != 2 || cfg.API.CORSOrigins[1] != "https://b.example" {
		t.Errorf("cors_origins = %v", cfg.API.CORSOrigins)
	}
}

func TestLoadUnmappedEnvIgnored(t *testing.T) {
	t.Setenv("RANDOM_VARIABLE", "should-not-leak")

	if _, err := Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
scraper:
  timeout: 5s
update:
  scan_max: 300
dataset:
  path: /var/lib/pokefuta/data.ndjson
  overlay_path: /var/lib/pokefuta/overlay.tsv
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Scraper.Timeout != 5*time.Second {
		t.Errorf("timeout = %s, want 5s", cfg.Scraper.Timeout)
	}
	if cfg.Update.ScanMax != 300 {
		t.Errorf("scan_max = %d, want 300", cfg.Update.ScanMax)
	}
	if cfg.Dataset.OverlayPath != "/var/lib/pokefuta/overlay.tsv" {
		t.Errorf("overlay_path = %q", cfg.Dataset.OverlayPath)
	}
	// Untouched fields keep their defaults.
	if cfg.Server.Port != 3857 {
		t.Errorf("port = %d, want default", cfg.Server.Port)
	}
}

func TestEnvBeatsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("update:\n  scan_max: 300\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("POKEFUTA_SCAN_MAX", "50")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Update.ScanMax != 50 {
		t.Errorf("scan_max = %d, env must beat file", cfg.Update.ScanMax)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config { return defaultConfig() }

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty base url", func(c *Config) { c.Scraper.BaseURL = "" }},
		{"relative base url", func(c *Config) { c.Scraper.BaseURL = "not-a-url" }},
		{"zero timeout", func(c *Config) { c.Scraper.Timeout = 0 }},
		{"negative retries", func(c *Config) { c.Scraper.RetryMax = -1 }},
		{"zero rate", func(c *Config) { c.Scraper.RequestsPerSec = 0 }},
		{"zero scan max", func(c *Config) { c.Update.ScanMax = 0 }},
		{"negative limit new", func(c *Config) { c.Update.LimitNew = -1 }},
		{"zero concurrency", func(c *Config) { c.Update.Concurrency = 0 }},
		{"empty dataset path", func(c *Config) { c.Dataset.Path = "" }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"zero rate limit while enabled", func(c *Config) { c.API.RateLimitReqs = 0 }},
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
