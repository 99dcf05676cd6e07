// Pokefuta Tracker - Pokemon Manhole Dataset Pipeline and Map API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pokefuta-tracker

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/pokefuta-tracker/config.yaml",
	"/etc/pokefuta-tracker/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Scraper: ScraperConfig{
			BaseURL:        "https://local.pokemon.jp/manhole/",
			UserAgent:      "pokefuta-tracker (+https://github.com/tomtom215/pokefuta-tracker)",
			Timeout:        15 * time.Second,
			RetryMax:       3,
			RequestsPerSec: 2.0, // conservative against the upstream site
		},
		Update: UpdateConfig{
			Interval:    24 * time.Hour,
			ScanMax:     1500,
			LimitNew:    0,
			Concurrency: 4,
		},
		Dataset: DatasetConfig{
			Path:           "dataset/pokefuta.ndjson",
			ActiveCopyPath: "",
			ChangelogPath:  "",
			OverlayPath:    "",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3857,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		API: APIConfig{
			CORSOrigins:       []string{},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
// defaults, then an optional YAML config file, then environment
// variables. The result is validated before being returned.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches the env override and then the default paths.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices
// when they arrive via environment variables.
var sliceConfigPaths = []string{
	"api.cors_origins",
}

// processSliceFields converts comma-separated env values to slices for
// known slice fields. YAML-sourced slices pass through untouched.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped keys are dropped so random environment variables cannot
// pollute the configuration.
func envTransformFunc(key string) string {
	envMappings := map[string]string{
		// Scraper
		"pokefuta_base_url":      "scraper.base_url",
		"pokefuta_user_agent":    "scraper.user_agent",
		"pokefuta_fetch_timeout": "scraper.timeout",
		"pokefuta_retry_max":     "scraper.retry_max",
		"pokefuta_rate_per_sec":  "scraper.requests_per_sec",

		// Update runs
		"pokefuta_update_interval": "update.interval",
		"pokefuta_scan_max":        "update.scan_max",
		"pokefuta_limit_new":       "update.limit_new",
		"pokefuta_concurrency":     "update.concurrency",

		// Dataset artifacts
		"pokefuta_dataset_path":   "dataset.path",
		"pokefuta_active_copy":    "dataset.active_copy_path",
		"pokefuta_changelog_path": "dataset.changelog_path",
		"pokefuta_overlay_path":   "dataset.overlay_path",

		// Server
		"http_host":             "server.host",
		"http_port":             "server.port",
		"http_timeout":          "server.timeout",
		"http_shutdown_timeout": "server.shutdown_timeout",

		// API
		"cors_origins":        "api.cors_origins",
		"rate_limit_requests": "api.rate_limit_reqs",
		"rate_limit_window":   "api.rate_limit_window",
		"disable_rate_limit":  "api.rate_limit_disabled",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
