// Pokefuta Tracker - Pokemon Manhole Dataset Pipeline and Map API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pokefuta-tracker

// Command update performs one reconciliation run: scan the upstream
// site, classify lifecycle transitions against the persisted dataset
// and write back the NDJSON store, the active-only mirror and the
// changelog.
//
// Exit codes: 0 on a completed run including "no changes"; 1 when
// persisting the results failed (the previous dataset stays intact on
// disk); 2 on setup failures (unreadable config, dataset or overlay).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/pokefuta-tracker/internal/config"
	"github.com/tomtom215/pokefuta-tracker/internal/dataset"
	"github.com/tomtom215/pokefuta-tracker/internal/logging"
	"github.com/tomtom215/pokefuta-tracker/internal/overlay"
	"github.com/tomtom215/pokefuta-tracker/internal/reconcile"
	"github.com/tomtom215/pokefuta-tracker/internal/report"
	"github.com/tomtom215/pokefuta-tracker/internal/scraper"
)

const (
	exitPersistFailure = 1
	exitSetupFailure   = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return exitSetupFailure
	}

	// Flag overrides beat both config file and environment.
	scanMax := flag.Int("scan-max", cfg.Update.ScanMax, "highest upstream ID to probe")
	in := flag.String("in", "", "path of the NDJSON dataset to load (defaults to -out)")
	out := flag.String("out", cfg.Dataset.Path, "path of the NDJSON dataset store")
	copyTo := flag.String("copy-to", cfg.Dataset.ActiveCopyPath, "path of the active-only mirror (empty to skip)")
	overlayPath := flag.String("overlay", cfg.Dataset.OverlayPath, "path of the manual overlay TSV (empty to skip)")
	changelog := flag.String("changelog", cfg.Dataset.ChangelogPath, "path of the markdown changelog (empty to skip)")
	base := flag.String("base", cfg.Scraper.BaseURL, "upstream base URL")
	limitNew := flag.Int("limit-new", cfg.Update.LimitNew, "cap on new records per run (0 = unlimited)")
	concurrency := flag.Int("concurrency", cfg.Update.Concurrency, "fetch worker count")
	logLevel := flag.String("log-level", cfg.Logging.Level, "log level: trace, debug, info, warn, error")
	jsonOut := flag.Bool("json", false, "print the run summary as JSON to stdout")
	flag.Parse()

	cfg.Update.ScanMax = *scanMax
	cfg.Dataset.Path = *out
	cfg.Dataset.ActiveCopyPath = *copyTo
	cfg.Dataset.OverlayPath = *overlayPath
	cfg.Dataset.ChangelogPath = *changelog
	cfg.Scraper.BaseURL = *base
	cfg.Update.LimitNew = *limitNew
	cfg.Update.Concurrency = *concurrency
	cfg.Logging.Level = *logLevel

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return exitSetupFailure
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
		Output: os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Reading from one path and writing to another supports dry runs
	// against a copy; by default both are the configured store.
	inPath := *in
	if inPath == "" {
		inPath = cfg.Dataset.Path
	}
	store := dataset.NewStore(cfg.Dataset.Path)
	ds, err := dataset.NewStore(inPath).Load()
	if err != nil {
		logging.Error().Err(err).Str("path", inPath).Msg("Failed to load dataset")
		return exitSetupFailure
	}

	ov, err := overlay.Load(cfg.Dataset.OverlayPath)
	if err != nil {
		logging.Error().Err(err).Str("path", cfg.Dataset.OverlayPath).Msg("Failed to load overlay")
		return exitSetupFailure
	}

	client := scraper.NewClient(&cfg.Scraper)
	res, err := reconcile.Run(ctx, client, ds, ov, reconcile.Options{
		ScanMax:     cfg.Update.ScanMax,
		LimitNew:    cfg.Update.LimitNew,
		Concurrency: cfg.Update.Concurrency,
	})
	if err != nil {
		// Canceled mid-scan: nothing was classified, nothing to save.
		logging.Warn().Err(err).Msg("Run aborted, dataset left untouched")
		return 0
	}

	summary := report.Summarize(res)

	if res.Changed() {
		if err := persist(store, ds, summary, cfg); err != nil {
			// The temp-file write never clobbers the previous dataset,
			// so the next run starts from the last good state.
			logging.Error().Err(err).Msg("Failed to persist run results")
			return exitPersistFailure
		}
	} else {
		logging.Info().Str("run_id", res.RunID).Msg("No changes, dataset left untouched")
		// The active-only mirror is refreshed on every run so a freshly
		// configured -copy-to path is populated without waiting for the
		// next upstream transition.
		if path := cfg.Dataset.ActiveCopyPath; path != "" {
			if err := store.SaveActive(path, ds); err != nil {
				logging.Error().Err(err).Str("path", path).Msg("Failed to refresh active mirror")
				return exitPersistFailure
			}
		}
	}

	if *jsonOut {
		data, err := summary.JSON()
		if err != nil {
			logging.Error().Err(err).Msg("Failed to render summary JSON")
		} else {
			fmt.Println(string(data))
		}
	}
	return 0
}

func persist(store *dataset.Store, ds *dataset.Dataset, summary *report.Summary, cfg *config.Config) error {
	if err := store.Save(ds); err != nil {
		return fmt.Errorf("save dataset: %w", err)
	}
	if path := cfg.Dataset.ActiveCopyPath; path != "" {
		if err := store.SaveActive(path, ds); err != nil {
			return fmt.Errorf("save active copy: %w", err)
		}
	}
	if path := cfg.Dataset.ChangelogPath; path != "" {
		if err := summary.AppendChangelog(path); err != nil {
			return fmt.Errorf("append changelog: %w", err)
		}
	}
	return nil
}
