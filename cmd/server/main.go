// Pokefuta Tracker - Pokemon Manhole Dataset Pipeline and Map API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pokefuta-tracker

// Command server runs the long-lived publisher: a supervised updater
// loop that reconciles the dataset on an interval, plus the HTTP API
// serving the current snapshot.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/pokefuta-tracker/internal/api"
	"github.com/tomtom215/pokefuta-tracker/internal/config"
	"github.com/tomtom215/pokefuta-tracker/internal/dataset"
	"github.com/tomtom215/pokefuta-tracker/internal/logging"
	"github.com/tomtom215/pokefuta-tracker/internal/scraper"
	"github.com/tomtom215/pokefuta-tracker/internal/supervisor"
	"github.com/tomtom215/pokefuta-tracker/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
		Output: os.Stderr,
	})
	logging.Info().
		Str("version", api.Version).
		Str("dataset", cfg.Dataset.Path).
		Int("port", cfg.Server.Port).
		Msg("Starting pokefuta-tracker server")

	store := dataset.NewStore(cfg.Dataset.Path)
	client := scraper.NewClient(&cfg.Scraper)
	updater := services.NewUpdaterService(store, client, cfg)

	handler := api.NewHandler(updater, cfg.Dataset.Path)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(handler, &cfg.API),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * time.Minute,
	}

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeCfg)
	tree.AddUpdaterService(updater)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree exited with error")
		os.Exit(1)
	}
	logging.Info().Msg("Shutdown complete")
}
