// Pokefuta Tracker - Pokemon Manhole Dataset Pipeline and Map API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pokefuta-tracker

package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/tomtom215/pokefuta-tracker/internal/config"
	"github.com/tomtom215/pokefuta-tracker/internal/dataset"
	"github.com/tomtom215/pokefuta-tracker/internal/logging"
	"github.com/tomtom215/pokefuta-tracker/internal/metrics"
	"github.com/tomtom215/pokefuta-tracker/internal/models"
	"github.com/tomtom215/pokefuta-tracker/internal/overlay"
	"github.com/tomtom215/pokefuta-tracker/internal/reconcile"
	"github.com/tomtom215/pokefuta-tracker/internal/report"
	"github.com/tomtom215/pokefuta-tracker/internal/scraper"
)

// snapshot is the immutable read view published after every run.
type snapshot struct {
	records []*models.Record
	stats   models.DatasetStats
}

// UpdaterService owns the dataset for the server process: it loads the
// store, reruns reconciliation on a fixed interval, persists changes and
// publishes an immutable snapshot for the HTTP handlers. It satisfies
// the api.Source interface.
type UpdaterService struct {
	store   *dataset.Store
	fetcher scraper.Fetcher
	cfg     *config.Config
	current atomic.Pointer[snapshot]
}

// NewUpdaterService builds the updater around an existing store and
// fetcher.
func NewUpdaterService(store *dataset.Store, fetcher scraper.Fetcher, cfg *config.Config) *UpdaterService {
	s := &UpdaterService{store: store, fetcher: fetcher, cfg: cfg}
	s.current.Store(&snapshot{})
	return s
}

// Snapshot implements api.Source.
func (s *UpdaterService) Snapshot() []*models.Record {
	return s.current.Load().records
}

// Stats implements api.Source.
func (s *UpdaterService) Stats() models.DatasetStats {
	return s.current.Load().stats
}

// Serve implements suture.Service: one run immediately on start, then
// one per configured interval until the context is canceled.
func (s *UpdaterService) Serve(ctx context.Context) error {
	ds, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	s.publish(ds, nil)

	if err := s.runOnce(ctx, ds); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		logging.Error().Err(err).Msg("Reconciliation run failed")
	}

	ticker := time.NewTicker(s.cfg.Update.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.runOnce(ctx, ds); err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				logging.Error().Err(err).Msg("Reconciliation run failed")
			}
		}
	}
}

// runOnce executes one reconcile-persist-publish cycle. The primary
// store is only written back when the run produced transitions, so
// quiet runs leave its mtime alone; the active mirror is rewritten
// every run.
func (s *UpdaterService) runOnce(ctx context.Context, ds *dataset.Dataset) error {
	ov, err := overlay.Load(s.cfg.Dataset.OverlayPath)
	if err != nil {
		return fmt.Errorf("load overlay: %w", err)
	}

	res, err := reconcile.Run(ctx, s.fetcher, ds, ov, reconcile.Options{
		ScanMax:     s.cfg.Update.ScanMax,
		LimitNew:    s.cfg.Update.LimitNew,
		Concurrency: s.cfg.Update.Concurrency,
	})
	if err != nil {
		return err
	}

	if res.Changed() {
		if err := s.persist(ds, res); err != nil {
			metrics.RunsTotal.WithLabelValues("persist_error").Inc()
			return err
		}
	} else if path := s.cfg.Dataset.ActiveCopyPath; path != "" {
		// Quiet runs skip the primary store but still refresh the
		// active-only mirror, so the map frontend gets its export as
		// soon as a mirror path is configured.
		if err := s.store.SaveActive(path, ds); err != nil {
			metrics.RunsTotal.WithLabelValues("persist_error").Inc()
			return fmt.Errorf("save active copy: %w", err)
		}
	}
	s.publish(ds, res)
	return nil
}

func (s *UpdaterService) persist(ds *dataset.Dataset, res *reconcile.Result) error {
	if err := s.store.Save(ds); err != nil {
		return fmt.Errorf("save dataset: %w", err)
	}
	if path := s.cfg.Dataset.ActiveCopyPath; path != "" {
		if err := s.store.SaveActive(path, ds); err != nil {
			return fmt.Errorf("save active copy: %w", err)
		}
	}
	if path := s.cfg.Dataset.ChangelogPath; path != "" {
		if err := report.Summarize(res).AppendChangelog(path); err != nil {
			return fmt.Errorf("append changelog: %w", err)
		}
	}
	return nil
}

// publish swaps in a fresh immutable view. res is nil right after the
// initial load, before any run has completed.
func (s *UpdaterService) publish(ds *dataset.Dataset, res *reconcile.Result) {
	active, deleted := ds.Counts()
	stats := models.DatasetStats{
		Total:   ds.Len(),
		Active:  active,
		Deleted: deleted,
	}
	if res != nil {
		stats.LastRunID = res.RunID
		at := res.StartedAt
		stats.LastRunTime = &at
		stats.LastChanges = len(res.Transitions)
	} else if prev := s.current.Load(); prev != nil {
		stats.LastRunID = prev.stats.LastRunID
		stats.LastRunTime = prev.stats.LastRunTime
		stats.LastChanges = prev.stats.LastChanges
	}
	// Records are cloned because the next run mutates them in place.
	src := ds.Records()
	records := make([]*models.Record, len(src))
	for i, r := range src {
		clone := *r
		clone.Pokemons = append([]string(nil), r.Pokemons...)
		clone.PokemonsEN = append([]string(nil), r.PokemonsEN...)
		clone.PokemonsZH = append([]string(nil), r.PokemonsZH...)
		records[i] = &clone
	}
	s.current.Store(&snapshot{records: records, stats: stats})
	metrics.SetRecordCounts(active, deleted)
}

// String identifies the service in suture's event log.
func (s *UpdaterService) String() string {
	return "dataset-updater"
}
