// Pokefuta Tracker - Pokemon Manhole Dataset Pipeline and Map API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pokefuta-tracker

// Package reconcile classifies one scan of the upstream site against the
// persisted dataset. Fetching runs in parallel; classification is a
// single sequential pass in ascending numeric identifier order so runs
// are deterministic given the same fetch outcomes.
package reconcile

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/pokefuta-tracker/internal/dataset"
	"github.com/tomtom215/pokefuta-tracker/internal/logging"
	"github.com/tomtom215/pokefuta-tracker/internal/metrics"
	"github.com/tomtom215/pokefuta-tracker/internal/models"
	"github.com/tomtom215/pokefuta-tracker/internal/normalize"
	"github.com/tomtom215/pokefuta-tracker/internal/overlay"
	"github.com/tomtom215/pokefuta-tracker/internal/scraper"
)

// Options controls one reconciliation run.
type Options struct {
	// ScanMax is the upper bound of the identifier scan range 1..ScanMax.
	// Identifiers already in the dataset above ScanMax are still fetched
	// so raising and lowering the bound never orphans records.
	ScanMax int

	// LimitNew caps how many `added` transitions one run may apply.
	// Zero means unlimited. A safety valve against upstream markup
	// changes flooding the dataset with garbage rows.
	LimitNew int

	// Concurrency is the fetch worker count.
	Concurrency int

	// Now supplies the run timestamp. All records touched in one run get
	// the same timestamp. Defaults to time.Now.
	Now func() time.Time

	// RunID identifies the run in logs and the changelog. Defaults to a
	// fresh UUID.
	RunID string
}

// Result is the outcome of one run.
type Result struct {
	RunID       string
	StartedAt   models.Timestamp
	Transitions []models.Transition
	Unchanged   int
	Found       int
	NotFound    int
	Transient   int
	LimitedNew  int
}

// Changed reports whether the run produced any lifecycle transitions.
func (r *Result) Changed() bool {
	return len(r.Transitions) > 0
}

// Run performs one full reconciliation pass, mutating ds in place.
// It returns ctx.Err() without classifying anything if the context is
// canceled mid-fetch, so callers never persist a half-scanned state.
func Run(ctx context.Context, fetcher scraper.Fetcher, ds *dataset.Dataset, ov *overlay.Table, opts Options) (*Result, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	now := models.NewTimestamp(opts.Now())
	start := time.Now()

	ids := scanIDs(ds, opts.ScanMax)
	logging.Info().
		Str("run_id", opts.RunID).
		Int("ids", len(ids)).
		Int("scan_max", opts.ScanMax).
		Int("max_known_id", ds.MaxNumericID()).
		Int("concurrency", opts.Concurrency).
		Msg("Starting reconciliation run")

	outcomes := fetchAll(ctx, fetcher, ids, opts.Concurrency)
	if err := ctx.Err(); err != nil {
		metrics.RunsTotal.WithLabelValues("canceled").Inc()
		return nil, err
	}

	res := &Result{RunID: opts.RunID, StartedAt: now}
	for _, id := range ids {
		outcome, fetched := outcomes[id]
		if !fetched {
			outcome = models.Transient(ctx.Err())
		}
		classify(ds, ov, id, outcome, now, opts.LimitNew, res)
	}

	for _, t := range res.Transitions {
		metrics.Transitions.WithLabelValues(string(t.Kind)).Inc()
	}
	active, deleted := ds.Counts()
	metrics.SetRecordCounts(active, deleted)
	metrics.RunDuration.Observe(time.Since(start).Seconds())
	metrics.RunsTotal.WithLabelValues("success").Inc()

	logging.Info().
		Str("run_id", opts.RunID).
		Int("transitions", len(res.Transitions)).
		Int("unchanged", res.Unchanged).
		Int("found", res.Found).
		Int("not_found", res.NotFound).
		Int("transient", res.Transient).
		Dur("elapsed", time.Since(start)).
		Msg("Reconciliation run complete")
	return res, nil
}

// scanIDs returns the scan range 1..scanMax unioned with every
// identifier already in the dataset, ascending numeric order.
func scanIDs(ds *dataset.Dataset, scanMax int) []string {
	seen := make(map[string]struct{}, scanMax)
	ids := make([]string, 0, scanMax)
	for i := 1; i <= scanMax; i++ {
		id := strconv.Itoa(i)
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, r := range ds.Records() {
		if _, ok := seen[r.ID]; !ok {
			seen[r.ID] = struct{}{}
			ids = append(ids, r.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		a, _ := strconv.Atoi(ids[i])
		b, _ := strconv.Atoi(ids[j])
		return a < b
	})
	return ids
}

// classify applies the lifecycle decision table for one identifier.
//
//	existing \ outcome   Found          NotFound    Transient
//	absent               added*         (nothing)   (nothing)
//	active               updated/none   deleted     (keep as-is)
//	deleted              resurrected    (nothing)   (nothing)
//
// *subject to LimitNew. A transient outcome is never a deletion signal
// and never touches timestamps.
func classify(ds *dataset.Dataset, ov *overlay.Table, id string, outcome models.FetchResult, now models.Timestamp, limitNew int, res *Result) {
	switch outcome.Outcome {
	case models.FetchFound:
		res.Found++
	case models.FetchNotFound:
		res.NotFound++
	case models.FetchTransient:
		res.Transient++
	}

	existing, known := ds.Get(id)

	switch outcome.Outcome {
	case models.FetchTransient:
		logging.Debug().Str("id", id).Err(outcome.Err).Msg("Transient fetch failure, retried next run")
		if known && existing.Active() {
			res.Unchanged++
		}
		return

	case models.FetchNotFound:
		if !known || !existing.Active() {
			// Never materialize a record for a page that does not
			// exist, and a deleted record stays deleted.
			return
		}
		existing.Status = models.StatusDeleted
		existing.LastUpdated = now
		res.Transitions = append(res.Transitions, models.Transition{ID: id, Kind: models.TransitionDeleted})
		logging.Info().Str("id", id).Str("title", existing.Title).Msg("Record deleted upstream")
		return

	case models.FetchFound:
		candidate := normalize.Candidate(outcome.Record, ov)

		switch {
		case !known:
			if limitNew > 0 && countKind(res.Transitions, models.TransitionAdded) >= limitNew {
				res.LimitedNew++
				logging.Warn().Str("id", id).Msg("New record skipped, limit-new reached")
				return
			}
			ds.Put(&models.Record{
				ID:          id,
				CoreFields:  candidate,
				FirstSeen:   now,
				AddedAt:     now,
				LastUpdated: now,
				Status:      models.StatusActive,
			})
			res.Transitions = append(res.Transitions, models.Transition{ID: id, Kind: models.TransitionAdded})
			logging.Info().Str("id", id).Str("title", candidate.Title).Msg("New record added")

		case !existing.Active():
			existing.CoreFields = candidate
			existing.Status = models.StatusActive
			existing.LastUpdated = now
			res.Transitions = append(res.Transitions, models.Transition{ID: id, Kind: models.TransitionResurrected})
			logging.Info().Str("id", id).Str("title", candidate.Title).Msg("Record resurrected")

		default:
			changed := normalize.Diff(existing.CoreFields, candidate)
			if len(changed) == 0 {
				res.Unchanged++
				return
			}
			existing.CoreFields = candidate
			existing.LastUpdated = now
			res.Transitions = append(res.Transitions, models.Transition{ID: id, Kind: models.TransitionUpdated, Fields: changed})
			logging.Info().Str("id", id).Strs("fields", changed).Msg("Record updated")
		}
	}
}

func countKind(ts []models.Transition, kind models.TransitionKind) int {
	n := 0
	for _, t := range ts {
		if t.Kind == kind {
			n++
		}
	}
	return n
}
