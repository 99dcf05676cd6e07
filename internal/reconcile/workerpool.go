// Pokefuta Tracker - Pokemon Manhole Dataset Pipeline and Map API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pokefuta-tracker

package reconcile

import (
	"context"
	"sync"

	"github.com/tomtom215/pokefuta-tracker/internal/models"
	"github.com/tomtom215/pokefuta-tracker/internal/scraper"
)

// fetchAll fetches every identifier through a bounded worker pool and
// returns the outcome per identifier. Workers stop dispatching new jobs
// once ctx is canceled; identifiers never dispatched are simply absent
// from the result map, which the classifier treats as transient.
func fetchAll(ctx context.Context, fetcher scraper.Fetcher, ids []string, workers int) map[string]models.FetchResult {
	if workers < 1 {
		workers = 1
	}

	type outcome struct {
		id     string
		result models.FetchResult
	}

	jobs := make(chan string)
	results := make(chan outcome, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				results <- outcome{id: id, result: fetcher.Fetch(ctx, id)}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, id := range ids {
			select {
			case jobs <- id:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make(map[string]models.FetchResult, len(ids))
	for o := range results {
		out[o.id] = o.result
	}
	return out
}
