// Pokefuta Tracker - Pokemon Manhole Dataset Pipeline and Map API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pokefuta-tracker

// Package scraper fetches and parses upstream manhole detail pages. The
// client layers a shared rate limiter, per-request retries with
// exponential backoff, and a circuit breaker over plain HTTP GETs so a
// struggling upstream degrades a run instead of failing it.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/pokefuta-tracker/internal/config"
	"github.com/tomtom215/pokefuta-tracker/internal/logging"
	"github.com/tomtom215/pokefuta-tracker/internal/metrics"
	"github.com/tomtom215/pokefuta-tracker/internal/models"
)

// maxBodySize caps how much of a detail page is read. Real pages are a
// few hundred KB; anything larger is upstream misbehavior.
const maxBodySize = 4 << 20

// Fetcher is the contract the reconciliation engine depends on. The
// production implementation is Client; tests substitute a fake.
type Fetcher interface {
	Fetch(ctx context.Context, id string) models.FetchResult
}

// Client fetches detail pages from the upstream site.
type Client struct {
	http     *http.Client
	baseURL  string
	ua       string
	retryMax int
	limiter  *rate.Limiter
	cb       *gobreaker.CircuitBreaker[models.FetchResult]
}

// NewClient builds a Client from configuration. The circuit breaker
// counts only transient failures: a definitive 404 is a successful
// observation of upstream state and must not open the circuit.
func NewClient(cfg *config.ScraperConfig) *Client {
	cbName := "pokefuta-upstream"
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[models.FetchResult](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 8 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			// NotFound and unparsable pages are answers, not outages.
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnparsable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("Upstream circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &Client{
		http: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		ua:       cfg.UserAgent,
		retryMax: cfg.RetryMax,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
		cb:       cb,
	}
}

// DetailURL returns the canonical detail page URL for an identifier.
func (c *Client) DetailURL(id string) string {
	return fmt.Sprintf("%s/desc/%s/", c.baseURL, id)
}

// Fetch retrieves and parses one detail page, classifying the outcome.
// A rejected request while the breaker is open counts as transient so
// the identifier is retried on a later run rather than deleted.
func (c *Client) Fetch(ctx context.Context, id string) models.FetchResult {
	start := time.Now()
	result, err := c.cb.Execute(func() (models.FetchResult, error) {
		return c.fetchWithRetry(ctx, id)
	})
	metrics.FetchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnparsable):
			result = models.NotFound(err)
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			logging.Warn().Str("id", id).Err(err).Msg("Fetch rejected by circuit breaker")
			result = models.Transient(err)
		default:
			result = models.Transient(err)
		}
	}

	metrics.FetchResults.WithLabelValues(result.Outcome.String()).Inc()
	return result
}

// fetchWithRetry performs the rate-limited GET with exponential backoff.
// Definitive outcomes are wrapped as permanent so only transient
// failures consume retry attempts.
func (c *Client) fetchWithRetry(ctx context.Context, id string) (models.FetchResult, error) {
	var rec *models.ScrapedRecord

	op := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		parsed, err := c.fetchOnce(ctx, id)
		switch {
		case err == nil:
			rec = parsed
			return nil
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnparsable):
			return backoff.Permanent(err)
		case ctx.Err() != nil:
			return backoff.Permanent(err)
		default:
			logging.Debug().Str("id", id).Err(err).Msg("Transient fetch failure, will retry")
			return err
		}
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.retryMax)),
		ctx,
	)
	if err := backoff.Retry(op, bo); err != nil {
		return models.FetchResult{}, err
	}
	return models.Found(rec), nil
}

func (c *Client) fetchOnce(ctx context.Context, id string) (*models.ScrapedRecord, error) {
	url := c.DetailURL(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", id, err)
	}
	if c.ua != "" {
		req.Header.Set("User-Agent", c.ua)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	return Parse(id, io.LimitReader(resp.Body, maxBodySize), url)
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
