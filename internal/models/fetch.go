// Pokefuta Tracker - Pokemon Manhole Dataset Pipeline and Map API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pokefuta-tracker

package models

// FetchOutcome classifies the result of one upstream detail-page fetch.
// It is a closed set: the reconciliation engine switches over it
// exhaustively. The distinction between NotFound and Transient is
// load-bearing: only a definitive NotFound may ever delete a record.
type FetchOutcome int

const (
	// FetchFound means the detail page was retrieved and parsed.
	FetchFound FetchOutcome = iota

	// FetchNotFound is definitive: HTTP 404, or a page whose required
	// coordinates could not be parsed. Drives the deletion transition.
	FetchNotFound

	// FetchTransient covers timeouts, 5xx responses, rate limiting and
	// transport failures. Never a deletion signal; the identifier is
	// implicitly retried on the next scheduled run.
	FetchTransient
)

// String returns the outcome name used in logs and metric labels.
func (o FetchOutcome) String() string {
	switch o {
	case FetchFound:
		return "found"
	case FetchNotFound:
		return "not_found"
	case FetchTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// ScrapedRecord is the raw candidate parsed from one detail page, before
// the manual overlay is merged. Pokemons are deduplicated and sorted at
// parse time, matching what the published dataset has always contained.
type ScrapedRecord struct {
	ID         string
	Title      string
	Prefecture string
	City       string
	Lat        float64
	Lng        float64
	Pokemons   []string
	DetailURL  string
}

// FetchResult is the tagged variant the scraper returns per identifier.
// Record is non-nil exactly when Outcome is FetchFound. Err carries the
// underlying cause for the two failure outcomes, for diagnostics only.
type FetchResult struct {
	Outcome FetchOutcome
	Record  *ScrapedRecord
	Err     error
}

// Found wraps a parsed record.
func Found(rec *ScrapedRecord) FetchResult {
	return FetchResult{Outcome: FetchFound, Record: rec}
}

// NotFound wraps a definitive miss.
func NotFound(err error) FetchResult {
	return FetchResult{Outcome: FetchNotFound, Err: err}
}

// Transient wraps a retryable failure.
func Transient(err error) FetchResult {
	return FetchResult{Outcome: FetchTransient, Err: err}
}
