// Pokefuta Tracker - Pokemon Manhole Dataset Pipeline and Map API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pokefuta-tracker

package models

import (
	"fmt"
	"strconv"
	"time"
)

// RecordStatus is the lifecycle state of a tracked manhole record.
// Records are never physically removed from the dataset; a record that
// disappears upstream is flipped to StatusDeleted and kept for history.
type RecordStatus string

const (
	StatusActive  RecordStatus = "active"
	StatusDeleted RecordStatus = "deleted"
)

// Valid reports whether s is one of the known status values.
func (s RecordStatus) Valid() bool {
	return s == StatusActive || s == StatusDeleted
}

// Timestamp is an RFC3339 UTC timestamp with second precision.
// Second precision matters: the published NDJSON is parsed by JS Date in
// the map frontend, and sub-second noise would show up as spurious diffs
// in the dataset history.
type Timestamp struct {
	time.Time
}

// timestampLayout matches the format the dataset has always used.
const timestampLayout = "2006-01-02T15:04:05Z"

// NewTimestamp converts t to a dataset timestamp (UTC, truncated to seconds).
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t.UTC().Truncate(time.Second)}
}

// MarshalJSON renders the timestamp in the dataset's canonical layout.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + ts.UTC().Format(timestampLayout) + `"`), nil
}

// UnmarshalJSON accepts any RFC3339 timestamp and normalizes it to UTC
// second precision. Older dataset generations carried offsets and
// fractional seconds; both still load.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		ts.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("timestamp %q: %w", s, err)
	}
	ts.Time = t.UTC().Truncate(time.Second)
	return nil
}

// CoreFields is the comparable payload of a record. These are the fields
// replaced wholesale on each successful refetch (after the manual overlay
// is applied) and the only fields that participate in change detection.
// Bookkeeping timestamps and status live on Record, outside the
// comparison.
type CoreFields struct {
	Title      string   `json:"title"`
	Prefecture string   `json:"prefecture,omitempty"`
	City       string   `json:"city,omitempty"`
	Address    string   `json:"address,omitempty"`
	Lat        float64  `json:"lat" validate:"gte=-90,lte=90"`
	Lng        float64  `json:"lng" validate:"gte=-180,lte=180"`
	Pokemons   []string `json:"pokemons"`
	DetailURL  string   `json:"detail_url" validate:"omitempty,url"`
}

// Record is one tracked manhole cover, keyed by the upstream numeric-string
// identifier. One record per ID exists in the dataset at any time.
//
// Timestamp contract:
//   - FirstSeen is set exactly once at creation and never mutated.
//   - AddedAt always equals FirstSeen; it is kept as a distinct field
//     because the published schema (and the map frontend) name it.
//   - LastUpdated moves only when core fields or status change. A no-op
//     refetch leaves it alone so downstream change logs stay quiet.
type Record struct {
	ID string `json:"id" validate:"required,number"`
	CoreFields

	// Multilingual titles, localized pokemon lists and official site
	// links are produced by the one-shot full-scrape tooling and by hand
	// edits, not by this pipeline. They are carried through load and
	// save verbatim: the engine never compares, refetches or clears
	// them, so a run over an enriched dataset keeps every row intact.
	TitleEN           string   `json:"title_en,omitempty"`
	TitleZH           string   `json:"title_zh,omitempty"`
	PokemonsEN        []string `json:"pokemons_en,omitempty"`
	PokemonsZH        []string `json:"pokemons_zh,omitempty"`
	CityURL           string   `json:"city_url,omitempty" validate:"omitempty,url"`
	PrefectureSiteURL string   `json:"prefecture_site_url,omitempty" validate:"omitempty,url"`

	FirstSeen   Timestamp    `json:"first_seen"`
	AddedAt     Timestamp    `json:"added_at"`
	LastUpdated Timestamp    `json:"last_updated"`
	Status      RecordStatus `json:"status" validate:"required,oneof=active deleted"`
}

// NumericID returns the identifier as an integer for sort ordering.
// Non-numeric identifiers never survive validation, but a record built
// directly in code could carry one; those sort after all numeric IDs.
func (r *Record) NumericID() int {
	n, err := strconv.Atoi(r.ID)
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return n
}

// Active reports whether the record is part of the published export.
func (r *Record) Active() bool {
	return r.Status == StatusActive
}

// DatasetStats summarizes the dataset for the stats endpoint.
type DatasetStats struct {
	Total       int        `json:"total"`
	Active      int        `json:"active"`
	Deleted     int        `json:"deleted"`
	LastRunID   string     `json:"last_run_id,omitempty"`
	LastRunTime *Timestamp `json:"last_run_time,omitempty"`
	LastChanges int        `json:"last_changes"`
}
