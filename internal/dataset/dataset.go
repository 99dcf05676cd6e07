// Pokefuta Tracker - Pokemon Manhole Dataset Pipeline and Map API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pokefuta-tracker

package dataset

import (
	"sort"

	"github.com/tomtom215/pokefuta-tracker/internal/models"
)

// Dataset is the in-memory snapshot of the full record set, one record
// per identifier. A run loads it once, mutates it, and writes it back;
// there is no incremental persistence.
type Dataset struct {
	byID map[string]*models.Record
}

// New returns an empty dataset.
func New() *Dataset {
	return &Dataset{byID: make(map[string]*models.Record)}
}

// Get returns the record for id, if present.
func (d *Dataset) Get(id string) (*models.Record, bool) {
	r, ok := d.byID[id]
	return r, ok
}

// Put inserts or replaces the record for its identifier.
func (d *Dataset) Put(r *models.Record) {
	d.byID[r.ID] = r
}

// Len returns the total record count, deleted rows included.
func (d *Dataset) Len() int {
	return len(d.byID)
}

// Records returns all records in serialization order: numeric ID
// ascending, active before deleted for identical IDs. This ordering is a
// property of the store, enforced on every write.
func (d *Dataset) Records() []*models.Record {
	out := make([]*models.Record, 0, len(d.byID))
	for _, r := range d.byID {
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.NumericID() != b.NumericID() {
			return a.NumericID() < b.NumericID()
		}
		return a.Active() && !b.Active()
	})
	return out
}

// Active returns only status=active records, in the same order.
func (d *Dataset) Active() []*models.Record {
	all := d.Records()
	out := make([]*models.Record, 0, len(all))
	for _, r := range all {
		if r.Active() {
			out = append(out, r)
		}
	}
	return out
}

// Counts returns the number of active and deleted records.
func (d *Dataset) Counts() (active, deleted int) {
	for _, r := range d.byID {
		if r.Active() {
			active++
		} else {
			deleted++
		}
	}
	return active, deleted
}

// MaxNumericID returns the highest numeric identifier present, or zero
// for an empty dataset. Used for scan-range logging.
func (d *Dataset) MaxNumericID() int {
	max := 0
	for _, r := range d.byID {
		if n := r.NumericID(); n > max && n != int(^uint(0)>>1) {
			max = n
		}
	}
	return max
}
