// Pokefuta Tracker - Pokemon Manhole Dataset Pipeline and Map API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pokefuta-tracker

// Package normalize merges scraped detail-page fields with the manual
// overlay table and defines the comparable core projection used for
// change detection.
package normalize

import (
	"slices"

	"github.com/tomtom215/pokefuta-tracker/internal/models"
	"github.com/tomtom215/pokefuta-tracker/internal/overlay"
)

// Comparison field names. Kept as named constants so the whitelist below
// is enumerable in tests rather than scattered through ad hoc checks.
const (
	FieldTitle      = "title"
	FieldPrefecture = "prefecture"
	FieldCity       = "city"
	FieldAddress    = "address"
	FieldLat        = "lat"
	FieldLng        = "lng"
	FieldPokemons   = "pokemons"
	FieldDetailURL  = "detail_url"
)

// CompareFields is the explicit whitelist of core fields that
// participate in change detection. Bookkeeping timestamps and status are
// deliberately absent: a no-op refetch must not register as a change,
// while an overlay edit (re-applied before every comparison) must.
var CompareFields = []string{
	FieldTitle,
	FieldPrefecture,
	FieldCity,
	FieldAddress,
	FieldLat,
	FieldLng,
	FieldPokemons,
	FieldDetailURL,
}

// Candidate builds the comparable core projection for one fetched
// record: scraped values first, then the overlay entry merged on top.
// Overlay wins on conflict, field by field; empty overlay fields fall
// back to scraped values. The overlay never contributes coordinates or
// the detail URL.
func Candidate(scraped *models.ScrapedRecord, ov *overlay.Table) models.CoreFields {
	core := models.CoreFields{
		Title:      scraped.Title,
		Prefecture: scraped.Prefecture,
		City:       scraped.City,
		Lat:        scraped.Lat,
		Lng:        scraped.Lng,
		Pokemons:   scraped.Pokemons,
		DetailURL:  scraped.DetailURL,
	}

	entry, ok := ov.Lookup(scraped.ID)
	if !ok {
		return core
	}
	if entry.Title != "" {
		core.Title = entry.Title
	}
	if entry.Prefecture != "" {
		core.Prefecture = entry.Prefecture
	}
	if entry.City != "" {
		core.City = entry.City
	}
	if entry.Address != "" {
		core.Address = entry.Address
	}
	if len(entry.Pokemons) > 0 {
		core.Pokemons = entry.Pokemons
	}
	return core
}

// Diff returns the names of whitelisted fields that differ between old
// and new, in CompareFields order. An empty result means "unchanged".
func Diff(old, new models.CoreFields) []string {
	var changed []string
	for _, field := range CompareFields {
		if !fieldEqual(field, old, new) {
			changed = append(changed, field)
		}
	}
	return changed
}

// Equal reports whether the two projections agree on every whitelisted
// field.
func Equal(old, new models.CoreFields) bool {
	for _, field := range CompareFields {
		if !fieldEqual(field, old, new) {
			return false
		}
	}
	return true
}

// fieldEqual compares one whitelisted field. Pokemon lists are compared
// as literal ordered sequences; the parser already normalizes their
// order, so ordering differences are real differences.
func fieldEqual(field string, a, b models.CoreFields) bool {
	switch field {
	case FieldTitle:
		return a.Title == b.Title
	case FieldPrefecture:
		return a.Prefecture == b.Prefecture
	case FieldCity:
		return a.City == b.City
	case FieldAddress:
		return a.Address == b.Address
	case FieldLat:
		return a.Lat == b.Lat
	case FieldLng:
		return a.Lng == b.Lng
	case FieldPokemons:
		return slices.Equal(a.Pokemons, b.Pokemons)
	case FieldDetailURL:
		return a.DetailURL == b.DetailURL
	default:
		return true
	}
}
