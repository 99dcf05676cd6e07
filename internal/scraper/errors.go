// Pokefuta Tracker - Pokemon Manhole Dataset Pipeline and Map API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pokefuta-tracker

package scraper

import "errors"

var (
	// ErrNotFound marks a definitive upstream miss: HTTP 404 for the
	// detail page. Distinguishing it from transient failures decides
	// whether a record may be marked deleted.
	ErrNotFound = errors.New("detail page not found")

	// ErrUnparsable marks a page that loaded but lacked the required
	// coordinates. Treated the same as a 404 for lifecycle purposes: the
	// page no longer describes a real installation.
	ErrUnparsable = errors.New("detail page missing coordinates")
)
