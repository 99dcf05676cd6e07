// Pokefuta Tracker - Pokemon Manhole Dataset Pipeline and Map API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pokefuta-tracker

// Package dataset persists the full record set as NDJSON (one JSON
// object per line, UTF-8) and derives the active-only export the map
// frontend consumes.
//
// The store is append-only by identifier: records are never removed,
// only flipped to deleted. Serialization order is deterministic (numeric
// ID ascending, active before deleted on equal ID) and writes are atomic
// (temp file, fsync, rename) so readers never observe a half-written
// file.
package dataset
