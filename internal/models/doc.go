// Pokefuta Tracker - Pokemon Manhole Dataset Pipeline and Map API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pokefuta-tracker

// Package models defines the shared data types for the Pokefuta dataset:
// the record schema published as NDJSON, the fetch result variants the
// scraper reports, and the per-run transition records the reconciliation
// engine emits.
package models
