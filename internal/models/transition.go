// Pokefuta Tracker - Pokemon Manhole Dataset Pipeline and Map API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pokefuta-tracker

package models

// TransitionKind names the lifecycle transition one identifier took in
// one reconciliation run. Unchanged identifiers produce no transition at
// all, so a run with nothing to report carries an empty transition list.
type TransitionKind string

const (
	TransitionAdded       TransitionKind = "added"
	TransitionUpdated     TransitionKind = "updated"
	TransitionDeleted     TransitionKind = "deleted"
	TransitionResurrected TransitionKind = "resurrected"
)

// Transition records one classified change. Fields lists the core field
// names that differed for TransitionUpdated; it is empty for the other
// kinds.
type Transition struct {
	ID     string         `json:"id"`
	Kind   TransitionKind `json:"kind"`
	Fields []string       `json:"fields,omitempty"`
}

// APIResponse is the uniform envelope for HTTP responses.
type APIResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  *APIError   `json:"error,omitempty"`
}

// APIError carries a machine-readable code plus a human message.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HealthStatus is returned by the health endpoint.
type HealthStatus struct {
	Status      string     `json:"status"`
	Version     string     `json:"version"`
	DatasetPath string     `json:"dataset_path"`
	Records     int        `json:"records"`
	LastRunTime *Timestamp `json:"last_run_time,omitempty"`
	Uptime      float64    `json:"uptime_seconds"`
}
