// Pokefuta Tracker - Pokemon Manhole Dataset Pipeline and Map API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pokefuta-tracker

// Package api serves the tracked dataset over HTTP using Chi.
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/pokefuta-tracker/internal/logging"
	"github.com/tomtom215/pokefuta-tracker/internal/models"
)

// Source is the read side the handlers serve from. The updater service
// publishes a fresh immutable snapshot after every run, so handlers
// never contend with a run in progress.
type Source interface {
	// Snapshot returns all records in serialization order.
	Snapshot() []*models.Record
	// Stats summarizes the dataset and the most recent run.
	Stats() models.DatasetStats
}

// Handler holds the HTTP handlers' shared dependencies.
type Handler struct {
	source      Source
	datasetPath string
	startTime   time.Time
}

// NewHandler creates the handler set backed by source.
func NewHandler(source Source, datasetPath string) *Handler {
	return &Handler{
		source:      source,
		datasetPath: datasetPath,
		startTime:   time.Now(),
	}
}

// ListRecords returns dataset records. ?status=active (the default)
// mirrors the published export; ?status=all and ?status=deleted expose
// the full history.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = "active"
	}
	if status != "active" && status != "deleted" && status != "all" {
		respondError(w, http.StatusBadRequest, "INVALID_STATUS",
			fmt.Sprintf("unknown status filter %q", sanitizeLogValue(status)), nil)
		return
	}

	all := h.source.Snapshot()
	out := make([]*models.Record, 0, len(all))
	for _, rec := range all {
		switch status {
		case "all":
			out = append(out, rec)
		case "active":
			if rec.Active() {
				out = append(out, rec)
			}
		case "deleted":
			if !rec.Active() {
				out = append(out, rec)
			}
		}
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{Status: "success", Data: out})
}

// GetRecord returns one record by identifier. Like the list endpoint,
// only active records are served by default; ?status=all exposes deleted
// history rows too.
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := strconv.Atoi(id); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_ID",
			fmt.Sprintf("identifier %q is not numeric", sanitizeLogValue(id)), nil)
		return
	}
	includeDeleted := r.URL.Query().Get("status") == "all"

	for _, rec := range h.source.Snapshot() {
		if rec.ID != id {
			continue
		}
		if !rec.Active() && !includeDeleted {
			break
		}
		respondJSON(w, http.StatusOK, &models.APIResponse{Status: "success", Data: rec})
		return
	}
	respondError(w, http.StatusNotFound, "NOT_FOUND",
		fmt.Sprintf("no record with id %s", id), nil)
}

// Stats returns dataset and last-run statistics.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{Status: "success", Data: h.source.Stats()})
}

// Health reports overall service health. The service is degraded when
// no dataset has been loaded yet.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	stats := h.source.Stats()
	status := "healthy"
	if stats.Total == 0 {
		status = "degraded"
	}

	health := models.HealthStatus{
		Status:      status,
		Version:     Version,
		DatasetPath: h.datasetPath,
		Records:     stats.Total,
		LastRunTime: stats.LastRunTime,
		Uptime:      time.Since(h.startTime).Seconds(),
	}
	respondJSON(w, http.StatusOK, &models.APIResponse{Status: "success", Data: health})
}

// HealthLive is the liveness probe: alive if the process is serving.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
	})
}

// HealthReady is the readiness probe: ready once a dataset snapshot has
// been published.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	stats := h.source.Stats()
	if stats.Total == 0 && stats.LastRunTime == nil {
		respondError(w, http.StatusServiceUnavailable, "NOT_READY",
			"dataset not loaded yet", nil)
		return
	}
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   map[string]interface{}{"ready": true, "records": stats.Total},
	})
}

// respondJSON sends a JSON response with proper headers.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=60")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", generateETag(data))
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// generateETag creates a simple ETag from data using FNV-1a hash.
func generateETag(data []byte) string {
	hash := uint32(2166136261)
	for _, b := range data {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return strconv.FormatUint(uint64(hash), 16)
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", code).Str("error", sanitizeLogValue(err.Error())).Msg("API error")
	}
	respondJSON(w, status, &models.APIResponse{
		Status: "error",
		Error:  &models.APIError{Code: code, Message: message},
	})
}

// sanitizeLogValue removes control characters from strings to prevent
// log injection through request-supplied values.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}
