// Pokefuta Tracker - Pokemon Manhole Dataset Pipeline and Map API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pokefuta-tracker

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/pokefuta-tracker/internal/config"
	"github.com/tomtom215/pokefuta-tracker/internal/metrics"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// NewRouter wires the full route tree: dataset endpoints under /api/v1,
// health probes, and the Prometheus scrape endpoint.
func NewRouter(h *Handler, cfg *config.APIConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(prometheusMetrics)

	r.Route("/api/v1", func(r chi.Router) {
		if !cfg.RateLimitDisabled {
			r.Use(httprate.LimitByIP(cfg.RateLimitReqs, cfg.RateLimitWindow))
		}
		r.Get("/pokefuta", h.ListRecords)
		r.Get("/pokefuta/{id}", h.GetRecord)
		r.Get("/stats", h.Stats)

		r.Route("/health", func(r chi.Router) {
			r.Get("/", h.Health)
			r.Get("/live", h.HealthLive)
			r.Get("/ready", h.HealthReady)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// prometheusMetrics records request counts and latency per route pattern.
func prometheusMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = "unmatched"
		}
		metrics.APIRequestsTotal.WithLabelValues(r.Method, pattern, strconv.Itoa(ww.Status())).Inc()
		metrics.APIRequestDuration.WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
	})
}
