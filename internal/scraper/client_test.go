// Pokefuta Tracker - Pokemon Manhole Dataset Pipeline and Map API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pokefuta-tracker

package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/pokefuta-tracker/internal/config"
	"github.com/tomtom215/pokefuta-tracker/internal/models"
)

func testClient(baseURL string, retryMax int) *Client {
	return NewClient(&config.ScraperConfig{
		BaseURL:        baseURL,
		UserAgent:      "pokefuta-tracker-test",
		Timeout:        2 * time.Second,
		RetryMax:       retryMax,
		RequestsPerSec: 1000,
	})
}

func TestFetchFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/desc/42/" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(detailPage))
	}))
	defer srv.Close()

	res := testClient(srv.URL, 0).Fetch(context.Background(), "42")
	if res.Outcome != models.FetchFound {
		t.Fatalf("outcome = %v (%v), want found", res.Outcome, res.Err)
	}
	if res.Record == nil || res.Record.ID != "42" {
		t.Errorf("record = %+v", res.Record)
	}
}

func TestFetch404IsNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	res := testClient(srv.URL, 3).Fetch(context.Background(), "9999")
	if res.Outcome != models.FetchNotFound {
		t.Fatalf("outcome = %v, want not_found", res.Outcome)
	}
	// Definitive misses must not be retried.
	if n := calls.Load(); n != 1 {
		t.Errorf("404 fetched %d times, want 1", n)
	}
}

func TestFetchUnparsablePageIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>nothing useful</body></html>"))
	}))
	defer srv.Close()

	res := testClient(srv.URL, 0).Fetch(context.Background(), "1")
	if res.Outcome != models.FetchNotFound {
		t.Fatalf("outcome = %v, want not_found", res.Outcome)
	}
}

func TestFetchRetriesTransientThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(detailPage))
	}))
	defer srv.Close()

	res := testClient(srv.URL, 3).Fetch(context.Background(), "5")
	if res.Outcome != models.FetchFound {
		t.Fatalf("outcome = %v (%v), want found after retry", res.Outcome, res.Err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("fetched %d times, want 2", n)
	}
}

func TestFetchServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	res := testClient(srv.URL, 1).Fetch(context.Background(), "5")
	if res.Outcome != models.FetchTransient {
		t.Fatalf("outcome = %v, want transient", res.Outcome)
	}
	if res.Err == nil {
		t.Error("transient result should carry the underlying error")
	}
}

func TestFetchCanceledContextIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(detailPage))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := testClient(srv.URL, 0).Fetch(ctx, "5")
	if res.Outcome != models.FetchTransient {
		t.Fatalf("outcome = %v, want transient for canceled context", res.Outcome)
	}
}

func TestDetailURL(t *testing.T) {
	c := testClient("https://local.pokemon.jp/manhole/", 0)
	if got, want := c.DetailURL("17"), "https://local.pokemon.jp/manhole/desc/17/"; got != want {
		t.Errorf("DetailURL = %q, want %q", got, want)
	}
}
