// Pokefuta Tracker - Pokemon Manhole Dataset Pipeline and Map API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pokefuta-tracker

package services

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// mockHTTPServer is a test double for the HTTPServer interface.
type mockHTTPServer struct {
	listenErr     error
	block         bool
	shutdownCount atomic.Int32
	stopCh        chan struct{}
}

func newMockHTTPServer() *mockHTTPServer {
	return &mockHTTPServer{stopCh: make(chan struct{})}
}

func (m *mockHTTPServer) ListenAndServe() error {
	if m.listenErr != nil {
		return m.listenErr
	}
	if m.block {
		<-m.stopCh
		return http.ErrServerClosed
	}
	return nil
}

func (m *mockHTTPServer) Shutdown(ctx context.Context) error {
	m.shutdownCount.Add(1)
	close(m.stopCh)
	return nil
}

func TestHTTPServerServiceInterface(t *testing.T) {
	var _ suture.Service = (*HTTPServerService)(nil)
	var _ suture.Service = (*UpdaterService)(nil)
}

func TestHTTPServerServiceDefaults(t *testing.T) {
	svc := NewHTTPServerService(newMockHTTPServer(), 0)
	if svc.shutdownTimeout != 10*time.Second {
		t.Errorf("expected default timeout 10s, got %v", svc.shutdownTimeout)
	}
	if svc.String() != "http-server" {
		t.Errorf("name = %q", svc.String())
	}
}

func TestHTTPServerServiceStartupFailure(t *testing.T) {
	server := newMockHTTPServer()
	server.listenErr = errors.New("address in use")
	svc := NewHTTPServerService(server, time.Second)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, server.listenErr) {
		t.Errorf("err = %v, want wrapped startup failure", err)
	}
}

func TestHTTPServerServiceGracefulShutdown(t *testing.T) {
	server := newMockHTTPServer()
	server.block = true
	svc := NewHTTPServerService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	// Give the server goroutine a moment to start blocking.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
	if n := server.shutdownCount.Load(); n != 1 {
		t.Errorf("Shutdown called %d times, want 1", n)
	}
}
