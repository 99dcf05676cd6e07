// Pokefuta Tracker - Pokemon Manhole Dataset Pipeline and Map API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pokefuta-tracker

package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != "info" {
		t.Errorf("expected default level 'info', got '%s'", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("expected default format 'json', got '%s'", cfg.Format)
	}
	if cfg.Caller {
		t.Error("expected default caller to be false")
	}
}

func TestInit(t *testing.T) {
	var buf bytes.Buffer

	Init(Config{
		Level:  "debug",
		Format: "json",
		Output: &buf,
	})
	defer Init(DefaultConfig())

	Info().Msg("test message")

	output := buf.String()
	if !strings.Contains(output, "test message") {
		t.Errorf("expected output to contain 'test message', got: %s", output)
	}
	if !strings.Contains(output, `"level":"info"`) {
		t.Errorf("expected output to contain level, got: %s", output)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"disabled", zerolog.Disabled},
		{"DEBUG", zerolog.DebugLevel},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(DefaultConfig())

	runLogger := With().Str("run_id", "abc123").Logger()
	runLogger.Info().Msg("contextual")

	output := buf.String()
	if !strings.Contains(output, `"run_id":"abc123"`) {
		t.Errorf("expected run_id field, got: %s", output)
	}
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(DefaultConfig())

	slogger := NewSlogLogger()
	slogger.Info("from slog", "service", "updater")

	output := buf.String()
	if !strings.Contains(output, "from slog") {
		t.Errorf("slog message not routed to zerolog: %s", output)
	}
	if !strings.Contains(output, `"service":"updater"`) {
		t.Errorf("slog attr not carried: %s", output)
	}
}
