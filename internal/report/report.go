// Pokefuta Tracker - Pokemon Manhole Dataset Pipeline and Map API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pokefuta-tracker

// Package report renders the outcome of a reconciliation run for humans
// and machines: a per-kind summary, a markdown changelog entry, and a
// JSON blob for scripting.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/pokefuta-tracker/internal/models"
	"github.com/tomtom215/pokefuta-tracker/internal/reconcile"
)

// Summary aggregates one run's transitions by kind.
type Summary struct {
	RunID       string              `json:"run_id"`
	At          models.Timestamp    `json:"at"`
	Added       []models.Transition `json:"added,omitempty"`
	Updated     []models.Transition `json:"updated,omitempty"`
	Deleted     []models.Transition `json:"deleted,omitempty"`
	Resurrected []models.Transition `json:"resurrected,omitempty"`
	Unchanged   int                 `json:"unchanged"`
	Transient   int                 `json:"transient"`
}

// Summarize groups a run result by transition kind.
func Summarize(res *reconcile.Result) *Summary {
	s := &Summary{
		RunID:     res.RunID,
		At:        res.StartedAt,
		Unchanged: res.Unchanged,
		Transient: res.Transient,
	}
	for _, t := range res.Transitions {
		switch t.Kind {
		case models.TransitionAdded:
			s.Added = append(s.Added, t)
		case models.TransitionUpdated:
			s.Updated = append(s.Updated, t)
		case models.TransitionDeleted:
			s.Deleted = append(s.Deleted, t)
		case models.TransitionResurrected:
			s.Resurrected = append(s.Resurrected, t)
		}
	}
	return s
}

// Changed reports whether the summary contains any transitions.
func (s *Summary) Changed() bool {
	return len(s.Added)+len(s.Updated)+len(s.Deleted)+len(s.Resurrected) > 0
}

// JSON renders the summary for machine consumption.
func (s *Summary) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// ChangelogEntry renders one markdown section for the running changelog.
// Quiet runs render an empty string; the changelog only ever records
// actual change.
func (s *Summary) ChangelogEntry() string {
	if !s.Changed() {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", s.At.UTC().Format("2006-01-02 15:04 UTC"))
	writeSection(&sb, "Added", s.Added)
	writeSection(&sb, "Updated", s.Updated)
	writeSection(&sb, "Deleted", s.Deleted)
	writeSection(&sb, "Resurrected", s.Resurrected)
	return sb.String()
}

func writeSection(sb *strings.Builder, heading string, ts []models.Transition) {
	if len(ts) == 0 {
		return
	}
	fmt.Fprintf(sb, "### %s (%d)\n\n", heading, len(ts))
	for _, t := range ts {
		if len(t.Fields) > 0 {
			fmt.Fprintf(sb, "- %s (%s)\n", t.ID, strings.Join(t.Fields, ", "))
		} else {
			fmt.Fprintf(sb, "- %s\n", t.ID)
		}
	}
	sb.WriteString("\n")
}

// AppendChangelog appends the entry for this summary to the changelog
// file, creating it (and its directory) as needed. Quiet runs append
// nothing and leave the file untouched.
func (s *Summary) AppendChangelog(path string) error {
	entry := s.ChangelogEntry()
	if entry == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create changelog dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open changelog: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(entry); err != nil {
		return fmt.Errorf("append changelog: %w", err)
	}
	return nil
}
