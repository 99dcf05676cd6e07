// Pokefuta Tracker - Pokemon Manhole Dataset Pipeline and Map API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pokefuta-tracker

// Package overlay loads the hand-maintained TSV side table of manual
// corrections. The table is keyed by record ID and merged on top of
// scraped fields by the normalizer; the pipeline only ever reads it.
package overlay

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tomtom215/pokefuta-tracker/internal/logging"
)

// Entry is one manual correction row. Empty fields mean "no override";
// the scraped value stays.
type Entry struct {
	ID         string
	Title      string
	Prefecture string
	City       string
	Address    string
	Pokemons   []string
}

// Table is an immutable snapshot of the overlay file, loaded once per
// run and threaded explicitly into the normalizer. No global state, so
// tests and concurrent runs can carry different snapshots.
type Table struct {
	entries map[string]Entry
}

// Empty returns a table with no entries.
func Empty() *Table {
	return &Table{entries: map[string]Entry{}}
}

// Load reads the TSV overlay file at path. An empty path yields an empty
// table; any other failure is a setup error and fatal to the run.
func Load(path string) (*Table, error) {
	if path == "" {
		return Empty(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open overlay %s: %w", path, err)
	}
	defer f.Close()

	t, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse overlay %s: %w", path, err)
	}
	logging.Info().Int("entries", t.Len()).Str("path", path).Msg("Loaded overlay table")
	return t, nil
}

// parse reads tab-separated rows with a header line. Column order is
// free; unknown columns are ignored so the table can carry extra notes.
func parse(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return Empty(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	col := map[string]int{}
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	if _, ok := col["id"]; !ok {
		return nil, fmt.Errorf("missing required column %q", "id")
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	entries := map[string]Entry{}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		id := field(row, "id")
		if id == "" {
			continue
		}
		entries[id] = Entry{
			ID:         id,
			Title:      field(row, "title"),
			Prefecture: field(row, "prefecture"),
			City:       field(row, "city"),
			Address:    field(row, "address"),
			Pokemons:   splitList(field(row, "pokemons")),
		}
	}
	return &Table{entries: entries}, nil
}

// splitList parses a comma-separated pokemon list, preserving order.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Lookup returns the overlay entry for id, if one exists.
func (t *Table) Lookup(id string) (Entry, bool) {
	e, ok := t.entries[id]
	return e, ok
}

// Len returns the number of overlay entries.
func (t *Table) Len() int {
	return len(t.entries)
}
