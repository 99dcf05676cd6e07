// Pokefuta Tracker - Pokemon Manhole Dataset Pipeline and Map API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pokefuta-tracker

package dataset

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/tomtom215/pokefuta-tracker/internal/logging"
	"github.com/tomtom215/pokefuta-tracker/internal/metrics"
	"github.com/tomtom215/pokefuta-tracker/internal/models"
	"github.com/tomtom215/pokefuta-tracker/internal/validation"
)

// maxLineSize bounds a single NDJSON line on load. Records are a few
// hundred bytes; 1MB leaves generous headroom.
const maxLineSize = 1 << 20

// ErrCorruptLine marks a dataset line that failed to parse or validate.
// Load skips such lines instead of aborting; the sentinel lets callers
// of parseLine distinguish bad data from I/O failures.
var ErrCorruptLine = errors.New("corrupt dataset line")

// Store reads and writes the NDJSON dataset file.
type Store struct {
	path string
}

// NewStore creates a store for the given NDJSON path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the primary dataset path.
func (s *Store) Path() string {
	return s.path
}

// legacyFields captures timestamp fields written by earlier dataset
// generations, migrated into last_updated on load.
type legacyFields struct {
	LastSeen          *models.Timestamp `json:"last_seen"`
	SourceLastChecked *models.Timestamp `json:"source_last_checked"`
}

// Load reads the persisted record set. A missing file is not an error:
// the first run starts from an empty dataset. Lines that fail to parse
// or validate are skipped and logged, never aborting the whole load.
func (s *Store) Load() (*Dataset, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Info().Str("path", s.path).Msg("Dataset file not found, starting empty")
			return New(), nil
		}
		return nil, fmt.Errorf("open dataset %s: %w", s.path, err)
	}
	defer f.Close()

	ds := New()
	skipped := 0
	lineNum := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		rec, err := parseLine(line)
		if err != nil {
			skipped++
			metrics.CorruptLinesSkipped.Inc()
			logging.Warn().Int("line", lineNum).Err(err).Msg("Skipping corrupt dataset line")
			continue
		}
		ds.Put(rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", s.path, err)
	}

	active, deleted := ds.Counts()
	metrics.SetRecordCounts(active, deleted)
	logging.Info().
		Int("records", ds.Len()).
		Int("skipped", skipped).
		Str("path", s.path).
		Msg("Loaded dataset")
	return ds, nil
}

// parseLine decodes and validates one NDJSON line, applying legacy
// timestamp migration so datasets written by older versions load clean.
func parseLine(line []byte) (*models.Record, error) {
	var rec models.Record
	if err := json.Unmarshal(line, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptLine, err)
	}

	migrate(&rec, line)

	if err := validation.ValidateStruct(&rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptLine, err)
	}
	return &rec, nil
}

// migrate fills fields that old dataset generations left out. Timestamps
// only ever move forward here; firstSeen <= lastUpdated holds afterward.
func migrate(rec *models.Record, line []byte) {
	if rec.Status == "" {
		rec.Status = models.StatusActive
	}
	if rec.AddedAt.IsZero() {
		rec.AddedAt = rec.FirstSeen
	}
	if rec.FirstSeen.IsZero() {
		rec.FirstSeen = rec.AddedAt
	}
	if rec.LastUpdated.IsZero() {
		var legacy legacyFields
		// Best effort: a parse failure here just leaves the legacy
		// fields empty.
		_ = json.Unmarshal(line, &legacy)
		switch {
		case legacy.LastSeen != nil && !legacy.LastSeen.IsZero():
			rec.LastUpdated = *legacy.LastSeen
		case legacy.SourceLastChecked != nil && !legacy.SourceLastChecked.IsZero():
			rec.LastUpdated = *legacy.SourceLastChecked
		default:
			rec.LastUpdated = rec.FirstSeen
		}
	}
}

// Save serializes the full record set (active and deleted) in store
// order and replaces the dataset file atomically. A crash mid-write
// leaves the previous file intact.
func (s *Store) Save(ds *Dataset) error {
	if err := writeNDJSON(s.path, ds.Records()); err != nil {
		return err
	}
	active, deleted := ds.Counts()
	metrics.SetRecordCounts(active, deleted)
	logging.Info().Int("records", ds.Len()).Str("path", s.path).Msg("Wrote dataset")
	return nil
}

// SaveActive writes the active-only export to path with the same atomic
// guarantee. Deleted rows never appear in it.
func (s *Store) SaveActive(path string, ds *Dataset) error {
	records := ds.Active()
	if err := writeNDJSON(path, records); err != nil {
		return err
	}
	logging.Info().Int("records", len(records)).Str("path", path).Msg("Mirrored active dataset")
	return nil
}

// writeNDJSON writes records to path via temp-file-then-rename. The temp
// file lives in the target directory so the rename stays on one
// filesystem.
func writeNDJSON(path string, records []*models.Record) error {
	dir := filepath.Dir(path)
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dataset dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op after a successful rename.
		_ = os.Remove(tmpName)
	}()

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			tmp.Close()
			return fmt.Errorf("marshal record %s: %w", rec.ID, err)
		}
		if _, err := w.Write(data); err != nil {
			tmp.Close()
			return fmt.Errorf("write temp file: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			tmp.Close()
			return fmt.Errorf("write temp file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
