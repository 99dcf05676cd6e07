// Pokefuta Tracker - Pokemon Manhole Dataset Pipeline and Map API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pokefuta-tracker

package normalize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tomtom215/pokefuta-tracker/internal/models"
	"github.com/tomtom215/pokefuta-tracker/internal/overlay"
)

func loadOverlay(t *testing.T, tsv string) *overlay.Table {
	t.Helper()
	path := filepath.Join(t.TempDir(), "overlay.tsv")
	if err := os.WriteFile(path, []byte(tsv), 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	tbl, err := overlay.Load(path)
	if err != nil {
		t.Fatalf("load overlay: %v", err)
	}
	return tbl
}

func scraped() *models.ScrapedRecord {
	return &models.ScrapedRecord{
		ID:         "5",
		Title:      "北海道札幌市のポケふた",
		Prefecture: "北海道",
		City:       "札幌市",
		Lat:        43.06,
		Lng:        141.35,
		Pokemons:   []string{"アローラロコン"},
		DetailURL:  "https://local.pokemon.jp/manhole/desc/5/",
	}
}

func TestCandidateNoOverlay(t *testing.T) {
	core := Candidate(scraped(), overlay.Empty())
	if core.Title != "北海道札幌市のポケふた" || core.Lat != 43.06 {
		t.Errorf("scraped fields not carried through: %+v", core)
	}
	if core.Address != "" {
		t.Errorf("address should be empty without overlay, got %q", core.Address)
	}
}

func TestCandidateOverlayWinsPerField(t *testing.T) {
	tbl := loadOverlay(t, "id\ttitle\taddress\tpokemons\n5\tCorrected Title\t中央区北3条\tロコン\n")

	core := Candidate(scraped(), tbl)
	if core.Title != "Corrected Title" {
		t.Errorf("overlay title should win, got %q", core.Title)
	}
	if core.Address != "中央区北3条" {
		t.Errorf("overlay address should apply, got %q", core.Address)
	}
	if len(core.Pokemons) != 1 || core.Pokemons[0] != "ロコン" {
		t.Errorf("overlay pokemons should win, got %v", core.Pokemons)
	}
	// Fields the overlay leaves empty keep the scraped value.
	if core.Prefecture != "北海道" || core.City != "札幌市" {
		t.Errorf("empty overlay fields must not clear scraped values: %+v", core)
	}
	// The overlay never touches coordinates or the detail URL.
	if core.Lat != 43.06 || core.Lng != 141.35 || core.DetailURL == "" {
		t.Errorf("coordinates or URL altered by overlay: %+v", core)
	}
}

func TestDiff(t *testing.T) {
	base := Candidate(scraped(), overlay.Empty())

	t.Run("identical", func(t *testing.T) {
		if d := Diff(base, base); len(d) != 0 {
			t.Errorf("identical projections diff = %v, want empty", d)
		}
		if !Equal(base, base) {
			t.Error("identical projections must be Equal")
		}
	})

	t.Run("changed fields listed in whitelist order", func(t *testing.T) {
		other := base
		other.Title = "New Title"
		other.Lng = 141.36
		other.Pokemons = []string{"アローラロコン", "ロコン"}

		got := Diff(base, other)
		want := []string{FieldTitle, FieldLng, FieldPokemons}
		if len(got) != len(want) {
			t.Fatalf("diff = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("diff = %v, want %v", got, want)
			}
		}
		if Equal(base, other) {
			t.Error("changed projections must not be Equal")
		}
	})

	t.Run("pokemon order matters", func(t *testing.T) {
		a := base
		b := base
		a.Pokemons = []string{"A", "B"}
		b.Pokemons = []string{"B", "A"}
		if Equal(a, b) {
			t.Error("pokemon lists are compared as literal sequences")
		}
	})
}

func TestCompareFieldsCoversEveryCase(t *testing.T) {
	// Every whitelisted name must actually be compared; an unknown name
	// slipping into the list would silently compare as equal.
	for _, f := range CompareFields {
		var a, b models.CoreFields
		switch f {
		case FieldTitle:
			b.Title = "x"
		case FieldPrefecture:
			b.Prefecture = "x"
		case FieldCity:
			b.City = "x"
		case FieldAddress:
			b.Address = "x"
		case FieldLat:
			b.Lat = 1
		case FieldLng:
			b.Lng = 1
		case FieldPokemons:
			b.Pokemons = []string{"x"}
		case FieldDetailURL:
			b.DetailURL = "x"
		default:
			t.Fatalf("unhandled compare field %q", f)
		}
		if fieldEqual(f, a, b) {
			t.Errorf("field %q not detected as changed", f)
		}
	}
}
