// Pokefuta Tracker - Pokemon Manhole Dataset Pipeline and Map API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pokefuta-tracker

package scraper

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/tomtom215/pokefuta-tracker/internal/models"
)

// coordsRe extracts latitude and longitude from a Google Maps link
// query, e.g. "https://maps.google.com/?q=35.6895,139.6917".
var coordsRe = regexp.MustCompile(`q=([+-]?\d+(?:\.\d+)?),([+-]?\d+(?:\.\d+)?)`)

// pokemonNoise is stripped from anchor text before a candidate Pokemon
// name is accepted. Upstream link text mixes the name with boilerplate
// like 図鑑 (Pokedex) labels.
var pokemonNoise = []string{"の図鑑", "図鑑", "ポケモン", "Pokédex", "Pokedex"}

// Parse extracts a ScrapedRecord from one detail page body. The
// coordinates are mandatory: a page without a parseable maps link is
// reported as ErrUnparsable, which callers treat as a definitive miss.
func Parse(id string, body io.Reader, detailURL string) (*models.ScrapedRecord, error) {
	root, err := html.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse detail page %s: %w", id, err)
	}

	p := &pageExtractor{pokemons: map[string]struct{}{}}
	p.walk(root)

	if !p.haveCoords {
		return nil, ErrUnparsable
	}

	rec := &models.ScrapedRecord{
		ID:        id,
		Title:     p.title,
		Lat:       p.lat,
		Lng:       p.lng,
		Pokemons:  p.sortedPokemons(),
		DetailURL: detailURL,
	}
	rec.Prefecture, rec.City = splitLocation(p.title)
	return rec, nil
}

// pageExtractor accumulates fields while walking the parsed tree.
type pageExtractor struct {
	title      string
	lat, lng   float64
	haveCoords bool
	pokemons   map[string]struct{}
}

func (p *pageExtractor) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "h1", "h2":
			if p.title == "" {
				p.title = strings.TrimSpace(textContent(n))
			}
		case "a":
			p.visitAnchor(n)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c)
	}
}

func (p *pageExtractor) visitAnchor(n *html.Node) {
	href := attrValue(n, "href")
	if !p.haveCoords && strings.Contains(href, "maps.google") {
		if m := coordsRe.FindStringSubmatch(href); m != nil {
			lat, errLat := strconv.ParseFloat(m[1], 64)
			lng, errLng := strconv.ParseFloat(m[2], 64)
			if errLat == nil && errLng == nil {
				p.lat, p.lng = lat, lng
				p.haveCoords = true
			}
		}
	}

	text := strings.TrimSpace(textContent(n))
	if text == "" {
		return
	}
	if !strings.Contains(text, "図鑑") && !strings.Contains(text, "ポケモン") &&
		!strings.Contains(text, "Pokédex") {
		return
	}
	name := text
	for _, noise := range pokemonNoise {
		name = strings.ReplaceAll(name, noise, "")
	}
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > 20 {
		return
	}
	p.pokemons[name] = struct{}{}
}

func (p *pageExtractor) sortedPokemons() []string {
	if len(p.pokemons) == 0 {
		return nil
	}
	out := make([]string, 0, len(p.pokemons))
	for name := range p.pokemons {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// splitLocation derives prefecture and city from a detail page title of
// the form "北海道札幌市のポケふた" or "Hokkaido Sapporo". Prefecture
// suffixes follow the standard 都/道/府/県 set; everything after the
// suffix up to the first punctuation is taken as the city.
func splitLocation(title string) (prefecture, city string) {
	t := title
	// Cut at the literal descriptor particles, never at single runes: a
	// city like つがる市 contains る and must survive intact.
	for _, sep := range []string{"にある", "の", "("} {
		if i := strings.Index(t, sep); i >= 0 {
			t = t[:i]
		}
	}
	t = strings.TrimSpace(t)
	if t == "" {
		return "", ""
	}
	// Prefecture names are 2 or 3 runes plus a 都/道/府/県 suffix. The
	// shorter prefix is tried first so 京都府 splits at 府, not at the
	// 都 inside 京都.
	runes := []rune(t)
	for _, plen := range []int{2, 3} {
		if len(runes) <= plen {
			break
		}
		switch runes[plen] {
		case '都', '道', '府', '県':
			prefecture = string(runes[:plen+1])
			city = strings.TrimSpace(string(runes[plen+1:]))
			return prefecture, city
		}
	}
	// Latin or otherwise unsuffixed titles: first token is the
	// prefecture if a second token exists.
	if fields := strings.Fields(t); len(fields) >= 2 {
		return fields[0], strings.Join(fields[1:], " ")
	}
	return t, ""
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var rec func(*html.Node)
	rec = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			rec(c)
		}
	}
	rec(n)
	return sb.String()
}
