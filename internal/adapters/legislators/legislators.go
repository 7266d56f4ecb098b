// Package legislators turns the unitedstates/congress-legislators roster into
// member snapshot entries.
package legislators

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/okian/rollcall/internal/adapters/fetch"
	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/internal/domain/probe"
)

// Default roster locations.
const (
	DefaultSource        = "https://raw.githubusercontent.com/unitedstates/congress-legislators/gh-pages/legislators-current.json"
	DefaultPhotoTemplate = "https://unitedstates.github.io/images/congress/225x275/{bioguide}.jpg"
)

var (
	bioguidePaths = probe.Paths{"id.bioguide", "bioguide", "bioguideId"}
	fullNamePaths = probe.Paths{"name.official_full", "name.full"}
	fecPaths      = probe.Paths{"id.fec.0", "id.fec", "fec"}
)

// Source reads the roster from a URL or a local file.
type Source struct {
	http     fetch.Getter
	location string
	photo    string
}

// NewSource creates a roster source. location is fetched over HTTP when it
// has an http(s) scheme and read from disk otherwise.
func NewSource(getter fetch.Getter, location, photoTemplate string) *Source {
	if location == "" {
		location = DefaultSource
	}
	if photoTemplate == "" {
		photoTemplate = DefaultPhotoTemplate
	}
	return &Source{http: getter, location: location, photo: photoTemplate}
}

// Members loads the roster and converts every legislator with a bioguide id.
func (s *Source) Members(ctx context.Context) ([]model.Member, error) {
	raw, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	var doc []any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: roster %s: %w", fetch.ErrDecode, s.location, err)
	}

	out := make([]model.Member, 0, len(doc))
	for _, entry := range doc {
		if m, ok := s.member(entry); ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Source) read(ctx context.Context) ([]byte, error) {
	if strings.HasPrefix(s.location, "http://") || strings.HasPrefix(s.location, "https://") {
		return s.http.GetBytes(ctx, s.location)
	}
	raw, err := os.ReadFile(s.location)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	return raw, nil
}

func (s *Source) member(entry any) (model.Member, bool) {
	bio := probe.String(entry, bioguidePaths...)
	if bio == "" {
		return model.Member{}, false
	}
	term, _ := probe.Lookup(entry, "terms.-1")
	termType := probe.String(term, "type")

	name := probe.String(entry, fullNamePaths...)
	if name == "" {
		name = strings.TrimSpace(probe.String(entry, "name.first") + " " + probe.String(entry, "name.last"))
	}

	party := model.PartyCode(probe.String(term, "party"))
	m := model.Member{
		Bioguide:   bio,
		Name:       name,
		Party:      party,
		PartyLabel: model.PartyLabel(party),
		Chamber:    "house",
		State:      probe.String(term, "state"),
		FEC:        probe.String(entry, fecPaths...),
		Photo:      PhotoURL(s.photo, bio),
	}
	if termType == "sen" {
		m.Chamber = "senate"
	}
	if termType == "rep" {
		m.District = probe.String(term, "district")
	}
	return m, true
}

// PhotoURL expands the {bioguide} placeholder of a headshot URL template.
func PhotoURL(template, bioguide string) string {
	return strings.ReplaceAll(template, "{bioguide}", bioguide)
}
