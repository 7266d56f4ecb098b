// Package bills seeds hand-curated vote records from a directory of bill
// pages.
package bills

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/okian/rollcall/internal/domain/vote"
)

var (
	whitespace = regexp.MustCompile(`\s+`)
	stripped   = regexp.MustCompile(`[()'&]`)
	dashRuns   = regexp.MustCompile(`-{2,}`)
	yearSuffix = regexp.MustCompile(`\s*\(2027\)\s*`)
)

// Upserter is the part of the vote store the seeder writes to.
type Upserter interface {
	Has(key string) bool
	Upsert(ctx context.Context, key string, fresh vote.VoteRecord) error
}

// Seed is one record derived from a bill page.
type Seed struct {
	Key    string
	Record vote.VoteRecord
}

// Scan lists the *.html pages in dir as seeds, sorted by key.
func Scan(dir string) ([]Seed, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read bills dir: %w", err)
	}

	out := make([]Seed, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(name), ".html") {
			continue
		}
		title := name[:len(name)-len(".html")]
		out = append(out, Seed{
			Key: Key(title),
			Record: vote.VoteRecord{
				Title:     title,
				Short:     strings.TrimSpace(yearSuffix.ReplaceAllString(title, "")),
				Href:      "/Bills/" + name,
				Offenders: []vote.OffenderEntry{},
			},
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Key derives the mapping key of a bill title.
func Key(title string) string {
	k := strings.ToLower(title)
	k = whitespace.ReplaceAllString(k, "-")
	k = stripped.ReplaceAllString(k, "")
	return dashRuns.ReplaceAllString(k, "-")
}

// Apply upserts seeds whose keys are not yet present and returns how many
// were added. Existing records are left intact.
func Apply(ctx context.Context, store Upserter, seeds []Seed) (int, error) {
	added := 0
	for _, s := range seeds {
		if store.Has(s.Key) {
			continue
		}
		if err := store.Upsert(ctx, s.Key, s.Record); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}
