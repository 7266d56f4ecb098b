// Package congress reads roll-call listings and member votes from the
// Congress.gov API, draining cursor pagination with order-preserving
// de-duplication.
package congress

import (
	"context"
	"fmt"
	"net/url"

	"github.com/okian/rollcall/internal/adapters/fetch"
	"github.com/okian/rollcall/internal/domain/dedupe"
	"github.com/okian/rollcall/internal/domain/probe"
	"github.com/okian/rollcall/pkg/logger"
	"github.com/okian/rollcall/pkg/metrics"
)

// Default fetcher configuration constants.
const (
	defaultBaseURL   = "https://api.congress.gov/v3"
	defaultPageLimit = 250
	defaultMaxPages  = 200
	metricsSource    = "congress"
)

// Item is one decoded entry of a page.
type Item = map[string]any

// Page is one decoded response of a paginated sequence.
type Page struct {
	Items []Item
	// Next is the absolute URL of the following page, empty on the last page.
	Next string
}

// Fetcher is the roll-call fetcher.
type Fetcher struct {
	client    fetch.Getter
	base      string
	pageLimit int
	maxPages  int
	logger    logger.Logger
}

// NewFetcher creates a fetcher over client, which carries authentication.
func NewFetcher(client fetch.Getter, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:    client,
		base:      defaultBaseURL,
		pageLimit: defaultPageLimit,
		maxPages:  defaultMaxPages,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = logger.Get()
	}
	f.logger = f.logger.Named("congress")
	return f
}

// FetchPage fetches one listing page.
func (f *Fetcher) FetchPage(ctx context.Context, pageURL string) (Page, error) {
	return f.fetchPage(ctx, pageURL, listingItemPaths)
}

func (f *Fetcher) fetchPage(ctx context.Context, pageURL string, paths probe.Paths) (Page, error) {
	var doc any
	if err := f.client.GetJSON(ctx, pageURL, &doc); err != nil {
		return Page{}, err
	}

	var raw []any
	if arr, ok := doc.([]any); ok {
		raw = arr
	} else {
		raw, _ = probe.Slice(doc, paths...)
	}
	items := make([]Item, 0, len(raw))
	for _, r := range raw {
		if it, ok := r.(map[string]any); ok {
			items = append(items, it)
		}
	}

	next, err := resolveNext(pageURL, probe.String(doc, nextPaths...))
	if err != nil {
		return Page{}, fmt.Errorf("%w: bad pagination cursor: %w", fetch.ErrDecode, err)
	}
	return Page{Items: items, Next: next}, nil
}

// FetchAll drains the sequence starting at seedURL. A failing page aborts the
// whole sequence and no partial result is returned.
func (f *Fetcher) FetchAll(ctx context.Context, seedURL string, opts ...DrainOption) ([]Item, error) {
	d := drain{key: RollCallItemKey, paths: listingItemPaths}
	for _, opt := range opts {
		opt(&d)
	}

	seen := dedupe.NewInMemoryDeduper()
	visited := make(map[string]struct{})
	var (
		all   []Item
		pages int
		dups  int
	)
	for next := seedURL; next != ""; {
		if _, loop := visited[next]; loop {
			f.logger.Warn(ctx, "pagination cursor repeated, stopping", logger.String("url", next))
			break
		}
		if f.maxPages > 0 && pages >= f.maxPages {
			f.logger.Warn(ctx, "page cap reached, stopping", logger.Int("pages", pages))
			break
		}
		visited[next] = struct{}{}

		page, err := f.fetchPage(ctx, next, d.paths)
		if err != nil {
			return nil, fmt.Errorf("page %d of %s: %w", pages+1, seedURL, err)
		}
		pages++
		metrics.RecordPage(metricsSource)

		fresh := dedupe.Filter(ctx, seen, page.Items, d.keyOrContent)
		dups += len(page.Items) - len(fresh)
		all = append(all, fresh...)
		next = page.Next
	}

	metrics.RecordDuplicates(dups)
	f.logger.Debug(ctx, "sequence drained",
		logger.String("seed", seedURL),
		logger.Int("pages", pages),
		logger.Int("items", len(all)),
		logger.Int("duplicates", dups),
	)
	return all, nil
}

func (d drain) keyOrContent(it Item) string {
	if k := d.key(it); k != "" {
		return k
	}
	return dedupe.ContentKey(it)
}

// RollCallItemKey keys a listing item by congress-session-roll. Items without
// a roll number get an empty key.
func RollCallItemKey(it Item) string {
	roll, ok := probe.Int(it, rollPaths...)
	if !ok {
		return ""
	}
	congress, _ := probe.Int(it, congressPaths...)
	session, _ := probe.Int(it, sessionPaths...)
	return fmt.Sprintf("%d-%d-%d", congress, session, roll)
}

// resolveNext makes a cursor absolute against the requested URL and strips
// any echoed api_key parameter.
func resolveNext(requested, next string) (string, error) {
	if next == "" {
		return "", nil
	}
	base, err := url.Parse(requested)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(next)
	if err != nil {
		return "", err
	}
	abs := base.ResolveReference(ref)
	q := abs.Query()
	if _, ok := q["api_key"]; ok {
		q.Del("api_key")
		abs.RawQuery = q.Encode()
	}
	return abs.String(), nil
}
