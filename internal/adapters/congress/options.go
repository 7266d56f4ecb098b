package congress

import (
	"strings"

	"github.com/okian/rollcall/internal/domain/probe"
	"github.com/okian/rollcall/pkg/logger"
)

// Option applies a configuration option to the Fetcher.
type Option func(*Fetcher)

// WithBaseURL sets the API root, e.g. https://api.congress.gov/v3.
func WithBaseURL(base string) Option {
	return func(f *Fetcher) {
		if base != "" {
			f.base = strings.TrimRight(base, "/")
		}
	}
}

// WithPageLimit sets the per-page item limit requested from listings.
func WithPageLimit(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.pageLimit = n
		}
	}
}

// WithMaxPages caps how many pages one sequence may consume; zero means no cap.
func WithMaxPages(n int) Option {
	return func(f *Fetcher) {
		if n >= 0 {
			f.maxPages = n
		}
	}
}

// WithLogger sets a custom logger for the fetcher.
func WithLogger(l logger.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// DrainOption configures one FetchAll call.
type DrainOption func(*drain)

type drain struct {
	key   func(Item) string
	paths probe.Paths
}

// WithKey replaces the de-duplication key. An empty key falls back to the
// item's content hash.
func WithKey(key func(Item) string) DrainOption {
	return func(d *drain) {
		if key != nil {
			d.key = key
		}
	}
}

// WithItemPaths replaces the candidate paths where page items live.
func WithItemPaths(paths ...string) DrainOption {
	return func(d *drain) {
		if len(paths) > 0 {
			d.paths = paths
		}
	}
}
