// Package config defines process configuration and its loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load is the only place that reads the environment; every other package
//   receives its settings through constructor options.
// - External errors are wrapped with this package's sentinels.
package config

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/rollcall/internal/domain/scoring"
	"github.com/okian/rollcall/internal/domain/vote"
)

// Snapshot file names inside DataDir.
const (
	MembersFile    = "members.json"
	VotesFile      = "votes.json"
	DonorsFile     = "donors-by-member.json"
	AlignmentsFile = "vote-alignments.json"
	VoteviewCSV    = "voteview_members.csv"
	IdeologyFile   = "ideology-by-member.json"
)

const dateLayout = "2006-01-02"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format"`

	// DataDir receives every snapshot file.
	DataDir string `koanf:"data_dir"`

	// Credentials. Sent as the X-Api-Key header.
	CongressAPIKey string `koanf:"congress_api_key"`
	FECAPIKey      string `koanf:"fec_api_key"`

	// API roots and upstream datasets.
	CongressAPIBase   string `koanf:"congress_api_base"`
	FECAPIBase        string `koanf:"fec_api_base"`
	LegislatorsSource string `koanf:"legislators_source"`
	PhotoURLTemplate  string `koanf:"photo_url_template"`
	VoteviewURL       string `koanf:"voteview_url"`
	// VoteviewCongress selects the congress to extract; 0 means latest.
	VoteviewCongress int    `koanf:"voteview_congress"`
	BillsDir         string `koanf:"bills_dir"`
	// HeadshotsDir receives {bioguide}.jpg files from the photos pipeline.
	HeadshotsDir string `koanf:"headshots_dir"`

	// Roll-call window. From and To accept RFC 3339 or YYYY-MM-DD; when From
	// is empty the window starts LookbackDays before To. Chambers defaults to
	// house; senate listings are opt-in.
	Chambers     []string `koanf:"chambers"`
	From         string   `koanf:"from"`
	To           string   `koanf:"to"`
	LookbackDays int      `koanf:"lookback_days"`
	PageLimit    int      `koanf:"page_limit"`
	// MaxPages caps one paginated sequence; 0 disables the cap.
	MaxPages int `koanf:"max_pages"`

	// Campaign finance.
	Cycle          int  `koanf:"cycle"`
	DonorBreakdown bool `koanf:"donor_breakdown"`

	// Transport and concurrency.
	Concurrency       int           `koanf:"concurrency"`
	MaxAttempts       int           `koanf:"max_attempts"`
	Backoff           time.Duration `koanf:"backoff"`
	HTTPTimeout       time.Duration `koanf:"http_timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`

	// AlignmentTopic restricts alignment scoring to matching record titles.
	AlignmentTopic string `koanf:"alignment_topic"`

	// MetricsFile, when set, receives a Prometheus textfile after each run.
	MetricsFile string `koanf:"metrics_file"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		DataDir:           "data",
		CongressAPIBase:   "https://api.congress.gov/v3",
		FECAPIBase:        "https://api.open.fec.gov/v1",
		LegislatorsSource: "https://raw.githubusercontent.com/unitedstates/congress-legislators/gh-pages/legislators-current.json",
		PhotoURLTemplate:  "https://unitedstates.github.io/images/congress/225x275/{bioguide}.jpg",
		VoteviewURL:       "https://voteview.com/static/data/out/members/HSall_members.csv.zip",
		BillsDir:          "Bills",
		HeadshotsDir:      "images/headshots",
		Chambers:          []string{"house"},
		LookbackDays:      30,
		PageLimit:         250,
		MaxPages:          200,
		Cycle:             2026,
		DonorBreakdown:    true,
		Concurrency:       5,
		MaxAttempts:       3,
		Backoff:           time.Second,
		HTTPTimeout:       30 * time.Second,
	}
}

// Validate rejects values no pipeline can run with.
func (c *Config) Validate() error {
	switch {
	case c.DataDir == "":
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	case c.Concurrency < 1:
		return fmt.Errorf("%w: concurrency must be at least 1, got %d", ErrInvalidConfig, c.Concurrency)
	case c.MaxAttempts < 1:
		return fmt.Errorf("%w: max_attempts must be at least 1, got %d", ErrInvalidConfig, c.MaxAttempts)
	case c.Backoff < 0:
		return fmt.Errorf("%w: backoff must not be negative", ErrInvalidConfig)
	case c.PageLimit < 1:
		return fmt.Errorf("%w: page_limit must be at least 1, got %d", ErrInvalidConfig, c.PageLimit)
	case c.MaxPages < 0:
		return fmt.Errorf("%w: max_pages must not be negative", ErrInvalidConfig)
	case c.LookbackDays < 0:
		return fmt.Errorf("%w: lookback_days must not be negative", ErrInvalidConfig)
	case c.Cycle < 1:
		return fmt.Errorf("%w: cycle must be positive, got %d", ErrInvalidConfig, c.Cycle)
	case c.RequestsPerSecond < 0:
		return fmt.Errorf("%w: requests_per_second must not be negative", ErrInvalidConfig)
	}
	if _, err := c.ChamberList(); err != nil {
		return err
	}
	if _, _, err := c.Window(time.Now()); err != nil {
		return err
	}
	if _, err := scoring.CompileTopic(c.AlignmentTopic); err != nil {
		return fmt.Errorf("%w: alignment_topic: %w", ErrInvalidConfig, err)
	}
	return nil
}

// RequireCongressKey fails when no Congress.gov key is configured.
func (c *Config) RequireCongressKey() error {
	if strings.TrimSpace(c.CongressAPIKey) == "" {
		return fmt.Errorf("%w: CONGRESS_API_KEY is required", ErrMissingCredential)
	}
	return nil
}

// RequireFECKey fails when no OpenFEC key is configured.
func (c *Config) RequireFECKey() error {
	if strings.TrimSpace(c.FECAPIKey) == "" {
		return fmt.Errorf("%w: FEC_API_KEY is required", ErrMissingCredential)
	}
	return nil
}

// ChamberList parses Chambers.
func (c *Config) ChamberList() ([]vote.Chamber, error) {
	if len(c.Chambers) == 0 {
		return nil, fmt.Errorf("%w: chambers must not be empty", ErrInvalidConfig)
	}
	out := make([]vote.Chamber, 0, len(c.Chambers))
	for _, s := range c.Chambers {
		ch, err := vote.ParseChamber(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		out = append(out, ch)
	}
	return out, nil
}

// Window resolves the roll-call date window relative to now.
func (c *Config) Window(now time.Time) (from, to time.Time, err error) {
	to = now.UTC()
	if c.To != "" {
		if to, err = parseTime(c.To); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: to: %w", ErrInvalidConfig, err)
		}
	}
	from = to.AddDate(0, 0, -c.LookbackDays)
	if c.From != "" {
		if from, err = parseTime(c.From); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: from: %w", ErrInvalidConfig, err)
		}
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: from %s is after to %s", ErrInvalidConfig, c.From, c.To)
	}
	return from, to, nil
}

// Path returns the location of a snapshot file inside DataDir.
func (c *Config) Path(name string) string {
	return filepath.Join(c.DataDir, name)
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(dateLayout, s)
}
