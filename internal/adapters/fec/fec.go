// Package fec reads campaign-finance totals and contribution breakdowns for a
// candidate from the OpenFEC API.
package fec

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/rollcall/internal/adapters/fetch"
	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/internal/domain/probe"
	"github.com/okian/rollcall/pkg/logger"
)

// Default client configuration constants.
const (
	defaultBaseURL = "https://api.open.fec.gov/v1"
	defaultCycle   = 2026
	breakdownPage  = 100
	smallDollarBin = 0
)

// ErrNoCandidate is returned for a member without an FEC candidate id.
var ErrNoCandidate = errors.New("member has no FEC candidate id")

var (
	receiptsPaths   = probe.Paths{"receipts", "total_receipts"}
	individualPaths = probe.Paths{"individual_contributions", "individual_itemized_contributions", "total_individual_contributions"}
	pacPaths        = probe.Paths{"pac_contributions", "other_political_committee_contributions", "political_party_committee_contributions"}
	transferPaths   = probe.Paths{"transfers_from_other_authorized_committee", "transfers_from_affiliated_committee"}
	rowTotalPaths   = probe.Paths{"total", "count_total"}
	rowStatePaths   = probe.Paths{"state", "contributor_state"}
	rowSizePaths    = probe.Paths{"size"}
)

// Client is the OpenFEC reader.
type Client struct {
	http       fetch.Getter
	base       string
	cycle      int
	breakdowns bool
	logger     logger.Logger
}

// NewClient creates a client over getter, which carries authentication.
func NewClient(getter fetch.Getter, opts ...Option) *Client {
	c := &Client{
		http:       getter,
		base:       defaultBaseURL,
		cycle:      defaultCycle,
		breakdowns: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get()
	}
	c.logger = c.logger.Named("fec")
	return c
}

// Cycle returns the election cycle the client queries.
func (c *Client) Cycle() int { return c.cycle }

// Summary returns the donor summary of m. Breakdown failures are logged and
// leave their fields at zero; a totals failure is returned.
func (c *Client) Summary(ctx context.Context, m model.Member) (model.DonorSummary, error) {
	if m.FEC == "" {
		return model.DonorSummary{Cycle: c.cycle}, ErrNoCandidate
	}

	sum, err := c.Totals(ctx, m.FEC)
	if err != nil {
		return model.DonorSummary{Cycle: c.cycle}, err
	}
	if !c.breakdowns {
		return sum, nil
	}

	in, out, err := c.StateSplit(ctx, m.FEC, m.State)
	if err != nil {
		c.logger.Warn(ctx, "state breakdown failed",
			logger.String("bioguide", m.Bioguide),
			logger.Error(err),
		)
	}
	sum.InStateDollars, sum.OutStateDollars = in, out

	small, err := c.SmallShare(ctx, m.FEC)
	if err != nil {
		c.logger.Warn(ctx, "size breakdown failed",
			logger.String("bioguide", m.Bioguide),
			logger.Error(err),
		)
	}
	sum.SmallShare = small
	return sum, nil
}

// Totals reads the cycle totals of a candidate.
func (c *Client) Totals(ctx context.Context, candidateID string) (model.DonorSummary, error) {
	q := c.query()
	q.Set("per_page", "1")
	u := fmt.Sprintf("%s/candidate/%s/totals/?%s", c.base, url.PathEscape(candidateID), q.Encode())

	var doc any
	if err := c.http.GetJSON(ctx, u, &doc); err != nil {
		return model.DonorSummary{}, fmt.Errorf("totals %s: %w", candidateID, err)
	}

	sum := model.DonorSummary{Cycle: c.cycle}
	row, ok := probe.First(doc, "results.0")
	if !ok {
		return sum, nil
	}
	sum.Receipts = probe.Float(row, receiptsPaths...)
	sum.Individual = probe.Float(row, individualPaths...)
	sum.PAC = probe.Float(row, pacPaths...)
	sum.Transfers = probe.Float(row, transferPaths...)
	if sum.Receipts > 0 {
		sum.PACPct = sum.PAC / sum.Receipts
	}
	return sum, nil
}

// StateSplit sums itemized individual dollars from the candidate's home
// state and from everywhere else.
func (c *Client) StateSplit(ctx context.Context, candidateID, homeState string) (in, out float64, err error) {
	rows, err := c.breakdown(ctx, "by_state", candidateID)
	if err != nil {
		return 0, 0, err
	}
	home := strings.ToUpper(strings.TrimSpace(homeState))
	for _, r := range rows {
		amt := probe.Float(r, rowTotalPaths...)
		if home != "" && strings.EqualFold(probe.String(r, rowStatePaths...), home) {
			in += amt
		} else {
			out += amt
		}
	}
	return in, out, nil
}

// SmallShare is the share of individual dollars in the smallest size bin.
func (c *Client) SmallShare(ctx context.Context, candidateID string) (float64, error) {
	rows, err := c.breakdown(ctx, "by_size", candidateID)
	if err != nil {
		return 0, err
	}
	var total, small float64
	for _, r := range rows {
		amt := probe.Float(r, rowTotalPaths...)
		total += amt
		if size, ok := probe.Int(r, rowSizePaths...); ok && size == smallDollarBin {
			small += amt
		}
	}
	if total == 0 {
		return 0, nil
	}
	return small / total, nil
}

func (c *Client) breakdown(ctx context.Context, kind, candidateID string) ([]any, error) {
	q := c.query()
	q.Set("candidate_id", candidateID)
	q.Set("per_page", strconv.Itoa(breakdownPage))
	u := fmt.Sprintf("%s/schedules/schedule_a/%s/by_candidate/?%s", c.base, kind, q.Encode())

	var doc any
	if err := c.http.GetJSON(ctx, u, &doc); err != nil {
		return nil, fmt.Errorf("%s %s: %w", kind, candidateID, err)
	}
	rows, _ := probe.Slice(doc, "results")
	return rows, nil
}

func (c *Client) query() url.Values {
	q := url.Values{}
	q.Set("cycle", strconv.Itoa(c.cycle))
	q.Set("election_full", "true")
	return q
}
