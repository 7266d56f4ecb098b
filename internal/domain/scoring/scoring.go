// Package scoring computes per-member alignment scores from tracked vote
// records.
package scoring

import (
	"context"
	"math"
	"regexp"

	"github.com/okian/rollcall/internal/domain/vote"
)

// sharePrecision rounds shares to three decimal places.
const sharePrecision = 1000

// DefaultTopicPattern matches campaign-finance related titles.
const DefaultTopicPattern = `campaign|finance|lobby|dark|ethic`

// AlignmentScore is one value of vote-alignments.json.
type AlignmentScore struct {
	Count int     `json:"offender_votes"`
	Share float64 `json:"share"`
}

// RecordSource exposes the tracked vote records.
type RecordSource interface {
	Records() map[string]vote.VoteRecord
}

// Aggregator computes alignment scores. It holds no state between calls.
type Aggregator struct {
	topic *regexp.Regexp
}

// NewAggregator creates an aggregator with configuration options.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// InScope reports whether a record participates in the alignment index: it
// must have at least one offender and, when a topic filter is set, a matching
// title.
func (a *Aggregator) InScope(r *vote.VoteRecord) bool {
	if len(r.Offenders) == 0 {
		return false
	}
	return a.topic == nil || a.topic.MatchString(r.Title)
}

// Compute scores every member in members plus every offender seen in an
// in-scope record. Members who never offend get a zero score.
func (a *Aggregator) Compute(_ context.Context, src RecordSource, members []string) map[string]AlignmentScore {
	counts := make(map[string]int, len(members))
	for _, id := range members {
		if id != "" {
			counts[id] = 0
		}
	}

	total := 0
	for _, r := range src.Records() {
		if !a.InScope(&r) {
			continue
		}
		total++
		// a member listed twice on one record counts once
		seen := make(map[string]struct{}, len(r.Offenders))
		for _, o := range r.Offenders {
			if o.Bioguide == "" {
				continue
			}
			if _, dup := seen[o.Bioguide]; dup {
				continue
			}
			seen[o.Bioguide] = struct{}{}
			counts[o.Bioguide]++
		}
	}

	out := make(map[string]AlignmentScore, len(counts))
	for id, n := range counts {
		out[id] = AlignmentScore{Count: n, Share: Share(n, total)}
	}
	return out
}

// Share returns n/total rounded to three decimals, or 0 when total is 0.
func Share(n, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*sharePrecision) / sharePrecision
}
