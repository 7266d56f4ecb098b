package vote

import (
	"encoding/json"
	"fmt"
	"sort"
)

// DefaultOffendersVote is the rule used when a record does not specify one.
var DefaultOffendersVote = RuleSpec{"no", "nay"} //nolint:gochecknoglobals // default rule spec

// RuleSpec is the persisted form of an offender rule. It unmarshals from either
// a single JSON string or an array of strings and always marshals as an array.
type RuleSpec []string

// UnmarshalJSON accepts "nay" as well as ["no","nay"].
func (r *RuleSpec) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*r = RuleSpec{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("offenders_vote must be a string or a list of strings: %w", err)
	}
	*r = many
	return nil
}

// OffenderRule decides which cast votes count as offending. It is immutable
// once built and safe for concurrent use.
type OffenderRule struct {
	labels map[Label]struct{}
}

// NewOffenderRule builds a rule from labels. Entries are normalized up front;
// entries that normalize to Unknown are ignored, and an empty result falls back
// to DefaultOffendersVote.
func NewOffenderRule(labels ...string) OffenderRule {
	set := labelSet(labels)
	if len(set) == 0 {
		set = labelSet(DefaultOffendersVote)
	}
	return OffenderRule{labels: set}
}

func labelSet(labels []string) map[Label]struct{} {
	set := make(map[Label]struct{}, len(labels))
	for _, raw := range labels {
		if l := Normalize(raw); l != Unknown {
			set[l] = struct{}{}
		}
	}
	return set
}

// Rule builds the OffenderRule described by r.
func (r RuleSpec) Rule() OffenderRule {
	return NewOffenderRule(r...)
}

// IsOffending normalizes raw and reports whether it is in the rule set.
func (r OffenderRule) IsOffending(raw string) bool {
	_, ok := r.labels[Normalize(raw)]
	return ok
}

// Labels returns the rule's labels in sorted order.
func (r OffenderRule) Labels() []Label {
	out := make([]Label, 0, len(r.labels))
	for l := range r.labels {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
