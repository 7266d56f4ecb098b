package vote

import "time"

// DefaultAward is the category tag given to records imported from a listing.
const DefaultAward = "Recorded Vote"

// OffenderEntry is one persisted offender on a vote record.
type OffenderEntry struct {
	Bioguide string `json:"bioguide"`
	Vote     string `json:"vote"`
	Name     string `json:"name,omitempty"`
	Party    string `json:"party,omitempty"`
	State    string `json:"state,omitempty"`
}

// VoteRecord is one tracked legislative vote as persisted in votes.json.
//
// Offenders distinguishes nil (not provided) from empty (recomputed, nobody
// offended); the distinction matters when merging.
type VoteRecord struct {
	Title         string          `json:"title"`
	Short         string          `json:"short"`
	Href          string          `json:"href,omitempty"`
	Award         string          `json:"award"`
	Meaning       string          `json:"meaning"`
	RC            *RollCallKey    `json:"rc,omitempty"`
	OffendersVote RuleSpec        `json:"offenders_vote,omitempty"`
	Offenders     []OffenderEntry `json:"offenders"`
	UpdatedAt     *time.Time      `json:"updatedAt,omitempty"`
}

// Rule returns the record's offender rule, defaulting to no/nay.
func (r *VoteRecord) Rule() OffenderRule {
	return r.OffendersVote.Rule()
}

// MemberVoteEntry is one member's cast vote on a roll call.
type MemberVoteEntry struct {
	MemberID   string
	Raw        string
	Normalized Label
	Name       string
	Party      string
	State      string
}

// NewMemberVote builds an entry with its normalized label filled in.
func NewMemberVote(memberID, raw string) MemberVoteEntry {
	return MemberVoteEntry{MemberID: memberID, Raw: raw, Normalized: Normalize(raw)}
}

// Offender converts the entry to its persisted offender form.
func (m MemberVoteEntry) Offender() OffenderEntry {
	label := m.Normalized
	if label == "" {
		label = Normalize(m.Raw)
	}
	return OffenderEntry{
		Bioguide: m.MemberID,
		Vote:     label.Upper(),
		Name:     m.Name,
		Party:    m.Party,
		State:    m.State,
	}
}
