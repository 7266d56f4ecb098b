package congress

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/rollcall/internal/domain/probe"
	"github.com/okian/rollcall/internal/domain/vote"
	"github.com/okian/rollcall/pkg/logger"
)

const apiTimeLayout = "2006-01-02T15:04:05Z"

// RollCall is one listing entry with its identifying key.
type RollCall struct {
	Key     vote.RollCallKey
	Title   string
	Short   string
	Meaning string
	Href    string
}

// Record converts the listing entry into the fields it contributes to a vote
// record. Offenders stay nil so a merge never clears computed offenders.
func (r RollCall) Record() vote.VoteRecord {
	key := r.Key
	return vote.VoteRecord{
		Title:   r.Title,
		Short:   r.Short,
		Href:    r.Href,
		Award:   vote.DefaultAward,
		Meaning: r.Meaning,
		RC:      &key,
	}
}

// ListRollCalls returns the roll calls of chamber recorded between from and to.
func (f *Fetcher) ListRollCalls(ctx context.Context, chamber vote.Chamber, from, to time.Time) ([]RollCall, error) {
	q := url.Values{}
	q.Set("fromDateTime", from.UTC().Format(apiTimeLayout))
	q.Set("toDateTime", to.UTC().Format(apiTimeLayout))
	q.Set("format", "json")
	q.Set("limit", strconv.Itoa(f.pageLimit))
	seed := fmt.Sprintf("%s/%s-vote?%s", f.base, chamber, q.Encode())

	items, err := f.FetchAll(ctx, seed)
	if err != nil {
		return nil, fmt.Errorf("list %s roll calls: %w", chamber, err)
	}

	out := make([]RollCall, 0, len(items))
	for _, it := range items {
		rc, ok := rollCallFrom(chamber, it)
		if !ok {
			f.logger.Debug(ctx, "listing item without roll number skipped")
			continue
		}
		out = append(out, rc)
	}
	f.logger.Info(ctx, "roll calls listed",
		logger.String("chamber", string(chamber)),
		logger.Int("count", len(out)),
	)
	return out, nil
}

// MemberVotes returns every member's cast vote on the roll call key. Entries
// are de-duplicated by bioguide id; items without one are dropped.
func (f *Fetcher) MemberVotes(ctx context.Context, key vote.RollCallKey) ([]vote.MemberVoteEntry, error) {
	seed := fmt.Sprintf("%s/%s-vote/%d/%d/%d/members?format=json&limit=%d",
		f.base, key.Chamber, key.Congress, key.Session, key.Roll, f.pageLimit)

	items, err := f.FetchAll(ctx, seed,
		WithItemPaths(memberItemPaths...),
		WithKey(func(it Item) string { return probe.String(it, memberIDPaths...) }),
	)
	if err != nil {
		return nil, fmt.Errorf("member votes %s: %w", key, err)
	}

	out := make([]vote.MemberVoteEntry, 0, len(items))
	for _, it := range items {
		id := probe.String(it, memberIDPaths...)
		if id == "" {
			continue
		}
		entry := vote.NewMemberVote(id, probe.String(it, votePaths...))
		entry.Name = memberName(it)
		entry.Party = probe.String(it, partyPaths...)
		entry.State = probe.String(it, statePaths...)
		out = append(out, entry)
	}
	return out, nil
}

func rollCallFrom(chamber vote.Chamber, it Item) (RollCall, bool) {
	roll, ok := probe.Int(it, rollPaths...)
	if !ok {
		return RollCall{}, false
	}
	congress, ok := probe.Int(it, congressPaths...)
	if !ok {
		return RollCall{}, false
	}
	session, _ := probe.Int(it, sessionPaths...)

	title := probe.String(it, titlePaths...)
	short := strings.TrimSpace(probe.String(it, billType...) + " " + probe.String(it, billNumber...))
	if short == "" {
		short = title
	}
	return RollCall{
		Key:     vote.RollCallKey{Chamber: chamber, Congress: congress, Session: session, Roll: roll},
		Title:   title,
		Short:   short,
		Meaning: probe.String(it, meaningPaths...),
		Href:    probe.String(it, hrefPaths...),
	}, true
}

func memberName(it Item) string {
	if n := probe.String(it, namePaths...); n != "" {
		return n
	}
	return strings.TrimSpace(probe.String(it, firstNamePaths...) + " " + probe.String(it, lastNamePaths...))
}
