package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/rollcall/internal/adapters/congress"
	"github.com/okian/rollcall/internal/adapters/mq/worker"
	"github.com/okian/rollcall/internal/domain/vote"
	"github.com/okian/rollcall/pkg/logger"
)

// VotesReport summarizes a votes run.
type VotesReport struct {
	Listed     int
	Tracked    int
	Recomputed int
	Failed     int
}

type tracked struct {
	key string
	rc  vote.RollCallKey
}

// PullVotes imports roll-call listings into votes.json and recomputes the
// offenders of every record that points at a roll call. Listing failures are
// reported after the rest of the run has been saved.
func (s *Service) PullVotes(ctx context.Context) (VotesReport, error) {
	if err := s.cfg.RequireCongressKey(); err != nil {
		return VotesReport{}, err
	}
	chambers, err := s.cfg.ChamberList()
	if err != nil {
		return VotesReport{}, err
	}
	from, to, err := s.cfg.Window(s.now())
	if err != nil {
		return VotesReport{}, err
	}
	store, err := s.openStore(ctx)
	if err != nil {
		return VotesReport{}, err
	}

	fetcher := congress.NewFetcher(s.congress,
		congress.WithBaseURL(s.cfg.CongressAPIBase),
		congress.WithPageLimit(s.cfg.PageLimit),
		congress.WithMaxPages(s.cfg.MaxPages),
		congress.WithLogger(s.logger),
	)

	var (
		mu       sync.Mutex
		listings []congress.RollCall
	)
	listed := worker.NewPool[vote.Chamber](func(ctx context.Context, ch vote.Chamber) error {
		calls, err := fetcher.ListRollCalls(ctx, ch, from, to)
		if err != nil {
			return err
		}
		mu.Lock()
		listings = append(listings, calls...)
		mu.Unlock()
		return nil
	}, s.pool("listings")...).Describe(func(ch vote.Chamber) string { return string(ch) }).RunAll(ctx, chambers)

	// Existing records only gain the rc pointer so curated metadata survives.
	for _, rc := range listings {
		key := rc.Key.String()
		fresh := rc.Record()
		if store.Has(key) {
			fresh = vote.VoteRecord{RC: fresh.RC}
		}
		if err := store.Upsert(ctx, key, fresh); err != nil {
			return VotesReport{}, err
		}
	}

	records := store.Records()
	work := make([]tracked, 0, len(records))
	for _, key := range store.Tracked() {
		work = append(work, tracked{key: key, rc: *records[key].RC})
	}

	votesByKey := make(map[string][]vote.MemberVoteEntry, len(work))
	fetched := worker.NewPool[tracked](func(ctx context.Context, t tracked) error {
		entries, err := fetcher.MemberVotes(ctx, t.rc)
		if err != nil {
			return err
		}
		mu.Lock()
		votesByKey[t.key] = entries
		mu.Unlock()
		return nil
	}, s.pool("member-votes")...).Describe(func(t tracked) string { return t.key }).RunAll(ctx, work)

	report := VotesReport{
		Listed:     len(listings),
		Tracked:    len(work),
		Recomputed: store.RecomputeAll(ctx, votesByKey),
		Failed:     fetched.Failed,
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	if err := store.Save(ctx); err != nil {
		return report, err
	}
	s.logger.Info(ctx, "votes updated",
		logger.Int("listed", report.Listed),
		logger.Int("tracked", report.Tracked),
		logger.Int("recomputed", report.Recomputed),
		logger.Int("failed", report.Failed),
		logger.Any("chambers", chambers),
		logger.String("path", store.Path()),
	)

	if listed.Failed > 0 {
		return report, fmt.Errorf("%w: %d of %d chambers", ErrListing, listed.Failed, len(chambers))
	}
	return report, nil
}
