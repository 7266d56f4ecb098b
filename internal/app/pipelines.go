package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/okian/rollcall/internal/adapters/bills"
	"github.com/okian/rollcall/internal/adapters/fec"
	"github.com/okian/rollcall/internal/adapters/legislators"
	"github.com/okian/rollcall/internal/adapters/mq/worker"
	"github.com/okian/rollcall/internal/adapters/repository"
	"github.com/okian/rollcall/internal/adapters/voteview"
	"github.com/okian/rollcall/internal/config"
	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/internal/domain/scoring"
	"github.com/okian/rollcall/pkg/logger"
	"github.com/okian/rollcall/pkg/metrics"
)

// PullMembers converts the legislator roster into members.json.
func (s *Service) PullMembers(ctx context.Context) ([]model.Member, error) {
	src := legislators.NewSource(s.public, s.cfg.LegislatorsSource, s.cfg.PhotoURLTemplate)
	members, err := src.Members(ctx)
	if err != nil {
		return nil, err
	}
	metrics.UpdateMembers(len(members))
	if err := s.write(ctx, config.MembersFile, members); err != nil {
		return nil, err
	}
	return members, nil
}

// PullDonors writes a donor summary for every member in members.json. A
// member whose totals cannot be fetched gets a zero summary.
func (s *Service) PullDonors(ctx context.Context) (map[string]model.DonorSummary, error) {
	if err := s.cfg.RequireFECKey(); err != nil {
		return nil, err
	}
	members, err := s.loadMembers()
	if err != nil {
		return nil, fmt.Errorf("donors need %s: %w", config.MembersFile, err)
	}

	client := fec.NewClient(s.fec,
		fec.WithBaseURL(s.cfg.FECAPIBase),
		fec.WithCycle(s.cfg.Cycle),
		fec.WithBreakdowns(s.cfg.DonorBreakdown),
		fec.WithLogger(s.logger),
	)

	var mu sync.Mutex
	out := make(map[string]model.DonorSummary, len(members))
	report := worker.NewPool[model.Member](func(ctx context.Context, m model.Member) error {
		sum, err := client.Summary(ctx, m)
		mu.Lock()
		out[m.Bioguide] = sum
		mu.Unlock()
		if errors.Is(err, fec.ErrNoCandidate) {
			return nil
		}
		return err
	}, s.pool("donors")...).Describe(func(m model.Member) string { return m.Bioguide }).RunAll(ctx, members)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.write(ctx, config.DonorsFile, out); err != nil {
		return nil, err
	}
	var receipts float64
	for _, sum := range out {
		receipts += sum.Receipts
	}
	s.logger.Info(ctx, "donor summaries built",
		logger.Int("members", len(out)),
		logger.Float64("receipts", receipts),
		logger.Int("failed", report.Failed),
		logger.Int("cycle", s.cfg.Cycle),
	)
	return out, nil
}

// BuildAlignments scores every known member against the saved vote records.
// A missing members.json only narrows the scope to observed offenders.
func (s *Service) BuildAlignments(ctx context.Context) (map[string]scoring.AlignmentScore, error) {
	store, err := s.openStore(ctx)
	if err != nil {
		return nil, err
	}

	members, err := s.loadMembers()
	switch {
	case isMissing(err):
		s.logger.Warn(ctx, "no member roster, scoring offenders only",
			logger.String("path", s.cfg.Path(config.MembersFile)))
	case err != nil:
		return nil, err
	}

	topic, err := scoring.CompileTopic(s.cfg.AlignmentTopic)
	if err != nil {
		return nil, fmt.Errorf("%w: alignment_topic: %w", config.ErrInvalidConfig, err)
	}
	scores := scoring.NewAggregator(scoring.WithTopic(topic)).Compute(ctx, store, model.IDs(members))

	if err := s.write(ctx, config.AlignmentsFile, scores); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "alignments built",
		logger.Int("members", len(scores)),
		logger.Int("records", store.Len()),
	)
	return scores, nil
}

// PullVoteview downloads the ideology table and extracts per-member scores.
func (s *Service) PullVoteview(ctx context.Context) (map[string]model.Ideology, error) {
	table, err := voteview.NewSource(s.public, s.cfg.VoteviewURL).Download(ctx)
	if err != nil {
		return nil, err
	}
	if err := repository.WriteFile(s.cfg.Path(config.VoteviewCSV), table); err != nil {
		return nil, err
	}

	scores, congress, err := voteview.Ideology(table, s.cfg.VoteviewCongress)
	if err != nil {
		return nil, err
	}
	if err := s.write(ctx, config.IdeologyFile, scores); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "ideology extracted",
		logger.Int("congress", congress),
		logger.Int("members", len(scores)),
	)
	return scores, nil
}

// SeedBills adds a hand-curated record for every bill page not yet tracked.
func (s *Service) SeedBills(ctx context.Context) (int, error) {
	seeds, err := bills.Scan(s.cfg.BillsDir)
	if err != nil {
		return 0, err
	}
	store, err := s.openStore(ctx)
	if err != nil {
		return 0, err
	}
	added, err := bills.Apply(ctx, store, seeds)
	if err != nil {
		return added, err
	}
	if err := store.Save(ctx); err != nil {
		return added, err
	}
	s.logger.Info(ctx, "bills seeded",
		logger.Int("added", added),
		logger.Int("records", store.Len()),
	)
	return added, nil
}
