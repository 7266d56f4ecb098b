package service

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/okian/rollcall/internal/adapters/repository"
	"github.com/okian/rollcall/internal/config"
	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/internal/domain/scoring"
	"github.com/okian/rollcall/internal/domain/vote"
	"github.com/okian/rollcall/pkg/logger"
	"github.com/okian/rollcall/pkg/metrics"
)

// Issue is a bioguide id referenced by a snapshot but absent from members.json.
type Issue struct {
	File     string
	Key      string
	Bioguide string
}

// ValidationReport lists the snapshots that were checked and what they got wrong.
type ValidationReport struct {
	Members int
	Checked []string
	Skipped []string
	Issues  []Issue
}

// Validate cross-checks votes.json offenders, donors-by-member.json keys and
// vote-alignments.json keys against members.json. A snapshot that has not
// been written yet is skipped; members.json itself is required. Any unknown
// id makes the returned error match ErrIntegrity.
func (s *Service) Validate(ctx context.Context) (ValidationReport, error) {
	members, err := s.loadMembers()
	if err != nil {
		return ValidationReport{}, fmt.Errorf("validate needs %s: %w", config.MembersFile, err)
	}
	known := make(map[string]struct{}, len(members))
	for _, id := range model.IDs(members) {
		known[id] = struct{}{}
	}
	report := ValidationReport{Members: len(members)}

	unknown := func(file, key, bio string) {
		if _, ok := known[bio]; ok {
			return
		}
		report.Issues = append(report.Issues, Issue{File: file, Key: key, Bioguide: bio})
		metrics.RecordErrorByComponent("validate", "unknown_bioguide")
		s.logger.Warn(ctx, "unknown bioguide",
			logger.String("file", file),
			logger.String("key", key),
			logger.String("bioguide", bio),
		)
	}

	var votes map[string]vote.VoteRecord
	ok, err := s.readSnapshot(ctx, config.VotesFile, &votes, &report)
	if err != nil {
		return report, err
	}
	if ok {
		for _, key := range slices.Sorted(maps.Keys(votes)) {
			for _, o := range votes[key].Offenders {
				unknown(config.VotesFile, key, o.Bioguide)
			}
		}
	}

	var donors map[string]model.DonorSummary
	if ok, err = s.readSnapshot(ctx, config.DonorsFile, &donors, &report); err != nil {
		return report, err
	}
	if ok {
		for _, bio := range slices.Sorted(maps.Keys(donors)) {
			unknown(config.DonorsFile, bio, bio)
		}
	}

	var scores map[string]scoring.AlignmentScore
	if ok, err = s.readSnapshot(ctx, config.AlignmentsFile, &scores, &report); err != nil {
		return report, err
	}
	if ok {
		for _, bio := range slices.Sorted(maps.Keys(scores)) {
			unknown(config.AlignmentsFile, bio, bio)
		}
	}

	if n := len(report.Issues); n > 0 {
		s.logger.Warn(ctx, "snapshot issues found", logger.Int("issues", n))
		return report, fmt.Errorf("%w: %d unknown bioguide references", ErrIntegrity, n)
	}
	s.logger.Info(ctx, "snapshots consistent",
		logger.Int("members", report.Members),
		logger.Any("checked", report.Checked),
	)
	return report, nil
}

// readSnapshot decodes name into v and records whether it was checked.
func (s *Service) readSnapshot(ctx context.Context, name string, v any, report *ValidationReport) (bool, error) {
	err := repository.ReadJSON(s.cfg.Path(name), v)
	switch {
	case isMissing(err):
		report.Skipped = append(report.Skipped, name)
		s.logger.Info(ctx, "snapshot not written yet, skipping", logger.String("file", name))
		return false, nil
	case err != nil:
		return false, err
	}
	report.Checked = append(report.Checked, name)
	return true, nil
}
