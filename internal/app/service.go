// Package service orchestrates the ingestion pipelines: each one fetches,
// normalizes and writes one group of snapshot files in the data directory.
package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/okian/rollcall/internal/adapters/fetch"
	"github.com/okian/rollcall/internal/adapters/mq/worker"
	"github.com/okian/rollcall/internal/adapters/repository"
	"github.com/okian/rollcall/internal/config"
	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/pkg/logger"
	"github.com/okian/rollcall/pkg/metrics"
)

// Service runs pipelines against one configuration.
type Service struct {
	cfg    *config.Config
	now    func() time.Time
	logger logger.Logger

	// Extra transport options appended to every client.
	fetchOpts []fetch.Option

	congress fetch.Getter
	fec      fetch.Getter
	public   fetch.Getter
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the time source for windows and updatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithFetchOptions appends transport options to every HTTP client.
func WithFetchOptions(opts ...fetch.Option) Option {
	return func(s *Service) {
		s.fetchOpts = append(s.fetchOpts, opts...)
	}
}

// New constructs a Service for cfg.
func New(cfg *config.Config, opts ...Option) *Service {
	s := &Service{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.congress = s.client("congress", cfg.CongressAPIKey)
	s.fec = s.client("fec", cfg.FECAPIKey)
	s.public = s.client("public", "")
	return s
}

func (s *Service) client(source, key string) *fetch.Client {
	opts := []fetch.Option{
		fetch.WithSource(source),
		fetch.WithAPIKey(key),
		fetch.WithTimeout(s.cfg.HTTPTimeout),
		fetch.WithMaxAttempts(s.cfg.MaxAttempts),
		fetch.WithBackoff(s.cfg.Backoff),
		fetch.WithRateLimit(s.cfg.RequestsPerSecond),
		fetch.WithLogger(s.logger),
	}
	return fetch.New(append(opts, s.fetchOpts...)...)
}

func (s *Service) pool(name string) []worker.Option {
	return []worker.Option{
		worker.WithName(name),
		worker.WithConcurrency(s.cfg.Concurrency),
		worker.WithLogger(s.logger),
	}
}

func (s *Service) openStore(ctx context.Context) (*repository.VoteStore, error) {
	return repository.Open(ctx, s.cfg.Path(config.VotesFile), repository.WithClock(s.now))
}

// loadMembers reads members.json. A missing file matches fs.ErrNotExist.
func (s *Service) loadMembers() ([]model.Member, error) {
	var members []model.Member
	if err := repository.ReadJSON(s.cfg.Path(config.MembersFile), &members); err != nil {
		return nil, err
	}
	metrics.UpdateMembers(len(members))
	return members, nil
}

func (s *Service) write(ctx context.Context, name string, v any) error {
	path := s.cfg.Path(name)
	if err := repository.WriteJSON(path, v); err != nil {
		return err
	}
	s.logger.Info(ctx, "snapshot written", logger.String("path", path))
	return nil
}

func isMissing(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// RunAll runs members, votes, donors and alignments in order; voteview is
// added at the end when requested. Credentials are checked before any request.
func (s *Service) RunAll(ctx context.Context, withVoteview bool) error {
	if err := s.cfg.RequireCongressKey(); err != nil {
		return err
	}
	if err := s.cfg.RequireFECKey(); err != nil {
		return err
	}
	s.logger.Info(ctx, "pipelines starting", logger.Bool("with_voteview", withVoteview))
	if _, err := s.PullMembers(ctx); err != nil {
		return fmt.Errorf("members: %w", err)
	}
	if _, err := s.PullVotes(ctx); err != nil {
		return fmt.Errorf("votes: %w", err)
	}
	if _, err := s.PullDonors(ctx); err != nil {
		return fmt.Errorf("donors: %w", err)
	}
	if _, err := s.BuildAlignments(ctx); err != nil {
		return fmt.Errorf("alignments: %w", err)
	}
	if withVoteview {
		if _, err := s.PullVoteview(ctx); err != nil {
			return fmt.Errorf("voteview: %w", err)
		}
	}
	return nil
}
