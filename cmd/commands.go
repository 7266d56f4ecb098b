package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	service "github.com/okian/rollcall/internal/app"
	"github.com/okian/rollcall/internal/config"
	"github.com/okian/rollcall/pkg/logger"
	"github.com/okian/rollcall/pkg/metrics"
)

// cli holds what PersistentPreRunE prepares for the subcommands.
type cli struct {
	cfg    *config.Config
	svc    *service.Service
	logger logger.Logger

	// svcOpts are appended when the service is built; tests inject clocks
	// and transport options through it.
	svcOpts []service.Option
}

func newRootCmd(svcOpts ...service.Option) *cobra.Command {
	rt := &cli{svcOpts: svcOpts}
	var withVoteview bool

	root := &cobra.Command{
		Use:   "rollcall",
		Short: "Ingest congressional roll calls, rosters and donor data into JSON snapshots",
		Long: `rollcall pulls roll-call votes from Congress.gov, the legislator roster,
OpenFEC donor totals and Voteview ideology scores, and writes them as JSON
snapshots for a static site. Configuration comes from ROLLCALL_* variables,
an optional YAML file named by ROLLCALL_CONFIG, and the legacy names
CONGRESS_API_KEY and FEC_API_KEY.`,
		SilenceUsage:      true,
		PersistentPreRunE: rt.setup,
	}

	root.AddCommand(
		rt.command("members", "Write members.json from the legislator roster", func(ctx context.Context) error {
			_, err := rt.svc.PullMembers(ctx)
			return err
		}),
		rt.command("votes", "Import roll calls and recompute offenders in votes.json", func(ctx context.Context) error {
			_, err := rt.svc.PullVotes(ctx)
			return err
		}),
		rt.command("donors", "Write donors-by-member.json from OpenFEC totals", func(ctx context.Context) error {
			_, err := rt.svc.PullDonors(ctx)
			return err
		}),
		rt.command("alignments", "Score members against tracked votes", func(ctx context.Context) error {
			_, err := rt.svc.BuildAlignments(ctx)
			return err
		}),
		rt.command("voteview", "Download Voteview ideology scores", func(ctx context.Context) error {
			_, err := rt.svc.PullVoteview(ctx)
			return err
		}),
		rt.command("seed", "Add records for bill pages not yet in votes.json", func(ctx context.Context) error {
			_, err := rt.svc.SeedBills(ctx)
			return err
		}),
		rt.command("photos", "Download missing member headshots", func(ctx context.Context) error {
			_, err := rt.svc.PullPhotos(ctx)
			return err
		}),
		rt.command("validate", "Check that every snapshot references known members", func(ctx context.Context) error {
			_, err := rt.svc.Validate(ctx)
			return err
		}),
	)

	all := rt.command("all", "Run members, votes, donors and alignments in order", func(ctx context.Context) error {
		return rt.svc.RunAll(ctx, withVoteview)
	})
	all.Flags().BoolVar(&withVoteview, "with-voteview", false, "also download Voteview ideology scores")
	root.AddCommand(all)

	return root
}

func (rt *cli) command(use, short string, run func(ctx context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			err := run(ctx)
			if err != nil {
				rt.logger.Error(ctx, use+" failed", logger.Error(err))
			}
			// The textfile is written for failed runs too.
			if mErr := rt.flushMetrics(ctx); err == nil {
				err = mErr
			}
			return err
		},
	}
}

func (rt *cli) setup(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	rt.cfg = cfg
	rt.logger = logger.Get().With(
		logger.String("run_id", uuid.NewString()),
		logger.String("command", cmd.Name()),
	)
	opts := append([]service.Option{service.WithLogger(rt.logger)}, rt.svcOpts...)
	rt.svc = service.New(cfg, opts...)

	rt.logger.Info(ctx, "run started", logger.String("data_dir", cfg.DataDir))
	return nil
}

func (rt *cli) flushMetrics(ctx context.Context) error {
	if rt.cfg == nil || rt.cfg.MetricsFile == "" {
		return nil
	}
	if err := metrics.WriteTextfile(rt.cfg.MetricsFile); err != nil {
		rt.logger.Warn(ctx, "metrics textfile not written", logger.Error(err))
		return err
	}
	return nil
}
