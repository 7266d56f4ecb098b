package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/rollcall/internal/adapters/legislators"
	"github.com/okian/rollcall/internal/adapters/mq/worker"
	"github.com/okian/rollcall/internal/adapters/repository"
	"github.com/okian/rollcall/internal/config"
	"github.com/okian/rollcall/internal/domain/model"
	"github.com/okian/rollcall/pkg/logger"
)

// PhotosReport summarizes a headshot download run.
type PhotosReport struct {
	Saved   int
	Skipped int
	Missing int
}

// PullPhotos downloads a headshot for every member in members.json into
// HeadshotsDir as {bioguide}.jpg. Files already on disk are left alone and a
// headshot the CDN cannot serve is logged and counted, not fatal.
func (s *Service) PullPhotos(ctx context.Context) (PhotosReport, error) {
	members, err := s.loadMembers()
	if err != nil {
		return PhotosReport{}, fmt.Errorf("photos need %s: %w", config.MembersFile, err)
	}

	var out PhotosReport
	todo := make([]model.Member, 0, len(members))
	for _, m := range members {
		if m.Bioguide == "" {
			continue
		}
		if _, err := os.Stat(s.headshot(m.Bioguide)); err == nil {
			out.Skipped++
			continue
		}
		todo = append(todo, m)
	}

	report := worker.NewPool[model.Member](func(ctx context.Context, m model.Member) error {
		img, err := s.public.GetBytes(ctx, legislators.PhotoURL(s.cfg.PhotoURLTemplate, m.Bioguide))
		if err != nil {
			return fmt.Errorf("missing on CDN: %w", err)
		}
		return repository.WriteFile(s.headshot(m.Bioguide), img)
	}, s.pool("photos")...).Describe(func(m model.Member) string { return m.Bioguide }).RunAll(ctx, todo)

	if err := ctx.Err(); err != nil {
		return out, err
	}
	out.Saved = report.Processed
	out.Missing = report.Failed
	s.logger.Info(ctx, "headshots updated",
		logger.Int("saved", out.Saved),
		logger.Int("skipped", out.Skipped),
		logger.Int("missing", out.Missing),
		logger.String("dir", s.cfg.HeadshotsDir),
	)
	return out, nil
}

func (s *Service) headshot(bioguide string) string {
	return filepath.Join(s.cfg.HeadshotsDir, bioguide+".jpg")
}
