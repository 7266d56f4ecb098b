package worker

import (
	"github.com/okian/rollcall/pkg/logger"
)

type settings struct {
	name        string
	concurrency int
	logger      logger.Logger
}

// Option applies a configuration option to a Pool.
type Option func(*settings)

// WithName sets the pool name used for logging and metrics.
func WithName(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.name = name
		}
	}
}

// WithConcurrency sets the number of workers; values below one are ignored.
func WithConcurrency(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLogger sets a custom logger for the pool.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}
