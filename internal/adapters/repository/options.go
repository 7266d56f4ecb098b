package repository

import "time"

// Option applies a configuration option to the VoteStore.
type Option func(*VoteStore)

// WithClock sets the time source used to stamp updatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *VoteStore) {
		if now != nil {
			s.now = now
		}
	}
}
