package fec

import (
	"strings"

	"github.com/okian/rollcall/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL sets the API root, e.g. https://api.open.fec.gov/v1.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.base = strings.TrimRight(base, "/")
		}
	}
}

// WithCycle sets the two-year election cycle.
func WithCycle(cycle int) Option {
	return func(c *Client) {
		if cycle > 0 {
			c.cycle = cycle
		}
	}
}

// WithBreakdowns toggles the by-state and by-size requests.
func WithBreakdowns(enabled bool) Option {
	return func(c *Client) {
		c.breakdowns = enabled
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
