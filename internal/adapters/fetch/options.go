package fetch

import (
	"context"
	"time"

	"github.com/okian/rollcall/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithSource names the upstream in logs and metrics.
func WithSource(source string) Option {
	return func(c *Client) {
		if source != "" {
			c.source = source
		}
	}
}

// WithAPIKey sends key in the X-Api-Key header on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithTimeout bounds a single request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxAttempts sets how many times a transient failure is tried.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBackoff sets the backoff unit; attempt n waits n units before retrying.
func WithBackoff(unit time.Duration) Option {
	return func(c *Client) {
		if unit >= 0 {
			c.backoff = unit
		}
	}
}

// WithRateLimit caps requests per second; zero disables limiting.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.rps = rps
		}
	}
}

// WithSleeper replaces the context-aware wait used between attempts.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		if sleep != nil {
			c.sleep = sleep
		}
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
