// Package fetch performs HTTP GETs against the upstream data APIs with a
// bounded retry policy.
//
// Transport errors, 429 and 5xx responses are retried up to the configured
// number of attempts, waiting attempt × backoff between tries. Any other
// non-2xx response fails immediately. Credentials travel in a request header,
// never appear in URLs or error messages, and are not forwarded when a
// redirect leaves the original host.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/okian/rollcall/pkg/logger"
	"github.com/okian/rollcall/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultMaxAttempts = 3
	defaultBackoff     = time.Second
	defaultTimeout     = 30 * time.Second
	maxRedirects       = 10
	apiKeyHeader       = "X-Api-Key"
	userAgent          = "rollcall/1.0"
)

// Getter is the read side callers depend on.
type Getter interface {
	GetJSON(ctx context.Context, url string, out any) error
	GetBytes(ctx context.Context, url string) ([]byte, error)
}

// Client is a retrying HTTP getter.
type Client struct {
	http        *resty.Client
	source      string
	apiKey      string
	timeout     time.Duration
	maxAttempts int
	backoff     time.Duration
	rps         float64
	sleep       func(ctx context.Context, d time.Duration) error
	logger      logger.Logger
}

// New creates a client with the given options.
func New(opts ...Option) *Client {
	c := &Client{
		source:      "http",
		timeout:     defaultTimeout,
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get()
	}
	c.logger = c.logger.Named("fetch").With(logger.String("source", c.source))

	c.http = resty.New()
	c.http.SetTimeout(c.timeout)
	c.http.SetHeader("User-Agent", userAgent)
	c.http.SetHeader("Accept", "application/json")
	if c.apiKey != "" {
		c.http.SetHeader(apiKeyHeader, c.apiKey)
	}
	c.http.SetRedirectPolicy(resty.FlexibleRedirectPolicy(maxRedirects), sameHostCredentials())
	if c.rps > 0 {
		limiter := rate.NewLimiter(rate.Limit(c.rps), 1)
		c.http.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}

	return c
}

// GetJSON fetches url and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	body, err := c.GetBytes(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		metrics.RecordErrorByComponent(c.source, "decode_error")
		return fmt.Errorf("%w: GET %s: %w", ErrDecode, url, err)
	}
	return nil
}

// GetBytes fetches url and returns the raw body of a 2xx response.
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		body, err := c.once(ctx, url)
		if err == nil {
			return body, nil
		}
		if !errors.Is(err, ErrTransient) {
			metrics.RecordErrorByComponent(c.source, "fetch_error")
			return nil, err
		}
		lastErr = err

		if attempt == c.maxAttempts {
			break
		}
		wait := time.Duration(attempt) * c.backoff
		c.logger.Warn(ctx, "transient fetch failure, retrying",
			logger.String("url", url),
			logger.Int("attempt", attempt),
			logger.Duration("wait", wait),
			logger.Error(err),
		)
		metrics.RecordRetry(c.source)
		if err := c.sleep(ctx, wait); err != nil {
			return nil, fmt.Errorf("%w: GET %s: %w", ErrFetch, url, err)
		}
	}

	metrics.RecordErrorByComponent(c.source, "retries_exhausted")
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, c.maxAttempts, lastErr)
}

func (c *Client) once(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()
	resp, err := c.http.R().SetContext(ctx).Get(url)
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordFetch(c.source, 0, latency)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: GET %s: %w", ErrFetch, url, ctxErr)
		}
		return nil, fmt.Errorf("%w: GET %s: %w", ErrTransient, url, err)
	}

	metrics.RecordFetch(c.source, resp.StatusCode(), latency)
	if resp.IsSuccess() {
		return resp.Body(), nil
	}
	return nil, &StatusError{URL: url, StatusCode: resp.StatusCode(), Body: snippet(resp.Body())}
}

// sameHostCredentials drops the API key from any redirect hop that leaves the
// host of the original request.
func sameHostCredentials() resty.RedirectPolicy {
	return resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
		if len(via) > 0 && !strings.EqualFold(req.URL.Host, via[0].URL.Host) {
			req.Header.Del(apiKeyHeader)
		}
		return nil
	})
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
