package fetch

import (
	"errors"
	"fmt"
)

// Sentinel kinds for fetch errors.
var (
	ErrFetch            = errors.New("fetch failed")
	ErrTransient        = errors.New("transient fetch failure")
	ErrRetriesExhausted = errors.New("retries exhausted")
	ErrDecode           = errors.New("decode response failed")
)

const maxBodySnippet = 512

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d: %s", e.URL, e.StatusCode, e.Body)
}

// Transient reports whether a retry could succeed.
func (e *StatusError) Transient() bool {
	return transientStatus(e.StatusCode)
}

// Unwrap lets errors.Is match ErrFetch, and ErrTransient for retryable codes.
func (e *StatusError) Unwrap() []error {
	if e.Transient() {
		return []error{ErrFetch, ErrTransient}
	}
	return []error{ErrFetch}
}

func transientStatus(code int) bool {
	return code == 429 || code >= 500
}

func snippet(body []byte) string {
	if len(body) > maxBodySnippet {
		return string(body[:maxBodySnippet]) + "..."
	}
	return string(body)
}
