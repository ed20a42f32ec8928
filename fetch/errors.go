package fetch

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrRetriesExhausted is returned once every attempt allowed by the retry
// policy has failed. It wraps the error from the final attempt.
var ErrRetriesExhausted = errors.New("retries exhausted")

// APIError is a non-2xx response from the upstream API.
type APIError struct {
	StatusCode int
	Status     string
	// RetryAfter carries the server's wait hint on rate-limited responses,
	// zero when the header was absent or unparsable.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream responded %s", e.Status)
}

// NetworkError is a transport-level failure: connection refused, timeout,
// DNS trouble. These are retried like server errors.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// retryable reports whether err belongs to a class worth retrying: rate
// limits, upstream 5xx, and transport failures. Everything else is fatal
// for the current call.
func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsRateLimited reports whether err is an upstream 429.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}

// IsClientError reports whether err is a fatal 4xx (anything but 429).
// Client errors are never retried: the request itself is wrong.
func IsClientError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) &&
		apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 &&
		apiErr.StatusCode != http.StatusTooManyRequests
}

// IsNotFound reports whether err is an upstream 404, the usual shape of
// "no such summoner / match".
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
