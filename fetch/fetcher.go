// Package fetch issues single logical GET requests against one rate-limited,
// metered upstream API. Every fetch consults a disk cache first; on a miss it
// performs the network call under a bounded exponential-backoff retry loop
// that distinguishes retryable failures (429, 5xx, transport errors) from
// fatal ones (other 4xx).
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultCredentialHeader is the header the upstream expects the API key in.
const DefaultCredentialHeader = "X-Riot-Token"

// Cache is the response cache consulted before, and written after, every
// network call. Satisfied by *cache.Store.
type Cache interface {
	Get(url string, params map[string]string) (json.RawMessage, bool)
	Set(url string, params map[string]string, data json.RawMessage, ttl time.Duration) error
}

// Policy bounds the retry loop of a single logical fetch. Attempt state
// lives only for the duration of one Fetch call.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// BaseDelay is the backoff before the first retry.
	BaseDelay time.Duration
	// MaxDelay caps both the grown backoff and any server wait hint.
	MaxDelay time.Duration
	// Multiplier grows the delay after each retry.
	Multiplier float64
}

// DefaultPolicy returns the retry policy used when none is configured:
// three retries, starting at one second, doubling up to thirty seconds.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
	}
}

func (p Policy) normalized() Policy {
	def := DefaultPolicy()
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = def.BaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	if p.Multiplier < 1 {
		p.Multiplier = def.Multiplier
	}
	return p
}

// Fetcher performs cached, retried GET requests against a single upstream.
type Fetcher struct {
	http    *http.Client
	baseURL *url.URL
	header  string
	apiKey  string
	cache   Cache
	policy  Policy
	limiter *rate.Limiter
	log     zerolog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the HTTP client used for upstream calls.
func WithHTTPClient(h *http.Client) Option {
	return func(f *Fetcher) {
		if h != nil {
			f.http = h
		}
	}
}

// WithPolicy replaces the retry policy. Zero-valued delay and multiplier
// fields fall back to the defaults; MaxRetries of zero means a single
// attempt with no retries.
func WithPolicy(p Policy) Option {
	return func(f *Fetcher) { f.policy = p.normalized() }
}

// WithCredentialHeader changes the header the API key is sent in.
func WithCredentialHeader(name string) Option {
	return func(f *Fetcher) {
		if name != "" {
			f.header = name
		}
	}
}

// WithRateLimit paces network attempts with a token bucket so that retries
// and sequential batch fetches never exceed ratePerSec against the metered
// upstream. Cache hits are not paced.
func WithRateLimit(ratePerSec float64, burst int) Option {
	return func(f *Fetcher) {
		if ratePerSec > 0 && burst > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(ratePerSec), burst)
		}
	}
}

// WithLimiter installs a shared token bucket, for callers that pace several
// components against the same upstream quota.
func WithLimiter(l *rate.Limiter) Option {
	return func(f *Fetcher) { f.limiter = l }
}

// WithLogger sets the logger for retry and cache-degradation events.
func WithLogger(l zerolog.Logger) Option {
	return func(f *Fetcher) { f.log = l }
}

// New creates a Fetcher for the upstream at rawBaseURL, authenticating every
// request with apiKey and caching every successful response in store.
func New(rawBaseURL, apiKey string, store Cache, opts ...Option) (*Fetcher, error) {
	if apiKey == "" {
		return nil, errors.New("api key required")
	}
	if store == nil {
		return nil, errors.New("cache store required")
	}
	u, err := url.Parse(rawBaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL %q: %w", rawBaseURL, err)
	}

	f := &Fetcher{
		http:    &http.Client{Timeout: 20 * time.Second},
		baseURL: u,
		header:  DefaultCredentialHeader,
		apiKey:  apiKey,
		cache:   store,
		policy:  DefaultPolicy(),
		log:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(f)
	}
	return f, nil
}

// Fetch returns the JSON payload for a GET of endpoint with the given query
// parameters. The cache is consulted first; on a miss the network call runs
// under the retry policy and a successful response is written back with the
// given ttl (zero means the store default). A cache write failure degrades
// to uncached behavior, it never fails a successful fetch.
//
// Errors escaping Fetch are *APIError for fatal client errors, or
// ErrRetriesExhausted (wrapping the final attempt's error) once the policy
// is spent. Context cancellation aborts sleeps and in-flight requests and
// surfaces as ctx.Err().
func (f *Fetcher) Fetch(ctx context.Context, endpoint string, params map[string]string, ttl time.Duration) (json.RawMessage, error) {
	u := f.requestURL(endpoint)
	key := u.String()

	if data, ok := f.cache.Get(key, params); ok {
		f.log.Debug().Str("url", key).Msg("cache hit")
		return data, nil
	}

	attempts := f.policy.MaxRetries + 1
	delay := f.policy.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		data, err := f.do(ctx, u, params)
		if err == nil {
			if werr := f.cache.Set(key, params, data, ttl); werr != nil {
				f.log.Warn().Err(werr).Str("url", key).Msg("cache write failed, continuing uncached")
			}
			return data, nil
		}
		lastErr = err

		if !retryable(err) {
			return nil, err
		}
		if attempt == attempts {
			break
		}

		wait := delay
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
			wait = apiErr.RetryAfter
			if wait > f.policy.MaxDelay {
				wait = f.policy.MaxDelay
			}
		}

		f.log.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Str("url", key).
			Msg("upstream request failed, retrying")

		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}

		delay = time.Duration(float64(delay) * f.policy.Multiplier)
		if delay > f.policy.MaxDelay {
			delay = f.policy.MaxDelay
		}
	}

	f.log.Error().Err(lastErr).Int("attempts", attempts).Str("url", key).Msg("upstream retries exhausted")
	return nil, fmt.Errorf("%w: %w", ErrRetriesExhausted, lastErr)
}

// do performs one network attempt and classifies the outcome.
func (f *Fetcher) do(ctx context.Context, u *url.URL, params map[string]string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	q := req.URL.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	req.URL.RawQuery = q.Encode()
	req.Header.Set(f.header, f.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &NetworkError{Err: err}
		}
		if !json.Valid(body) {
			return nil, fmt.Errorf("GET %s: response is not valid JSON", req.URL.Path)
		}
		return body, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		apiErr := &APIError{StatusCode: resp.StatusCode, Status: resp.Status}
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			apiErr.RetryAfter = time.Duration(secs) * time.Second
		}
		drain(resp.Body)
		return nil, apiErr

	default:
		drain(resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
}

func (f *Fetcher) requestURL(endpoint string) *url.URL {
	u := *f.baseURL
	u.Path = path.Join(u.Path, endpoint)
	return &u
}

// sleep waits for d or for ctx, whichever ends first.
func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// drain empties a response body so the connection can be reused.
func drain(r io.Reader) {
	_, _ = io.Copy(io.Discard, r)
}
