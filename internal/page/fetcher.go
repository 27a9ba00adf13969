package page

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

const (
	defaultMaxBytes int64 = 5 << 20
	defaultAttempts       = 3
)

const (
	defaultJitterMin    = 1 * time.Second
	defaultJitterMax    = 3 * time.Second
	defaultRateLimitMin = 10 * time.Second
	defaultRateLimitMax = 30 * time.Second
)

// Fetcher retrieves the product page once per cycle.
type Fetcher interface {
	Fetch(ctx context.Context) Result
}

// Result is the outcome of one Fetch call. A nil Err means Body holds the
// document; otherwise Err is a *FetchError describing the last attempt.
type Result struct {
	Body       []byte
	StatusCode int
	Attempts   int
	Err        error
}

// OK reports whether the result carries a document.
func (r Result) OK() bool {
	return r.Err == nil
}

// HTTPFetcher retrieves a product page over HTTP.
type HTTPFetcher struct {
	url          string
	client       *retryablehttp.Client
	logger       zerolog.Logger
	maxBytes     int64
	attempts     int
	jitterMin    time.Duration
	jitterMax    time.Duration
	rateLimitMin time.Duration
	rateLimitMax time.Duration
	headers      func() http.Header
	sleep        func(context.Context, time.Duration) bool
}

// Option customizes HTTPFetcher behavior.
type Option func(*HTTPFetcher)

// WithAttempts sets the attempt budget per Fetch call.
func WithAttempts(attempts int) Option {
	return func(f *HTTPFetcher) {
		f.attempts = attempts
	}
}

// WithRequestJitter sets the random delay window applied before every attempt.
func WithRequestJitter(lo, hi time.Duration) Option {
	return func(f *HTTPFetcher) {
		f.jitterMin = lo
		f.jitterMax = hi
	}
}

// WithRateLimitBackoff sets the random wait window applied after an HTTP 429.
func WithRateLimitBackoff(lo, hi time.Duration) Option {
	return func(f *HTTPFetcher) {
		f.rateLimitMin = lo
		f.rateLimitMax = hi
	}
}

// WithMaxBytes caps how much of the response body is read.
func WithMaxBytes(maxBytes int64) Option {
	return func(f *HTTPFetcher) {
		if maxBytes > 0 {
			f.maxBytes = maxBytes
		}
	}
}

// WithLogger attaches a logger for per-attempt diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(f *HTTPFetcher) {
		f.logger = logger
	}
}

// NewHTTPFetcher constructs an HTTPFetcher for the given URL and per-attempt timeout.
func NewHTTPFetcher(url string, timeout time.Duration, opts ...Option) (*HTTPFetcher, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("product url must not be empty")
	}
	if timeout <= 0 {
		return nil, errors.New("timeout must be greater than zero")
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.CheckRetry = func(_ context.Context, _ *http.Response, _ error) (bool, error) {
		return false, nil
	}
	client.Logger = nil
	client.HTTPClient = &http.Client{Timeout: timeout}

	f := &HTTPFetcher{
		url:          url,
		client:       client,
		logger:       zerolog.Nop(),
		maxBytes:     defaultMaxBytes,
		attempts:     defaultAttempts,
		jitterMin:    defaultJitterMin,
		jitterMax:    defaultJitterMax,
		rateLimitMin: defaultRateLimitMin,
		rateLimitMax: defaultRateLimitMax,
		headers:      BrowserHeaders,
		sleep:        sleepWithContext,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.attempts < 1 {
		return nil, errors.New("attempts must be at least one")
	}

	return f, nil
}

// Fetch downloads the page, retrying within the attempt budget. It never
// returns a Go error; failures are reported through Result.Err.
func (f *HTTPFetcher) Fetch(ctx context.Context) Result {
	var last *FetchError
	for attempt := 1; attempt <= f.attempts; attempt++ {
		if !f.sleep(ctx, randomDuration(f.jitterMin, f.jitterMax)) {
			return Result{Attempts: attempt - 1, Err: transportError(ctx.Err())}
		}

		body, err := f.fetchOnce(ctx)
		if err == nil {
			return Result{Body: body, StatusCode: http.StatusOK, Attempts: attempt}
		}
		last = err

		f.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("attempts", f.attempts).
			Int("status_code", err.StatusCode).
			Str("kind", string(err.Kind)).
			Msg("page fetch attempt failed")

		if attempt == f.attempts {
			break
		}
		if err.IsRateLimited() {
			wait := randomDuration(f.rateLimitMin, f.rateLimitMax)
			f.logger.Info().Dur("wait", wait).Msg("rate limited, backing off")
			if !f.sleep(ctx, wait) {
				return Result{StatusCode: last.StatusCode, Attempts: attempt, Err: last}
			}
		}
	}

	return Result{StatusCode: last.StatusCode, Attempts: f.attempts, Err: last}
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context) ([]byte, *FetchError) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, transportError(fmt.Errorf("create request: %w", err))
	}
	for key, values := range f.headers() {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, transportError(fmt.Errorf("fetch page: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &FetchError{Kind: KindRateLimited, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status: %s", resp.Status)}
	case resp.StatusCode != http.StatusOK:
		return nil, &FetchError{Kind: KindHTTPStatus, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status: %s", resp.Status)}
	}

	body, err := readWithLimit(resp.Body, f.maxBytes)
	if err != nil {
		return nil, &FetchError{Kind: KindTransport, StatusCode: resp.StatusCode, Err: err}
	}
	if len(body) == 0 {
		return nil, &FetchError{Kind: KindHTTPStatus, StatusCode: resp.StatusCode, Err: errors.New("document body is empty")}
	}
	return body, nil
}

func readWithLimit(r io.Reader, maxBytes int64) ([]byte, error) {
	limited := io.LimitReader(r, maxBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}
	if int64(len(body)) > maxBytes {
		return nil, fmt.Errorf("page body exceeds %d bytes", maxBytes)
	}
	return body, nil
}

// randomDuration returns a uniform duration in [lo, hi].
func randomDuration(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo+1)
}

func sleepWithContext(ctx context.Context, wait time.Duration) bool {
	if wait <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
