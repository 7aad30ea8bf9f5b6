package remote

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Decision is the outcome of evaluating one fetch attempt.
type Decision int

const (
	// Done means the attempt succeeded.
	Done Decision = iota

	// Retry means a transient failure; try again after the next backoff delay.
	Retry

	// Wait means the service asked us to slow down; reissue after Retry-After.
	Wait

	// Fail means the request cannot succeed; surface the error.
	Fail
)

// retrier tracks the retry budgets of a single logical request.
//
// Decision matrix:
//   - 2xx → Done
//   - 429 → Wait for Retry-After, at most MaxRateLimitWaits times
//   - 404 → Fail with ErrNotFound
//   - other 4xx → Fail with *StatusError
//   - 5xx, transport or read error → Retry with exponential backoff, at most MaxRetries times
type retrier struct {
	cfg      Config
	backoff  *backoff.ExponentialBackOff
	failures int
	waits    int
}

func newRetrier(cfg Config) *retrier {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     cfg.BaseDelay,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         cfg.MaxDelay,
	}
	b.Reset()
	return &retrier{cfg: cfg, backoff: b}
}

// Decide classifies err (nil on success) and returns the delay before the
// next attempt. For Fail it returns the terminal error.
func (r *retrier) Decide(err error) (Decision, time.Duration, error) {
	if err == nil {
		return Done, 0, nil
	}

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return Fail, 0, perm.Unwrap()
	}

	var wait *backoff.RetryAfterError
	if errors.As(err, &wait) {
		r.waits++
		if r.waits > r.cfg.MaxRateLimitWaits {
			return Fail, 0, fmt.Errorf("%w after %d waits", ErrRateLimited, r.cfg.MaxRateLimitWaits)
		}
		return Wait, wait.Duration, nil
	}

	r.failures++
	if r.failures > r.cfg.MaxRetries {
		return Fail, 0, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, r.failures, err)
	}
	return Retry, r.backoff.NextBackOff(), nil
}

// classify turns an HTTP status into the error the retrier understands.
func classify(method, path string, resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests:
		return backoff.RetryAfter(retryAfterSeconds(resp.Header.Get("Retry-After")))
	case code == http.StatusNotFound:
		return backoff.Permanent(fmt.Errorf("%w: %s %s", ErrNotFound, method, path))
	case code >= 400 && code < 500:
		return backoff.Permanent(&StatusError{Method: method, Path: path, Code: code})
	default:
		return &StatusError{Method: method, Path: path, Code: code}
	}
}

// retryAfterSeconds parses a Retry-After header given either as seconds or
// as an HTTP date. A missing or malformed header means one second.
func retryAfterSeconds(v string) int {
	if v == "" {
		return 1
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 0 {
		return n
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return int(d.Round(time.Second) / time.Second)
		}
		return 0
	}
	return 1
}
