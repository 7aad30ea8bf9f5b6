package remote

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned when the remote service answers 404.
	ErrNotFound = errors.New("vexsync: remote resource not found")

	// ErrNoRankings is returned by MaxSkills when a season has no official skills rankings.
	ErrNoRankings = errors.New("vexsync: no official skills rankings")

	// ErrRateLimited is returned when the remote service keeps answering 429
	// beyond the configured number of waits.
	ErrRateLimited = errors.New("vexsync: remote rate limit not lifted")

	// ErrRetriesExhausted is returned when transient failures persist beyond
	// the configured retry budget.
	ErrRetriesExhausted = errors.New("vexsync: remote retries exhausted")

	// ErrPayloadShape is returned when a response does not have the expected shape.
	ErrPayloadShape = errors.New("vexsync: unexpected remote payload shape")

	// ErrNoCSRFToken is returned when the site root carries no csrf-token meta tag.
	ErrNoCSRFToken = errors.New("vexsync: csrf token not found")
)

// StatusError is an unexpected HTTP status from the remote service.
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote: %s %s: %d %s", e.Method, e.Path, e.Code, http.StatusText(e.Code))
}
