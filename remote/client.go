// Package remote is the rate-limited, retrying client for the RobotEvents web
// service. Every response is validated against an embedded JSON Schema before
// it is decoded.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/xraph/vexsync/observability"
	"github.com/xraph/vexsync/ratelimit"
)

// Request describes one logical remote request. It is reissued verbatim on
// every retry.
type Request struct {
	Method string
	Path   string
	Query  url.Values

	// Body is JSON-encoded when non-nil.
	Body any
}

// Response is a successful remote response.
type Response struct {
	Header http.Header
	Body   []byte
}

// Client fetches from the remote service.
type Client struct {
	cfg     Config
	base    *url.URL
	http    *http.Client
	limiter *ratelimit.Limiter
	schemas *validator
	logger  *slog.Logger
	metrics *observability.Metrics
	tracer  *observability.Tracer
}

// New creates a client. It fails when cfg.BaseURL is not an absolute URL.
func New(cfg Config, opts ...Option) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("remote: invalid base url %q", cfg.BaseURL)
	}

	c := &Client{
		cfg:     cfg,
		base:    base,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: ratelimit.New(),
		schemas: &validator{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// Fetch performs req with pacing, 429 waits and transient-failure retries and
// returns the response body.
func (c *Client) Fetch(ctx context.Context, req *Request) ([]byte, error) {
	resp, err := c.do(ctx, req, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// FetchWithAuth is Fetch with the session's cookie and CSRF token attached.
func (c *Client) FetchWithAuth(ctx context.Context, req *Request, sess Session) ([]byte, error) {
	resp, err := c.do(ctx, req, &sess)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) do(ctx context.Context, req *Request, sess *Session) (*Response, error) {
	ctx, span := c.tracer.StartFetchSpan(ctx, req.Method, req.Path)

	resp, err := c.retry(ctx, req, sess)

	observability.EndSpan(span, err)
	return resp, err
}

func (c *Client) retry(ctx context.Context, req *Request, sess *Session) (*Response, error) {
	var body []byte
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("remote: encode %s body: %w", req.Path, err)
		}
		body = b
	}

	r := newRetrier(c.cfg)
	for {
		resp, attemptErr := c.attempt(ctx, req, body, sess)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		decision, delay, err := r.Decide(attemptErr)
		switch decision {
		case Done:
			c.metrics.RecordFetch("ok")
			return resp, nil
		case Fail:
			c.metrics.RecordFetch("failed")
			return nil, err
		case Wait:
			c.metrics.RecordFetch("rate_limited")
			c.logger.WarnContext(ctx, "remote rate limited",
				"path", req.Path,
				"retry_after", delay,
			)
		case Retry:
			c.metrics.RecordFetch("retry")
			c.logger.WarnContext(ctx, "remote request failed, retrying",
				"path", req.Path,
				"delay", delay,
				"error", attemptErr,
			)
		}

		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// attempt issues one HTTP request.
func (c *Client) attempt(ctx context.Context, req *Request, body []byte, sess *Session) (*Response, error) {
	if err := c.limiter.Wait(ctx, c.base.Host, c.cfg.RequestsPerSecond); err != nil {
		return nil, err
	}

	target := c.base.ResolveReference(&url.URL{Path: req.Path, RawQuery: req.Query.Encode()})

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	hreq, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("remote: create request: %w", err)
	}
	hreq.Header.Set("Accept", "application/json, text/html")
	hreq.Header.Set("User-Agent", c.cfg.UserAgent)
	if body != nil {
		hreq.Header.Set("Content-Type", "application/json")
	}
	if sess != nil {
		hreq.Header.Set("Cookie", sess.Cookie)
		hreq.Header.Set("Origin", c.base.Scheme+"://"+c.base.Host+"/")
		hreq.Header.Set("X-Csrf-Token", sess.CSRFToken)
	}

	resp, err := c.http.Do(hreq)
	if err != nil {
		return nil, fmt.Errorf("remote: %s %s: %w", method, req.Path, err)
	}
	defer resp.Body.Close()

	if err := classify(method, req.Path, resp); err != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("remote: read %s: %w", req.Path, err)
	}
	return &Response{Header: resp.Header, Body: data}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
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
