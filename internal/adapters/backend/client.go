// Package backend is the HTTP client for the report-management REST backend.
//
// Every authenticated call reads the access token from the request context and
// sends it as a bearer token. A 401 on such a call is reported once to the
// handler registered with OnUnauthorized and surfaces as ErrUnauthorized.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"reportconsole/internal/adapters/http/perf"
)

// DefaultSlowUpstreamMs is the default threshold for slow backend call warnings.
const DefaultSlowUpstreamMs = 500

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

type tokenKey struct{}

// ContextWithToken returns a context whose backend calls authenticate with token.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the access token set by ContextWithToken.
func TokenFromContext(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(tokenKey{}).(string)
	return tok, ok && tok != ""
}

// Client calls the backend. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	collector  *perf.Collector
	slowMs     float64

	mu             sync.RWMutex
	onUnauthorized func(ctx context.Context)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default traced HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithCollector records every call's timing as an upstream perf entry.
// slowMs <= 0 selects DefaultSlowUpstreamMs.
func WithCollector(collector *perf.Collector, slowMs int) Option {
	return func(c *Client) {
		c.collector = collector
		if slowMs > 0 {
			c.slowMs = float64(slowMs)
		}
	}
}

// New creates a client for the backend at baseURL.
// PRE: baseURL is an absolute http(s) URL
// POST: Requests are traced through otelhttp unless WithHTTPClient overrides the client
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   15 * time.Second,
		},
		slowMs: DefaultSlowUpstreamMs,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnUnauthorized registers fn to run when an authenticated call gets a 401.
// fn receives the context of the failed call. A later registration replaces an earlier one.
func (c *Client) OnUnauthorized(fn func(ctx context.Context)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

// call describes one backend request.
type call struct {
	method string
	route  string // path template for metrics and logs, e.g. "DELETE /users/{id}"
	path   string
	query  url.Values
	body   any
	auth   bool
}

// do performs the call and decodes a 2xx JSON body into out (when out is non-nil).
func (c *Client) do(ctx context.Context, cl call, out any) error {
	var token string
	if cl.auth {
		tok, ok := TokenFromContext(ctx)
		if !ok {
			return ErrNoToken
		}
		token = tok
	}

	var body io.Reader
	if cl.body != nil {
		data, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("encode %s: %w", cl.route, err)
		}
		body = bytes.NewReader(data)
	}

	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return fmt.Errorf("build %s: %w", cl.route, err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(cl.route, 0, start)
		slog.Warn("backend_call", "route", cl.route, "error", err)
		return &NetworkError{Op: cl.route, Err: err}
	}
	defer resp.Body.Close()
	c.record(cl.route, resp.StatusCode, start)

	switch {
	case resp.StatusCode == http.StatusUnauthorized && cl.auth:
		slog.Info("auth_event", "event", "token_rejected", "route", cl.route)
		c.unauthorized(ctx)
		return ErrUnauthorized
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &ValidationError{Status: resp.StatusCode, Message: errorMessage(resp.Body, resp.StatusCode)}
	case resp.StatusCode >= 500:
		msg := errorMessage(resp.Body, resp.StatusCode)
		slog.Warn("backend_call", "route", cl.route, "status", resp.StatusCode, "error", msg)
		return &ServerError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &ServerError{Status: resp.StatusCode, Message: fmt.Sprintf("decode %s: %v", cl.route, err)}
	}
	return nil
}

func (c *Client) unauthorized(ctx context.Context) {
	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()
	if fn != nil {
		fn(ctx)
	}
}

// record logs and stores the timing of one call.
func (c *Client) record(route string, status int, start time.Time) {
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0
	if durationMs >= c.slowMs {
		slog.Warn("slow_upstream", "route", route, "status", status, "duration_ms", durationMs)
	} else {
		slog.Debug("backend_call", "route", route, "status", status, "duration_ms", durationMs)
	}
	if c.collector != nil {
		c.collector.Record(perf.Entry{
			Kind:       perf.KindUpstream,
			Path:       route,
			StatusCode: status,
			DurationMs: durationMs,
			Timestamp:  start,
		})
	}
}

// errorMessage extracts {"error": "..."} (or {"message": "..."}) from an error body.
func errorMessage(r io.Reader, status int) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if json.Unmarshal(data, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return http.StatusText(status)
}
