// Package backend provides HTTP clients for the chat, tracking, quote, and
// portfolio services swapdesk talks to.
package backend

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mrz1836/swapdesk/internal/metrics"
	"github.com/mrz1836/swapdesk/internal/transport"
	deskerr "github.com/mrz1836/swapdesk/pkg/errors"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRequestsPerSecond paces requests per service.
	DefaultRequestsPerSecond = 5

	// maxResponseBody is the maximum response body size to read (4 MB).
	maxResponseBody = 4 << 20

	// maxErrorBody is how much of an error body is kept in error details.
	maxErrorBody = 512
)

// Service names used for metrics and rate limiting.
const (
	ServiceChat      = "chat"
	ServiceTracking  = "tracking"
	ServiceQuote     = "quote"
	ServicePortfolio = "portfolio"
)

// Options configures a backend client.
type Options struct {
	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
	// Timeout applies to non-streaming requests when HTTPClient is nil.
	Timeout time.Duration
	// RequestsPerSecond paces requests; <= 0 uses the default.
	RequestsPerSecond float64
	// Retry configures retries for idempotent GET requests.
	Retry *transport.RetryConfig
	// Metrics records request outcomes. Defaults to metrics.Global.
	Metrics *metrics.Metrics
	// Headers are added to every request.
	Headers map[string]string
}

// httpClient is the plumbing shared by every service client.
type httpClient struct {
	service     string
	baseURL     string
	http        *http.Client
	stream      *http.Client
	rateLimiter *transport.RateLimiter
	retry       transport.RetryConfig
	metrics     *metrics.Metrics
	headers     map[string]string
}

func newHTTPClient(service, baseURL string, opts *Options) *httpClient {
	if opts == nil {
		opts = &Options{}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}

	c := &httpClient{
		service: service,
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
			},
		},
		// Streams are bounded by the caller's context, not a client timeout.
		stream: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
			},
		},
		rateLimiter: transport.NewRateLimiter(rps, int(rps)+1),
		retry:       transport.DefaultRetryConfig(),
		metrics:     opts.Metrics,
		headers:     opts.Headers,
	}

	if opts.HTTPClient != nil {
		c.http = opts.HTTPClient
		c.stream = opts.HTTPClient
	}
	if opts.Retry != nil {
		c.retry = *opts.Retry
	}
	if c.metrics == nil {
		c.metrics = metrics.Global
	}
	return c
}

// getJSON performs a GET and decodes the JSON body into out. Transient
// failures are retried with backoff.
func (c *httpClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var lastErr error
	body, err := transport.Retry(ctx, c.retry, func() ([]byte, error) {
		b, retryable, doErr := c.do(ctx, http.MethodGet, reqURL, nil)
		lastErr = doErr
		if retryable {
			return nil, transport.WrapRetryable(doErr)
		}
		return b, doErr
	})
	if err != nil {
		// Report the backend failure rather than the retry wrapper.
		if lastErr != nil && ctx.Err() == nil {
			return lastErr
		}
		return err
	}
	return decodeBody(body, out)
}

// postJSON performs a POST with a JSON body and decodes the JSON response
// into out when out is non-nil. POSTs are never retried.
func (c *httpClient) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	body, _, err := c.do(ctx, http.MethodPost, c.baseURL+path, payload)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	return decodeBody(body, out)
}

// postStream performs a POST and returns the response for streaming. The
// caller closes the body.
func (c *httpClient) postStream(ctx context.Context, path string, in any) (*http.Response, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	if err := c.rateLimiter.Wait(ctx, c.service); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL+path, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.stream.Do(req) //nolint:gosec // G704: URL is built from configuration
	if err != nil {
		c.metrics.RecordBackendRequest(c.service, 0)
		return nil, deskerr.WithCause(deskerr.ErrBackendRequest, err)
	}
	c.metrics.RecordBackendRequest(c.service, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer func() { _ = resp.Body.Close() }()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, statusError(c.service, resp.StatusCode, body)
	}
	return resp, nil
}

// do sends one request. The bool reports whether the failure is transient.
func (c *httpClient) do(ctx context.Context, method, reqURL string, payload []byte) ([]byte, bool, error) {
	if err := c.rateLimiter.Wait(ctx, c.service); err != nil {
		return nil, false, err
	}

	req, err := c.newRequest(ctx, method, reqURL, payload)
	if err != nil {
		return nil, false, err
	}

	resp, err := c.http.Do(req) //nolint:gosec // G704: URL is built from configuration
	if err != nil {
		c.metrics.RecordBackendRequest(c.service, 0)
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, deskerr.WithCause(deskerr.ErrBackendRequest, err)
	}
	defer func() { _ = resp.Body.Close() }()
	c.metrics.RecordBackendRequest(c.service, resp.StatusCode)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, true, deskerr.WithCause(deskerr.ErrBackendRequest, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		wait := transport.ParseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, true, transport.RetryAfter(statusError(c.service, resp.StatusCode, body), wait)
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, true, statusError(c.service, resp.StatusCode, body)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, false, statusError(c.service, resp.StatusCode, body)
	}
	return body, false, nil
}

func (c *httpClient) newRequest(ctx context.Context, method, reqURL string, payload []byte) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}
	return req, nil
}

func decodeBody(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return deskerr.WithDetails(deskerr.WithCause(deskerr.ErrBackendRequest, err), map[string]string{
			"reason": "malformed response",
		})
	}
	return nil
}

func statusError(service string, status int, body []byte) error {
	return deskerr.WithDetails(deskerr.ErrBackendRequest, map[string]string{
		"service": service,
		"status":  strconv.Itoa(status),
		"body":    truncateBody(strings.TrimSpace(string(body)), maxErrorBody),
	})
}

// truncateBody truncates a string to maxLen characters.
func truncateBody(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
