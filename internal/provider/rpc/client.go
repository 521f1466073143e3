// Package rpc speaks the wallet request methods as JSON-RPC 2.0 over HTTP.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/mrz1836/swapdesk/internal/metrics"
	"github.com/mrz1836/swapdesk/internal/provider"
	"github.com/mrz1836/swapdesk/internal/transport"
	deskerr "github.com/mrz1836/swapdesk/pkg/errors"
)

var (
	// ErrRPCRequest indicates the endpoint could not be reached.
	ErrRPCRequest = &deskerr.DeskError{
		Code:     "RPC_REQUEST_FAILED",
		Message:  "wallet RPC request failed",
		ExitCode: deskerr.ExitGeneral,
	}

	// ErrRPCResponse indicates the endpoint answered with something other than JSON-RPC.
	ErrRPCResponse = &deskerr.DeskError{
		Code:     "RPC_INVALID_RESPONSE",
		Message:  "invalid wallet RPC response",
		ExitCode: deskerr.ExitGeneral,
	}
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 10 << 20

// Client is a minimal JSON-RPC 2.0 client.
type Client struct {
	url        string
	httpClient *http.Client
	limiter    *transport.RateLimiter
	metrics    *metrics.Metrics
	idCounter  atomic.Uint64
}

// ClientOptions tunes a Client. The zero value is usable.
type ClientOptions struct {
	HTTPClient        *http.Client
	Timeout           time.Duration
	RequestsPerSecond float64
	Metrics           *metrics.Metrics
}

// NewClient creates a new RPC client.
func NewClient(url string, opts *ClientOptions) *Client {
	if opts == nil {
		opts = &ClientOptions{}
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	m := opts.Metrics
	if m == nil {
		m = metrics.Global
	}

	return &Client{
		url:        url,
		httpClient: httpClient,
		limiter:    transport.NewRateLimiter(opts.RequestsPerSecond, 10),
		metrics:    m,
	}
}

// URL returns the endpoint URL.
func (c *Client) URL() string {
	return c.url
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      uint64 `json:"id"`
}

type response struct {
	JSONRPC string                  `json:"jsonrpc"`
	ID      uint64                  `json:"id"`
	Result  json.RawMessage         `json:"result"`
	Error   *provider.ProviderError `json:"error,omitempty"`
}

// Call performs a JSON-RPC call. Error objects from the endpoint are
// returned as *provider.ProviderError.
func (c *Client) Call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	start := time.Now()
	result, err := c.call(ctx, method, params)
	c.metrics.RecordProviderCall(method, time.Since(start), err)
	return result, err
}

func (c *Client) call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}

	if err := c.limiter.Wait(ctx, c.url); err != nil {
		return nil, err
	}

	body, err := json.Marshal(request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.idCounter.Add(1),
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, deskerr.WithCause(ErrRPCRequest, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, deskerr.WithCause(ErrRPCRequest, fmt.Errorf("reading response body: %w", err))
	}

	var resp response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, deskerr.WithDetails(
			deskerr.WithCause(ErrRPCResponse, err),
			map[string]string{"status": httpResp.Status},
		)
	}

	if resp.Error != nil {
		return nil, resp.Error
	}

	return resp.Result, nil
}
