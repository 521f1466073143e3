package backend

import (
	"bytes"
	"context"
	"io"
	"iter"
	"mime"
	"strings"

	"github.com/mrz1836/swapdesk/internal/metrics"
	"github.com/mrz1836/swapdesk/internal/stream"
	deskerr "github.com/mrz1836/swapdesk/pkg/errors"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatRequest is the body of a processing request.
type ChatRequest struct {
	WalletAddress string `json:"walletAddress"`
	Chain         string `json:"chain"`
	Input         string `json:"input"`
}

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatClient talks to the chat backend.
type ChatClient struct {
	http    *httpClient
	metrics *metrics.Metrics
}

// NewChatClient creates a chat client for baseURL.
func NewChatClient(baseURL string, opts *Options) *ChatClient {
	h := newHTTPClient(ServiceChat, baseURL, opts)
	return &ChatClient{http: h, metrics: h.metrics}
}

// Process sends req and yields the streamed events. The response body is
// released when iteration ends, including on early break.
func (c *ChatClient) Process(ctx context.Context, req ChatRequest) iter.Seq2[stream.Event, error] {
	return func(yield func(stream.Event, error) bool) {
		resp, err := c.http.postStream(ctx, "/process", req)
		if err != nil {
			yield(nil, err)
			return
		}
		defer func() { _ = resp.Body.Close() }()

		for ev, err := range stream.Decode(resp.Body) {
			if err != nil {
				if ctx.Err() != nil {
					err = ctx.Err()
				}
				yield(nil, deskerr.WithCause(deskerr.ErrBackendRequest, err))
				return
			}
			c.metrics.RecordStreamEvent(ev.Kind())
			if !yield(ev, nil) {
				return
			}
		}
	}
}

type completeRequest struct {
	Messages []Message `json:"messages"`
}

type completeResponse struct {
	Content string `json:"content"`
}

// Complete sends messages to the chat completion endpoint and returns the
// assistant reply. Both streamed and plain JSON replies are accepted.
func (c *ChatClient) Complete(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", deskerr.WithDetails(deskerr.ErrInvalidInput, map[string]string{"field": "messages"})
	}

	resp, err := c.http.postStream(ctx, "/api/chat", completeRequest{Messages: messages})
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType != "text/event-stream" {
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
		if err != nil {
			return "", deskerr.WithCause(deskerr.ErrBackendRequest, err)
		}
		var out completeResponse
		if err := decodeBody(bytes.TrimSpace(body), &out); err != nil {
			return "", err
		}
		return out.Content, nil
	}

	var b strings.Builder
	for ev, err := range stream.Decode(resp.Body) {
		if err != nil {
			return b.String(), deskerr.WithCause(deskerr.ErrBackendRequest, err)
		}
		if content, ok := ev.(stream.Content); ok {
			b.WriteString(content.Text)
		}
	}
	return b.String(), nil
}
