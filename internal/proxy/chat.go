package proxy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrz1836/swapdesk/internal/backend"
	"github.com/mrz1836/swapdesk/internal/stream"
)

// errCompletionFailed is the body returned when the upstream cannot be used.
const errCompletionFailed = "Failed to get chat completion"

type chatRequest struct {
	Messages []backend.Message `json:"messages"`
}

type completionRequest struct {
	Model       string            `json:"model"`
	Messages    []backend.Message `json:"messages"`
	Stream      bool              `json:"stream"`
	Temperature float64           `json:"temperature"`
	MaxTokens   int               `json:"max_tokens"`
}

type completionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messages are required"})
		return
	}

	resp, err := s.openCompletion(c, req.Messages)
	if err != nil {
		s.log.Error().Err(err).Str("request_id", c.GetString(requestIDKey)).Msg("chat completion failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": errCompletionFailed})
		return
	}
	defer func() { _ = resp.Body.Close() }()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	enc := stream.NewEncoder(c.Writer)
	for payload, err := range stream.Payloads(resp.Body) {
		if err != nil {
			// Headers are already sent; end the stream.
			s.log.Error().Err(err).Str("request_id", c.GetString(requestIDKey)).Msg("upstream stream interrupted")
			break
		}

		var chunk completionChunk
		if json.Unmarshal(payload, &chunk) != nil || len(chunk.Choices) == 0 {
			continue
		}
		content := chunk.Choices[0].Delta.Content
		if content == "" {
			continue
		}
		if err := enc.Content(content); err != nil {
			// Client went away.
			return
		}
		s.metrics.RecordStreamEvent(stream.KindContent)
	}
	_ = enc.Done()
}

func (s *Server) openCompletion(c *gin.Context, messages []backend.Message) (*http.Response, error) {
	body, err := json.Marshal(completionRequest{
		Model:       s.cfg.Model,
		Messages:    messages,
		Stream:      true,
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	upstream, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost,
		s.cfg.UpstreamURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	upstream.Header.Set("Content-Type", "application/json")
	upstream.Header.Set("Accept", "text/event-stream")
	if s.cfg.APIKey != "" {
		upstream.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	resp, err := s.client.Do(upstream) //nolint:gosec // G704: URL is built from configuration
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer func() { _ = resp.Body.Close() }()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("upstream status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	return resp, nil
}
