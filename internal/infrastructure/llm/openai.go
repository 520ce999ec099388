package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"blogpilot/internal/config"
	"blogpilot/internal/ports"
)

const (
	maxTransientRetries = 3
	baseBackoff         = 2 * time.Second
)

// Client implements ports.ContentGenerator against OpenAI-compatible APIs.
// Transient network failures and 5xx responses are retried with exponential
// backoff before the error reaches the caller.
type Client struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
	sleep      func(time.Duration)
}

var _ ports.ContentGenerator = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.OpenAIConfig) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 200 * time.Second,
		},
		sleep: time.Sleep,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends one completion request and returns the generated text.
// A response body that is itself an upstream error string is returned as an
// empty result rather than an error.
func (c *Client) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	if c == nil || c.apiKey == "" || c.endpoint == "" {
		return "", fmt.Errorf("completion client misconfigured")
	}

	model := req.Model
	if model == "" {
		model = c.model
	}

	body, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.Prompt},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxTransientRetries; attempt++ {
		if attempt > 0 {
			backoff := baseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			default:
			}
			c.sleep(backoff)
		}

		text, retryable, err := c.complete(ctx, body)
		if err == nil {
			return sanitizeContent(text), nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		lastErr = err
		if !retryable {
			break
		}
	}

	return "", lastErr
}

func (c *Client) complete(ctx context.Context, body []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("send completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", true, fmt.Errorf("completion error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", false, fmt.Errorf("completion error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", false, fmt.Errorf("decode completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", false, fmt.Errorf("completion response has no choices")
	}

	return parsed.Choices[0].Message.Content, false, nil
}

// sanitizeContent maps upstream error strings that arrive as content to an
// empty result, which the engine treats as a failed, non-fatal attempt.
func sanitizeContent(text string) string {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "error:") || strings.HasPrefix(lower, "api error") {
		return ""
	}
	return trimmed
}
