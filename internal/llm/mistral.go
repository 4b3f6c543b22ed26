package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const mistralURL = "https://api.mistral.ai/v1/chat/completions"

// MistralClient calls an OpenAI-compatible chat completions endpoint
// (Mistral by default).
type MistralClient struct {
	apiKey      string
	model       string
	url         string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	log         *slog.Logger
}

// MistralOption customizes a MistralClient.
type MistralOption func(*MistralClient)

// WithURL overrides the chat completions endpoint.
func WithURL(u string) MistralOption {
	return func(c *MistralClient) {
		if u != "" {
			c.url = u
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) MistralOption {
	return func(c *MistralClient) { c.temperature = t }
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int) MistralOption {
	return func(c *MistralClient) { c.maxTokens = n }
}

// WithLogger sets the request logger.
func WithLogger(log *slog.Logger) MistralOption {
	return func(c *MistralClient) {
		if log != nil {
			c.log = log
		}
	}
}

func NewMistralClient(apiKey, model string, opts ...MistralOption) *MistralClient {
	c := &MistralClient{
		apiKey:      apiKey,
		model:       model,
		url:         mistralURL,
		temperature: 0.3,
		maxTokens:   1000,
		httpClient:  &http.Client{Timeout: 90 * time.Second},
		log:         slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Model returns the configured model name.
func (c *MistralClient) Model() string {
	return c.model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends prompt as a single user message.
func (c *MistralClient) Complete(ctx context.Context, prompt string) (string, error) {
	reqID := uuid.NewString()
	start := time.Now()

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.Error("llm.request failed", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("mistral api: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	c.log.Debug("llm.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", &RetryableError{StatusCode: resp.StatusCode, Message: string(raw)}
	}
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("mistral api status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var payload chatResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if payload.Error != nil {
		return "", fmt.Errorf("mistral error: %s", payload.Error.Message)
	}
	if len(payload.Choices) == 0 {
		return "", fmt.Errorf("empty response from mistral")
	}
	return CleanResponse(payload.Choices[0].Message.Content), nil
}

// Close releases resources.
func (c *MistralClient) Close() {
	c.httpClient.CloseIdleConnections()
}
