// Package llm talks to an OpenAI-compatible chat-completion endpoint.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pavelanni/labgrader/internal/llm/prompts"

	openai "github.com/sashabaranov/go-openai"
)

// Defaults for the completion request. The low temperature keeps
// repeated grading of the same submission as reproducible as the remote
// model allows.
const (
	DefaultMaxTokens   = 1500
	DefaultTemperature = 0.3
	DefaultTimeout     = 120 * time.Second
)

// ErrMissingCredential is returned when no API key is configured.
var ErrMissingCredential = errors.New("LLM API key is required: set --llm-key or LABGRADER_LLM_KEY")

// Config holds the completion endpoint settings. It is read once at
// construction; the client never consults ambient state afterwards.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// TransportError reports a failed completion call: a non-success HTTP
// status (with status and body) or a network/timeout failure (status 0).
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("completion endpoint returned status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("completion request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api         *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// New creates a completion client from the given config. The credential
// is checked here, once, so a missing key fails before any grading.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingCredential
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	config.HTTPClient = &http.Client{Timeout: timeout}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = DefaultTemperature
	}

	return &Client{
		api:         openai.NewClientWithConfig(config),
		model:       cfg.Model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}, nil
}

// Complete sends the compiled payload and returns the raw reply text.
// It performs no retries; retry policy belongs to the caller.
func (c *Client) Complete(ctx context.Context, p prompts.Payload) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.System},
			{Role: openai.ChatMessageRoleUser, Content: p.User},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", mapAPIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", &TransportError{Err: errors.New("completion response contained no choices")}
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("completion reply", "model", resp.Model, "raw", raw)
	return raw, nil
}

func mapAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &TransportError{
			StatusCode: apiErr.HTTPStatusCode,
			Body:       apiErr.Message,
			Err:        err,
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &TransportError{
			StatusCode: reqErr.HTTPStatusCode,
			Err:        err,
		}
	}
	return &TransportError{Err: err}
}
