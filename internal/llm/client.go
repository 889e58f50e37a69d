// Package llm provides the client for the external text-understanding
// service. Classification and topic extraction consume it through the
// Completer port so they can run against deterministic fakes in tests.
package llm

import (
	"context"
	"errors"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"github.com/nixolabs/triage-service/internal/config"
)

// Completer issues a single free-text prompt and returns the raw response
// text. One attempt per call; callers fall back to deterministic logic on any
// error.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ErrEmptyResponse is returned when the service answers with no choices.
var ErrEmptyResponse = errors.New("llm: empty response")

// Client wraps an OpenAI-compatible chat completion API behind a circuit
// breaker. An open breaker fails immediately, which routes the pipeline to
// its fallbacks without waiting out network timeouts.
type Client struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
}

// NewClient builds a Client from configuration. Returns nil when no API key
// is configured; services treat a nil Completer as "service unavailable".
func NewClient(cfg config.LLMConfig) *Client {
	if cfg.APIKey == "" {
		return nil
	}
	settings := gobreaker.Settings{
		Name:        "text-understanding",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &Client{
		client:  openai.NewClient(cfg.APIKey),
		model:   cfg.Model,
		timeout: cfg.Timeout(),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Complete sends a single-turn prompt and returns the response text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, ErrEmptyResponse
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}
