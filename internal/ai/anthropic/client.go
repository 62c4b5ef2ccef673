// Package anthropic provides an ai.Gateway backed by the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/spigell/careeros/internal/ai"
)

const (
	defaultModel     = "claude-3-5-haiku-latest"
	defaultMaxTokens = 4096
	provider         = "anthropic"
)

type messenger interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Client wraps the Anthropic SDK client.
type Client struct {
	messages    messenger
	model       string
	temperature float64
}

// New creates a client authenticated with apiKey.
func New(apiKey, model string, temperature float64) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("anthropic api key is required")
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &Client{
		messages:    &client.Messages,
		model:       model,
		temperature: temperature,
	}, nil
}

// Invoke implements ai.Gateway. Text blocks of the reply are concatenated.
func (c *Client) Invoke(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("prompt must not be empty")
	}

	resp, err := c.messages.New(ctx, c.buildParams(prompt))
	if err != nil {
		return "", ai.Failure(provider, fmt.Errorf("create message: %w", err))
	}
	if resp == nil {
		return "", ai.Failure(provider, errors.New("anthropic returned nil response"))
	}

	var builder strings.Builder
	for i := range resp.Content {
		block := &resp.Content[i]
		if block.Type == "text" {
			builder.WriteString(block.AsText().Text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", ai.Failure(provider, errors.New("anthropic returned empty response"))
	}

	return output, nil
}

func (c *Client) buildParams(prompt string) anthropic.MessageNewParams {
	return anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: defaultMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Temperature: anthropic.Float(c.temperature),
	}
}

func (c *Client) Model() string {
	return c.model
}
