// Package openai provides an ai.Gateway for OpenAI-compatible hosts using the Responses API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"

	"github.com/spigell/careeros/internal/ai"
)

const (
	defaultModel = "gpt-4o-mini"
	provider     = "openai"
)

type responder interface {
	New(ctx context.Context, body responses.ResponseNewParams, opts ...option.RequestOption) (*responses.Response, error)
}

// Client wraps the official OpenAI client.
type Client struct {
	responses   responder
	model       string
	temperature float64
}

// New creates a client. baseURL may point at any OpenAI-compatible endpoint,
// in which case the key may be empty.
func New(apiKey, baseURL, model string, temperature float64) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	baseURL = strings.TrimSpace(baseURL)
	if apiKey == "" && baseURL == "" {
		return nil, errors.New("openai api key is required unless a base url is set")
	}

	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	client := openai.NewClient(opts...)

	return &Client{
		responses:   &client.Responses,
		model:       model,
		temperature: temperature,
	}, nil
}

// Invoke implements ai.Gateway.
func (c *Client) Invoke(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("prompt must not be empty")
	}

	resp, err := c.responses.New(ctx, c.buildParams(prompt))
	if err != nil {
		return "", ai.Failure(provider, fmt.Errorf("create response: %w", err))
	}
	if resp == nil {
		return "", ai.Failure(provider, errors.New("openai returned nil response"))
	}

	output := strings.TrimSpace(resp.OutputText())
	if output == "" {
		return "", ai.Failure(provider, errors.New("openai returned empty response"))
	}

	return output, nil
}

func (c *Client) buildParams(prompt string) responses.ResponseNewParams {
	return responses.ResponseNewParams{
		Model:       shared.ResponsesModel(c.model),
		Input:       responses.ResponseNewParamsInputUnion{OfString: openai.String(prompt)},
		Temperature: openai.Float(c.temperature),
	}
}

func (c *Client) Model() string {
	return c.model
}
