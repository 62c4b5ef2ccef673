// Package ollama provides an ai.Gateway backed by a local Ollama host.
package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/spigell/careeros/internal/ai"
)

const (
	// DefaultHost is the address Ollama listens on out of the box.
	DefaultHost  = "http://localhost:11434"
	defaultModel = "gemma3:1b"
	provider     = "ollama"
)

type generator interface {
	Generate(ctx context.Context, req *api.GenerateRequest, fn api.GenerateResponseFunc) error
}

// Client sends single, non-streaming generate requests in JSON format mode.
type Client struct {
	api         generator
	model       string
	temperature float64
}

// New creates a client for the Ollama host at hostURL.
func New(hostURL, model string, temperature float64) (*Client, error) {
	hostURL = strings.TrimSpace(hostURL)
	if hostURL == "" {
		hostURL = DefaultHost
	}

	parsed, err := url.Parse(hostURL)
	if err != nil {
		return nil, fmt.Errorf("parse ollama host %q: %w", hostURL, err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	return &Client{
		api:         api.NewClient(parsed, http.DefaultClient),
		model:       model,
		temperature: temperature,
	}, nil
}

// Invoke implements ai.Gateway.
func (c *Client) Invoke(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("prompt must not be empty")
	}

	stream := false
	req := &api.GenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: &stream,
		Format: json.RawMessage(`"json"`),
		Options: map[string]any{
			"temperature": c.temperature,
		},
	}

	var builder strings.Builder
	err := c.api.Generate(ctx, req, func(resp api.GenerateResponse) error {
		builder.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", ai.Failure(provider, fmt.Errorf("generate: %w", err))
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", ai.Failure(provider, errors.New("ollama returned empty response"))
	}

	return output, nil
}

func (c *Client) Model() string {
	return c.model
}
