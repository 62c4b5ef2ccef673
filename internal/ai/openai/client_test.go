package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/spigell/careeros/internal/ai"
)

type fakeResponder struct {
	err   error
	calls int
}

func (f *fakeResponder) New(context.Context, responses.ResponseNewParams, ...option.RequestOption) (*responses.Response, error) {
	f.calls++
	return nil, f.err
}

func TestBuildParams(t *testing.T) {
	c := &Client{model: "gpt-test", temperature: 0.1}

	params := c.buildParams("enumerate gaps")
	if string(params.Model) != "gpt-test" {
		t.Fatalf("unexpected model: %q", params.Model)
	}
	if params.Input.OfString.Value != "enumerate gaps" {
		t.Fatalf("unexpected input: %q", params.Input.OfString.Value)
	}
	if params.Temperature.Value != 0.1 {
		t.Fatalf("unexpected temperature: %v", params.Temperature.Value)
	}
}

func TestInvokeWrapsErrors(t *testing.T) {
	fake := &fakeResponder{err: errors.New("503 service unavailable")}
	c := &Client{responses: fake, model: "m"}

	if _, err := c.Invoke(context.Background(), "p"); !errors.Is(err, ai.ErrGatewayFailure) {
		t.Fatalf("expected gateway failure, got %v", err)
	}

	fake.err = nil
	if _, err := c.Invoke(context.Background(), "p"); !errors.Is(err, ai.ErrGatewayFailure) {
		t.Fatalf("expected gateway failure for nil response, got %v", err)
	}
	if fake.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", fake.calls)
	}
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := New(" ", "", "", 0.1); err == nil {
		t.Fatal("expected error without api key")
	}
}
