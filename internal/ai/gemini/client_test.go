package gemini

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/careeros/internal/ai"
)

type fakeModels struct {
	resp   *genai.GenerateContentResponse
	err    error
	calls  int
	model  string
	config *genai.GenerateContentConfig
	prompt string
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.model = model
	f.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

func TestGeneratorInvokeUsesJSONModeAndTemperature(t *testing.T) {
	models := &fakeModels{resp: textResponse(`{"missing_skills": []}`)}
	g := &Generator{models: models, modelName: "gemini-pro", temperature: 0.1, logger: zap.NewNop()}

	out, err := g.Invoke(context.Background(), "  list gaps  ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != `{"missing_skills": []}` {
		t.Fatalf("unexpected output: %q", out)
	}

	if models.model != "gemini-pro" {
		t.Fatalf("unexpected model: %q", models.model)
	}
	if models.prompt != "list gaps" {
		t.Fatalf("expected trimmed prompt, got %q", models.prompt)
	}
	if models.config == nil || models.config.ResponseMIMEType != "application/json" {
		t.Fatalf("expected json response mode, got %+v", models.config)
	}
	if models.config.Temperature == nil || *models.config.Temperature != float32(0.1) {
		t.Fatalf("expected temperature 0.1")
	}
}

func TestGeneratorJoinsParts(t *testing.T) {
	models := &fakeModels{resp: textResponse("first", "  ", "second")}
	g := &Generator{models: models, modelName: "m", logger: zap.NewNop()}

	out, err := g.Invoke(context.Background(), "p")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "first\nsecond" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestGeneratorDoesNotRetry(t *testing.T) {
	models := &fakeModels{err: genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}}
	g := &Generator{models: models, modelName: "m", logger: zap.NewNop()}

	_, err := g.Invoke(context.Background(), "p")
	if !errors.Is(err, ai.ErrGatewayFailure) {
		t.Fatalf("expected gateway failure, got %v", err)
	}
	if models.calls != 1 {
		t.Fatalf("expected single call, got %d", models.calls)
	}
}

func TestGeneratorEmptyResponse(t *testing.T) {
	g := &Generator{models: &fakeModels{resp: textResponse("")}, modelName: "m", logger: zap.NewNop()}

	if _, err := g.Invoke(context.Background(), "p"); !errors.Is(err, ai.ErrGatewayFailure) {
		t.Fatalf("expected gateway failure for empty response, got %v", err)
	}
}

func TestGeneratorRejectsEmptyPrompt(t *testing.T) {
	models := &fakeModels{resp: textResponse("{}")}
	g := &Generator{models: models, modelName: "m", logger: zap.NewNop()}

	if _, err := g.Invoke(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty prompt")
	}
	if models.calls != 0 {
		t.Fatalf("expected no calls, got %d", models.calls)
	}
}
