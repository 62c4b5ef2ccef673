package roadmap

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/careeros/internal/ai"
	"github.com/spigell/careeros/internal/logger"
	"github.com/spigell/careeros/internal/structured"
)

const defaultMaxLogLength = 200

// Agent names used in logs, traces and metrics.
const (
	AgentGapAnalyst = "gap_analyst"
	AgentArchitect  = "architect"
	AgentReviewer   = "reviewer"
)

// agent holds what every reasoning step needs to talk to the model.
type agent struct {
	name      string
	gateway   ai.Gateway
	log       *zap.Logger
	maxLogLen int
}

func newAgent(name string, gateway ai.Gateway, log *zap.Logger, maxLogLen int) agent {
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	return agent{
		name:      name,
		gateway:   gateway,
		log:       logger.WithFields(log, zap.String(logger.FieldAgent, name)),
		maxLogLen: maxLogLen,
	}
}

func (a agent) ask(ctx context.Context, prompt string, out any) error {
	return ai.Ask(ctx, a.gateway, a.log, a.maxLogLen, prompt, out)
}

func causeOf(err error) Cause {
	switch {
	case err == nil:
		return CauseNone
	case errors.Is(err, structured.ErrParseFailure):
		return CauseParseFailure
	case errors.Is(err, ai.ErrGatewayTimeout), errors.Is(err, context.DeadlineExceeded):
		return CauseGatewayTimeout
	default:
		return CauseGatewayFailure
	}
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
