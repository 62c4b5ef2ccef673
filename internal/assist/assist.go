// Package assist holds single-shot career assistants: rejection post-mortems,
// résumé bullet tailoring and ATS audits. Each assistant makes one model call
// and answers with a fixed default when the call or its parsing fails.
package assist

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/careeros/internal/ai"
	"github.com/spigell/careeros/internal/logger"
	"github.com/spigell/careeros/internal/utils"
)

// ErrValidation marks requests missing required input.
var ErrValidation = errors.New("validation failure")

const (
	defaultMaxLogLength = 200

	descriptionLimit = 500
	resumeLimit      = 2000
)

// Assistant names used in logs and metrics.
const (
	NamePostMortem = "post_mortem"
	NameTailor     = "tailor"
	NameAudit      = "audit"
)

// Observer is notified when an assistant answers with its default.
type Observer interface {
	IncAssistFallback(assistant string)
}

type nopObserver struct{}

func (nopObserver) IncAssistFallback(string) {}

type Assistant struct {
	gateway   ai.Gateway
	log       *zap.Logger
	maxLogLen int
	observer  Observer
}

func New(gateway ai.Gateway, log *zap.Logger, maxLogLength int, observer Observer) *Assistant {
	if log == nil {
		log = zap.NewNop()
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if observer == nil {
		observer = nopObserver{}
	}

	return &Assistant{
		gateway:   gateway,
		log:       log,
		maxLogLen: maxLogLength,
		observer:  observer,
	}
}

// ask runs one model call for the named assistant and reports whether the
// reply was decoded.
func (a *Assistant) ask(ctx context.Context, name, prompt string, out any) bool {
	log := logger.WithFields(a.log, zap.String(logger.FieldAgent, name))

	if err := ai.Ask(ctx, a.gateway, log, a.maxLogLen, prompt, out); err != nil {
		log.Warn("assistant failed, answering with default", zap.Error(err))
		a.observer.IncAssistFallback(name)
		return false
	}

	return true
}

// snippet cuts a job description for inclusion in a prompt.
func snippet(text string, limit int) string {
	text = strings.TrimSpace(text)
	clipped := utils.Clip(text, limit)
	if clipped != text {
		clipped += "..."
	}
	return clipped
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
