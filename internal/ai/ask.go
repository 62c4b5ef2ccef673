package ai

import (
	"context"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/careeros/internal/structured"
	"github.com/spigell/careeros/internal/utils"
)

// Ask sends prompt through g and decodes the reply into out. Gateway errors
// are returned as is; replies without a usable record match
// structured.ErrParseFailure. Previews of both texts are logged at debug level.
func Ask(ctx context.Context, g Gateway, log *zap.Logger, maxLogLen int, prompt string, out any) error {
	if log == nil {
		log = zap.NewNop()
	}

	log.Debug("model request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, maxLogLen)),
	)

	raw, err := g.Invoke(ctx, prompt)
	if err != nil {
		return err
	}

	log.Debug("model response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, maxLogLen)),
	)

	return structured.Decode(raw, out)
}
