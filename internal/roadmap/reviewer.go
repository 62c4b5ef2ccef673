package roadmap

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/careeros/internal/ai"
	"github.com/spigell/careeros/internal/structured"
	"github.com/spigell/careeros/internal/utils"
)

//go:embed prompts/reviewer.md
var reviewerPrompt string

// Reviewer judges whether a draft covers every gap with concrete steps.
type Reviewer struct {
	agent
}

// Review is the reviewer's update to the state.
type Review struct {
	Status   ReviewStatus
	Feedback string
	Outcome  Outcome
}

func NewReviewer(gateway ai.Gateway, log *zap.Logger, maxLogLength int) *Reviewer {
	return &Reviewer{agent: newAgent(AgentReviewer, gateway, log, maxLogLength)}
}

// Review approves when the reply cannot be parsed. Gateway errors are
// returned: without a reachable model there is no verdict to default from.
func (r *Reviewer) Review(ctx context.Context, state State) (Review, error) {
	prompt := utils.Fill(reviewerPrompt, map[string]string{
		"MISSING_SKILLS": joinOrNone(state.MissingSkills),
		"NODE_LABELS":    formatLabels(state.Roadmap.Labels()),
	})

	var reply struct {
		Status   string `json:"status"`
		Feedback string `json:"feedback"`
	}

	if err := r.ask(ctx, prompt, &reply); err != nil {
		if !errors.Is(err, structured.ErrParseFailure) {
			r.log.Error("review failed", zap.Error(err))
			return Review{}, fmt.Errorf("review roadmap: %w", err)
		}

		r.log.Warn("review unreadable, approving", zap.Error(err))
		return Review{
			Status:  ReviewApproved,
			Outcome: fellBack(r.name, CauseParseFailure, err),
		}, nil
	}

	review := Review{Status: ParseReviewStatus(reply.Status), Outcome: succeeded(r.name)}
	if review.Status == ReviewRejected {
		review.Feedback = strings.TrimSpace(reply.Feedback)
	}

	r.log.Info("review decision",
		zap.String("status", string(review.Status)),
		zap.String("feedback", review.Feedback),
	)

	return review, nil
}

// ParseReviewStatus reads a model verdict. Anything other than an explicit
// rejection counts as approval.
func ParseReviewStatus(s string) ReviewStatus {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "REJECT", "REJECTED":
		return ReviewRejected
	default:
		return ReviewApproved
	}
}

func formatLabels(labels []string) string {
	if len(labels) == 0 {
		return "[]"
	}
	quoted := make([]string, 0, len(labels))
	for _, l := range labels {
		quoted = append(quoted, fmt.Sprintf("%q", l))
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
