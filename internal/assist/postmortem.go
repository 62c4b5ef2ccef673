package assist

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/spigell/careeros/internal/utils"
)

//go:embed prompts/post_mortem.md
var postMortemPrompt string

type PostMortemRequest struct {
	JobTitle        string   `json:"job_title"`
	JobDescription  string   `json:"job_description"`
	UserSkills      []string `json:"user_skills"`
	RejectionReason string   `json:"rejection_reason,omitempty"`
}

type PostMortem struct {
	RootCause        string   `json:"root_cause"`
	CorrectiveAction string   `json:"corrective_action"`
	Resources        []string `json:"resources"`
}

// DefaultPostMortem is returned when the model cannot be used.
func DefaultPostMortem() PostMortem {
	return PostMortem{
		RootCause:        "Unable to analyze at this time.",
		CorrectiveAction: "Review job description manually.",
		Resources:        []string{},
	}
}

// PostMortem explains the likely cause of a rejection and how to fix it.
func (a *Assistant) PostMortem(ctx context.Context, req PostMortemRequest) (PostMortem, error) {
	if strings.TrimSpace(req.JobTitle) == "" {
		return PostMortem{}, fmt.Errorf("%w: job title is required", ErrValidation)
	}

	reason := "No specific reason provided."
	if r := strings.TrimSpace(req.RejectionReason); r != "" {
		reason = "User reported reason: " + r
	}

	prompt := utils.Fill(postMortemPrompt, map[string]string{
		"JOB_TITLE":       strings.TrimSpace(req.JobTitle),
		"JOB_DESCRIPTION": snippet(req.JobDescription, descriptionLimit),
		"USER_SKILLS":     strings.Join(cleanList(req.UserSkills), ", "),
		"REASON":          reason,
	})

	var out PostMortem
	if !a.ask(ctx, NamePostMortem, prompt, &out) {
		return DefaultPostMortem(), nil
	}

	out.RootCause = strings.TrimSpace(out.RootCause)
	out.CorrectiveAction = strings.TrimSpace(out.CorrectiveAction)
	out.Resources = cleanList(out.Resources)

	if out.RootCause == "" && out.CorrectiveAction == "" {
		a.observer.IncAssistFallback(NamePostMortem)
		return DefaultPostMortem(), nil
	}

	return out, nil
}
