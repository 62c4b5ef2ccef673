package assist

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/spigell/careeros/internal/utils"
)

//go:embed prompts/tailor.md
var tailorPrompt string

const tailoredBullets = 3

type TailorRequest struct {
	UserSkills     []string `json:"user_skills"`
	JobDescription string   `json:"job_description"`
	JobTitle       string   `json:"job_title"`
}

type Tailored struct {
	TailoredBullets []string `json:"tailored_bullets"`
}

// DefaultTailored is returned when the model cannot be used.
func DefaultTailored() Tailored {
	return Tailored{TailoredBullets: []string{"Error generating tailored content."}}
}

// Tailor writes résumé bullets that put the user's skills in the job's terms.
func (a *Assistant) Tailor(ctx context.Context, req TailorRequest) (Tailored, error) {
	if strings.TrimSpace(req.JobTitle) == "" {
		return Tailored{}, fmt.Errorf("%w: job title is required", ErrValidation)
	}

	prompt := utils.Fill(tailorPrompt, map[string]string{
		"USER_SKILLS":     strings.Join(cleanList(req.UserSkills), ", "),
		"JOB_TITLE":       strings.TrimSpace(req.JobTitle),
		"JOB_DESCRIPTION": snippet(req.JobDescription, descriptionLimit),
		"BULLETS":         strconv.Itoa(tailoredBullets),
	})

	var out Tailored
	if !a.ask(ctx, NameTailor, prompt, &out) {
		return DefaultTailored(), nil
	}

	out.TailoredBullets = cleanList(out.TailoredBullets)
	if len(out.TailoredBullets) == 0 {
		a.observer.IncAssistFallback(NameTailor)
		return DefaultTailored(), nil
	}

	return out, nil
}
