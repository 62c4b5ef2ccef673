package assist

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/spigell/careeros/internal/utils"
)

//go:embed prompts/audit.md
var auditPrompt string

type AuditRequest struct {
	ResumeText     string `json:"resume_text"`
	JobDescription string `json:"job_description,omitempty"`
}

type AuditSection struct {
	Name        string   `json:"name"`
	Score       int      `json:"score"`
	Status      string   `json:"status"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

type Audit struct {
	Score           int            `json:"score"`
	Summary         string         `json:"summary"`
	Sections        []AuditSection `json:"sections"`
	MissingKeywords []string       `json:"missing_keywords"`
}

// DefaultAudit is returned when the model cannot be used.
func DefaultAudit() Audit {
	return Audit{
		Score:           0,
		Summary:         "Error analyzing resume.",
		Sections:        []AuditSection{},
		MissingKeywords: []string{},
	}
}

// Audit scores a résumé for ATS compatibility, optionally against a job.
func (a *Assistant) Audit(ctx context.Context, req AuditRequest) (Audit, error) {
	if strings.TrimSpace(req.ResumeText) == "" {
		return Audit{}, fmt.Errorf("%w: resume text is required", ErrValidation)
	}

	jd := "General Tech Role"
	if strings.TrimSpace(req.JobDescription) != "" {
		jd = snippet(req.JobDescription, descriptionLimit)
	}

	prompt := utils.Fill(auditPrompt, map[string]string{
		"RESUME_TEXT":     snippet(req.ResumeText, resumeLimit),
		"JOB_DESCRIPTION": jd,
	})

	var out Audit
	if !a.ask(ctx, NameAudit, prompt, &out) {
		return DefaultAudit(), nil
	}

	out.Score = clampScore(out.Score)
	out.Summary = strings.TrimSpace(out.Summary)
	out.MissingKeywords = cleanList(out.MissingKeywords)

	sections := make([]AuditSection, 0, len(out.Sections))
	for _, s := range out.Sections {
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" {
			continue
		}
		s.Score = clampScore(s.Score)
		s.Status = sectionStatus(s.Status, s.Score)
		s.Issues = cleanList(s.Issues)
		s.Suggestions = cleanList(s.Suggestions)
		sections = append(sections, s)
	}
	out.Sections = sections

	return out, nil
}

func clampScore(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}

// sectionStatus keeps a recognised status and derives one from the score otherwise.
func sectionStatus(status string, score int) string {
	switch s := strings.ToLower(strings.TrimSpace(status)); s {
	case "good", "warning", "critical":
		return s
	}

	switch {
	case score >= 75:
		return "good"
	case score >= 50:
		return "warning"
	default:
		return "critical"
	}
}
