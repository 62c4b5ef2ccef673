package roadmap

import (
	"context"
	_ "embed"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/careeros/internal/ai"
	"github.com/spigell/careeros/internal/utils"
)

//go:embed prompts/gap_analyst.md
var gapAnalystPrompt string

// GapAnalyst finds required skills the candidate does not declare.
type GapAnalyst struct {
	agent
}

// GapAnalysis is the analyst's update to the state.
type GapAnalysis struct {
	MissingSkills []string
	Outcome       Outcome
}

func NewGapAnalyst(gateway ai.Gateway, log *zap.Logger, maxLogLength int) *GapAnalyst {
	return &GapAnalyst{agent: newAgent(AgentGapAnalyst, gateway, log, maxLogLength)}
}

// Analyze never fails: any gateway or parse error yields an empty gap list.
func (g *GapAnalyst) Analyze(ctx context.Context, state State) GapAnalysis {
	prompt := utils.Fill(gapAnalystPrompt, map[string]string{
		"USER_SKILLS": joinOrNone(state.UserSkills),
		"JOB_TITLE":   state.JobTitle,
		"JOB_SKILLS":  state.JobSkills,
	})

	var reply struct {
		MissingSkills []string `json:"missing_skills"`
	}

	if err := g.ask(ctx, prompt, &reply); err != nil {
		cause := causeOf(err)
		g.log.Warn("gap analysis failed, continuing with no gaps",
			zap.String("cause", string(cause)),
			zap.Error(err),
		)
		return GapAnalysis{MissingSkills: []string{}, Outcome: fellBack(g.name, cause, err)}
	}

	missing := ExcludeKnown(reply.MissingSkills, state.UserSkills)
	g.log.Info("identified skill gaps", zap.Strings("missing_skills", missing))

	return GapAnalysis{MissingSkills: missing, Outcome: succeeded(g.name)}
}

// ExcludeKnown returns candidates without the ones present in known, compared
// case-insensitively. Blank and repeated entries are dropped; order is kept.
func ExcludeKnown(candidates, known []string) []string {
	skip := make(map[string]struct{}, len(known)+len(candidates))
	for _, k := range known {
		skip[skillKey(k)] = struct{}{}
	}

	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		key := skillKey(c)
		if key == "" {
			continue
		}
		if _, ok := skip[key]; ok {
			continue
		}
		skip[key] = struct{}{}
		out = append(out, c)
	}

	return out
}

func skillKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
