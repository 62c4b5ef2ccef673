package roadmap

import (
	"context"
	_ "embed"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/careeros/internal/ai"
	"github.com/spigell/careeros/internal/utils"
)

var (
	//go:embed prompts/architect.md
	architectPrompt string
	//go:embed prompts/architect_mastery.md
	masteryPrompt string
)

// Architect drafts the roadmap from the gap list.
type Architect struct {
	agent
}

// Draft is the architect's update to the state.
type Draft struct {
	Roadmap        Roadmap
	IterationCount int
	// Mastery is set when the candidate had no gaps and an interview
	// preparation plan was requested instead.
	Mastery bool
	Repairs Repairs
	Outcome Outcome
}

func NewArchitect(gateway ai.Gateway, log *zap.Logger, maxLogLength int) *Architect {
	return &Architect{agent: newAgent(AgentArchitect, gateway, log, maxLogLength)}
}

// Draft never fails: any gateway or parse error yields an empty roadmap.
// The iteration counter advances on every call.
func (a *Architect) Draft(ctx context.Context, state State) Draft {
	draft := Draft{
		Roadmap:        Roadmap{Nodes: []Node{}, Edges: []Edge{}},
		IterationCount: state.IterationCount + 1,
		Mastery:        len(state.MissingSkills) == 0,
	}

	log := a.log.With(zap.Int("iteration", draft.IterationCount))
	if state.Feedback != "" {
		log.Info("revising roadmap", zap.String("feedback", state.Feedback))
	}

	var reply Roadmap
	if err := a.ask(ctx, a.prompt(state), &reply); err != nil {
		cause := causeOf(err)
		log.Warn("roadmap draft failed, continuing with empty roadmap",
			zap.String("cause", string(cause)),
			zap.Error(err),
		)
		draft.Outcome = fellBack(a.name, cause, err)
		return draft
	}

	assignPhases(reply.Nodes, draft.Mastery)
	draft.Roadmap, draft.Repairs = Validate(reply)
	draft.Outcome = succeeded(a.name)

	if draft.Repairs.Total() > 0 {
		log.Info("repaired roadmap", zap.Object("repairs", draft.Repairs))
	}
	log.Info("drafted roadmap",
		zap.Bool("mastery", draft.Mastery),
		zap.Int("nodes", len(draft.Roadmap.Nodes)),
		zap.Int("edges", len(draft.Roadmap.Edges)),
	)

	return draft
}

func (a *Architect) prompt(state State) string {
	feedback := ""
	if state.Feedback != "" {
		feedback = "Previous Feedback (address it in this revision): " + state.Feedback + "\n"
	}

	template := architectPrompt
	if len(state.MissingSkills) == 0 {
		template = masteryPrompt
	}

	return utils.Fill(template, map[string]string{
		"MISSING_SKILLS": strings.Join(state.MissingSkills, ", "),
		"JOB_TITLE":      state.JobTitle,
		"FEEDBACK":       feedback,
	})
}

// assignPhases maps free-form phase labels onto the canonical phases.
// Nodes with an unrecognised phase are placed by their position in the list.
func assignPhases(nodes []Node, mastery bool) {
	for i := range nodes {
		if mastery {
			nodes[i].Phase = PhaseMastery
			continue
		}

		if phase, ok := CanonicalPhase(nodes[i].Phase); ok {
			nodes[i].Phase = phase
			continue
		}
		nodes[i].Phase = Phases[i*len(Phases)/len(nodes)]
	}
}

var phaseKeywords = []struct {
	phase    string
	keywords []string
}{
	{PhaseFoundations, []string{"foundation", "basic", "beginner", "fundamental", "intro"}},
	{PhaseCoreCompetency, []string{"core", "competen", "intermediate", "practical"}},
	{PhaseMastery, []string{"master", "advanced", "expert", "senior"}},
}

// CanonicalPhase returns the canonical phase a label refers to, if any.
// "Phase 2", "Core Competency (Intermediate)" and "intermediate" all map to
// Core Competency.
func CanonicalPhase(label string) (string, bool) {
	l := strings.ToLower(strings.TrimSpace(label))
	if l == "" {
		return "", false
	}

	for _, pk := range phaseKeywords {
		for _, kw := range pk.keywords {
			if strings.Contains(l, kw) {
				return pk.phase, true
			}
		}
	}

	l = strings.TrimSpace(strings.TrimPrefix(l, "phase"))
	for i, phase := range Phases {
		if strings.HasPrefix(l, string(rune('1'+i))) {
			return phase, true
		}
	}

	return "", false
}
