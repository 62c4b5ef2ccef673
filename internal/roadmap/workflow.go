package roadmap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/careeros/internal/ai"
)

// Stage is a state of the roadmap workflow.
type Stage string

const (
	StageAnalyzing Stage = "ANALYZING"
	StageDrafting  Stage = "DRAFTING"
	StageReviewing Stage = "REVIEWING"
	StageRejected  Stage = "REJECTED"
	StageApproved  Stage = "APPROVED"
)

// validTransitions is the whole topology of the workflow.
var validTransitions = map[Stage][]Stage{
	StageAnalyzing: {StageDrafting},
	StageDrafting:  {StageReviewing},
	StageReviewing: {StageApproved, StageRejected},
	StageRejected:  {StageDrafting},
	StageApproved:  {},
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s Stage) CanTransitionTo(next Stage) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the workflow stops in s.
func (s Stage) IsTerminal() bool {
	allowed, ok := validTransitions[s]
	return ok && len(allowed) == 0
}

// Observer receives workflow events. *metrics.Recorder implements it.
type Observer interface {
	IncAgentFallback(agent, cause string)
	ObserveWorkflow(outcome string, drafts int)
}

type nopObserver struct{}

func (nopObserver) IncAgentFallback(string, string) {}
func (nopObserver) ObserveWorkflow(string, int)     {}

// Options tunes the workflow and the service around it.
type Options struct {
	// MaxRevisions bounds how many times a rejected draft is sent back to the
	// architect. Zero accepts the first draft whatever the verdict.
	MaxRevisions int
	// MaxLogLength caps prompt and response previews in debug logs.
	MaxLogLength int
	// CacheSize enables an in-memory result cache in Service when positive.
	CacheSize int
	Observer  Observer
}

// Step is one trace entry: an agent run in a stage.
type Step struct {
	Stage     Stage   `json:"stage" yaml:"stage"`
	Iteration int     `json:"iteration" yaml:"iteration"`
	Outcome   Outcome `json:"outcome" yaml:"outcome"`
}

// Result is the final state of a workflow run.
type Result struct {
	State State  `json:"state" yaml:"state"`
	Stage Stage  `json:"stage" yaml:"stage"`
	Trace []Step `json:"trace" yaml:"trace"`
}

// Fallbacks returns the trace steps whose agent used a default.
func (r *Result) Fallbacks() []Step {
	var out []Step
	for _, s := range r.Trace {
		if s.Outcome.Fallback {
			out = append(out, s)
		}
	}
	return out
}

// Workflow runs the agents strictly in sequence over one State.
type Workflow struct {
	gateway      ai.Gateway
	maxLogLength int
	analyst      *GapAnalyst
	architect    *Architect
	reviewer     *Reviewer
	maxRevisions int
	observer     Observer
	log          *zap.Logger
}

func NewWorkflow(gateway ai.Gateway, log *zap.Logger, opts Options) *Workflow {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.MaxRevisions < 0 {
		opts.MaxRevisions = 0
	}

	w := &Workflow{
		gateway:      gateway,
		maxLogLength: opts.MaxLogLength,
		maxRevisions: opts.MaxRevisions,
		observer:     opts.Observer,
	}
	return w.WithLogger(log)
}

// WithLogger returns a copy of w whose agents log through log.
func (w *Workflow) WithLogger(log *zap.Logger) *Workflow {
	out := *w
	out.log = log
	out.analyst = NewGapAnalyst(w.gateway, log, w.maxLogLength)
	out.architect = NewArchitect(w.gateway, log, w.maxLogLength)
	out.reviewer = NewReviewer(w.gateway, log, w.maxLogLength)
	return &out
}

// Run drives state from ANALYZING to APPROVED. The only error sources are
// a reviewer gateway failure and ctx being done between stages; both match
// ErrWorkflow.
func (w *Workflow) Run(ctx context.Context, state State) (*Result, error) {
	result := &Result{Stage: StageAnalyzing}
	stage := StageAnalyzing

	for !stage.IsTerminal() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: interrupted in %s: %w", ErrWorkflow, stage, err)
		}

		next, step, err := w.advance(ctx, stage, &state)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrWorkflow, stage, err)
		}

		if step != nil {
			result.Trace = append(result.Trace, *step)
			if step.Outcome.Fallback {
				w.observer.IncAgentFallback(step.Outcome.Agent, string(step.Outcome.Cause))
			}
		}

		if !stage.CanTransitionTo(next) {
			return nil, fmt.Errorf("%w: invalid transition %s -> %s", ErrWorkflow, stage, next)
		}

		w.log.Debug("workflow transition",
			zap.String("from", string(stage)),
			zap.String("to", string(next)),
			zap.Int("iteration", state.IterationCount),
		)
		stage = next
	}

	result.State = state
	result.Stage = stage

	return result, nil
}

// advance runs the work attached to stage and returns the next stage.
func (w *Workflow) advance(ctx context.Context, stage Stage, state *State) (Stage, *Step, error) {
	switch stage {
	case StageAnalyzing:
		gaps := w.analyst.Analyze(ctx, *state)
		state.MissingSkills = gaps.MissingSkills
		return StageDrafting, &Step{Stage: stage, Iteration: state.IterationCount, Outcome: gaps.Outcome}, nil

	case StageDrafting:
		draft := w.architect.Draft(ctx, *state)
		state.IterationCount = draft.IterationCount
		if draft.Outcome.Fallback && !state.Roadmap.IsEmpty() {
			w.log.Warn("revision failed, keeping the previous draft",
				zap.Int("iteration", state.IterationCount),
				zap.String("cause", string(draft.Outcome.Cause)),
			)
		} else {
			state.Roadmap = draft.Roadmap
		}
		return StageReviewing, &Step{Stage: stage, Iteration: state.IterationCount, Outcome: draft.Outcome}, nil

	case StageReviewing:
		review, err := w.reviewer.Review(ctx, *state)
		if err != nil {
			return "", nil, err
		}
		state.ReviewStatus = review.Status
		state.Feedback = review.Feedback
		return w.decide(*state), &Step{Stage: stage, Iteration: state.IterationCount, Outcome: review.Outcome}, nil

	case StageRejected:
		w.log.Info("roadmap rejected, requesting revision",
			zap.Int("revision", state.Revisions()+1),
			zap.Int("max_revisions", w.maxRevisions),
			zap.String("feedback", state.Feedback),
		)
		return StageDrafting, nil, nil
	}

	return "", nil, fmt.Errorf("no work defined for stage %s", stage)
}

// decide is the continuation policy applied after each review.
func (w *Workflow) decide(state State) Stage {
	if state.ReviewStatus == ReviewRejected && state.Revisions() < w.maxRevisions {
		return StageRejected
	}

	if state.ReviewStatus == ReviewRejected {
		w.log.Info("accepting rejected roadmap, revision budget spent",
			zap.Int("max_revisions", w.maxRevisions),
			zap.String("feedback", state.Feedback),
		)
	}

	return StageApproved
}
