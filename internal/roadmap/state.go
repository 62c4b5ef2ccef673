// Package roadmap generates personalised learning roadmaps with a fixed
// pipeline of model-backed agents: a gap analyst, a curriculum architect and
// a reviewer.
package roadmap

import (
	"errors"
	"strings"
)

var (
	// ErrValidation marks malformed caller input rejected before the workflow starts.
	ErrValidation = errors.New("validation failure")
	// ErrWorkflow marks a failure the workflow could not absorb with a default.
	ErrWorkflow = errors.New("workflow failure")
)

// ReviewStatus is the verdict written by the reviewer.
type ReviewStatus string

const (
	ReviewApproved ReviewStatus = "APPROVED"
	ReviewRejected ReviewStatus = "REJECTED"
)

// Canonical phase labels for gap-closing roadmaps.
const (
	PhaseFoundations    = "Foundations"
	PhaseCoreCompetency = "Core Competency"
	PhaseMastery        = "Mastery"
)

// Phases lists the canonical phases in learning order.
var Phases = []string{PhaseFoundations, PhaseCoreCompetency, PhaseMastery}

const defaultNodeStatus = "pending"

// Node is a single learning step.
type Node struct {
	ID          string `json:"id" yaml:"id"`
	Label       string `json:"label" yaml:"label"`
	Phase       string `json:"phase,omitempty" yaml:"phase,omitempty"`
	Week        string `json:"week,omitempty" yaml:"week,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Status      string `json:"status,omitempty" yaml:"status,omitempty"`
}

// Edge is a dependency between two nodes referenced by id.
type Edge struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// Roadmap is the artifact returned to callers.
type Roadmap struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

// IsEmpty reports whether the roadmap has no steps.
func (r Roadmap) IsEmpty() bool {
	return len(r.Nodes) == 0
}

// Labels returns node labels in order.
func (r Roadmap) Labels() []string {
	labels := make([]string, 0, len(r.Nodes))
	for _, n := range r.Nodes {
		labels = append(labels, n.Label)
	}
	return labels
}

// PhaseNames returns the distinct phases in order of first appearance.
func (r Roadmap) PhaseNames() []string {
	seen := make(map[string]struct{})
	var phases []string
	for _, n := range r.Nodes {
		if n.Phase == "" {
			continue
		}
		if _, ok := seen[n.Phase]; ok {
			continue
		}
		seen[n.Phase] = struct{}{}
		phases = append(phases, n.Phase)
	}
	return phases
}

// Clone returns a deep copy.
func (r Roadmap) Clone() Roadmap {
	return Roadmap{
		Nodes: append(make([]Node, 0, len(r.Nodes)), r.Nodes...),
		Edges: append(make([]Edge, 0, len(r.Edges)), r.Edges...),
	}
}

// State is the record threaded through one workflow run.
// UserSkills, JobTitle and JobSkills are set once and never rewritten.
type State struct {
	UserSkills     []string     `json:"user_skills" yaml:"user_skills"`
	JobTitle       string       `json:"job_title" yaml:"job_title"`
	JobSkills      string       `json:"job_skills" yaml:"job_skills"`
	MissingSkills  []string     `json:"missing_skills" yaml:"missing_skills"`
	Roadmap        Roadmap      `json:"roadmap" yaml:"roadmap"`
	Feedback       string       `json:"feedback" yaml:"feedback"`
	ReviewStatus   ReviewStatus `json:"review_status" yaml:"review_status"`
	IterationCount int          `json:"iteration_count" yaml:"iteration_count"`
}

// NewState builds a fresh state with trimmed inputs.
func NewState(userSkills []string, jobTitle, jobSkills string) State {
	skills := make([]string, 0, len(userSkills))
	for _, s := range userSkills {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, s)
		}
	}

	return State{
		UserSkills: skills,
		JobTitle:   strings.TrimSpace(jobTitle),
		JobSkills:  strings.TrimSpace(jobSkills),
		Roadmap:    Roadmap{Nodes: []Node{}, Edges: []Edge{}},
	}
}

// Revisions is the number of drafting passes after the first one.
func (s State) Revisions() int {
	if s.IterationCount <= 1 {
		return 0
	}
	return s.IterationCount - 1
}

// Cause explains why an agent substituted a default value.
type Cause string

const (
	CauseNone           Cause = ""
	CauseParseFailure   Cause = "parse_failure"
	CauseGatewayFailure Cause = "gateway_failure"
	CauseGatewayTimeout Cause = "gateway_timeout"
)

// Outcome records whether an agent used the model reply or a default.
type Outcome struct {
	Agent    string `json:"agent" yaml:"agent"`
	Fallback bool   `json:"fallback" yaml:"fallback"`
	Cause    Cause  `json:"cause,omitempty" yaml:"cause,omitempty"`
	Err      error  `json:"-" yaml:"-"`
}

func succeeded(agent string) Outcome {
	return Outcome{Agent: agent}
}

func fellBack(agent string, cause Cause, err error) Outcome {
	return Outcome{Agent: agent, Fallback: true, Cause: cause, Err: err}
}
