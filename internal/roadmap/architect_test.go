package roadmap

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func gapState(missing ...string) State {
	s := NewState([]string{"Python"}, "Backend Engineer", "Python, Docker, Kubernetes, AWS")
	s.MissingSkills = missing
	return s
}

func TestDraftGapClosingRoadmap(t *testing.T) {
	gw := newStub(nil, []reply{ok(backendRoadmap)}, nil)
	architect := NewArchitect(gw, zap.NewNop(), 0)

	draft := architect.Draft(context.Background(), gapState("Docker", "Kubernetes", "AWS"))

	if draft.Outcome.Fallback {
		t.Fatalf("unexpected fallback: %+v", draft.Outcome)
	}
	if draft.Mastery {
		t.Fatal("expected gap-closing branch")
	}
	if draft.IterationCount != 1 {
		t.Fatalf("expected iteration 1, got %d", draft.IterationCount)
	}

	wantPhases := []string{PhaseFoundations, PhaseFoundations, PhaseCoreCompetency, PhaseMastery}
	if len(draft.Roadmap.Nodes) != len(wantPhases) {
		t.Fatalf("expected %d nodes, got %d", len(wantPhases), len(draft.Roadmap.Nodes))
	}
	for i, n := range draft.Roadmap.Nodes {
		if n.Phase != wantPhases[i] {
			t.Fatalf("node %s: expected phase %q, got %q", n.ID, wantPhases[i], n.Phase)
		}
		if n.Status != "pending" {
			t.Fatalf("node %s: expected pending status, got %q", n.ID, n.Status)
		}
	}
	if got := draft.Roadmap.Nodes[1].Week; got != "2" {
		t.Fatalf("expected numeric week to decode as \"2\", got %q", got)
	}
	if got := len(draft.Roadmap.PhaseNames()); got != 3 {
		t.Fatalf("expected exactly 3 phases, got %v", draft.Roadmap.PhaseNames())
	}

	prompt := gw.prompt(AgentArchitect, 0)
	if !strings.Contains(prompt, "Docker, Kubernetes, AWS") || !strings.Contains(prompt, "Target Role: Backend Engineer") {
		t.Fatalf("prompt missing context:\n%s", prompt)
	}
	if strings.Contains(prompt, "Previous Feedback") {
		t.Fatalf("first draft must not carry feedback:\n%s", prompt)
	}
}

func TestDraftIncludesFeedbackVerbatim(t *testing.T) {
	gw := newStub(nil, []reply{ok(backendRoadmap)}, nil)
	architect := NewArchitect(gw, zap.NewNop(), 0)

	state := gapState("Kubernetes")
	state.IterationCount = 1
	state.Feedback = "Split \"Kubernetes\" into networking and storage steps."

	draft := architect.Draft(context.Background(), state)

	if draft.IterationCount != 2 {
		t.Fatalf("expected iteration 2, got %d", draft.IterationCount)
	}
	if !strings.Contains(gw.prompt(AgentArchitect, 0), state.Feedback) {
		t.Fatalf("feedback not included verbatim:\n%s", gw.prompt(AgentArchitect, 0))
	}
}

func TestDraftMasteryBranch(t *testing.T) {
	gw := newStub(nil, []reply{ok(masteryRoadmap)}, nil)
	architect := NewArchitect(gw, zap.NewNop(), 0)

	draft := architect.Draft(context.Background(), gapState())

	if !draft.Mastery {
		t.Fatal("expected mastery branch for empty gap list")
	}
	prompt := gw.prompt(AgentArchitect, 0)
	if !strings.Contains(prompt, "Mastery & Interview Prep") || !strings.Contains(prompt, "Backend Engineer role") {
		t.Fatalf("unexpected mastery prompt:\n%s", prompt)
	}
	if strings.Contains(prompt, "Foundations") {
		t.Fatalf("mastery prompt must not ask for foundational phases:\n%s", prompt)
	}

	for _, n := range draft.Roadmap.Nodes {
		if n.Phase != PhaseMastery {
			t.Fatalf("expected mastery phase, got %q", n.Phase)
		}
	}
	labels := strings.ToLower(strings.Join(draft.Roadmap.Labels(), " "))
	if !strings.Contains(labels, "system design") || !strings.Contains(labels, "interview") {
		t.Fatalf("unexpected labels: %v", draft.Roadmap.Labels())
	}
}

func TestDraftFallsBackToEmptyRoadmap(t *testing.T) {
	tests := []struct {
		name  string
		reply reply
		cause Cause
	}{
		{name: "unparseable", reply: ok("Week 1: learn Docker"), cause: CauseParseFailure},
		{name: "gateway failure", reply: fail(errors.New("503")), cause: CauseGatewayFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			architect := NewArchitect(newStub(nil, []reply{tt.reply}, nil), zap.NewNop(), 0)

			state := gapState("Docker")
			state.IterationCount = 3
			draft := architect.Draft(context.Background(), state)

			if !draft.Outcome.Fallback || draft.Outcome.Cause != tt.cause {
				t.Fatalf("unexpected outcome: %+v", draft.Outcome)
			}
			if !draft.Roadmap.IsEmpty() || draft.Roadmap.Nodes == nil || draft.Roadmap.Edges == nil {
				t.Fatalf("expected empty, non-nil roadmap, got %#v", draft.Roadmap)
			}
			if draft.IterationCount != 4 {
				t.Fatalf("iteration must advance on failure, got %d", draft.IterationCount)
			}
		})
	}
}

func TestAssignPhasesByPosition(t *testing.T) {
	nodes := []Node{{Label: "a"}, {Label: "b", Phase: "bonus"}, {Label: "c"}, {Label: "d", Phase: "Phase 1"}, {Label: "e"}, {Label: "f"}}
	assignPhases(nodes, false)

	want := []string{PhaseFoundations, PhaseFoundations, PhaseCoreCompetency, PhaseFoundations, PhaseMastery, PhaseMastery}
	for i, n := range nodes {
		if n.Phase != want[i] {
			t.Fatalf("node %d: expected %q, got %q", i, want[i], n.Phase)
		}
	}
}

func TestCanonicalPhase(t *testing.T) {
	tests := []struct {
		label string
		want  string
		ok    bool
	}{
		{label: "Foundations", want: PhaseFoundations, ok: true},
		{label: "Phase 1: Foundations (Basics)", want: PhaseFoundations, ok: true},
		{label: "basics", want: PhaseFoundations, ok: true},
		{label: "Core Competency", want: PhaseCoreCompetency, ok: true},
		{label: "Intermediate", want: PhaseCoreCompetency, ok: true},
		{label: "phase 2", want: PhaseCoreCompetency, ok: true},
		{label: "Mastery (Advanced)", want: PhaseMastery, ok: true},
		{label: "3", want: PhaseMastery, ok: true},
		{label: "", ok: false},
		{label: "Bonus round", ok: false},
	}

	for _, tt := range tests {
		got, ok := CanonicalPhase(tt.label)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("CanonicalPhase(%q) = %q, %v; want %q, %v", tt.label, got, ok, tt.want, tt.ok)
		}
	}
}
