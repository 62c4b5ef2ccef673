package roadmap

import (
	"context"
	"strings"
	"sync"
)

type reply struct {
	text string
	err  error
}

func ok(text string) reply { return reply{text: text} }

func fail(err error) reply { return reply{err: err} }

// stubGateway answers each agent from its own script, routed by the prompt
// heading. The last scripted reply repeats once a script runs out.
type stubGateway struct {
	mu      sync.Mutex
	scripts map[string][]reply
	prompts map[string][]string
}

func newStub(analyst, architect, reviewer []reply) *stubGateway {
	return &stubGateway{
		scripts: map[string][]reply{
			AgentGapAnalyst: analyst,
			AgentArchitect:  architect,
			AgentReviewer:   reviewer,
		},
		prompts: make(map[string][]string),
	}
}

func (s *stubGateway) Invoke(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	agent := agentFor(prompt)
	s.prompts[agent] = append(s.prompts[agent], prompt)

	script := s.scripts[agent]
	if len(script) == 0 {
		return "{}", nil
	}

	idx := len(s.prompts[agent]) - 1
	if idx >= len(script) {
		idx = len(script) - 1
	}
	return script[idx].text, script[idx].err
}

func (s *stubGateway) calls(agent string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts[agent])
}

func (s *stubGateway) prompt(agent string, i int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompts[agent][i]
}

func agentFor(prompt string) string {
	switch {
	case strings.Contains(prompt, "Technical Career Analyst"):
		return AgentGapAnalyst
	case strings.Contains(prompt, "Senior Technical Reviewer"):
		return AgentReviewer
	default:
		return AgentArchitect
	}
}

type countingObserver struct {
	mu        sync.Mutex
	fallbacks map[string]int
	outcomes  map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{fallbacks: map[string]int{}, outcomes: map[string]int{}}
}

func (c *countingObserver) IncAgentFallback(agent, cause string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fallbacks[agent+"/"+cause]++
}

func (c *countingObserver) ObserveWorkflow(outcome string, _ int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes[outcome]++
}

const (
	backendGaps = "```json\n{\"missing_skills\": [\"Python\", \"Docker\", \"Kubernetes\", \"AWS\"]}\n```"

	backendRoadmap = `Here is your roadmap:
{
  "nodes": [
    {"id": "1", "label": "Learn Docker images and containers", "phase": "Phase 1: Foundations (Basics)", "week": "Week 1"},
    {"id": "2", "label": "Deploy services on AWS EC2 and S3", "phase": "Basics", "week": 2},
    {"id": "3", "label": "Run workloads with Kubernetes Deployments", "phase": "Core Competency (Intermediate)", "week": "Week 3"},
    {"id": "4", "label": "Harden Kubernetes clusters on AWS EKS", "phase": "Advanced", "week": "Week 5"}
  ],
  "edges": [
    {"source": "1", "target": "3"},
    {"source": "2", "target": "4"},
    {"source": "3", "target": "4"}
  ]
}
Good luck!`

	masteryRoadmap = `{"nodes": [
  {"id": "1", "label": "Advanced System Design", "status": "pending", "week": "Week 1"},
  {"id": "2", "label": "Behavioral Interview Preparation", "status": "pending", "week": "Week 2"}
], "edges": [{"source": "1", "target": "2"}]}`

	approve = `{"status": "APPROVE", "feedback": "Looks good"}`
	reject  = `{"status": "REJECT", "feedback": "Kubernetes is missing a hands-on step"}`
)
