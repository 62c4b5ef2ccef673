package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/careeros/internal/assist"
	"github.com/spigell/careeros/internal/feedback"
	"github.com/spigell/careeros/internal/matching"
	"github.com/spigell/careeros/internal/profile"
	"github.com/spigell/careeros/internal/roadmap"
	"github.com/spigell/careeros/internal/store"
)

type stubRoadmap struct {
	result *roadmap.Result
	err    error
	got    roadmap.Request
}

func (s *stubRoadmap) Generate(_ context.Context, req roadmap.Request) (*roadmap.Result, error) {
	s.got = req
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.result, s.err
}

type stubAssistant struct{}

func (stubAssistant) PostMortem(_ context.Context, req assist.PostMortemRequest) (assist.PostMortem, error) {
	if req.JobTitle == "" {
		return assist.PostMortem{}, fmt.Errorf("%w: job title is required", assist.ErrValidation)
	}
	return assist.PostMortem{RootCause: "no Kubernetes", CorrectiveAction: "learn it", Resources: []string{}}, nil
}

func (stubAssistant) Tailor(context.Context, assist.TailorRequest) (assist.Tailored, error) {
	return assist.DefaultTailored(), nil
}

func (stubAssistant) Audit(context.Context, assist.AuditRequest) (assist.Audit, error) {
	return assist.Audit{}, errors.New("boom")
}

type memProfiles struct {
	saved []*profile.Profile
}

func (m *memProfiles) SaveProfile(_ context.Context, p *profile.Profile) error {
	m.saved = append(m.saved, p)
	return nil
}

type stubMatches struct{}

func (stubMatches) Find(_ context.Context, id string) ([]matching.Match, error) {
	switch id {
	case "p-1":
		return []matching.Match{{JobID: "j-1", Title: "Go Dev", Company: "Acme", Score: 66.7}}, nil
	case "empty":
		return nil, nil
	default:
		return nil, fmt.Errorf("profile %s: %w", id, store.ErrNotFound)
	}
}

type stubFeedback struct{}

func (stubFeedback) Process(_ context.Context, req feedback.Request) (*feedback.Result, error) {
	if req.ProfileID != "p-1" {
		return nil, feedback.ErrProfileNotFound
	}
	return &feedback.Result{Status: feedback.StatusLogged, Outcome: req.Outcome}, nil
}

func approvedResult() *roadmap.Result {
	return &roadmap.Result{
		State: roadmap.State{
			Roadmap: roadmap.Roadmap{
				Nodes: []roadmap.Node{{ID: "1", Label: "Learn Docker", Phase: roadmap.PhaseFoundations}},
				Edges: []roadmap.Edge{},
			},
			ReviewStatus:   roadmap.ReviewApproved,
			IterationCount: 1,
		},
	}
}

func newTestServer(rm *stubRoadmap, profiles *memProfiles) *Server {
	return New(Deps{
		Roadmap:   rm,
		Assistant: stubAssistant{},
		Profiles:  profiles,
		Matches:   stubMatches{},
		Feedback:  stubFeedback{},
		Gatherer:  prometheus.NewRegistry(),
	})
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if strings.HasPrefix(strings.TrimSpace(body), "{") {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var out map[string]any
	if rec.Header().Get("Content-Type") != "" && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestHealth(t *testing.T) {
	rec, body := do(t, newTestServer(&stubRoadmap{}, &memProfiles{}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"status": "healthy", "service": "CareerOS"}, body)
}

func TestRoadmap(t *testing.T) {
	rm := &stubRoadmap{result: approvedResult()}
	s := newTestServer(rm, &memProfiles{})

	rec, body := do(t, s, http.MethodPost, "/api/v1/roadmap",
		`{"profile_skills": ["Python", "Docker"], "job_skills": "Python, Docker, Kubernetes, AWS", "job_title": "Backend Engineer"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"Python", "Docker"}, rm.got.UserSkills)
	assert.Equal(t, "Backend Engineer", rm.got.JobTitle)

	nodes, ok := body["nodes"].([]any)
	require.True(t, ok)
	require.Len(t, nodes, 1)
	assert.Equal(t, "Learn Docker", nodes[0].(map[string]any)["label"])
	assert.Equal(t, []any{}, body["edges"])
	assert.NotContains(t, body, "error")
}

func TestRoadmapErrors(t *testing.T) {
	tests := []struct {
		name   string
		stub   *stubRoadmap
		body   string
		status int
	}{
		{
			name:   "missing title",
			stub:   &stubRoadmap{},
			body:   `{"profile_skills": [], "job_skills": "Go"}`,
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "workflow failure",
			stub:   &stubRoadmap{err: fmt.Errorf("%w: reviewer: gateway failure", roadmap.ErrWorkflow)},
			body:   `{"profile_skills": [], "job_skills": "Go", "job_title": "Go Dev"}`,
			status: http.StatusBadGateway,
		},
		{
			name:   "malformed json",
			stub:   &stubRoadmap{},
			body:   `{"profile_skills": `,
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := do(t, newTestServer(tt.stub, &memProfiles{}), http.MethodPost, "/api/v1/roadmap", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, body["error"])
			assert.NotContains(t, body, "nodes")
		})
	}
}

func TestProfile(t *testing.T) {
	profiles := &memProfiles{}
	s := newTestServer(&stubRoadmap{}, profiles)

	rec, body := do(t, s, http.MethodPost, "/api/v1/profile", "Jane Doe\njane@example.com\nPython and Docker on AWS")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, profiles.saved, 1)
	assert.Equal(t, profiles.saved[0].ID, body["profile_id"])

	data := body["data"].(map[string]any)
	assert.Equal(t, "Jane Doe", data["name"])
	assert.Equal(t, []any{"AWS", "Docker", "Python"}, data["hard_skills"])

	rec, _ = do(t, s, http.MethodPost, "/api/v1/profile", "   ")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestMatches(t *testing.T) {
	s := newTestServer(&stubRoadmap{}, &memProfiles{})

	rec, body := do(t, s, http.MethodGet, "/api/v1/matches/p-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	matches := body["matches"].([]any)
	require.Len(t, matches, 1)
	assert.Equal(t, 66.7, matches[0].(map[string]any)["score"])

	rec, body = do(t, s, http.MethodGet, "/api/v1/matches/empty", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, body["matches"])

	rec, body = do(t, s, http.MethodGet, "/api/v1/matches/ghost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Profile not found", body["error"])
}

func TestFeedback(t *testing.T) {
	s := newTestServer(&stubRoadmap{}, &memProfiles{})

	rec, body := do(t, s, http.MethodPost, "/api/v1/feedback", `{"profile_id": "p-1", "job_id": "j-1", "outcome": "applied"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Feedback logged", body["status"])

	rec, body = do(t, s, http.MethodPost, "/api/v1/feedback", `{"profile_id": "p-9", "job_id": "j-1", "outcome": "applied"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Profile not found", body["error"])
}

func TestAssistants(t *testing.T) {
	s := newTestServer(&stubRoadmap{}, &memProfiles{})

	rec, body := do(t, s, http.MethodPost, "/api/v1/post-mortem", `{"job_title": "SRE", "user_skills": ["Go"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no Kubernetes", body["root_cause"])

	rec, _ = do(t, s, http.MethodPost, "/api/v1/post-mortem", `{"user_skills": ["Go"]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, body = do(t, s, http.MethodPost, "/api/v1/tailor", `{"job_title": "SRE", "user_skills": ["Go"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"Error generating tailored content."}, body["tailored_bullets"])

	rec, body = do(t, s, http.MethodPost, "/api/v1/audit", `{"resume_text": "Jane"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "assistant failed", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "careeros_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	s := New(Deps{Gatherer: reg})
	rec, _ := do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "careeros_test_total 1")
}
