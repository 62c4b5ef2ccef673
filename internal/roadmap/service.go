package roadmap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/spigell/careeros/internal/ai"
	"github.com/spigell/careeros/internal/logger"
)

// Request is the caller input for one roadmap.
type Request struct {
	UserSkills      []string `json:"profile_skills"`
	JobRequirements string   `json:"job_skills"`
	JobTitle        string   `json:"job_title"`
}

// Validate reports malformed input as ErrValidation.
func (r Request) Validate() error {
	if strings.TrimSpace(r.JobTitle) == "" {
		return fmt.Errorf("%w: job title is required", ErrValidation)
	}
	if strings.TrimSpace(r.JobRequirements) == "" {
		return fmt.Errorf("%w: job requirements are required", ErrValidation)
	}
	return nil
}

func (r Request) cacheKey() string {
	skills := make([]string, 0, len(r.UserSkills))
	for _, s := range r.UserSkills {
		if k := skillKey(s); k != "" {
			skills = append(skills, k)
		}
	}
	sort.Strings(skills)

	return strings.Join([]string{
		strings.Join(skills, ","),
		skillKey(r.JobTitle),
		strings.TrimSpace(r.JobRequirements),
	}, "\x1f")
}

// Payload is what external callers receive: a roadmap or an error message.
type Payload struct {
	Roadmap *Roadmap
	Error   string
}

// MarshalJSON renders {"nodes":[...],"edges":[...]} or {"error":"..."}.
func (p Payload) MarshalJSON() ([]byte, error) {
	if p.Error != "" {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{p.Error})
	}

	out := Roadmap{Nodes: []Node{}, Edges: []Edge{}}
	if p.Roadmap != nil {
		if p.Roadmap.Nodes != nil {
			out.Nodes = p.Roadmap.Nodes
		}
		if p.Roadmap.Edges != nil {
			out.Edges = p.Roadmap.Edges
		}
	}
	return json.Marshal(out)
}

// Service is the single entry point for roadmap generation.
type Service struct {
	workflow *Workflow
	cache    *lru.Cache[string, *Result]
	observer Observer
	log      *zap.Logger
}

func NewService(gateway ai.Gateway, log *zap.Logger, opts Options) (*Service, error) {
	if gateway == nil {
		return nil, errors.New("gateway is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}

	s := &Service{
		workflow: NewWorkflow(gateway, log, opts),
		observer: opts.Observer,
		log:      log,
	}

	if opts.CacheSize > 0 {
		cache, err := lru.New[string, *Result](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("create roadmap cache: %w", err)
		}
		s.cache = cache
	}

	return s, nil
}

// Generate validates req and runs the workflow to completion. Errors match
// ErrValidation or ErrWorkflow; a panic inside the workflow is reported as
// ErrWorkflow.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	log := logger.WithFields(s.log, zap.String(logger.FieldRequestID, uuid.NewString()))

	key := req.cacheKey()
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			log.Debug("roadmap served from cache", zap.String("job_title", req.JobTitle))
			return cloneResult(cached), nil
		}
	}

	log.Info("generating roadmap",
		zap.String("job_title", req.JobTitle),
		zap.Strings("user_skills", req.UserSkills),
	)

	result, err := s.run(ctx, log, NewState(req.UserSkills, req.JobTitle, req.JobRequirements))
	if err != nil {
		s.observer.ObserveWorkflow("error", 0)
		log.Error("roadmap generation failed", zap.Error(err))
		return nil, err
	}

	outcome := "approved"
	if len(result.Fallbacks()) > 0 {
		outcome = "degraded"
	}
	s.observer.ObserveWorkflow(outcome, result.State.IterationCount)

	log.Info("roadmap generated",
		zap.String("outcome", outcome),
		zap.Int("iterations", result.State.IterationCount),
		zap.Int("nodes", len(result.State.Roadmap.Nodes)),
	)

	if s.cache != nil && outcome == "approved" {
		s.cache.Add(key, cloneResult(result))
	}

	return result, nil
}

// GenerateRoadmap never returns an error: failures become Payload.Error.
func (s *Service) GenerateRoadmap(ctx context.Context, req Request) Payload {
	result, err := s.Generate(ctx, req)
	if err != nil {
		return Payload{Error: err.Error()}
	}
	roadmap := result.State.Roadmap
	return Payload{Roadmap: &roadmap}
}

func (s *Service) run(ctx context.Context, log *zap.Logger, state State) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("roadmap workflow panicked", zap.Any("panic", r), zap.Stack("stack"))
			result, err = nil, fmt.Errorf("%w: unexpected failure: %v", ErrWorkflow, r)
		}
	}()

	return s.workflow.WithLogger(log).Run(ctx, state)
}

func cloneResult(r *Result) *Result {
	out := *r
	out.State.UserSkills = append([]string(nil), r.State.UserSkills...)
	out.State.MissingSkills = append([]string(nil), r.State.MissingSkills...)
	out.State.Roadmap = r.State.Roadmap.Clone()
	out.Trace = append([]Step(nil), r.Trace...)
	return &out
}
