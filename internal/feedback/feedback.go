// Package feedback records application outcomes and suggests roadmap updates.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/careeros/internal/profile"
	"github.com/spigell/careeros/internal/store"
)

const (
	StatusLogged = "Feedback logged"

	OutcomeRejected = "rejected"

	RoadmapSuggestion = "Roadmap update recommended based on feedback."
	ActionNewRoadmap  = "fetch_new_roadmap"
)

var (
	ErrProfileNotFound = errors.New("Profile not found")
	ErrValidation      = errors.New("validation failure")
)

// Store is the persistence feedback is written to.
type Store interface {
	Profile(ctx context.Context, id string) (*profile.Profile, error)
	AddApplication(ctx context.Context, a store.Application) (int64, error)
}

type Request struct {
	ProfileID string `json:"profile_id"`
	JobID     string `json:"job_id"`
	Outcome   string `json:"outcome"`
	Reason    string `json:"reason,omitempty"`
}

type Result struct {
	Status     string `json:"status"`
	Outcome    string `json:"outcome"`
	Suggestion string `json:"suggestion,omitempty"`
	Action     string `json:"action,omitempty"`
}

type Processor struct {
	store Store
	log   *zap.Logger
}

func New(s Store, log *zap.Logger) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{store: s, log: log}
}

// Process appends the outcome to the profile history. A rejection with a
// stated reason is answered with a roadmap update suggestion.
func (p *Processor) Process(ctx context.Context, req Request) (*Result, error) {
	req.ProfileID = strings.TrimSpace(req.ProfileID)
	req.JobID = strings.TrimSpace(req.JobID)
	req.Outcome = strings.TrimSpace(req.Outcome)
	req.Reason = strings.TrimSpace(req.Reason)

	if req.ProfileID == "" || req.JobID == "" || req.Outcome == "" {
		return nil, fmt.Errorf("%w: profile_id, job_id and outcome are required", ErrValidation)
	}

	if _, err := p.store.Profile(ctx, req.ProfileID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}

	if _, err := p.store.AddApplication(ctx, store.Application{
		ProfileID: req.ProfileID,
		JobID:     req.JobID,
		Outcome:   req.Outcome,
		Reason:    req.Reason,
	}); err != nil {
		return nil, fmt.Errorf("log feedback: %w", err)
	}

	res := &Result{Status: StatusLogged, Outcome: req.Outcome}
	if strings.EqualFold(req.Outcome, OutcomeRejected) && req.Reason != "" {
		res.Suggestion = RoadmapSuggestion
		res.Action = ActionNewRoadmap
	}

	p.log.Info("feedback logged",
		zap.String("profile_id", req.ProfileID),
		zap.String("job_id", req.JobID),
		zap.String("outcome", req.Outcome),
		zap.Bool("roadmap_suggested", res.Action != ""),
	)

	return res, nil
}
