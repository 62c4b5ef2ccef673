// Package matching ranks stored jobs against a profile.
package matching

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/careeros/internal/jobs"
	"github.com/spigell/careeros/internal/profile"
)

const DefaultLimit = 20

// Match is a job ranked for a profile. Score is within 0..100.
type Match struct {
	JobID   string   `json:"job_id"`
	Title   string   `json:"title"`
	Company string   `json:"company"`
	Score   float64  `json:"score"`
	Skills  []string `json:"skills"`
	URL     string   `json:"url"`
}

// Source is the persistence the matcher reads from.
type Source interface {
	History
	Profile(ctx context.Context, id string) (*profile.Profile, error)
	Jobs(ctx context.Context) ([]jobs.Job, error)
}

type Options struct {
	Limit            int
	MinScore         float64
	ExcludeCompanies []string
	ExcludeFile      string
	IncludeApplied   bool
}

type Matcher struct {
	source Source
	index  *Index
	opts   Options
	log    *zap.Logger
}

func New(source Source, index *Index, opts Options, log *zap.Logger) *Matcher {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}

	return &Matcher{source: source, index: index, opts: opts, log: log}
}

// Find returns the best matches for a profile, highest score first.
// Jobs stored since the last call are indexed first.
func (m *Matcher) Find(ctx context.Context, profileID string) ([]Match, error) {
	p, err := m.source.Profile(ctx, profileID)
	if err != nil {
		return nil, err
	}

	if err := m.Refresh(ctx); err != nil {
		return nil, err
	}

	hits, err := m.index.Search(ctx, p.HardSkills, 0)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(hits))
	for _, j := range hits {
		matches = append(matches, Match{
			JobID:   j.ID,
			Title:   j.Title,
			Company: j.Company,
			Score:   Score(p.HardSkills, j.Skills),
			Skills:  j.Skills,
			URL:     j.URL,
		})
	}
	sort.SliceStable(matches, func(a, b int) bool { return matches[a].Score > matches[b].Score })

	matches, err = Run(ctx, m.log, m.Pipeline(profileID), matches)
	if err != nil {
		return nil, fmt.Errorf("filter matches: %w", err)
	}

	if len(matches) > m.opts.Limit {
		matches = matches[:m.opts.Limit]
	}

	m.log.Info("matches found",
		zap.String("profile_id", profileID),
		zap.Int("candidates", len(hits)),
		zap.Int("matches", len(matches)),
	)

	return matches, nil
}

// Pipeline returns the filter steps applied to the matches of a profile.
func (m *Matcher) Pipeline(profileID string) []Filter {
	steps := []Filter{
		NewDedup(),
		NewApplied(m.source, profileID, m.log),
		NewExcludeFile(m.opts.ExcludeFile, m.log),
		NewExcludedCompanies(m.opts.ExcludeCompanies),
		NewMinScore(m.opts.MinScore),
	}
	if m.opts.IncludeApplied {
		DisableByName(steps, "applied", includeAppliedMsg)
	}
	return steps
}

// Refresh indexes stored jobs that are not indexed yet.
func (m *Matcher) Refresh(ctx context.Context) error {
	stored, err := m.source.Jobs(ctx)
	if err != nil {
		return fmt.Errorf("load jobs: %w", err)
	}

	added, err := m.index.Add(stored)
	if err != nil {
		return err
	}
	if added > 0 {
		m.log.Debug("indexed jobs", zap.Int("added", added), zap.Int("total", m.index.Len()))
	}
	return nil
}

// Score is the skill overlap (Jaccard) of two skill sets scaled to 0..100
// and rounded to one decimal.
func Score(a, b []string) float64 {
	left := skillSet(a)
	right := skillSet(b)
	if len(left) == 0 || len(right) == 0 {
		return 0
	}

	common := 0
	for k := range left {
		if _, ok := right[k]; ok {
			common++
		}
	}
	union := len(left) + len(right) - common

	return math.Round(float64(common)/float64(union)*1000) / 10
}

func skillSet(skills []string) map[string]struct{} {
	set := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			set[s] = struct{}{}
		}
	}
	return set
}
