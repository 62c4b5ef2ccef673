package matching

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const includeAppliedMsg = "include-applied flag is set"

type dedupFilter struct{}

// NewDedup creates a filter that keeps the first match per title and company.
func NewDedup() Filter {
	return &dedupFilter{}
}

func (f *dedupFilter) Name() string { return "dedup" }

func (f *dedupFilter) Disable(string) {}

func (f *dedupFilter) IsEnabled() bool { return true }

func (f *dedupFilter) Validate() error { return nil }

func (f *dedupFilter) Apply(_ context.Context, matches []Match) ([]Match, Step, error) {
	seen := make(map[string]struct{}, len(matches))
	kept, dropped := keep(matches, func(m Match) bool {
		key := strings.ToLower(m.Title) + "\x00" + strings.ToLower(m.Company)
		if _, ok := seen[key]; ok {
			return false
		}
		seen[key] = struct{}{}
		return true
	})

	return kept, Step{Initial: len(matches), Dropped: len(dropped), Left: len(kept)}, nil
}

// History lists the jobs a profile already has an application outcome for.
type History interface {
	AppliedJobIDs(ctx context.Context, profileID string) (map[string]struct{}, error)
}

type appliedFilter struct {
	history   History
	profileID string
	log       *zap.Logger
	disabled  bool
	reason    string
}

// NewApplied creates a filter that removes jobs found in the application history of a profile.
func NewApplied(history History, profileID string, log *zap.Logger) Filter {
	if log == nil {
		log = zap.NewNop()
	}
	return &appliedFilter{history: history, profileID: profileID, log: log}
}

func (f *appliedFilter) Name() string { return "applied" }

func (f *appliedFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *appliedFilter) IsEnabled() bool { return !f.disabled }

func (f *appliedFilter) Validate() error {
	if f.history == nil {
		return fmt.Errorf("application history is required")
	}
	return nil
}

func (f *appliedFilter) Apply(ctx context.Context, matches []Match) ([]Match, Step, error) {
	applied, err := f.history.AppliedJobIDs(ctx, f.profileID)
	if err != nil {
		return matches, Step{}, fmt.Errorf("get application history: %w", err)
	}

	kept, dropped := keep(matches, func(m Match) bool {
		_, ok := applied[m.JobID]
		return !ok
	})
	if len(dropped) > 0 {
		f.log.Info("excluding jobs based on application history",
			zap.Strings("excluded_jobs", dropped),
			zap.Int("jobs_left", len(kept)),
		)
	}

	return kept, Step{Initial: len(matches), Dropped: len(dropped), Left: len(kept)}, nil
}

func (f *appliedFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"profile_id": f.profileID},
	}
}

type companiesFilter struct {
	companies map[string]struct{}
	names     []string
}

// NewExcludedCompanies creates a filter that removes jobs by configured companies.
func NewExcludedCompanies(companies []string) Filter {
	f := &companiesFilter{companies: make(map[string]struct{}, len(companies))}
	for _, c := range companies {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		f.companies[strings.ToLower(c)] = struct{}{}
		f.names = append(f.names, c)
	}
	return f
}

func (f *companiesFilter) Name() string { return "companies" }

func (f *companiesFilter) Disable(string) {}

func (f *companiesFilter) IsEnabled() bool { return true }

func (f *companiesFilter) Validate() error { return nil }

func (f *companiesFilter) Apply(_ context.Context, matches []Match) ([]Match, Step, error) {
	if len(f.companies) == 0 {
		return matches, Step{Initial: len(matches), Left: len(matches)}, nil
	}

	kept, dropped := keep(matches, func(m Match) bool {
		_, excluded := f.companies[strings.ToLower(strings.TrimSpace(m.Company))]
		return !excluded
	})

	return kept, Step{Initial: len(matches), Dropped: len(dropped), Left: len(kept)}, nil
}

func (f *companiesFilter) Status() Status {
	details := map[string]string{}
	if len(f.names) > 0 {
		details["companies"] = strings.Join(f.names, ",")
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}

type minScoreFilter struct {
	min float64
}

// NewMinScore creates a filter that removes matches scoring below minimum.
func NewMinScore(minimum float64) Filter {
	return &minScoreFilter{min: minimum}
}

func (f *minScoreFilter) Name() string { return "min_score" }

func (f *minScoreFilter) Disable(string) {}

func (f *minScoreFilter) IsEnabled() bool { return true }

func (f *minScoreFilter) Validate() error {
	if f.min < 0 || f.min > 100 {
		return fmt.Errorf("minimum score must be within 0..100, got %.1f", f.min)
	}
	return nil
}

func (f *minScoreFilter) Apply(_ context.Context, matches []Match) ([]Match, Step, error) {
	kept, dropped := keep(matches, func(m Match) bool { return m.Score >= f.min })
	return kept, Step{Initial: len(matches), Dropped: len(dropped), Left: len(kept)}, nil
}

func (f *minScoreFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: true,
		Details: map[string]string{"min_score": strconv.FormatFloat(f.min, 'f', 1, 64)},
	}
}
