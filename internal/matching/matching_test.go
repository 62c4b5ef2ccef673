package matching

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/careeros/internal/jobs"
	"github.com/spigell/careeros/internal/profile"
)

var errNoProfile = errors.New("not found")

type fakeSource struct {
	profiles   map[string]*profile.Profile
	jobs       []jobs.Job
	applied    map[string]struct{}
	historyErr error
}

func (s *fakeSource) Profile(_ context.Context, id string) (*profile.Profile, error) {
	p, ok := s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", id, errNoProfile)
	}
	return p, nil
}

func (s *fakeSource) Jobs(context.Context) ([]jobs.Job, error) {
	return s.jobs, nil
}

func (s *fakeSource) AppliedJobIDs(context.Context, string) (map[string]struct{}, error) {
	return s.applied, s.historyErr
}

func newSource() *fakeSource {
	return &fakeSource{
		profiles: map[string]*profile.Profile{
			"p-1": {ID: "p-1", HardSkills: []string{"Python", "Docker", "AWS"}},
		},
		jobs: []jobs.Job{
			{ID: "j1", Title: "Backend Engineer", Company: "Acme", Skills: []string{"Python", "Docker"}, URL: "https://acme/1"},
			{ID: "j2", Title: "backend engineer", Company: "acme", Skills: []string{"Python"}, URL: "https://acme/2"},
			{ID: "j3", Title: "Cloud Engineer", Company: "Initech", Skills: []string{"AWS", "Docker", "Python"}, URL: "https://initech/1"},
			{ID: "j4", Title: "Frontend Engineer", Company: "Hooli", Skills: []string{"React"}, URL: "https://hooli/1"},
			{ID: "j5", Title: "Data Engineer", Company: "Umbrella", Skills: []string{"Python", "Spark"}, URL: "https://umbrella/1"},
			{ID: "j6", Title: "DevOps Engineer", Company: "Globex", Skills: []string{"Docker"}, URL: "https://globex/1"},
		},
		applied: map[string]struct{}{"j5": {}},
	}
}

func newMatcher(t *testing.T, src Source, opts Options) *Matcher {
	t.Helper()
	idx, err := NewIndex()
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return New(src, idx, opts, zap.NewNop())
}

func ids(matches []Match) []string {
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.JobID)
	}
	return out
}

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{name: "identical", a: []string{"Go", "SQL"}, b: []string{"sql", "go"}, want: 100},
		{name: "partial", a: []string{"Python", "Docker"}, b: []string{"python", "docker", "aws"}, want: 66.7},
		{name: "disjoint", a: []string{"Go"}, b: []string{"Rust"}, want: 0},
		{name: "empty", a: nil, b: []string{"Go"}, want: 0},
		{name: "duplicates ignored", a: []string{"Go", " go "}, b: []string{"Go", "Docker", "AWS"}, want: 33.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.a, tt.b))
		})
	}
}

func TestFind(t *testing.T) {
	src := newSource()
	m := newMatcher(t, src, Options{ExcludeCompanies: []string{"globex"}})

	matches, err := m.Find(context.Background(), "p-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"j3", "j1"}, ids(matches))
	assert.Equal(t, 100.0, matches[0].Score)
	assert.Equal(t, 66.7, matches[1].Score)
	assert.Equal(t, "https://acme/1", matches[1].URL)

	_, err = m.Find(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, len(src.jobs), m.index.Len(), "jobs are indexed once")
}

func TestFindOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{name: "include applied", opts: Options{IncludeApplied: true, ExcludeCompanies: []string{"Globex"}}, want: []string{"j3", "j1", "j5"}},
		{name: "min score", opts: Options{MinScore: 70}, want: []string{"j3"}},
		{name: "limit", opts: Options{Limit: 1}, want: []string{"j3"}},
		{name: "no company excludes", opts: Options{}, want: []string{"j3", "j1", "j6"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches, err := newMatcher(t, newSource(), tt.opts).Find(context.Background(), "p-1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(matches))
		})
	}
}

func TestFindErrors(t *testing.T) {
	src := newSource()
	m := newMatcher(t, src, Options{})

	_, err := m.Find(context.Background(), "missing")
	assert.ErrorIs(t, err, errNoProfile)

	src.historyErr = errors.New("database is locked")
	_, err = m.Find(context.Background(), "p-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "applied")

	_, err = newMatcher(t, src, Options{MinScore: 120}).Find(context.Background(), "p-1")
	assert.ErrorContains(t, err, "min_score")
}

func TestFindWithoutSkills(t *testing.T) {
	src := newSource()
	src.profiles["p-2"] = &profile.Profile{ID: "p-2", HardSkills: []string{}}

	matches, err := newMatcher(t, src, Options{}).Find(context.Background(), "p-2")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRunSkipsDisabledAndLogsAppliedExclusions(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	src := newSource()

	steps := []Filter{NewApplied(src, "p-1", zap.New(core)), NewMinScore(50)}
	matches := []Match{{JobID: "j5", Score: 90}, {JobID: "j1", Score: 40}, {JobID: "j3", Score: 60}}

	got, err := Run(context.Background(), nil, steps, matches)
	require.NoError(t, err)
	assert.Equal(t, []string{"j3"}, ids(got))
	assert.Equal(t, 1, logs.FilterMessage("excluding jobs based on application history").Len())

	DisableByName(steps, "applied", "manual")
	got, err = Run(context.Background(), nil, steps, matches)
	require.NoError(t, err)
	assert.Equal(t, []string{"j5", "j3"}, ids(got))

	statuses := Describe(steps)
	require.Len(t, statuses, 2)
	assert.False(t, statuses[0].Enabled)
	assert.Equal(t, "manual", statuses[0].Reason)
	assert.Equal(t, "50.0", statuses[1].Details["min_score"])
}

func TestDedupKeepsFirst(t *testing.T) {
	matches := []Match{
		{JobID: "a", Title: "Go Dev", Company: "Acme", Score: 80},
		{JobID: "b", Title: "GO DEV", Company: "ACME", Score: 90},
		{JobID: "c", Title: "Go Dev", Company: "Initech", Score: 70},
	}

	got, step, err := NewDedup().Apply(context.Background(), matches)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ids(got))
	assert.Equal(t, Step{Initial: 3, Dropped: 1, Left: 2}, step)
}

func TestExcludeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.txt")
	content := "# seen already\nj1\n\nhttps://jobs.example.com/42\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	core, logs := observer.New(zap.InfoLevel)
	matches := []Match{
		{JobID: "j1", URL: "https://jobs.example.com/1"},
		{JobID: "j2", URL: "https://jobs.example.com/42"},
		{JobID: "j3", URL: "https://jobs.example.com/3"},
	}

	got, step, err := NewExcludeFile(path, zap.New(core)).Apply(context.Background(), matches)
	require.NoError(t, err)
	assert.Equal(t, []string{"j3"}, ids(got))
	assert.Equal(t, Step{Initial: 3, Dropped: 2, Left: 1}, step)
	assert.Equal(t, 1, logs.FilterMessage("excluding jobs based on exclude file").Len())

	got, _, err = NewExcludeFile("", nil).Apply(context.Background(), matches)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	_, _, err = NewExcludeFile(filepath.Join(t.TempDir(), "missing"), nil).Apply(context.Background(), matches)
	assert.Error(t, err)
}
