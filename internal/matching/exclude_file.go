package matching

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

type excludeFileFilter struct {
	path string
	log  *zap.Logger
}

// NewExcludeFile creates a filter that removes jobs listed in a file.
// Each non-empty line holds a job id or a posting URL; lines starting with # are skipped.
func NewExcludeFile(path string, log *zap.Logger) Filter {
	if log == nil {
		log = zap.NewNop()
	}
	return &excludeFileFilter{path: strings.TrimSpace(path), log: log}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(string) {}

func (f *excludeFileFilter) IsEnabled() bool { return true }

func (f *excludeFileFilter) Validate() error { return nil }

func (f *excludeFileFilter) Apply(_ context.Context, matches []Match) ([]Match, Step, error) {
	if f.path == "" {
		return matches, Step{Initial: len(matches), Left: len(matches)}, nil
	}

	excluded, err := readExcluded(f.path)
	if err != nil {
		return matches, Step{}, fmt.Errorf("getting excluded jobs from file: %w", err)
	}

	kept, dropped := keep(matches, func(m Match) bool {
		_, byID := excluded[m.JobID]
		_, byURL := excluded[m.URL]
		return !byID && !byURL
	})
	if len(dropped) > 0 {
		f.log.Info("excluding jobs based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_jobs", dropped),
			zap.Int("jobs_left", len(kept)),
		)
	}

	return kept, Step{Initial: len(matches), Dropped: len(dropped), Left: len(kept)}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}

func readExcluded(path string) (map[string]struct{}, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	excluded := make(map[string]struct{})
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		excluded[line] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return excluded, nil
}
