// Package jobs turns web search results into job postings.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/careeros/internal/profile"
)

const (
	unknownTitle   = "Unknown Role"
	unknownCompany = "Unknown Company"
	unknownURL     = "#"
)

type Job struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	URL         string    `json:"url"`
	Skills      []string  `json:"skills"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// SearchResult is one hit returned by a web search for job postings.
type SearchResult struct {
	Title string `json:"title"`
	Href  string `json:"href"`
	Body  string `json:"body"`
}

// ReadResults decodes a JSON array of search results.
func ReadResults(r io.Reader) ([]SearchResult, error) {
	var results []SearchResult
	if err := json.NewDecoder(r).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode search results: %w", err)
	}
	return results, nil
}

// Known reports whether a posting URL is already stored.
type Known interface {
	JobExistsByURL(ctx context.Context, url string) (bool, error)
}

// Report counts what Import kept and skipped.
type Report struct {
	Total      int `json:"total"`
	Imported   int `json:"imported"`
	Duplicates int `json:"duplicates"`
	NoSkills   int `json:"no_skills"`
}

// Import converts results into jobs. Results whose URL repeats within the
// batch or is already known are skipped, as are postings without any
// recognisable skill in the body or, failing that, the title.
func Import(ctx context.Context, results []SearchResult, known Known, log *zap.Logger) ([]Job, Report, error) {
	if log == nil {
		log = zap.NewNop()
	}

	report := Report{Total: len(results)}
	seen := make(map[string]struct{}, len(results))
	out := make([]Job, 0, len(results))

	for _, res := range results {
		title := strings.TrimSpace(res.Title)
		if title == "" {
			title = unknownTitle
		}
		url := strings.TrimSpace(res.Href)
		if url == "" {
			url = unknownURL
		}

		if _, dup := seen[url]; dup {
			report.Duplicates++
			continue
		}
		seen[url] = struct{}{}

		if known != nil {
			exists, err := known.JobExistsByURL(ctx, url)
			if err != nil {
				return nil, report, fmt.Errorf("check job %q: %w", url, err)
			}
			if exists {
				log.Debug("skipping duplicate job", zap.String("title", title), zap.String("url", url))
				report.Duplicates++
				continue
			}
		}

		skills := profile.ExtractSkills(res.Body)
		if len(skills) == 0 {
			skills = profile.ExtractSkills(title)
		}
		if len(skills) == 0 {
			log.Debug("skipping job with no detected skills", zap.String("title", title))
			report.NoSkills++
			continue
		}

		out = append(out, Job{
			ID:          uuid.NewString(),
			Title:       title,
			Company:     CompanyFromTitle(title),
			URL:         url,
			Skills:      skills,
			Description: strings.TrimSpace(res.Body),
			CreatedAt:   time.Now().UTC(),
		})
	}

	report.Imported = len(out)
	return out, report, nil
}

// CompanyFromTitle reads the employer from titles like "Engineer at Acme | Site"
// or "Acme - Engineer".
func CompanyFromTitle(title string) string {
	if _, after, ok := strings.Cut(title, " at "); ok {
		company, _, _ := strings.Cut(after, " |")
		company, _, _ = strings.Cut(company, " -")
		if company = strings.TrimSpace(company); company != "" {
			return company
		}
		return unknownCompany
	}

	if before, _, ok := strings.Cut(title, "-"); ok {
		if company := strings.TrimSpace(before); company != "" {
			return company
		}
	}

	return unknownCompany
}
