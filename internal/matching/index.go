package matching

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/spigell/careeros/internal/jobs"
)

const defaultSearchSize = 100

// Index is an in-memory full-text index over job postings.
type Index struct {
	mu    sync.RWMutex
	index bleve.Index
	jobs  map[string]jobs.Job
}

func NewIndex() (*Index, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create job index: %w", err)
	}

	return &Index{index: idx, jobs: make(map[string]jobs.Job)}, nil
}

// Add indexes jobs that are not indexed yet and returns how many were added.
func (i *Index) Add(list []jobs.Job) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	batch := i.index.NewBatch()
	added := make([]jobs.Job, 0, len(list))
	for _, j := range list {
		if _, ok := i.jobs[j.ID]; ok {
			continue
		}
		if err := batch.Index(j.ID, document(j)); err != nil {
			return 0, fmt.Errorf("index job %s: %w", j.ID, err)
		}
		added = append(added, j)
	}

	if len(added) == 0 {
		return 0, nil
	}
	if err := i.index.Batch(batch); err != nil {
		return 0, fmt.Errorf("index jobs: %w", err)
	}
	for _, j := range added {
		i.jobs[j.ID] = j
	}

	return len(added), nil
}

func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.jobs)
}

// Search returns jobs mentioning any of the skills, best ranked first.
func (i *Index) Search(ctx context.Context, skills []string, size int) ([]jobs.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q := skillsQuery(skills)
	if q == nil {
		return []jobs.Job{}, nil
	}
	if size <= 0 {
		size = defaultSearchSize
	}

	req := bleve.NewSearchRequestOptions(q, size, 0, false)

	i.mu.RLock()
	defer i.mu.RUnlock()

	res, err := i.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search jobs: %w", err)
	}

	out := make([]jobs.Job, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if j, ok := i.jobs[hit.ID]; ok {
			out = append(out, j)
		}
	}
	return out, nil
}

func (i *Index) Close() error {
	return i.index.Close()
}

func document(j jobs.Job) map[string]interface{} {
	return map[string]interface{}{
		"title":   j.Title,
		"company": j.Company,
		"skills":  strings.Join(j.Skills, " "),
	}
}

// skillsQuery matches a skill in either the skills or the title field.
func skillsQuery(skills []string) query.Query {
	var queries []query.Query
	for _, skill := range skills {
		skill = strings.TrimSpace(skill)
		if skill == "" {
			continue
		}
		for _, field := range []string{"skills", "title"} {
			mq := bleve.NewMatchPhraseQuery(skill)
			mq.SetField(field)
			queries = append(queries, mq)
		}
	}

	if len(queries) == 0 {
		return nil
	}
	return bleve.NewDisjunctionQuery(queries...)
}
