// Package store persists profiles, jobs and application history in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/spigell/careeros/internal/jobs"
	"github.com/spigell/careeros/internal/profile"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	email       TEXT NOT NULL,
	phone       TEXT NOT NULL,
	skills      TEXT NOT NULL,
	summary     TEXT NOT NULL,
	resume_text TEXT NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS jobs (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	company     TEXT NOT NULL,
	url         TEXT NOT NULL UNIQUE,
	skills      TEXT NOT NULL,
	description TEXT NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS applications (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	profile_id TEXT NOT NULL REFERENCES profiles(id),
	job_id     TEXT NOT NULL,
	outcome    TEXT NOT NULL,
	reason     TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS applications_profile ON applications(profile_id);
`

// Application is one entry of a profile's application history.
type Application struct {
	ID        int64     `json:"id"`
	ProfileID string    `json:"profile_id"`
	JobID     string    `json:"job_id"`
	Outcome   string    `json:"outcome"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// ":memory:" keeps everything in process.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store path is required")
	}

	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("store: mkdir %s: %w", dir, err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	// SQLite: single writer; also keeps one shared in-memory database.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SaveProfile(ctx context.Context, p *profile.Profile) error {
	skills, err := encodeList(p.HardSkills)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, name, email, phone, skills, summary, resume_text, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name, email = excluded.email, phone = excluded.phone,
		   skills = excluded.skills, summary = excluded.summary, resume_text = excluded.resume_text`,
		p.ID, p.Name, p.Email, p.Phone, skills, p.Summary, p.Text, formatTime(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("store: save profile %s: %w", p.ID, err)
	}
	return nil
}

// Profile returns the profile with id or ErrNotFound.
func (s *Store) Profile(ctx context.Context, id string) (*profile.Profile, error) {
	var (
		p       profile.Profile
		skills  string
		created string
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, phone, skills, summary, resume_text, created_at FROM profiles WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &skills, &p.Summary, &p.Text, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: load profile %s: %w", id, err)
	}

	if p.HardSkills, err = decodeList(skills); err != nil {
		return nil, err
	}
	p.CreatedAt = parseTime(created)

	return &p, nil
}

// SaveJobs inserts jobs in one transaction.
func (s *Store) SaveJobs(ctx context.Context, list []jobs.Job) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO jobs (id, title, company, url, skills, description, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare job insert: %w", err)
	}
	defer stmt.Close()

	for _, j := range list {
		skills, err := encodeList(j.Skills)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, j.ID, j.Title, j.Company, j.URL, skills, j.Description, formatTime(j.CreatedAt)); err != nil {
			return fmt.Errorf("store: insert job %s: %w", j.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit jobs: %w", err)
	}
	return nil
}

func (s *Store) JobExistsByURL(ctx context.Context, url string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM jobs WHERE url = ?`, url).Scan(&n); err != nil {
		return false, fmt.Errorf("store: lookup job url: %w", err)
	}
	return n > 0, nil
}

// Job returns the job with id or ErrNotFound.
func (s *Store) Job(ctx context.Context, id string) (*jobs.Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, company, url, skills, description, created_at FROM jobs WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("store: load job %s: %w", id, err)
	}
	list, err := scanJobs(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	return &list[0], nil
}

// Jobs returns every stored job, oldest first.
func (s *Store) Jobs(ctx context.Context) ([]jobs.Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, company, url, skills, description, created_at FROM jobs ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("store: list jobs: %w", err)
	}
	return scanJobs(rows)
}

func scanJobs(rows *sql.Rows) ([]jobs.Job, error) {
	defer rows.Close()

	var out []jobs.Job
	for rows.Next() {
		var (
			j       jobs.Job
			skills  string
			created string
		)
		if err := rows.Scan(&j.ID, &j.Title, &j.Company, &j.URL, &skills, &j.Description, &created); err != nil {
			return nil, fmt.Errorf("store: scan job: %w", err)
		}
		var err error
		if j.Skills, err = decodeList(skills); err != nil {
			return nil, err
		}
		j.CreatedAt = parseTime(created)
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate jobs: %w", err)
	}
	return out, nil
}

// AddApplication appends an entry to the history of a profile.
func (s *Store) AddApplication(ctx context.Context, a Application) (int64, error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO applications (profile_id, job_id, outcome, reason, created_at) VALUES (?, ?, ?, ?, ?)`,
		a.ProfileID, a.JobID, a.Outcome, a.Reason, formatTime(a.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("store: add application: %w", err)
	}

	id, _ := res.LastInsertId()
	return id, nil
}

// Applications returns the history of a profile, oldest first.
func (s *Store) Applications(ctx context.Context, profileID string) ([]Application, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, profile_id, job_id, outcome, reason, created_at FROM applications WHERE profile_id = ? ORDER BY id`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list applications: %w", err)
	}
	defer rows.Close()

	var out []Application
	for rows.Next() {
		var (
			a       Application
			created string
		)
		if err := rows.Scan(&a.ID, &a.ProfileID, &a.JobID, &a.Outcome, &a.Reason, &created); err != nil {
			return nil, fmt.Errorf("store: scan application: %w", err)
		}
		a.CreatedAt = parseTime(created)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate applications: %w", err)
	}
	return out, nil
}

// AppliedJobIDs returns the set of job ids a profile has any history for.
func (s *Store) AppliedJobIDs(ctx context.Context, profileID string) (map[string]struct{}, error) {
	history, err := s.Applications(ctx, profileID)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]struct{}, len(history))
	for _, a := range history {
		ids[a.JobID] = struct{}{}
	}
	return ids, nil
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("store: encode list: %w", err)
	}
	return string(data), nil
}

func decodeList(data string) ([]string, error) {
	out := []string{}
	if data == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("store: decode list: %w", err)
	}
	return out, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
