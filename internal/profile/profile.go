// Package profile turns plain résumé text into a candidate profile.
package profile

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/spigell/careeros/internal/utils"
)

// NotFound is reported for contact details absent from the résumé.
const NotFound = "Not found"

const (
	defaultName  = "Candidate"
	summaryLimit = 200
)

// ErrEmptyText is returned when there is no résumé text to analyse.
var ErrEmptyText = errors.New("resume text is empty")

type Profile struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	HardSkills []string  `json:"hard_skills"`
	Summary    string    `json:"raw_text_summary"`
	CreatedAt  time.Time `json:"created_at"`
	// Text is the full résumé, kept for audits but not rendered.
	Text string `json:"-"`
}

var techKeywords = []string{
	"python", "java", "c++", "c#", "javascript", "typescript", "react", "angular", "vue", "node.js", "node",
	"django", "flask", "fastapi", "spring", "springboot", "hibernate", "dotnet", ".net", "golang",
	"aws", "azure", "gcp", "docker", "kubernetes", "jenkins", "terraform", "ansible",
	"sql", "mysql", "postgresql", "mongodb", "redis", "cassandra", "elasticsearch",
	"git", "github", "gitlab", "jira", "agile", "scrum",
	"machine learning", "deep learning", "nlp", "computervision", "tensorflow", "pytorch", "pandas", "numpy", "scikit-learn",
	"html", "css", "sass", "less", "bootstrap", "tailwind", "material-ui",
	"linux", "unix", "bash", "shell", "powershell",
	"rest", "graphql", "grpc", "microservices", "api",
	"flutter", "dart", "react native", "swift", "kotlin", "android", "ios",
	"figma", "adobe xd", "sketch",
}

var upperKeywords = map[string]bool{"aws": true, "sql": true, "api": true}

type keywordMatcher struct {
	keyword string
	display string
	re      *regexp.Regexp
}

// Keywords match as whole words: "java" does not match inside "javascript",
// and "c" in "c++" must not be followed by more symbol characters.
var keywordMatchers = func() []keywordMatcher {
	out := make([]keywordMatcher, 0, len(techKeywords))
	caser := cases.Title(language.English)
	for _, kw := range techKeywords {
		out = append(out, keywordMatcher{
			keyword: kw,
			display: displayName(caser, kw),
			re:      regexp.MustCompile(`(?:^|[^a-z0-9])` + regexp.QuoteMeta(kw) + `(?:$|[^a-z0-9+#])`),
		})
	}
	return out
}()

var (
	emailPattern = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	phonePattern = regexp.MustCompile(`[+(]?[0-9][0-9 .\-()]{8,}[0-9]`)
)

// ExtractSkills returns the known technical keywords found in text, in
// display form and sorted.
func ExtractSkills(text string) []string {
	lower := strings.ToLower(text)

	seen := make(map[string]struct{})
	skills := make([]string, 0)
	for _, m := range keywordMatchers {
		if !m.re.MatchString(lower) {
			continue
		}
		if _, ok := seen[m.display]; ok {
			continue
		}
		seen[m.display] = struct{}{}
		skills = append(skills, m.display)
	}

	sort.Strings(skills)
	return skills
}

// displayName runs once per keyword at init; a Caser is not safe for
// concurrent use.
func displayName(caser cases.Caser, keyword string) string {
	if upperKeywords[keyword] {
		return strings.ToUpper(keyword)
	}
	return caser.String(keyword)
}

// ExtractContacts returns the first e-mail address and phone number in text,
// or NotFound for each one missing.
func ExtractContacts(text string) (email, phone string) {
	email, phone = NotFound, NotFound
	if m := emailPattern.FindString(text); m != "" {
		email = m
	}
	if m := phonePattern.FindString(text); m != "" {
		phone = strings.TrimSpace(m)
	}
	return email, phone
}

// GuessName picks the candidate name from the first line that reads like one.
func GuessName(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		if !looksLikeName(line) {
			continue
		}
		return CleanName(line)
	}
	return defaultName
}

// CleanName collapses whitespace and keeps the first two words of names
// longer than three words.
func CleanName(name string) string {
	words := strings.Fields(name)
	switch {
	case len(words) == 0:
		return defaultName
	case len(words) > 3:
		return strings.Join(words[:2], " ")
	default:
		return strings.Join(words, " ")
	}
}

func looksLikeName(line string) bool {
	if strings.Contains(line, "@") || len(strings.Fields(line)) > 6 {
		return false
	}
	for _, r := range line {
		if unicode.IsDigit(r) || r == ':' || r == '/' {
			return false
		}
	}
	return true
}

// Build analyses résumé text into a new profile.
func Build(text string) (*Profile, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	email, phone := ExtractContacts(text)

	return &Profile{
		ID:         uuid.NewString(),
		Name:       GuessName(text),
		Email:      email,
		Phone:      phone,
		HardSkills: ExtractSkills(text),
		Summary:    utils.Clip(text, summaryLimit) + "...",
		CreatedAt:  time.Now().UTC(),
		Text:       text,
	}, nil
}
