package utils

import "testing"

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{name: "returns empty when limit non-positive", input: "hello world", limit: 0, expect: ""},
		{name: "shorter than limit", input: "hello", limit: 10, expect: "hello"},
		{name: "truncates and adds ellipsis", input: "hello world", limit: 5, expect: "hello..."},
		{name: "trims surrounding whitespace", input: "  spaced  ", limit: 5, expect: "space..."},
		{name: "counts runes not bytes", input: "привет мир", limit: 6, expect: "привет..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestClip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		limit  int
		expect string
	}{
		{input: "abcdef", limit: 3, expect: "abc"},
		{input: "abc", limit: 5, expect: "abc"},
		{input: "abc", limit: 0, expect: ""},
		{input: "  keeps space", limit: 4, expect: "  ke"},
	}

	for _, tt := range tests {
		if got := Clip(tt.input, tt.limit); got != tt.expect {
			t.Fatalf("Clip(%q, %d) = %q, want %q", tt.input, tt.limit, got, tt.expect)
		}
	}
}

func TestFill(t *testing.T) {
	t.Parallel()

	got := Fill("Role: {{TITLE}}\nSkills: {{SKILLS}}\n{{UNKNOWN}}", map[string]string{
		"TITLE":  "SRE",
		"SKILLS": "Go, {{TITLE}}",
	})

	want := "Role: SRE\nSkills: Go, {{TITLE}}\n{{UNKNOWN}}"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
