// Package structured extracts a single JSON record from free-form model output.
//
// Models are asked to reply with one JSON object, but they often wrap it in
// markdown fences or conversational text. Extract tries, in order: the whole
// text, the first ```json fenced block, and the outermost brace-delimited
// substring. The first candidate that decodes into an object wins.
package structured

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// ErrParseFailure is matched by every error returned from Extract and Decode.
var ErrParseFailure = errors.New("parse failure")

// ParseError carries the original model text that could not be decoded.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return "structured output: no json record found"
	}
	return fmt.Sprintf("structured output: %v", e.Err)
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrParseFailure}
	}
	return []error{ErrParseFailure, e.Err}
}

var fencedJSON = regexp.MustCompile("(?s)```(?:json|JSON)\\s*(.*?)\\s*```")

// Extract returns the first JSON object found in raw.
func Extract(raw string) (map[string]any, error) {
	text := strings.TrimSpace(raw)

	var lastErr error
	for _, candidate := range candidates(text) {
		record, err := decodeObject(candidate)
		if err == nil {
			return record, nil
		}
		lastErr = err
	}

	return nil, &ParseError{Raw: raw, Err: lastErr}
}

// Decode extracts a record from raw and maps it onto out using json tags.
// Scalar mismatches such as a numeric "week" are converted where possible.
func Decode(raw string, out any) error {
	record, err := Extract(raw)
	if err != nil {
		return err
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}

	if err := decoder.Decode(record); err != nil {
		return &ParseError{Raw: raw, Err: err}
	}

	return nil
}

func candidates(text string) []string {
	out := []string{text}

	if match := fencedJSON.FindStringSubmatch(text); match != nil {
		out = append(out, match[1])
	}

	if block, ok := outermostObject(text); ok {
		out = append(out, block)
	}

	// Greedy fallback: first opening brace to last closing brace.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		out = append(out, text[start:end+1])
	}

	return out
}

func decodeObject(candidate string) (map[string]any, error) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return nil, errors.New("empty candidate")
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(candidate), &record); err != nil {
		return nil, err
	}
	if record == nil {
		return nil, errors.New("json value is not an object")
	}

	return record, nil
}

// outermostObject scans for the first '{' and returns the text up to its
// matching '}', ignoring braces inside string literals.
func outermostObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}

	return "", false
}
