// Package extract recovers structured JSON payloads from free-form LLM
// output. Model answers are routinely wrapped in prose or markdown fences,
// sometimes truncated. Every function here is total: a payload is either
// found or it is not, and the comma-ok result forces callers to handle the
// absent case.
package extract

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
)

// codeFenceRe strips markdown code fences from LLM output.
var codeFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// recordRe matches one-or-more brace-delimited records separated by commas.
// Fallback for answers where the surrounding array brackets were lost or
// never balanced.
var recordRe = regexp.MustCompile(`\{[^{}]*\}(?:\s*,\s*\{[^{}]*\})*`)

// ExtractArray scans text for the first balanced top-level JSON array and
// returns its parsed elements. The scan is greedy leftmost-outermost: the
// first '[' opens the candidate and the substring is captured when the
// nesting counter returns to zero. If that substring does not parse, a
// regex fallback looks for comma-separated brace-delimited records and
// wraps the first parseable match in an array.
//
// Known limitation: the nesting counter does not skip delimiters inside
// quoted string values, so a literal ']' in a field can desynchronize the
// scan. Preserved deliberately; see TestExtractArrayQuotedDelimiter.
func ExtractArray(text string) ([]any, bool) {
	text = stripFences(text)

	if candidate, ok := scanBalanced(text, '[', ']'); ok {
		var arr []any
		if err := json.Unmarshal([]byte(candidate), &arr); err == nil {
			return arr, true
		}
		slog.Debug("extract: balanced array candidate failed to parse",
			"len", len(candidate))
	}

	// Fallback: individual records without the enclosing brackets.
	for _, m := range recordRe.FindAllString(text, -1) {
		var arr []any
		if err := json.Unmarshal([]byte("["+m+"]"), &arr); err == nil {
			return arr, true
		}
	}

	slog.Warn("extract: no JSON array found in response", "text_len", len(text))
	return nil, false
}

// ExtractObject scans text for the first balanced top-level JSON object and
// returns its parsed form. Symmetric to ExtractArray using '{'/'}'; as a
// last resort it slices between the first '{' and the last '}' in the text.
func ExtractObject(text string) (map[string]any, bool) {
	text = stripFences(text)

	if candidate, ok := scanBalanced(text, '{', '}'); ok {
		var obj map[string]any
		if err := json.Unmarshal([]byte(candidate), &obj); err == nil {
			return obj, true
		}
		slog.Debug("extract: balanced object candidate failed to parse",
			"len", len(candidate))
	}

	// Last resort: everything between the outermost braces.
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start >= 0 && end > start {
		var obj map[string]any
		if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err == nil {
			return obj, true
		}
	}

	slog.Warn("extract: no JSON object found in response", "text_len", len(text))
	return nil, false
}

// scanBalanced captures the substring from the first open delimiter to the
// position where the nesting count returns to zero. Returns false when the
// delimiters never balance (truncated output).
func scanBalanced(text string, opening, closing byte) (string, bool) {
	start := strings.IndexByte(text, opening)
	if start < 0 {
		return "", false
	}

	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case opening:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// stripFences removes a markdown code fence wrapper if present.
func stripFences(text string) string {
	if m := codeFenceRe.FindStringSubmatch(text); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}
