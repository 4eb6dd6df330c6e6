package automaton

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxIDLength bounds generated identifiers.
const maxIDLength = 50

var (
	nonIDChars      = regexp.MustCompile(`[^a-z0-9]+`)
	multipleHyphens = regexp.MustCompile(`-+`)

	// accentStripper decomposes characters and drops combining marks, so
	// "réception" sanitizes to "reception".
	accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// SanitizeID turns arbitrary text into a clean identifier: accents
// stripped, lowercased, non-alphanumerics collapsed to single hyphens,
// length-bounded, never empty.
func SanitizeID(text string) string {
	if text == "" {
		return "default-id"
	}

	stripped, _, err := transform.String(accentStripper, text)
	if err != nil {
		stripped = text
	}

	s := strings.ToLower(stripped)
	s = nonIDChars.ReplaceAllString(s, "-")
	s = multipleHyphens.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > maxIDLength {
		s = strings.TrimRight(s[:maxIDLength], "-")
	}
	if s == "" {
		return "sanitized-id"
	}
	return s
}

// ValidID reports whether s is an already-sanitized identifier.
func ValidID(s string) bool {
	if s == "" || strings.HasPrefix(s, "-") || strings.HasSuffix(s, "-") ||
		strings.Contains(s, "--") {
		return false
	}
	for _, r := range s {
		if !(r == '-' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

// UniqueID sanitizes base and appends a numeric suffix until the result is
// absent from taken. The chosen id is recorded in taken.
func UniqueID(base string, taken map[string]bool) string {
	id := SanitizeID(base)
	if !taken[id] {
		taken[id] = true
		return id
	}
	for i := 1; ; i++ {
		candidate := id + "-" + strconv.Itoa(i)
		if !taken[candidate] {
			taken[candidate] = true
			return candidate
		}
	}
}
