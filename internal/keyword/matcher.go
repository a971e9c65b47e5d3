// Package keyword implements case-insensitive phrase matching against
// transcribed text. Matching is pure: a Set is built once at startup and
// never mutated afterwards.
package keyword

import (
	"strings"
	"unicode"
)

// Set is an immutable, ordered list of keyword phrases. Phrases are stored
// normalized so matching reduces to substring checks.
type Set struct {
	phrases []string
}

// NewSet builds a Set from raw phrases. Each phrase is trimmed and
// normalized; empty phrases are dropped. Order is preserved.
func NewSet(phrases []string) *Set {
	normalized := make([]string, 0, len(phrases))
	for _, p := range phrases {
		n := Normalize(p)
		if n != "" {
			normalized = append(normalized, n)
		}
	}
	return &Set{phrases: normalized}
}

// Phrases returns a copy of the normalized phrases in configuration order.
func (s *Set) Phrases() []string {
	out := make([]string, len(s.phrases))
	copy(out, s.phrases)
	return out
}

// Len returns the number of phrases in the set.
func (s *Set) Len() int {
	return len(s.phrases)
}

// Match reports whether any phrase in the set occurs as a case-insensitive
// substring of the text. Empty or whitespace-only text never matches and
// short-circuits before any normalization work.
func (s *Set) Match(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	norm := Normalize(text)
	for _, phrase := range s.phrases {
		if strings.Contains(norm, phrase) {
			return true
		}
	}
	return false
}

// Normalize lowercases the text, replaces punctuation with spaces, and
// collapses runs of whitespace into single spaces. Speech-to-text output
// tends to add commas and sentence casing that must not break matching.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
