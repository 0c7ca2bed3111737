// Package util provides common utility functions.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Username length bounds, counted in runes after normalization.
const (
	UsernameMinLength = 2
	UsernameMaxLength = 32
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeUsername returns the canonical form of a username:
// NFKC-normalized, trimmed, with internal whitespace collapsed to one space.
//
// Examples:
//
//	"  Ａlice  "       → "Alice"
//	"Jane\t\tDoe"     → "Jane Doe"
//	"émile"     → "émile"
func NormalizeUsername(input string) string {
	s := norm.NFKC.String(input)
	s = strings.TrimSpace(s)
	return whitespaceRe.ReplaceAllString(s, " ")
}

// ValidUsername reports whether a normalized username is acceptable:
// within the length bounds and free of control characters.
func ValidUsername(name string) bool {
	n := len([]rune(name))
	if n < UsernameMinLength || n > UsernameMaxLength {
		return false
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}
