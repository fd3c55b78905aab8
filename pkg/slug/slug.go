// Package slug derives filesystem-safe names from free-form text.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const maxLength = 50

// Make converts arbitrary text into a lowercase, hyphen-separated,
// length-bounded slug. The same input always yields the same slug.
// Empty or fully unrepresentable input falls back to "deck".
func Make(text string) string {
	decomposed := norm.NFKD.String(text)

	var b strings.Builder
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		r = unicode.ToLower(r)
		// Any non-alphanumeric run becomes a single separator.
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('-')
		}
	}

	s := b.String()
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	s = strings.Trim(s, "-")

	if runes := []rune(s); len(runes) > maxLength {
		s = strings.Trim(string(runes[:maxLength]), "-")
	}
	if s == "" {
		return "deck"
	}
	return s
}
