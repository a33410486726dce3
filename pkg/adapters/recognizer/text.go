package recognizer

import (
	"strings"
	"unicode"
)

// normalize lowercases s and reduces it to space separated words.
func normalize(s string) string {
	return strings.Join(tokens(s), " ")
}

func tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
}

// containsPhrase reports whether phrase occurs in text on word boundaries.
// Both arguments must be normalized.
func containsPhrase(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(" "+text+" ", " "+phrase+" ")
}
