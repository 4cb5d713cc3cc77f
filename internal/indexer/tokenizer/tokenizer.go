// Package tokenizer splits lines of plain text into index words. A word is a
// run of ASCII letters, digits and apostrophes; surrounding apostrophes are
// trimmed and the result is lower-cased.
package tokenizer

import (
	"strings"
)

// Words returns the normalised words of line in the order they appear.
// Empty results (for example a lone apostrophe) are dropped.
func Words(line string) []string {
	fields := strings.FieldsFunc(line, isSeparator)
	words := make([]string, 0, len(fields))
	for _, field := range fields {
		word := Normalize(field)
		if word == "" {
			continue
		}
		words = append(words, word)
	}
	return words
}

// Normalize trims leading and trailing apostrophes and lower-cases word.
func Normalize(word string) string {
	return strings.ToLower(strings.Trim(word, "'"))
}

func isSeparator(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '\'':
		return false
	default:
		return true
	}
}
