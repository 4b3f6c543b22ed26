package chunker

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// DefaultMinLength is the shortest text downstream models accept.
const DefaultMinLength = 50

// Normalize collapses whitespace runs to single spaces, trims the result and
// pads text shorter than minLen by repeating it. Empty input stays empty.
func Normalize(text string, minLen int) string {
	if minLen <= 0 {
		minLen = DefaultMinLength
	}
	s := strings.Join(strings.Fields(norm.NFC.String(text)), " ")
	if s == "" {
		return ""
	}
	base := s
	for utf8.RuneCountInString(s) < minLen {
		s = s + " " + base
	}
	return s
}

// WordCount returns the number of whitespace-delimited tokens in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
