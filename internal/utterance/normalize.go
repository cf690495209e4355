// Package utterance cleans up recognizer transcripts before matching.
package utterance

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalize trims raw, lowercases it and collapses every run of
// whitespace into a single space. Empty input yields "".
func Normalize(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	return cases.Lower(language.Und).String(strings.Join(fields, " "))
}

// Tokens splits an already normalized phrase on spaces.
func Tokens(s string) []string {
	return strings.Fields(s)
}
