package nlu

import (
	"strings"

	"voxguide/internal/catalog"
	"voxguide/internal/utterance"
)

// Match is the outcome of looking an utterance up in the catalog. The zero
// value means nothing matched.
type Match struct {
	Command *catalog.Definition
	Index   int
	Pattern string
}

var NoMatch = Match{}

func (m Match) Found() bool { return m.Command != nil }

// Find returns the first definition, in catalog order, that has a pattern
// satisfying the normalized utterance.
func Find(u string, defs []catalog.Definition) Match {
	if u == "" {
		return NoMatch
	}

	for i := range defs {
		for _, p := range defs[i].Patterns {
			if Satisfies(u, p) {
				return Match{Command: &defs[i], Index: i, Pattern: p}
			}
		}
	}

	return NoMatch
}

// Satisfies reports whether pattern p matches utterance u: either u
// contains p, or u contains every word of p somewhere, in any order.
func Satisfies(u, p string) bool {
	if p == "" || u == "" {
		return false
	}
	if strings.Contains(u, p) {
		return true
	}

	words := utterance.Tokens(p)
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if !strings.Contains(u, w) {
			return false
		}
	}
	return true
}
