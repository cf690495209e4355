package utterance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"voxguide/internal/utterance"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"blank", " \t\n ", ""},
		{"trim", "  go home  ", "go home"},
		{"lower", "Open LIVE Vision", "open live vision"},
		{"collapse", "call \t  for\n\nhelp", "call for help"},
		{"apostrophe kept", "What's Around Me", "what's around me"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, utterance.Normalize(tc.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, s := range []string{"  Go   Home ", "VOLUME up", "x"} {
		once := utterance.Normalize(s)
		assert.Equal(t, once, utterance.Normalize(once))
	}
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"home", "page"}, utterance.Tokens("home page"))
	assert.Empty(t, utterance.Tokens(""))
}
