package db

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeSkillName produces the canonical lookup key for a skill name:
// lowercase, diacritics stripped, runs of whitespace collapsed to one space.
// Skill names arrive from curriculum imports and from the generator sidecar
// with inconsistent casing and accents, so equality on the raw string is
// unreliable.
func NormalizeSkillName(name string) string {
	s := removeDiacritics(name)
	s = strings.ToLower(s)
	s = strings.Join(strings.Fields(s), " ")
	return s
}

func removeDiacritics(s string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)), // Mn: Mark, Nonspacing
		norm.NFC,
	)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}
