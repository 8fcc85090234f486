package match

import (
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// joinMarkers separate collaborating artists or paired titles. They collapse
// to a single space rather than disappearing, so the surrounding tokens stay
// distinct.
var joinMarkers = []string{" x ", " vs ", " - "}

var (
	editionWords = regexp.MustCompile(`original mix|extended mix|radio edit|mixed|remastered|version`)
	creditClause = regexp.MustCompile(`\(?(ft\.|feat\.|prod\.|\(with).*\)|(ft\.|feat\.|prod\.).*`)
	charset      = regexp.MustCompile(`[^a-z0-9$!&?.'\- ]`)
)

// Normalize canonicalizes free-text track metadata into a comparable form.
//
// Steps, in order: transliterate to ASCII, lowercase, collapse join markers,
// drop edition/version words, drop featuring and production credit clauses,
// then restrict the character set. Marker and word removal must run before
// the character-set strip, which would otherwise destroy the parenthesis
// boundaries the credit clause relies on.
//
// The result may be empty. Callers must tolerate that.
func Normalize(text string) string {
	result := strings.ToLower(unidecode.Unidecode(text))
	for _, marker := range joinMarkers {
		result = strings.ReplaceAll(result, marker, " ")
	}
	result = editionWords.ReplaceAllString(result, "")
	result = creditClause.ReplaceAllString(result, "")
	result = charset.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}
