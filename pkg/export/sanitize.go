package export

import (
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// blank maps the characters that would break a TSV row to a space
var blank = runes.Map(func(r rune) rune {
	switch r {
	case ',', '"', '\'', '\r', '\n', '\t':
		return ' '
	}
	return r
})

// Sanitize makes free text safe for a single TSV field: the result is
// ASCII, on one line, and free of tabs, commas and quotes.
func Sanitize(s string) string {
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}

	ascii := unidecode.Unidecode(folded)

	clean, _, err := transform.String(transform.Chain(blank, runes.Remove(runes.In(unicode.Cc)), norm.NFD), ascii)
	if err != nil {
		return ascii
	}
	return clean
}
