// Package slug derives canonical URL path segments from region names.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// đ/Đ carry no combining mark, so NFD alone leaves them intact; the
// site's path segments are plain ASCII (da-nang, not đa-nang).
var stripMarks = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	runes.Map(func(r rune) rune {
		switch r {
		case 'đ':
			return 'd'
		case 'Đ':
			return 'D'
		}
		return r
	}),
)

// Make turns a human-readable region name into the path segment the
// directory site uses: diacritics stripped, lowercased, trimmed, any
// character outside letters/digits/whitespace/hyphen dropped, and each
// whitespace run collapsed to a single hyphen. Pure and idempotent;
// an empty input yields an empty output.
func Make(name string) string {
	s, _, err := transform.String(stripMarks, name)
	if err != nil {
		s = name
	}
	s = strings.TrimSpace(strings.ToLower(s))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '-' {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), "-")
}
