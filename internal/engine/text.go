package engine

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// cleanText normalizes recognized text to NFKC form and strips control
// runes. Recognition output occasionally contains full-width digits or
// stray control characters that would defeat the downstream numeric regexes.
func cleanText(s string) string {
	s = norm.NFKC.String(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
