package parse

import (
	"regexp"
	"strings"
)

// rangeRe finds the first integer range anywhere in the input. The digits-
// only form is deliberate: "30.5-50.7" matches only the "5-50" between the
// fractional digits, and spaced forms like "30 - 50" do not match at all.
var rangeRe = regexp.MustCompile(`\d+-\d+`)

// DecomposeRange splits a recognized yardage-range phrase like "30-50 yards"
// into its canonical range string and its bounds: ("30-50", "30", "50").
// All three results are empty when no range is present. Reversed ("50-30")
// and degenerate ("50-50") ranges pass through unvalidated.
func DecomposeRange(text string) (rangeStr, from, to string) {
	m := rangeRe.FindString(text)
	if m == "" {
		return "", "", ""
	}

	// The pattern guarantees exactly one hyphen with digits on both sides.
	parts := strings.SplitN(m, "-", 2)
	return m, parts[0], parts[1]
}
