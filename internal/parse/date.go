// Package parse contains the post-processing parsers applied to selected
// metric values: calendar-date normalization and yardage-range
// decomposition. Both are pure, never panic, and signal failure with empty
// results so callers can treat an unparseable value like an extraction miss.
package parse

import (
	"regexp"
	"strings"
)

// dateRe matches "MONTH D, YYYY" or "MONTH D,YYYY" anchored at the start of
// the (already uppercased) input. Trailing text is ignored; leading
// whitespace is not tolerated.
var dateRe = regexp.MustCompile(`^([A-Z]+)\s+(\d{1,2}),\s*(\d{4})`)

// monthNumbers maps full English month names to their two-digit numbers.
// Abbreviations are deliberately absent: "JUL" is a recognition artifact,
// not a date.
var monthNumbers = map[string]string{
	"JANUARY":   "01",
	"FEBRUARY":  "02",
	"MARCH":     "03",
	"APRIL":     "04",
	"MAY":       "05",
	"JUNE":      "06",
	"JULY":      "07",
	"AUGUST":    "08",
	"SEPTEMBER": "09",
	"OCTOBER":   "10",
	"NOVEMBER":  "11",
	"DECEMBER":  "12",
}

// NormalizeDate converts a recognized date phrase like "JULY 1, 2025" into
// its canonical 8-digit form "20250701". Matching is case-insensitive and
// anchored at the start of the input. It returns "" when the input is empty,
// does not match, or names an unknown month.
//
// No calendar validation is performed: "JULY 32, 2025" normalizes to
// "20250732". Garbage in, garbage out is the contract at this layer.
func NormalizeDate(text string) string {
	if text == "" {
		return ""
	}

	m := dateRe.FindStringSubmatch(strings.ToUpper(text))
	if m == nil {
		return ""
	}

	month, ok := monthNumbers[m[1]]
	if !ok {
		return ""
	}

	day := m[2]
	if len(day) == 1 {
		day = "0" + day
	}

	return m[3] + month + day
}
