// Package extract implements the candidate scoring and selection algorithm
// that disambiguates raw text-recognition output for a single metric region.
//
// A recognition pass over one cropped region may return zero, one or several
// text fragments, possibly noisy, overlapping or mis-ordered. Select ranks
// them and picks exactly one value. Two scoring modes exist and are kept as
// an explicit two-branch computation on purpose: mixing them would change
// ranking behavior and invalidate the calibrated constants below.
package extract

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

const (
	// decimalBonus is added to the distance score of a candidate whose
	// extracted value contains a decimal point when the metric expects one
	// (e.g. CARRY "39.5" should beat a slightly closer stray "39").
	decimalBonus = -10.0

	// confidenceScale converts a backend confidence in [0,1] into a
	// negative score so that higher confidence sorts first in pattern mode.
	confidenceScale = 100.0
)

var (
	digitRe  = regexp.MustCompile(`\d`)
	numberRe = regexp.MustCompile(`[+-]?\d+\.?\d*`)
)

// candidate is a scored extracted value competing to be the metric's result.
// Lower score is better.
type candidate struct {
	score      float64
	value      string
	confidence float64
}

// Select picks the single best textual value for one region from the raw
// recognition fragments.
//
// When pattern is non-nil, each fragment's trimmed text is searched for the
// pattern and the first capturing group becomes the value; non-matching
// fragments are discarded. Matching candidates are ranked purely by backend
// confidence (score = -confidence*100); geometry plays no role.
//
// When pattern is nil, fragments without any digit are discarded and the
// value is the first signed-number match in the trimmed text. An explicit
// '+' anywhere in the fragment is recovered onto the value if the number
// match lost it ("Score: +0.82" yields "+0.82"). Candidates are ranked by
// Euclidean distance between the fragment centroid and center, with
// decimalBonus applied when expectDecimal is set and the value contains a
// decimal point.
//
// The sort is stable: among exactly tied scores the fragment that appeared
// earliest in fragments wins. With no surviving candidate Select returns "".
//
// Patterns are expected to carry at least one capturing group; the
// configuration validator rejects those that do not. A match that still
// yields no group is skipped rather than treated as an error.
func Select(fragments []Fragment, center Point, expectDecimal bool, pattern *regexp.Regexp) string {
	candidates := make([]candidate, 0, len(fragments))

	for _, frag := range fragments {
		text := strings.TrimSpace(frag.Text)

		var value string
		if pattern != nil {
			m := pattern.FindStringSubmatch(text)
			if len(m) < 2 {
				continue
			}
			value = m[1]
		} else {
			if !digitRe.MatchString(text) {
				continue
			}
			value = numberRe.FindString(text)
			if value == "" {
				continue
			}
			if strings.Contains(text, "+") && !strings.HasPrefix(value, "+") {
				value = "+" + strings.TrimLeft(value, "+-")
			}
		}

		var score float64
		if pattern != nil {
			score = -frag.Confidence * confidenceScale
		} else {
			c := frag.Centroid()
			score = math.Hypot(c.X-center.X, c.Y-center.Y)
			if expectDecimal && strings.Contains(value, ".") {
				score += decimalBonus
			}
		}

		candidates = append(candidates, candidate{
			score:      score,
			value:      value,
			confidence: frag.Confidence,
		})
	}

	if len(candidates) == 0 {
		return ""
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score < candidates[j].score
	})
	return candidates[0].value
}
