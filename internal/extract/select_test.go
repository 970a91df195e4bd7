package extract

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fragAt builds a fragment whose quad is a 10x10 square with the given
// top-left corner, so the centroid sits at (x+5, y+5).
func fragAt(text string, conf, x, y float64) Fragment {
	return Fragment{
		Quad:       QuadFromRect(x, y, x+10, y+10),
		Text:       text,
		Confidence: conf,
	}
}

func TestSelect_EmptyInput(t *testing.T) {
	assert.Empty(t, Select(nil, Point{X: 50, Y: 50}, false, nil))
	assert.Empty(t, Select([]Fragment{}, Point{X: 50, Y: 50}, false, nil))
}

func TestSelect_NoDigits_DefaultMode(t *testing.T) {
	frags := []Fragment{
		fragAt("CARRY", 0.99, 45, 45),
		fragAt("yards", 0.95, 45, 45),
		fragAt("---", 0.90, 45, 45),
	}
	assert.Empty(t, Select(frags, Point{X: 50, Y: 50}, false, nil))
}

func TestSelect_NumericExtraction(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"plain integer", "42", "42"},
		{"embedded integer", "42 yds", "42"},
		{"decimal", "39.5", "39.5"},
		{"negative", "-0.8", "-0.8"},
		{"explicit plus", "+0.22", "+0.22"},
		{"plus separated from digits", "Score: +0.82", "+0.82"},
		{"trailing dot accepted", "5.", "5."},
		{"label prefix", "DTP 118", "118"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frags := []Fragment{fragAt(tt.text, 0.9, 45, 45)}
			assert.Equal(t, tt.want, Select(frags, Point{X: 50, Y: 50}, false, nil))
		})
	}
}

func TestSelect_ProximityWins(t *testing.T) {
	// Closer centroid wins regardless of confidence in default mode.
	frags := []Fragment{
		fragAt("25", 0.95, 140, 140), // far
		fragAt("42", 0.85, 100, 100), // near
		fragAt("99", 0.90, 280, 280), // farther
	}
	got := Select(frags, Point{X: 100.0, Y: 100.0}, false, nil)
	assert.Equal(t, "42", got)
}

func TestSelect_StableOnTies(t *testing.T) {
	// Identical geometry yields identical scores; the earlier fragment must
	// win regardless of the later fragment's confidence.
	frags := []Fragment{
		fragAt("11", 0.10, 45, 45),
		fragAt("22", 0.99, 45, 45),
	}
	assert.Equal(t, "11", Select(frags, Point{X: 50, Y: 50}, false, nil))

	// Order swapped, the other value wins.
	frags[0], frags[1] = frags[1], frags[0]
	assert.Equal(t, "22", Select(frags, Point{X: 50, Y: 50}, false, nil))
}

func TestSelect_DecimalBonus(t *testing.T) {
	center := Point{X: 0, Y: 0}

	// Decimal fragment at distance d2 beats integer at d1 iff d2-10 < d1.
	integer := Fragment{Quad: QuadFromRect(-5, -5, 5, 5), Text: "39", Confidence: 0.9}   // d1 = 0
	decimal := Fragment{Quad: QuadFromRect(4, -5, 14, 5), Text: "39.5", Confidence: 0.9} // d2 = 9
	tooFar := Fragment{Quad: QuadFromRect(15, -5, 25, 5), Text: "39.5", Confidence: 0.9} // d2 = 20

	assert.Equal(t, "39.5", Select([]Fragment{integer, decimal}, center, true, nil))
	assert.Equal(t, "39", Select([]Fragment{integer, tooFar}, center, true, nil))

	// Without expectDecimal the bonus never applies.
	assert.Equal(t, "39", Select([]Fragment{integer, decimal}, center, false, nil))
}

func TestSelect_PatternMode(t *testing.T) {
	shotID := regexp.MustCompile(`#\s*(\d+)`)

	// Highest confidence wins irrespective of distance.
	frags := []Fragment{
		fragAt("#15", 0.7, 45, 45),   // near
		fragAt("#23", 0.9, 400, 400), // far
	}
	assert.Equal(t, "23", Select(frags, Point{X: 50, Y: 50}, false, shotID))
}

func TestSelect_PatternMode_NonMatchingDiscarded(t *testing.T) {
	shotID := regexp.MustCompile(`#\s*(\d+)`)
	frags := []Fragment{
		fragAt("Shot", 0.99, 45, 45),
		fragAt("# 7", 0.50, 45, 45),
	}
	assert.Equal(t, "7", Select(frags, Point{X: 50, Y: 50}, false, shotID))

	assert.Empty(t, Select([]Fragment{fragAt("Shot", 0.99, 45, 45)}, Point{X: 50, Y: 50}, false, shotID))
}

func TestSelect_PatternWithoutGroupSkipsFragment(t *testing.T) {
	// The config validator rejects group-less patterns up front; Select must
	// still not panic if one slips through.
	noGroup := regexp.MustCompile(`\d+`)
	frags := []Fragment{fragAt("42", 0.9, 45, 45)}
	assert.Empty(t, Select(frags, Point{X: 50, Y: 50}, false, noGroup))
}

func TestSelect_WhitespaceTrimmed(t *testing.T) {
	frags := []Fragment{fragAt("   42  ", 0.9, 45, 45)}
	assert.Equal(t, "42", Select(frags, Point{X: 50, Y: 50}, false, nil))
}

func TestFragment_Centroid(t *testing.T) {
	f := Fragment{Quad: QuadFromRect(0, 0, 10, 20)}
	c := f.Centroid()
	assert.InDelta(t, 5.0, c.X, 1e-9)
	assert.InDelta(t, 10.0, c.Y, 1e-9)
}
