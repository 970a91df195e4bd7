// Package testutil provides shared fixtures for tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// SampleLayout is a complete metric layout covering every required metric
// plus the optional pattern-based and range-based ones.
const SampleLayout = `{
  "metrics": {
    "DATE": {
      "bbox": [50, 40, 400, 60],
      "pattern": "((?:JANUARY|FEBRUARY|MARCH|APRIL|MAY|JUNE|JULY|AUGUST|SEPTEMBER|OCTOBER|NOVEMBER|DECEMBER)\\s+\\d{1,2},\\s*\\d{4})"
    },
    "SHOT_ID": {"bbox": [500, 40, 150, 60], "pattern": "#\\s*(\\d+)"},
    "DISTANCE_TO_PIN": {"bbox": [50, 120, 250, 120]},
    "CARRY": {"bbox": [320, 120, 250, 120]},
    "FROM_PIN": {"bbox": [590, 120, 250, 120], "expect_decimal": true},
    "STROKES_GAINED": {"bbox": [50, 260, 250, 120], "expect_decimal": true},
    "YARDAGE_RANGE": {
      "bbox": [320, 260, 300, 120],
      "pattern": "(\\d+-\\d+)\\s*(?:yards?|yds?)?"
    }
  }
}`

// WriteSampleLayout writes SampleLayout into a temp file and returns its
// path. The file is removed when the test finishes.
func WriteSampleLayout(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(SampleLayout), 0o600))
	return path
}
