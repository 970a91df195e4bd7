package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLayout = `{
  "metrics": {
    "DATE": {
      "bbox": [985, 41, 301, 116],
      "pattern": "((?:JANUARY|FEBRUARY|MARCH|APRIL|MAY|JUNE|JULY|AUGUST|SEPTEMBER|OCTOBER|NOVEMBER|DECEMBER)\\s+\\d{1,2},\\s*\\d{4})"
    },
    "SHOT_ID": {
      "bbox": [60, 175, 84, 81],
      "pattern": "#\\s*(\\d+)"
    },
    "DISTANCE_TO_PIN": {
      "bbox": [184, 396, 175, 148]
    },
    "CARRY": {
      "bbox": [147, 705, 252, 145],
      "expect_decimal": true
    },
    "FROM_PIN": {
      "bbox": [188, 982, 170, 136]
    },
    "STROKES_GAINED": {
      "bbox": [94, 1249, 323, 149],
      "expect_decimal": true
    },
    "YARDAGE_RANGE": {
      "bbox": [1783, 525, 150, 60],
      "pattern": "(\\d+-\\d+)\\s*(?:yards?|yds?)?"
    }
  }
}`

func TestParseMetricSet(t *testing.T) {
	set, err := ParseMetricSet([]byte(sampleLayout))
	require.NoError(t, err)

	assert.Equal(t, 7, set.Len())

	// Document order is preserved, not sorted.
	assert.Equal(t, []string{
		"DATE", "SHOT_ID", "DISTANCE_TO_PIN", "CARRY",
		"FROM_PIN", "STROKES_GAINED", "YARDAGE_RANGE",
	}, set.Names())

	carry, ok := set.Get("CARRY")
	require.True(t, ok)
	assert.True(t, carry.ExpectDecimal)
	assert.Equal(t, Region{X: 147, Y: 705, Width: 252, Height: 145}, carry.Region())

	cx, cy := carry.Region().Center()
	assert.InDelta(t, 126.0, cx, 1e-9)
	assert.InDelta(t, 72.5, cy, 1e-9)

	// Patterns compile for pattern metrics only.
	require.NotNil(t, set.Pattern("SHOT_ID"))
	assert.Nil(t, set.Pattern("CARRY"))
	assert.Equal(t, "15", set.Pattern("SHOT_ID").FindStringSubmatch("#15")[1])
}

func TestParseMetricSet_InvalidJSON(t *testing.T) {
	_, err := ParseMetricSet([]byte(`{"metrics": `))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestParseMetricSet_ValidationFailurePropagates(t *testing.T) {
	_, err := ParseMetricSet([]byte(`{"metrics": {"CARRY": {"bbox": [0, 0, 100, 50]}}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DISTANCE_TO_PIN")
}

func TestLoadMetricSet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleLayout), 0o600))

	set, err := LoadMetricSet(path)
	require.NoError(t, err)
	assert.Equal(t, 7, set.Len())
}

func TestLoadMetricSet_MissingFile(t *testing.T) {
	_, err := LoadMetricSet(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestMetricConfig_HasRegion(t *testing.T) {
	assert.False(t, MetricConfig{}.HasRegion())
	assert.True(t, MetricConfig{BBox: []float64{1, 2, 3, 4}}.HasRegion())
	assert.Equal(t, Region{}, MetricConfig{}.Region())
}
