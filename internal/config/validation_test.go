package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBBox() []any {
	return []any{float64(100), float64(200), float64(150), float64(80)}
}

func TestValidateBBox_Valid(t *testing.T) {
	tests := []struct {
		name string
		bbox any
	}{
		{"typical", validBBox()},
		{"zero origin", []any{float64(0), float64(0), float64(1), float64(1)}},
		{"float coordinates", []any{10.5, 20.25, 30.75, 40.5}},
		{"typed slice", []float64{985, 41, 301, 116}},
		{"at maximum extent", []any{float64(0), float64(0), float64(10000), float64(10000)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, ValidateBBox(tt.bbox, "CARRY"))
		})
	}
}

func TestValidateBBox_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		bbox    any
		wantMsg string
	}{
		{"not a list", "10,20,30,40", "must be a list"},
		{"nil", nil, "must be a list"},
		{"too short", []any{float64(1), float64(2), float64(3)}, "got 3 elements"},
		{"too long", []any{float64(1), float64(2), float64(3), float64(4), float64(5)}, "got 5 elements"},
		{"non-numeric x", []any{"10", float64(2), float64(3), float64(4)}, "x must be a number"},
		{"non-numeric height", []any{float64(1), float64(2), float64(3), true}, "height must be a number"},
		{"negative x", []any{float64(-10), float64(0), float64(100), float64(50)}, "x coordinate cannot be negative"},
		{"negative y", []any{float64(0), float64(-5), float64(100), float64(50)}, "y coordinate cannot be negative"},
		{"zero width", []any{float64(0), float64(0), float64(0), float64(50)}, "width must be positive"},
		{"negative height", []any{float64(0), float64(0), float64(100), float64(-1)}, "height must be positive"},
		{"x too large", []any{float64(10001), float64(0), float64(100), float64(50)}, "x coordinate too large"},
		{"width too large", []any{float64(0), float64(0), float64(10001), float64(50)}, "width too large"},
		{"extends beyond width", []any{float64(9000), float64(0), float64(1500), float64(50)}, "extends beyond reasonable image width"},
		{"extends beyond height", []any{float64(0), float64(9500), float64(100), float64(600)}, "extends beyond reasonable image height"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBBox(tt.bbox, "CARRY")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Contains(t, err.Error(), "CARRY")
		})
	}
}

func validDocument() map[string]any {
	metrics := make(map[string]any)
	for _, name := range RequiredMetrics {
		metrics[name] = map[string]any{"bbox": validBBox()}
	}
	return map[string]any{"metrics": metrics}
}

func TestValidateDocument_Valid(t *testing.T) {
	assert.NoError(t, ValidateDocument(validDocument()))
}

func TestValidateDocument_OptionalMetricsTolerated(t *testing.T) {
	doc := validDocument()
	metrics := doc["metrics"].(map[string]any)
	metrics["DATE"] = map[string]any{
		"bbox":    []any{float64(985), float64(41), float64(301), float64(116)},
		"pattern": `((?:JANUARY|FEBRUARY)\s+\d{1,2},\s*\d{4})`,
	}
	// Optional metric without a bbox is tolerated at this layer.
	metrics["NOTES"] = map[string]any{"expect_decimal": false}
	assert.NoError(t, ValidateDocument(doc))
}

func TestValidateDocument_MissingMetricsSection(t *testing.T) {
	err := ValidateDocument(map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'metrics' section")
}

func TestValidateDocument_MetricsNotMapping(t *testing.T) {
	err := ValidateDocument(map[string]any{"metrics": []any{"DISTANCE_TO_PIN"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a mapping")
}

func TestValidateDocument_MissingRequiredMetric(t *testing.T) {
	for _, name := range RequiredMetrics {
		doc := validDocument()
		delete(doc["metrics"].(map[string]any), name)

		err := ValidateDocument(doc)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing required metric")
		assert.Contains(t, err.Error(), name)
	}
}

func TestValidateDocument_RequiredMetricMissingBBox(t *testing.T) {
	doc := validDocument()
	doc["metrics"].(map[string]any)["CARRY"] = map[string]any{"expect_decimal": true}

	err := ValidateDocument(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing 'bbox' for metric: CARRY")
}

func TestValidateDocument_RequiredMetricNotMapping(t *testing.T) {
	doc := validDocument()
	doc["metrics"].(map[string]any)["CARRY"] = "not a mapping"

	err := ValidateDocument(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"CARRY" must be a mapping`)
}

func TestValidateDocument_InvalidBBoxPropagates(t *testing.T) {
	doc := validDocument()
	doc["metrics"].(map[string]any)["DISTANCE_TO_PIN"] = map[string]any{
		"bbox": []any{float64(-10), float64(0), float64(100), float64(50)},
	}

	err := ValidateDocument(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "x coordinate cannot be negative")
	assert.Contains(t, err.Error(), "DISTANCE_TO_PIN")
}

func TestValidateDocument_OptionalMetricInvalidBBox(t *testing.T) {
	doc := validDocument()
	doc["metrics"].(map[string]any)["YARDAGE_RANGE"] = map[string]any{
		"bbox": []any{float64(0), float64(0), float64(0), float64(60)},
	}

	err := ValidateDocument(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YARDAGE_RANGE")
	assert.Contains(t, err.Error(), "width must be positive")
}

func TestValidateDocument_PatternPolicy(t *testing.T) {
	t.Run("missing capture group rejected", func(t *testing.T) {
		doc := validDocument()
		doc["metrics"].(map[string]any)["SHOT_ID"] = map[string]any{
			"bbox":    validBBox(),
			"pattern": `#\s*\d+`,
		}
		err := ValidateDocument(doc)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "capturing group")
		assert.Contains(t, err.Error(), "SHOT_ID")
	})

	t.Run("non-compiling pattern rejected", func(t *testing.T) {
		doc := validDocument()
		doc["metrics"].(map[string]any)["SHOT_ID"] = map[string]any{
			"bbox":    validBBox(),
			"pattern": `#(\d+`,
		}
		err := ValidateDocument(doc)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid pattern")
	})

	t.Run("non-string pattern rejected", func(t *testing.T) {
		doc := validDocument()
		doc["metrics"].(map[string]any)["SHOT_ID"] = map[string]any{
			"bbox":    validBBox(),
			"pattern": 42,
		}
		err := ValidateDocument(doc)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be a string")
	})

	t.Run("valid pattern accepted", func(t *testing.T) {
		doc := validDocument()
		doc["metrics"].(map[string]any)["SHOT_ID"] = map[string]any{
			"bbox":    validBBox(),
			"pattern": `#\s*(\d+)`,
		}
		assert.NoError(t, ValidateDocument(doc))
	})
}
