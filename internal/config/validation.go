package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
)

// MaxDimension is the generous upper bound for region coordinates and
// extents. Simulator screenshots are typically around 2048x1536; anything
// near this limit is a configuration mistake, not a bigger screen.
const MaxDimension = 10000

// RequiredMetrics are the metric names every layout document must define,
// in validation order.
var RequiredMetrics = []string{"DISTANCE_TO_PIN", "CARRY", "FROM_PIN", "STROKES_GAINED"}

// coordNames names bbox elements by position for error reporting.
var coordNames = [4]string{"x", "y", "width", "height"}

// ValidateBBox checks that a raw bbox document value is a geometrically sane
// [x, y, width, height] rectangle. It returns a descriptive error naming the
// metric and the offending field on the first violation found. Pure function
// of its inputs.
func ValidateBBox(bbox any, metricName string) error {
	vals, err := bboxNumbers(bbox, metricName)
	if err != nil {
		return err
	}
	x, y, width, height := vals[0], vals[1], vals[2], vals[3]

	if x < 0 {
		return fmt.Errorf("invalid bbox for %s: x coordinate cannot be negative, got %v", metricName, x)
	}
	if y < 0 {
		return fmt.Errorf("invalid bbox for %s: y coordinate cannot be negative, got %v", metricName, y)
	}

	if width <= 0 {
		return fmt.Errorf("invalid bbox for %s: width must be positive, got %v", metricName, width)
	}
	if height <= 0 {
		return fmt.Errorf("invalid bbox for %s: height must be positive, got %v", metricName, height)
	}

	if x > MaxDimension {
		return fmt.Errorf("invalid bbox for %s: x coordinate too large (%v > %v)", metricName, x, MaxDimension)
	}
	if y > MaxDimension {
		return fmt.Errorf("invalid bbox for %s: y coordinate too large (%v > %v)", metricName, y, MaxDimension)
	}
	if width > MaxDimension {
		return fmt.Errorf("invalid bbox for %s: width too large (%v > %v)", metricName, width, MaxDimension)
	}
	if height > MaxDimension {
		return fmt.Errorf("invalid bbox for %s: height too large (%v > %v)", metricName, height, MaxDimension)
	}

	if x+width > MaxDimension {
		return fmt.Errorf("invalid bbox for %s: bounding box extends beyond reasonable image width (x + width = %v > %v)",
			metricName, x+width, MaxDimension)
	}
	if y+height > MaxDimension {
		return fmt.Errorf("invalid bbox for %s: bounding box extends beyond reasonable image height (y + height = %v > %v)",
			metricName, y+height, MaxDimension)
	}

	return nil
}

// bboxNumbers coerces a raw bbox value into four numbers, rejecting
// non-sequences, wrong lengths and non-numeric elements with per-position
// messages.
func bboxNumbers(bbox any, metricName string) ([4]float64, error) {
	var out [4]float64

	switch v := bbox.(type) {
	case []float64:
		if len(v) != 4 {
			return out, bboxLengthError(metricName, len(v))
		}
		copy(out[:], v)
	case []any:
		if len(v) != 4 {
			return out, bboxLengthError(metricName, len(v))
		}
		for i, elem := range v {
			n, ok := asNumber(elem)
			if !ok {
				return out, fmt.Errorf("invalid bbox for %s: %s must be a number, got %T",
					metricName, coordNames[i], elem)
			}
			out[i] = n
		}
	default:
		return out, fmt.Errorf("invalid bbox for %s: must be a list, got %T", metricName, bbox)
	}

	return out, nil
}

func bboxLengthError(metricName string, got int) error {
	return fmt.Errorf("invalid bbox format for %s: must be [x, y, width, height], got %d elements",
		metricName, got)
}

// asNumber accepts the numeric types a JSON or YAML decoder may produce.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// ValidateDocument checks that a raw metric-layout document is structurally
// complete before the pipeline starts: a "metrics" mapping exists, every
// required metric is present with a valid bbox, and every entry (required or
// optional) is a mapping whose bbox and pattern, when present, are valid.
//
// It fails fast on the first violation: required metrics are checked in
// their declared order, then all metrics in name order for determinism.
// Optional metrics without a bbox are tolerated here; they simply yield no
// crop region downstream.
func ValidateDocument(doc map[string]any) error {
	raw, ok := doc["metrics"]
	if !ok {
		return errors.New("configuration must contain a 'metrics' section")
	}
	metrics, ok := raw.(map[string]any)
	if !ok {
		return errors.New("configuration 'metrics' section must be a mapping")
	}

	for _, name := range RequiredMetrics {
		entry, ok := metrics[name]
		if !ok {
			return fmt.Errorf("missing required metric in configuration: %s", name)
		}
		m, ok := entry.(map[string]any)
		if !ok {
			return fmt.Errorf("metric %q must be a mapping", name)
		}
		bbox, ok := m["bbox"]
		if !ok {
			return fmt.Errorf("missing 'bbox' for metric: %s", name)
		}
		if err := ValidateBBox(bbox, name); err != nil {
			return err
		}
	}

	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		m, ok := metrics[name].(map[string]any)
		if !ok {
			return fmt.Errorf("metric %q must be a mapping", name)
		}
		if bbox, ok := m["bbox"]; ok {
			if err := ValidateBBox(bbox, name); err != nil {
				return err
			}
		}
		if p, ok := m["pattern"]; ok {
			if err := validatePattern(p, name); err != nil {
				return err
			}
		}
	}

	return nil
}

// validatePattern enforces the capture-group policy at configuration time: a
// pattern must compile and carry at least one capturing group, since the
// selector extracts its value from the first group. Rejecting here keeps the
// scorer panic-free on every configured pattern.
func validatePattern(p any, metricName string) error {
	s, ok := p.(string)
	if !ok {
		return fmt.Errorf("pattern for metric %s must be a string, got %T", metricName, p)
	}
	re, err := regexp.Compile(s)
	if err != nil {
		return fmt.Errorf("invalid pattern for metric %s: %w", metricName, err)
	}
	if re.NumSubexp() == 0 {
		return fmt.Errorf("pattern for metric %s must contain at least one capturing group", metricName)
	}
	return nil
}
