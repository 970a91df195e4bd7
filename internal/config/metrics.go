package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
)

// Region is an axis-aligned rectangle in image pixel coordinates defining
// where one metric's text appears. Created from a validated layout document
// at startup and immutable thereafter.
type Region struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the expected text center in crop-local coordinates.
func (r Region) Center() (float64, float64) {
	return r.Width / 2, r.Height / 2
}

// MetricConfig is the layout entry for one metric: its bounding box plus
// extraction hints.
type MetricConfig struct {
	BBox          []float64 `json:"bbox" mapstructure:"bbox" yaml:"bbox"`
	ExpectDecimal bool      `json:"expect_decimal" mapstructure:"expect_decimal" yaml:"expect_decimal"`
	Pattern       string    `json:"pattern,omitempty" mapstructure:"pattern" yaml:"pattern,omitempty"`
}

// HasRegion reports whether the metric defines a crop region. Optional
// metrics may omit it; they are tolerated by validation but skipped during
// extraction.
func (m MetricConfig) HasRegion() bool {
	return len(m.BBox) == 4
}

// Region converts the validated bbox into a Region value.
func (m MetricConfig) Region() Region {
	if !m.HasRegion() {
		return Region{}
	}
	return Region{X: m.BBox[0], Y: m.BBox[1], Width: m.BBox[2], Height: m.BBox[3]}
}

// MetricSet is a validated, immutable metric-layout document: the metric
// definitions in their declared order plus the compiled extraction patterns.
type MetricSet struct {
	order    []string
	defs     map[string]MetricConfig
	patterns map[string]*regexp.Regexp
}

// LoadMetricSet reads and validates the metric-layout document at path.
func LoadMetricSet(path string) (*MetricSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading metrics config: %w", err)
	}
	set, err := ParseMetricSet(data)
	if err != nil {
		return nil, fmt.Errorf("metrics config %s: %w", path, err)
	}
	return set, nil
}

// ParseMetricSet parses and validates a raw JSON layout document.
func ParseMetricSet(data []byte) (*MetricSet, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := ValidateDocument(doc); err != nil {
		return nil, err
	}

	var typed struct {
		Metrics map[string]MetricConfig `json:"metrics"`
	}
	if err := json.Unmarshal(data, &typed); err != nil {
		return nil, fmt.Errorf("decoding metrics: %w", err)
	}

	order, err := metricOrder(data)
	if err != nil {
		return nil, err
	}

	patterns := make(map[string]*regexp.Regexp)
	for name, def := range typed.Metrics {
		if def.Pattern == "" {
			continue
		}
		// Compilation already vetted by ValidateDocument.
		patterns[name] = regexp.MustCompile(def.Pattern)
	}

	return &MetricSet{
		order:    order,
		defs:     typed.Metrics,
		patterns: patterns,
	}, nil
}

// Names returns the metric names in document order.
func (s *MetricSet) Names() []string {
	return append([]string(nil), s.order...)
}

// Len returns the number of configured metrics.
func (s *MetricSet) Len() int {
	return len(s.order)
}

// Get returns the layout entry for a metric name.
func (s *MetricSet) Get(name string) (MetricConfig, bool) {
	def, ok := s.defs[name]
	return def, ok
}

// Pattern returns the compiled extraction pattern for a metric, or nil when
// the metric uses default numeric extraction.
func (s *MetricSet) Pattern(name string) *regexp.Regexp {
	return s.patterns[name]
}

// metricOrder extracts the metric names in their document order. A plain
// unmarshal into a Go map would lose it, and extraction iterates metrics in
// declared order so results and logs stay reproducible.
func metricOrder(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	if _, err := dec.Token(); err != nil { // opening brace of root object
		return nil, fmt.Errorf("decoding metrics: %w", err)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decoding metrics: %w", err)
		}
		key, _ := keyTok.(string)

		if key != "metrics" {
			if err := skipValue(dec); err != nil {
				return nil, fmt.Errorf("decoding metrics: %w", err)
			}
			continue
		}

		if _, err := dec.Token(); err != nil { // opening brace of metrics object
			return nil, fmt.Errorf("decoding metrics: %w", err)
		}
		var order []string
		for dec.More() {
			nameTok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("decoding metrics: %w", err)
			}
			name, _ := nameTok.(string)
			order = append(order, name)
			if err := skipValue(dec); err != nil {
				return nil, fmt.Errorf("decoding metrics: %w", err)
			}
		}
		return order, nil
	}

	return nil, errors.New("configuration must contain a 'metrics' section")
}

// skipValue consumes one JSON value, descending into containers.
func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); ok && (d == '{' || d == '[') {
		for dec.More() {
			if err := skipValue(dec); err != nil {
				return err
			}
		}
		_, err = dec.Token() // closing delimiter
		return err
	}
	return nil
}
