// Package types contains the shared domain model for the alerting pipeline
package types

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/industriverse/capstream/errors"
	"github.com/industriverse/capstream/pkg/timestamp"
)

// Reading is one timestamped set of measurements from a single source.
// Readings are ephemeral: evaluated once against the rule set, retained only
// in the bounded per-source history, never persisted.
type Reading struct {
	SourceID  string         `json:"sourceId"`
	Metrics   map[string]any `json:"metrics"`
	Timestamp int64          `json:"timestamp"` // Unix milliseconds
}

// ParseReading decodes a JSON reading. Two shapes are accepted: the canonical
// form with a nested "metrics" object, and a flat form where every field
// other than sourceId and timestamp is treated as a metric. A missing
// timestamp is stamped with the arrival time.
func ParseReading(data []byte) (Reading, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Reading{}, errors.WrapInvalid(err, "Reading", "ParseReading", "decode reading")
	}

	reading := Reading{}

	if v, ok := raw["sourceId"].(string); ok {
		reading.SourceID = v
	}
	if reading.SourceID == "" {
		return Reading{}, errors.WrapInvalid(
			errors.ErrInvalidPayload, "Reading", "ParseReading", "reading missing sourceId")
	}

	if ts, ok := raw["timestamp"]; ok {
		reading.Timestamp = timestamp.Parse(ts)
	}
	if reading.Timestamp == 0 {
		reading.Timestamp = timestamp.Now()
	}

	if m, ok := raw["metrics"].(map[string]any); ok {
		reading.Metrics = m
		return reading, nil
	}

	metrics := make(map[string]any, len(raw))
	for k, v := range raw {
		if k == "sourceId" || k == "timestamp" {
			continue
		}
		metrics[k] = v
	}
	reading.Metrics = metrics
	return reading, nil
}

// Validate checks the structural requirements shared by all ingress paths.
func (r Reading) Validate() error {
	if r.SourceID == "" {
		return errors.WrapInvalid(
			errors.ErrInvalidPayload, "Reading", "Validate", "reading missing sourceId")
	}
	if err := timestamp.Validate(r.Timestamp); err != nil {
		return errors.WrapInvalid(err, "Reading", "Validate", "validate timestamp")
	}
	return nil
}

// NumericMetric returns the named metric coerced to float64. Numeric strings
// parse; any other non-numeric value reports false, as does an absent metric.
func (r Reading) NumericMetric(name string) (float64, bool) {
	v, ok := r.Metrics[name]
	if !ok {
		return 0, false
	}

	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
