// Package ingest decodes the wire format smart-meter readings arrive
// in — over HTTP, Kafka, or an MQTT bridge — and feeds them into the
// state store. The wire decoder accepts the same loose, multi-format
// timestamp/number encoding the reference family's aggregator does
// (internal/readings.go, internal/utils.go), since a smart-meter
// gateway is not guaranteed to send strict types.
package ingest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nrg-champ/voltage-quality/internal/voltage"
)

// wireReading is the loosely-typed JSON shape a reading arrives as.
type wireReading struct {
	Timestamp any `json:"ts"`
	V1        any `json:"v1"`
	V2        any `json:"v2"`
	V3        any `json:"v3"`
}

// toReading validates and converts a wireReading into a voltage.Reading.
func (w wireReading) toReading() (voltage.Reading, error) {
	ts, err := toTime(w.Timestamp)
	if err != nil {
		return voltage.Reading{}, fmt.Errorf("invalid ts: %w", err)
	}
	v1, err := toFloat(w.V1)
	if err != nil {
		return voltage.Reading{}, fmt.Errorf("invalid v1: %w", err)
	}
	v2, err := toFloat(w.V2)
	if err != nil {
		return voltage.Reading{}, fmt.Errorf("invalid v2: %w", err)
	}
	v3, err := toFloat(w.V3)
	if err != nil {
		return voltage.Reading{}, fmt.Errorf("invalid v3: %w", err)
	}
	return voltage.Reading{Timestamp: ts, V1: v1, V2: v2, V3: v3}, nil
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case json.Number:
		return t.Float64()
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(t), 64)
	default:
		return 0, fmt.Errorf("cannot parse float from %T", v)
	}
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case string:
		if ts, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return ts, nil
		}
		if ts, err := time.Parse(time.RFC3339, t); err == nil {
			return ts, nil
		}
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return unixFromMagnitude(n), nil
		}
		return time.Time{}, fmt.Errorf("bad timestamp string: %q", t)
	case float64:
		return unixFromMagnitude(int64(t)), nil
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return time.Time{}, err
		}
		return unixFromMagnitude(n), nil
	case int64:
		return unixFromMagnitude(t), nil
	default:
		return time.Time{}, fmt.Errorf("cannot parse time from %T", v)
	}
}

func unixFromMagnitude(n int64) time.Time {
	if n > 1_000_000_000_000 { // milliseconds
		return time.Unix(0, n*int64(time.Millisecond)).UTC()
	}
	return time.Unix(n, 0).UTC()
}
