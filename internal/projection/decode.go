package projection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/roach88/climaql/internal/registry"
)

// Record is one row returned in shape or data mode.
type Record struct {
	Key        string         `json:"_key"`
	Distance   *float64       `json:"distance,omitempty"`
	Geometry   map[string]any `json:"geometry,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// AggregateResult is the single row returned by an aggregate mode, with the
// flat leaf values reassembled into the nested record shape.
//
// When no rows matched, Count is 0 and every value is nil: the engine's
// no-data value is passed through, never replaced by zero.
type AggregateResult struct {
	Count      int64          `json:"count"`
	Distance   *float64       `json:"distance,omitempty"`
	Properties map[string]any `json:"properties"`
}

// DecodeKeys decodes the rows of a key-mode query.
func DecodeKeys(rows []json.RawMessage) ([]string, error) {
	keys := make([]string, 0, len(rows))
	for i, row := range rows {
		var key string
		if err := json.Unmarshal(row, &key); err != nil {
			return nil, fmt.Errorf("row %d: decode key: %w", i, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// DecodeRecords decodes the rows of a shape- or data-mode query.
func DecodeRecords(rows []json.RawMessage) ([]Record, error) {
	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		var rec Record
		if err := json.Unmarshal(row, &rec); err != nil {
			return nil, fmt.Errorf("row %d: decode record: %w", i, err)
		}
		if rec.Key == "" {
			return nil, fmt.Errorf("row %d: record has no %s", i, FieldKey)
		}
		records = append(records, rec)
	}
	return records, nil
}

// DecodeAggregate decodes the result of an aggregate-mode query compiled
// from f and rebuilds the nested record through reg.
//
// Both forms of an empty match are accepted: no row at all, or one row with
// count 0. Leaves missing from the row are reported as nil.
func (f Fragment) DecodeAggregate(rows []json.RawMessage, reg *registry.Registry) (AggregateResult, error) {
	if f.Shape != ShapeAggregate {
		return AggregateResult{}, fmt.Errorf("%s mode does not produce an aggregate", f.Mode)
	}
	if len(rows) > 1 {
		return AggregateResult{}, fmt.Errorf("aggregate query returned %d rows, want at most 1", len(rows))
	}

	flat := make(map[string]any, len(f.Aggregates))
	for _, a := range f.Aggregates {
		flat[a.Key] = nil
	}

	var res AggregateResult
	if len(rows) == 1 {
		var row struct {
			Count    json.Number                `json:"count"`
			Distance *float64                   `json:"distance"`
			Values   map[string]json.RawMessage `json:"values"`
		}
		dec := json.NewDecoder(bytes.NewReader(rows[0]))
		dec.UseNumber()
		if err := dec.Decode(&row); err != nil {
			return AggregateResult{}, fmt.Errorf("decode aggregate row: %w", err)
		}

		count, err := parseCount(row.Count)
		if err != nil {
			return AggregateResult{}, err
		}
		res.Count = count
		res.Distance = row.Distance

		for key, raw := range row.Values {
			if _, ok := flat[key]; !ok {
				return AggregateResult{}, fmt.Errorf("aggregate row has unexpected key %q", key)
			}
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return AggregateResult{}, fmt.Errorf("decode aggregate %q: %w", key, err)
			}
			flat[key] = v
		}
	}

	props, err := reg.Rebuild(flat)
	if err != nil {
		return AggregateResult{}, fmt.Errorf("rebuild aggregate: %w", err)
	}
	res.Properties = props
	return res, nil
}

func parseCount(n json.Number) (int64, error) {
	if n == "" {
		return 0, nil
	}
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	// Some engines report counts as doubles.
	f, err := n.Float64()
	if err != nil || f < 0 || f != math.Trunc(f) {
		return 0, fmt.Errorf("invalid aggregate count %q", n)
	}
	return int64(f), nil
}
