package query

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/climaql/internal/ir"
	"github.com/roach88/climaql/internal/predicate"
	"github.com/roach88/climaql/internal/projection"
	"github.com/roach88/climaql/internal/registry"
)

// CompiledQuery is a self-contained AQL query: the text plus every bind
// variable it references. It is handed to the cursor API unchanged.
type CompiledQuery struct {
	Query    string         `json:"query"`
	BindVars map[string]any `json:"bindVars"`

	Shape        ResultShape     `json:"shape"`
	Mode         projection.Mode `json:"mode"`
	Predicate    predicate.Kind  `json:"predicate"`
	RequiresJoin bool            `json:"requiresJoin"`

	// Aggregates is the number of per-variable aggregates in the result;
	// zero for non-aggregate modes.
	Aggregates int `json:"aggregates"`

	projection projection.Fragment
}

// Fingerprint returns a stable SHA-256 identity of the query text and bind
// variables.
func (q *CompiledQuery) Fingerprint() (string, error) {
	return ir.QueryFingerprint(q.Query, q.BindVars)
}

// Result is a decoded query result. Exactly one field is set, matching the
// query's Shape.
type Result struct {
	Keys      []string                    `json:"keys,omitempty"`
	Records   []projection.Record         `json:"records,omitempty"`
	Aggregate *projection.AggregateResult `json:"aggregate,omitempty"`
}

// Decode interprets the rows returned by executing q. Aggregate results are
// rebuilt into the nested record shape through reg, which must be the
// registry q was compiled against.
func (q *CompiledQuery) Decode(rows []json.RawMessage, reg *registry.Registry) (Result, error) {
	switch q.Shape {
	case projection.ShapeKeys:
		keys, err := projection.DecodeKeys(rows)
		return Result{Keys: keys}, err
	case projection.ShapeRecords:
		records, err := projection.DecodeRecords(rows)
		return Result{Records: records}, err
	case projection.ShapeAggregate:
		if reg == nil {
			return Result{}, fmt.Errorf("decoding an aggregate needs the variable registry")
		}
		agg, err := q.projection.DecodeAggregate(rows, reg)
		if err != nil {
			return Result{}, err
		}
		return Result{Aggregate: &agg}, nil
	default:
		return Result{}, fmt.Errorf("unknown result shape %q", q.Shape)
	}
}
