package query

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/climaql/internal/geometry"
	"github.com/roach88/climaql/internal/predicate"
	"github.com/roach88/climaql/internal/projection"
)

// RequestDocument is the file form of a SpatialPredicateRequest, as written
// in YAML or JSON request files and harness scenarios. Mode and predicate
// names are matched case-insensitively and accept the legacy aliases.
type RequestDocument struct {
	Collection     string          `yaml:"collection" json:"collection"`
	MapCollection  string          `yaml:"map_collection,omitempty" json:"map_collection,omitempty"`
	Geometry       any             `yaml:"geometry" json:"geometry"`
	Predicate      string          `yaml:"predicate" json:"predicate"`
	DistanceBounds *DocumentBounds `yaml:"distance_bounds,omitempty" json:"distance_bounds,omitempty"`
	Mode           string          `yaml:"mode" json:"mode"`
	PageStart      int             `yaml:"page_start,omitempty" json:"page_start,omitempty"`

	// PageLimit defaults to DefaultPageLimit when absent. An explicit 0 is
	// kept.
	PageLimit *int `yaml:"page_limit,omitempty" json:"page_limit,omitempty"`
}

// DocumentBounds is the file form of DistanceBounds.
type DocumentBounds struct {
	Min  float64 `yaml:"min" json:"min"`
	Max  float64 `yaml:"max" json:"max"`
	Sort string  `yaml:"sort,omitempty" json:"sort,omitempty"`
}

// DecodeRequest parses a request document. YAML is a superset of JSON, so
// both formats are accepted. Unknown keys are rejected.
func DecodeRequest(data []byte) (SpatialPredicateRequest, error) {
	var doc RequestDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return SpatialPredicateRequest{}, fmt.Errorf("decode request: %w", err)
	}
	return doc.Request()
}

// Request converts the document. Unrecognised predicate, mode and sort
// names are carried through verbatim so that Compile reports them in its
// usual field order. A malformed geometry is a ValidationError.
func (d RequestDocument) Request() (SpatialPredicateRequest, error) {
	req := SpatialPredicateRequest{
		Collection:    d.Collection,
		MapCollection: d.MapCollection,
		Predicate:     predicate.Kind(d.Predicate),
		Mode:          projection.Mode(d.Mode),
		PageStart:     d.PageStart,
		PageLimit:     DefaultPageLimit,
	}
	if d.PageLimit != nil {
		req.PageLimit = *d.PageLimit
	}
	if k, err := predicate.ParseKind(d.Predicate); err == nil {
		req.Predicate = k
	}
	if m, err := projection.ParseMode(d.Mode); err == nil {
		req.Mode = m
	}

	if d.DistanceBounds != nil {
		b := DistanceBounds{
			Min:  d.DistanceBounds.Min,
			Max:  d.DistanceBounds.Max,
			Sort: predicate.SortOrder(d.DistanceBounds.Sort),
		}
		if s, err := predicate.ParseSortOrder(d.DistanceBounds.Sort); err == nil {
			b.Sort = s
		}
		req.Bounds = &b
	}

	if d.Geometry != nil {
		raw, err := json.Marshal(d.Geometry)
		if err != nil {
			return SpatialPredicateRequest{}, invalid(FieldGeometry, "%v", err)
		}
		g, err := geometry.Parse(raw)
		if err != nil {
			return SpatialPredicateRequest{}, invalid(FieldGeometry, "%v", err)
		}
		req.Geometry = g
	}
	return req, nil
}
