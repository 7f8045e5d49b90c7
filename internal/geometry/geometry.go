// Package geometry defines the reference geometry accepted by the query
// compiler: one of the six GeoJSON geometry kinds, already validated.
//
// Parse is the thin validation shim at the boundary. It checks structure
// only (kind, nesting depth, position arity, coordinate ranges, ring
// closure) and keeps the coordinates exactly as supplied. Downstream code
// trusts a Geometry and never re-validates it.
package geometry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Kind is a GeoJSON geometry type name.
type Kind string

const (
	Point           Kind = "Point"
	MultiPoint      Kind = "MultiPoint"
	LineString      Kind = "LineString"
	MultiLineString Kind = "MultiLineString"
	Polygon         Kind = "Polygon"
	MultiPolygon    Kind = "MultiPolygon"
)

// Kinds lists the supported geometry kinds.
var Kinds = []Kind{Point, MultiPoint, LineString, MultiLineString, Polygon, MultiPolygon}

// depth is the array nesting above positions for each kind.
func (k Kind) depth() (int, bool) {
	switch k {
	case Point:
		return 0, true
	case MultiPoint, LineString:
		return 1, true
	case MultiLineString, Polygon:
		return 2, true
	case MultiPolygon:
		return 3, true
	default:
		return 0, false
	}
}

// Geometry is a validated GeoJSON geometry. The zero value is empty.
type Geometry struct {
	kind        Kind
	coordinates any
}

// Kind returns the geometry type.
func (g Geometry) Kind() Kind {
	return g.kind
}

// Coordinates returns the coordinates as decoded from JSON: nested []any
// slices with float64 leaves.
func (g Geometry) Coordinates() any {
	return g.coordinates
}

// IsEmpty reports whether the geometry has no coordinates.
func (g Geometry) IsEmpty() bool {
	if g.kind == "" || g.coordinates == nil {
		return true
	}
	arr, ok := g.coordinates.([]any)
	return ok && len(arr) == 0
}

// BindValue returns the GeoJSON object in the form sent as a bind parameter.
func (g Geometry) BindValue() map[string]any {
	return map[string]any{
		"type":        string(g.kind),
		"coordinates": g.coordinates,
	}
}

// MarshalJSON encodes the geometry as a GeoJSON object.
func (g Geometry) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.BindValue())
}

// UnmarshalJSON decodes and validates a GeoJSON geometry.
func (g *Geometry) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// NewPoint returns a Point geometry.
func NewPoint(lon, lat float64) (Geometry, error) {
	return New(Point, []float64{lon, lat})
}

// New validates Go coordinates (e.g. [][]float64 for a LineString) and
// returns the geometry.
func New(kind Kind, coordinates any) (Geometry, error) {
	raw, err := json.Marshal(map[string]any{"type": kind, "coordinates": coordinates})
	if err != nil {
		return Geometry{}, fmt.Errorf("encode coordinates: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a GeoJSON geometry object.
func Parse(data []byte) (Geometry, error) {
	var raw struct {
		Type        Kind            `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Geometry{}, fmt.Errorf("parse geometry: %w", err)
	}

	depth, ok := raw.Type.depth()
	if !ok {
		return Geometry{}, fmt.Errorf("unsupported geometry type %q", raw.Type)
	}
	if len(bytes.TrimSpace(raw.Coordinates)) == 0 {
		return Geometry{}, fmt.Errorf("%s: missing coordinates", raw.Type)
	}

	var coords any
	if err := json.Unmarshal(raw.Coordinates, &coords); err != nil {
		return Geometry{}, fmt.Errorf("%s: parse coordinates: %w", raw.Type, err)
	}

	g := Geometry{kind: raw.Type, coordinates: coords}
	if g.IsEmpty() {
		if depth == 0 {
			return Geometry{}, fmt.Errorf("Point: empty position")
		}
		return g, nil
	}
	if err := checkNesting(raw.Type, coords, depth); err != nil {
		return Geometry{}, fmt.Errorf("%s: %w", raw.Type, err)
	}
	return g, nil
}

func checkNesting(kind Kind, v any, depth int) error {
	if depth == 0 {
		return checkPosition(v)
	}

	arr, ok := v.([]any)
	if !ok {
		return fmt.Errorf("expected array, got %T", v)
	}
	for i, elem := range arr {
		if err := checkNesting(kind, elem, depth-1); err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
	}

	switch {
	case depth == 1 && (kind == LineString || kind == MultiLineString):
		if len(arr) < 2 {
			return fmt.Errorf("line needs at least 2 positions, got %d", len(arr))
		}
	case depth == 1 && (kind == Polygon || kind == MultiPolygon):
		if len(arr) < 4 {
			return fmt.Errorf("ring needs at least 4 positions, got %d", len(arr))
		}
		if !samePosition(arr[0], arr[len(arr)-1]) {
			return fmt.Errorf("ring is not closed")
		}
	case depth == 2 && kind == MultiPolygon:
		if len(arr) == 0 {
			return fmt.Errorf("polygon needs at least 1 ring")
		}
	}
	return nil
}

func checkPosition(v any) error {
	pos, ok := v.([]any)
	if !ok {
		return fmt.Errorf("position must be an array, got %T", v)
	}
	if len(pos) < 2 || len(pos) > 3 {
		return fmt.Errorf("position needs 2 or 3 numbers, got %d", len(pos))
	}
	for i, c := range pos {
		f, ok := c.(float64)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("position[%d] is not a finite number", i)
		}
	}
	lon, lat := pos[0].(float64), pos[1].(float64)
	if lon < -180 || lon > 180 {
		return fmt.Errorf("longitude %v out of range", lon)
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %v out of range", lat)
	}
	return nil
}

func samePosition(a, b any) bool {
	pa, okA := a.([]any)
	pb, okB := b.([]any)
	if !okA || !okB || len(pa) != len(pb) {
		return false
	}
	for i := range pa {
		if pa[i] != pb[i] {
			return false
		}
	}
	return true
}
