package predicate

import (
	"fmt"
	"strings"

	"github.com/roach88/climaql/internal/aql"
	"github.com/roach88/climaql/internal/geometry"
	"github.com/roach88/climaql/internal/projection"
)

// Kind is a spatial predicate.
type Kind string

const (
	KindDistance   Kind = "distance"
	KindContains   Kind = "contains"
	KindIntersects Kind = "intersects"
)

// Kinds lists every predicate kind.
var Kinds = []Kind{KindDistance, KindContains, KindIntersects}

// ParseKind converts a predicate name to a Kind (case-insensitive).
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindDistance, KindContains, KindIntersects:
		return k, nil
	default:
		return "", fmt.Errorf("unknown predicate %q", s)
	}
}

// ReadsMapLayer reports whether the predicate iterates the map layer.
func (k Kind) ReadsMapLayer() bool {
	return k == KindDistance || k == KindContains
}

// SortOrder is the distance sort applied to paginated distance queries.
type SortOrder string

const (
	// SortNone orders rows by document key.
	SortNone SortOrder = "none"
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder converts a sort name to a SortOrder. The empty string and
// the legacy "NO" mean SortNone.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "no":
		return SortNone, nil
	case "asc", "ascending":
		return SortAsc, nil
	case "desc", "descending":
		return SortDesc, nil
	default:
		return "", fmt.Errorf("unknown sort order %q", s)
	}
}

// Bounds are the inclusive distance bounds, in meters, of a distance query.
type Bounds struct {
	Min  float64   `json:"min" yaml:"min"`
	Max  float64   `json:"max" yaml:"max"`
	Sort SortOrder `json:"sort,omitempty" yaml:"sort,omitempty"`
}

// Layout names the document fields of the two collections.
type Layout struct {
	// KeyField is the document key shared by both collections.
	KeyField string `yaml:"key_field"`

	// PointField is the point geometry on map-layer documents.
	PointField string `yaml:"point_field"`

	// BoundsField is the bounding geometry on properties documents.
	BoundsField string `yaml:"bounds_field"`

	// DataField holds the climate record on properties documents.
	DataField string `yaml:"data_field"`
}

// DefaultLayout returns the field names used by the archive.
func DefaultLayout() Layout {
	return Layout{
		KeyField:    "_key",
		PointField:  "geometry",
		BoundsField: "geometry_bounds",
		DataField:   "properties",
	}
}

// Source identifies the collection a fragment iterates first.
type Source string

const (
	SourceMap        Source = "map"
	SourceProperties Source = "properties"
)

// Query variable and bind parameter names shared by all adapters.
const (
	varReference = "reference"
	varRow       = "row"
	varItem      = "item"
	varDistance  = "distance"

	paramReference   = "reference"
	paramMinDistance = "minDistance"
	paramMaxDistance = "maxDistance"
	collMap          = "map"
	collProperties   = "properties"
)

// Input is everything an adapter needs to build its fragment.
type Input struct {
	Geometry      geometry.Geometry
	Bounds        *Bounds
	Mode          projection.Mode
	Collection    string // properties collection
	MapCollection string // map-layer collection
	Layout        Layout
}

// Fragment is the row-producing part of a query.
type Fragment struct {
	Kind   Kind
	Source Source

	// RequiresJoin reports whether the fragment iterates the properties
	// collection in addition to the map layer.
	RequiresJoin bool

	// Statements run up to and including SORT; LIMIT and the projection
	// follow them.
	Statements []aql.Statement

	// Params holds the bind parameters referenced by Statements.
	Params aql.Params

	// Projection describes the variables in scope for the projection.
	Projection projection.Input
}

// Adapter builds the fragment for one predicate kind.
type Adapter interface {
	Kind() Kind
	BuildFilter(in Input) (Fragment, error)
}

// For returns the adapter for kind.
func For(kind Kind) (Adapter, error) {
	switch kind {
	case KindDistance:
		return DistanceAdapter{}, nil
	case KindContains:
		return ContainsAdapter{}, nil
	case KindIntersects:
		return IntersectsAdapter{}, nil
	default:
		return nil, fmt.Errorf("unknown predicate %q", kind)
	}
}
