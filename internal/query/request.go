package query

import (
	"math"
	"regexp"

	"github.com/roach88/climaql/internal/geometry"
	"github.com/roach88/climaql/internal/predicate"
	"github.com/roach88/climaql/internal/projection"
)

// DistanceBounds are the inclusive distance bounds of a distance query.
type DistanceBounds = predicate.Bounds

// ResultShape describes what executing a compiled query yields.
type ResultShape = projection.Shape

// SpatialPredicateRequest is one caller request. It is request-scoped and
// never retained by the compiler.
type SpatialPredicateRequest struct {
	// Collection is the properties collection.
	Collection string `json:"collection" yaml:"collection"`

	// MapCollection is the map-layer collection. Unused by intersects.
	MapCollection string `json:"map_collection" yaml:"map_collection"`

	Geometry  geometry.Geometry `json:"geometry" yaml:"-"`
	Predicate predicate.Kind    `json:"predicate" yaml:"predicate"`

	// Bounds is required for distance and must be nil otherwise.
	Bounds *DistanceBounds `json:"distance_bounds,omitempty" yaml:"distance_bounds,omitempty"`

	Mode      projection.Mode `json:"mode" yaml:"mode"`
	PageStart int             `json:"page_start" yaml:"page_start"`
	PageLimit int             `json:"page_limit" yaml:"page_limit"`
}

// DefaultPageLimit is the page size used when a request document or the
// command line does not name one.
const DefaultPageLimit = 100

// collectionPattern follows the ArangoDB collection naming rules.
var collectionPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]{0,255}$`)

// validate checks the request in field order and returns the first problem.
func (r SpatialPredicateRequest) validate() error {
	if !collectionPattern.MatchString(r.Collection) {
		return invalid(FieldCollection, "%q is not a collection name", r.Collection)
	}
	if r.Predicate.ReadsMapLayer() && !collectionPattern.MatchString(r.MapCollection) {
		return invalid(FieldMapCollection, "%q is not a collection name", r.MapCollection)
	}

	if r.Geometry.Kind() == "" {
		return invalid(FieldGeometry, "missing")
	}
	if r.Geometry.IsEmpty() {
		return invalid(FieldGeometry, "%s has no coordinates", r.Geometry.Kind())
	}

	if _, err := predicate.For(r.Predicate); err != nil {
		return invalid(FieldPredicate, "%v", err)
	}

	if err := r.validateBounds(); err != nil {
		return err
	}

	if !r.Mode.Valid() {
		return invalid(FieldMode, "unknown result mode %q", r.Mode)
	}

	if r.PageStart < 0 {
		return invalid(FieldPageStart, "must not be negative, got %d", r.PageStart)
	}
	if r.PageLimit < 0 {
		return invalid(FieldPageLimit, "must not be negative, got %d", r.PageLimit)
	}
	return nil
}

func (r SpatialPredicateRequest) validateBounds() error {
	if r.Predicate != predicate.KindDistance {
		if r.Bounds != nil {
			return invalid(FieldDistanceBounds, "only the distance predicate takes distance bounds")
		}
		return nil
	}

	b := r.Bounds
	if b == nil {
		return invalid(FieldDistanceBounds, "required for the distance predicate")
	}
	for _, v := range []float64{b.Min, b.Max} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return invalid(FieldDistanceBounds, "bounds must be finite")
		}
		if v < 0 {
			return invalid(FieldDistanceBounds, "bounds must not be negative, got [%g, %g]", b.Min, b.Max)
		}
	}
	if b.Min > b.Max {
		return &predicate.InvalidRangeError{Min: b.Min, Max: b.Max}
	}
	if _, err := predicate.ParseSortOrder(string(b.Sort)); err != nil {
		return invalid(FieldDistanceBounds, "%v", err)
	}
	return nil
}
