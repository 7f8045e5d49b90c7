package predicate

import (
	"fmt"
	"math"

	"github.com/roach88/climaql/internal/aql"
	"github.com/roach88/climaql/internal/projection"
)

// DistanceAdapter selects map-layer points whose distance to the reference
// geometry lies within [Bounds.Min, Bounds.Max].
type DistanceAdapter struct{}

// Kind implements Adapter.
func (DistanceAdapter) Kind() Kind { return KindDistance }

// BuildFilter implements Adapter.
func (DistanceAdapter) BuildFilter(in Input) (Fragment, error) {
	order, err := checkBounds(in.Bounds)
	if err != nil {
		return Fragment{}, err
	}

	b, err := newMapBuilder(KindDistance, in)
	if err != nil {
		return Fragment{}, err
	}
	if err := b.params.Set(paramMinDistance, in.Bounds.Min); err != nil {
		return Fragment{}, err
	}
	if err := b.params.Set(paramMaxDistance, in.Bounds.Max); err != nil {
		return Fragment{}, err
	}

	b.add(
		aql.Let{Var: varDistance, Expr: geoCall("GEO_DISTANCE", b.rowAttr(in.Layout.PointField))},
		aql.Filter{Cond: aql.And{Terms: []aql.Expr{
			aql.Binary{Op: ">=", Left: aql.Ident(varDistance), Right: aql.Bind(paramMinDistance)},
			aql.Binary{Op: "<=", Left: aql.Ident(varDistance), Right: aql.Bind(paramMaxDistance)},
		}}},
	)
	b.distance = true

	if err := b.join(); err != nil {
		return Fragment{}, err
	}
	b.sort(order)
	return b.fragment(), nil
}

// checkBounds validates bounds and returns the normalized sort order.
func checkBounds(bounds *Bounds) (SortOrder, error) {
	if bounds == nil {
		return "", fmt.Errorf("distance predicate needs distance bounds")
	}
	for _, v := range []float64{bounds.Min, bounds.Max} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return "", fmt.Errorf("distance bounds must be finite and non-negative, got [%g, %g]", bounds.Min, bounds.Max)
		}
	}
	if bounds.Min > bounds.Max {
		return "", &InvalidRangeError{Min: bounds.Min, Max: bounds.Max}
	}
	return ParseSortOrder(string(bounds.Sort))
}

// ContainsAdapter selects map-layer points contained by the reference
// geometry.
type ContainsAdapter struct{}

// Kind implements Adapter.
func (ContainsAdapter) Kind() Kind { return KindContains }

// BuildFilter implements Adapter.
func (ContainsAdapter) BuildFilter(in Input) (Fragment, error) {
	if in.Bounds != nil {
		return Fragment{}, fmt.Errorf("contains predicate takes no distance bounds")
	}

	b, err := newMapBuilder(KindContains, in)
	if err != nil {
		return Fragment{}, err
	}

	point := b.rowAttr(in.Layout.PointField)
	b.add(aql.Filter{Cond: geoCall("GEO_CONTAINS", point)})

	// Key mode returns keys only; every other mode reports the distance to
	// the reference geometry's centroid.
	if in.Mode != projection.ModeKey {
		b.add(aql.Let{Var: varDistance, Expr: geoCall("GEO_DISTANCE", point)})
		b.distance = true
	}

	if err := b.join(); err != nil {
		return Fragment{}, err
	}
	b.sort(SortNone)
	return b.fragment(), nil
}

// IntersectsAdapter selects properties records whose stored bounds intersect
// the reference geometry. It reads the properties collection directly and
// never joins.
type IntersectsAdapter struct{}

// Kind implements Adapter.
func (IntersectsAdapter) Kind() Kind { return KindIntersects }

// BuildFilter implements Adapter.
func (IntersectsAdapter) BuildFilter(in Input) (Fragment, error) {
	if in.Bounds != nil {
		return Fragment{}, fmt.Errorf("intersects predicate takes no distance bounds")
	}

	b, err := newBuilder(KindIntersects, SourceProperties, in)
	if err != nil {
		return Fragment{}, err
	}
	if err := b.params.SetCollection(collProperties, in.Collection); err != nil {
		return Fragment{}, err
	}

	b.row = varItem
	b.data = varItem
	b.geometryField = in.Layout.BoundsField
	b.add(
		aql.For{Var: varItem, Collection: collProperties},
		aql.Filter{Cond: geoCall("GEO_INTERSECTS", b.rowAttr(in.Layout.BoundsField))},
	)
	b.sort(SortNone)
	return b.fragment(), nil
}

func geoCall(fn string, target aql.Expr) aql.Call {
	return aql.Call{Func: fn, Args: []aql.Expr{aql.Ident(varReference), target}}
}
