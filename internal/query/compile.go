package query

import (
	"fmt"
	"slices"

	"github.com/roach88/climaql/internal/aql"
	"github.com/roach88/climaql/internal/geometry"
	"github.com/roach88/climaql/internal/predicate"
	"github.com/roach88/climaql/internal/projection"
	"github.com/roach88/climaql/internal/registry"
)

// Pagination bind parameter names.
const (
	paramOffset = "offset"
	paramCount  = "count"
)

// Compiler turns requests into AQL. It holds no mutable state and is safe
// for concurrent use.
type Compiler struct {
	registry *registry.Registry
	layout   predicate.Layout
}

// NewCompiler returns a compiler over reg using the document field layout.
func NewCompiler(reg *registry.Registry, layout predicate.Layout) (*Compiler, error) {
	if reg == nil {
		return nil, fmt.Errorf("compiler needs a variable registry")
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return &Compiler{registry: reg, layout: layout}, nil
}

// Registry returns the variable registry the compiler projects from.
func (c *Compiler) Registry() *registry.Registry {
	return c.registry
}

// Layout returns the document field layout.
func (c *Compiler) Layout() predicate.Layout {
	return c.layout
}

// Compile validates req and builds its query.
//
// A request that fails validation returns a *ValidationError or a
// *predicate.InvalidRangeError and a nil query. The query text is composed of
// the predicate fragment, a LIMIT for paginated modes and the projection.
func (c *Compiler) Compile(req SpatialPredicateRequest) (*CompiledQuery, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	adapter, err := predicate.For(req.Predicate)
	if err != nil {
		return nil, invalid(FieldPredicate, "%v", err)
	}

	var bounds *predicate.Bounds
	if req.Bounds != nil {
		b := *req.Bounds
		bounds = &b
	}
	filter, err := adapter.BuildFilter(predicate.Input{
		Geometry:      req.Geometry,
		Bounds:        bounds,
		Mode:          req.Mode,
		Collection:    req.Collection,
		MapCollection: req.MapCollection,
		Layout:        c.layout,
	})
	if err != nil {
		return nil, fmt.Errorf("build %s filter: %w", req.Predicate, err)
	}

	proj, err := projection.Compile(req.Mode, c.registry.Walk(), filter.Projection)
	if err != nil {
		return nil, fmt.Errorf("compile %s projection: %w", req.Mode, err)
	}

	q := aql.Query{Statements: slices.Clone(filter.Statements)}
	params := filter.Params.Clone()
	if req.Mode.Paginated() {
		if err := params.Set(paramOffset, req.PageStart); err != nil {
			return nil, err
		}
		if err := params.Set(paramCount, req.PageLimit); err != nil {
			return nil, err
		}
		q.Append(aql.Limit{Offset: aql.Bind(paramOffset), Count: aql.Bind(paramCount)})
	}
	q.Append(proj.Statements...)

	text, err := aql.Render(q)
	if err != nil {
		return nil, fmt.Errorf("render query: %w", err)
	}

	return &CompiledQuery{
		Query:        text,
		BindVars:     params,
		Shape:        proj.Shape,
		Mode:         req.Mode,
		Predicate:    req.Predicate,
		RequiresJoin: filter.RequiresJoin,
		Aggregates:   len(proj.Aggregates),
		projection:   proj,
	}, nil
}

// CompileDistanceQuery compiles a distance-within-range query.
func (c *Compiler) CompileDistanceQuery(collection, mapCollection string, g geometry.Geometry, mode projection.Mode, bounds DistanceBounds, pageStart, pageLimit int) (*CompiledQuery, error) {
	return c.Compile(SpatialPredicateRequest{
		Collection:    collection,
		MapCollection: mapCollection,
		Geometry:      g,
		Predicate:     predicate.KindDistance,
		Bounds:        &bounds,
		Mode:          mode,
		PageStart:     pageStart,
		PageLimit:     pageLimit,
	})
}

// CompileContainsQuery compiles a containment query.
func (c *Compiler) CompileContainsQuery(collection, mapCollection string, g geometry.Geometry, mode projection.Mode, pageStart, pageLimit int) (*CompiledQuery, error) {
	return c.Compile(SpatialPredicateRequest{
		Collection:    collection,
		MapCollection: mapCollection,
		Geometry:      g,
		Predicate:     predicate.KindContains,
		Mode:          mode,
		PageStart:     pageStart,
		PageLimit:     pageLimit,
	})
}

// CompileIntersectsQuery compiles a bounding-intersection query. The map
// collection is accepted for symmetry and not read.
func (c *Compiler) CompileIntersectsQuery(collection, mapCollection string, g geometry.Geometry, mode projection.Mode, pageStart, pageLimit int) (*CompiledQuery, error) {
	return c.Compile(SpatialPredicateRequest{
		Collection:    collection,
		MapCollection: mapCollection,
		Geometry:      g,
		Predicate:     predicate.KindIntersects,
		Mode:          mode,
		PageStart:     pageStart,
		PageLimit:     pageLimit,
	})
}
