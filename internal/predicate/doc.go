// Package predicate translates a spatial predicate into the row-producing
// part of an AQL query: the iteration over the right collection, the spatial
// filter, the join to the properties collection when the result needs
// climate data, and the sort order used for pagination.
//
// Three adapters exist, one per predicate kind:
//
//	DistanceAdapter    map layer, GEO_DISTANCE within [min, max]
//	ContainsAdapter    map layer, GEO_CONTAINS(reference, point)
//	IntersectsAdapter  properties, GEO_INTERSECTS(reference, bounds)
//
// The map-layer adapters join the properties collection on the document key
// whenever the result mode reads climate data. The intersects adapter never
// joins: bounds are denormalised onto the properties record.
//
// Rows are always ordered deterministically for paginated modes. Without an
// explicit sort they are ordered by document key, so pages are restartable.
// Aggregate modes get no SORT at all since their reduction does not depend on
// row order.
package predicate
