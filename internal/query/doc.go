// Package query assembles complete AQL queries from spatial predicate
// requests.
//
// A Compiler validates a SpatialPredicateRequest, asks the predicate adapter
// for the row-producing fragment, asks the projection compiler for the
// result fragment, and joins them with a LIMIT clause for the paginated
// modes. Every caller-supplied value travels as a bind variable, so the
// returned CompiledQuery is syntactically valid for any request that passes
// validation.
//
// Compilation performs no I/O and keeps no state between calls.
package query
