// Package registry provides the static catalog of climate variables stored
// on every properties record of the archive.
//
// The catalog is a tree. Internal nodes (VariableGroup) model the nesting of
// the stored record: a period, a climate model within a future period, a
// scenario within a model, or a month-of-year slot within a period. Leaves
// (ClimateVariable) are scalar fields. Every leaf has exactly one flat key,
// its path segments joined by "/".
//
// The registry drives every schema-dependent piece of query compilation.
// Aggregate projections are generated by walking the leaves, and aggregate
// results are reassembled into the nested record shape by Rebuild. Adding or
// removing a variable is an edit to the declarative catalog only.
//
// DECLARATIVE FORMAT:
//
// The catalog is loaded from CUE (the embedded climate.cue) or YAML. Both use
// the same shape under a top-level "variables" field:
//
//	variables: {
//	    elevation: {kind: "elevation"}
//	    "1981-2010": {
//	        bio01: {kind: "numeric", aggregable: true}
//	    }
//	}
//
// A node with a "kind" field is a leaf. Any other struct is a group, so
// "kind" is reserved: no group may contain a child labelled "kind", and the
// loaders reject one with a SchemaError. YAML labels are taken literally,
// so month slots may be written 01 or "01".
//
// A Registry is immutable after loading and safe for concurrent use.
package registry
