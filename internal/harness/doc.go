// Package harness runs YAML compile scenarios against the query compiler.
//
// A scenario lists requests, what each compiled query must look like, and
// assertions over the run. Every compiled query is recorded in a fresh
// in-memory journal, so scenarios can also check deduplication.
//
// # Scenario Format
//
//	name: contains_key_page
//	description: "Key mode pages the map layer in key order"
//	registry: ../registry/catalog.yaml   # optional, default catalog otherwise
//	steps:
//	  - request:
//	      collection: chelsa
//	      map_collection: chelsa_map
//	      predicate: contains
//	      geometry: {type: Polygon, coordinates: [[[8, 47], [9, 47], [9, 48], [8, 47]]]}
//	      mode: key
//	      page_start: 20
//	      page_limit: 10
//	    expect:
//	      shape: keys
//	      requires_join: false
//	      contains: ["SORT row._key ASC"]
//	      bind_vars: {offset: 20, count: 10}
//	assertions:
//	  - type: journal_entries
//	    count: 1
//
// A step whose expect clause names error_field must be rejected on that
// field. A step without an expect clause only has to compile.
//
// # Assertion Types
//
//   - same_fingerprint: the listed steps compiled to one query
//   - distinct_fingerprints: the listed steps compiled to different queries
//   - journal_entries: the journal holds exactly count compilations
//   - journal_hits: the given step's compilation was recorded count times
//
// # Golden Files
//
// RunWithGolden renders each step's AQL text and canonical bind variables
// and compares them with testdata/golden/<name>.golden via goldie.
package harness
