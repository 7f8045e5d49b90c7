// Package store provides the SQLite compilation journal.
//
// Every compiled query can be recorded together with its bind variables,
// predicate, mode and result shape. Rows are keyed by the query fingerprint
// (see internal/ir), so recording an identical compilation again only bumps
// its hit count and last sequence number.
//
// # Ordering
//
// Sequence numbers are a logical clock assigned at write time. Listings order
// by last_seq DESC, id ASC COLLATE BINARY so results are identical across
// runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Bind variables are stored as RFC 8785 canonical JSON. bind_digest is a
// short xxhash64 of that JSON for display and lookup; it is not an identity.
package store
