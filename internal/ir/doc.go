// Package ir provides the canonical encoding used to identify compiled
// queries.
//
// MarshalCanonical is RFC 8785 canonical JSON; the hash helpers prefix a
// versioned domain before hashing so identities of different kinds can never
// collide. ir imports nothing internal.
package ir
