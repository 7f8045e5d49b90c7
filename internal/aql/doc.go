// Package aql provides a small intermediate representation of the ArangoDB
// query language and a deterministic renderer for it.
//
// Only the statement forms the climate query compiler emits are modelled:
//
//	LET, FOR ... IN, FILTER, SORT, LIMIT, COLLECT AGGREGATE, RETURN
//
// Expr and Statement are sealed interfaces (marker method pattern), so the
// renderer can switch exhaustively over every node type.
//
// VALUES:
//
// Caller-supplied values never appear in query text. They are referenced as
// bind parameters (@name for values, @@name for collections) and carried next
// to the query in a Params set. Attribute paths derived from the variable
// catalog are rendered with JSON-quoted bracket access, so any catalog label
// is safe to embed.
package aql
