// Package queryir provides the storage-agnostic statement form consumed by
// the CQL builders.
//
// ARCHITECTURE:
//
// Statements arrive already factored by an upstream query compiler. This
// package is the boundary between that compiler and the CQL backend:
//
//	[criteria JSON/YAML] → [queryir.Statement] → [querycql builders] → (cql, values)
//
// PREDICATES:
//
// Predicate is a sealed interface using the marker method pattern. Only And,
// Compare and In implement it, so backends can switch exhaustively:
//
//	switch p := pred.(type) {
//	case And:
//	    // conjunction
//	case Compare:
//	    // attribute <op> value
//	case In:
//	    // attribute IN (values...)
//	}
//
// The supported fragment is deliberately narrow:
//   - Comparisons: =, >, >=, <, <=, !=
//   - Membership over scalar lists (strings, numbers, times)
//   - AND combination only
//
// OR, NOT, LIKE-style modifiers and subqueries are rejected by ParseWhere
// with a predicate parse error rather than approximated.
//
// DECODING:
//
// ParseWhere and DecodeStatement accept the loosely typed maps produced by
// encoding/json or yaml.v3. Map keys are visited in sorted order so the
// placeholder order of the compiled query never depends on Go's map
// iteration order.
package queryir
