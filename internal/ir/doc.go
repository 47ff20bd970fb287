// Package ir provides the logical value layer shared by every cqlc package.
//
// This package contains the attribute-value helpers, the JSON text encoding
// used for structured ("json") attributes, and the error kinds surfaced by
// the compiler. All other internal packages import ir; ir imports nothing
// internal. This keeps ir the foundational layer with no circular
// dependencies.
//
// Key design constraints:
//   - A Row is keyed by logical attribute name, never by column name
//   - Scalars are strings, numbers, and time.Time; nothing else may appear
//     in an IN list
//   - Errors raised before any storage call carry an ErrorKind; storage
//     errors are never wrapped
package ir
