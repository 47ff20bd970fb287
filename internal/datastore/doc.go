// Package datastore executes compiled statements against a Session.
//
// A Datastore binds one registered SchemaMap to one Session. Each
// operation compiles its statement with querycql, sends the resulting CQL
// to the session, and shapes the result: rows come back keyed by attribute
// with read-side casts applied.
//
// Compilation failures (unknown table, malformed predicate, bad row shape)
// are reported before the session is touched. Session errors are returned
// unmodified and never retried.
//
// # Destroy with fetch
//
// Cassandra has no DELETE ... RETURNING. When a destroy asks for the
// deleted rows, the Datastore first selects the matching rows, then issues
// the delete with the same predicate and bind values, and returns the
// selected rows. The two statements are not isolated: rows written between
// them may be deleted without being returned, and rows returned may no
// longer match when the delete runs. This is an accepted limitation.
package datastore
