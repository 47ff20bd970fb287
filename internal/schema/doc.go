// Package schema holds the per-datastore schema registry.
//
// A datastore is registered once with its connection Config and its Models.
// Registration validates the configuration and every model's primary key,
// then freezes the result into a SchemaMap of Entries keyed by table name.
// Every compile step looks up its Entry through the SchemaMap; nothing in
// this package is mutated after registration.
//
// The Registry is an ordinary value owned by the caller. There is no
// package-level state.
package schema
