// Package querycql compiles statements into parameterized CQL.
//
// Translate turns a predicate tree into a Fragment: WHERE-clause text with
// one "?" per bind value, values in placeholder order. Builder assembles
// full Count, Find, Create, Update, and Destroy queries around those
// fragments.
//
// Every value is bound, never interpolated. Column identifiers are double
// quoted; table names are emitted as registered.
package querycql
