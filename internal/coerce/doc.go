// Package coerce converts values between their logical form and the form
// stored in Cassandra.
//
// Write side: json attributes are serialized to JSON text and auto-assigned
// attributes get a fresh time-ordered identifier when their value is
// nullish. Rows are mutated in place.
//
// Bind side: numbers headed for a number attribute are converted to the Go
// type the driver marshals into the attribute's CQL column type.
//
// Read side: driver types (gocql.UUID, *inf.Dec, *big.Int, time.Time) are
// cast to plain values and JSON text in json attributes is decoded.
package coerce
