package coerce

import "github.com/google/uuid"

// IDGenerator produces identifiers for auto-assigned attributes.
// Implementations must be safe for concurrent use.
type IDGenerator interface {
	Generate() string
}

// TimeUUIDGenerator generates RFC 4122 version 1 UUIDs, the representation
// Cassandra uses for timeuuid columns.
//
// Panics if the node id cannot be determined, which google/uuid only
// reports when no randomness source is available.
type TimeUUIDGenerator struct{}

// Generate returns a new time UUID as a hyphenated string.
func (TimeUUIDGenerator) Generate() string {
	return uuid.Must(uuid.NewUUID()).String()
}

// V7Generator generates time-sortable UUIDv7 identifiers.
type V7Generator struct{}

// Generate returns a new UUIDv7 as a hyphenated string.
func (V7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
