package testutil

import (
	"fmt"
	"sync"
)

// SequenceIDs generates predictable identifiers for tests: "<prefix>-1",
// "<prefix>-2", and so on.
//
// Unlike the production generators, SequenceIDs can be reset so that the
// same scenario produces identical statements on every run.
//
// Thread-safety: all methods are safe for concurrent use.
type SequenceIDs struct {
	mu     sync.Mutex
	prefix string
	seq    int64
}

// NewSequenceIDs creates a generator. The first call to Generate returns
// "<prefix>-1". An empty prefix defaults to "id".
func NewSequenceIDs(prefix string) *SequenceIDs {
	if prefix == "" {
		prefix = "id"
	}
	return &SequenceIDs{prefix: prefix}
}

// Generate returns the next identifier.
func (g *SequenceIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s-%d", g.prefix, g.seq)
}

// Issued returns how many identifiers have been generated since the last
// reset.
func (g *SequenceIDs) Issued() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset restarts the sequence. The next call to Generate returns
// "<prefix>-1".
func (g *SequenceIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}

// FixedID always returns the same identifier.
type FixedID string

// Generate returns the fixed identifier.
func (f FixedID) Generate() string {
	return string(f)
}
