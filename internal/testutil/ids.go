package testutil

import (
	"fmt"
	"sync"
)

// FixedRunID generates the same run ID every time.
//
// Implements engine.RunIDGenerator. If id is empty, Generate returns
// "test-run-default".
type FixedRunID struct {
	id string
}

// NewFixedRunID creates a generator that always returns id.
func NewFixedRunID(id string) *FixedRunID {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunID{id: id}
}

// Generate returns the fixed run ID.
func (g *FixedRunID) Generate() string {
	return g.id
}

// SequentialRunID returns "<prefix>-1", "<prefix>-2", ... and is safe for
// concurrent use.
type SequentialRunID struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialRunID creates a generator numbering IDs from 1.
func NewSequentialRunID(prefix string) *SequentialRunID {
	return &SequentialRunID{prefix: prefix}
}

// Generate returns the next ID.
func (g *SequentialRunID) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
