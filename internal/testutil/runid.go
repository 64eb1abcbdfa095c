package testutil

import (
	"fmt"
	"sync"
	"time"
)

// SequentialRunIDs generates "<prefix>-0001", "<prefix>-0002", ... so run
// history tests can refer to runs by a known ID.
//
// Satisfies harness.RunIDGenerator. Safe for concurrent use.
type SequentialRunIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialRunIDs creates a generator. An empty prefix means "run".
func NewSequentialRunIDs(prefix string) *SequentialRunIDs {
	if prefix == "" {
		prefix = "run"
	}
	return &SequentialRunIDs{prefix: prefix}
}

// Generate returns the next ID.
func (g *SequentialRunIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// FixedTime returns a clock function that always reports t.
func FixedTime(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
