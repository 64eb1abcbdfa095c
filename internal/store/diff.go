package store

import (
	"context"
	"fmt"
	"sort"
)

// Change describes one test whose outcome digest differs between two runs.
// Before or After is nil when the test ran in only one of them.
type Change struct {
	Test   string
	Before *Record
	After  *Record
}

// Diff compares two runs by outcome digest and returns the tests that
// changed, sorted by test name. Both runs must exist.
func (s *Store) Diff(ctx context.Context, runA, runB string) ([]Change, error) {
	before, err := s.recordsByTest(ctx, runA)
	if err != nil {
		return nil, err
	}
	after, err := s.recordsByTest(ctx, runB)
	if err != nil {
		return nil, err
	}

	changes := []Change{}
	for name, a := range before {
		b, ok := after[name]
		switch {
		case !ok:
			changes = append(changes, Change{Test: name, Before: a})
		case a.Digest != b.Digest:
			changes = append(changes, Change{Test: name, Before: a, After: b})
		}
	}
	for name, b := range after {
		if _, ok := before[name]; !ok {
			changes = append(changes, Change{Test: name, After: b})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Test < changes[j].Test })
	return changes, nil
}

func (s *Store) recordsByTest(ctx context.Context, runID string) (map[string]*Record, error) {
	if _, err := s.ReadRun(ctx, runID); err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}
	records, err := s.ReadRecords(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}
	byTest := make(map[string]*Record, len(records))
	for i := range records {
		byTest[records[i].Test] = &records[i]
	}
	return byTest, nil
}
