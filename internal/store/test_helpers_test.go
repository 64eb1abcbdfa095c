package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/optharness/internal/catalog"
	"github.com/roach88/optharness/internal/harness"
	"github.com/roach88/optharness/internal/ir"
	"github.com/roach88/optharness/internal/report"
	"github.com/roach88/optharness/internal/testutil"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func constant(v ir.Value) catalog.Factory {
	return catalog.Static(func(context.Context, []ir.Value) (ir.Value, error) { return v, nil })
}

func throwing(class string) catalog.Factory {
	return catalog.Static(func(context.Context, []ir.Value) (ir.Value, error) {
		return nil, ir.Throw(class, "fault")
	})
}

// runSuite executes reg through a harness that records into s and returns
// the run id. Run ids come from ids so tests can name them.
func runSuite(t *testing.T, s *Store, ids *testutil.SequentialRunIDs, reg *catalog.Registry) string {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := harness.New(harness.Options{
		Reporter:  report.New(io.Discard, report.Options{Logger: logger}),
		Logger:    logger,
		Clock:     testutil.NewDeterministicClock(),
		RunIDs:    ids,
		Observers: []harness.Observer{s},
		Now:       testutil.FixedTime(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
	})
	result, err := h.Run(context.Background(), harness.Config{
		Suite:    reg.Group(),
		Registry: reg,
		Selector: catalog.Prefix("test"),
	})
	require.NoError(t, err)
	return result.RunID
}
