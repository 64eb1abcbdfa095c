package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/optharness/internal/harness"
	"github.com/roach88/optharness/internal/invoke"
	"github.com/roach88/optharness/internal/ir"
)

var _ harness.Observer = (*Store)(nil)

// RunStarted inserts the run row. Uses ON CONFLICT(id) DO NOTHING so a
// repeated start for the same run id is ignored.
func (s *Store) RunStarted(ctx context.Context, info harness.RunInfo) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, suite, selector, started_at, harness_version, format_version)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		info.RunID,
		info.Suite,
		info.Selector,
		info.StartedAt.UTC().Format(time.RFC3339Nano),
		ir.HarnessVersion,
		ir.FormatVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// RecordFinished inserts one record. The run referenced by runID must exist
// (foreign key constraint). A second record for the same test in the same
// run is silently ignored.
func (s *Store) RecordFinished(ctx context.Context, runID string, rec harness.Record) error {
	value, err := marshalValue(rec.Outcome)
	if err != nil {
		return fmt.Errorf("write record %s: %w", rec.Test, err)
	}
	frames, err := marshalFrames(rec.Outcome)
	if err != nil {
		return fmt.Errorf("write record %s: %w", rec.Test, err)
	}
	digest, err := invoke.Digest(rec.Outcome)
	if err != nil {
		return fmt.Errorf("write record %s: %w", rec.Test, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records
		(run_id, seq, test, outcome, cause_class, value, frames, digest, stressed, stress_rounds, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, test) DO NOTHING
	`,
		runID,
		rec.Seq,
		rec.Test,
		invoke.Label(rec.Outcome),
		causeClass(rec.Outcome),
		value,
		frames,
		digest,
		rec.Stressed,
		rec.StressRounds,
		rec.Duration.Nanoseconds(),
	)
	if err != nil {
		return fmt.Errorf("write record %s: %w", rec.Test, err)
	}
	return nil
}

// RunFinished marks the run complete and stores its duration.
func (s *Store) RunFinished(ctx context.Context, result *harness.RunResult) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET finished = 1, duration_ns = ? WHERE id = ?
	`, result.Duration.Nanoseconds(), result.RunID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run: %w: %s", ErrRunNotFound, result.RunID)
	}
	return nil
}
