package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/optharness/internal/invoke"
	"github.com/roach88/optharness/internal/ir"
)

// ErrRunNotFound is returned when a run id has no row.
var ErrRunNotFound = errors.New("run not found")

// Run is a stored run row.
type Run struct {
	ID             string
	Suite          string
	Selector       string
	StartedAt      time.Time
	Duration       time.Duration
	Finished       bool
	HarnessVersion string
	Records        int
}

// Record is a stored record row.
type Record struct {
	RunID        string
	Seq          int64
	Test         string
	Outcome      string
	CauseClass   string
	Value        ir.Value // nil unless Outcome is "success"
	Frames       []string
	Digest       string
	Stressed     bool
	StressRounds int64
	Duration     time.Duration
}

// ToOutcome rebuilds the classified outcome. Failure messages are not
// stored, so Cause.Message is always empty.
func (r Record) ToOutcome() (invoke.Outcome, error) {
	if r.Outcome == "success" {
		return invoke.Success{Value: r.Value}, nil
	}
	kind, err := invoke.ParseFailureKind(r.Outcome)
	if err != nil {
		return nil, err
	}
	return invoke.Failure{
		Kind:  kind,
		Cause: invoke.ErrorInfo{CauseClass: r.CauseClass, Frames: r.Frames},
	}, nil
}

// ListRuns returns recorded runs in insertion order, optionally filtered by
// suite. An empty suite lists every run. Returns an empty slice (not nil)
// when nothing matches.
func (s *Store) ListRuns(ctx context.Context, suite string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.suite, r.selector, r.started_at, r.duration_ns, r.finished, r.harness_version,
			(SELECT COUNT(*) FROM records c WHERE c.run_id = r.id)
		FROM runs r
		WHERE ? = '' OR r.suite = ?
		ORDER BY r.rowid ASC
	`, suite, suite)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun returns a single run, or ErrRunNotFound.
func (s *Store) ReadRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT r.id, r.suite, r.selector, r.started_at, r.duration_ns, r.finished, r.harness_version,
			(SELECT COUNT(*) FROM records c WHERE c.run_id = r.id)
		FROM runs r
		WHERE r.id = ?
	`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, err
}

// ReadRecords returns the records of a run in report order:
// ORDER BY seq ASC, test COLLATE BINARY ASC.
func (s *Store) ReadRecords(ctx context.Context, runID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, test, outcome, cause_class, value, frames, digest, stressed, stress_rounds, duration_ns
		FROM records
		WHERE run_id = ?
		ORDER BY seq ASC, test COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run        Run
		startedAt  string
		durationNS int64
	)
	err := row.Scan(&run.ID, &run.Suite, &run.Selector, &startedAt, &durationNS,
		&run.Finished, &run.HarnessVersion, &run.Records)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return Run{}, fmt.Errorf("parse started_at of run %s: %w", run.ID, err)
	}
	run.Duration = time.Duration(durationNS)
	return run, nil
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec        Record
		value      sql.NullString
		frames     string
		durationNS int64
	)
	err := row.Scan(&rec.RunID, &rec.Seq, &rec.Test, &rec.Outcome, &rec.CauseClass,
		&value, &frames, &rec.Digest, &rec.Stressed, &rec.StressRounds, &durationNS)
	if err != nil {
		return Record{}, fmt.Errorf("scan record: %w", err)
	}
	if value.Valid {
		rec.Value, err = ir.UnmarshalValue([]byte(value.String))
		if err != nil {
			return Record{}, fmt.Errorf("record %s: %w", rec.Test, err)
		}
	}
	rec.Frames, err = unmarshalFrames(frames)
	if err != nil {
		return Record{}, fmt.Errorf("record %s: %w", rec.Test, err)
	}
	rec.Duration = time.Duration(durationNS)
	return rec, nil
}
