package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/optharness/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Suite    string
}

// RunEntry is one recorded run in history output.
type RunEntry struct {
	RunID     string `json:"run_id"`
	Suite     string `json:"suite"`
	Selector  string `json:"selector"`
	StartedAt string `json:"started_at"`
	Tests     int    `json:"tests"`
	Duration  string `json:"duration"`
	Finished  bool   `json:"finished"`
}

// RecordEntry is one recorded test in history output.
type RecordEntry struct {
	Seq          int64    `json:"seq"`
	Test         string   `json:"test"`
	Outcome      string   `json:"outcome"`
	Detail       string   `json:"detail"`
	Frames       []string `json:"frames,omitempty"`
	Digest       string   `json:"digest"`
	StressRounds int64    `json:"stress_rounds,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded runs, or the records of one run",
		Long: `List runs recorded with "run --db", oldest first.

Given a run id, list that run's records in report order instead.

Examples:
  optharness history --db ./history.db
  optharness history --db ./history.db --suite canthrow
  optharness history --db ./history.db 0192f3c1-...`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistory(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Suite, "suite", "", "only list runs of this suite")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

// openHistory opens an existing history database. A missing file is a
// command error rather than a new empty database.
func openHistory(path string) (*store.Store, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path))
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func showHistory(opts *HistoryOptions, args []string, cmd *cobra.Command) error {
	st, err := openHistory(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	if len(args) == 1 {
		if _, err := st.ReadRun(cmd.Context(), args[0]); err != nil {
			return WrapExitError(ExitCommandError, "failed to read run", err)
		}
		records, err := st.ReadRecords(cmd.Context(), args[0])
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read records", err)
		}
		entries := make([]RecordEntry, len(records))
		for i, rec := range records {
			entries[i] = recordEntry(rec)
		}
		if opts.Format == "json" {
			return formatter.Success(entries)
		}
		writeRecordTable(cmd, entries)
		return nil
	}

	runs, err := st.ListRuns(cmd.Context(), opts.Suite)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	entries := make([]RunEntry, len(runs))
	for i, run := range runs {
		entries[i] = RunEntry{
			RunID:     run.ID,
			Suite:     run.Suite,
			Selector:  run.Selector,
			StartedAt: run.StartedAt.Format(time.RFC3339),
			Tests:     run.Records,
			Duration:  run.Duration.String(),
			Finished:  run.Finished,
		}
	}
	if opts.Format == "json" {
		return formatter.Success(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return nil
	}
	writeRunTable(cmd, entries)
	return nil
}

func recordEntry(rec store.Record) RecordEntry {
	return RecordEntry{
		Seq:          rec.Seq,
		Test:         rec.Test,
		Outcome:      rec.Outcome,
		Detail:       recordDetail(rec),
		Frames:       rec.Frames,
		Digest:       rec.Digest,
		StressRounds: rec.StressRounds,
	}
}

// recordDetail is the value of a success or the cause class of a failure.
func recordDetail(rec store.Record) string {
	if rec.Value != nil {
		return fmt.Sprintf("%s %s", rec.Value.Kind(), rec.Value)
	}
	return rec.CauseClass
}

func writeRunTable(cmd *cobra.Command, entries []RunEntry) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Run ID", "Suite", "Selector", "Started", "Tests", "Duration", "Finished"})
	for _, e := range entries {
		t.AppendRow(table.Row{e.RunID, e.Suite, e.Selector, e.StartedAt, e.Tests, e.Duration, e.Finished})
	}
	t.Render()
}

func writeRecordTable(cmd *cobra.Command, entries []RecordEntry) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Seq", "Test", "Outcome", "Detail", "Digest"})
	for _, e := range entries {
		t.AppendRow(table.Row{e.Seq, e.Test, e.Outcome, e.Detail, shortDigest(e.Digest)})
	}
	t.Render()
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
