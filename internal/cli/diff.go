package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/optharness/internal/store"
)

// DiffOptions holds flags for the diff command.
type DiffOptions struct {
	*RootOptions
	Database string
}

// ChangeEntry is one changed test in diff output. Before or After is
// "absent" when the test ran in only one of the runs.
type ChangeEntry struct {
	Test   string `json:"test"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// DiffResult holds the comparison of two runs.
type DiffResult struct {
	RunA    string        `json:"run_a"`
	RunB    string        `json:"run_b"`
	Changes []ChangeEntry `json:"changes"`
}

// NewDiffCommand creates the diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiffOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "diff <run-a> <run-b>",
		Short: "Report tests whose outcome changed between two recorded runs",
		Long: `Compare two runs recorded with "run --db" by outcome digest.

A test is reported when its outcome differs, or when it ran in only one of
the two runs. Frame locations and failure messages are not part of the
digest, so moving code around a fault does not count as a change.

Exit codes:
  0 - No differences
  1 - At least one test changed
  2 - Command error (database or run not found, etc.)

Examples:
  optharness diff --db ./history.db <run-a> <run-b>`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return diffRuns(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func diffRuns(opts *DiffOptions, runA, runB string, cmd *cobra.Command) error {
	st, err := openHistory(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	changes, err := st.Diff(cmd.Context(), runA, runB)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to diff runs", err)
	}

	result := DiffResult{RunA: runA, RunB: runB, Changes: make([]ChangeEntry, len(changes))}
	for i, c := range changes {
		result.Changes[i] = ChangeEntry{Test: c.Test, Before: describe(c.Before), After: describe(c.After)}
	}

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		out := cmd.OutOrStdout()
		if len(result.Changes) == 0 {
			fmt.Fprintln(out, "No differences.")
		}
		for _, c := range result.Changes {
			fmt.Fprintf(out, "%s: %s -> %s\n", c.Test, c.Before, c.After)
		}
	}

	if len(changes) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d test(s) changed", len(changes)))
	}
	return nil
}

func describe(rec *store.Record) string {
	if rec == nil {
		return "absent"
	}
	detail := recordDetail(*rec)
	if detail == "" || detail == rec.Outcome {
		return rec.Outcome
	}
	return rec.Outcome + " " + detail
}
