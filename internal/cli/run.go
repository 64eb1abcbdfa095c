package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/optharness/internal/config"
	"github.com/roach88/optharness/internal/harness"
	"github.com/roach88/optharness/internal/metrics"
	"github.com/roach88/optharness/internal/report"
	"github.com/roach88/optharness/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database    string
	MetricsFile string
	Strict      bool
	Summary     bool

	// RunIDs and Now override run id generation and start times (for
	// testing). nil means UUIDv7 ids and wall time.
	RunIDs harness.RunIDGenerator
	Now    func() time.Time
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [suite...]",
		Short: "Run fixture suites and print one result per test",
		Long: `Run fixture suites and print one result block per test on stdout.

With no arguments every suite in the manifest runs, in manifest order.
Harness-internal failures (a test that cannot be called or bound) are
logged to stderr instead of printed.

Exit codes:
  0 - All suites ran
  1 - --strict and at least one harness-internal failure was recorded
  2 - Command error (unknown suite, bad manifest, database error, etc.)

Examples:
  optharness run
  optharness run canthrow removepureinvoke --summary
  optharness run --db ./history.db --metrics-file ./optharness.prom
  optharness run andtests --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuites(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record runs in this SQLite database")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this file after the run")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "exit 1 when any harness-internal failure is recorded")
	cmd.Flags().BoolVar(&opts.Summary, "summary", false, "print a summary table to stderr")

	return cmd
}

func runSuites(opts *RunOptions, args []string, cmd *cobra.Command) error {
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	manifest, err := loadManifest(opts.RootOptions)
	if err != nil {
		return err
	}
	names, err := suiteNames(manifest, args)
	if err != nil {
		return err
	}

	r := &runner{
		format: opts.Format,
		logger: logger,
		runIDs: opts.RunIDs,
		now:    opts.Now,
	}

	if opts.Database != "" {
		logger.Debug("opening database", "path", opts.Database)
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		r.observers = append(r.observers, st)
	}

	var recorder *metrics.Recorder
	if opts.MetricsFile != "" {
		recorder = metrics.NewRecorder()
		r.observers = append(r.observers, recorder)
	}

	ctx, stop := signalContext(cmd.Context(), logger)
	defer stop()

	rows := make([]report.SummaryRow, 0, len(names))
	harnessErrors := 0
	for _, name := range names {
		plan, err := manifest.Resolve(name)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to resolve suite %s", name), err)
		}
		result, err := r.runSuite(ctx, plan, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		row := summaryRow(result)
		rows = append(rows, row)
		harnessErrors += row.HarnessErrors
		logger.Debug("suite finished",
			"suite", name,
			"run_id", result.RunID,
			"passed", row.Passed,
			"failed", row.Failed,
			"harness_errors", row.HarnessErrors)
	}

	if opts.Summary {
		report.WriteSummary(cmd.ErrOrStderr(), rows)
	}

	if recorder != nil {
		if err := recorder.WriteTextfile(opts.MetricsFile); err != nil {
			return WrapExitError(ExitCommandError, "failed to write metrics", err)
		}
	}

	if opts.Strict && harnessErrors > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d harness-internal failure(s) recorded", harnessErrors))
	}
	return nil
}

// runner executes resolved suites with shared collaborators.
type runner struct {
	format    string
	logger    *slog.Logger
	runIDs    harness.RunIDGenerator
	now       func() time.Time
	observers []harness.Observer
}

// runSuite runs one suite, writing result lines to out. Every run gets its
// own logical clock.
func (r *runner) runSuite(ctx context.Context, plan *config.Plan, out io.Writer) (*harness.RunResult, error) {
	rep := report.New(out, report.Options{Style: plan.Style, Format: r.format, Logger: r.logger})
	h := harness.New(harness.Options{
		Reporter:  rep,
		Logger:    r.logger,
		RunIDs:    r.runIDs,
		Observers: r.observers,
		Now:       r.now,
	})

	result, err := h.Run(ctx, plan.Run)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("suite %s failed", plan.Suite), err)
	}
	return result, nil
}

func summaryRow(result *harness.RunResult) report.SummaryRow {
	passed, failed, harnessErrors := result.Counts()
	return report.SummaryRow{
		Suite:          result.Suite,
		Tests:          len(result.Records),
		Passed:         passed,
		Failed:         failed,
		HarnessErrors:  harnessErrors,
		StressedRounds: result.StressRounds(),
		Duration:       result.Duration,
	}
}

// signalContext derives a context cancelled on SIGINT/SIGTERM.
// Uses the command's context if available (for testing).
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
