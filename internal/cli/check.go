package cli

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/optharness/internal/golden"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Dir         string
	Update      bool
	IgnoreLines bool
}

// SuiteCheck holds the result of checking a single suite.
type SuiteCheck struct {
	Suite   string `json:"suite"`
	Path    string `json:"path"`
	Pass    bool   `json:"pass"`
	Updated bool   `json:"updated,omitempty"`
	Missing bool   `json:"missing,omitempty"`
	Diff    string `json:"diff,omitempty"`
}

// CheckResult holds the overall check result.
type CheckResult struct {
	Suites []SuiteCheck `json:"suites"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
	Total  int          `json:"total"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check [suite...]",
		Short: "Compare suite output with expected-output files",
		Long: `Run suites and compare their text output with <dir>/<suite>.expected.

Output is always produced in text format for comparison, whatever --format
says; --format only shapes the check report.

Exit codes:
  0 - Every suite matched (or was updated)
  1 - One or more suites differ or have no expected file
  2 - Command error (unknown suite, bad manifest, etc.)

Examples:
  optharness check --dir ./expected
  optharness check canthrow --dir ./expected --ignore-lines
  optharness check --dir ./expected --update`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkSuites(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Dir, "dir", "expected", "directory of expected-output files")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite expected-output files")
	cmd.Flags().BoolVar(&opts.IgnoreLines, "ignore-lines", false, "ignore line numbers in frame locations")

	return cmd
}

func checkSuites(opts *CheckOptions, args []string, cmd *cobra.Command) error {
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	manifest, err := loadManifest(opts.RootOptions)
	if err != nil {
		return err
	}
	names, err := suiteNames(manifest, args)
	if err != nil {
		return err
	}

	r := &runner{format: "text", logger: logger}
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	result := CheckResult{Suites: make([]SuiteCheck, 0, len(names)), Total: len(names)}

	for _, name := range names {
		plan, err := manifest.Resolve(name)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to resolve suite %s", name), err)
		}
		formatter.VerboseLog("checking %s against %s", name, golden.Path(opts.Dir, name))
		var buf bytes.Buffer
		if _, err := r.runSuite(cmd.Context(), plan, &buf); err != nil {
			return err
		}

		res, err := golden.Check(name, buf.Bytes(), golden.Options{
			Dir:         opts.Dir,
			Update:      opts.Update,
			IgnoreLines: opts.IgnoreLines,
		})
		check := SuiteCheck{Suite: name, Path: res.Path, Pass: res.Match, Updated: res.Updated, Diff: res.Diff}
		switch {
		case errors.Is(err, golden.ErrMissing):
			check.Missing = true
		case err != nil:
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to check suite %s", name), err)
		}

		if check.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Suites = append(result.Suites, check)
	}

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputCheckText(cmd, result)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d suite(s) differ from expected output", result.Failed, result.Total))
	}
	return nil
}

func outputCheckText(cmd *cobra.Command, result CheckResult) {
	out := cmd.OutOrStdout()
	for _, s := range result.Suites {
		switch {
		case s.Updated:
			fmt.Fprintf(out, "updated %s (%s)\n", s.Suite, s.Path)
		case s.Pass:
			fmt.Fprintf(out, "ok      %s\n", s.Suite)
		case s.Missing:
			fmt.Fprintf(out, "MISSING %s (%s; run with --update)\n", s.Suite, s.Path)
		default:
			fmt.Fprintf(out, "FAIL    %s\n", s.Suite)
			fmt.Fprint(out, s.Diff)
		}
	}
	fmt.Fprintf(out, "\n%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
}
