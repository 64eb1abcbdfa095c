package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/optharness/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Manifest string // optional run manifest overlaid on the default
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the optharness CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "optharness",
		Short: "optharness - self-describing fixture harness",
		Long: `Discover, order and invoke compiled-in conformance fixtures.

Each suite lists its tests in a deterministic order, invokes every eligible
test with failures isolated per test, and prints one result block per test.
One suite pairs a test with a background allocation workload.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Manifest, "manifest", "m", "", "run manifest (YAML) overriding the built-in suites")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewDiffCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// newLogger builds the diagnostic logger. Diagnostics always go to w
// (stderr in the binary) so result lines on stdout stay clean.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadManifest returns the built-in manifest, overlaid with --manifest when
// given.
func loadManifest(opts *RootOptions) (*config.Manifest, error) {
	if opts.Manifest == "" {
		m, err := config.Default()
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load built-in manifest", err)
		}
		return m, nil
	}
	m, err := config.Load(opts.Manifest)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load manifest", err)
	}
	return m, nil
}

// suiteNames returns args, or every manifest suite when args is empty.
// Unknown names are a command error.
func suiteNames(m *config.Manifest, args []string) ([]string, error) {
	if len(args) == 0 {
		return m.Names(), nil
	}
	known := m.Names()
	for _, name := range args {
		if !slices.Contains(known, name) {
			return nil, NewExitError(ExitCommandError,
				fmt.Sprintf("unknown suite %q (known: %v)", name, known))
		}
	}
	return args, nil
}
