package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/optharness/internal/catalog"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
}

// TestListing describes one discovered test.
type TestListing struct {
	Name      string `json:"name"`
	Signature string `json:"signature"`
	Stressed  bool   `json:"stressed,omitempty"`
}

// SuiteListing describes one suite in discovery order.
type SuiteListing struct {
	Suite       string        `json:"suite"`
	Description string        `json:"description,omitempty"`
	Selector    string        `json:"selector"`
	Tests       []TestListing `json:"tests"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list [suite...]",
		Short: "List the tests each suite would invoke, in invocation order",
		Long: `List the tests each suite would invoke, in the order they would run.

Only eligible tests are listed: the entry point and names rejected by the
suite's selector are left out. Nothing is invoked.

Examples:
  optharness list
  optharness list canthrow --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listSuites(opts, args, cmd)
		},
	}

	return cmd
}

func listSuites(opts *ListOptions, args []string, cmd *cobra.Command) error {
	manifest, err := loadManifest(opts.RootOptions)
	if err != nil {
		return err
	}
	names, err := suiteNames(manifest, args)
	if err != nil {
		return err
	}

	listings := make([]SuiteListing, 0, len(names))
	for _, name := range names {
		plan, err := manifest.Resolve(name)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to resolve suite %s", name), err)
		}
		descs := plan.Run.Registry.Discover(catalog.DiscoverOptions{
			Selector:   plan.Run.Selector,
			Comparator: plan.Run.Comparator,
		})

		listing := SuiteListing{
			Suite:       name,
			Description: plan.Description,
			Selector:    plan.Run.Selector.String(),
			Tests:       make([]TestListing, len(descs)),
		}
		for i, desc := range descs {
			listing.Tests[i] = TestListing{
				Name:      desc.Name,
				Signature: desc.Signature(),
				Stressed:  desc.Name == plan.Run.StressTest,
			}
		}
		listings = append(listings, listing)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return formatter.Success(listings)
	}

	out := cmd.OutOrStdout()
	for _, l := range listings {
		fmt.Fprintf(out, "%s (%s, %d test(s))\n", l.Suite, l.Selector, len(l.Tests))
		for _, t := range l.Tests {
			if t.Stressed {
				fmt.Fprintf(out, "  %s [stress]\n", t.Signature)
				continue
			}
			fmt.Fprintf(out, "  %s\n", t.Signature)
		}
	}
	return nil
}
