// Package report formats test outcomes.
//
// Result lines go to the result writer (stdout in the CLI). Harness-internal
// failures never appear there: they are sent to the diagnostic logger with
// full detail instead.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/optharness/internal/catalog"
	"github.com/roach88/optharness/internal/invoke"
)

// Style selects the shape of a success line.
type Style int

const (
	// Simple: "Test <name> result: <value>"
	Simple Style = iota
	// Grouped: "Test <group>; Subtest <name>; Result: <value>"
	Grouped
)

func (s Style) String() string {
	if s == Grouped {
		return "grouped"
	}
	return "simple"
}

// ParseStyle resolves a style name from a manifest.
func ParseStyle(name string) (Style, error) {
	switch name {
	case "", "simple":
		return Simple, nil
	case "grouped":
		return Grouped, nil
	default:
		return Simple, fmt.Errorf("unknown output style %q (want simple or grouped)", name)
	}
}

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// FramePrefix starts every frame line in text output.
const FramePrefix = "\tat "

// Reporter writes one result block per test.
type Reporter struct {
	out    io.Writer
	style  Style
	format string
	logger *slog.Logger
}

// Options configures a Reporter.
type Options struct {
	Style  Style
	Format string // FormatText (default) or FormatJSON
	Logger *slog.Logger
}

// New creates a Reporter writing results to out.
func New(out io.Writer, opts Options) *Reporter {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	format := opts.Format
	if format == "" {
		format = FormatText
	}
	return &Reporter{out: out, style: opts.Style, format: format, logger: logger}
}

// Report emits the outcome of one test. Harness-internal failures are routed
// to Diagnose; everything else produces exactly one result block.
func (r *Reporter) Report(desc catalog.Descriptor, outcome invoke.Outcome) error {
	if invoke.IsHarnessError(outcome) {
		r.Diagnose(desc, outcome)
		return nil
	}
	if r.format == FormatJSON {
		return r.writeJSON(desc, outcome)
	}
	_, err := io.WriteString(r.out, r.Format(desc, outcome))
	return err
}

// Format renders the text block for a reportable outcome, newline
// terminated.
func (r *Reporter) Format(desc catalog.Descriptor, outcome invoke.Outcome) string {
	switch o := outcome.(type) {
	case invoke.Success:
		return r.successLine(desc, o.Value.String()) + "\n"
	case invoke.Failure:
		block := o.Cause.CauseClass + "\n"
		for i, frame := range o.Cause.Frames {
			if i == invoke.MaxFrames {
				break
			}
			block += FramePrefix + frame + "\n"
		}
		return block
	default:
		return fmt.Sprintf("Test %s: unknown outcome %T\n", desc.Name, outcome)
	}
}

func (r *Reporter) successLine(desc catalog.Descriptor, value string) string {
	if r.style == Grouped {
		return fmt.Sprintf("Test %s; Subtest %s; Result: %s", desc.Group, desc.Name, value)
	}
	return fmt.Sprintf("Test %s result: %s", desc.Name, value)
}

// Diagnose logs a failure with full detail on the diagnostic channel.
func (r *Reporter) Diagnose(desc catalog.Descriptor, outcome invoke.Outcome) {
	f, ok := outcome.(invoke.Failure)
	if !ok {
		return
	}
	r.logger.Error("harness failure",
		"test", desc.Name,
		"group", desc.Group,
		"signature", desc.Signature(),
		"kind", f.Kind.String(),
		"cause", f.Cause.CauseClass,
		"message", f.Cause.Message,
	)
}

// jsonRecord is the per-test object written in JSON format.
type jsonRecord struct {
	Group  string   `json:"group"`
	Test   string   `json:"test"`
	Status string   `json:"status"`
	Kind   string   `json:"kind,omitempty"`
	Value  string   `json:"value,omitempty"`
	Cause  string   `json:"cause,omitempty"`
	Frames []string `json:"frames,omitempty"`
}

func (r *Reporter) writeJSON(desc catalog.Descriptor, outcome invoke.Outcome) error {
	rec := jsonRecord{Group: desc.Group, Test: desc.Name, Status: invoke.Label(outcome)}
	switch o := outcome.(type) {
	case invoke.Success:
		rec.Kind = o.Value.Kind().String()
		rec.Value = o.Value.String()
	case invoke.Failure:
		rec.Cause = o.Cause.CauseClass
		rec.Frames = o.Cause.Frames
	}
	enc := json.NewEncoder(r.out)
	enc.SetEscapeHTML(false)
	return enc.Encode(rec)
}
