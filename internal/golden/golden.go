// Package golden compares suite output against expected-output files.
//
// Each suite has one file, <dir>/<suite>.expected, holding exactly what a
// text-format run prints. Failure lines carry file:line locations that move
// whenever a fixture is edited; with IgnoreLines both sides have their line
// numbers masked before comparison.
package golden

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/pmezard/go-difflib/difflib"
)

// Extension is the suffix of expected-output files.
const Extension = ".expected"

// ErrMissing is returned when a suite has no expected-output file and the
// check is not updating.
var ErrMissing = errors.New("expected output missing")

// Options control a check.
type Options struct {
	// Dir holds the expected-output files.
	Dir string

	// Update rewrites the expected file with the actual output instead of
	// comparing.
	Update bool

	// IgnoreLines masks frame line numbers on both sides.
	IgnoreLines bool
}

// Result describes the check of one suite.
type Result struct {
	Suite   string
	Path    string
	Match   bool
	Updated bool

	// Diff is a unified diff from expected to actual; empty on a match.
	Diff string
}

// Path returns the expected-output file for a suite.
func Path(dir, suite string) string {
	return filepath.Join(dir, suite+Extension)
}

var lineNumber = regexp.MustCompile(`(\.go):\d+\)`)

// MaskLines replaces the line number of every "file.go:N)" location with
// "file.go:_)".
func MaskLines(data []byte) []byte {
	return lineNumber.ReplaceAll(data, []byte("$1:_)"))
}

// Check compares actual output for suite against its expected file, or
// rewrites the file when opts.Update is set. A mismatch is reported in the
// Result, not as an error.
func Check(suite string, actual []byte, opts Options) (Result, error) {
	res := Result{Suite: suite, Path: Path(opts.Dir, suite)}

	if opts.Update {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return res, fmt.Errorf("update %s: %w", suite, err)
		}
		if err := os.WriteFile(res.Path, actual, 0o644); err != nil {
			return res, fmt.Errorf("update %s: %w", suite, err)
		}
		res.Match = true
		res.Updated = true
		return res, nil
	}

	expected, err := os.ReadFile(res.Path)
	if errors.Is(err, os.ErrNotExist) {
		return res, fmt.Errorf("%w: %s", ErrMissing, res.Path)
	}
	if err != nil {
		return res, fmt.Errorf("read %s: %w", res.Path, err)
	}

	if opts.IgnoreLines {
		expected = MaskLines(expected)
		actual = MaskLines(actual)
	}
	if bytes.Equal(expected, actual) {
		res.Match = true
		return res, nil
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(expected)),
		B:        difflib.SplitLines(string(actual)),
		FromFile: res.Path,
		ToFile:   suite + " (actual)",
		Context:  2,
	})
	if err != nil {
		return res, fmt.Errorf("diff %s: %w", suite, err)
	}
	res.Diff = diff
	return res, nil
}
