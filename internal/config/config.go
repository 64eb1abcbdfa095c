// Package config loads run manifests.
//
// A manifest lists the suites the harness knows how to run, with the
// settings each run uses: output style, name ordering, selection mode,
// stress pairing and arguments. The compiled-in default manifest covers
// every fixture suite; a user manifest is overlaid on it.
//
// Loading is strict. YAML is decoded with unknown fields rejected, the
// decoded document is validated against an embedded CUE schema, and the
// result is checked against the compiled-in fixture set.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/optharness/internal/fixtures"
)

//go:embed default.yaml
var defaultManifest []byte

// Manifest is a decoded run manifest.
type Manifest struct {
	Version int             `yaml:"version"`
	Limits  fixtures.Limits `yaml:"limits"`
	Stress  StressConfig    `yaml:"stress"`
	Suites  []SuiteConfig   `yaml:"suites"`
}

// StressConfig configures the stress worker paired with a suite's stress
// test.
type StressConfig struct {
	Rounds    int `yaml:"rounds"`
	ChunkSize int `yaml:"chunk_size"`
	Chunks    int `yaml:"chunks"`
}

// SuiteConfig is one suite entry.
type SuiteConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Group       string `yaml:"group,omitempty"`
	Style       string `yaml:"style,omitempty"`
	Order       string `yaml:"order,omitempty"`
	Select      Select `yaml:"select,omitempty"`
	StressTest  string `yaml:"stress_test,omitempty"`
	Args        []any  `yaml:"args,omitempty"`
}

// Select is the manifest form of a catalog.Selector. At most one field is
// set.
type Select struct {
	Exclude string `yaml:"exclude,omitempty"`
	Prefix  string `yaml:"prefix,omitempty"`
}

// ErrUnknownSuite is returned when a suite name is not in the manifest.
var ErrUnknownSuite = errors.New("unknown suite")

// Default returns the compiled-in manifest.
func Default() (*Manifest, error) {
	m, err := Parse(defaultManifest, "default.yaml")
	if err != nil {
		return nil, fmt.Errorf("default manifest: %w", err)
	}
	return m, nil
}

// Load reads a manifest file and overlays it on the default manifest.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	user, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	base, err := Default()
	if err != nil {
		return nil, err
	}
	return base.Overlay(user), nil
}

// Parse decodes and validates a manifest document. name is used in error
// messages.
func Parse(data []byte, name string) (*Manifest, error) {
	var m Manifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("%s: failed to parse YAML: %w", name, err)
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: failed to parse YAML: %w", name, err)
	}
	if err := validateSchema(raw); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	if err := validateManifest(&m); err != nil {
		return nil, fmt.Errorf("%s: invalid manifest: %w", name, err)
	}
	return &m, nil
}

// validateManifest checks what the schema cannot: suite names resolve to
// compiled-in fixtures and are unique, and stress tests are registered.
func validateManifest(m *Manifest) error {
	known := make(map[string]bool)
	for _, name := range fixtures.Names() {
		known[name] = true
	}

	seen := make(map[string]bool)
	for i, s := range m.Suites {
		if !known[s.Name] {
			return fmt.Errorf("suites[%d]: no compiled-in suite named %q", i, s.Name)
		}
		if seen[s.Name] {
			return fmt.Errorf("suites[%d]: duplicate suite %q", i, s.Name)
		}
		seen[s.Name] = true

		if s.StressTest != "" {
			reg, err := fixtures.Build(s.Name, m.Limits)
			if err != nil {
				return fmt.Errorf("suites[%d]: %w", i, err)
			}
			if _, ok := reg.Lookup(s.StressTest); !ok {
				return fmt.Errorf("suites[%d]: stress_test %q is not a test of %s", i, s.StressTest, s.Name)
			}
		}
	}
	return nil
}

// Overlay returns a copy of m with o applied: suites in o replace suites of
// the same name or are appended, and non-zero limits and stress settings
// override.
func (m *Manifest) Overlay(o *Manifest) *Manifest {
	out := *m
	out.Suites = append([]SuiteConfig(nil), m.Suites...)

	if o.Limits.MaxIter > 0 {
		out.Limits.MaxIter = o.Limits.MaxIter
	}
	if o.Limits.Iterations > 0 {
		out.Limits.Iterations = o.Limits.Iterations
	}
	if o.Stress.Rounds > 0 {
		out.Stress.Rounds = o.Stress.Rounds
	}
	if o.Stress.ChunkSize > 0 {
		out.Stress.ChunkSize = o.Stress.ChunkSize
	}
	if o.Stress.Chunks > 0 {
		out.Stress.Chunks = o.Stress.Chunks
	}

	for _, s := range o.Suites {
		replaced := false
		for i := range out.Suites {
			if out.Suites[i].Name == s.Name {
				out.Suites[i] = s
				replaced = true
				break
			}
		}
		if !replaced {
			out.Suites = append(out.Suites, s)
		}
	}
	return &out
}

// Suite returns the named suite entry.
func (m *Manifest) Suite(name string) (SuiteConfig, error) {
	for _, s := range m.Suites {
		if s.Name == name {
			return s, nil
		}
	}
	return SuiteConfig{}, fmt.Errorf("%w: %q", ErrUnknownSuite, name)
}

// Names returns suite names in manifest order.
func (m *Manifest) Names() []string {
	names := make([]string, len(m.Suites))
	for i, s := range m.Suites {
		names[i] = s.Name
	}
	return names
}
