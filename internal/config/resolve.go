package config

import (
	"fmt"

	"github.com/roach88/optharness/internal/catalog"
	"github.com/roach88/optharness/internal/fixtures"
	"github.com/roach88/optharness/internal/harness"
	"github.com/roach88/optharness/internal/ir"
	"github.com/roach88/optharness/internal/report"
	"github.com/roach88/optharness/internal/stress"
)

// Plan is a suite entry resolved into what a run needs.
type Plan struct {
	Suite       string
	Description string
	Style       report.Style
	Run         harness.Config
}

// Resolve builds the run plan for the named suite.
func (m *Manifest) Resolve(name string) (*Plan, error) {
	s, err := m.Suite(name)
	if err != nil {
		return nil, err
	}

	style, err := report.ParseStyle(s.Style)
	if err != nil {
		return nil, fmt.Errorf("suite %s: %w", name, err)
	}
	cmp, err := catalog.ParseComparator(s.Order)
	if err != nil {
		return nil, fmt.Errorf("suite %s: %w", name, err)
	}
	sel, err := catalog.ParseSelector(s.Select.Exclude, s.Select.Prefix)
	if err != nil {
		return nil, fmt.Errorf("suite %s: %w", name, err)
	}
	args, err := convertArgs(s.Args)
	if err != nil {
		return nil, fmt.Errorf("suite %s: %w", name, err)
	}

	reg, err := buildRegistry(name, s.Group, m.Limits)
	if err != nil {
		return nil, err
	}

	return &Plan{
		Suite:       name,
		Description: s.Description,
		Style:       style,
		Run: harness.Config{
			Suite:      name,
			Registry:   reg,
			Selector:   sel,
			Comparator: cmp,
			Args:       args,
			StressTest: s.StressTest,
			Stress: stress.Options{
				Rounds:    m.Stress.Rounds,
				ChunkSize: m.Stress.ChunkSize,
				Chunks:    m.Stress.Chunks,
			},
		},
	}, nil
}

// buildRegistry builds the fixture registry, re-stamping descriptors with
// group when the manifest overrides it.
func buildRegistry(name, group string, limits fixtures.Limits) (*catalog.Registry, error) {
	reg, err := fixtures.Build(name, limits)
	if err != nil {
		return nil, err
	}
	if group == "" || group == reg.Group() {
		return reg, nil
	}

	regrouped := catalog.NewRegistry(group)
	for _, testName := range reg.Names() {
		entry, _ := reg.Lookup(testName)
		desc := entry.Descriptor
		desc.Group = group
		if err := regrouped.Register(desc, entry.New); err != nil {
			return nil, err
		}
	}
	return regrouped, nil
}

func convertArgs(raw []any) ([]ir.Value, error) {
	args := make([]ir.Value, len(raw))
	for i, r := range raw {
		v, err := ir.FromGo(r)
		if err != nil {
			return nil, fmt.Errorf("args[%d]: %w", i, err)
		}
		args[i] = v
	}
	return args, nil
}
