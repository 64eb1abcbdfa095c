package fixtures

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/optharness/internal/catalog"
)

// Limits are the iteration bounds shared by the suites.
type Limits struct {
	// MaxIter bounds the reduction loops of the andtests suite.
	MaxIter int `yaml:"max_iter" json:"max_iter"`

	// Iterations sizes the tables filled by the canthrow and loopbounds
	// suites.
	Iterations int `yaml:"iterations" json:"iterations"`
}

// DefaultLimits returns the bounds the expected outputs are written for.
func DefaultLimits() Limits {
	return Limits{MaxIter: 999, Iterations: 0x40000}
}

// WithDefaults fills zero fields from DefaultLimits.
func (l Limits) WithDefaults() Limits {
	def := DefaultLimits()
	if l.MaxIter <= 0 {
		l.MaxIter = def.MaxIter
	}
	if l.Iterations <= 0 {
		l.Iterations = def.Iterations
	}
	return l
}

// Builder creates a suite's registry.
type Builder func(Limits) *catalog.Registry

// Suite names.
const (
	AndTests         = "andtests"
	RemovePureInvoke = "removepureinvoke"
	CanThrow         = "canthrow"
	LoopBounds       = "loopbounds"
)

// EntryPoint is the name every suite registers its driver under.
const EntryPoint = "main"

// DefaultGroup is stamped on every fixture descriptor.
const DefaultGroup = "Main"

var builders = map[string]Builder{
	AndTests:         NewAndTests,
	RemovePureInvoke: NewRemovePureInvoke,
	CanThrow:         NewCanThrow,
	LoopBounds:       NewLoopBounds,
}

// ErrUnknownSuite is returned by Build for a name with no builder.
var ErrUnknownSuite = errors.New("unknown suite")

// Names returns every suite name, sorted.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Build creates the registry for the named suite.
func Build(name string, limits Limits) (*catalog.Registry, error) {
	b, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownSuite, name, Names())
	}
	return b(limits.WithDefaults()), nil
}
