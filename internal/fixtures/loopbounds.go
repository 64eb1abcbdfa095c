package fixtures

import (
	"context"

	"github.com/roach88/optharness/internal/catalog"
	"github.com/roach88/optharness/internal/ir"
)

// DeepFaultDepth is how many calls testDeepFault nests before faulting.
const DeepFaultDepth = 64

type loopBounds struct {
	iterations int
	tab        []int32
}

func newLoopBounds(limits Limits) func() *loopBounds {
	return func() *loopBounds {
		return &loopBounds{iterations: limits.Iterations, tab: make([]int32, limits.Iterations)}
	}
}

func (l *loopBounds) checkSum(n int) int64 {
	var s int64
	for i := 0; i < n; i++ {
		s += int64(l.tab[i])
	}
	return s
}

// fill writes the index into each slot, but only when n is the full table
// size; the bound is not a constant.
func (l *loopBounds) fill(n int) int64 {
	if n == l.iterations {
		for i := 0; i < n; i++ {
			l.tab[i] = int32(i)
		}
	}
	return l.checkSum(n)
}

func (l *loopBounds) testLoop(context.Context, []ir.Value) (ir.Value, error) {
	return ir.Long(l.fill(l.iterations)), nil
}

func (l *loopBounds) testLoopPartial(context.Context, []ir.Value) (ir.Value, error) {
	return ir.Long(l.fill(l.iterations / 2)), nil
}

// descend recurses depth times, then divides by an untouched table slot.
func (l *loopBounds) descend(depth int) int64 {
	if depth == 0 {
		return int64(l.iterations) / int64(l.tab[0])
	}
	return l.descend(depth-1) + 1
}

func (l *loopBounds) testDeepFault(context.Context, []ir.Value) (ir.Value, error) {
	return ir.Long(l.descend(DeepFaultDepth)), nil
}

func (l *loopBounds) testBoundCheck(context.Context, []ir.Value) (ir.Value, error) {
	if n := l.iterations + 1; n > len(l.tab) {
		return nil, ir.Throw("IllegalStateException", "bound %d exceeds table of %d", n, len(l.tab))
	}
	return ir.Long(l.fill(l.iterations)), nil
}

// NewLoopBounds builds the suite exercising loop bounds and deep faults.
func NewLoopBounds(limits Limits) *catalog.Registry {
	r := catalog.NewRegistry(DefaultGroup)
	newSuite := newLoopBounds(limits)

	r.MustRegister(catalog.Descriptor{Name: "testLoop"}, catalog.Method(newSuite, (*loopBounds).testLoop))
	r.MustRegister(catalog.Descriptor{Name: "testLoopPartial"}, catalog.Method(newSuite, (*loopBounds).testLoopPartial))
	r.MustRegister(catalog.Descriptor{Name: "testDeepFault"}, catalog.Method(newSuite, (*loopBounds).testDeepFault))
	r.MustRegister(catalog.Descriptor{Name: "testBoundCheck"}, catalog.Method(newSuite, (*loopBounds).testBoundCheck))
	r.MustRegister(catalog.Descriptor{Name: EntryPoint, Kinds: []ir.Kind{ir.KindString}}, catalog.Static(
		func(context.Context, []ir.Value) (ir.Value, error) { return ir.Null{}, nil }))
	return r
}
