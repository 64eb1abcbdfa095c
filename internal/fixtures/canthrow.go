package fixtures

import (
	"context"
	"runtime"
	"strings"

	"github.com/roach88/optharness/internal/catalog"
	"github.com/roach88/optharness/internal/ir"
)

// canThrow fills a table with a loop whose body can fault.
type canThrow struct {
	iterations int
	tab        []int64
}

func newCanThrow(limits Limits) func() *canThrow {
	return func() *canThrow {
		return &canThrow{iterations: limits.Iterations, tab: make([]int64, limits.Iterations)}
	}
}

func (c *canThrow) checkSum(n int) int64 {
	var s int64
	for i := 0; i < n; i++ {
		s += c.tab[i]
	}
	return s
}

// divideLoop divides by i-1, so it faults on the second iteration.
func (c *canThrow) divideLoop() {
	for i := 0; i < c.iterations; i++ {
		c.tab[i] = int64(i / (i - 1))
	}
}

// testCatchDivide recovers the division fault inside the test and returns
// the checksum of what was filled before it.
func (c *canThrow) testCatchDivide(context.Context, []ir.Value) (ir.Value, error) {
	if err := catchArithmetic(c.divideLoop); err == nil {
		return nil, ir.Throw("IllegalStateException", "division loop completed without a fault")
	}
	return ir.Long(c.checkSum(c.iterations)), nil
}

// testDivide lets the division fault escape.
func (c *canThrow) testDivide(context.Context, []ir.Value) (ir.Value, error) {
	c.divideLoop()
	return ir.Long(c.checkSum(c.iterations)), nil
}

// testIndex reads one element past the table.
func (c *canThrow) testIndex(context.Context, []ir.Value) (ir.Value, error) {
	return ir.Long(c.checkSum(c.iterations + 1)), nil
}

type holder struct {
	value int
}

func setValue(h *holder, v int) {
	h.value = v
}

// testNullSet stores through a table of holders where only even slots are
// populated.
func (c *canThrow) testNullSet(context.Context, []ir.Value) (ir.Value, error) {
	things := make([]*holder, 10)
	for i := 0; i < len(things); i += 2 {
		things[i] = &holder{}
	}
	for i, h := range things {
		setValue(h, i)
	}
	return ir.Int(things[len(things)-2].value), nil
}

// catchArithmetic runs fn and returns a division fault as an error. Any other
// panic propagates.
func catchArithmetic(fn func()) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if rtErr, ok := r.(runtime.Error); ok && strings.Contains(rtErr.Error(), "divide by zero") {
			err = rtErr
			return
		}
		panic(r)
	}()
	fn()
	return nil
}

// NewCanThrow builds the suite of loops that can fault.
func NewCanThrow(limits Limits) *catalog.Registry {
	r := catalog.NewRegistry(DefaultGroup)
	newSuite := newCanThrow(limits)

	r.MustRegister(catalog.Descriptor{Name: "testNullSet"}, catalog.Method(newSuite, (*canThrow).testNullSet))
	r.MustRegister(catalog.Descriptor{Name: "testIndex"}, catalog.Method(newSuite, (*canThrow).testIndex))
	r.MustRegister(catalog.Descriptor{Name: "testDivide"}, catalog.Method(newSuite, (*canThrow).testDivide))
	r.MustRegister(catalog.Descriptor{Name: "testCatchDivide"}, catalog.Method(newSuite, (*canThrow).testCatchDivide))
	r.MustRegister(catalog.Descriptor{Name: EntryPoint, Kinds: []ir.Kind{ir.KindString}}, catalog.Static(
		func(context.Context, []ir.Value) (ir.Value, error) { return ir.Null{}, nil }))
	return r
}
