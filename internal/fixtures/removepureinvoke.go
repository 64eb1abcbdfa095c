package fixtures

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/roach88/optharness/internal/catalog"
	"github.com/roach88/optharness/internal/invoke"
	"github.com/roach88/optharness/internal/ir"
)

// StressPairedTest is the removepureinvoke operation the harness runs with a
// background stress worker.
const StressPairedTest = "testWithGCStress"

type pureInvoke struct {
	field int
}

func newPureInvoke() *pureInvoke {
	return &pureInvoke{field: 5}
}

func (p *pureInvoke) getSum(arg int32) int32 {
	return arg + 20
}

// runTest computes a halving sum. n and the floating point arguments feed a
// branch whose result is never used.
func (p *pureInvoke) runTest(x, n int32, a, b float64) float64 {
	n += x

	result := 0
	for i := 0; i < 15000; i++ {
		result += i / 2
	}
	a = ulp(a)
	if n > 6 {
		b += a
	}

	return float64(p.field + result)
}

func (p *pureInvoke) test(_ context.Context, args []ir.Value) (ir.Value, error) {
	return ir.Int(p.compute(int32(args[0].(ir.Int)))), nil
}

func (p *pureInvoke) compute(n int32) int32 {
	other := newPureInvoke()
	return int32(other.runTest(11, n, 45, 7))
}

// testWithGCStress renders its result as a string. A fault raised by the
// computation becomes the result instead of failing the test. The stress
// worker itself is started by the harness around this call.
func (p *pureInvoke) testWithGCStress(_ context.Context, args []ir.Value) (ir.Value, error) {
	n := int32(args[0].(ir.Int))
	return ir.String(guardString(func() int32 { return p.compute(n) })), nil
}

// guardString runs fn and renders its result, or the fault it panicked with.
func guardString(fn func() int32) (res string) {
	defer func() {
		if r := recover(); r != nil {
			res += faultString(r)
		}
	}()
	res += strconv.FormatInt(int64(fn()), 10)
	return res
}

// faultString renders a recovered panic as "<class>: <message>".
func faultString(r any) string {
	err, ok := r.(error)
	if !ok {
		return invoke.ClassRuntime + ": " + fmt.Sprint(r)
	}
	var fault *ir.Fault
	if errors.As(err, &fault) {
		return fault.Error()
	}
	return invoke.Classify(err) + ": " + err.Error()
}

func (p *pureInvoke) getSumOp(_ context.Context, args []ir.Value) (ir.Value, error) {
	return ir.Int(p.getSum(int32(args[0].(ir.Int)))), nil
}

func (p *pureInvoke) runTestOp(_ context.Context, args []ir.Value) (ir.Value, error) {
	x := int32(args[0].(ir.Int))
	n := int32(args[1].(ir.Int))
	a := float64(args[2].(ir.Double))
	b := float64(args[3].(ir.Double))
	return ir.Double(p.runTest(x, n, a, b)), nil
}

func (p *pureInvoke) runTests(context.Context, []ir.Value) (ir.Value, error) {
	return ir.Null{}, nil
}

// NewRemovePureInvoke builds the suite whose tests take one int argument.
// getSum is private and runTest/runTests are drivers; none of them match the
// "test" prefix the suite is run with.
func NewRemovePureInvoke(Limits) *catalog.Registry {
	r := catalog.NewRegistry(DefaultGroup)
	intArg := []ir.Kind{ir.KindInt}

	r.MustRegister(catalog.Descriptor{Name: "getSum", Kinds: intArg, Visibility: catalog.Private},
		catalog.Method(newPureInvoke, (*pureInvoke).getSumOp))
	r.MustRegister(catalog.Descriptor{Name: "runTest", Kinds: []ir.Kind{ir.KindInt, ir.KindInt, ir.KindDouble, ir.KindDouble}},
		catalog.Method(newPureInvoke, (*pureInvoke).runTestOp))
	r.MustRegister(catalog.Descriptor{Name: "test", Kinds: intArg},
		catalog.Method(newPureInvoke, (*pureInvoke).test))
	r.MustRegister(catalog.Descriptor{Name: StressPairedTest, Kinds: intArg},
		catalog.Method(newPureInvoke, (*pureInvoke).testWithGCStress))
	r.MustRegister(catalog.Descriptor{Name: "runTests"},
		catalog.Method(newPureInvoke, (*pureInvoke).runTests))
	r.MustRegister(catalog.Descriptor{Name: EntryPoint, Kinds: []ir.Kind{ir.KindString}},
		catalog.Method(newPureInvoke, (*pureInvoke).runTests))
	return r
}
