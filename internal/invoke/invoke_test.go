package invoke_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/optharness/internal/catalog"
	"github.com/roach88/optharness/internal/invoke"
	"github.com/roach88/optharness/internal/ir"
)

var zero = 0

//go:noinline
func divide(n int) int {
	return n / zero
}

//go:noinline
func callsDivide(n int) int {
	return divide(n) + 1
}

//go:noinline
func outerDivide(n int) int {
	return callsDivide(n) + 1
}

func index(i int) int {
	values := []int{1, 2, 3}
	return values[i]
}

//go:noinline
func faultIndex(i int) int {
	values := []int{1, 2, 3}
	return values[i]
}

// rethrowIndex recovers the index fault and panics again with the same value.
//
//go:noinline
func rethrowIndex(i int) int {
	defer func() {
		if r := recover(); r != nil {
			panic(r)
		}
	}()
	return faultIndex(i)
}

type counter struct {
	calls int
}

func (c *counter) Run(context.Context, []ir.Value) (ir.Value, error) {
	c.calls++
	return ir.Int(c.calls), nil
}

func newInvoker(t *testing.T) (*invoke.Invoker, *catalog.Registry) {
	t.Helper()
	reg := catalog.NewRegistry("Main")
	reg.MustRegister(catalog.Descriptor{Name: "testOk"}, catalog.Static(
		func(context.Context, []ir.Value) (ir.Value, error) { return ir.Int(42), nil }))
	reg.MustRegister(catalog.Descriptor{Name: "testVoid"}, catalog.Static(
		func(context.Context, []ir.Value) (ir.Value, error) { return nil, nil }))
	reg.MustRegister(catalog.Descriptor{Name: "testArg", Kinds: []ir.Kind{ir.KindInt}}, catalog.Static(
		func(_ context.Context, args []ir.Value) (ir.Value, error) { return args[0], nil }))
	reg.MustRegister(catalog.Descriptor{Name: "testDivide"}, catalog.Static(
		func(context.Context, []ir.Value) (ir.Value, error) { return ir.Int(outerDivide(1)), nil }))
	reg.MustRegister(catalog.Descriptor{Name: "testIndex"}, catalog.Static(
		func(context.Context, []ir.Value) (ir.Value, error) { return ir.Int(index(7)), nil }))
	reg.MustRegister(catalog.Descriptor{Name: "testRethrow"}, catalog.Static(
		func(context.Context, []ir.Value) (ir.Value, error) { return ir.Int(rethrowIndex(5)), nil }))
	reg.MustRegister(catalog.Descriptor{Name: "testThrow"}, catalog.Static(
		func(context.Context, []ir.Value) (ir.Value, error) {
			return nil, ir.Throw("IllegalStateException", "bad state %d", 3)
		}))
	reg.MustRegister(catalog.Descriptor{Name: "testPlainError"}, catalog.Static(
		func(context.Context, []ir.Value) (ir.Value, error) { return nil, errors.New("boom") }))
	reg.MustRegister(catalog.Descriptor{Name: "testPanicString"}, catalog.Static(
		func(context.Context, []ir.Value) (ir.Value, error) { panic("unexpected") }))
	reg.MustRegister(catalog.Descriptor{Name: "testPrivate", Visibility: catalog.Private}, catalog.Static(
		func(context.Context, []ir.Value) (ir.Value, error) { return ir.Int(1), nil }))
	reg.MustRegister(catalog.Descriptor{Name: "testCounter"}, func() catalog.Invocable { return &counter{} })
	return invoke.New(reg, nil), reg
}

func desc(t *testing.T, reg *catalog.Registry, name string) catalog.Descriptor {
	t.Helper()
	entry, ok := reg.Lookup(name)
	require.True(t, ok, name)
	return entry.Descriptor
}

func TestInvoke_Success(t *testing.T) {
	inv, reg := newInvoker(t)

	out := inv.Invoke(context.Background(), desc(t, reg, "testOk"), nil)
	assert.Equal(t, invoke.Success{Value: ir.Int(42)}, out)
	assert.False(t, invoke.IsHarnessError(out))
	assert.Equal(t, "success", invoke.Label(out))
}

func TestInvoke_NilResultIsNull(t *testing.T) {
	inv, reg := newInvoker(t)

	out := inv.Invoke(context.Background(), desc(t, reg, "testVoid"), nil)
	assert.Equal(t, invoke.Success{Value: ir.Null{}}, out)
}

func TestInvoke_BindsArguments(t *testing.T) {
	inv, reg := newInvoker(t)

	out := inv.Invoke(context.Background(), desc(t, reg, "testArg"), []ir.Value{ir.Int(10)})
	assert.Equal(t, invoke.Success{Value: ir.Int(10)}, out)
}

func TestInvoke_InvalidArgument(t *testing.T) {
	inv, reg := newInvoker(t)
	d := desc(t, reg, "testArg")

	tests := []struct {
		name string
		args []ir.Value
	}{
		{"missing", nil},
		{"extra", []ir.Value{ir.Int(1), ir.Int(2)}},
		{"wrong kind", []ir.Value{ir.Long(1)}},
		{"nil value", []ir.Value{nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := inv.Invoke(context.Background(), d, tt.args)
			f, ok := out.(invoke.Failure)
			require.True(t, ok)
			assert.Equal(t, invoke.InvalidArgument, f.Kind)
			assert.Empty(t, f.Cause.Frames)
			assert.Contains(t, f.Cause.Message, "testArg(int)")
			assert.True(t, invoke.IsHarnessError(out))
		})
	}
}

func TestInvoke_AccessDenied(t *testing.T) {
	inv, reg := newInvoker(t)

	t.Run("private", func(t *testing.T) {
		out := inv.Invoke(context.Background(), desc(t, reg, "testPrivate"), nil)
		f, ok := out.(invoke.Failure)
		require.True(t, ok)
		assert.Equal(t, invoke.AccessDenied, f.Kind)
		assert.True(t, invoke.IsHarnessError(out))
	})

	t.Run("unknown", func(t *testing.T) {
		out := inv.Invoke(context.Background(), catalog.Descriptor{Name: "testGhost"}, nil)
		f, ok := out.(invoke.Failure)
		require.True(t, ok)
		assert.Equal(t, invoke.AccessDenied, f.Kind)
		assert.Contains(t, f.Cause.Message, "testGhost")
	})
}

func TestInvoke_DivideByZero(t *testing.T) {
	inv, reg := newInvoker(t)

	out := inv.Invoke(context.Background(), desc(t, reg, "testDivide"), nil)
	f, ok := out.(invoke.Failure)
	require.True(t, ok)
	assert.Equal(t, invoke.InvocationFailure, f.Kind)
	assert.Equal(t, invoke.ClassArithmetic, f.Cause.CauseClass)
	assert.False(t, invoke.IsHarnessError(out))

	require.Len(t, f.Cause.Frames, 2)
	assert.True(t, strings.HasPrefix(f.Cause.Frames[0], "invoke_test.divide(invoke_test.go:"), f.Cause.Frames[0])
	assert.True(t, strings.HasPrefix(f.Cause.Frames[1], "invoke_test.callsDivide(invoke_test.go:"), f.Cause.Frames[1])
}

func TestInvoke_IndexOutOfRange(t *testing.T) {
	inv, reg := newInvoker(t)

	out := inv.Invoke(context.Background(), desc(t, reg, "testIndex"), nil)
	f, ok := out.(invoke.Failure)
	require.True(t, ok)
	assert.Equal(t, invoke.ClassIndex, f.Cause.CauseClass)
	require.NotEmpty(t, f.Cause.Frames)
	assert.True(t, strings.HasPrefix(f.Cause.Frames[0], "invoke_test.index("), f.Cause.Frames[0])
}

func TestInvoke_RepanicReportsOriginalFault(t *testing.T) {
	inv, reg := newInvoker(t)

	out := inv.Invoke(context.Background(), desc(t, reg, "testRethrow"), nil)
	f, ok := out.(invoke.Failure)
	require.True(t, ok)
	assert.Equal(t, invoke.ClassIndex, f.Cause.CauseClass)
	require.Len(t, f.Cause.Frames, 2)
	assert.True(t, strings.HasPrefix(f.Cause.Frames[0], "invoke_test.faultIndex(invoke_test.go:"), f.Cause.Frames[0])
	assert.True(t, strings.HasPrefix(f.Cause.Frames[1], "invoke_test.rethrowIndex(invoke_test.go:"), f.Cause.Frames[1])
}

func TestInvoke_ThrownFault(t *testing.T) {
	inv, reg := newInvoker(t)

	out := inv.Invoke(context.Background(), desc(t, reg, "testThrow"), nil)
	f, ok := out.(invoke.Failure)
	require.True(t, ok)
	assert.Equal(t, "IllegalStateException", f.Cause.CauseClass)
	assert.Equal(t, "IllegalStateException: bad state 3", f.Cause.Message)
	require.Len(t, f.Cause.Frames, 1)
	assert.True(t, strings.HasPrefix(f.Cause.Frames[0], "invoke_test.newInvoker.func"), f.Cause.Frames[0])
}

func TestInvoke_PlainErrorHasNoFrames(t *testing.T) {
	inv, reg := newInvoker(t)

	out := inv.Invoke(context.Background(), desc(t, reg, "testPlainError"), nil)
	f, ok := out.(invoke.Failure)
	require.True(t, ok)
	assert.Equal(t, invoke.InvocationFailure, f.Kind)
	assert.Equal(t, invoke.ClassRuntime, f.Cause.CauseClass)
	assert.Empty(t, f.Cause.Frames)
}

func TestInvoke_PanicWithString(t *testing.T) {
	inv, reg := newInvoker(t)

	out := inv.Invoke(context.Background(), desc(t, reg, "testPanicString"), nil)
	f, ok := out.(invoke.Failure)
	require.True(t, ok)
	assert.Equal(t, invoke.ClassRuntime, f.Cause.CauseClass)
	assert.Contains(t, f.Cause.Message, "unexpected")
	require.NotEmpty(t, f.Cause.Frames)
	assert.LessOrEqual(t, len(f.Cause.Frames), invoke.MaxFrames)
}

func TestInvoke_FreshInstancePerCall(t *testing.T) {
	inv, reg := newInvoker(t)
	d := desc(t, reg, "testCounter")

	for range 3 {
		out := inv.Invoke(context.Background(), d, nil)
		assert.Equal(t, invoke.Success{Value: ir.Int(1)}, out)
	}
}

func TestInvoke_FailureDoesNotAffectNextTest(t *testing.T) {
	inv, reg := newInvoker(t)

	alone := inv.Invoke(context.Background(), desc(t, reg, "testOk"), nil)
	_ = inv.Invoke(context.Background(), desc(t, reg, "testDivide"), nil)
	_ = inv.Invoke(context.Background(), desc(t, reg, "testPanicString"), nil)
	after := inv.Invoke(context.Background(), desc(t, reg, "testOk"), nil)

	assert.Equal(t, alone, after)
}

func TestDigest(t *testing.T) {
	a, err := invoke.Digest(invoke.Success{Value: ir.Int(0)})
	require.NoError(t, err)
	b, err := invoke.Digest(invoke.Success{Value: ir.Long(0)})
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "kind is part of the digest")

	f1 := invoke.Failure{Kind: invoke.InvocationFailure, Cause: invoke.ErrorInfo{
		CauseClass: invoke.ClassArithmetic, Frames: []string{"x.f(x.go:1)"},
	}}
	f2 := invoke.Failure{Kind: invoke.InvocationFailure, Cause: invoke.ErrorInfo{
		CauseClass: invoke.ClassArithmetic, Frames: []string{"x.f(x.go:9)"},
	}}
	d1, err := invoke.Digest(f1)
	require.NoError(t, err)
	d2, err := invoke.Digest(f2)
	require.NoError(t, err)
	assert.Equal(t, d1, d2, "frame locations are not part of the digest")
}

func TestFailureKindString(t *testing.T) {
	assert.Equal(t, "AccessDenied", invoke.AccessDenied.String())
	assert.Equal(t, "InvalidArgument", invoke.InvalidArgument.String())
	assert.Equal(t, "InvocationFailure", invoke.InvocationFailure.String())
	assert.Equal(t, "FailureKind(9)", invoke.FailureKind(9).String())
}

func TestParseFailureKind(t *testing.T) {
	for _, k := range []invoke.FailureKind{invoke.AccessDenied, invoke.InvalidArgument, invoke.InvocationFailure} {
		parsed, err := invoke.ParseFailureKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	_, err := invoke.ParseFailureKind("success")
	assert.Error(t, err)
}
