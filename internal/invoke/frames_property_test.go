package invoke_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/roach88/optharness/internal/catalog"
	"github.com/roach88/optharness/internal/invoke"
	"github.com/roach88/optharness/internal/ir"
)

//go:noinline
func recurse(depth int) int {
	if depth == 0 {
		return divide(depth)
	}
	return recurse(depth-1) + 1
}

//go:noinline
func recurseThrow(depth int) error {
	if depth == 0 {
		return ir.Throw("StackOverflowError", "depth exhausted")
	}
	return recurseThrow(depth - 1)
}

func TestInvoke_FramesBoundedProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		depth := rapid.IntRange(0, 200).Draw(rt, "depth")
		throw := rapid.Bool().Draw(rt, "throw")

		reg := catalog.NewRegistry("Main")
		reg.MustRegister(catalog.Descriptor{Name: "testDeep"}, catalog.Static(
			func(context.Context, []ir.Value) (ir.Value, error) {
				if throw {
					return nil, recurseThrow(depth)
				}
				return ir.Int(recurse(depth)), nil
			}))
		entry, _ := reg.Lookup("testDeep")

		out := invoke.New(reg, nil).Invoke(context.Background(), entry.Descriptor, nil)
		f, ok := out.(invoke.Failure)
		require.True(rt, ok)
		require.Equal(rt, invoke.InvocationFailure, f.Kind)
		require.LessOrEqual(rt, len(f.Cause.Frames), invoke.MaxFrames)
		require.NotEmpty(rt, f.Cause.Frames)

		innermost := "invoke_test.divide("
		if throw {
			innermost = "invoke_test.recurseThrow("
		}
		require.True(rt, strings.HasPrefix(f.Cause.Frames[0], innermost), f.Cause.Frames[0])
		for _, frame := range f.Cause.Frames {
			require.NotContains(rt, frame, "runtime.")
			require.NotContains(rt, frame, "invoke.")
		}
	})
}
