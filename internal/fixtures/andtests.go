package fixtures

import (
	"context"
	"math"

	"github.com/roach88/optharness/internal/catalog"
	"github.com/roach88/optharness/internal/ir"
)

type integer interface {
	~int8 | ~int16 | ~int32 | ~int64
}

// The reductions below start from res=0 (or a positive start) and and-in
// values each iteration; the shapes differ only in what is and-ed in and how
// the bounds move.

func andCounter[T integer]() T {
	var res T
	for i := T(0); i < 5; i++ {
		res &= i
	}
	return res
}

func andDecrementing[T integer]() T {
	var res T
	tmp := T(-10)
	for i := T(0); i < 50; i++ {
		res &= i
		tmp--
		res &= tmp
	}
	return res
}

func andIncrementing[T integer](lo, hi T) T {
	var res T
	tmp := T(-10)
	for i := lo; i < hi; i++ {
		res &= tmp
		tmp++
	}
	return res
}

func andShrinkingBound[T integer](start T) T {
	res := start
	tmp := T(-10)
	for i := tmp; i < res; i++ {
		res &= tmp
	}
	return res
}

func andMasked[T integer](mask T) T {
	var res T
	for i := T(0); i < 5; i++ {
		res &= mask & i
	}
	return res
}

func andMaskedDecrementing[T integer]() T {
	var res T
	tmp := T(-10)
	for i := T(0); i < 50; i++ {
		res &= i & tmp
		tmp--
	}
	return res
}

func andReassigned() int32 {
	var res int32
	tmp := int32(-10)
	for i := int32(0); i < 50; i++ {
		res = i & tmp
		tmp--
		res &= tmp
	}
	return res
}

func andMaskedIncrementing[T integer](lo, hi T) T {
	var res T
	tmp := T(-10)
	for i := lo; i < hi; i++ {
		res &= tmp & i
		tmp++
	}
	return res
}

func andMaskedShrinkingBound[T integer](start T) T {
	res := start
	tmp := T(-10)
	for i := tmp; i < res; i++ {
		res &= tmp & i
	}
	return res
}

// NewAndTests builds the bitwise-and reduction suite: eight loop shapes for
// each of int, long, byte and short.
func NewAndTests(limits Limits) *catalog.Registry {
	r := catalog.NewRegistry(DefaultGroup)
	add := func(name string, fn func() ir.Value) {
		r.MustRegister(catalog.Descriptor{Name: name}, catalog.Static(
			func(context.Context, []ir.Value) (ir.Value, error) { return fn(), nil }))
	}

	r.MustRegister(catalog.Descriptor{Name: EntryPoint, Kinds: []ir.Kind{ir.KindString}}, catalog.Static(
		func(context.Context, []ir.Value) (ir.Value, error) { return ir.Null{}, nil }))

	iter := limits.MaxIter
	add("testInt1", func() ir.Value { return ir.Int(andCounter[int32]()) })
	add("testInt2", func() ir.Value { return ir.Int(andDecrementing[int32]()) })
	add("testInt3", func() ir.Value { return ir.Int(andIncrementing(0, int32(iter))) })
	add("testInt4", func() ir.Value { return ir.Int(andShrinkingBound[int32](10000)) })
	add("testLong1", func() ir.Value { return ir.Long(andCounter[int64]()) })
	add("testLong2", func() ir.Value { return ir.Long(andDecrementing[int64]()) })
	add("testLong3", func() ir.Value { return ir.Long(andIncrementing(0, int64(iter))) })
	add("testLong4", func() ir.Value { return ir.Long(andShrinkingBound[int64](10000)) })
	add("testByte1", func() ir.Value { return ir.Byte(andCounter[int8]()) })
	add("testByte2", func() ir.Value { return ir.Byte(andDecrementing[int8]()) })
	add("testByte3", func() ir.Value { return ir.Byte(andIncrementing[int8](math.MinInt8, math.MaxInt8)) })
	add("testByte4", func() ir.Value { return ir.Byte(andShrinkingBound[int8](100)) })
	add("testShort1", func() ir.Value { return ir.Short(andCounter[int16]()) })
	add("testShort2", func() ir.Value { return ir.Short(andDecrementing[int16]()) })
	add("testShort3", func() ir.Value { return ir.Short(andIncrementing(0, int16(iter))) })
	add("testShort4", func() ir.Value { return ir.Short(andShrinkingBound[int16](10000)) })

	add("testInt5", func() ir.Value { return ir.Int(andMasked[int32](0)) })
	add("testInt6", func() ir.Value { return ir.Int(andReassigned()) })
	add("testInt7", func() ir.Value { return ir.Int(andMaskedIncrementing(0, int32(iter))) })
	add("testInt8", func() ir.Value { return ir.Int(andMaskedShrinkingBound[int32](10000)) })
	add("testLong5", func() ir.Value { return ir.Long(andMasked[int64](math.MaxInt64)) })
	add("testLong6", func() ir.Value { return ir.Long(andMaskedDecrementing[int64]()) })
	add("testLong7", func() ir.Value { return ir.Long(andMaskedIncrementing(0, int64(iter))) })
	add("testLong8", func() ir.Value { return ir.Long(andMaskedShrinkingBound[int64](10000)) })
	add("testByte5", func() ir.Value { return ir.Byte(andMasked[int8](math.MaxInt8)) })
	add("testByte6", func() ir.Value { return ir.Byte(andMaskedDecrementing[int8]()) })
	add("testByte7", func() ir.Value { return ir.Byte(andMaskedIncrementing[int8](math.MinInt8, math.MaxInt8)) })
	add("testByte8", func() ir.Value { return ir.Byte(andMaskedShrinkingBound[int8](100)) })
	add("testShort5", func() ir.Value { return ir.Short(andMasked(int16(iter))) })
	add("testShort6", func() ir.Value { return ir.Short(andMaskedDecrementing[int16]()) })
	add("testShort7", func() ir.Value { return ir.Short(andMaskedIncrementing(0, int16(iter))) })
	add("testShort8", func() ir.Value { return ir.Short(andMaskedShrinkingBound[int16](10000)) })
	return r
}
