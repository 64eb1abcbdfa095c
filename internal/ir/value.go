package ir

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind tags the primitive type of a test parameter or result.
type Kind int

const (
	KindInvalid Kind = iota
	KindInt
	KindLong
	KindByte
	KindShort
	KindChar
	KindBool
	KindFloat
	KindDouble
	KindString
	KindNull
)

var kindNames = map[Kind]string{
	KindInt:    "int",
	KindLong:   "long",
	KindByte:   "byte",
	KindShort:  "short",
	KindChar:   "char",
	KindBool:   "boolean",
	KindFloat:  "float",
	KindDouble: "double",
	KindString: "string",
	KindNull:   "null",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind resolves a kind name as written in run manifests.
// "bool" is accepted as an alias of "boolean".
func ParseKind(name string) (Kind, error) {
	if name == "bool" {
		return KindBool, nil
	}
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return KindInvalid, fmt.Errorf("unknown kind %q", name)
}

// Value is a sealed interface over the primitive-or-string values a test
// operation can take or return. Only the types in this file implement it.
type Value interface {
	Kind() Kind

	// String renders the value the way fixture result lines print it.
	String() string

	irValue()
}

// Int is a 32-bit signed integer.
type Int int32

// Long is a 64-bit signed integer.
type Long int64

// Byte is an 8-bit signed integer.
type Byte int8

// Short is a 16-bit signed integer.
type Short int16

// Char is a UTF-16 code unit.
type Char uint16

// Bool is a boolean.
type Bool bool

// Float is a 32-bit IEEE 754 value.
type Float float32

// Double is a 64-bit IEEE 754 value.
type Double float64

// String is a text value.
type String string

// Null is the absent value, returned by operations with no result.
type Null struct{}

func (Int) irValue()    {}
func (Long) irValue()   {}
func (Byte) irValue()   {}
func (Short) irValue()  {}
func (Char) irValue()   {}
func (Bool) irValue()   {}
func (Float) irValue()  {}
func (Double) irValue() {}
func (String) irValue() {}
func (Null) irValue()   {}

func (Int) Kind() Kind    { return KindInt }
func (Long) Kind() Kind   { return KindLong }
func (Byte) Kind() Kind   { return KindByte }
func (Short) Kind() Kind  { return KindShort }
func (Char) Kind() Kind   { return KindChar }
func (Bool) Kind() Kind   { return KindBool }
func (Float) Kind() Kind  { return KindFloat }
func (Double) Kind() Kind { return KindDouble }
func (String) Kind() Kind { return KindString }
func (Null) Kind() Kind   { return KindNull }

func (v Int) String() string   { return strconv.FormatInt(int64(v), 10) }
func (v Long) String() string  { return strconv.FormatInt(int64(v), 10) }
func (v Byte) String() string  { return strconv.FormatInt(int64(v), 10) }
func (v Short) String() string { return strconv.FormatInt(int64(v), 10) }
func (v Char) String() string  { return string(rune(v)) }
func (v String) String() string {
	return string(v)
}
func (Null) String() string { return "null" }

func (v Bool) String() string {
	if v {
		return "true"
	}
	return "false"
}

func (v Float) String() string  { return formatFloating(float64(v), 32) }
func (v Double) String() string { return formatFloating(float64(v), 64) }

// formatFloating renders a floating point value in the fixture output
// format: integral values keep a ".0" suffix, magnitudes outside
// [1e-3, 1e7) use scientific notation with an unsigned exponent ("1.0E10").
func formatFloating(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}

	abs := math.Abs(f)
	if abs >= 1e-3 && abs < 1e7 {
		s := strconv.FormatFloat(f, 'f', -1, bits)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}

	s := strconv.FormatFloat(f, 'E', -1, bits)
	mantissa, exp, _ := strings.Cut(s, "E")
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	exp = strings.TrimPrefix(exp, "+")
	neg := strings.HasPrefix(exp, "-")
	exp = strings.TrimLeft(strings.TrimPrefix(exp, "-"), "0")
	if exp == "" {
		exp = "0"
	}
	if neg {
		exp = "-" + exp
	}
	return mantissa + "E" + exp
}

// FromGo converts a decoded manifest value (YAML or JSON scalar) into a
// Value. Plain integers become Int when they fit in 32 bits and Long
// otherwise. A single-key map names the kind explicitly:
//
//	{long: 10}   -> Long(10)
//	{char: "a"}  -> Char('a')
//	{double: 1}  -> Double(1)
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case int:
		return intValue(int64(val)), nil
	case int32:
		return Int(val), nil
	case int64:
		return intValue(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d out of range", val)
		}
		return intValue(int64(val)), nil
	case float32:
		return Float(val), nil
	case float64:
		return Double(val), nil
	case map[string]any:
		if len(val) != 1 {
			return nil, fmt.Errorf("typed value must have exactly one kind key, got %d", len(val))
		}
		for name, raw := range val {
			kind, err := ParseKind(name)
			if err != nil {
				return nil, err
			}
			return Convert(kind, raw)
		}
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

func intValue(n int64) Value {
	if n >= math.MinInt32 && n <= math.MaxInt32 {
		return Int(n)
	}
	return Long(n)
}

// Convert coerces a decoded scalar into a value of the given kind.
// Integral targets reject values that do not fit.
func Convert(kind Kind, raw any) (Value, error) {
	switch kind {
	case KindString:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("string value expected, got %T", raw)
		}
		return String(s), nil
	case KindBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("boolean value expected, got %T", raw)
		}
		return Bool(b), nil
	case KindChar:
		s, ok := raw.(string)
		if !ok || len([]rune(s)) != 1 {
			return nil, fmt.Errorf("char value must be a single character, got %v", raw)
		}
		r := []rune(s)[0]
		if r > 0xFFFF {
			return nil, fmt.Errorf("char value %q outside the basic multilingual plane", s)
		}
		return Char(r), nil
	case KindFloat, KindDouble:
		var f float64
		switch n := raw.(type) {
		case int:
			f = float64(n)
		case int64:
			f = float64(n)
		case float64:
			f = n
		default:
			return nil, fmt.Errorf("numeric value expected, got %T", raw)
		}
		if kind == KindFloat {
			return Float(f), nil
		}
		return Double(f), nil
	case KindNull:
		if raw != nil {
			return nil, fmt.Errorf("null value expected, got %T", raw)
		}
		return Null{}, nil
	}

	var n int64
	switch i := raw.(type) {
	case int:
		n = int64(i)
	case int64:
		n = i
	default:
		return nil, fmt.Errorf("integer value expected, got %T", raw)
	}
	switch kind {
	case KindInt:
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, fmt.Errorf("int value %d out of range", n)
		}
		return Int(n), nil
	case KindLong:
		return Long(n), nil
	case KindByte:
		if n < math.MinInt8 || n > math.MaxInt8 {
			return nil, fmt.Errorf("byte value %d out of range", n)
		}
		return Byte(n), nil
	case KindShort:
		if n < math.MinInt16 || n > math.MaxInt16 {
			return nil, fmt.Errorf("short value %d out of range", n)
		}
		return Short(n), nil
	}
	return nil, fmt.Errorf("cannot convert to %s", kind)
}
