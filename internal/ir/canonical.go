package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces canonical JSON for golden snapshots, run history
// rows and outcome digests.
//
// Differences from json.Marshal:
//  1. Object keys sorted by UTF-16 code units (RFC 8785), not UTF-8 bytes
//  2. No HTML escaping
//  3. Strings are NFC normalized
//  4. Values are written as {"kind": ..., "value": ...} envelopes, with
//     floating point values carried as their rendered string so the bytes
//     never depend on float formatting of the encoder
//
// Accepted inputs: Value, string, bool, int, int64, []string, []any,
// map[string]any. nil is rejected.
func MarshalCanonical(v any) ([]byte, error) {
	return marshalCanonical(v)
}

func marshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in canonical JSON")
	case Value:
		return marshalCanonicalObject(valueEnvelope(val))
	case string:
		return marshalCanonicalString(val)
	case bool:
		return strconv.AppendBool(nil, val), nil
	case int:
		return strconv.AppendInt(nil, int64(val), 10), nil
	case int64:
		return strconv.AppendInt(nil, val, 10), nil
	case []string:
		arr := make([]any, len(val))
		for i, s := range val {
			arr[i] = s
		}
		return marshalCanonicalArray(arr)
	case []any:
		return marshalCanonicalArray(val)
	case map[string]any:
		return marshalCanonicalObject(val)
	case float32, float64:
		return nil, fmt.Errorf("bare floats are forbidden in canonical JSON: %v", val)
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

// valueEnvelope describes a Value as a kind-tagged object.
func valueEnvelope(v Value) map[string]any {
	env := map[string]any{"kind": v.Kind().String()}
	switch val := v.(type) {
	case Null:
	case Int:
		env["value"] = int64(val)
	case Long:
		env["value"] = int64(val)
	case Byte:
		env["value"] = int64(val)
	case Short:
		env["value"] = int64(val)
	case Bool:
		env["value"] = bool(val)
	default:
		env["value"] = v.String()
	}
	return env
}

// MarshalValue is MarshalCanonical restricted to a single Value.
func MarshalValue(v Value) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("nil value")
	}
	return marshalCanonical(v)
}

// UnmarshalValue decodes a kind-tagged envelope written by MarshalValue.
func UnmarshalValue(data []byte) (Value, error) {
	var env struct {
		Kind  string          `json:"kind"`
		Value json.RawMessage `json:"value"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("decode value envelope: %w", err)
	}

	kind, err := ParseKind(env.Kind)
	if err != nil {
		return nil, err
	}
	if kind == KindNull {
		return Null{}, nil
	}
	if len(env.Value) == 0 {
		return nil, fmt.Errorf("value envelope of kind %s has no value", kind)
	}

	switch kind {
	case KindInt, KindLong, KindByte, KindShort:
		n, err := strconv.ParseInt(string(env.Value), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		return Convert(kind, n)
	case KindBool:
		var b bool
		if err := json.Unmarshal(env.Value, &b); err != nil {
			return nil, fmt.Errorf("decode boolean: %w", err)
		}
		return Bool(b), nil
	}

	var s string
	if err := json.Unmarshal(env.Value, &s); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	switch kind {
	case KindString:
		return String(s), nil
	case KindChar:
		return Convert(KindChar, s)
	case KindFloat, KindDouble:
		return parseFloating(kind, s)
	}
	return nil, fmt.Errorf("cannot decode kind %s", kind)
}

// parseFloating reverses formatFloating. strconv accepts the "NaN" and
// "Infinity" spellings directly.
func parseFloating(kind Kind, s string) (Value, error) {
	bits := 64
	if kind == KindFloat {
		bits = 32
	}
	f, err := strconv.ParseFloat(s, bits)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	if kind == KindFloat {
		return Float(f), nil
	}
	return Double(f), nil
}

// marshalCanonicalString produces a canonical JSON string with NFC
// normalization. Only control characters, backslash and quote are escaped;
// HTML characters and U+2028/U+2029 are written literally.
func marshalCanonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	result := bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})
	return unescapeLineSeparators(result), nil
}

// unescapeLineSeparators undoes encoding/json's escaping of U+2028 and
// U+2029. An escape preceded by an odd run of backslashes is literal text
// ("\\u2028") and is left alone.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\\' && i+5 < len(data) && string(data[i+1:i+5]) == "u202" &&
			(data[i+5] == '8' || data[i+5] == '9') {
			run := 0
			for j := len(out) - 1; j >= 0 && out[j] == '\\'; j-- {
				run++
			}
			if run%2 == 0 {
				if data[i+5] == '8' {
					out = append(out, "\u2028"...)
				} else {
					out = append(out, "\u2029"...)
				}
				i += 5
				continue
			}
		}
		out = append(out, data[i])
	}
	return out
}

func marshalCanonicalArray(arr []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		elemBytes, err := marshalCanonical(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(elemBytes)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func marshalCanonicalObject(obj map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := marshalCanonicalString(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := marshalCanonical(obj[k])
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// compareKeysRFC8785 orders strings by UTF-16 code units.
// Go's native string comparison is UTF-8 byte order, which differs for
// characters outside the basic multilingual plane.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
