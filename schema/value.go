package schema

import (
	"encoding/json"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// Kind identifies the dynamic type held by a Value.
type Kind int

const (
	Absent Kind = iota // no value (missing key, failed decode)
	Null
	String
	Number
	Bool
	List
	Map
)

// Value is a tagged dynamic value as found in node props, styles, and
// data contexts. Accessors return (value, ok) pairs and never panic;
// shapes that do not decode cleanly come back as Absent so that callers
// can fall through to their defaults.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	list []Value
	m    map[string]Value
}

// Kind reports the dynamic type of v.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether v holds nothing at all.
func (v Value) IsAbsent() bool { return v.kind == Absent }

// Str returns the string held by v.
func (v Value) Str() (string, bool) {
	return v.str, v.kind == String
}

// Num returns the number held by v.
func (v Value) Num() (float64, bool) {
	return v.num, v.kind == Number
}

// Int returns the number held by v truncated to an int.
func (v Value) Int() (int, bool) {
	if v.kind != Number || math.IsNaN(v.num) || math.IsInf(v.num, 0) {
		return 0, false
	}
	return int(v.num), true
}

// Bool returns the boolean held by v.
func (v Value) Bool() (bool, bool) {
	return v.b, v.kind == Bool
}

// List returns the elements held by v.
func (v Value) List() ([]Value, bool) {
	return v.list, v.kind == List
}

// Map returns the fields held by v.
func (v Value) Map() (map[string]Value, bool) {
	return v.m, v.kind == Map
}

// Field returns the named field of a map value, or Absent.
func (v Value) Field(key string) Value {
	if v.kind != Map {
		return Value{}
	}
	return v.m[key]
}

// At returns the i-th element of a list value, or Absent.
func (v Value) At(i int) Value {
	if v.kind != List || i < 0 || i >= len(v.list) {
		return Value{}
	}
	return v.list[i]
}

// Interface converts v back to a plain Go value ([]any, map[string]any,
// string, float64, bool, or nil) for use as an expression environment.
func (v Value) Interface() any {
	switch v.kind {
	case String:
		return v.str
	case Number:
		return v.num
	case Bool:
		return v.b
	case List:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.Interface()
		}
		return out
	case Map:
		plain := make(map[string]any, len(v.m))
		for k, e := range v.m {
			plain[k] = e.Interface()
		}
		return plain
	default:
		return nil
	}
}

// StringValue returns a Value holding s.
func StringValue(s string) Value { return Value{kind: String, str: s} }

// NumberValue returns a Value holding n.
func NumberValue(n float64) Value { return Value{kind: Number, num: n} }

// BoolValue returns a Value holding b.
func BoolValue(b bool) Value { return Value{kind: Bool, b: b} }

// ListValue returns a Value holding the given elements.
func ListValue(elems ...Value) Value {
	return Value{kind: List, list: elems}
}

// MapValue returns a Value holding the given fields.
func MapValue(fields map[string]Value) Value {
	return Value{kind: Map, m: fields}
}

// FromAny converts a plain Go value (as produced by encoding/json or
// yaml.v3) into a Value. Unsupported types come back as Absent.
func FromAny(x any) Value {
	switch t := x.(type) {
	case nil:
		return Value{kind: Null}
	case Value:
		return t
	case string:
		return Value{kind: String, str: t}
	case bool:
		return Value{kind: Bool, b: t}
	case float64:
		return Value{kind: Number, num: t}
	case float32:
		return Value{kind: Number, num: float64(t)}
	case int:
		return Value{kind: Number, num: float64(t)}
	case int64:
		return Value{kind: Number, num: float64(t)}
	case uint64:
		return Value{kind: Number, num: float64(t)}
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}
		}
		return Value{kind: Number, num: f}
	case []any:
		list := make([]Value, len(t))
		for i, e := range t {
			list[i] = FromAny(e)
		}
		return Value{kind: List, list: list}
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			m[k] = FromAny(e)
		}
		return Value{kind: Map, m: m}
	case map[any]any:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			m[ks] = FromAny(e)
		}
		return Value{kind: Map, m: m}
	default:
		return Value{}
	}
}

// UnmarshalJSON decodes arbitrary JSON into a tagged Value.
func (v *Value) UnmarshalJSON(data []byte) error {
	var x any
	if err := json.Unmarshal(data, &x); err != nil {
		return fmt.Errorf("schema: decoding value: %w", err)
	}
	*v = FromAny(x)
	return nil
}

// MarshalJSON encodes v back to its plain JSON form. Absent encodes as
// null.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalYAML decodes a YAML node into a tagged Value.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	var x any
	if err := node.Decode(&x); err != nil {
		return fmt.Errorf("schema: decoding value: %w", err)
	}
	*v = FromAny(x)
	return nil
}
