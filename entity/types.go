package entity

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"unique"
)

// Kind identifies the concrete type stored in a Value.
type Kind uint8

const (
	// KindInvalid represents an invalid kind.
	KindInvalid Kind = iota
	// KindNull represents an absent value.
	KindNull
	// KindInt represents a 64-bit integer value.
	KindInt
	// KindInt32 represents a 32-bit integer value.
	KindInt32
	// KindFloat represents a float value.
	KindFloat
	// KindString represents a string value.
	KindString
	// KindBool represents a boolean value.
	KindBool
	// KindAny represents an arbitrary boxed value.
	KindAny
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindInt:
		return "Int"
	case KindInt32:
		return "Int32"
	case KindFloat:
		return "Float"
	case KindString:
		return "String"
	case KindBool:
		return "Bool"
	case KindAny:
		return "Any"
	default:
		return "Invalid"
	}
}

// Value is a small typed value used for entity attributes.
//
// The representation is designed to make shard packing and index keying fast
// and predictable: no reflection on the primitive paths.
//
// NOTE: This is also used for persistence; keep it stable.
type Value struct {
	Kind Kind                  `json:"k"`
	I64  int64                 `json:"i,omitempty"`
	F64  float64               `json:"f,omitempty"`
	s    unique.Handle[string] `json:"-"` // Private interned string
	B    bool                  `json:"b,omitempty"`
	V    any                   `json:"v,omitempty"` // KindAny payload
}

// Null returns the absent-value marker.
func Null() Value { return Value{Kind: KindNull} }

// Int returns a 64-bit integer value.
func Int(v int64) Value { return Value{Kind: KindInt, I64: v} }

// Int32 returns a 32-bit integer value.
func Int32(v int32) Value { return Value{Kind: KindInt32, I64: int64(v)} }

// Float returns a float value.
func Float(v float64) Value { return Value{Kind: KindFloat, F64: v} }

// String returns an interned string value.
func String(v string) Value { return Value{Kind: KindString, s: unique.Make(v)} }

// Bool returns a boolean value.
func Bool(v bool) Value { return Value{Kind: KindBool, B: v} }

// Any returns a boxed value of arbitrary type.
func Any(v any) Value { return Value{Kind: KindAny, V: v} }

// IsNull reports whether the value is the absent-value marker.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// AsInt64 returns the int64 value if Kind is KindInt or KindInt32.
func (v Value) AsInt64() (int64, bool) {
	if v.Kind != KindInt && v.Kind != KindInt32 {
		return 0, false
	}
	return v.I64, true
}

// AsInt32 returns the int32 value if Kind is KindInt32.
func (v Value) AsInt32() (int32, bool) {
	if v.Kind != KindInt32 {
		return 0, false
	}
	return int32(v.I64), true
}

// AsFloat64 returns the float64 value if Kind is KindFloat.
func (v Value) AsFloat64() (float64, bool) {
	if v.Kind != KindFloat {
		return 0, false
	}
	return v.F64, true
}

// AsString returns the string value if Kind is KindString.
func (v Value) AsString() (string, bool) {
	if v.Kind != KindString {
		return "", false
	}
	return v.s.Value(), true
}

// AsBool returns the boolean value if Kind is KindBool.
func (v Value) AsBool() (bool, bool) {
	if v.Kind != KindBool {
		return false, false
	}
	return v.B, true
}

// AsAny returns the boxed value if Kind is KindAny.
func (v Value) AsAny() (any, bool) {
	if v.Kind != KindAny {
		return nil, false
	}
	return v.V, true
}

// Key returns a stable string representation for use in index maps.
//
// It is intended for internal indexing (value-to-position lookup) and must
// remain stable across versions for persisted collections.
func (v Value) Key() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindInt:
		return "i:" + strconv.FormatInt(v.I64, 10)
	case KindInt32:
		return "i32:" + strconv.FormatInt(v.I64, 10)
	case KindFloat:
		return "f:" + strconv.FormatUint(math.Float64bits(v.F64), 16)
	case KindString:
		return "s:" + v.s.Value()
	case KindBool:
		if v.B {
			return "b:1"
		}
		return "b:0"
	case KindAny:
		return fmt.Sprintf("o:%T:%v", v.V, v.V)
	default:
		return "invalid"
	}
}

// Equal reports whether two values hold the same kind and content.
// KindAny values are compared via their Key representation.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindInt, KindInt32:
		return v.I64 == o.I64
	case KindFloat:
		return math.Float64bits(v.F64) == math.Float64bits(o.F64)
	case KindString:
		return v.s == o.s
	case KindBool:
		return v.B == o.B
	case KindAny:
		return v.Key() == o.Key()
	default:
		return false
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	type Alias Value
	aux := &struct {
		S string `json:"s,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(&v),
	}
	if v.Kind == KindString {
		aux.S = v.s.Value()
	}
	return json.Marshal(aux)
}

// UnmarshalJSON implements json.Unmarshaler.
//
// KindAny payloads round-trip through JSON, so numeric boxed values decode as
// float64 and structured values as map[string]any.
func (v *Value) UnmarshalJSON(data []byte) error {
	type Alias Value
	aux := &struct {
		S string `json:"s,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(v),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if v.Kind == KindString {
		v.s = unique.Make(aux.S)
	}
	return nil
}
