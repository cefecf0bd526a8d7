// Package variant models the host's dynamically typed value.
// A Variant is immutable once constructed, so copies alias the same
// payload safely. The zero Variant is the empty value.
package variant

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Kind is the dynamic type tag of a Variant.
type Kind uint8

const (
	Empty Kind = iota
	Bool
	Int
	Float
	String
	Bytes
	Ref
	Array
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "Empty"
	case Bool:
		return "Bool"
	case Int:
		return "Int"
	case Float:
		return "Float"
	case String:
		return "String"
	case Bytes:
		return "Bytes"
	case Ref:
		return "Ref"
	case Array:
		return "Array"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Variant is an opaque dynamically typed value.
type Variant struct {
	kind  Kind
	num   uint64
	str   string
	bytes []byte
	items []Variant
}

func FromBool(b bool) Variant {
	if b {
		return Variant{kind: Bool, num: 1}
	}
	return Variant{kind: Bool}
}

func FromInt(i int64) Variant { return Variant{kind: Int, num: uint64(i)} }

func FromFloat(f float64) Variant { return Variant{kind: Float, num: math.Float64bits(f)} }

func FromString(s string) Variant { return Variant{kind: String, str: s} }

// FromBytes copies b.
func FromBytes(b []byte) Variant {
	return Variant{kind: Bytes, bytes: append([]byte(nil), b...)}
}

// FromRef wraps a handle id.
func FromRef(id uint64) Variant { return Variant{kind: Ref, num: id} }

// FromArray copies the element slice, elements themselves alias.
func FromArray(items ...Variant) Variant {
	return Variant{kind: Array, items: append([]Variant(nil), items...)}
}

// Of converts a Go value into a Variant.
func Of(v any) (Variant, error) {
	switch v := v.(type) {
	case nil:
		return Variant{}, nil
	case Variant:
		return v, nil
	case bool:
		return FromBool(v), nil
	case int:
		return FromInt(int64(v)), nil
	case int8:
		return FromInt(int64(v)), nil
	case int16:
		return FromInt(int64(v)), nil
	case int32:
		return FromInt(int64(v)), nil
	case int64:
		return FromInt(v), nil
	case uint:
		return FromInt(int64(v)), nil
	case uint8:
		return FromInt(int64(v)), nil
	case uint16:
		return FromInt(int64(v)), nil
	case uint32:
		return FromInt(int64(v)), nil
	case uint64:
		return FromInt(int64(v)), nil
	case float32:
		return FromFloat(float64(v)), nil
	case float64:
		return FromFloat(v), nil
	case string:
		return FromString(v), nil
	case []byte:
		return FromBytes(v), nil
	case []Variant:
		return FromArray(v...), nil
	}
	return Variant{}, fmt.Errorf("unsupported value type %T", v)
}

// MustOf is like Of but panics on unsupported types.
func MustOf(v any) Variant {
	r, err := Of(v)
	if err != nil {
		panic(err)
	}
	return r
}

func (v Variant) Kind() Kind { return v.kind }

// IsEmpty reports whether v is the default value.
func (v Variant) IsEmpty() bool { return v.kind == Empty }

// Clone returns a copy aliasing the same payload.
func (v Variant) Clone() Variant { return v }

// AsString returns the string content if v holds a string.
func (v Variant) AsString() (string, bool) {
	if v.kind != String {
		return "", false
	}
	return v.str, true
}

// AsBytes returns a fresh copy of the raw byte representation of the
// value. Empty and Array values have none.
func (v Variant) AsBytes() ([]byte, bool) {
	switch v.kind {
	case Bool:
		return []byte{byte(v.num)}, true
	case Int, Float, Ref:
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, v.num)
		return b, true
	case String:
		return []byte(v.str), true
	case Bytes:
		return append([]byte(nil), v.bytes...), true
	}
	return nil, false
}

func (v Variant) AsBool() (bool, bool) { return v.num != 0, v.kind == Bool }

func (v Variant) AsInt() (int64, bool) { return int64(v.num), v.kind == Int }

func (v Variant) AsFloat() (float64, bool) {
	return math.Float64frombits(v.num), v.kind == Float
}

func (v Variant) AsRef() (uint64, bool) { return v.num, v.kind == Ref }

func (v Variant) AsArray() ([]Variant, bool) { return v.items, v.kind == Array }

// Interface returns the Go representation of v.
// Empty maps to nil and Array to []any.
func (v Variant) Interface() any {
	switch v.kind {
	case Bool:
		return v.num != 0
	case Int:
		return int64(v.num)
	case Float:
		return math.Float64frombits(v.num)
	case String:
		return v.str
	case Bytes:
		return append([]byte{}, v.bytes...)
	case Ref:
		return v.num
	case Array:
		out := make([]any, len(v.items))
		for i := range v.items {
			out[i] = v.items[i].Interface()
		}
		return out
	}
	return nil
}

func (v Variant) String() string {
	switch v.kind {
	case Empty:
		return "<empty>"
	case String:
		return fmt.Sprintf("%q", v.str)
	case Ref:
		return fmt.Sprintf("ref#%d", v.num)
	}
	return fmt.Sprint(v.Interface())
}
