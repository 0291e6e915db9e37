package reactive

import (
	"math"
	"strconv"
)

// Kind identifies the type held by a Value.
type Kind uint8

const (
	KindNone Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindBool:
		return "Bool"
	case KindString:
		return "String"
	default:
		return "Kind(?)"
	}
}

// Value is the closed sum of types a signal can hold. The zero Value is
// the None value.
type Value struct {
	kind Kind
	num  uint64
	str  string
}

// None is the absent value.
var None = Value{}

// Int returns an integer value.
func Int(v int64) Value {
	return Value{kind: KindInt, num: uint64(v)}
}

// Float returns a floating-point value.
func Float(v float64) Value {
	return Value{kind: KindFloat, num: math.Float64bits(v)}
}

// Bool returns a boolean value.
func Bool(v bool) Value {
	var n uint64
	if v {
		n = 1
	}
	return Value{kind: KindBool, num: n}
}

// String returns a text value.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Kind returns the kind of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNone reports whether the value is absent.
func (v Value) IsNone() bool {
	return v.kind == KindNone
}

// Int returns the integer content, or 0 for other kinds.
func (v Value) Int() int64 {
	if v.kind != KindInt {
		return 0
	}
	return int64(v.num)
}

// Float returns the floating-point content, or 0 for other kinds.
func (v Value) Float() float64 {
	if v.kind != KindFloat {
		return 0
	}
	return math.Float64frombits(v.num)
}

// Bool returns the boolean content, or false for other kinds.
func (v Value) Bool() bool {
	return v.kind == KindBool && v.num != 0
}

// Str returns the text content, or "" for other kinds.
func (v Value) Str() string {
	if v.kind != KindString {
		return ""
	}
	return v.str
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && v.num == o.num && v.str == o.str
}

// Display stringifies the value for attribute and text emission: text
// as-is, integers and floats via their default textual form, booleans
// as "true"/"false", None as the empty string.
func (v Value) Display() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(int64(v.num), 10)
	case KindFloat:
		return strconv.FormatFloat(math.Float64frombits(v.num), 'f', -1, 64)
	case KindBool:
		if v.num != 0 {
			return "true"
		}
		return "false"
	case KindString:
		return v.str
	default:
		return ""
	}
}
