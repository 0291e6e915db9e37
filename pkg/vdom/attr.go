package vdom

import (
	"math"
	"strconv"
)

// HandlerAttr carries an element's registered handler id to the host,
// emitted alongside every NewEventListener so the host capture layer
// can resolve which handler to dispatch.
const HandlerAttr = "data-lumen-h"

// AttrKind identifies the type of a dynamic attribute value.
type AttrKind uint8

const (
	AttrNone AttrKind = iota
	AttrText
	AttrInt
	AttrFloat
	AttrBool
	AttrEvent
)

// AttrValue is the closed sum of values a dynamic attribute slot can
// hold. The zero AttrValue is the absent value. Event values bind the
// slot's name as an event listener routed to a registered handler.
type AttrValue struct {
	kind    AttrKind
	num     uint64
	str     string
	handler uint32
}

// NoAttr is the absent attribute value.
var NoAttr = AttrValue{}

// TextAttr returns a text attribute value.
func TextAttr(s string) AttrValue {
	return AttrValue{kind: AttrText, str: s}
}

// IntAttr returns an integer attribute value.
func IntAttr(v int64) AttrValue {
	return AttrValue{kind: AttrInt, num: uint64(v)}
}

// FloatAttr returns a floating-point attribute value.
func FloatAttr(v float64) AttrValue {
	return AttrValue{kind: AttrFloat, num: math.Float64bits(v)}
}

// BoolAttr returns a boolean attribute value.
func BoolAttr(v bool) AttrValue {
	var n uint64
	if v {
		n = 1
	}
	return AttrValue{kind: AttrBool, num: n}
}

// EventAttr returns an event attribute value routing to handler.
func EventAttr(handler uint32) AttrValue {
	return AttrValue{kind: AttrEvent, handler: handler}
}

// Kind returns the kind of the value.
func (v AttrValue) Kind() AttrKind {
	return v.kind
}

// IsEvent reports whether the value binds an event handler.
func (v AttrValue) IsEvent() bool {
	return v.kind == AttrEvent
}

// Handler returns the bound handler id, or 0 for non-event values.
func (v AttrValue) Handler() uint32 {
	if v.kind != AttrEvent {
		return 0
	}
	return v.handler
}

// Equal reports whether two values have the same kind and content.
// Event values compare by handler id.
func (v AttrValue) Equal(o AttrValue) bool {
	return v.kind == o.kind && v.num == o.num && v.str == o.str && v.handler == o.handler
}

// Display stringifies the value for SetAttribute emission: text as-is,
// integers and floats via their default textual form, booleans as
// "true"/"false", absent as the empty string.
func (v AttrValue) Display() string {
	switch v.kind {
	case AttrText:
		return v.str
	case AttrInt:
		return strconv.FormatInt(int64(v.num), 10)
	case AttrFloat:
		return strconv.FormatFloat(math.Float64frombits(v.num), 'f', -1, 64)
	case AttrBool:
		if v.num != 0 {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}
