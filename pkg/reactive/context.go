package reactive

import "fmt"

// Ids for the four reactive stores. All are stable slab keys.
type (
	SignalID uint32
	ScopeID  uint32
	EffectID uint32
	MemoID   uint32
)

// ContextKind identifies which store a reactive context lives in.
type ContextKind uint8

const (
	CtxNone ContextKind = iota
	CtxScope
	CtxMemo
	CtxEffect
)

// ContextID identifies the entity that is current while signals are
// read: a render scope, a memo or an effect. The zero value means no
// context is current (reads are untracked peeks).
type ContextID struct {
	Kind ContextKind
	Idx  uint32
}

// NoContext is the absent context.
var NoContext = ContextID{}

// ScopeCtx returns the context id for a render scope.
func ScopeCtx(id ScopeID) ContextID {
	return ContextID{Kind: CtxScope, Idx: uint32(id)}
}

// MemoCtx returns the context id for a memo.
func MemoCtx(id MemoID) ContextID {
	return ContextID{Kind: CtxMemo, Idx: uint32(id)}
}

// EffectCtx returns the context id for an effect.
func EffectCtx(id EffectID) ContextID {
	return ContextID{Kind: CtxEffect, Idx: uint32(id)}
}

// IsNone reports whether no context is identified.
func (c ContextID) IsNone() bool {
	return c.Kind == CtxNone
}

// String returns a debug representation of the context id.
func (c ContextID) String() string {
	switch c.Kind {
	case CtxNone:
		return "ctx:none"
	case CtxScope:
		return fmt.Sprintf("ctx:scope/%d", c.Idx)
	case CtxMemo:
		return fmt.Sprintf("ctx:memo/%d", c.Idx)
	case CtxEffect:
		return fmt.Sprintf("ctx:effect/%d", c.Idx)
	default:
		return "ctx:?"
	}
}
