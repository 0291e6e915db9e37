package vdom

import (
	"github.com/lumen-dev/lumen/internal/errors"
	"github.com/lumen-dev/lumen/pkg/slab"
)

// VNodeID addresses a vnode in its store. Ids, not pointers, are the
// stable reference across create/diff calls.
type VNodeID uint32

// VNodeKind identifies a vnode variant.
type VNodeKind uint8

const (
	VTemplateRef VNodeKind = iota
	VText
	VPlaceholder
	VFragment
)

// String returns the string representation of the kind.
func (k VNodeKind) String() string {
	switch k {
	case VTemplateRef:
		return "TemplateRef"
	case VText:
		return "Text"
	case VPlaceholder:
		return "Placeholder"
	case VFragment:
		return "Fragment"
	default:
		return "VNodeKind(?)"
	}
}

// DynKind identifies the content of a dynamic node slot.
type DynKind uint8

const (
	// DynText is a text node spliced into the slot.
	DynText DynKind = iota
	// DynPlaceholder is an empty anchor spliced into the slot.
	DynPlaceholder
)

// DynNode is one dynamic node value: text content or a placeholder.
type DynNode struct {
	Kind DynKind
	Text string
}

// DynTextNode returns a text-valued dynamic node.
func DynTextNode(s string) DynNode {
	return DynNode{Kind: DynText, Text: s}
}

// DynPlaceholderNode returns a placeholder dynamic node.
func DynPlaceholderNode() DynNode {
	return DynNode{Kind: DynPlaceholder}
}

// VNode is the tagged union of renderable nodes plus the mount state
// written by the create engine and transferred by the diff engine.
type VNode struct {
	Kind VNodeKind

	// VTemplateRef
	Template TemplateID
	DynAttrs []AttrValue
	DynNodes []DynNode

	// VText
	Text string

	// VFragment
	Children []VNodeID

	// Mount state. Populated by a create pass; every vector is
	// positionally aligned to its slot table.
	Mounted    bool
	RootIDs    []ElementID
	DynNodeIDs []ElementID
	DynAttrIDs []ElementID
}

// VNodeStore is the arena vnodes live in. Slots are reused; an id is
// valid for exactly one create/diff cycle.
type VNodeStore struct {
	nodes slab.Slab[VNode]
	reg   *Registry
}

// NewVNodeStore creates a store validating template refs against reg.
func NewVNodeStore(reg *Registry) *VNodeStore {
	return &VNodeStore{reg: reg}
}

// NewTemplateRef builds a template instantiation. The dynamic value
// counts must match the template's registered slot counts exactly;
// mount-state vectors align to slots by position, so a mismatch would
// silently corrupt every later diff. Violations panic.
func (s *VNodeStore) NewTemplateRef(id TemplateID, dynAttrs []AttrValue, dynNodes []DynNode) VNodeID {
	t := s.reg.Get(id)
	if len(dynAttrs) != t.NumDynAttrs() || len(dynNodes) != t.NumDynNodes() {
		panic(errors.New("E021").WithDetailf(
			"template %d: got %d attr / %d node values, want %d / %d",
			id, len(dynAttrs), len(dynNodes), t.NumDynAttrs(), t.NumDynNodes()))
	}
	return VNodeID(s.nodes.Insert(VNode{
		Kind:     VTemplateRef,
		Template: id,
		DynAttrs: dynAttrs,
		DynNodes: dynNodes,
	}))
}

// NewText builds a literal text vnode.
func (s *VNodeStore) NewText(text string) VNodeID {
	return VNodeID(s.nodes.Insert(VNode{Kind: VText, Text: text}))
}

// NewPlaceholder builds an empty placeholder vnode.
func (s *VNodeStore) NewPlaceholder() VNodeID {
	return VNodeID(s.nodes.Insert(VNode{Kind: VPlaceholder}))
}

// NewFragment builds a fragment over child vnodes. The child order is
// the render order.
func (s *VNodeStore) NewFragment(children []VNodeID) VNodeID {
	return VNodeID(s.nodes.Insert(VNode{Kind: VFragment, Children: children}))
}

// Get returns the vnode for id, panicking on a dead or out-of-range id.
func (s *VNodeStore) Get(id VNodeID) *VNode {
	n := s.nodes.Ptr(uint32(id))
	if n == nil {
		panic(errors.New("E024").WithDetailf("vnode id %d", id))
	}
	return n
}

// Contains reports whether id addresses a live vnode.
func (s *VNodeStore) Contains(id VNodeID) bool {
	return s.nodes.Contains(uint32(id))
}

// Release frees a vnode slot, recursing through fragment children. It
// does not free element ids; unmounting is the diff engine's job.
func (s *VNodeStore) Release(id VNodeID) {
	n := s.nodes.Ptr(uint32(id))
	if n == nil {
		return
	}
	children := n.Children
	s.nodes.Remove(uint32(id))
	for _, child := range children {
		s.Release(child)
	}
}

// Len returns the number of live vnodes.
func (s *VNodeStore) Len() int {
	return s.nodes.Len()
}
