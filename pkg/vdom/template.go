package vdom

import "github.com/lumen-dev/lumen/internal/errors"

// NodeKind identifies a template node.
type NodeKind uint8

const (
	// NodeElement is a static element with a tag, static attributes,
	// optional dynamic attribute slots and children.
	NodeElement NodeKind = iota
	// NodeText is static literal text.
	NodeText
	// NodeDynamic reserves a dynamic node slot that may hold text or a
	// placeholder anchoring a nested region.
	NodeDynamic
	// NodeDynamicText reserves a dynamic node slot that always holds
	// text.
	NodeDynamicText
)

// StaticAttr is a fixed attribute baked into a template element.
type StaticAttr struct {
	Name  string
	Value string
}

// TemplateNode is one node of an immutable template tree.
type TemplateNode struct {
	Kind     NodeKind
	Tag      string       // NodeElement
	Text     string       // NodeText
	Attrs    []StaticAttr // NodeElement
	DynAttrs []string     // NodeElement: dynamic attribute slot names
	Children []TemplateNode
}

// TemplateID addresses a registered template.
type TemplateID uint32

// nodeSlot locates one dynamic node slot: the root it lives under, the
// child-index path from that root, and whether the slot is text-only.
type nodeSlot struct {
	root     uint32
	path     []uint32
	textOnly bool
}

// attrSlot locates one dynamic attribute slot and carries its name.
// For event-valued attributes the name is the event name.
type attrSlot struct {
	root uint32
	path []uint32
	name string
}

// Template is a registered template: the static roots plus the slot
// tables computed once at registration. Many vnode instances reference
// one template.
type Template struct {
	id        TemplateID
	roots     []TemplateNode
	nodeSlots []nodeSlot
	attrSlots []attrSlot
}

// ID returns the registry-assigned id.
func (t *Template) ID() TemplateID {
	return t.id
}

// RootCount returns the number of template roots.
func (t *Template) RootCount() int {
	return len(t.roots)
}

// NumDynNodes returns the number of dynamic node slots.
func (t *Template) NumDynNodes() int {
	return len(t.nodeSlots)
}

// NumDynAttrs returns the number of dynamic attribute slots.
func (t *Template) NumDynAttrs() int {
	return len(t.attrSlots)
}

// Roots returns the static root nodes. Callers must not modify them.
func (t *Template) Roots() []TemplateNode {
	return t.roots
}

// Registry assigns ids to templates and computes their slot tables.
// Templates are never destroyed during normal operation.
type Registry struct {
	templates []Template
}

// NewRegistry creates an empty template registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register stores a template tree and returns its fresh id. Slots are
// numbered in tree-walk order (preorder, roots left to right) and each
// slot's root-relative path is recorded, so create passes only read.
// Every call yields a new id; callers wanting deduplication keep their
// own table.
func (r *Registry) Register(roots []TemplateNode) TemplateID {
	id := TemplateID(len(r.templates))
	t := Template{id: id, roots: roots}

	var walk func(root uint32, n *TemplateNode, path []uint32)
	walk = func(root uint32, n *TemplateNode, path []uint32) {
		switch n.Kind {
		case NodeDynamic, NodeDynamicText:
			p := make([]uint32, len(path))
			copy(p, path)
			t.nodeSlots = append(t.nodeSlots, nodeSlot{
				root:     root,
				path:     p,
				textOnly: n.Kind == NodeDynamicText,
			})
		case NodeElement:
			for _, name := range n.DynAttrs {
				p := make([]uint32, len(path))
				copy(p, path)
				t.attrSlots = append(t.attrSlots, attrSlot{
					root: root,
					path: p,
					name: name,
				})
			}
		}
		for i := range n.Children {
			walk(root, &n.Children[i], append(path, uint32(i)))
		}
	}
	for i := range roots {
		walk(uint32(i), &roots[i], nil)
	}

	r.templates = append(r.templates, t)
	return id
}

// Get returns the template for id, panicking on an unregistered id.
func (r *Registry) Get(id TemplateID) *Template {
	if int(id) >= len(r.templates) {
		panic(errors.New("E020").WithDetailf("template id %d", id))
	}
	return &r.templates[id]
}

// Len returns the number of registered templates.
func (r *Registry) Len() int {
	return len(r.templates)
}
