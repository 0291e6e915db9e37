package vdom

import (
	"strconv"

	"github.com/lumen-dev/lumen/internal/errors"
	"github.com/lumen-dev/lumen/pkg/mutation"
)

// handlerValue stringifies a handler id for the HandlerAttr emission.
func handlerValue(h uint32) string {
	return strconv.FormatUint(uint64(h), 10)
}

// CreateEngine walks a vnode for first-time mount, emitting creation
// instructions and writing mount state onto the vnode.
type CreateEngine struct {
	store *VNodeStore
	reg   *Registry
	alloc *ElementAllocator
}

// NewCreateEngine creates a create engine over the shared stores.
func NewCreateEngine(store *VNodeStore, reg *Registry, alloc *ElementAllocator) *CreateEngine {
	return &CreateEngine{store: store, reg: reg, alloc: alloc}
}

// CreateNode mounts the vnode, leaving its root elements pushed on the
// interpreter stack, and returns how many roots were pushed. The caller
// pops them with a structural instruction (AppendChildren on initial
// mount, ReplaceWith/InsertAfter during diffs).
//
// Mount state is written as a side effect; if the writer overflows
// partway the vnode must not be diffed against.
func (e *CreateEngine) CreateNode(w *mutation.Writer, id VNodeID) uint32 {
	n := e.store.Get(id)

	switch n.Kind {
	case VText:
		elem := e.alloc.Alloc()
		w.CreateTextNode(uint32(elem), n.Text)
		n.RootIDs = []ElementID{elem}
		n.Mounted = true
		return 1

	case VPlaceholder:
		elem := e.alloc.Alloc()
		w.CreatePlaceholder(uint32(elem))
		n.RootIDs = []ElementID{elem}
		n.Mounted = true
		return 1

	case VFragment:
		var total uint32
		for _, child := range n.Children {
			total += e.CreateNode(w, child)
		}
		n.RootIDs = n.RootIDs[:0]
		for _, child := range n.Children {
			n.RootIDs = append(n.RootIDs, e.store.Get(child).RootIDs...)
		}
		n.Mounted = true
		return total

	case VTemplateRef:
		return e.createTemplateRef(w, n)

	default:
		panic(errors.New("E024").WithDetailf("vnode kind %d", n.Kind))
	}
}

// createTemplateRef emits one LoadTemplate per root followed by that
// root's dynamic fix-ups: paths resolve against the template root on
// top of the stack, so each root's slots are flushed before the next
// root is loaded. Slots emit in slot order within a root, keeping the
// stream deterministic.
func (e *CreateEngine) createTemplateRef(w *mutation.Writer, n *VNode) uint32 {
	t := e.reg.Get(n.Template)

	n.RootIDs = make([]ElementID, t.RootCount())
	n.DynAttrIDs = make([]ElementID, t.NumDynAttrs())
	n.DynNodeIDs = make([]ElementID, t.NumDynNodes())

	for r := 0; r < t.RootCount(); r++ {
		rootID := e.alloc.Alloc()
		n.RootIDs[r] = rootID
		w.LoadTemplate(uint32(t.id), uint32(r), uint32(rootID))

		for si := range t.attrSlots {
			slot := &t.attrSlots[si]
			if slot.root != uint32(r) {
				continue
			}
			elem := e.alloc.Alloc()
			n.DynAttrIDs[si] = elem
			w.AssignID(slot.path, uint32(elem))

			v := n.DynAttrs[si]
			if v.IsEvent() {
				w.NewEventListener(uint32(elem), slot.name)
				w.SetAttribute(uint32(elem), false, HandlerAttr, handlerValue(v.Handler()))
			} else {
				w.SetAttribute(uint32(elem), false, slot.name, v.Display())
			}
		}

		for si := range t.nodeSlots {
			slot := &t.nodeSlots[si]
			if slot.root != uint32(r) {
				continue
			}
			d := n.DynNodes[si]
			if slot.textOnly && d.Kind != DynText {
				panic(errors.New("E021").WithDetailf(
					"template %d: text-only slot %d got a placeholder", t.id, si))
			}
			elem := e.alloc.Alloc()
			n.DynNodeIDs[si] = elem
			if d.Kind == DynText {
				w.CreateTextNode(uint32(elem), d.Text)
			} else {
				w.CreatePlaceholder(uint32(elem))
			}
			w.ReplacePlaceholder(slot.path, 1)
		}
	}

	n.Mounted = true
	return uint32(t.RootCount())
}
