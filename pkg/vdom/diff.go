package vdom

import (
	"github.com/lumen-dev/lumen/internal/errors"
	"github.com/lumen-dev/lumen/pkg/mutation"
)

// DiffEngine walks paired old/new vnodes, emitting the minimal
// instruction stream and moving mount state from the old tree to the
// new one. Subtree replacement and fragment growth reuse the create
// engine.
type DiffEngine struct {
	store  *VNodeStore
	reg    *Registry
	alloc  *ElementAllocator
	create *CreateEngine
}

// NewDiffEngine creates a diff engine sharing the create engine's
// stores.
func NewDiffEngine(store *VNodeStore, reg *Registry, alloc *ElementAllocator, create *CreateEngine) *DiffEngine {
	return &DiffEngine{store: store, reg: reg, alloc: alloc, create: create}
}

// DiffNode diffs old against new. old must carry mount state from a
// prior create or diff; after the call the mount state lives on new.
func (e *DiffEngine) DiffNode(w *mutation.Writer, oldID, newID VNodeID) {
	old := e.store.Get(oldID)
	if !old.Mounted {
		panic(errors.New("E023").WithDetailf("diff against unmounted vnode %d", oldID))
	}
	new := e.store.Get(newID)

	switch {
	case old.Kind == VTemplateRef && new.Kind == VTemplateRef && old.Template == new.Template:
		e.diffTemplateRef(w, old, new)

	case old.Kind == VText && new.Kind == VText:
		e.transferMount(old, new)
		if old.Text != new.Text {
			w.SetText(uint32(new.RootIDs[0]), new.Text)
		}

	case old.Kind == VPlaceholder && new.Kind == VPlaceholder:
		e.transferMount(old, new)

	case old.Kind == VFragment && new.Kind == VFragment:
		e.diffFragment(w, oldID, newID)

	default:
		e.replaceNode(w, oldID, newID)
	}
}

func (e *DiffEngine) transferMount(old, new *VNode) {
	new.RootIDs = old.RootIDs
	new.DynNodeIDs = old.DynNodeIDs
	new.DynAttrIDs = old.DynAttrIDs
	new.Mounted = true
	old.RootIDs = nil
	old.DynNodeIDs = nil
	old.DynAttrIDs = nil
	old.Mounted = false
}

// diffTemplateRef diffs only the dynamic slots of two instantiations of
// the same template, in slot order.
func (e *DiffEngine) diffTemplateRef(w *mutation.Writer, old, new *VNode) {
	t := e.reg.Get(new.Template)
	e.transferMount(old, new)

	for i := range new.DynAttrs {
		ov, nv := old.DynAttrs[i], new.DynAttrs[i]
		if ov.Equal(nv) {
			continue
		}
		elem := uint32(new.DynAttrIDs[i])
		name := t.attrSlots[i].name
		switch {
		case ov.IsEvent() && nv.IsEvent():
			// Equal already filtered same-handler pairs.
			w.RemoveEventListener(elem, name)
			w.NewEventListener(elem, name)
			w.SetAttribute(elem, false, HandlerAttr, handlerValue(nv.Handler()))
		case ov.IsEvent():
			w.RemoveEventListener(elem, name)
			w.SetAttribute(elem, false, name, nv.Display())
			w.SetAttribute(elem, false, HandlerAttr, remainingHandlerValue(t, new, i))
		case nv.IsEvent():
			w.NewEventListener(elem, name)
			w.SetAttribute(elem, false, HandlerAttr, handlerValue(nv.Handler()))
		default:
			w.SetAttribute(elem, false, name, nv.Display())
		}
	}

	for i := range new.DynNodes {
		od, nd := old.DynNodes[i], new.DynNodes[i]
		elem := new.DynNodeIDs[i]
		if od.Kind == nd.Kind {
			if od.Kind == DynText && od.Text != nd.Text {
				w.SetText(uint32(elem), nd.Text)
			}
			continue
		}
		// Kind flip: build a fresh node and swap it in place.
		fresh := e.alloc.Alloc()
		if nd.Kind == DynText {
			w.CreateTextNode(uint32(fresh), nd.Text)
		} else {
			w.CreatePlaceholder(uint32(fresh))
		}
		w.ReplaceWith(uint32(elem), 1)
		e.alloc.Free(elem)
		new.DynNodeIDs[i] = fresh
	}
}

// remainingHandlerValue returns the handler attribute value after slot
// lost its listener: the handler of an event slot still bound on the
// same template node, or empty so the host stops resolving a dead id.
// Slots on the same node share the host-side attribute even though each
// carries its own element id, so co-location is a path comparison.
func remainingHandlerValue(t *Template, n *VNode, slot int) string {
	target := &t.attrSlots[slot]
	for i, v := range n.DynAttrs {
		if i == slot || !v.IsEvent() {
			continue
		}
		s := &t.attrSlots[i]
		if s.root == target.root && samePath(s.path, target.path) {
			return handlerValue(v.Handler())
		}
	}
	return ""
}

func samePath(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// diffFragment pairwise-diffs the shared prefix, then grows with
// create+InsertAfter anchored on the last surviving sibling's trailing
// root, or shrinks by removing each dropped child's roots. Fragments
// that toggle against empty go through a FragmentSlot instead.
func (e *DiffEngine) diffFragment(w *mutation.Writer, oldID, newID VNodeID) {
	oldChildren := e.store.Get(oldID).Children
	newChildren := e.store.Get(newID).Children
	if len(oldChildren) == 0 || len(newChildren) == 0 {
		panic(errors.New("E023").WithDetailf(
			"empty fragment in diff (old %d, new %d children); toggling regions need a fragment slot",
			len(oldChildren), len(newChildren)))
	}

	shared := len(oldChildren)
	if len(newChildren) < shared {
		shared = len(newChildren)
	}
	for i := 0; i < shared; i++ {
		e.DiffNode(w, oldChildren[i], newChildren[i])
	}

	if len(newChildren) > shared {
		anchor := e.trailingRoot(newChildren[shared-1])
		for _, child := range newChildren[shared:] {
			roots := e.create.CreateNode(w, child)
			w.InsertAfter(uint32(anchor), roots)
			anchor = e.trailingRoot(child)
		}
	} else if len(oldChildren) > shared {
		for _, child := range oldChildren[shared:] {
			for _, root := range e.store.Get(child).RootIDs {
				w.Remove(uint32(root))
			}
			e.FreeMount(child)
		}
	}

	old := e.store.Get(oldID)
	new := e.store.Get(newID)
	new.RootIDs = new.RootIDs[:0]
	for _, child := range newChildren {
		new.RootIDs = append(new.RootIDs, e.store.Get(child).RootIDs...)
	}
	new.Mounted = true
	old.RootIDs = nil
	old.Mounted = false
}

// trailingRoot returns the last root element of a mounted vnode.
func (e *DiffEngine) trailingRoot(id VNodeID) ElementID {
	roots := e.store.Get(id).RootIDs
	if len(roots) == 0 {
		panic(errors.New("E023").WithDetailf("vnode %d has no root elements", id))
	}
	return roots[len(roots)-1]
}

// replaceNode swaps in a fully created new subtree: one ReplaceWith on
// the old first root, a Remove per additional old root, then every
// element id of the old mount state goes back to the allocator.
func (e *DiffEngine) replaceNode(w *mutation.Writer, oldID, newID VNodeID) {
	roots := e.create.CreateNode(w, newID)

	oldRoots := e.store.Get(oldID).RootIDs
	if len(oldRoots) == 0 {
		panic(errors.New("E023").WithDetailf("replacing vnode %d with no root elements", oldID))
	}
	w.ReplaceWith(uint32(oldRoots[0]), roots)
	for _, root := range oldRoots[1:] {
		w.Remove(uint32(root))
	}
	e.FreeMount(oldID)
}

// FreeMount returns every element id held by the vnode's mount state to
// the allocator and clears the mount. Fragments recurse; their root
// vector aliases the children's.
func (e *DiffEngine) FreeMount(id VNodeID) {
	n := e.store.Get(id)
	if n.Kind == VFragment {
		for _, child := range n.Children {
			e.FreeMount(child)
		}
		n.RootIDs = nil
		n.Mounted = false
		return
	}
	for _, elem := range n.RootIDs {
		e.alloc.Free(elem)
	}
	for _, elem := range n.DynNodeIDs {
		e.alloc.Free(elem)
	}
	for _, elem := range n.DynAttrIDs {
		e.alloc.Free(elem)
	}
	n.RootIDs = nil
	n.DynNodeIDs = nil
	n.DynAttrIDs = nil
	n.Mounted = false
}
