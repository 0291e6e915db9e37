package vdom

import (
	"github.com/lumen-dev/lumen/internal/errors"
	"github.com/lumen-dev/lumen/pkg/mutation"
)

// FragmentSlot tracks a region of the tree that alternates between
// empty and populated: the placeholder element anchoring the empty
// state, and the fragment currently mounted in the populated state.
// Diffing a fragment against emptiness is undefined at the engine
// level; the slot substitutes the anchor so every transition is a
// plain replace.
//
// The anchor id stays allocated for the slot's whole lifetime. It is
// the element bound to the owning vnode's dynamic node slot, so the
// owner's mount state keeps recording it while the slot is populated;
// freeing it here would let the allocator reissue an id two mount
// states then hold at once. Clearing rebuilds the placeholder under
// the same id, and the owner's eventual teardown frees it exactly
// once.
type FragmentSlot struct {
	anchor  ElementID
	content VNodeID
	mounted bool
}

// NewFragmentSlot creates an empty slot anchored on the placeholder
// element anchor, typically the element bound to a dynamic node slot's
// placeholder at mount. The slot borrows the id; ownership stays with
// whoever allocated it.
func NewFragmentSlot(anchor ElementID) *FragmentSlot {
	return &FragmentSlot{anchor: anchor}
}

// HasContent reports whether the slot currently holds a fragment.
func (s *FragmentSlot) HasContent() bool {
	return s.mounted
}

// Content returns the mounted fragment id; valid only when HasContent.
func (s *FragmentSlot) Content() VNodeID {
	return s.content
}

// Anchor returns the slot's reserved placeholder element id. While the
// slot is populated the id is detached from the host tree but stays
// allocated.
func (s *FragmentSlot) Anchor() ElementID {
	return s.anchor
}

// FlushSlot reconciles the slot against a new fragment, handling the
// three transitions: empty to populated replaces the anchor with the
// created items, populated to populated is an ordinary fragment diff,
// populated to empty rebuilds the anchor placeholder under its
// reserved id and replaces the items with it. The previous content
// vnode is released; the new fragment becomes the slot's content (or
// is released too when empty).
func (e *DiffEngine) FlushSlot(w *mutation.Writer, slot *FragmentSlot, newFragment VNodeID) {
	n := e.store.Get(newFragment)
	if n.Kind != VFragment {
		panic(errors.New("E024").WithDetailf("fragment slot flushed with %s vnode", n.Kind))
	}
	populated := len(n.Children) > 0

	switch {
	case !slot.mounted && populated:
		roots := e.create.CreateNode(w, newFragment)
		w.ReplaceWith(uint32(slot.anchor), roots)
		slot.content = newFragment
		slot.mounted = true

	case slot.mounted && populated:
		e.DiffNode(w, slot.content, newFragment)
		e.store.Release(slot.content)
		slot.content = newFragment

	case slot.mounted && !populated:
		w.CreatePlaceholder(uint32(slot.anchor))
		oldRoots := e.store.Get(slot.content).RootIDs
		if len(oldRoots) > 0 {
			w.ReplaceWith(uint32(oldRoots[0]), 1)
			for _, root := range oldRoots[1:] {
				w.Remove(uint32(root))
			}
		}
		e.FreeMount(slot.content)
		e.store.Release(slot.content)
		e.store.Release(newFragment)
		slot.content = 0
		slot.mounted = false

	default:
		// Empty to empty: the anchor already stands in.
		e.store.Release(newFragment)
	}
}
