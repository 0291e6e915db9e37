package vdom

import "github.com/lumen-dev/lumen/internal/errors"

// ElementID is an opaque handle for one DOM-visible node. 0 is reserved
// for the host root container and is never allocated.
type ElementID uint32

// RootElement addresses the host's root container in structural ops.
const RootElement ElementID = 0

// ElementAllocator hands out element ids and recycles them through a
// free-list. An id freed while still referenced by live mount state
// would let two tree positions collide, so Free tracks liveness and
// panics on a double free.
type ElementAllocator struct {
	next uint32
	free []ElementID
	live map[ElementID]struct{}
}

// NewElementAllocator creates an allocator whose first id is 1.
func NewElementAllocator() *ElementAllocator {
	return &ElementAllocator{
		next: 1,
		live: make(map[ElementID]struct{}),
	}
}

// Alloc returns a fresh id, reusing freed ids before growing.
func (a *ElementAllocator) Alloc() ElementID {
	var id ElementID
	if n := len(a.free); n > 0 {
		id = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		id = ElementID(a.next)
		a.next++
	}
	a.live[id] = struct{}{}
	return id
}

// Free returns id to the free-list. Freeing an id that is not live is a
// contract violation and panics; it would otherwise corrupt the
// free-list and reissue an id still held by mount state.
func (a *ElementAllocator) Free(id ElementID) {
	if _, ok := a.live[id]; !ok {
		panic(errors.New("E022").WithDetailf("element id %d", id))
	}
	delete(a.live, id)
	a.free = append(a.free, id)
}

// Live reports whether id is currently allocated.
func (a *ElementAllocator) Live(id ElementID) bool {
	_, ok := a.live[id]
	return ok
}

// LiveCount returns the number of currently allocated ids.
func (a *ElementAllocator) LiveCount() int {
	return len(a.live)
}
