package reactive

import (
	"github.com/lumen-dev/lumen/internal/errors"
	"github.com/lumen-dev/lumen/pkg/slab"
)

// scopeNode is one render unit in the scope tree. It owns the reactive
// entities created during its render; all of them are destroyed
// together when the scope is disposed.
type scopeNode struct {
	parent    ScopeID
	hasParent bool
	height    uint32
	children  []ScopeID
	signals   []SignalID
	effects   []EffectID
	memos     []MemoID
	cleanups  []func()
}

// ScopeArena holds the scope tree of one runtime.
type ScopeArena struct {
	nodes slab.Slab[scopeNode]
}

// CreateRoot allocates a parentless scope at height 0.
func (a *ScopeArena) CreateRoot() ScopeID {
	return ScopeID(a.nodes.Insert(scopeNode{}))
}

// Create allocates a child of parent at height parent+1.
func (a *ScopeArena) Create(parent ScopeID) ScopeID {
	p := a.node(parent)
	id := ScopeID(a.nodes.Insert(scopeNode{
		parent:    parent,
		hasParent: true,
		height:    p.height + 1,
	}))
	// Ptr may be stale after the insert above.
	a.node(parent).children = append(a.node(parent).children, id)
	return id
}

func (a *ScopeArena) node(id ScopeID) *scopeNode {
	n := a.nodes.Ptr(uint32(id))
	if n == nil {
		panic(errors.New("E002").WithDetailf("scope id %d", id))
	}
	return n
}

// Contains reports whether id addresses a live scope.
func (a *ScopeArena) Contains(id ScopeID) bool {
	return a.nodes.Contains(uint32(id))
}

// Height returns the scope's depth: 0 for roots, parent height + 1
// otherwise.
func (a *ScopeArena) Height(id ScopeID) uint32 {
	return a.node(id).height
}

// Parent returns the scope's parent, if it has one.
func (a *ScopeArena) Parent(id ScopeID) (ScopeID, bool) {
	n := a.node(id)
	return n.parent, n.hasParent
}

// Children returns the scope's direct children. The returned slice is
// owned by the arena.
func (a *ScopeArena) Children(id ScopeID) []ScopeID {
	return a.node(id).children
}

// OnCleanup registers fn to run when the scope is disposed. Cleanups
// run in reverse registration order, before owned entities are
// destroyed.
func (a *ScopeArena) OnCleanup(id ScopeID, fn func()) {
	n := a.node(id)
	n.cleanups = append(n.cleanups, fn)
}

// Len returns the number of live scopes.
func (a *ScopeArena) Len() int {
	return a.nodes.Len()
}

func (a *ScopeArena) ownSignal(id ScopeID, sig SignalID) {
	n := a.node(id)
	n.signals = append(n.signals, sig)
}

func (a *ScopeArena) ownEffect(id ScopeID, eff EffectID) {
	n := a.node(id)
	n.effects = append(n.effects, eff)
}

func (a *ScopeArena) ownMemo(id ScopeID, m MemoID) {
	n := a.node(id)
	n.memos = append(n.memos, m)
}

func (a *ScopeArena) unlinkChild(parent, child ScopeID) {
	p := a.nodes.Ptr(uint32(parent))
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == child {
			p.children = append(p.children[:i], p.children[i+1:]...)
			return
		}
	}
}
