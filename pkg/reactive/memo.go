package reactive

import (
	"github.com/lumen-dev/lumen/internal/errors"
	"github.com/lumen-dev/lumen/pkg/slab"
)

// memoNode is one derived value: the computation, the cached result,
// the sources subscribed during the last recompute, and the contexts
// that read the memo.
type memoNode struct {
	fn          func() Value
	value       Value
	valid       bool
	computing   bool
	sources     []SignalID
	memoSources []MemoID
	subs        []ContextID
}

// MemoStore holds all memos of one runtime.
type MemoStore struct {
	nodes slab.Slab[memoNode]
}

func (s *MemoStore) node(id MemoID) *memoNode {
	n := s.nodes.Ptr(uint32(id))
	if n == nil {
		panic(errors.New("E006").WithDetailf("memo id %d", id))
	}
	return n
}

// Contains reports whether id addresses a live memo.
func (s *MemoStore) Contains(id MemoID) bool {
	return s.nodes.Contains(uint32(id))
}

// Len returns the number of live memos.
func (s *MemoStore) Len() int {
	return s.nodes.Len()
}

// unsubscribe removes ctx from the memo's subscriber set, ignoring dead
// ids.
func (s *MemoStore) unsubscribe(id MemoID, ctx ContextID) {
	n := s.nodes.Ptr(uint32(id))
	if n == nil {
		return
	}
	for i, sub := range n.subs {
		if sub == ctx {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			return
		}
	}
}

// dropContext removes ctx from every memo's subscriber set.
func (s *MemoStore) dropContext(ctx ContextID) {
	s.nodes.Range(func(_ uint32, n *memoNode) bool {
		for i, sub := range n.subs {
			if sub == ctx {
				n.subs = append(n.subs[:i], n.subs[i+1:]...)
				break
			}
		}
		return true
	})
}
