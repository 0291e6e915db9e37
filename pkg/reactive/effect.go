package reactive

import (
	"github.com/lumen-dev/lumen/internal/errors"
	"github.com/lumen-dev/lumen/pkg/slab"
)

// Cleanup is returned by an effect body to undo its side effect before
// the next run or on disposal. A nil cleanup is permitted.
type Cleanup func()

// effectNode is one reactive side effect: the body, the cleanup from
// the last run, and the sources subscribed during it.
type effectNode struct {
	fn          func() Cleanup
	cleanup     Cleanup
	sources     []SignalID
	memoSources []MemoID
	pending     bool
}

// EffectStore holds all effects of one runtime.
type EffectStore struct {
	nodes slab.Slab[effectNode]
}

func (s *EffectStore) node(id EffectID) *effectNode {
	n := s.nodes.Ptr(uint32(id))
	if n == nil {
		panic(errors.New("E004").WithDetailf("effect id %d", id))
	}
	return n
}

// Contains reports whether id addresses a live effect.
func (s *EffectStore) Contains(id EffectID) bool {
	return s.nodes.Contains(uint32(id))
}

// Len returns the number of live effects.
func (s *EffectStore) Len() int {
	return s.nodes.Len()
}
