package reactive

import (
	"github.com/lumen-dev/lumen/internal/errors"
	"github.com/lumen-dev/lumen/pkg/slab"
)

// signalCell is one reactive value cell: the value, a monotonic write
// version, and the contexts subscribed to it in first-read order.
type signalCell struct {
	value   Value
	version uint64
	subs    []ContextID
}

// SignalStore holds all signal cells of one runtime.
type SignalStore struct {
	cells slab.Slab[signalCell]
}

// Create allocates a new signal holding initial and returns its id.
func (s *SignalStore) Create(initial Value) SignalID {
	return SignalID(s.cells.Insert(signalCell{value: initial}))
}

// cell returns the live cell for key, panicking on a dead or
// out-of-range id. Reads and writes through stale ids are contract
// violations, not recoverable conditions.
func (s *SignalStore) cell(key SignalID) *signalCell {
	c := s.cells.Ptr(uint32(key))
	if c == nil {
		panic(errors.New("E001").WithDetailf("signal id %d", key))
	}
	return c
}

// ReadTracked returns the value and subscribes ctx. Subscription is
// idempotent: repeated reads by the same context keep a single entry.
// A none ctx performs an untracked read.
func (s *SignalStore) ReadTracked(key SignalID, ctx ContextID) Value {
	c := s.cell(key)
	if !ctx.IsNone() {
		subscribed := false
		for _, sub := range c.subs {
			if sub == ctx {
				subscribed = true
				break
			}
		}
		if !subscribed {
			c.subs = append(c.subs, ctx)
		}
	}
	return c.value
}

// Peek returns the value without subscribing anything.
func (s *SignalStore) Peek(key SignalID) Value {
	return s.cell(key).value
}

// Version returns the signal's write counter.
func (s *SignalStore) Version(key SignalID) uint64 {
	return s.cell(key).version
}

// write stores v, bumps the version and returns the subscriber set for
// dirty propagation. The returned slice is a snapshot.
func (s *SignalStore) write(key SignalID, v Value) []ContextID {
	c := s.cell(key)
	c.value = v
	c.version++
	if len(c.subs) == 0 {
		return nil
	}
	subs := make([]ContextID, len(c.subs))
	copy(subs, c.subs)
	return subs
}

// Unsubscribe removes ctx from the signal's subscriber set. A dead key
// is ignored: sources recorded by an effect may outlive the signal.
func (s *SignalStore) Unsubscribe(key SignalID, ctx ContextID) {
	c := s.cells.Ptr(uint32(key))
	if c == nil {
		return
	}
	for i, sub := range c.subs {
		if sub == ctx {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			return
		}
	}
}

// DropContext removes ctx from every signal's subscriber set. Used when
// a scope is disposed.
func (s *SignalStore) DropContext(ctx ContextID) {
	s.cells.Range(func(_ uint32, c *signalCell) bool {
		for i, sub := range c.subs {
			if sub == ctx {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				break
			}
		}
		return true
	})
}

// Destroy frees the signal slot. Destroying a dead id panics.
func (s *SignalStore) Destroy(key SignalID) {
	if _, ok := s.cells.Remove(uint32(key)); !ok {
		panic(errors.New("E001").WithDetailf("destroy of dead signal id %d", key))
	}
}

// Contains reports whether key addresses a live signal.
func (s *SignalStore) Contains(key SignalID) bool {
	return s.cells.Contains(uint32(key))
}

// Len returns the number of live signals.
func (s *SignalStore) Len() int {
	return s.cells.Len()
}
