// Package slab provides a slot arena with index reuse.
//
// A Slab hands out stable uint32 keys for inserted values and recycles
// keys through a free-list when values are removed. Every store in the
// render core that needs stable, reusable handles (signals, scopes,
// effects, memos, handlers, vnodes) is built on it.
package slab

// Slab is a growable arena of slots addressed by uint32 keys.
// The zero value is ready to use.
type Slab[T any] struct {
	slots []slot[T]
	free  []uint32
	count int
}

type slot[T any] struct {
	value T
	live  bool
}

// Insert stores v and returns its key. Keys from removed slots are
// reused before the arena grows.
func (s *Slab[T]) Insert(v T) uint32 {
	s.count++
	if n := len(s.free); n > 0 {
		key := s.free[n-1]
		s.free = s.free[:n-1]
		s.slots[key] = slot[T]{value: v, live: true}
		return key
	}
	s.slots = append(s.slots, slot[T]{value: v, live: true})
	return uint32(len(s.slots) - 1)
}

// Get returns the value at key, or the zero value and false if the key
// is out of range or its slot has been removed.
func (s *Slab[T]) Get(key uint32) (T, bool) {
	if int(key) >= len(s.slots) || !s.slots[key].live {
		var zero T
		return zero, false
	}
	return s.slots[key].value, true
}

// Ptr returns a pointer to the value at key for in-place mutation,
// or nil if the key is not live. The pointer is invalidated by the
// next Insert.
func (s *Slab[T]) Ptr(key uint32) *T {
	if int(key) >= len(s.slots) || !s.slots[key].live {
		return nil
	}
	return &s.slots[key].value
}

// Contains reports whether key addresses a live slot.
func (s *Slab[T]) Contains(key uint32) bool {
	return int(key) < len(s.slots) && s.slots[key].live
}

// Remove frees the slot at key and returns its value.
// Removing a dead or out-of-range key returns false and does nothing;
// the free-list is never corrupted by a double remove.
func (s *Slab[T]) Remove(key uint32) (T, bool) {
	if int(key) >= len(s.slots) || !s.slots[key].live {
		var zero T
		return zero, false
	}
	v := s.slots[key].value
	var zero T
	s.slots[key] = slot[T]{value: zero, live: false}
	s.free = append(s.free, key)
	s.count--
	return v, true
}

// Len returns the number of live slots.
func (s *Slab[T]) Len() int {
	return s.count
}

// Cap returns the total number of slots ever allocated, live or not.
func (s *Slab[T]) Cap() int {
	return len(s.slots)
}

// Range calls fn for every live slot in ascending key order.
// fn must not insert or remove during iteration.
func (s *Slab[T]) Range(fn func(key uint32, v *T) bool) {
	for i := range s.slots {
		if s.slots[i].live {
			if !fn(uint32(i), &s.slots[i].value) {
				return
			}
		}
	}
}
