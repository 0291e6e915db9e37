package reactive

import "sort"

// Scheduler orders dirty scopes for re-render. Parents render strictly
// before children: a parent's render may destroy or recreate a child
// scope, invalidating the child's pending render. Same-height scopes
// order by ascending id, which is creation order, so processing is
// deterministic.
type Scheduler struct {
	rt      *Runtime
	pending []ScopeID
}

// NewScheduler creates a scheduler draining rt's dirty queue.
func NewScheduler(rt *Runtime) *Scheduler {
	return &Scheduler{rt: rt}
}

// Collect drains the runtime's raw dirty set into the height-ordered
// pending queue, dropping scopes disposed since they were marked.
func (s *Scheduler) Collect() {
	live := s.pending[:0]
	for _, id := range s.pending {
		if s.rt.Scopes.Contains(id) {
			live = append(live, id)
		}
	}
	s.pending = live

	for _, id := range s.rt.TakeDirtyScopes() {
		if !s.rt.Scopes.Contains(id) {
			continue
		}
		queued := false
		for _, p := range s.pending {
			if p == id {
				queued = true
				break
			}
		}
		if !queued {
			s.pending = append(s.pending, id)
		}
	}

	sort.Slice(s.pending, func(i, j int) bool {
		hi := s.rt.Scopes.Height(s.pending[i])
		hj := s.rt.Scopes.Height(s.pending[j])
		if hi != hj {
			return hi < hj
		}
		return s.pending[i] < s.pending[j]
	})
}

// Next pops the next scope to re-render. Scopes disposed while queued
// are skipped.
func (s *Scheduler) Next() (ScopeID, bool) {
	for len(s.pending) > 0 {
		id := s.pending[0]
		s.pending = s.pending[1:]
		if s.rt.Scopes.Contains(id) {
			return id, true
		}
	}
	return 0, false
}

// IsEmpty reports whether nothing is pending.
func (s *Scheduler) IsEmpty() bool {
	return len(s.pending) == 0
}

// Len returns the number of queued scopes, live or not.
func (s *Scheduler) Len() int {
	return len(s.pending)
}
