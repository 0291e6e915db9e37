package server

import (
	"sync"
	"time"
)

// FrameEntry is one sent mutation frame retained for debugging and
// archiving.
type FrameEntry struct {
	Seq    uint64
	Frame  []byte
	SentAt time.Time
}

// FrameHistory is a ring buffer of the most recently sent frames.
// Writes happen on the session goroutine; snapshots may come from
// anywhere, so the ring locks.
type FrameHistory struct {
	mu       sync.Mutex
	entries  []FrameEntry
	head     int
	count    int
	capacity int
	nextSeq  uint64
}

// NewFrameHistory creates a ring retaining up to capacity frames.
func NewFrameHistory(capacity int) *FrameHistory {
	if capacity <= 0 {
		capacity = defaultHistorySize
	}
	return &FrameHistory{
		entries:  make([]FrameEntry, capacity),
		capacity: capacity,
		nextSeq:  1,
	}
}

// Add copies a sent frame into the ring and returns its sequence
// number. The copy decouples the history from the session's reused
// write buffer.
func (h *FrameHistory) Add(frame []byte) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	seq := h.nextSeq
	h.nextSeq++

	c := make([]byte, len(frame))
	copy(c, frame)
	h.entries[h.head] = FrameEntry{Seq: seq, Frame: c, SentAt: time.Now()}
	h.head = (h.head + 1) % h.capacity
	if h.count < h.capacity {
		h.count++
	}
	return seq
}

// Len returns how many frames the ring currently holds.
func (h *FrameHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// Snapshot returns the retained frames in send order.
func (h *FrameHistory) Snapshot() []FrameEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]FrameEntry, 0, h.count)
	start := h.head - h.count
	if start < 0 {
		start += h.capacity
	}
	for i := 0; i < h.count; i++ {
		out = append(out, h.entries[(start+i)%h.capacity])
	}
	return out
}
