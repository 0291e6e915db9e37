package app

import "sync/atomic"

// Metrics counts shell activity. Counters are atomic so an embedder's
// monitoring goroutine can snapshot them while the shell runs.
type Metrics struct {
	flushes atomic.Uint64
	events  atomic.Uint64
	frames  atomic.Uint64
	ops     atomic.Uint64
	bytes   atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of the shell counters.
type MetricsSnapshot struct {
	Flushes      uint64
	Events       uint64
	Frames       uint64
	OpsEmitted   uint64
	BytesEmitted uint64
}

// MetricsSnapshot returns the current counter values.
func (s *Shell) MetricsSnapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Flushes:      s.metrics.flushes.Load(),
		Events:       s.metrics.events.Load(),
		Frames:       s.metrics.frames.Load(),
		OpsEmitted:   s.metrics.ops.Load(),
		BytesEmitted: s.metrics.bytes.Load(),
	}
}
