// Package events maps host-originated events back into reactive state.
//
// Handlers are slab-allocated entries pairing an owning scope with a
// built-in action over a signal (set/add/sub/toggle/set-text) or a
// custom tag the application routes itself. Dispatch executes the
// action through the runtime and reports whether state changed; stale
// handler ids from in-flight host events resolve to a coded not-found
// error, not a panic.
package events
