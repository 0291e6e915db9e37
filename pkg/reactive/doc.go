// Package reactive implements the signal graph driving the render core.
//
// State lives in versioned signal cells addressed by stable ids. While a
// reactive context (a render scope, memo or effect) is current, every
// signal read subscribes that context; writing a signal marks its
// subscribers dirty. Scopes form a tree and own the signals, effects,
// memos and handlers created during their render; disposing a scope
// cascades through its subtree.
//
// The whole graph is exclusively owned by one Runtime instance and is
// not safe for concurrent use. The render core executes single-threaded
// between host calls, so no locking is carried here.
package reactive
