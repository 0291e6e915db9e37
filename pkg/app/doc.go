// Package app composes the reactive runtime, the vnode stores and the
// mutation engines behind a single mount/diff/flush lifecycle.
//
// A Shell owns one application instance: its runtime, template
// registry, element allocator, handler registry and scheduler. The
// host drives it through Rebuild (initial mount), Flush (re-render of
// dirty scopes), HandleEvent (event dispatch) and Destroy. Shells are
// single-owner and single-threaded; the package-level handle table
// (Init/Rebuild/Flush/HandleEvent/Destroy) maps opaque handles to
// shells for hosts that cannot hold Go pointers.
package app
