// Package hostdom is a reference host-side interpreter: an in-memory
// tree that applies binary mutation frames the way a real DOM host
// would.
//
// It shares the guest's template registry, maintains the element-id
// binding table, and executes the stack machine: creation opcodes push
// nodes, structural opcodes pop them into the tree. It exists to test
// and demo the render core; a production host reimplements the same
// semantics against its own tree.
package hostdom
