// Package vdom implements the template/vnode model and the create and
// diff engines that translate tree changes into mutation instructions.
//
// Templates are immutable static trees registered once; their dynamic
// slots (nodes and attributes) are numbered in tree-walk order and each
// slot's root-relative path is computed at registration. A VNode is one
// instantiation: a TemplateRef carrying one dynamic value per slot, a
// literal Text, a Placeholder, or a Fragment of child vnodes. Mount
// state (the element ids bound during creation) lives on the vnode and
// is transferred by the diff engine from old to new trees.
//
// The engines emit into a mutation.Writer; the caller owns the buffer
// and checks the writer's latched error once per pass.
package vdom
