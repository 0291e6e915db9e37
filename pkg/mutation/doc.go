// Package mutation implements the binary mutation protocol between the
// render core and the host tree interpreter.
//
// A mutation frame is a flat sequence of stack-machine instructions the
// host applies in order. Element-creating opcodes push their result onto
// the interpreter's stack; structural opcodes pop a declared count of
// pending nodes and splice them into the tree. Every frame is terminated
// by the OpEnd sentinel.
//
// # Encoding
//
//   - Opcode: one byte
//   - Integer operands (ids, counts, indices): unsigned varint
//   - Strings (text, attribute names/values, event names): varint length
//     prefix + UTF-8 bytes
//   - Paths: varint count + one varint child index per step
//
// The Writer emits into a pre-allocated buffer supplied by the caller and
// bounds-checks the cursor before every instruction; an overflowing frame
// latches ErrBufferFull and produces no further output. The Reader is the
// host-side counterpart with allocation limits on length prefixes.
package mutation
