package mutation

import (
	"errors"
	"io"
)

// Allocation limits protecting the interpreter from malicious length
// prefixes when frames are replayed from untrusted storage.
const (
	// MaxStringLen is the maximum length of a string operand (1MB).
	MaxStringLen = 1 * 1024 * 1024

	// MaxPathLen is the maximum number of steps in a path operand.
	// Template trees are shallow; anything deeper is corrupt.
	MaxPathLen = 1024
)

// Common decoding errors.
var (
	ErrVarintOverflow = errors.New("mutation: varint overflow")
	ErrStringTooLarge = errors.New("mutation: string operand exceeds limit")
	ErrPathTooLong    = errors.New("mutation: path operand exceeds limit")
	ErrUnknownOp      = errors.New("mutation: unknown opcode")
	ErrMissingEnd     = errors.New("mutation: frame not terminated by End")
)

// Reader decodes a mutation frame. It is the host-side counterpart of
// Writer.
type Reader struct {
	buf []byte
	pos int
}

// NewReader creates a reader over frame.
func NewReader(frame []byte) *Reader {
	return &Reader{buf: frame}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

// Position returns the current read position.
func (r *Reader) Position() int {
	return r.pos
}

// ReadOp reads the next opcode.
func (r *Reader) ReadOp() (Op, error) {
	if r.pos >= len(r.buf) {
		return 0, io.ErrUnexpectedEOF
	}
	op := Op(r.buf[r.pos])
	r.pos++
	return op, nil
}

// ReadUvarint reads an unsigned varint operand.
func (r *Reader) ReadUvarint() (uint64, error) {
	v, n := Uvarint(r.buf[r.pos:])
	switch {
	case n == -1:
		return 0, io.ErrUnexpectedEOF
	case n < 0:
		return 0, ErrVarintOverflow
	}
	r.pos += n
	return v, nil
}

// ReadID reads an element, template or count operand as uint32.
func (r *Reader) ReadID() (uint32, error) {
	v, err := r.ReadUvarint()
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// ReadBool reads a flag operand (single byte, any non-zero is true).
func (r *Reader) ReadBool() (bool, error) {
	if r.pos >= len(r.buf) {
		return false, io.ErrUnexpectedEOF
	}
	b := r.buf[r.pos]
	r.pos++
	return b != 0, nil
}

// ReadString reads a length-prefixed string operand.
// Returns ErrStringTooLarge if the length exceeds MaxStringLen.
func (r *Reader) ReadString() (string, error) {
	length, err := r.ReadUvarint()
	if err != nil {
		return "", err
	}
	if length > uint64(r.Remaining()) {
		return "", io.ErrUnexpectedEOF
	}
	if length > MaxStringLen {
		return "", ErrStringTooLarge
	}
	n := int(length)
	s := string(r.buf[r.pos : r.pos+n])
	r.pos += n
	return s, nil
}

// ReadPath reads a path operand: a varint count followed by that many
// child indices.
func (r *Reader) ReadPath() ([]uint32, error) {
	count, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if count > MaxPathLen {
		return nil, ErrPathTooLong
	}
	if count > uint64(r.Remaining()) {
		return nil, io.ErrUnexpectedEOF
	}
	if count == 0 {
		return nil, nil
	}
	path := make([]uint32, count)
	for i := range path {
		idx, err := r.ReadID()
		if err != nil {
			return nil, err
		}
		path[i] = idx
	}
	return path, nil
}

// skipOperands consumes the operands of op without materializing them.
func (r *Reader) skipOperands(op Op) error {
	switch op {
	case OpEnd:
		return nil
	case OpLoadTemplate:
		return r.skipUvarints(3)
	case OpAssignID:
		if err := r.skipPath(); err != nil {
			return err
		}
		return r.skipUvarints(1)
	case OpCreateTextNode, OpSetText:
		if err := r.skipUvarints(1); err != nil {
			return err
		}
		return r.skipString()
	case OpCreatePlaceholder, OpRemove:
		return r.skipUvarints(1)
	case OpReplacePlaceholder:
		if err := r.skipPath(); err != nil {
			return err
		}
		return r.skipUvarints(1)
	case OpSetAttribute:
		if err := r.skipUvarints(1); err != nil {
			return err
		}
		if _, err := r.ReadBool(); err != nil {
			return err
		}
		if err := r.skipString(); err != nil {
			return err
		}
		return r.skipString()
	case OpNewEventListener, OpRemoveEventListener:
		if err := r.skipUvarints(1); err != nil {
			return err
		}
		return r.skipString()
	case OpReplaceWith, OpInsertAfter, OpAppendChildren:
		return r.skipUvarints(2)
	default:
		return ErrUnknownOp
	}
}

func (r *Reader) skipUvarints(n int) error {
	for i := 0; i < n; i++ {
		if _, err := r.ReadUvarint(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reader) skipString() error {
	length, err := r.ReadUvarint()
	if err != nil {
		return err
	}
	if length > uint64(r.Remaining()) {
		return io.ErrUnexpectedEOF
	}
	if length > MaxStringLen {
		return ErrStringTooLarge
	}
	r.pos += int(length)
	return nil
}

func (r *Reader) skipPath() error {
	count, err := r.ReadUvarint()
	if err != nil {
		return err
	}
	if count > MaxPathLen {
		return ErrPathTooLong
	}
	return r.skipUvarints(int(count))
}

// CountOps validates frame and returns the number of instructions before
// the End sentinel. Used for metrics and history bookkeeping.
func CountOps(frame []byte) (int, error) {
	r := NewReader(frame)
	count := 0
	for {
		op, err := r.ReadOp()
		if err != nil {
			return count, ErrMissingEnd
		}
		if op == OpEnd {
			return count, nil
		}
		if err := r.skipOperands(op); err != nil {
			return count, err
		}
		count++
	}
}
