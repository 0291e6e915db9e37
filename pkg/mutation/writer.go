package mutation

import "errors"

// ErrBufferFull is latched by a Writer when an instruction does not fit
// in the remaining buffer. The frame under construction is invalid and
// must be discarded.
var ErrBufferFull = errors.New("mutation: buffer full")

// Writer emits mutation instructions into a pre-allocated buffer.
//
// Every emit method bounds-checks the cursor before writing. On overflow
// the writer latches ErrBufferFull and all further emits are no-ops, so
// callers may emit an entire pass and check Err once at the end.
type Writer struct {
	buf []byte
	n   int
	ops int
	err error
}

// NewWriter creates a writer over buf. The writer never grows buf.
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf}
}

// Reset rewinds the writer to the start of buf and clears any latched
// error.
func (w *Writer) Reset(buf []byte) {
	w.buf = buf
	w.n = 0
	w.ops = 0
	w.err = nil
}

// Len returns the number of bytes emitted so far.
func (w *Writer) Len() int {
	return w.n
}

// Ops returns the number of instructions emitted so far, excluding End.
func (w *Writer) Ops() int {
	return w.ops
}

// Err returns the latched error, if any.
func (w *Writer) Err() error {
	return w.err
}

// Bytes returns the emitted frame so far. Invalid if Err is non-nil.
func (w *Writer) Bytes() []byte {
	return w.buf[:w.n]
}

// Finish emits the End sentinel and returns the completed frame.
func (w *Writer) Finish() ([]byte, error) {
	if !w.fit(1) {
		return nil, w.err
	}
	w.buf[w.n] = byte(OpEnd)
	w.n++
	return w.buf[:w.n], nil
}

// fit reports whether size more bytes can be written, latching
// ErrBufferFull when they cannot.
func (w *Writer) fit(size int) bool {
	if w.err != nil {
		return false
	}
	if w.n+size > len(w.buf) {
		w.err = ErrBufferFull
		return false
	}
	return true
}

func (w *Writer) putOp(op Op) {
	w.buf[w.n] = byte(op)
	w.n++
	w.ops++
}

func (w *Writer) putUvarint(v uint64) {
	w.n += PutUvarint(w.buf[w.n:], v)
}

func (w *Writer) putString(s string) {
	w.putUvarint(uint64(len(s)))
	copy(w.buf[w.n:], s)
	w.n += len(s)
}

func (w *Writer) putPath(path []uint32) {
	w.putUvarint(uint64(len(path)))
	for _, idx := range path {
		w.putUvarint(uint64(idx))
	}
}

func stringSize(s string) int {
	return UvarintLen(uint64(len(s))) + len(s)
}

func pathSize(path []uint32) int {
	size := UvarintLen(uint64(len(path)))
	for _, idx := range path {
		size += UvarintLen(uint64(idx))
	}
	return size
}

// LoadTemplate clones root rootIndex of a registered template, binds it
// to id and pushes it onto the interpreter stack.
func (w *Writer) LoadTemplate(templateID, rootIndex, id uint32) {
	size := 1 + UvarintLen(uint64(templateID)) + UvarintLen(uint64(rootIndex)) + UvarintLen(uint64(id))
	if !w.fit(size) {
		return
	}
	w.putOp(OpLoadTemplate)
	w.putUvarint(uint64(templateID))
	w.putUvarint(uint64(rootIndex))
	w.putUvarint(uint64(id))
}

// AssignID binds id to the node at path under the template root on top
// of the stack.
func (w *Writer) AssignID(path []uint32, id uint32) {
	size := 1 + pathSize(path) + UvarintLen(uint64(id))
	if !w.fit(size) {
		return
	}
	w.putOp(OpAssignID)
	w.putPath(path)
	w.putUvarint(uint64(id))
}

// CreateTextNode creates a text node bound to id and pushes it.
func (w *Writer) CreateTextNode(id uint32, text string) {
	size := 1 + UvarintLen(uint64(id)) + stringSize(text)
	if !w.fit(size) {
		return
	}
	w.putOp(OpCreateTextNode)
	w.putUvarint(uint64(id))
	w.putString(text)
}

// CreatePlaceholder creates an empty placeholder bound to id and pushes
// it.
func (w *Writer) CreatePlaceholder(id uint32) {
	size := 1 + UvarintLen(uint64(id))
	if !w.fit(size) {
		return
	}
	w.putOp(OpCreatePlaceholder)
	w.putUvarint(uint64(id))
}

// ReplacePlaceholder pops count nodes and replaces the node at path
// under the template root below them on the stack.
func (w *Writer) ReplacePlaceholder(path []uint32, count uint32) {
	size := 1 + pathSize(path) + UvarintLen(uint64(count))
	if !w.fit(size) {
		return
	}
	w.putOp(OpReplacePlaceholder)
	w.putPath(path)
	w.putUvarint(uint64(count))
}

// SetAttribute sets an attribute on a bound element. ns marks a
// namespaced attribute.
func (w *Writer) SetAttribute(id uint32, ns bool, name, value string) {
	size := 1 + UvarintLen(uint64(id)) + 1 + stringSize(name) + stringSize(value)
	if !w.fit(size) {
		return
	}
	w.putOp(OpSetAttribute)
	w.putUvarint(uint64(id))
	if ns {
		w.buf[w.n] = 0x01
	} else {
		w.buf[w.n] = 0x00
	}
	w.n++
	w.putString(name)
	w.putString(value)
}

// NewEventListener registers an event listener on a bound element.
func (w *Writer) NewEventListener(id uint32, event string) {
	size := 1 + UvarintLen(uint64(id)) + stringSize(event)
	if !w.fit(size) {
		return
	}
	w.putOp(OpNewEventListener)
	w.putUvarint(uint64(id))
	w.putString(event)
}

// RemoveEventListener removes an event listener from a bound element.
func (w *Writer) RemoveEventListener(id uint32, event string) {
	size := 1 + UvarintLen(uint64(id)) + stringSize(event)
	if !w.fit(size) {
		return
	}
	w.putOp(OpRemoveEventListener)
	w.putUvarint(uint64(id))
	w.putString(event)
}

// SetText replaces the text content of a bound text node.
func (w *Writer) SetText(id uint32, text string) {
	size := 1 + UvarintLen(uint64(id)) + stringSize(text)
	if !w.fit(size) {
		return
	}
	w.putOp(OpSetText)
	w.putUvarint(uint64(id))
	w.putString(text)
}

// ReplaceWith pops count nodes and replaces the element bound to id
// with them.
func (w *Writer) ReplaceWith(id, count uint32) {
	size := 1 + UvarintLen(uint64(id)) + UvarintLen(uint64(count))
	if !w.fit(size) {
		return
	}
	w.putOp(OpReplaceWith)
	w.putUvarint(uint64(id))
	w.putUvarint(uint64(count))
}

// InsertAfter pops count nodes and inserts them after the element bound
// to id.
func (w *Writer) InsertAfter(id, count uint32) {
	size := 1 + UvarintLen(uint64(id)) + UvarintLen(uint64(count))
	if !w.fit(size) {
		return
	}
	w.putOp(OpInsertAfter)
	w.putUvarint(uint64(id))
	w.putUvarint(uint64(count))
}

// Remove detaches the element bound to id from the tree.
func (w *Writer) Remove(id uint32) {
	size := 1 + UvarintLen(uint64(id))
	if !w.fit(size) {
		return
	}
	w.putOp(OpRemove)
	w.putUvarint(uint64(id))
}

// AppendChildren pops count nodes and appends them to the element bound
// to id. Id 0 addresses the host root container.
func (w *Writer) AppendChildren(id, count uint32) {
	size := 1 + UvarintLen(uint64(id)) + UvarintLen(uint64(count))
	if !w.fit(size) {
		return
	}
	w.putOp(OpAppendChildren)
	w.putUvarint(uint64(id))
	w.putUvarint(uint64(count))
}
