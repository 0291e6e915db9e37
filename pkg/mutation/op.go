package mutation

import "fmt"

// Op is the type of a mutation instruction.
type Op uint8

// Mutation opcodes. Element-creating ops push onto the interpreter stack;
// ReplacePlaceholder, ReplaceWith, InsertAfter and AppendChildren pop the
// count they declare.
const (
	// OpEnd terminates a frame. No operands.
	OpEnd Op = 0x00

	// OpLoadTemplate clones a template root and pushes it.
	// Operands: template id, root index, new element id.
	OpLoadTemplate Op = 0x01

	// OpAssignID binds an element id to the node at a path under the
	// template root on top of the stack. Operands: path, element id.
	OpAssignID Op = 0x02

	// OpCreateTextNode creates a text node and pushes it.
	// Operands: element id, text.
	OpCreateTextNode Op = 0x03

	// OpCreatePlaceholder creates an empty placeholder node and pushes
	// it. Operands: element id.
	OpCreatePlaceholder Op = 0x04

	// OpReplacePlaceholder pops count nodes and replaces the node at a
	// path under the template root below them on the stack.
	// Operands: path, count.
	OpReplacePlaceholder Op = 0x05

	// OpSetAttribute sets an attribute on a bound element.
	// Operands: element id, namespace flag, name, value.
	OpSetAttribute Op = 0x06

	// OpNewEventListener registers an event listener on a bound element.
	// Operands: element id, event name.
	OpNewEventListener Op = 0x07

	// OpRemoveEventListener removes an event listener from a bound
	// element. Operands: element id, event name.
	OpRemoveEventListener Op = 0x08

	// OpSetText replaces the text content of a bound text node.
	// Operands: element id, text.
	OpSetText Op = 0x09

	// OpReplaceWith pops count nodes and replaces a bound element with
	// them. Operands: target element id, count.
	OpReplaceWith Op = 0x0A

	// OpInsertAfter pops count nodes and inserts them after a bound
	// element. Operands: anchor element id, count.
	OpInsertAfter Op = 0x0B

	// OpRemove detaches a bound element from the tree.
	// Operands: element id.
	OpRemove Op = 0x0C

	// OpAppendChildren pops count nodes and appends them to a bound
	// element (id 0 is the host root container).
	// Operands: parent element id, count.
	OpAppendChildren Op = 0x0D
)

// String returns the string representation of the opcode.
func (op Op) String() string {
	switch op {
	case OpEnd:
		return "End"
	case OpLoadTemplate:
		return "LoadTemplate"
	case OpAssignID:
		return "AssignId"
	case OpCreateTextNode:
		return "CreateTextNode"
	case OpCreatePlaceholder:
		return "CreatePlaceholder"
	case OpReplacePlaceholder:
		return "ReplacePlaceholder"
	case OpSetAttribute:
		return "SetAttribute"
	case OpNewEventListener:
		return "NewEventListener"
	case OpRemoveEventListener:
		return "RemoveEventListener"
	case OpSetText:
		return "SetText"
	case OpReplaceWith:
		return "ReplaceWith"
	case OpInsertAfter:
		return "InsertAfter"
	case OpRemove:
		return "Remove"
	case OpAppendChildren:
		return "AppendChildren"
	default:
		return fmt.Sprintf("Op(0x%02X)", uint8(op))
	}
}
