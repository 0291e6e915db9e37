package hostdom

import (
	stderrors "errors"
	"io"
	"strconv"

	"github.com/lumen-dev/lumen/internal/errors"
	"github.com/lumen-dev/lumen/pkg/mutation"
	"github.com/lumen-dev/lumen/pkg/vdom"
)

// Document is the host tree plus the interpreter state: the element-id
// binding table and the node stack frames are applied through.
type Document struct {
	reg   *vdom.Registry
	root  *Node
	byID  map[uint32]*Node
	stack []*Node
}

// NewDocument creates an empty document sharing the guest's template
// registry. The synthetic root element is bound to id 0.
func NewDocument(reg *vdom.Registry) *Document {
	root := &Node{Kind: ElementNode, Tag: "body"}
	return &Document{
		reg:  reg,
		root: root,
		byID: map[uint32]*Node{uint32(vdom.RootElement): root},
	}
}

// Root returns the synthetic root element.
func (d *Document) Root() *Node {
	return d.root
}

// Lookup returns the node bound to an element id.
func (d *Document) Lookup(id uint32) (*Node, bool) {
	n, ok := d.byID[id]
	return n, ok
}

// Size returns the number of nodes in the tree, excluding the root.
func (d *Document) Size() int {
	return d.root.size() - 1
}

// HandlerID reads the handler id registered on an element by the
// guest's event wiring. The boolean is false when the element carries
// none.
func (d *Document) HandlerID(id uint32) (uint32, bool) {
	n, ok := d.byID[id]
	if !ok {
		return 0, false
	}
	raw := n.Attr(vdom.HandlerAttr)
	if raw == "" {
		return 0, false
	}
	h, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(h), true
}

func (d *Document) lookup(id uint32) (*Node, error) {
	n, ok := d.byID[id]
	if !ok {
		return nil, errors.New("E045").WithDetailf("element id %d", id)
	}
	return n, nil
}

func (d *Document) bind(id uint32, n *Node) {
	d.byID[id] = n
}

// unbind drops every id binding pointing into the subtree.
func (d *Document) unbind(n *Node) {
	for id, bound := range d.byID {
		if inSubtree(bound, n) {
			delete(d.byID, id)
		}
	}
}

func inSubtree(n, root *Node) bool {
	for ; n != nil; n = n.parent {
		if n == root {
			return true
		}
	}
	return false
}

// instantiate clones a template node into a host subtree. Dynamic
// slots materialize as placeholders for the stream's fix-ups.
func instantiate(tn *vdom.TemplateNode) *Node {
	switch tn.Kind {
	case vdom.NodeText:
		return &Node{Kind: TextNode, Text: tn.Text}
	case vdom.NodeDynamic, vdom.NodeDynamicText:
		return &Node{Kind: PlaceholderNode}
	default:
		n := &Node{Kind: ElementNode, Tag: tn.Tag}
		if len(tn.Attrs) > 0 {
			n.Attrs = make(map[string]string, len(tn.Attrs))
			for _, a := range tn.Attrs {
				n.Attrs[a.Name] = a.Value
			}
		}
		for i := range tn.Children {
			c := instantiate(&tn.Children[i])
			c.parent = n
			n.Children = append(n.Children, c)
		}
		return n
	}
}

// walk resolves a child-index path from a base node.
func walk(base *Node, path []uint32) (*Node, error) {
	n := base
	for _, idx := range path {
		if int(idx) >= len(n.Children) {
			return nil, errors.New("E044").WithDetailf("index %d of %d children", idx, len(n.Children))
		}
		n = n.Children[int(idx)]
	}
	return n, nil
}

func (d *Document) push(n *Node) {
	d.stack = append(d.stack, n)
}

func (d *Document) top() (*Node, error) {
	if len(d.stack) == 0 {
		return nil, errors.New("E043").WithDetail("no template root on the stack")
	}
	return d.stack[len(d.stack)-1], nil
}

// pop removes count nodes, returned in push order.
func (d *Document) pop(count uint32) ([]*Node, error) {
	if uint32(len(d.stack)) < count {
		return nil, errors.New("E043").WithDetailf("pop %d with %d on the stack", count, len(d.stack))
	}
	cut := len(d.stack) - int(count)
	nodes := make([]*Node, count)
	copy(nodes, d.stack[cut:])
	d.stack = d.stack[:cut]
	return nodes, nil
}

// splice replaces parent.Children[idx:idx+removed] with nodes.
func splice(parent *Node, idx, removed int, nodes []*Node) {
	for _, n := range nodes {
		n.parent = parent
	}
	tail := parent.Children[idx+removed:]
	merged := make([]*Node, 0, len(parent.Children)-removed+len(nodes))
	merged = append(merged, parent.Children[:idx]...)
	merged = append(merged, nodes...)
	merged = append(merged, tail...)
	parent.Children = merged
}

// Apply executes one mutation frame against the tree. On error the
// document may hold a partially applied frame; callers discard it.
func (d *Document) Apply(frame []byte) error {
	r := mutation.NewReader(frame)
	for {
		op, err := r.ReadOp()
		if err != nil {
			return streamErr(err)
		}
		if op == mutation.OpEnd {
			if len(d.stack) != 0 {
				return errors.New("E042").WithDetailf("stream ended with %d nodes on the stack", len(d.stack))
			}
			return nil
		}
		if err := d.apply(op, r); err != nil {
			return err
		}
	}
}

func streamErr(err error) error {
	switch {
	case stderrors.Is(err, mutation.ErrUnknownOp):
		return errors.New("E041").Wrap(err)
	case stderrors.Is(err, io.ErrUnexpectedEOF), stderrors.Is(err, mutation.ErrMissingEnd):
		return errors.New("E042").Wrap(err)
	default:
		return errors.New("E042").Wrap(err)
	}
}

func (d *Document) apply(op mutation.Op, r *mutation.Reader) error {
	switch op {
	case mutation.OpLoadTemplate:
		tid, err := r.ReadID()
		if err != nil {
			return streamErr(err)
		}
		rootIdx, err := r.ReadID()
		if err != nil {
			return streamErr(err)
		}
		id, err := r.ReadID()
		if err != nil {
			return streamErr(err)
		}
		if int(tid) >= d.reg.Len() {
			return errors.New("E020").WithDetailf("template id %d", tid)
		}
		t := d.reg.Get(vdom.TemplateID(tid))
		if int(rootIdx) >= t.RootCount() {
			return errors.New("E044").WithDetailf("template %d root %d of %d", tid, rootIdx, t.RootCount())
		}
		n := instantiate(&t.Roots()[rootIdx])
		d.bind(id, n)
		d.push(n)
		return nil

	case mutation.OpAssignID:
		path, err := r.ReadPath()
		if err != nil {
			return streamErr(err)
		}
		id, err := r.ReadID()
		if err != nil {
			return streamErr(err)
		}
		base, err := d.top()
		if err != nil {
			return err
		}
		n, err := walk(base, path)
		if err != nil {
			return err
		}
		d.bind(id, n)
		return nil

	case mutation.OpCreateTextNode:
		id, err := r.ReadID()
		if err != nil {
			return streamErr(err)
		}
		text, err := r.ReadString()
		if err != nil {
			return streamErr(err)
		}
		n := &Node{Kind: TextNode, Text: text}
		d.bind(id, n)
		d.push(n)
		return nil

	case mutation.OpCreatePlaceholder:
		id, err := r.ReadID()
		if err != nil {
			return streamErr(err)
		}
		n := &Node{Kind: PlaceholderNode}
		d.bind(id, n)
		d.push(n)
		return nil

	case mutation.OpReplacePlaceholder:
		path, err := r.ReadPath()
		if err != nil {
			return streamErr(err)
		}
		count, err := r.ReadID()
		if err != nil {
			return streamErr(err)
		}
		nodes, err := d.pop(count)
		if err != nil {
			return err
		}
		base, err := d.top()
		if err != nil {
			return err
		}
		target, err := walk(base, path)
		if err != nil {
			return err
		}
		if target.parent == nil {
			return errors.New("E044").WithDetail("replace target has no parent")
		}
		idx := target.indexIn(target.parent)
		splice(target.parent, idx, 1, nodes)
		return nil

	case mutation.OpSetAttribute:
		id, err := r.ReadID()
		if err != nil {
			return streamErr(err)
		}
		if _, err := r.ReadBool(); err != nil {
			return streamErr(err)
		}
		name, err := r.ReadString()
		if err != nil {
			return streamErr(err)
		}
		value, err := r.ReadString()
		if err != nil {
			return streamErr(err)
		}
		n, err := d.lookup(id)
		if err != nil {
			return err
		}
		if n.Attrs == nil {
			n.Attrs = make(map[string]string)
		}
		n.Attrs[name] = value
		return nil

	case mutation.OpNewEventListener, mutation.OpRemoveEventListener:
		id, err := r.ReadID()
		if err != nil {
			return streamErr(err)
		}
		event, err := r.ReadString()
		if err != nil {
			return streamErr(err)
		}
		n, err := d.lookup(id)
		if err != nil {
			return err
		}
		if op == mutation.OpNewEventListener {
			if n.Listeners == nil {
				n.Listeners = make(map[string]bool)
			}
			n.Listeners[event] = true
		} else {
			delete(n.Listeners, event)
		}
		return nil

	case mutation.OpSetText:
		id, err := r.ReadID()
		if err != nil {
			return streamErr(err)
		}
		text, err := r.ReadString()
		if err != nil {
			return streamErr(err)
		}
		n, err := d.lookup(id)
		if err != nil {
			return err
		}
		if n.Kind != TextNode {
			return errors.New("E045").WithDetailf("SetText on a %d-kind node", n.Kind)
		}
		n.Text = text
		return nil

	case mutation.OpReplaceWith:
		id, err := r.ReadID()
		if err != nil {
			return streamErr(err)
		}
		count, err := r.ReadID()
		if err != nil {
			return streamErr(err)
		}
		nodes, err := d.pop(count)
		if err != nil {
			return err
		}
		old, err := d.lookup(id)
		if err != nil {
			return err
		}
		if old.parent == nil {
			return errors.New("E044").WithDetailf("element %d is detached", id)
		}
		idx := old.indexIn(old.parent)
		d.unbind(old)
		splice(old.parent, idx, 1, nodes)
		return nil

	case mutation.OpInsertAfter:
		id, err := r.ReadID()
		if err != nil {
			return streamErr(err)
		}
		count, err := r.ReadID()
		if err != nil {
			return streamErr(err)
		}
		nodes, err := d.pop(count)
		if err != nil {
			return err
		}
		anchor, err := d.lookup(id)
		if err != nil {
			return err
		}
		if anchor.parent == nil {
			return errors.New("E044").WithDetailf("element %d is detached", id)
		}
		idx := anchor.indexIn(anchor.parent)
		splice(anchor.parent, idx+1, 0, nodes)
		return nil

	case mutation.OpRemove:
		id, err := r.ReadID()
		if err != nil {
			return streamErr(err)
		}
		old, err := d.lookup(id)
		if err != nil {
			return err
		}
		if old.parent == nil {
			return errors.New("E044").WithDetailf("element %d is detached", id)
		}
		idx := old.indexIn(old.parent)
		d.unbind(old)
		splice(old.parent, idx, 1, nil)
		return nil

	case mutation.OpAppendChildren:
		id, err := r.ReadID()
		if err != nil {
			return streamErr(err)
		}
		count, err := r.ReadID()
		if err != nil {
			return streamErr(err)
		}
		nodes, err := d.pop(count)
		if err != nil {
			return err
		}
		parent, err := d.lookup(id)
		if err != nil {
			return err
		}
		for _, n := range nodes {
			n.parent = parent
		}
		parent.Children = append(parent.Children, nodes...)
		return nil

	default:
		return errors.New("E041").WithDetailf("opcode 0x%02X", uint8(op))
	}
}
