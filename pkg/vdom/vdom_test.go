package vdom

import (
	"testing"

	"github.com/lumen-dev/lumen/internal/errors"
	"github.com/lumen-dev/lumen/pkg/mutation"
)

// decoded is one decoded instruction for assertions.
type decoded struct {
	op    mutation.Op
	id    uint32
	extra uint32 // root index or count
	name  string
	value string
	path  []uint32
}

// decodeFrame materializes a frame for test assertions, excluding End.
func decodeFrame(t *testing.T, frame []byte) []decoded {
	t.Helper()
	r := mutation.NewReader(frame)
	var out []decoded
	for {
		op, err := r.ReadOp()
		if err != nil {
			t.Fatalf("frame not terminated: %v", err)
		}
		if op == mutation.OpEnd {
			return out
		}
		d := decoded{op: op}
		var err2 error
		switch op {
		case mutation.OpLoadTemplate:
			d.id, _ = r.ReadID()
			d.extra, _ = r.ReadID()
			var elem uint32
			elem, err2 = r.ReadID()
			d.path = []uint32{elem}
		case mutation.OpAssignID:
			d.path, _ = r.ReadPath()
			d.id, err2 = r.ReadID()
		case mutation.OpCreateTextNode, mutation.OpSetText:
			d.id, _ = r.ReadID()
			d.value, err2 = r.ReadString()
		case mutation.OpCreatePlaceholder, mutation.OpRemove:
			d.id, err2 = r.ReadID()
		case mutation.OpReplacePlaceholder:
			d.path, _ = r.ReadPath()
			d.extra, err2 = r.ReadID()
		case mutation.OpSetAttribute:
			d.id, _ = r.ReadID()
			_, _ = r.ReadBool()
			d.name, _ = r.ReadString()
			d.value, err2 = r.ReadString()
		case mutation.OpNewEventListener, mutation.OpRemoveEventListener:
			d.id, _ = r.ReadID()
			d.name, err2 = r.ReadString()
		case mutation.OpReplaceWith, mutation.OpInsertAfter, mutation.OpAppendChildren:
			d.id, _ = r.ReadID()
			d.extra, err2 = r.ReadID()
		default:
			t.Fatalf("unexpected opcode %v", op)
		}
		if err2 != nil {
			t.Fatalf("decode %v: %v", op, err2)
		}
		out = append(out, d)
	}
}

// testWorld bundles the stores one engine pass needs.
type testWorld struct {
	reg    *Registry
	store  *VNodeStore
	alloc  *ElementAllocator
	create *CreateEngine
	diff   *DiffEngine
}

func newTestWorld() *testWorld {
	reg := NewRegistry()
	store := NewVNodeStore(reg)
	alloc := NewElementAllocator()
	create := NewCreateEngine(store, reg, alloc)
	return &testWorld{
		reg:    reg,
		store:  store,
		alloc:  alloc,
		create: create,
		diff:   NewDiffEngine(store, reg, alloc, create),
	}
}

// counterTemplate is a div holding a dynamic text and a button with a
// dynamic click binding.
func counterTemplate(reg *Registry) TemplateID {
	return reg.Register([]TemplateNode{{
		Kind: NodeElement,
		Tag:  "div",
		Children: []TemplateNode{
			{Kind: NodeDynamicText},
			{
				Kind:     NodeElement,
				Tag:      "button",
				DynAttrs: []string{"click"},
				Children: []TemplateNode{{Kind: NodeText, Text: "+"}},
			},
		},
	}})
}

func newWriter() *mutation.Writer {
	return mutation.NewWriter(make([]byte, 4096))
}

func TestRegisterSlotCounts(t *testing.T) {
	w := newTestWorld()
	id := counterTemplate(w.reg)
	tmpl := w.reg.Get(id)

	if tmpl.NumDynNodes() != 1 {
		t.Errorf("NumDynNodes = %d, want 1", tmpl.NumDynNodes())
	}
	if tmpl.NumDynAttrs() != 1 {
		t.Errorf("NumDynAttrs = %d, want 1", tmpl.NumDynAttrs())
	}
	if tmpl.RootCount() != 1 {
		t.Errorf("RootCount = %d, want 1", tmpl.RootCount())
	}
}

func TestCreateTemplateRef(t *testing.T) {
	w := newTestWorld()
	tid := counterTemplate(w.reg)
	vn := w.store.NewTemplateRef(tid,
		[]AttrValue{EventAttr(9)},
		[]DynNode{DynTextNode("0")})

	wr := newWriter()
	roots := w.create.CreateNode(wr, vn)
	frame, err := wr.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if roots != 1 {
		t.Fatalf("roots pushed = %d, want 1", roots)
	}

	ops := decodeFrame(t, frame)
	if len(ops) != 6 {
		t.Fatalf("op count = %d, want 6: %v", len(ops), ops)
	}
	if ops[0].op != mutation.OpLoadTemplate || ops[0].id != uint32(tid) {
		t.Errorf("op 0 = %+v, want LoadTemplate of template %d", ops[0], tid)
	}
	if ops[1].op != mutation.OpAssignID || len(ops[1].path) != 1 || ops[1].path[0] != 1 {
		t.Errorf("op 1 = %+v, want AssignId at path [1]", ops[1])
	}
	if ops[2].op != mutation.OpNewEventListener || ops[2].name != "click" {
		t.Errorf("op 2 = %+v, want NewEventListener click", ops[2])
	}
	if ops[3].op != mutation.OpSetAttribute || ops[3].name != HandlerAttr || ops[3].value != "9" {
		t.Errorf("op 3 = %+v, want handler attribute 9", ops[3])
	}
	if ops[4].op != mutation.OpCreateTextNode || ops[4].value != "0" {
		t.Errorf("op 4 = %+v, want CreateTextNode \"0\"", ops[4])
	}
	if ops[5].op != mutation.OpReplacePlaceholder || len(ops[5].path) != 1 || ops[5].path[0] != 0 || ops[5].extra != 1 {
		t.Errorf("op 5 = %+v, want ReplacePlaceholder at [0] count 1", ops[5])
	}

	n := w.store.Get(vn)
	if !n.Mounted {
		t.Error("vnode not marked mounted")
	}
	if len(n.RootIDs) != 1 || len(n.DynNodeIDs) != 1 || len(n.DynAttrIDs) != 1 {
		t.Errorf("mount vectors = %d/%d/%d, want 1/1/1",
			len(n.RootIDs), len(n.DynNodeIDs), len(n.DynAttrIDs))
	}
	if w.alloc.LiveCount() != 3 {
		t.Errorf("live elements = %d, want 3", w.alloc.LiveCount())
	}
}

func TestRoundTripMountIsNoOp(t *testing.T) {
	w := newTestWorld()
	tid := counterTemplate(w.reg)
	old := w.store.NewTemplateRef(tid,
		[]AttrValue{EventAttr(4)},
		[]DynNode{DynTextNode("0")})
	w.create.CreateNode(newWriter(), old)

	fresh := w.store.NewTemplateRef(tid,
		[]AttrValue{EventAttr(4)},
		[]DynNode{DynTextNode("0")})

	wr := newWriter()
	w.diff.DiffNode(wr, old, fresh)
	if wr.Ops() != 0 {
		frame, _ := wr.Finish()
		t.Errorf("self-diff emitted %d ops: %v", wr.Ops(), decodeFrame(t, frame))
	}
	if !w.store.Get(fresh).Mounted {
		t.Error("mount state not transferred")
	}
	if w.store.Get(old).Mounted {
		t.Error("old vnode still marked mounted")
	}
}

func TestDiffTextChangeEmitsSingleSetText(t *testing.T) {
	w := newTestWorld()
	tid := counterTemplate(w.reg)
	old := w.store.NewTemplateRef(tid,
		[]AttrValue{EventAttr(4)},
		[]DynNode{DynTextNode("0")})
	w.create.CreateNode(newWriter(), old)
	textElem := w.store.Get(old).DynNodeIDs[0]

	fresh := w.store.NewTemplateRef(tid,
		[]AttrValue{EventAttr(4)},
		[]DynNode{DynTextNode("1")})

	wr := newWriter()
	w.diff.DiffNode(wr, old, fresh)
	frame, _ := wr.Finish()

	ops := decodeFrame(t, frame)
	if len(ops) != 1 || ops[0].op != mutation.OpSetText {
		t.Fatalf("ops = %v, want exactly one SetText", ops)
	}
	if ops[0].id != uint32(textElem) || ops[0].value != "1" {
		t.Errorf("SetText = %+v, want element %d text \"1\"", ops[0], textElem)
	}
}

func TestDiffEventTransitions(t *testing.T) {
	w := newTestWorld()
	tid := w.reg.Register([]TemplateNode{{
		Kind:     NodeElement,
		Tag:      "input",
		DynAttrs: []string{"keydown"},
	}})

	mount := func(v AttrValue) VNodeID {
		vn := w.store.NewTemplateRef(tid, []AttrValue{v}, nil)
		w.create.CreateNode(newWriter(), vn)
		return vn
	}
	diffOps := func(old VNodeID, v AttrValue) []decoded {
		fresh := w.store.NewTemplateRef(tid, []AttrValue{v}, nil)
		wr := newWriter()
		w.diff.DiffNode(wr, old, fresh)
		frame, _ := wr.Finish()
		return decodeFrame(t, frame)
	}

	// Same handler: nothing to do.
	old := mount(EventAttr(3))
	if ops := diffOps(old, EventAttr(3)); len(ops) != 0 {
		t.Errorf("same-handler diff emitted %v", ops)
	}

	// Handler change: remove, add, handler attribute.
	old = mount(EventAttr(3))
	ops := diffOps(old, EventAttr(8))
	if len(ops) != 3 ||
		ops[0].op != mutation.OpRemoveEventListener ||
		ops[1].op != mutation.OpNewEventListener ||
		ops[2].op != mutation.OpSetAttribute || ops[2].value != "8" {
		t.Errorf("handler change ops = %v", ops)
	}

	// Event to text: remove, attribute write, handler attribute
	// cleared so the host stops resolving the dead id.
	old = mount(EventAttr(3))
	ops = diffOps(old, TextAttr("abc"))
	if len(ops) != 3 ||
		ops[0].op != mutation.OpRemoveEventListener ||
		ops[1].op != mutation.OpSetAttribute || ops[1].name != "keydown" || ops[1].value != "abc" ||
		ops[2].op != mutation.OpSetAttribute || ops[2].name != HandlerAttr || ops[2].value != "" {
		t.Errorf("event-to-text ops = %v", ops)
	}

	// Text to event: add plus handler attribute.
	old = mount(TextAttr("abc"))
	ops = diffOps(old, EventAttr(5))
	if len(ops) != 2 ||
		ops[0].op != mutation.OpNewEventListener ||
		ops[1].op != mutation.OpSetAttribute || ops[1].name != HandlerAttr || ops[1].value != "5" {
		t.Errorf("text-to-event ops = %v", ops)
	}
}

func TestHandlerAttrSurvivesSiblingListenerRemoval(t *testing.T) {
	w := newTestWorld()
	tid := w.reg.Register([]TemplateNode{{
		Kind:     NodeElement,
		Tag:      "input",
		DynAttrs: []string{"click", "keydown"},
	}})

	old := w.store.NewTemplateRef(tid,
		[]AttrValue{EventAttr(3), EventAttr(7)}, nil)
	w.create.CreateNode(newWriter(), old)

	// The click slot drops its listener; keydown stays bound, so the
	// handler attribute must end up pointing at its id.
	fresh := w.store.NewTemplateRef(tid,
		[]AttrValue{TextAttr("x"), EventAttr(7)}, nil)
	wr := newWriter()
	w.diff.DiffNode(wr, old, fresh)
	frame, _ := wr.Finish()
	ops := decodeFrame(t, frame)

	got := ""
	for _, op := range ops {
		if op.op == mutation.OpSetAttribute && op.name == HandlerAttr {
			got = op.value
		}
	}
	if got != "7" {
		t.Errorf("handler attribute after removal = %q, want %q", got, "7")
	}
}

func TestReplacementFreesOldIDs(t *testing.T) {
	w := newTestWorld()
	tid := counterTemplate(w.reg)
	old := w.store.NewTemplateRef(tid,
		[]AttrValue{EventAttr(1)},
		[]DynNode{DynTextNode("x")})
	w.create.CreateNode(newWriter(), old)
	if w.alloc.LiveCount() != 3 {
		t.Fatalf("live after mount = %d, want 3", w.alloc.LiveCount())
	}
	oldFirstRoot := w.store.Get(old).RootIDs[0]

	fresh := w.store.NewText("plain")
	wr := newWriter()
	w.diff.DiffNode(wr, old, fresh)
	frame, _ := wr.Finish()

	ops := decodeFrame(t, frame)
	if len(ops) != 2 ||
		ops[0].op != mutation.OpCreateTextNode ||
		ops[1].op != mutation.OpReplaceWith || ops[1].id != uint32(oldFirstRoot) || ops[1].extra != 1 {
		t.Errorf("replacement ops = %v", ops)
	}
	// Old's three ids freed, one new id allocated.
	if w.alloc.LiveCount() != 1 {
		t.Errorf("live after replacement = %d, want 1", w.alloc.LiveCount())
	}
	if !w.alloc.Live(w.store.Get(fresh).RootIDs[0]) {
		t.Error("new root id not live")
	}
}

func TestFragmentGrowAndShrink(t *testing.T) {
	w := newTestWorld()

	newItems := func(texts ...string) VNodeID {
		children := make([]VNodeID, len(texts))
		for i, s := range texts {
			children[i] = w.store.NewText(s)
		}
		return w.store.NewFragment(children)
	}

	old := newItems("a")
	w.create.CreateNode(newWriter(), old)
	anchorRoot := w.store.Get(w.store.Get(old).Children[0]).RootIDs[0]

	// Grow 1 -> 3.
	grown := newItems("a", "b", "c")
	wr := newWriter()
	w.diff.DiffNode(wr, old, grown)
	frame, _ := wr.Finish()
	ops := decodeFrame(t, frame)

	if len(ops) != 4 {
		t.Fatalf("grow ops = %v, want create+insert per added item", ops)
	}
	if ops[0].op != mutation.OpCreateTextNode || ops[0].value != "b" {
		t.Errorf("grow op 0 = %+v", ops[0])
	}
	if ops[1].op != mutation.OpInsertAfter || ops[1].id != uint32(anchorRoot) || ops[1].extra != 1 {
		t.Errorf("grow op 1 = %+v, want InsertAfter anchored on %d", ops[1], anchorRoot)
	}
	bRoot := ops[0].id
	if ops[2].op != mutation.OpCreateTextNode || ops[2].value != "c" {
		t.Errorf("grow op 2 = %+v", ops[2])
	}
	if ops[3].op != mutation.OpInsertAfter || ops[3].id != bRoot {
		t.Errorf("grow op 3 = %+v, want anchored on freshly inserted %d", ops[3], bRoot)
	}
	if w.alloc.LiveCount() != 3 {
		t.Errorf("live after grow = %d, want 3", w.alloc.LiveCount())
	}

	// Shrink 3 -> 1.
	shrunk := newItems("a")
	wr = newWriter()
	w.diff.DiffNode(wr, grown, shrunk)
	frame, _ = wr.Finish()
	ops = decodeFrame(t, frame)

	if len(ops) != 2 || ops[0].op != mutation.OpRemove || ops[1].op != mutation.OpRemove {
		t.Fatalf("shrink ops = %v, want two Removes", ops)
	}
	if w.alloc.LiveCount() != 1 {
		t.Errorf("live after shrink = %d, want 1", w.alloc.LiveCount())
	}
}

func TestFragmentSlotTransitions(t *testing.T) {
	w := newTestWorld()

	// Mount state: a lone placeholder anchors the empty region.
	anchor := w.alloc.Alloc()
	wr := newWriter()
	wr.CreatePlaceholder(uint32(anchor))
	slot := NewFragmentSlot(anchor)

	items := func(texts ...string) VNodeID {
		children := make([]VNodeID, len(texts))
		for i, s := range texts {
			children[i] = w.store.NewText(s)
		}
		return w.store.NewFragment(children)
	}

	// 0 -> 3: create items, replace the anchor.
	wr = newWriter()
	w.diff.FlushSlot(wr, slot, items("a", "b", "c"))
	frame, _ := wr.Finish()
	ops := decodeFrame(t, frame)
	last := ops[len(ops)-1]
	if last.op != mutation.OpReplaceWith || last.id != uint32(anchor) || last.extra != 3 {
		t.Errorf("0->3 final op = %+v, want ReplaceWith(%d, 3)", last, anchor)
	}
	if !slot.HasContent() {
		t.Fatal("slot empty after populate")
	}
	// Three item ids plus the anchor, which stays reserved while the
	// slot is populated.
	if w.alloc.LiveCount() != 4 {
		t.Errorf("live after 0->3 = %d, want 4", w.alloc.LiveCount())
	}
	if !w.alloc.Live(anchor) {
		t.Error("anchor id released while slot populated")
	}

	// 3 -> 0: the reserved anchor comes back, every item goes out.
	wr = newWriter()
	w.diff.FlushSlot(wr, slot, items())
	frame, _ = wr.Finish()
	ops = decodeFrame(t, frame)
	if ops[0].op != mutation.OpCreatePlaceholder || ops[0].id != uint32(anchor) {
		t.Errorf("3->0 op 0 = %+v, want CreatePlaceholder under reserved id %d", ops[0], anchor)
	}
	if ops[1].op != mutation.OpReplaceWith || ops[1].extra != 1 {
		t.Errorf("3->0 op 1 = %+v, want ReplaceWith count 1", ops[1])
	}
	removes := 0
	for _, op := range ops[2:] {
		if op.op == mutation.OpRemove {
			removes++
		}
	}
	if removes != 2 {
		t.Errorf("3->0 removes = %d, want 2", removes)
	}
	if slot.HasContent() {
		t.Error("slot still populated after clearing")
	}
	// Exactly the fresh anchor remains.
	if w.alloc.LiveCount() != 1 {
		t.Errorf("live after 3->0 = %d, want 1", w.alloc.LiveCount())
	}

	// 0 -> 0 is a pure no-op.
	wr = newWriter()
	w.diff.FlushSlot(wr, slot, items())
	if wr.Ops() != 0 {
		t.Error("0->0 emitted instructions")
	}
}

func TestSlotAnchorStaysReservedByOwner(t *testing.T) {
	w := newTestWorld()
	listTid := w.reg.Register([]TemplateNode{{
		Kind:     NodeElement,
		Tag:      "ul",
		Children: []TemplateNode{{Kind: NodeDynamic}},
	}})
	owner := w.store.NewTemplateRef(listTid, nil, []DynNode{DynPlaceholderNode()})
	w.create.CreateNode(newWriter(), owner)
	anchor := w.store.Get(owner).DynNodeIDs[0]
	slot := NewFragmentSlot(anchor)

	w.diff.FlushSlot(newWriter(), slot,
		w.store.NewFragment([]VNodeID{w.store.NewText("a")}))

	// The owner's mount state still records the anchor, so populating
	// the slot must not hand the id back to the allocator.
	if !w.alloc.Live(anchor) {
		t.Fatal("anchor released while the owner still records it")
	}
	if extra := w.alloc.Alloc(); extra == anchor {
		t.Fatalf("Alloc reissued anchor id %d held by the owner", extra)
	}

	// Tearing the owner down frees the anchor exactly once.
	w.diff.FreeMount(slot.Content())
	fresh := w.store.NewText("gone")
	w.diff.DiffNode(newWriter(), owner, fresh)
	if w.alloc.Live(anchor) {
		t.Error("anchor still live after owner teardown")
	}
}

func TestSlotCountMismatchPanics(t *testing.T) {
	w := newTestWorld()
	tid := counterTemplate(w.reg)

	defer func() {
		r := recover()
		le, ok := r.(*errors.LumenError)
		if !ok || le.Code != "E021" {
			t.Errorf("panic = %v, want E021", r)
		}
	}()
	w.store.NewTemplateRef(tid, nil, []DynNode{DynTextNode("0")})
}

func TestDoubleFreePanics(t *testing.T) {
	alloc := NewElementAllocator()
	id := alloc.Alloc()
	alloc.Free(id)

	defer func() {
		r := recover()
		le, ok := r.(*errors.LumenError)
		if !ok || le.Code != "E022" {
			t.Errorf("panic = %v, want E022", r)
		}
	}()
	alloc.Free(id)
}

func TestAllocReusesFreedIDs(t *testing.T) {
	alloc := NewElementAllocator()
	a := alloc.Alloc()
	b := alloc.Alloc()
	if a == 0 || b == 0 {
		t.Fatal("allocator issued reserved id 0")
	}
	alloc.Free(a)
	c := alloc.Alloc()
	if c != a {
		t.Errorf("Alloc after free = %d, want reused %d", c, a)
	}
	if alloc.LiveCount() != 2 {
		t.Errorf("LiveCount = %d, want 2", alloc.LiveCount())
	}
}

func TestDiffAgainstUnmountedPanics(t *testing.T) {
	w := newTestWorld()
	a := w.store.NewText("a")
	b := w.store.NewText("b")

	defer func() {
		r := recover()
		le, ok := r.(*errors.LumenError)
		if !ok || le.Code != "E023" {
			t.Errorf("panic = %v, want E023", r)
		}
	}()
	w.diff.DiffNode(newWriter(), a, b)
}
