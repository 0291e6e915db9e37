package app

import (
	"testing"

	"github.com/lumen-dev/lumen/internal/errors"
	"github.com/lumen-dev/lumen/pkg/events"
	"github.com/lumen-dev/lumen/pkg/mutation"
	"github.com/lumen-dev/lumen/pkg/reactive"
	"github.com/lumen-dev/lumen/pkg/vdom"
)

type frameOp struct {
	op    mutation.Op
	id    uint32
	count uint32
	text  string
}

// readFrame decodes a frame's operations, keeping the operands the app
// tests assert on.
func readFrame(t *testing.T, frame []byte) []frameOp {
	t.Helper()
	r := mutation.NewReader(frame)
	var out []frameOp
	for {
		op, err := r.ReadOp()
		if err != nil {
			t.Fatalf("frame not terminated: %v", err)
		}
		if op == mutation.OpEnd {
			return out
		}
		f := frameOp{op: op}
		switch op {
		case mutation.OpLoadTemplate:
			_, _ = r.ReadID()
			_, _ = r.ReadID()
			f.id, _ = r.ReadID()
		case mutation.OpAssignID:
			_, _ = r.ReadPath()
			f.id, _ = r.ReadID()
		case mutation.OpCreateTextNode, mutation.OpSetText:
			f.id, _ = r.ReadID()
			f.text, _ = r.ReadString()
		case mutation.OpCreatePlaceholder, mutation.OpRemove:
			f.id, _ = r.ReadID()
		case mutation.OpReplacePlaceholder:
			_, _ = r.ReadPath()
			f.count, _ = r.ReadID()
		case mutation.OpSetAttribute:
			f.id, _ = r.ReadID()
			_, _ = r.ReadBool()
			_, _ = r.ReadString()
			f.text, _ = r.ReadString()
		case mutation.OpNewEventListener, mutation.OpRemoveEventListener:
			f.id, _ = r.ReadID()
			f.text, _ = r.ReadString()
		case mutation.OpReplaceWith, mutation.OpInsertAfter, mutation.OpAppendChildren:
			f.id, _ = r.ReadID()
			f.count, _ = r.ReadID()
		default:
			t.Fatalf("unexpected opcode %v", op)
		}
		out = append(out, f)
	}
}

func counterTemplate(reg *vdom.Registry) vdom.TemplateID {
	return reg.Register([]vdom.TemplateNode{{
		Kind: vdom.NodeElement,
		Tag:  "div",
		Children: []vdom.TemplateNode{
			{Kind: vdom.NodeDynamicText},
			{
				Kind:     vdom.NodeElement,
				Tag:      "button",
				DynAttrs: []string{"click"},
				Children: []vdom.TemplateNode{{Kind: vdom.NodeText, Text: "+"}},
			},
		},
	}})
}

// mountCounter wires the increment-button scenario: one integer signal
// bound to a text slot and a click handler adding one.
func mountCounter(s *Shell) events.HandlerID {
	tid := counterTemplate(s.Templates())
	var inc events.HandlerID
	s.Mount(func(ctx *Context) RenderFunc {
		count := ctx.Signal(reactive.Int(0))
		inc = ctx.Handler(events.Handler{
			Action:  events.ActionAddInt,
			Signal:  count,
			Operand: 1,
			Event:   "click",
		})
		return func(ctx *Context) vdom.VNodeID {
			v := ctx.Read(count)
			return ctx.Shell().Store().NewTemplateRef(tid,
				[]vdom.AttrValue{vdom.EventAttr(uint32(inc))},
				[]vdom.DynNode{vdom.DynTextNode(v.Display())})
		}
	})
	return inc
}

func TestCounterLifecycle(t *testing.T) {
	s := NewShell()
	inc := mountCounter(s)
	buf := make([]byte, 4096)

	n, err := s.Rebuild(buf)
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	ops := readFrame(t, buf[:n])
	last := ops[len(ops)-1]
	if last.op != mutation.OpAppendChildren || last.id != 0 || last.count != 1 {
		t.Errorf("final mount op = %+v, want AppendChildren(0, 1)", last)
	}
	mountedText := ""
	for _, f := range ops {
		if f.op == mutation.OpCreateTextNode {
			mountedText = f.text
		}
	}
	if mountedText != "0" {
		t.Errorf("mounted text = %q, want %q", mountedText, "0")
	}

	for _, want := range []string{"1", "2"} {
		dirty, err := s.HandleEvent(inc, events.Payload{Type: "click"})
		if err != nil {
			t.Fatalf("HandleEvent: %v", err)
		}
		if !dirty {
			t.Fatal("increment did not report dirty")
		}
		n, err = s.Flush(buf)
		if err != nil {
			t.Fatalf("Flush: %v", err)
		}
		ops = readFrame(t, buf[:n])
		if len(ops) != 1 || ops[0].op != mutation.OpSetText || ops[0].text != want {
			t.Fatalf("flush ops = %v, want exactly one SetText %q", ops, want)
		}
	}

	n, err = s.Flush(buf)
	if err != nil {
		t.Fatalf("clean Flush: %v", err)
	}
	if n != 0 {
		t.Errorf("clean Flush wrote %d bytes, want 0", n)
	}

	m := s.MetricsSnapshot()
	if m.Events != 2 || m.Frames != 3 {
		t.Errorf("metrics = %+v, want 2 events and 3 frames", m)
	}
}

func TestFlushBeforeRebuild(t *testing.T) {
	s := NewShell()
	mountCounter(s)
	if _, err := s.Flush(make([]byte, 64)); !errors.Is(err, "E082") {
		t.Errorf("err = %v, want E082", err)
	}
}

func TestRebuildBufferTooSmall(t *testing.T) {
	s := NewShell()
	mountCounter(s)
	if _, err := s.Rebuild(make([]byte, 8)); !errors.Is(err, "E040") {
		t.Errorf("err = %v, want E040", err)
	}
}

func TestFlushOverflowPoisonsShell(t *testing.T) {
	s := NewShell()
	inc := mountCounter(s)
	buf := make([]byte, 4096)
	if _, err := s.Rebuild(buf); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if _, err := s.HandleEvent(inc, events.Payload{Type: "click"}); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	if _, err := s.Flush(make([]byte, 2)); !errors.Is(err, "E040") {
		t.Fatalf("overflowing Flush = %v, want E040", err)
	}

	// The discarded frame is unrecoverable; a retry with room must not
	// report a clean tree.
	if _, err := s.Flush(buf); !errors.Is(err, "E040") {
		t.Errorf("Flush after overflow = %v, want E040", err)
	}
	if _, err := s.HandleEvent(inc, events.Payload{Type: "click"}); !errors.Is(err, "E040") {
		t.Errorf("HandleEvent after overflow = %v, want E040", err)
	}

	s.Destroy()
	if _, err := s.Flush(buf); !errors.Is(err, "E081") {
		t.Errorf("Flush after Destroy = %v, want E081", err)
	}
}

func TestDestroyCascades(t *testing.T) {
	s := NewShell()
	inc := mountCounter(s)
	buf := make([]byte, 4096)
	if _, err := s.Rebuild(buf); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	s.Destroy()
	if s.Handlers().Len() != 0 {
		t.Errorf("handlers after Destroy = %d, want 0", s.Handlers().Len())
	}
	if s.Runtime().Scopes.Len() != 0 {
		t.Errorf("scopes after Destroy = %d, want 0", s.Runtime().Scopes.Len())
	}
	if _, err := s.Flush(buf); !errors.Is(err, "E081") {
		t.Errorf("Flush after Destroy = %v, want E081", err)
	}
	if _, err := s.HandleEvent(inc, events.Payload{}); !errors.Is(err, "E081") {
		t.Errorf("HandleEvent after Destroy = %v, want E081", err)
	}
}

func TestEffectRunsDuringFlush(t *testing.T) {
	s := NewShell()
	tid := counterTemplate(s.Templates())
	var count reactive.SignalID
	runs := 0
	s.Mount(func(ctx *Context) RenderFunc {
		count = ctx.Signal(reactive.Int(0))
		ctx.Effect(func() reactive.Cleanup {
			ctx.Read(count)
			runs++
			return nil
		})
		return func(ctx *Context) vdom.VNodeID {
			v := ctx.Read(count)
			return ctx.Shell().Store().NewTemplateRef(tid,
				[]vdom.AttrValue{vdom.TextAttr("x")},
				[]vdom.DynNode{vdom.DynTextNode(v.Display())})
		}
	})
	buf := make([]byte, 4096)
	if _, err := s.Rebuild(buf); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if runs != 1 {
		t.Fatalf("effect runs after mount = %d, want 1", runs)
	}

	s.Runtime().Write(count, reactive.Int(5))
	if _, err := s.Flush(buf); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if runs != 2 {
		t.Errorf("effect runs after flush = %d, want 2", runs)
	}
}
