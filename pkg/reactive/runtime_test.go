package reactive

import (
	"testing"

	"github.com/lumen-dev/lumen/internal/errors"
)

func TestSubscriberIdempotent(t *testing.T) {
	rt := New()
	root := rt.CreateRootScope()
	sig := rt.CreateSignal(root, Int(0))

	prev := rt.PushContext(ScopeCtx(root))
	rt.Read(sig)
	rt.Read(sig)
	rt.Read(sig)
	rt.RestoreContext(prev)

	rt.Write(sig, Int(1))

	dirty := rt.TakeDirtyScopes()
	if len(dirty) != 1 || dirty[0] != root {
		t.Errorf("dirty = %v, want exactly [%d]", dirty, root)
	}
}

func TestPeekDoesNotSubscribe(t *testing.T) {
	rt := New()
	root := rt.CreateRootScope()
	sig := rt.CreateSignal(root, Int(7))

	prev := rt.PushContext(ScopeCtx(root))
	if v := rt.Peek(sig); v.Int() != 7 {
		t.Fatalf("Peek = %v, want 7", v)
	}
	rt.RestoreContext(prev)

	rt.Write(sig, Int(8))
	if rt.HasDirtyScopes() {
		t.Error("peek subscribed the scope")
	}
}

func TestReadWithoutContextIsPeek(t *testing.T) {
	rt := New()
	root := rt.CreateRootScope()
	sig := rt.CreateSignal(root, Int(7))

	rt.Read(sig)
	rt.Write(sig, Int(8))
	if rt.HasDirtyScopes() {
		t.Error("untracked read subscribed something")
	}
}

func TestWriteBumpsVersion(t *testing.T) {
	rt := New()
	root := rt.CreateRootScope()
	sig := rt.CreateSignal(root, Int(0))

	if v := rt.Signals.Version(sig); v != 0 {
		t.Fatalf("initial version = %d, want 0", v)
	}
	rt.Write(sig, Int(1))
	rt.Write(sig, Int(1))
	if v := rt.Signals.Version(sig); v != 2 {
		t.Errorf("version = %d, want 2", v)
	}
}

func TestPushRestoreContextNests(t *testing.T) {
	rt := New()
	root := rt.CreateRootScope()
	child := rt.CreateScope(root)

	prev := rt.PushContext(ScopeCtx(root))
	if rt.Current() != ScopeCtx(root) {
		t.Fatal("outer context not current")
	}
	inner := rt.PushContext(ScopeCtx(child))
	if inner != ScopeCtx(root) {
		t.Error("PushContext did not return previous context")
	}
	rt.RestoreContext(inner)
	if rt.Current() != ScopeCtx(root) {
		t.Error("restore did not reinstate outer context")
	}
	rt.RestoreContext(prev)
	if !rt.Current().IsNone() {
		t.Error("restore did not clear context")
	}
}

func TestEffectRunsAndReruns(t *testing.T) {
	rt := New()
	root := rt.CreateRootScope()
	sig := rt.CreateSignal(root, Int(0))

	runs := 0
	rt.CreateEffect(root, func() Cleanup {
		rt.Read(sig)
		runs++
		return nil
	})
	if runs != 1 {
		t.Fatalf("runs after create = %d, want 1", runs)
	}

	rt.Write(sig, Int(1))
	if rt.PendingEffects() != 1 {
		t.Fatalf("pending = %d, want 1", rt.PendingEffects())
	}
	rt.RunPendingEffects()
	if runs != 2 {
		t.Errorf("runs after write = %d, want 2", runs)
	}

	// Idempotent scheduling: two writes, one rerun.
	rt.Write(sig, Int(2))
	rt.Write(sig, Int(3))
	rt.RunPendingEffects()
	if runs != 3 {
		t.Errorf("runs after double write = %d, want 3", runs)
	}
}

func TestEffectRetracksSources(t *testing.T) {
	rt := New()
	root := rt.CreateRootScope()
	gate := rt.CreateSignal(root, Bool(true))
	data := rt.CreateSignal(root, Int(0))

	runs := 0
	rt.CreateEffect(root, func() Cleanup {
		if rt.Read(gate).Bool() {
			rt.Read(data)
		}
		runs++
		return nil
	})

	rt.Write(gate, Bool(false))
	rt.RunPendingEffects()
	if runs != 2 {
		t.Fatalf("runs = %d, want 2", runs)
	}

	// data is no longer a source; writing it must not queue the effect.
	rt.Write(data, Int(9))
	if rt.PendingEffects() != 0 {
		t.Error("effect still subscribed to abandoned source")
	}
}

func TestEffectCleanup(t *testing.T) {
	rt := New()
	root := rt.CreateRootScope()
	sig := rt.CreateSignal(root, Int(0))

	cleanups := 0
	rt.CreateEffect(root, func() Cleanup {
		rt.Read(sig)
		return func() { cleanups++ }
	})

	rt.Write(sig, Int(1))
	rt.RunPendingEffects()
	if cleanups != 1 {
		t.Errorf("cleanups after rerun = %d, want 1", cleanups)
	}

	rt.DisposeScope(root)
	if cleanups != 2 {
		t.Errorf("cleanups after dispose = %d, want 2", cleanups)
	}
}

func TestMemoLazyAndCached(t *testing.T) {
	rt := New()
	root := rt.CreateRootScope()
	sig := rt.CreateSignal(root, Int(2))

	computes := 0
	m := rt.CreateMemo(root, func() Value {
		computes++
		return Int(rt.Read(sig).Int() * 10)
	})
	if computes != 0 {
		t.Fatal("memo computed before first read")
	}

	if v := rt.ReadMemo(m); v.Int() != 20 {
		t.Fatalf("ReadMemo = %v, want 20", v)
	}
	rt.ReadMemo(m)
	if computes != 1 {
		t.Errorf("computes = %d, want 1 (cached)", computes)
	}

	rt.Write(sig, Int(3))
	if computes != 1 {
		t.Error("write recomputed eagerly")
	}
	if v := rt.ReadMemo(m); v.Int() != 30 {
		t.Errorf("ReadMemo after write = %v, want 30", v)
	}
	if computes != 2 {
		t.Errorf("computes = %d, want 2", computes)
	}
}

func TestMemoInvalidationReachesScope(t *testing.T) {
	rt := New()
	root := rt.CreateRootScope()
	sig := rt.CreateSignal(root, Int(1))
	m := rt.CreateMemo(root, func() Value {
		return Int(rt.Read(sig).Int() + 1)
	})

	prev := rt.PushContext(ScopeCtx(root))
	rt.ReadMemo(m)
	rt.RestoreContext(prev)

	rt.Write(sig, Int(2))
	dirty := rt.TakeDirtyScopes()
	if len(dirty) != 1 || dirty[0] != root {
		t.Errorf("dirty = %v, want [%d]", dirty, root)
	}
}

func TestMemoCyclePanics(t *testing.T) {
	rt := New()
	root := rt.CreateRootScope()

	var m MemoID
	m = rt.CreateMemo(root, func() Value {
		return rt.ReadMemo(m)
	})

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("self-referential memo did not panic")
		}
		le, ok := r.(*errors.LumenError)
		if !ok || le.Code != "E003" {
			t.Errorf("panic payload = %v, want E003", r)
		}
	}()
	rt.ReadMemo(m)
}

func TestDeadSignalPanics(t *testing.T) {
	rt := New()
	root := rt.CreateRootScope()
	sig := rt.CreateSignal(root, Int(0))
	rt.DestroySignal(sig)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("read of destroyed signal did not panic")
		}
		le, ok := r.(*errors.LumenError)
		if !ok || le.Code != "E001" {
			t.Errorf("panic payload = %v, want E001", r)
		}
	}()
	rt.Read(sig)
}

func TestDisposeScopeCascades(t *testing.T) {
	rt := New()
	root := rt.CreateRootScope()
	child := rt.CreateScope(root)
	grandchild := rt.CreateScope(child)

	childSig := rt.CreateSignal(child, Int(0))
	grandSig := rt.CreateSignal(grandchild, Int(0))

	cleaned := []string{}
	rt.Scopes.OnCleanup(child, func() { cleaned = append(cleaned, "child") })
	rt.Scopes.OnCleanup(grandchild, func() { cleaned = append(cleaned, "grandchild") })

	rt.DisposeScope(child)

	if rt.Scopes.Contains(child) || rt.Scopes.Contains(grandchild) {
		t.Error("disposed scopes still live")
	}
	if !rt.Scopes.Contains(root) {
		t.Error("root disposed by child teardown")
	}
	if rt.Signals.Contains(childSig) || rt.Signals.Contains(grandSig) {
		t.Error("owned signals survived scope disposal")
	}
	if len(cleaned) != 2 || cleaned[0] != "grandchild" || cleaned[1] != "child" {
		t.Errorf("cleanup order = %v, want children before parent", cleaned)
	}
	if len(rt.Scopes.Children(root)) != 0 {
		t.Error("root still lists disposed child")
	}
}

func TestDisposeDropsSubscriptionsAndDirty(t *testing.T) {
	rt := New()
	root := rt.CreateRootScope()
	child := rt.CreateScope(root)
	sig := rt.CreateSignal(root, Int(0))

	prev := rt.PushContext(ScopeCtx(child))
	rt.Read(sig)
	rt.RestoreContext(prev)

	rt.MarkDirty(child)
	rt.DisposeScope(child)

	if rt.HasDirtyScopes() {
		t.Error("disposed scope still in dirty set")
	}
	rt.Write(sig, Int(1))
	if dirty := rt.TakeDirtyScopes(); len(dirty) != 0 {
		t.Errorf("write after dispose dirtied %v", dirty)
	}
}

func TestScopeHeights(t *testing.T) {
	rt := New()
	root := rt.CreateRootScope()
	child := rt.CreateScope(root)
	grand := rt.CreateScope(child)

	if h := rt.Scopes.Height(root); h != 0 {
		t.Errorf("root height = %d, want 0", h)
	}
	if h := rt.Scopes.Height(child); h != 1 {
		t.Errorf("child height = %d, want 1", h)
	}
	if h := rt.Scopes.Height(grand); h != 2 {
		t.Errorf("grandchild height = %d, want 2", h)
	}
	if p, ok := rt.Scopes.Parent(grand); !ok || p != child {
		t.Errorf("Parent(grand) = %d, %v; want %d, true", p, ok, child)
	}
	if _, ok := rt.Scopes.Parent(root); ok {
		t.Error("root reports a parent")
	}
}
