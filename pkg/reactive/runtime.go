package reactive

import "github.com/lumen-dev/lumen/internal/errors"

// Runtime owns the whole reactive graph of one application instance:
// signal cells, the scope tree, effects, memos, the current-context
// slot and the dirty-scope queue. Every entry point threads a *Runtime
// explicitly; there is no global state.
type Runtime struct {
	Signals *SignalStore
	Scopes  *ScopeArena
	Effects *EffectStore
	Memos   *MemoStore

	current    ContextID
	dirtySet   map[ScopeID]struct{}
	dirtyOrder []ScopeID
	pendingFx  []EffectID
}

// New creates an empty runtime.
func New() *Runtime {
	return &Runtime{
		Signals:  &SignalStore{},
		Scopes:   &ScopeArena{},
		Effects:  &EffectStore{},
		Memos:    &MemoStore{},
		dirtySet: make(map[ScopeID]struct{}),
	}
}

// PushContext makes ctx current and returns the previous context so
// nested tracked reads attribute subscriptions to the innermost active
// context.
func (rt *Runtime) PushContext(ctx ContextID) ContextID {
	prev := rt.current
	rt.current = ctx
	return prev
}

// RestoreContext reinstates a context returned by PushContext.
func (rt *Runtime) RestoreContext(prev ContextID) {
	rt.current = prev
}

// Current returns the context currently tracking reads.
func (rt *Runtime) Current() ContextID {
	return rt.current
}

// CreateScope allocates a child render scope owned by parent.
func (rt *Runtime) CreateScope(parent ScopeID) ScopeID {
	return rt.Scopes.Create(parent)
}

// CreateRootScope allocates a parentless scope at height 0.
func (rt *Runtime) CreateRootScope() ScopeID {
	return rt.Scopes.CreateRoot()
}

// CreateSignal allocates a signal owned by scope. It is destroyed with
// the scope.
func (rt *Runtime) CreateSignal(owner ScopeID, initial Value) SignalID {
	key := rt.Signals.Create(initial)
	rt.Scopes.ownSignal(owner, key)
	return key
}

// Read returns the signal's value, subscribing the current context.
// Without a current context this is a peek.
func (rt *Runtime) Read(key SignalID) Value {
	v := rt.Signals.ReadTracked(key, rt.current)
	rt.recordSignalSource(key)
	return v
}

// Peek returns the signal's value without subscribing anything.
func (rt *Runtime) Peek(key SignalID) Value {
	return rt.Signals.Peek(key)
}

// Write stores v in the signal, bumps its version and marks every
// subscriber dirty, transitively through memos.
func (rt *Runtime) Write(key SignalID, v Value) {
	for _, ctx := range rt.Signals.write(key, v) {
		rt.invalidate(ctx)
	}
}

// DestroySignal frees the signal immediately, ahead of its owning
// scope's disposal.
func (rt *Runtime) DestroySignal(key SignalID) {
	rt.Signals.Destroy(key)
}

// MarkDirty queues a scope for re-render. Idempotent.
func (rt *Runtime) MarkDirty(scope ScopeID) {
	if _, ok := rt.dirtySet[scope]; ok {
		return
	}
	rt.dirtySet[scope] = struct{}{}
	rt.dirtyOrder = append(rt.dirtyOrder, scope)
}

// HasDirtyScopes reports whether any scope awaits re-render.
func (rt *Runtime) HasDirtyScopes() bool {
	return len(rt.dirtySet) > 0
}

// TakeDirtyScopes drains the raw dirty queue in marking order. The
// Scheduler turns it into height order.
func (rt *Runtime) TakeDirtyScopes() []ScopeID {
	if len(rt.dirtyOrder) == 0 {
		return nil
	}
	out := rt.dirtyOrder
	rt.dirtyOrder = nil
	rt.dirtySet = make(map[ScopeID]struct{})
	return out
}

func (rt *Runtime) invalidate(ctx ContextID) {
	switch ctx.Kind {
	case CtxScope:
		id := ScopeID(ctx.Idx)
		if rt.Scopes.Contains(id) {
			rt.MarkDirty(id)
		}
	case CtxEffect:
		id := EffectID(ctx.Idx)
		n := rt.Effects.nodes.Ptr(ctx.Idx)
		if n != nil && !n.pending {
			n.pending = true
			rt.pendingFx = append(rt.pendingFx, id)
		}
	case CtxMemo:
		n := rt.Memos.nodes.Ptr(ctx.Idx)
		if n == nil || !n.valid {
			return
		}
		n.valid = false
		subs := make([]ContextID, len(n.subs))
		copy(subs, n.subs)
		for _, sub := range subs {
			rt.invalidate(sub)
		}
	}
}

func (rt *Runtime) recordSignalSource(key SignalID) {
	switch rt.current.Kind {
	case CtxEffect:
		n := rt.Effects.nodes.Ptr(rt.current.Idx)
		if n == nil {
			return
		}
		for _, src := range n.sources {
			if src == key {
				return
			}
		}
		n.sources = append(n.sources, key)
	case CtxMemo:
		n := rt.Memos.nodes.Ptr(rt.current.Idx)
		if n == nil {
			return
		}
		for _, src := range n.sources {
			if src == key {
				return
			}
		}
		n.sources = append(n.sources, key)
	}
}

func (rt *Runtime) recordMemoSource(id MemoID) {
	switch rt.current.Kind {
	case CtxEffect:
		n := rt.Effects.nodes.Ptr(rt.current.Idx)
		if n == nil {
			return
		}
		for _, src := range n.memoSources {
			if src == id {
				return
			}
		}
		n.memoSources = append(n.memoSources, id)
	case CtxMemo:
		n := rt.Memos.nodes.Ptr(rt.current.Idx)
		if n == nil {
			return
		}
		for _, src := range n.memoSources {
			if src == id {
				return
			}
		}
		n.memoSources = append(n.memoSources, id)
	}
}

// CreateEffect allocates an effect owned by scope and runs it once
// immediately, tracking its dependencies.
func (rt *Runtime) CreateEffect(owner ScopeID, fn func() Cleanup) EffectID {
	id := EffectID(rt.Effects.nodes.Insert(effectNode{fn: fn}))
	rt.Scopes.ownEffect(owner, id)
	rt.runEffect(id)
	return id
}

func (rt *Runtime) runEffect(id EffectID) {
	n := rt.Effects.node(id)
	n.pending = false

	if n.cleanup != nil {
		cl := n.cleanup
		n.cleanup = nil
		cl()
	}

	ctx := EffectCtx(id)
	for _, src := range n.sources {
		rt.Signals.Unsubscribe(src, ctx)
	}
	for _, m := range n.memoSources {
		rt.Memos.unsubscribe(m, ctx)
	}
	n.sources = n.sources[:0]
	n.memoSources = n.memoSources[:0]

	fn := n.fn
	prev := rt.PushContext(ctx)
	cleanup := fn()
	rt.RestoreContext(prev)

	// The body may have grown the effect arena; re-fetch before
	// storing the cleanup.
	if n := rt.Effects.nodes.Ptr(uint32(id)); n != nil {
		n.cleanup = cleanup
	}
}

// RunPendingEffects runs every effect queued by signal writes, in queue
// order, until the queue is empty. Effects queued by other effects run
// in the same drain.
func (rt *Runtime) RunPendingEffects() {
	for len(rt.pendingFx) > 0 {
		queue := rt.pendingFx
		rt.pendingFx = nil
		for _, id := range queue {
			n := rt.Effects.nodes.Ptr(uint32(id))
			if n != nil && n.pending {
				rt.runEffect(id)
			}
		}
	}
}

// PendingEffects returns the number of effects awaiting a run.
func (rt *Runtime) PendingEffects() int {
	return len(rt.pendingFx)
}

func (rt *Runtime) destroyEffect(id EffectID) {
	n := rt.Effects.nodes.Ptr(uint32(id))
	if n == nil {
		return
	}
	if n.cleanup != nil {
		cl := n.cleanup
		n.cleanup = nil
		cl()
	}
	ctx := EffectCtx(id)
	for _, src := range n.sources {
		rt.Signals.Unsubscribe(src, ctx)
	}
	for _, m := range n.memoSources {
		rt.Memos.unsubscribe(m, ctx)
	}
	rt.Effects.nodes.Remove(uint32(id))
}

// CreateMemo allocates a lazily computed memo owned by scope. The
// computation runs on first read.
func (rt *Runtime) CreateMemo(owner ScopeID, fn func() Value) MemoID {
	id := MemoID(rt.Memos.nodes.Insert(memoNode{fn: fn}))
	rt.Scopes.ownMemo(owner, id)
	return id
}

// ReadMemo returns the memo's value, recomputing it if stale, and
// subscribes the current context to the memo.
func (rt *Runtime) ReadMemo(id MemoID) Value {
	n := rt.Memos.node(id)

	if cur := rt.current; !cur.IsNone() {
		subscribed := false
		for _, sub := range n.subs {
			if sub == cur {
				subscribed = true
				break
			}
		}
		if !subscribed {
			n.subs = append(n.subs, cur)
		}
		rt.recordMemoSource(id)
		n = rt.Memos.node(id)
	}

	if !n.valid {
		if n.computing {
			panic(errors.New("E003").WithDetailf("memo id %d", id))
		}
		n.computing = true

		ctx := MemoCtx(id)
		for _, src := range n.sources {
			rt.Signals.Unsubscribe(src, ctx)
		}
		for _, m := range n.memoSources {
			rt.Memos.unsubscribe(m, ctx)
		}
		n.sources = n.sources[:0]
		n.memoSources = n.memoSources[:0]

		fn := n.fn
		prev := rt.PushContext(ctx)
		v := fn()
		rt.RestoreContext(prev)

		n = rt.Memos.node(id)
		n.value = v
		n.valid = true
		n.computing = false
	}
	return n.value
}

func (rt *Runtime) destroyMemo(id MemoID) {
	n := rt.Memos.nodes.Ptr(uint32(id))
	if n == nil {
		return
	}
	ctx := MemoCtx(id)
	for _, src := range n.sources {
		rt.Signals.Unsubscribe(src, ctx)
	}
	for _, m := range n.memoSources {
		rt.Memos.unsubscribe(m, ctx)
	}
	rt.Memos.nodes.Remove(uint32(id))
}

// DisposeScope tears down a scope and its whole subtree: children
// first, then the scope's cleanups in reverse order, then its owned
// effects, memos and signals. Every subscription held by the disposed
// entities is dropped.
func (rt *Runtime) DisposeScope(id ScopeID) {
	n := rt.Scopes.node(id)

	children := make([]ScopeID, len(n.children))
	copy(children, n.children)
	cleanups := n.cleanups
	signals := n.signals
	effects := n.effects
	memos := n.memos
	parent, hasParent := n.parent, n.hasParent

	for _, child := range children {
		if rt.Scopes.Contains(child) {
			rt.DisposeScope(child)
		}
	}

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}

	for _, eff := range effects {
		rt.destroyEffect(eff)
	}
	for _, m := range memos {
		rt.destroyMemo(m)
	}
	for _, sig := range signals {
		if rt.Signals.Contains(sig) {
			rt.Signals.Destroy(sig)
		}
	}

	ctx := ScopeCtx(id)
	rt.Signals.DropContext(ctx)
	rt.Memos.dropContext(ctx)

	if _, ok := rt.dirtySet[id]; ok {
		delete(rt.dirtySet, id)
		for i, d := range rt.dirtyOrder {
			if d == id {
				rt.dirtyOrder = append(rt.dirtyOrder[:i], rt.dirtyOrder[i+1:]...)
				break
			}
		}
	}

	if hasParent {
		rt.Scopes.unlinkChild(parent, id)
	}
	rt.Scopes.nodes.Remove(uint32(id))
}
