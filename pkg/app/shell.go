package app

import (
	"github.com/lumen-dev/lumen/internal/errors"
	"github.com/lumen-dev/lumen/pkg/events"
	"github.com/lumen-dev/lumen/pkg/mutation"
	"github.com/lumen-dev/lumen/pkg/reactive"
	"github.com/lumen-dev/lumen/pkg/vdom"
)

// RenderFunc produces a fresh vnode for one component render pass.
// It runs with the component's scope as the current tracking context,
// so tracked reads subscribe the scope.
type RenderFunc func(ctx *Context) vdom.VNodeID

// SetupFunc runs once when a component mounts: it creates the
// component's signals, effects and handlers, and returns the render
// function that will be called on every render pass.
type SetupFunc func(ctx *Context) RenderFunc

// Context is a component's view of its shell: the owning scope plus
// shortcuts that attribute created state to it.
type Context struct {
	shell *Shell
	scope reactive.ScopeID
}

// Scope returns the component's scope id.
func (c *Context) Scope() reactive.ScopeID {
	return c.scope
}

// Shell returns the owning shell.
func (c *Context) Shell() *Shell {
	return c.shell
}

// Signal creates a signal owned by the component's scope.
func (c *Context) Signal(initial reactive.Value) reactive.SignalID {
	return c.shell.rt.CreateSignal(c.scope, initial)
}

// Read performs a tracked read attributed to the current context.
func (c *Context) Read(key reactive.SignalID) reactive.Value {
	return c.shell.rt.Read(key)
}

// Effect creates an effect owned by the component's scope.
func (c *Context) Effect(fn func() reactive.Cleanup) reactive.EffectID {
	return c.shell.rt.CreateEffect(c.scope, fn)
}

// Handler registers an event handler owned by the component's scope.
func (c *Context) Handler(h events.Handler) events.HandlerID {
	h.Scope = c.scope
	return c.shell.handlers.Register(h)
}

// component is one mounted render unit.
type component struct {
	render RenderFunc
	vnode  vdom.VNodeID
	// onSwap lets a container patch its child reference when a flush
	// replaces the component's vnode in place.
	onSwap func(old, new vdom.VNodeID)
}

// Shell owns one application instance. All stores are exclusive to the
// shell and accessed from a single goroutine; losing the shell without
// Destroy leaks only Go memory, never host state.
type Shell struct {
	rt        *reactive.Runtime
	templates *vdom.Registry
	store     *vdom.VNodeStore
	alloc     *vdom.ElementAllocator
	create    *vdom.CreateEngine
	diff      *vdom.DiffEngine
	sched     *reactive.Scheduler
	handlers  *events.Registry

	components map[reactive.ScopeID]*component
	rootScope  reactive.ScopeID
	hasRoot    bool
	mounted    bool
	destroyed  bool
	// poisoned marks a shell whose mount state advanced past a frame
	// that was never delivered. Only Destroy is accepted afterwards.
	poisoned bool

	metrics Metrics
}

// NewShell creates an empty shell. Register templates, call Mount, then
// drive it with Rebuild and Flush.
func NewShell() *Shell {
	rt := reactive.New()
	templates := vdom.NewRegistry()
	store := vdom.NewVNodeStore(templates)
	alloc := vdom.NewElementAllocator()
	create := vdom.NewCreateEngine(store, templates, alloc)
	return &Shell{
		rt:         rt,
		templates:  templates,
		store:      store,
		alloc:      alloc,
		create:     create,
		diff:       vdom.NewDiffEngine(store, templates, alloc, create),
		sched:      reactive.NewScheduler(rt),
		handlers:   events.NewRegistry(rt),
		components: make(map[reactive.ScopeID]*component),
	}
}

// Runtime returns the shell's reactive runtime.
func (s *Shell) Runtime() *reactive.Runtime {
	return s.rt
}

// Templates returns the shell's template registry.
func (s *Shell) Templates() *vdom.Registry {
	return s.templates
}

// Store returns the shell's vnode store.
func (s *Shell) Store() *vdom.VNodeStore {
	return s.store
}

// Handlers returns the shell's event handler registry.
func (s *Shell) Handlers() *events.Registry {
	return s.handlers
}

// Diff returns the shell's diff engine, for fragment-slot flushes.
func (s *Shell) Diff() *vdom.DiffEngine {
	return s.diff
}

// MountedVNode returns the vnode currently mounted for a component
// scope.
func (s *Shell) MountedVNode(scope reactive.ScopeID) (vdom.VNodeID, bool) {
	c, ok := s.components[scope]
	if !ok {
		return 0, false
	}
	return c.vnode, true
}

// attach registers a component for scope and wires its teardown: when
// the scope is disposed the component entry and its handlers go too.
func (s *Shell) attach(scope reactive.ScopeID, c *component) {
	s.components[scope] = c
	s.rt.Scopes.OnCleanup(scope, func() {
		s.handlers.RemoveForScope(scope)
		delete(s.components, scope)
	})
}

// setup runs a component's setup function inside its scope context.
func (s *Shell) setup(scope reactive.ScopeID, fn SetupFunc) *component {
	ctx := &Context{shell: s, scope: scope}
	prev := s.rt.PushContext(reactive.ScopeCtx(scope))
	render := fn(ctx)
	s.rt.RestoreContext(prev)

	c := &component{render: render}
	s.attach(scope, c)
	return c
}

// render runs a component's render function inside its scope context.
func (s *Shell) render(scope reactive.ScopeID, c *component) vdom.VNodeID {
	ctx := &Context{shell: s, scope: scope}
	prev := s.rt.PushContext(reactive.ScopeCtx(scope))
	vn := c.render(ctx)
	s.rt.RestoreContext(prev)
	return vn
}

// Mount installs the root component. Setup runs immediately; rendering
// waits for Rebuild.
func (s *Shell) Mount(fn SetupFunc) reactive.ScopeID {
	scope := s.rt.CreateRootScope()
	s.setup(scope, fn)
	s.rootScope = scope
	s.hasRoot = true
	return scope
}

// NewComponent installs a child component under parent. Its vnode must
// be spliced into the tree by the parent (directly or via a keyed
// list); the shell then re-renders it independently when it is dirty.
func (s *Shell) NewComponent(parent reactive.ScopeID, fn SetupFunc) reactive.ScopeID {
	scope := s.rt.CreateScope(parent)
	s.setup(scope, fn)
	return scope
}

// Rebuild performs the initial mount: renders the root component,
// emits its creation stream into buf and appends the roots under the
// host's root element. Returns the number of frame bytes written.
func (s *Shell) Rebuild(buf []byte) (int, error) {
	if s.destroyed {
		return 0, errors.New("E081")
	}
	if s.poisoned {
		return 0, s.poisonedErr()
	}
	if !s.hasRoot {
		return 0, errors.New("E082").WithDetail("Mount was never called.")
	}
	if s.mounted {
		return 0, errors.Newf(errors.CategoryApp, "shell is already mounted")
	}

	c := s.components[s.rootScope]
	w := mutation.NewWriter(buf)
	vn := s.render(s.rootScope, c)
	roots := s.create.CreateNode(w, vn)
	w.AppendChildren(uint32(vdom.RootElement), roots)

	frame, err := w.Finish()
	if err != nil {
		s.poisoned = true
		return 0, errors.New("E040").Wrap(err)
	}
	c.vnode = vn
	s.mounted = true
	s.metrics.frames.Add(1)
	s.metrics.ops.Add(uint64(w.Ops()))
	s.metrics.bytes.Add(uint64(len(frame)))
	return len(frame), nil
}

// Flush re-renders every dirty scope in height order, runs pending
// effects between passes, and emits the resulting mutation stream into
// buf. Returns 0 when nothing was dirty. A buffer overflow aborts the
// pass and poisons the shell: the mount state already advanced past
// the discarded frame, so the host tree can never catch up again.
func (s *Shell) Flush(buf []byte) (int, error) {
	if s.destroyed {
		return 0, errors.New("E081")
	}
	if s.poisoned {
		return 0, s.poisonedErr()
	}
	if !s.mounted {
		return 0, errors.New("E082")
	}

	w := mutation.NewWriter(buf)
	for w.Err() == nil {
		s.rt.RunPendingEffects()
		s.sched.Collect()
		scope, ok := s.sched.Next()
		if !ok {
			break
		}
		c := s.components[scope]
		if c == nil || !s.store.Contains(c.vnode) || !s.store.Get(c.vnode).Mounted {
			// State-only scope, or a component not yet in the tree.
			continue
		}
		old := c.vnode
		fresh := s.render(scope, c)
		s.diff.DiffNode(w, old, fresh)
		c.vnode = fresh
		if c.onSwap != nil {
			c.onSwap(old, fresh)
		}
		s.store.Release(old)
	}

	s.metrics.flushes.Add(1)
	if err := w.Err(); err != nil {
		s.poisoned = true
		return 0, errors.New("E040").Wrap(err)
	}
	if w.Ops() == 0 {
		return 0, nil
	}
	frame, err := w.Finish()
	if err != nil {
		s.poisoned = true
		return 0, errors.New("E040").Wrap(err)
	}
	s.metrics.frames.Add(1)
	s.metrics.ops.Add(uint64(w.Ops()))
	s.metrics.bytes.Add(uint64(len(frame)))
	return len(frame), nil
}

// HandleEvent dispatches a host-captured event and reports whether a
// flush is warranted. Custom-action handlers report dirty only if the
// application marked state dirty while routing them.
func (s *Shell) HandleEvent(id events.HandlerID, p events.Payload) (bool, error) {
	if s.destroyed {
		return false, errors.New("E081")
	}
	if s.poisoned {
		return false, s.poisonedErr()
	}
	s.metrics.events.Add(1)
	dirty, err := s.handlers.Dispatch(id, p)
	if err != nil {
		return false, err
	}
	return dirty || s.rt.HasDirtyScopes(), nil
}

func (s *Shell) poisonedErr() error {
	return errors.New("E040").
		WithDetail("An earlier pass overflowed its buffer and its frame was discarded; the mounted tree no longer matches what the host saw.").
		WithSuggestion("Destroy the shell and mount a fresh instance.")
}

// Destroy tears the instance down: the root scope cascade-disposes
// every child scope, effect, signal and handler. The shell accepts no
// further calls.
func (s *Shell) Destroy() {
	if s.destroyed {
		return
	}
	if s.hasRoot && s.rt.Scopes.Contains(s.rootScope) {
		s.rt.DisposeScope(s.rootScope)
	}
	s.components = nil
	s.destroyed = true
}
