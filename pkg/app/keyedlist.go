package app

import (
	"github.com/lumen-dev/lumen/pkg/events"
	"github.com/lumen-dev/lumen/pkg/mutation"
	"github.com/lumen-dev/lumen/pkg/reactive"
	"github.com/lumen-dev/lumen/pkg/vdom"
)

// Action is the application-level meaning of a custom handler: a tag
// naming the behavior and the data it applies to, typically the item
// key.
type Action struct {
	Tag  string
	Data string
}

type listItem struct {
	key      string
	scope    reactive.ScopeID
	handlers []events.HandlerID
}

// KeyedList manages a region of the tree that alternates between empty
// and a keyed set of items: the fragment-slot lifecycle, one child
// scope per item, and the handler-to-action map for item events.
//
// Content-only changes (an item's signal written) flow through the
// shell's ordinary flush and re-render just that item. Structural
// changes go through BeginRebuild/BeginItem/Flush, which destroys and
// recreates every item scope. The dynamic node slot hosting the list
// must stay a placeholder in the owning component's render.
type KeyedList struct {
	shell   *Shell
	owner   reactive.ScopeID
	slot    *vdom.FragmentSlot
	items   []listItem
	actions map[events.HandlerID]Action
}

// NewKeyedList creates a list anchored on a mounted placeholder
// element, usually a dynamic node slot of the owning component.
func NewKeyedList(shell *Shell, owner reactive.ScopeID, anchor vdom.ElementID) *KeyedList {
	return &KeyedList{
		shell:   shell,
		owner:   owner,
		slot:    vdom.NewFragmentSlot(anchor),
		actions: make(map[events.HandlerID]Action),
	}
}

// Len returns the number of items built since the last BeginRebuild.
func (l *KeyedList) Len() int {
	return len(l.items)
}

// Keys returns the item keys in order.
func (l *KeyedList) Keys() []string {
	keys := make([]string, len(l.items))
	for i, it := range l.items {
		keys[i] = it.key
	}
	return keys
}

// ItemScope returns the child scope for a key.
func (l *KeyedList) ItemScope(key string) (reactive.ScopeID, bool) {
	for _, it := range l.items {
		if it.key == key {
			return it.scope, true
		}
	}
	return 0, false
}

// GetAction resolves a custom handler id to its recorded action. The
// boolean is false for ids the list never registered; callers treat
// that as "not mine", not as an error.
func (l *KeyedList) GetAction(id events.HandlerID) (Action, bool) {
	a, ok := l.actions[id]
	return a, ok
}

// BeginRebuild destroys every tracked item scope, cascading handler
// and action-map cleanup. Call it before rebuilding the item set.
func (l *KeyedList) BeginRebuild() {
	for _, it := range l.items {
		if l.shell.rt.Scopes.Contains(it.scope) {
			l.shell.rt.DisposeScope(it.scope)
		}
	}
	l.items = nil
}

// BeginItem creates one item's child scope and returns its builder.
// Items render in BeginItem order.
func (l *KeyedList) BeginItem(key string) *ItemBuilder {
	scope := l.shell.rt.CreateScope(l.owner)
	l.items = append(l.items, listItem{key: key, scope: scope})
	idx := len(l.items) - 1
	l.shell.rt.Scopes.OnCleanup(scope, func() {
		for _, id := range l.items[idx].handlers {
			delete(l.actions, id)
		}
	})
	return &ItemBuilder{list: l, idx: idx}
}

// Flush reconciles the slot against the current item vnodes, in item
// order, emitting into w. Handles all three transitions: populate,
// ordinary diff, and clear back to the anchor.
func (l *KeyedList) Flush(w *mutation.Writer, children []vdom.VNodeID) {
	fragment := l.shell.store.NewFragment(children)
	l.shell.diff.FlushSlot(w, l.slot, fragment)
}

// HasContent reports whether the list currently shows items.
func (l *KeyedList) HasContent() bool {
	return l.slot.HasContent()
}

// patchChild repoints the mounted fragment at a re-rendered item
// vnode.
func (l *KeyedList) patchChild(old, new vdom.VNodeID) {
	if !l.slot.HasContent() {
		return
	}
	frag := l.shell.store.Get(l.slot.Content())
	for i, c := range frag.Children {
		if c == old {
			frag.Children[i] = new
			return
		}
	}
}

// ItemBuilder assembles one list item: its state, its custom handlers
// and finally its component.
type ItemBuilder struct {
	list *KeyedList
	idx  int
}

// Key returns the item's key.
func (b *ItemBuilder) Key() string {
	return b.list.items[b.idx].key
}

// Scope returns the item's child scope.
func (b *ItemBuilder) Scope() reactive.ScopeID {
	return b.list.items[b.idx].scope
}

// Context returns a component context bound to the item's scope, for
// creating item signals.
func (b *ItemBuilder) Context() *Context {
	return &Context{shell: b.list.shell, scope: b.Scope()}
}

// OnEvent registers a custom handler on the item's scope and records
// its action, with the item key as the action data.
func (b *ItemBuilder) OnEvent(event, tag string) events.HandlerID {
	it := &b.list.items[b.idx]
	id := b.list.shell.handlers.Register(events.Handler{
		Scope:  it.scope,
		Action: events.ActionCustom,
		Event:  event,
	})
	it.handlers = append(it.handlers, id)
	b.list.actions[id] = Action{Tag: tag, Data: it.key}
	return id
}

// Mount installs the item's render function as a shell component and
// returns its first vnode, ready to be passed to Flush. The shell
// re-renders the item independently when its scope is dirty.
func (b *ItemBuilder) Mount(render RenderFunc) vdom.VNodeID {
	s := b.list.shell
	scope := b.Scope()
	c := &component{render: render, onSwap: b.list.patchChild}
	s.attach(scope, c)
	c.vnode = s.render(scope, c)
	return c.vnode
}
