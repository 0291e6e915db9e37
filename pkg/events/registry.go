package events

import (
	"github.com/lumen-dev/lumen/internal/errors"
	"github.com/lumen-dev/lumen/pkg/reactive"
	"github.com/lumen-dev/lumen/pkg/slab"
)

// HandlerID addresses a registered handler. Ids are stable while the
// handler is live and reused after removal.
type HandlerID uint32

// ActionKind is the closed set of built-in handler actions.
type ActionKind uint8

const (
	// ActionNone does nothing on dispatch.
	ActionNone ActionKind = iota
	// ActionSetInt writes the operand to an integer signal.
	ActionSetInt
	// ActionAddInt adds the operand to an integer signal.
	ActionAddInt
	// ActionSubInt subtracts the operand from an integer signal.
	ActionSubInt
	// ActionToggle flips a boolean signal.
	ActionToggle
	// ActionSetText writes the event's string payload to a signal.
	ActionSetText
	// ActionSetTextOnEnter writes the string payload only when the
	// event's key is Enter.
	ActionSetTextOnEnter
	// ActionCustom performs no built-in action; the application routes
	// the handler id itself and marks scopes dirty as needed.
	ActionCustom
)

// String returns the string representation of the action kind.
func (k ActionKind) String() string {
	switch k {
	case ActionNone:
		return "None"
	case ActionSetInt:
		return "SetInt"
	case ActionAddInt:
		return "AddInt"
	case ActionSubInt:
		return "SubInt"
	case ActionToggle:
		return "Toggle"
	case ActionSetText:
		return "SetText"
	case ActionSetTextOnEnter:
		return "SetTextOnEnter"
	case ActionCustom:
		return "Custom"
	default:
		return "ActionKind(?)"
	}
}

// Handler is one registered event binding.
type Handler struct {
	Scope   reactive.ScopeID
	Action  ActionKind
	Signal  reactive.SignalID
	Operand int64
	Event   string
}

// Payload carries the host-captured event data into dispatch.
type Payload struct {
	Type  string
	Key   string
	Value string
}

// Registry stores handlers and executes their actions against the
// runtime. Owned by a single shell; not safe for concurrent use.
type Registry struct {
	rt       *reactive.Runtime
	handlers slab.Slab[Handler]
}

// NewRegistry creates a registry dispatching into rt.
func NewRegistry(rt *reactive.Runtime) *Registry {
	return &Registry{rt: rt}
}

// Register adds a handler and returns its id. The owning scope must be
// live; handlers are torn down with their scope via RemoveForScope.
func (r *Registry) Register(h Handler) HandlerID {
	if !r.rt.Scopes.Contains(h.Scope) {
		panic(errors.New("E002").WithDetailf("handler registered on scope %d", h.Scope))
	}
	return HandlerID(r.handlers.Insert(h))
}

// Get returns the handler for id.
func (r *Registry) Get(id HandlerID) (Handler, bool) {
	h := r.handlers.Ptr(uint32(id))
	if h == nil {
		return Handler{}, false
	}
	return *h, true
}

// Remove frees a handler id. Removing a dead id is a no-op.
func (r *Registry) Remove(id HandlerID) {
	if r.handlers.Contains(uint32(id)) {
		r.handlers.Remove(uint32(id))
	}
}

// RemoveForScope removes every handler owned by scope and returns how
// many were removed.
func (r *Registry) RemoveForScope(scope reactive.ScopeID) int {
	var dead []uint32
	r.handlers.Range(func(idx uint32, h *Handler) bool {
		if h.Scope == scope {
			dead = append(dead, idx)
		}
		return true
	})
	for _, idx := range dead {
		r.handlers.Remove(idx)
	}
	return len(dead)
}

// Len returns the number of live handlers.
func (r *Registry) Len() int {
	return r.handlers.Len()
}

// Dispatch executes the handler's action and reports whether reactive
// state changed. Unknown ids return an E060 error: host events can race
// a diff that removed the listener, so a stale id is expected, not a
// contract violation. Custom handlers report false; the application
// resolves them through its own action map.
func (r *Registry) Dispatch(id HandlerID, p Payload) (bool, error) {
	h := r.handlers.Ptr(uint32(id))
	if h == nil {
		return false, errors.New("E060").WithDetailf("handler id %d", id)
	}

	switch h.Action {
	case ActionNone, ActionCustom:
		return false, nil

	case ActionSetInt:
		r.rt.Write(h.Signal, reactive.Int(h.Operand))
		return true, nil

	case ActionAddInt:
		r.rt.Write(h.Signal, reactive.Int(r.intValue(h.Signal)+h.Operand))
		return true, nil

	case ActionSubInt:
		r.rt.Write(h.Signal, reactive.Int(r.intValue(h.Signal)-h.Operand))
		return true, nil

	case ActionToggle:
		r.rt.Write(h.Signal, reactive.Bool(!r.boolValue(h.Signal)))
		return true, nil

	case ActionSetText:
		r.rt.Write(h.Signal, reactive.String(p.Value))
		return true, nil

	case ActionSetTextOnEnter:
		if p.Key != "Enter" {
			return false, nil
		}
		r.rt.Write(h.Signal, reactive.String(p.Value))
		return true, nil

	default:
		return false, errors.New("E061").WithDetailf("action kind %d", h.Action)
	}
}

func (r *Registry) intValue(key reactive.SignalID) int64 {
	v := r.rt.Peek(key)
	if v.Kind() != reactive.KindInt && !v.IsNone() {
		panic(errors.New("E005").WithDetailf("signal %d holds %s, action needs Int", key, v.Kind()))
	}
	return v.Int()
}

func (r *Registry) boolValue(key reactive.SignalID) bool {
	v := r.rt.Peek(key)
	if v.Kind() != reactive.KindBool && !v.IsNone() {
		panic(errors.New("E005").WithDetailf("signal %d holds %s, action needs Bool", key, v.Kind()))
	}
	return v.Bool()
}
