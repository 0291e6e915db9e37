package app

import (
	"sync"

	"github.com/lumen-dev/lumen/internal/errors"
	"github.com/lumen-dev/lumen/pkg/events"
)

// Handle is an opaque reference to a shell in the package-level table,
// for hosts that drive the lifecycle through plain integers rather
// than Go pointers.
type Handle uint32

var (
	handleMu sync.Mutex
	handles  = make(map[Handle]*Shell)
	nextID   Handle = 1
)

// Init builds a shell, runs the application's setup against it and
// installs it in the handle table. Setup registers templates and
// mounts the root component.
func Init(setup func(*Shell) error) (Handle, error) {
	s := NewShell()
	if err := setup(s); err != nil {
		return 0, errors.FromError(err, "E080")
	}

	handleMu.Lock()
	defer handleMu.Unlock()
	h := nextID
	nextID++
	handles[h] = s
	return h, nil
}

// Lookup returns the shell for a handle.
func Lookup(h Handle) (*Shell, error) {
	handleMu.Lock()
	defer handleMu.Unlock()
	s, ok := handles[h]
	if !ok {
		return nil, errors.New("E080").WithDetailf("handle %d", h)
	}
	return s, nil
}

// Rebuild runs the initial mount for a handle.
func Rebuild(h Handle, buf []byte) (int, error) {
	s, err := Lookup(h)
	if err != nil {
		return 0, err
	}
	return s.Rebuild(buf)
}

// Flush re-renders a handle's dirty scopes.
func Flush(h Handle, buf []byte) (int, error) {
	s, err := Lookup(h)
	if err != nil {
		return 0, err
	}
	return s.Flush(buf)
}

// HandleEvent dispatches an event for a handle.
func HandleEvent(h Handle, id events.HandlerID, p events.Payload) (bool, error) {
	s, err := Lookup(h)
	if err != nil {
		return false, err
	}
	return s.HandleEvent(id, p)
}

// Destroy tears a handle's shell down and frees the handle.
func Destroy(h Handle) error {
	handleMu.Lock()
	s, ok := handles[h]
	delete(handles, h)
	handleMu.Unlock()
	if !ok {
		return errors.New("E080").WithDetailf("handle %d", h)
	}
	s.Destroy()
	return nil
}
