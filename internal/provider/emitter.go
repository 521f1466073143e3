package provider

import (
	"sync"
)

// Emitter keeps event handlers for a WalletProvider implementation.
// The zero value is ready to use.
type Emitter struct {
	mu       sync.RWMutex
	nextID   ListenerID
	handlers map[string]map[ListenerID]Handler
}

// On registers h for event and returns an id for RemoveListener.
func (e *Emitter) On(event string, h Handler) ListenerID {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.handlers == nil {
		e.handlers = make(map[string]map[ListenerID]Handler)
	}
	if e.handlers[event] == nil {
		e.handlers[event] = make(map[ListenerID]Handler)
	}

	e.nextID++
	e.handlers[event][e.nextID] = h
	return e.nextID
}

// RemoveListener unregisters a handler. Unknown ids are ignored.
func (e *Emitter) RemoveListener(event string, id ListenerID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.handlers[event], id)
}

// Emit delivers ev to every handler registered for ev.Name. Handlers run
// synchronously on the caller's goroutine, outside the lock.
func (e *Emitter) Emit(ev Event) {
	e.mu.RLock()
	hs := make([]Handler, 0, len(e.handlers[ev.Name]))
	for _, h := range e.handlers[ev.Name] {
		hs = append(hs, h)
	}
	e.mu.RUnlock()

	for _, h := range hs {
		h(ev)
	}
}

// ListenerCount returns the number of handlers registered for event.
func (e *Emitter) ListenerCount(event string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.handlers[event])
}
