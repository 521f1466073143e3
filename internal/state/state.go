// Package state holds the application state shared by the CLI, the network
// switcher, and the auth flow. The network switcher is the only writer of
// the active network and the auth flow is the only writer of the session.
package state

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is an authenticated wallet session.
type Session struct {
	ID        uuid.UUID `json:"id"`
	Address   string    `json:"address"`
	NetworkID string    `json:"network_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSession creates a session for address on networkID.
func NewSession(address, networkID string) *Session {
	return &Session{
		ID:        uuid.New(),
		Address:   address,
		NetworkID: networkID,
		CreatedAt: time.Now().UTC(),
	}
}

// Change identifies which slice of state was written.
type Change string

// Change kinds.
const (
	ChangeNetwork Change = "network"
	ChangeSession Change = "session"
)

// App is the process-wide application state.
type App struct {
	mu        sync.RWMutex
	networkID string
	session   *Session
	watchers  map[int]func(Change)
	nextWatch int
}

// New creates state with the given initial active network.
func New(networkID string) *App {
	return &App{networkID: networkID}
}

// ActiveNetworkID returns the active network id.
func (a *App) ActiveNetworkID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.networkID
}

// SetActiveNetwork records the active network. It reports whether the value changed.
func (a *App) SetActiveNetwork(id string) bool {
	a.mu.Lock()
	changed := a.networkID != id
	a.networkID = id
	a.mu.Unlock()

	if changed {
		a.notify(ChangeNetwork)
	}
	return changed
}

// Session returns a copy of the current session, or false when logged out.
func (a *App) Session() (Session, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.session == nil {
		return Session{}, false
	}
	return *a.session, true
}

// LoggedIn reports whether a session exists.
func (a *App) LoggedIn() bool {
	_, ok := a.Session()
	return ok
}

// SetSession replaces the session. A nil session logs out.
func (a *App) SetSession(s *Session) {
	a.mu.Lock()
	if s != nil {
		cp := *s
		s = &cp
	}
	a.session = s
	a.mu.Unlock()

	a.notify(ChangeSession)
}

// Watch registers fn to run after every write. The returned func unregisters it.
func (a *App) Watch(fn func(Change)) (unwatch func()) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.watchers == nil {
		a.watchers = make(map[int]func(Change))
	}
	a.nextWatch++
	id := a.nextWatch
	a.watchers[id] = fn

	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.watchers, id)
	}
}

func (a *App) notify(c Change) {
	a.mu.RLock()
	fns := make([]func(Change), 0, len(a.watchers))
	for _, fn := range a.watchers {
		fns = append(fns, fn)
	}
	a.mu.RUnlock()

	for _, fn := range fns {
		fn(c)
	}
}
