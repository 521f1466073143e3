// Package auth connects a wallet account as the session and ends the
// session when the wallet drops the account or disconnects.
package auth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/mrz1836/swapdesk/internal/fileutil"
	"github.com/mrz1836/swapdesk/internal/network"
	"github.com/mrz1836/swapdesk/internal/provider"
	"github.com/mrz1836/swapdesk/internal/state"
	deskerr "github.com/mrz1836/swapdesk/pkg/errors"
)

const (
	sessionFileName = "session.json"
	sessionFilePerm = 0o600
)

// WalletSource hands out the wallet provider.
type WalletSource interface {
	Get() (provider.WalletProvider, error)
}

// NetworkSelector records the active network.
type NetworkSelector interface {
	Select(id string) error
	Registry() *network.Registry
}

// LogWriter provides logging operations.
type LogWriter interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

// SessionStore persists the session between processes.
type SessionStore interface {
	Load() (*state.Session, error)
	Save(s *state.Session) error
	Clear() error
}

// Config holds dependencies for the auth flow.
type Config struct {
	Wallet   WalletSource
	State    *state.App
	Networks NetworkSelector
	Store    SessionStore
	Logger   LogWriter
}

// Auth owns the session slice of the application state.
type Auth struct {
	wallet   WalletSource
	app      *state.App
	networks NetworkSelector
	store    SessionStore
	logger   LogWriter
}

// New creates the auth flow.
func New(cfg *Config) *Auth {
	return &Auth{
		wallet:   cfg.Wallet,
		app:      cfg.State,
		networks: cfg.Networks,
		store:    cfg.Store,
		logger:   cfg.Logger,
	}
}

// Restore loads a persisted session into the application state.
func (a *Auth) Restore() (state.Session, bool) {
	if a.store == nil {
		return state.Session{}, false
	}
	s, err := a.store.Load()
	if err != nil {
		a.logError("reading session: %v", err)
		return state.Session{}, false
	}
	if s == nil {
		return state.Session{}, false
	}
	a.app.SetSession(s)
	return *s, true
}

// Login asks the wallet for accounts and starts a session for the first one.
func (a *Auth) Login(ctx context.Context) (state.Session, error) {
	p, err := a.wallet.Get()
	if err != nil {
		return state.Session{}, err
	}

	accounts, err := provider.RequestAccounts(ctx, p)
	if err != nil {
		if provider.IsUserRejected(err) {
			return state.Session{}, deskerr.WithCause(deskerr.ErrNoAccounts, err)
		}
		return state.Session{}, err
	}
	if len(accounts) == 0 || accounts[0] == "" {
		return state.Session{}, deskerr.WithSuggestion(deskerr.ErrNoAccounts, "Unlock the wallet and approve the connection request")
	}

	s := state.NewSession(accounts[0], a.app.ActiveNetworkID())
	a.app.SetSession(s)
	if a.store != nil {
		if err := a.store.Save(s); err != nil {
			return *s, deskerr.Wrap(err, "persisting session")
		}
	}
	a.debug("logged in as %s on %s", s.Address, s.NetworkID)
	return *s, nil
}

// Logout ends the session and reverts the active network to the default.
func (a *Auth) Logout() error {
	a.app.SetSession(nil)

	var errs []error
	if a.store != nil {
		if err := a.store.Clear(); err != nil {
			errs = append(errs, deskerr.Wrap(err, "clearing session"))
		}
	}
	if a.networks != nil {
		def := a.networks.Registry().Default()
		if err := a.networks.Select(def.ID); err != nil {
			a.logError("failed to revert to %s: %v", def.ID, err)
			errs = append(errs, err)
		}
	}
	a.debug("logged out")
	return errors.Join(errs...)
}

// Current returns the active session.
func (a *Auth) Current() (state.Session, error) {
	s, ok := a.app.Session()
	if !ok {
		return state.Session{}, deskerr.ErrNotLoggedIn
	}
	return s, nil
}

// Watch logs out when the wallet reports no accounts or disconnects. The
// returned func removes both listeners.
func (a *Auth) Watch() (func(), error) {
	p, err := a.wallet.Get()
	if err != nil {
		return nil, err
	}

	accountsID := p.On(provider.EventAccountsChanged, func(ev provider.Event) {
		if len(ev.Accounts) > 0 {
			return
		}
		a.debug("wallet exposed no accounts")
		a.logoutFromEvent()
	})
	disconnectID := p.On(provider.EventDisconnect, func(ev provider.Event) {
		a.debug("wallet disconnected: %v", ev.Err)
		a.logoutFromEvent()
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			p.RemoveListener(provider.EventAccountsChanged, accountsID)
			p.RemoveListener(provider.EventDisconnect, disconnectID)
		})
	}, nil
}

func (a *Auth) logoutFromEvent() {
	if !a.app.LoggedIn() {
		return
	}
	if err := a.Logout(); err != nil {
		a.logError("logout after wallet event: %v", err)
	}
}

func (a *Auth) debug(format string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(format, args...)
	}
}

func (a *Auth) logError(format string, args ...any) {
	if a.logger != nil {
		a.logger.Error(format, args...)
	}
}

// TruncatedAddress shortens addr to its first 8 and last 4 characters.
func TruncatedAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:8] + "..." + addr[len(addr)-4:]
}

// FileStore keeps the session in a JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a store for <home>/session.json.
func NewFileStore(home string) *FileStore {
	return &FileStore{path: filepath.Join(home, sessionFileName)}
}

// Path returns the session file path.
func (f *FileStore) Path() string {
	return f.path
}

// Load returns the stored session, or nil when there is none.
func (f *FileStore) Load() (*state.Session, error) {
	var s state.Session
	found, err := fileutil.ReadJSON(f.path, &s)
	if err != nil || !found {
		return nil, err
	}
	if s.Address == "" {
		return nil, nil //nolint:nilnil // an empty file holds no session
	}
	return &s, nil
}

// Save writes s.
func (f *FileStore) Save(s *state.Session) error {
	return fileutil.WriteJSON(f.path, s, sessionFilePerm)
}

// Clear removes the session file.
func (f *FileStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
