package network

import (
	"context"

	"github.com/mrz1836/swapdesk/internal/provider"
	"github.com/mrz1836/swapdesk/internal/state"
	deskerr "github.com/mrz1836/swapdesk/pkg/errors"
)

// LogWriter provides logging operations.
type LogWriter interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

// Selection reads and writes the persisted network id.
type Selection interface {
	Load() (string, error)
	Save(id string) error
}

// WalletSource hands out the wallet provider.
type WalletSource interface {
	Get() (provider.WalletProvider, error)
}

// Switcher owns the active-network slice of the application state.
type Switcher struct {
	registry *Registry
	store    Selection
	app      *state.App
	wallet   WalletSource
	logger   LogWriter
}

// Config holds dependencies for the switcher.
type Config struct {
	Registry *Registry
	Store    Selection
	State    *state.App
	Wallet   WalletSource
	Logger   LogWriter
}

// NewSwitcher creates a switcher.
func NewSwitcher(cfg *Config) *Switcher {
	registry := cfg.Registry
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Switcher{
		registry: registry,
		store:    cfg.Store,
		app:      cfg.State,
		wallet:   cfg.Wallet,
		logger:   cfg.Logger,
	}
}

// Registry returns the switcher's registry.
func (s *Switcher) Registry() *Registry {
	return s.registry
}

// Active returns the active network, falling back to the default when the
// state holds an unknown id.
func (s *Switcher) Active() Network {
	n, err := s.registry.Lookup(s.app.ActiveNetworkID())
	if err != nil {
		return s.registry.Default()
	}
	return n
}

// Switch asks the wallet to move to network id, adding the chain when the
// wallet does not know it, then records and persists the selection.
func (s *Switcher) Switch(ctx context.Context, id string) (Network, error) {
	n, err := s.registry.Lookup(id)
	if err != nil {
		return Network{}, err
	}

	p, err := s.wallet.Get()
	if err != nil {
		return Network{}, err
	}

	if err := s.EnsureChain(ctx, p, n); err != nil {
		return Network{}, err
	}

	if err := s.Select(n.ID); err != nil {
		return Network{}, err
	}
	return n, nil
}

// EnsureChain puts the wallet on n's chain. A 4902 unrecognized-chain error
// triggers exactly one wallet_addEthereumChain, which switches implicitly;
// without a chain config the original error is returned. A user rejection
// becomes ErrChainSwitchRejected; any other error is returned unchanged.
func (s *Switcher) EnsureChain(ctx context.Context, p provider.WalletProvider, n Network) error {
	_, err := p.Request(ctx, provider.MethodSwitchChain, map[string]string{"chainId": n.ChainID})
	if err == nil {
		s.debug("wallet switched to %s (%s)", n.ID, n.ChainID)
		return nil
	}

	switch {
	case provider.IsCode(err, provider.CodeUnrecognizedChain):
		if n.ChainConfig == nil {
			s.debug("wallet does not know %s and no chain config is available", n.ID)
			return err
		}
	case provider.IsUserRejected(err):
		return deskerr.WithDetails(
			deskerr.WithCause(deskerr.ErrChainSwitchRejected, err),
			map[string]string{"network": n.ID},
		)
	default:
		return err
	}

	s.debug("adding chain %s (%s) to wallet", n.ID, n.ChainID)
	if _, addErr := p.Request(ctx, provider.MethodAddChain, n.ChainConfig); addErr != nil {
		return deskerr.WithDetails(
			deskerr.WithCause(deskerr.ErrChainSwitchRejected, addErr),
			map[string]string{"network": n.ID, "stage": "add_chain"},
		)
	}
	return nil
}

// Select records id as the active network without talking to the wallet.
// Storage is written only when id differs from the persisted value.
func (s *Switcher) Select(id string) error {
	n, err := s.registry.Lookup(id)
	if err != nil {
		return err
	}

	s.app.SetActiveNetwork(n.ID)

	if s.store == nil {
		return nil
	}
	stored, err := s.store.Load()
	if err != nil {
		s.logError("reading persisted network: %v", err)
	}
	if stored == n.ID {
		return nil
	}
	if err := s.store.Save(n.ID); err != nil {
		return deskerr.Wrap(err, "persisting active network")
	}
	return nil
}

// Restore activates the persisted network (the default when absent or
// unknown) and, when a wallet is available, switches the wallet to it. If
// that switch fails the default network is activated and persisted.
func (s *Switcher) Restore(ctx context.Context) (Network, error) {
	n := s.registry.Default()
	if s.store != nil {
		stored, err := s.store.Load()
		if err != nil {
			s.logError("reading persisted network: %v", err)
		}
		if saved, lookupErr := s.registry.Lookup(stored); stored != "" && lookupErr == nil {
			n = saved
		}
	}

	s.app.SetActiveNetwork(n.ID)

	p, err := s.wallet.Get()
	if err != nil {
		return n, nil //nolint:nilerr // no wallet means nothing to switch yet
	}

	if err := s.EnsureChain(ctx, p, n); err != nil {
		s.logError("failed to restore network %s: %v", n.ID, err)
		def := s.registry.Default()
		if selErr := s.Select(def.ID); selErr != nil {
			return def, selErr
		}
		return def, nil
	}

	return n, s.Select(n.ID)
}

func (s *Switcher) debug(format string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(format, args...)
	}
}

func (s *Switcher) logError(format string, args ...any) {
	if s.logger != nil {
		s.logger.Error(format, args...)
	}
}
