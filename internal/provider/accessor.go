package provider

import (
	"sync"

	deskerr "github.com/mrz1836/swapdesk/pkg/errors"
)

// Accessor hands out the configured wallet provider, if any.
type Accessor struct {
	mu sync.RWMutex
	p  WalletProvider
}

// NewAccessor creates an accessor. p may be nil when no wallet is configured.
func NewAccessor(p WalletProvider) *Accessor {
	return &Accessor{p: p}
}

// Get returns the wallet provider or ErrWalletNotFound.
func (a *Accessor) Get() (WalletProvider, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.p == nil {
		return nil, deskerr.WithSuggestion(
			deskerr.ErrWalletNotFound,
			"Install and unlock a wallet that exposes a JSON-RPC endpoint (e.g. Frame), then set --rpc or SWAPDESK_WALLET_RPC",
		)
	}
	return a.p, nil
}

// Available reports whether a provider is configured.
func (a *Accessor) Available() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.p != nil
}

// Set replaces the provider. Passing nil makes Get fail.
func (a *Accessor) Set(p WalletProvider) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.p = p
}
