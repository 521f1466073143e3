package network

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/swapdesk/internal/provider"
	"github.com/mrz1836/swapdesk/internal/provider/providertest"
	"github.com/mrz1836/swapdesk/internal/state"
	deskerr "github.com/mrz1836/swapdesk/pkg/errors"
)

var errWalletTimeout = errors.New("wallet timed out")

// countingStore is an in-memory Selection that counts writes.
type countingStore struct {
	mu      sync.Mutex
	id      string
	saves   int
	loadErr error
}

func (c *countingStore) Load() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id, c.loadErr
}

func (c *countingStore) Save(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = id
	c.saves++
	return nil
}

// noWallet is a WalletSource with no wallet configured.
type noWallet struct{}

func (noWallet) Get() (provider.WalletProvider, error) { return nil, deskerr.ErrWalletNotFound }

func newTestSwitcher(store Selection, wallet WalletSource, active string) (*Switcher, *state.App) {
	app := state.New(active)
	return NewSwitcher(&Config{Store: store, State: app, Wallet: wallet}), app
}

func TestRegistry(t *testing.T) {
	t.Parallel()
	r := DefaultRegistry()

	assert.Equal(t, []string{"eth", "polygon", "base"}, r.IDs())
	assert.Equal(t, "eth", r.Default().ID)
	assert.Nil(t, r.Default().ChainConfig)

	polygon, err := r.Lookup("Polygon")
	require.NoError(t, err)
	assert.Equal(t, "0x89", polygon.ChainID)
	require.NotNil(t, polygon.ChainConfig)
	assert.Equal(t, "MATIC", polygon.ChainConfig.NativeCurrency.Symbol)
	assert.Equal(t, []string{"https://polygon-rpc.com/"}, polygon.ChainConfig.RPCURLs)

	base, ok := r.ByChainID("8453")
	require.True(t, ok)
	assert.Equal(t, "base", base.ID)

	base, ok = r.ByChainID("0x2105")
	require.True(t, ok)
	assert.Equal(t, "base", base.ID)

	_, ok = r.ByChainID("0xa4b1")
	assert.False(t, ok)
	_, ok = r.ByChainID("")
	assert.False(t, ok)

	all := r.All()
	all[0].ID = "mutated"
	assert.Equal(t, "eth", r.Default().ID)
}

func TestRegistry_UnknownNetwork(t *testing.T) {
	t.Parallel()
	r := DefaultRegistry()

	tests := []struct {
		name       string
		input      string
		suggestion string
	}{
		{"typo", "polgon", `did you mean "polygon"?`},
		{"display name", "ethereum", `did you mean "eth"?`},
		{"far off", "solana-mainnet", "supported networks: eth, polygon, base"},
		{"empty", "", "supported networks: eth, polygon, base"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := r.Lookup(tc.input)
			require.ErrorIs(t, err, deskerr.ErrUnknownNetwork)

			var de *deskerr.DeskError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tc.suggestion, de.Suggestion)
			assert.Equal(t, tc.input, de.Details["network"])
		})
	}
}

func TestNewRegistry_Panics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { NewRegistry() })
	assert.Panics(t, func() { NewRegistry(Network{ID: "a"}, Network{ID: "a"}) })
}

func TestStore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	s := NewStore(path)

	id, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, s.Save("base"))
	id, err = s.Load()
	require.NoError(t, err)
	assert.Equal(t, "base", id)

	data, err := os.ReadFile(path) //nolint:gosec // test path
	require.NoError(t, err)
	assert.JSONEq(t, `{"activeNetworkId":"base"}`, string(data))
	assert.Equal(t, path, s.Path())
}

func TestSwitch_Success(t *testing.T) {
	t.Parallel()

	fake := providertest.New().Respond(provider.MethodSwitchChain, nil)
	store := &countingStore{id: "eth"}
	sw, app := newTestSwitcher(store, provider.NewAccessor(fake), "eth")

	n, err := sw.Switch(context.Background(), "polygon")
	require.NoError(t, err)
	assert.Equal(t, "polygon", n.ID)
	assert.Equal(t, "polygon", app.ActiveNetworkID())
	assert.Equal(t, "polygon", store.id)
	assert.Equal(t, 1, store.saves)

	calls := fake.CallsTo(provider.MethodSwitchChain)
	require.Len(t, calls, 1)
	assert.Equal(t, []any{map[string]string{"chainId": "0x89"}}, calls[0].Params)
	assert.Empty(t, fake.CallsTo(provider.MethodAddChain))
}

func TestSwitch_SameNetworkDoesNotWriteStorage(t *testing.T) {
	t.Parallel()

	fake := providertest.New().Respond(provider.MethodSwitchChain, nil)
	store := &countingStore{id: "base"}
	sw, _ := newTestSwitcher(store, provider.NewAccessor(fake), "base")

	for range 3 {
		_, err := sw.Switch(context.Background(), "base")
		require.NoError(t, err)
	}
	assert.Equal(t, 0, store.saves)
	assert.Equal(t, "base", store.id)
}

func TestSwitch_UnrecognizedChainAddsOnce(t *testing.T) {
	t.Parallel()

	fake := providertest.New().
		Reject(provider.MethodSwitchChain, provider.CodeUnrecognizedChain, "Unrecognized chain ID").
		Respond(provider.MethodAddChain, nil)
	store := &countingStore{}
	sw, app := newTestSwitcher(store, provider.NewAccessor(fake), "eth")

	n, err := sw.Switch(context.Background(), "base")
	require.NoError(t, err)
	assert.Equal(t, "base", n.ID)
	assert.Equal(t, "base", app.ActiveNetworkID())

	assert.Equal(t, []string{provider.MethodSwitchChain, provider.MethodAddChain}, fake.Methods())
	add := fake.CallsTo(provider.MethodAddChain)
	require.Len(t, add, 1)
	require.Len(t, add[0].Params, 1)
	assert.Equal(t, n.ChainConfig, add[0].Params[0])
}

func TestSwitch_UnrecognizedChainWithoutConfigReturnsOriginal(t *testing.T) {
	t.Parallel()

	original := &provider.ProviderError{Code: provider.CodeUnrecognizedChain, Message: "Unrecognized chain ID"}
	fake := providertest.New().Fail(provider.MethodSwitchChain, original)
	store := &countingStore{id: "polygon"}
	sw, app := newTestSwitcher(store, provider.NewAccessor(fake), "polygon")

	_, err := sw.Switch(context.Background(), "eth")
	require.Error(t, err)
	assert.Same(t, original, err)

	assert.Empty(t, fake.CallsTo(provider.MethodAddChain))
	assert.Equal(t, "polygon", app.ActiveNetworkID())
	assert.Equal(t, 0, store.saves)
}

func TestSwitch_Failures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("add chain rejected", func(t *testing.T) {
		t.Parallel()
		fake := providertest.New().
			Reject(provider.MethodSwitchChain, provider.CodeUnrecognizedChain, "Unrecognized chain ID").
			Reject(provider.MethodAddChain, provider.CodeUserRejected, "User rejected")
		sw, app := newTestSwitcher(&countingStore{}, provider.NewAccessor(fake), "eth")

		_, err := sw.Switch(ctx, "polygon")
		require.ErrorIs(t, err, deskerr.ErrChainSwitchRejected)
		assert.True(t, provider.IsUserRejected(err))
		assert.Len(t, fake.CallsTo(provider.MethodAddChain), 1)
		assert.Equal(t, "eth", app.ActiveNetworkID())
	})

	t.Run("user rejects switch", func(t *testing.T) {
		t.Parallel()
		fake := providertest.New().Reject(provider.MethodSwitchChain, provider.CodeUserRejected, "User rejected")
		sw, _ := newTestSwitcher(&countingStore{}, provider.NewAccessor(fake), "eth")

		_, err := sw.Switch(ctx, "base")
		require.ErrorIs(t, err, deskerr.ErrChainSwitchRejected)
		assert.Equal(t, deskerr.ExitPermission, deskerr.ExitCode(err))
	})

	t.Run("other provider error propagates unchanged", func(t *testing.T) {
		t.Parallel()
		fake := providertest.New().Fail(provider.MethodSwitchChain, errWalletTimeout)
		sw, _ := newTestSwitcher(&countingStore{}, provider.NewAccessor(fake), "eth")

		_, err := sw.Switch(ctx, "base")
		assert.Equal(t, errWalletTimeout, err)
	})

	t.Run("unknown network never reaches wallet", func(t *testing.T) {
		t.Parallel()
		fake := providertest.New()
		sw, _ := newTestSwitcher(&countingStore{}, provider.NewAccessor(fake), "eth")

		_, err := sw.Switch(ctx, "arbitrum")
		require.ErrorIs(t, err, deskerr.ErrUnknownNetwork)
		assert.Empty(t, fake.Calls())
	})

	t.Run("no wallet", func(t *testing.T) {
		t.Parallel()
		sw, _ := newTestSwitcher(&countingStore{}, provider.NewAccessor(nil), "eth")

		_, err := sw.Switch(ctx, "base")
		require.ErrorIs(t, err, deskerr.ErrWalletNotFound)
	})
}

func TestRestore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("persisted network restored and switched", func(t *testing.T) {
		t.Parallel()
		fake := providertest.New().Respond(provider.MethodSwitchChain, nil)
		store := &countingStore{id: "base"}
		sw, app := newTestSwitcher(store, provider.NewAccessor(fake), "eth")

		n, err := sw.Restore(ctx)
		require.NoError(t, err)
		assert.Equal(t, "base", n.ID)
		assert.Equal(t, "base", app.ActiveNetworkID())
		assert.Len(t, fake.CallsTo(provider.MethodSwitchChain), 1)
		assert.Equal(t, 0, store.saves)
	})

	t.Run("no wallet keeps persisted selection", func(t *testing.T) {
		t.Parallel()
		sw, app := newTestSwitcher(&countingStore{id: "polygon"}, noWallet{}, "eth")

		n, err := sw.Restore(ctx)
		require.NoError(t, err)
		assert.Equal(t, "polygon", n.ID)
		assert.Equal(t, "polygon", app.ActiveNetworkID())
	})

	t.Run("unknown persisted id falls back to default", func(t *testing.T) {
		t.Parallel()
		sw, app := newTestSwitcher(&countingStore{id: "ethereum"}, noWallet{}, "base")

		n, err := sw.Restore(ctx)
		require.NoError(t, err)
		assert.Equal(t, "eth", n.ID)
		assert.Equal(t, "eth", app.ActiveNetworkID())
	})

	t.Run("switch failure reverts to default and persists it", func(t *testing.T) {
		t.Parallel()
		fake := providertest.New().Reject(provider.MethodSwitchChain, provider.CodeUserRejected, "User rejected")
		store := &countingStore{id: "polygon"}
		sw, app := newTestSwitcher(store, provider.NewAccessor(fake), "eth")

		n, err := sw.Restore(ctx)
		require.NoError(t, err)
		assert.Equal(t, "eth", n.ID)
		assert.Equal(t, "eth", app.ActiveNetworkID())
		assert.Equal(t, "eth", store.id)
		assert.Equal(t, 1, store.saves)
	})
}

func TestActive(t *testing.T) {
	t.Parallel()

	sw, app := newTestSwitcher(&countingStore{}, noWallet{}, "base")
	assert.Equal(t, "base", sw.Active().ID)

	app.SetActiveNetwork("bogus")
	assert.Equal(t, "eth", sw.Active().ID)
	assert.Equal(t, "eth", sw.Registry().Default().ID)
}
