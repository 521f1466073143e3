package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/swapdesk/internal/auth"
	"github.com/mrz1836/swapdesk/internal/backend"
	"github.com/mrz1836/swapdesk/internal/cache"
	"github.com/mrz1836/swapdesk/internal/config"
	"github.com/mrz1836/swapdesk/internal/gas"
	"github.com/mrz1836/swapdesk/internal/metrics"
	"github.com/mrz1836/swapdesk/internal/network"
	"github.com/mrz1836/swapdesk/internal/output"
	"github.com/mrz1836/swapdesk/internal/pipeline"
	"github.com/mrz1836/swapdesk/internal/provider"
	"github.com/mrz1836/swapdesk/internal/state"
	"github.com/mrz1836/swapdesk/internal/transport"
)

// CommandContext holds dependencies for CLI commands.
type CommandContext struct {
	Cfg     *config.Config
	Log     *config.Logger
	Fmt     *output.Formatter
	Metrics *metrics.Metrics

	State    *state.App
	Wallet   *provider.Accessor
	Networks *network.Switcher
	Auth     *auth.Auth
	Gas      *gas.Oracle
	Pipeline *pipeline.Pipeline

	Chat      *backend.ChatClient
	Tracking  *backend.TrackingClient
	Quotes    *backend.QuoteClient
	Portfolio *backend.PortfolioClient
	Holdings  *cache.FileStorage

	networkStore *network.Store
}

type cmdContextKey struct{}

// NewCommandContext wires the application around wallet, which may be nil
// when no wallet endpoint is configured.
func NewCommandContext(
	c *config.Config,
	log *config.Logger,
	formatter *output.Formatter,
	wallet provider.WalletProvider,
) *CommandContext {
	home := c.GetHome()
	registry := network.DefaultRegistry()

	cc := &CommandContext{
		Cfg:          c,
		Log:          log,
		Fmt:          formatter,
		Metrics:      metrics.Global,
		State:        state.New(registry.Default().ID),
		Wallet:       provider.NewAccessor(wallet),
		networkStore: network.NewStore(config.StatePath(home)),
	}

	cc.Networks = network.NewSwitcher(&network.Config{
		Registry: registry,
		Store:    cc.networkStore,
		State:    cc.State,
		Wallet:   cc.Wallet,
		Logger:   log,
	})

	cc.Auth = auth.New(&auth.Config{
		Wallet:   cc.Wallet,
		State:    cc.State,
		Networks: cc.Networks,
		Store:    auth.NewFileStore(home),
		Logger:   log,
	})

	speed, err := gas.ParseSpeed(c.GetGasSpeed())
	if err != nil {
		log.Error("ignoring gas speed %q: %v", c.GetGasSpeed(), err)
		speed = gas.SpeedMedium
	}
	cc.Gas = gas.NewOracle(cc.Wallet, &gas.Options{Speed: speed, Metrics: cc.Metrics, Logger: log})

	cc.Pipeline = pipeline.New(&pipeline.Config{
		Wallet:              cc.Wallet,
		Networks:            cc.Networks,
		Gas:                 cc.Gas,
		Metrics:             cc.Metrics,
		Logger:              log,
		ApprovalTimeout:     c.ApprovalTimeout(),
		ReceiptPollInterval: c.ReceiptPollInterval(),
	})

	opts := backendOptions(c, cc.Metrics)
	quoteURL := c.Backend.QuoteURL
	if quoteURL == "" {
		quoteURL = c.Backend.URL
	}
	cc.Chat = backend.NewChatClient(c.Backend.URL, opts)
	cc.Tracking = backend.NewTrackingClient(c.Backend.URL, opts)
	cc.Quotes = backend.NewQuoteClient(quoteURL, opts)
	cc.Portfolio = backend.NewPortfolioClient(c.Backend.PortfolioURL, c.Backend.PortfolioAPIKey, opts)
	cc.Holdings = cache.NewFileStorage(cache.Path(home))

	return cc
}

func backendOptions(c *config.Config, m *metrics.Metrics) *backend.Options {
	opts := &backend.Options{
		Timeout:           c.BackendTimeout(),
		RequestsPerSecond: c.Backend.RequestsPerSecond,
		Metrics:           m,
	}
	if c.Backend.MaxRetries > 0 {
		retry := transport.DefaultRetryConfig()
		retry.MaxAttempts = c.Backend.MaxRetries
		opts.Retry = &retry
	}
	return opts
}

// restore loads the persisted session and network selection without
// talking to the wallet.
func (c *CommandContext) restore() {
	if s, ok := c.Auth.Restore(); ok {
		c.Log.Debug("restored session for %s", s.Address)
	}

	id, err := c.networkStore.Load()
	if err != nil {
		c.Log.Error("reading persisted network: %v", err)
		return
	}
	if id == "" {
		return
	}
	if err := c.Networks.Select(id); err != nil {
		c.Log.Debug("ignoring persisted network %q: %v", id, err)
	}
}

// WithCmdContext returns a copy of ctx carrying cc.
func WithCmdContext(ctx context.Context, cc *CommandContext) context.Context {
	return context.WithValue(ctx, cmdContextKey{}, cc)
}

// GetCmdContext returns the CommandContext for cmd, falling back to the
// one built by initGlobals.
func GetCmdContext(cmd *cobra.Command) *CommandContext {
	if cc := fromContext(cmd); cc != nil {
		return cc
	}
	return cmdCtx
}

func fromContext(cmd *cobra.Command) *CommandContext {
	if cmd == nil || cmd.Context() == nil {
		return nil
	}
	cc, _ := cmd.Context().Value(cmdContextKey{}).(*CommandContext)
	return cc
}

// baseContext returns the command context, or Background when unset.
func baseContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// contextWithTimeout returns a timeout context rooted in the command context.
func contextWithTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(baseContext(cmd), d)
}
