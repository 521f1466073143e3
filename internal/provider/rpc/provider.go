package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mrz1836/swapdesk/internal/metrics"
	"github.com/mrz1836/swapdesk/internal/provider"
)

// DefaultPollInterval is how often wallet state is polled for events.
const DefaultPollInterval = 4 * time.Second

// LogWriter provides logging operations.
type LogWriter interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

// Options configures a Provider.
type Options struct {
	HTTPClient        *http.Client
	Timeout           time.Duration
	RequestsPerSecond float64
	PollInterval      time.Duration
	Metrics           *metrics.Metrics
	Logger            LogWriter
}

// Provider is a WalletProvider backed by a JSON-RPC endpoint. HTTP has no
// push channel, so wallet events are derived by polling eth_accounts and
// eth_chainId once the first listener registers.
type Provider struct {
	provider.Emitter

	client       *Client
	pollInterval time.Duration
	logger       LogWriter

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	primed    bool
	connected bool
	accounts  []string
	chainID   string
}

// New creates a provider for the endpoint at url.
func New(url string, opts *Options) *Provider {
	if opts == nil {
		opts = &Options{}
	}

	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	return &Provider{
		client: NewClient(url, &ClientOptions{
			HTTPClient:        opts.HTTPClient,
			Timeout:           opts.Timeout,
			RequestsPerSecond: opts.RequestsPerSecond,
			Metrics:           opts.Metrics,
		}),
		pollInterval: interval,
		logger:       opts.Logger,
	}
}

// Request implements provider.WalletProvider.
func (p *Provider) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	return p.client.Call(ctx, method, params...)
}

// On registers h and starts the event watcher if it is not running.
func (p *Provider) On(event string, h provider.Handler) provider.ListenerID {
	id := p.Emitter.On(event, h)
	p.startWatcher()
	return id
}

// Close stops the event watcher.
func (p *Provider) Close() error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}

func (p *Provider) startWatcher() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.watch(ctx, p.done)
}

func (p *Provider) watch(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		p.poll(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// poll reads wallet state once and emits events for anything that changed
// since the previous poll. The first successful poll only records a baseline.
func (p *Provider) poll(ctx context.Context) {
	callCtx, cancel := context.WithTimeout(ctx, p.pollInterval)
	defer cancel()

	accounts, err := provider.Accounts(callCtx, p)
	var chainID string
	if err == nil {
		chainID, err = provider.ChainID(callCtx, p)
	}
	if ctx.Err() != nil {
		return
	}

	p.mu.Lock()
	var events []provider.Event

	switch {
	case err != nil:
		if p.connected {
			events = append(events, provider.Event{Name: provider.EventDisconnect, Err: err})
		}
		p.connected = false
	case !p.primed || !p.connected:
		p.primed = true
		p.connected = true
		p.accounts = accounts
		p.chainID = chainID
	default:
		if !slices.EqualFunc(accounts, p.accounts, strings.EqualFold) {
			events = append(events, provider.Event{Name: provider.EventAccountsChanged, Accounts: accounts})
			p.accounts = accounts
		}
		if !strings.EqualFold(chainID, p.chainID) {
			events = append(events, provider.Event{Name: provider.EventChainChanged, ChainID: chainID})
			p.chainID = chainID
		}
	}
	p.mu.Unlock()

	for _, ev := range events {
		if p.logger != nil {
			p.logger.Debug("wallet event %s", ev.Name)
		}
		p.Emit(ev)
	}
}

var _ provider.WalletProvider = (*Provider)(nil)
