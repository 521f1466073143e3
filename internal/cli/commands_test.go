package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/swapdesk/internal/backend"
	"github.com/mrz1836/swapdesk/internal/config"
	"github.com/mrz1836/swapdesk/internal/intent"
	"github.com/mrz1836/swapdesk/internal/network"
	"github.com/mrz1836/swapdesk/internal/output"
	"github.com/mrz1836/swapdesk/internal/provider"
	"github.com/mrz1836/swapdesk/internal/provider/providertest"
	"github.com/mrz1836/swapdesk/internal/stream"
	deskerr "github.com/mrz1836/swapdesk/pkg/errors"
)

const (
	testAccount = "0x742d35Cc6634C0532925a3b844Bc9e7595f8b2E0"
	testTo      = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	testTxHash  = "0x5c504ed432cb51138bcf09aa5e8a410dd4a1e204ef84bfed1be16dfba1b22060"
	testUSDC    = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
)

// testEnv is a CommandContext wired to a fake wallet and a local backend.
type testEnv struct {
	cc      *CommandContext
	wallet  *providertest.Fake
	out     *bytes.Buffer
	backend *httptest.Server
}

// newTestEnv builds a JSON-output environment. handler serves every backend
// endpoint; nil answers 404.
func newTestEnv(t *testing.T, handler http.Handler) *testEnv {
	t.Helper()

	if handler == nil {
		handler = http.NotFoundHandler()
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := config.Defaults()
	c.Home = t.TempDir()
	c.Backend.URL = srv.URL
	c.Backend.QuoteURL = srv.URL
	c.Backend.PortfolioURL = srv.URL
	c.Backend.MaxRetries = 1
	c.Logging.Level = "off"
	c.Proxy.APIKey = ""

	wallet := providertest.New().Respond(provider.MethodSwitchChain, nil)
	buf := new(bytes.Buffer)
	cc := NewCommandContext(c, config.NullLogger(), output.NewFormatter(output.FormatJSON, buf), wallet)

	resetCommandFlags(t)
	return &testEnv{cc: cc, wallet: wallet, out: buf, backend: srv}
}

// command returns a bare command bound to the environment.
func (e *testEnv) command(stdin string) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetContext(WithCmdContext(context.Background(), e.cc))
	cmd.SetOut(e.out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	return cmd
}

// login starts a session through the fake wallet.
func (e *testEnv) login(t *testing.T) {
	t.Helper()
	e.wallet.Respond(provider.MethodRequestAccounts, []string{testAccount})
	_, err := e.cc.Auth.Login(context.Background())
	require.NoError(t, err)
}

func (e *testEnv) decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(e.out.Bytes(), v), "output: %s", e.out.String())
}

// resetCommandFlags restores flag globals after a test.
func resetCommandFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		txIntent, txYes, txNoWait = "", false, false
		chatYes, chatNoWait = false, false
		quoteSell, quoteBuy, quoteAmount = "", "", ""
		quoteFeeRecipient, quoteFeeBps = "", ""
		quoteSubmit, quoteYes, quoteNoWait = false, false, false
		portfolioAddress, historyLimit = "", backend.DefaultHistoryLimit
		tokensRefresh, tokensCached = false, false
		serveListen, versionCheck = "", false
		completionNoDesc = false
		promptConfirmFn = promptConfirm
	})
}

func nativeIntent() *intent.Intent {
	return &intent.Intent{
		TransactionRequest: intent.TransactionRequest{
			From:          testAccount,
			To:            testTo,
			Value:         "0x3e8",
			GasPrice:      "0x3b9aca00",
			IsNativeToken: true,
		},
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, deskerr.ExitSuccess},
		{"input", deskerr.ErrInvalidInput, deskerr.ExitInput},
		{"auth", deskerr.ErrNotLoggedIn, deskerr.ExitAuth},
		{"wrapped", deskerr.WithSuggestion(deskerr.ErrWalletNotFound, "start the wallet"), deskerr.ExitNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, ExitCode(tc.err))
		})
	}
}

func TestNetworkCommands(t *testing.T) {
	t.Run("list marks the default network active", func(t *testing.T) {
		env := newTestEnv(t, nil)
		require.NoError(t, runNetworkList(env.command(""), nil))

		var views []networkView
		env.decode(t, &views)
		require.Len(t, views, 3)
		assert.Equal(t, "eth", views[0].ID)
		assert.True(t, views[0].Active)
		assert.False(t, views[1].Active)
	})

	t.Run("switch persists the selection", func(t *testing.T) {
		env := newTestEnv(t, nil)
		require.NoError(t, runNetworkSwitch(env.command(""), []string{"polygon"}))

		var view networkView
		env.decode(t, &view)
		assert.Equal(t, "polygon", view.ID)
		assert.Equal(t, "0x89", view.ChainID)
		assert.Equal(t, "polygon", env.cc.Networks.Active().ID)

		stored, err := network.NewStore(config.StatePath(env.cc.Cfg.GetHome())).Load()
		require.NoError(t, err)
		assert.Equal(t, "polygon", stored)

		calls := env.wallet.CallsTo(provider.MethodSwitchChain)
		require.Len(t, calls, 1)
		assert.Equal(t, map[string]string{"chainId": "0x89"}, calls[0].Params[0])
	})

	t.Run("unknown network", func(t *testing.T) {
		env := newTestEnv(t, nil)
		err := runNetworkSwitch(env.command(""), []string{"solana"})
		require.ErrorIs(t, err, deskerr.ErrUnknownNetwork)
		assert.Empty(t, env.wallet.Calls())
	})

	t.Run("rejected switch keeps the active network", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.wallet.Reject(provider.MethodSwitchChain, provider.CodeUserRejected, "User rejected the request.")

		err := runNetworkSwitch(env.command(""), []string{"base"})
		require.ErrorIs(t, err, deskerr.ErrChainSwitchRejected)
		assert.Equal(t, "eth", env.cc.Networks.Active().ID)
	})

	t.Run("current", func(t *testing.T) {
		env := newTestEnv(t, nil)
		require.NoError(t, runNetworkCurrent(env.command(""), nil))

		var view networkView
		env.decode(t, &view)
		assert.Equal(t, "eth", view.ID)
		assert.True(t, view.Active)
	})
}

func TestSessionCommands(t *testing.T) {
	t.Run("login whoami logout", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.wallet.Respond(provider.MethodRequestAccounts, []string{testAccount})

		require.NoError(t, runLogin(env.command(""), nil))
		var login map[string]any
		env.decode(t, &login)
		assert.Equal(t, testAccount, login["address"])
		assert.Equal(t, "eth", login["network_id"])

		env.out.Reset()
		require.NoError(t, runWhoami(env.command(""), nil))
		var who map[string]any
		env.decode(t, &who)
		assert.Equal(t, login["id"], who["id"])

		env.out.Reset()
		require.NoError(t, runLogout(env.command(""), nil))
		assert.Contains(t, env.out.String(), "Logged out")

		err := runWhoami(env.command(""), nil)
		require.ErrorIs(t, err, deskerr.ErrNotLoggedIn)
		assert.Equal(t, deskerr.ExitAuth, ExitCode(err))
	})

	t.Run("no accounts", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.wallet.Respond(provider.MethodRequestAccounts, []string{})

		err := runLogin(env.command(""), nil)
		require.ErrorIs(t, err, deskerr.ErrNoAccounts)
	})

	t.Run("restored on the next run", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.login(t)

		next := NewCommandContext(env.cc.Cfg, config.NullLogger(), env.cc.Fmt, providertest.New())
		next.restore()
		s, err := next.Auth.Current()
		require.NoError(t, err)
		assert.Equal(t, testAccount, s.Address)
	})
}

func TestTxSend(t *testing.T) {
	t.Run("submits an intent from stdin", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.wallet.Respond(provider.MethodSendTransaction, testTxHash)

		data, err := json.Marshal(nativeIntent())
		require.NoError(t, err)
		txIntent, txYes, txNoWait = "-", true, true

		require.NoError(t, runTxSend(env.command(string(data)), nil))

		var res map[string]any
		env.decode(t, &res)
		assert.Equal(t, testTxHash, res["hash"])
		assert.Equal(t, "eth", res["network"])
		assert.Equal(t, "native", res["kind"])
		assert.Equal(t, "submitted", res["state"])
		assert.Len(t, env.wallet.CallsTo(provider.MethodSendTransaction), 1)
	})

	t.Run("declined confirmation sends nothing", func(t *testing.T) {
		env := newTestEnv(t, nil)
		promptConfirmFn = func(string) bool { return false }

		data, err := json.Marshal(nativeIntent())
		require.NoError(t, err)
		txIntent = "-"

		require.NoError(t, runTxSend(env.command(string(data)), nil))
		assert.Contains(t, env.out.String(), "Transaction canceled.")
		assert.Empty(t, env.wallet.CallsTo(provider.MethodSendTransaction))
	})

	t.Run("invalid intent", func(t *testing.T) {
		env := newTestEnv(t, nil)
		txIntent, txYes = "-", true

		err := runTxSend(env.command(`{"transactionRequest":{"from":"nope"}}`), nil)
		require.ErrorIs(t, err, deskerr.ErrInvalidIntent)
		assert.Empty(t, env.wallet.Calls())
	})
}

func TestTxStatus(t *testing.T) {
	tests := []struct {
		name    string
		receipt any
		want    string
	}{
		{"pending", nil, "pending"},
		{"success", map[string]any{"transactionHash": testTxHash, "status": "0x1", "blockNumber": "0x10", "gasUsed": "0x5208"}, "success"},
		{"failed", map[string]any{"transactionHash": testTxHash, "status": "0x0", "blockNumber": "0x10", "gasUsed": "0x5208"}, "failed"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			env.wallet.Respond(provider.MethodTransactionReceipt, tc.receipt)

			require.NoError(t, runTxStatus(env.command(""), []string{testTxHash}))

			var got map[string]string
			env.decode(t, &got)
			assert.Equal(t, testTxHash, got["hash"])
			assert.Equal(t, tc.want, got["status"])
		})
	}

	t.Run("malformed hash", func(t *testing.T) {
		env := newTestEnv(t, nil)
		err := runTxStatus(env.command(""), []string{"0x1234"})
		require.ErrorIs(t, err, deskerr.ErrInvalidInput)
	})
}

func TestQuote(t *testing.T) {
	t.Run("requires a session", func(t *testing.T) {
		env := newTestEnv(t, nil)
		quoteSell, quoteBuy, quoteAmount = testUSDC, "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE", "1000000"

		err := runQuote(env.command(""), nil)
		require.ErrorIs(t, err, deskerr.ErrNotLoggedIn)
	})

	t.Run("prints the quote", func(t *testing.T) {
		var query map[string][]string
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/quote", func(w http.ResponseWriter, r *http.Request) {
			query = r.URL.Query()
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{
				"chainId": 1,
				"liquidityAvailable": true,
				"sellToken": "`+testUSDC+`",
				"buyToken": "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE",
				"sellAmount": "1000000",
				"buyAmount": "250000000000000",
				"minBuyAmount": "247500000000000",
				"transaction": {"to": "`+testTo+`", "data": "0xabcd", "gas": "210000", "gasPrice": "1000000000", "value": "0"},
				"issues": {"allowance": null}
			}`)
		})
		env := newTestEnv(t, mux)
		env.login(t)
		env.out.Reset()
		quoteSell, quoteBuy, quoteAmount = testUSDC, "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE", "1000000"

		require.NoError(t, runQuote(env.command(""), nil))

		assert.Equal(t, []string{"1"}, query["chainId"])
		assert.Equal(t, []string{testAccount}, query["taker"])
		assert.Equal(t, []string{"1000000"}, query["sellAmount"])

		var q map[string]any
		env.decode(t, &q)
		assert.Equal(t, "250000000000000", q["buyAmount"])
		assert.Empty(t, env.wallet.CallsTo(provider.MethodSendTransaction))
	})
}

// portfolioBackend serves token holdings and can be switched to failing.
type portfolioBackend struct {
	mu     sync.Mutex
	calls  int
	failed bool
}

func (p *portfolioBackend) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /wallets/{address}/tokens", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.calls++
		failed := p.failed
		p.mu.Unlock()

		if failed {
			http.Error(w, "upstream down", http.StatusBadGateway)
			return
		}
		assert.Equal(t, testAccount, r.PathValue("address"))
		assert.Equal(t, "eth", r.URL.Query().Get("chain"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"result": [
			{"symbol": "USDC", "name": "USD Coin", "balance_formatted": "250.5", "usd_value": 250.5, "portfolio_percentage": 99.9},
			{"symbol": "DUST", "name": "Dust", "balance_formatted": "0.0001", "usd_value": 0.001}
		]}`)
	})
	return mux
}

func (p *portfolioBackend) fail() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed = true
}

func (p *portfolioBackend) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestTokens(t *testing.T) {
	t.Run("fetches and drops dust", func(t *testing.T) {
		pb := &portfolioBackend{}
		env := newTestEnv(t, pb.handler(t))
		portfolioAddress = testAccount

		require.NoError(t, runTokens(env.command(""), nil))

		var tokens []map[string]any
		env.decode(t, &tokens)
		require.Len(t, tokens, 1)
		assert.Equal(t, "USDC", tokens[0]["symbol"])
		assert.Equal(t, 1, pb.count())
	})

	t.Run("fresh cache skips the backend", func(t *testing.T) {
		pb := &portfolioBackend{}
		env := newTestEnv(t, pb.handler(t))
		portfolioAddress = testAccount

		require.NoError(t, runTokens(env.command(""), nil))
		env.out.Reset()
		require.NoError(t, runTokens(env.command(""), nil))

		var tokens []map[string]any
		env.decode(t, &tokens)
		assert.Len(t, tokens, 1)
		assert.Equal(t, 1, pb.count())
	})

	t.Run("refresh ignores the cache", func(t *testing.T) {
		pb := &portfolioBackend{}
		env := newTestEnv(t, pb.handler(t))
		portfolioAddress = testAccount

		require.NoError(t, runTokens(env.command(""), nil))
		tokensRefresh = true
		require.NoError(t, runTokens(env.command(""), nil))
		assert.Equal(t, 2, pb.count())
	})

	t.Run("failed refresh falls back to the cache", func(t *testing.T) {
		pb := &portfolioBackend{}
		env := newTestEnv(t, pb.handler(t))
		portfolioAddress = testAccount

		require.NoError(t, runTokens(env.command(""), nil))
		pb.fail()
		tokensRefresh = true
		env.out.Reset()

		require.NoError(t, runTokens(env.command(""), nil))
		var tokens []map[string]any
		env.decode(t, &tokens)
		assert.Len(t, tokens, 1)
	})

	t.Run("cached only without a cache", func(t *testing.T) {
		pb := &portfolioBackend{}
		env := newTestEnv(t, pb.handler(t))
		portfolioAddress, tokensCached = testAccount, true

		err := runTokens(env.command(""), nil)
		require.ErrorIs(t, err, ErrNoCachedHoldings)
		assert.Equal(t, deskerr.ExitNotFound, ExitCode(err))
		assert.Equal(t, 0, pb.count())
	})

	t.Run("backend failure without a cache", func(t *testing.T) {
		pb := &portfolioBackend{}
		pb.fail()
		env := newTestEnv(t, pb.handler(t))
		portfolioAddress = testAccount

		err := runTokens(env.command(""), nil)
		require.ErrorIs(t, err, deskerr.ErrBackendRequest)
	})

	t.Run("invalid address", func(t *testing.T) {
		env := newTestEnv(t, nil)
		portfolioAddress = "not-an-address"

		err := runTokens(env.command(""), nil)
		require.ErrorIs(t, err, deskerr.ErrInvalidInput)
	})
}

func TestHistoryRequiresSession(t *testing.T) {
	env := newTestEnv(t, nil)
	err := runHistory(env.command(""), nil)
	require.ErrorIs(t, err, deskerr.ErrNotLoggedIn)
}

func TestGas(t *testing.T) {
	env := newTestEnv(t, nil)
	env.wallet.Respond(provider.MethodGasPrice, "0x3b9aca00")

	require.NoError(t, runGas(env.command(""), nil))

	var v map[string]string
	env.decode(t, &v)
	assert.Equal(t, "legacy", v["source"])
	assert.Equal(t, "medium", v["speed"])
	assert.Equal(t, "eth", v["network"])
	assert.NotEmpty(t, v["wei"])
}

// chatBackend streams one reply and records tracking posts.
type chatBackend struct {
	mu      sync.Mutex
	request map[string]any
	tracked []string

	// midStream runs after the content frames are written.
	midStream func()
}

func (b *chatBackend) handler(t *testing.T, in *intent.Intent) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /process", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		b.mu.Lock()
		b.request = req
		b.mu.Unlock()

		w.Header().Set("Content-Type", "text/event-stream")
		enc := stream.NewEncoder(w)
		assert.NoError(t, enc.Content("Here is "))
		assert.NoError(t, enc.Content("your swap."))
		assert.NoError(t, enc.Tracking(42))
		if b.midStream != nil {
			b.midStream()
		}
		if in != nil {
			assert.NoError(t, enc.Transaction(in))
		}
		assert.NoError(t, enc.Done())
	})
	mux.HandleFunc("POST /track/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "42", r.PathValue("id"))
		body, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.tracked = append(b.tracked, strings.TrimSpace(string(body)))
		b.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok": true}`)
	})
	return mux
}

func TestChat(t *testing.T) {
	t.Run("submits the proposal and tracks it", func(t *testing.T) {
		backend := &chatBackend{}
		env := newTestEnv(t, backend.handler(t, nativeIntent()))
		env.login(t)
		env.out.Reset()
		env.wallet.Respond(provider.MethodSendTransaction, testTxHash)
		chatYes, chatNoWait = true, true

		require.NoError(t, runChat(env.command(""), []string{"send", "some", "ETH"}))

		var reply chatReply
		env.decode(t, &reply)
		assert.Equal(t, "Here is your swap.", reply.Message)
		assert.Equal(t, int64(42), reply.MessageID)
		require.Len(t, reply.Transactions, 1)
		require.Len(t, reply.Submissions, 1)
		assert.Equal(t, testTxHash, reply.Submissions[0].Hash)

		assert.Equal(t, "send some ETH", backend.request["input"])
		assert.Equal(t, testAccount, backend.request["walletAddress"])
		assert.Equal(t, "eth", backend.request["chain"])
		assert.Equal(t, []string{`{"action_clicked":true}`, `{"action_successful":true}`}, backend.tracked)
	})

	t.Run("declined proposal is not tracked", func(t *testing.T) {
		backend := &chatBackend{}
		env := newTestEnv(t, backend.handler(t, nativeIntent()))
		env.login(t)
		env.out.Reset()
		promptConfirmFn = func(string) bool { return false }

		require.NoError(t, runChat(env.command(""), []string{"hello"}))

		var reply chatReply
		env.decode(t, &reply)
		assert.Empty(t, reply.Submissions)
		assert.Empty(t, backend.tracked)
		assert.Empty(t, env.wallet.CallsTo(provider.MethodSendTransaction))
	})

	t.Run("wallet disconnect stops the proposal", func(t *testing.T) {
		backend := &chatBackend{}
		env := newTestEnv(t, backend.handler(t, nativeIntent()))
		env.login(t)
		env.out.Reset()
		chatYes, chatNoWait = true, true
		backend.midStream = func() {
			env.wallet.Emit(provider.Event{Name: provider.EventDisconnect})
		}

		err := runChat(env.command(""), []string{"send", "some", "ETH"})
		require.ErrorIs(t, err, deskerr.ErrNotLoggedIn)
		assert.Empty(t, env.wallet.CallsTo(provider.MethodSendTransaction))
		assert.Empty(t, backend.tracked)
		assert.False(t, env.cc.State.LoggedIn())
	})

	t.Run("requires a session", func(t *testing.T) {
		env := newTestEnv(t, nil)
		err := runChat(env.command(""), []string{"hello"})
		require.ErrorIs(t, err, deskerr.ErrNotLoggedIn)
	})
}

func TestServeRequiresAPIKey(t *testing.T) {
	env := newTestEnv(t, nil)
	err := runServe(env.command(""), nil)
	require.ErrorIs(t, err, deskerr.ErrConfigInvalid)
	assert.Equal(t, deskerr.ExitInput, ExitCode(err))
}

func TestVersionJSON(t *testing.T) {
	env := newTestEnv(t, nil)
	require.NoError(t, runVersion(env.command(""), nil))

	var v map[string]any
	env.decode(t, &v)
	assert.Contains(t, v, "version")
	assert.Contains(t, v, "go")
	assert.NotContains(t, v, "update")
}

func TestCompletionScripts(t *testing.T) {
	resetCommandFlags(t)

	for _, noDesc := range []bool{false, true} {
		for _, shell := range completionCmd.ValidArgs {
			completionNoDesc = noDesc
			root := &cobra.Command{Use: "swapdesk"}
			sub := &cobra.Command{Use: "completion"}
			root.AddCommand(sub)
			var buf bytes.Buffer
			sub.SetOut(&buf)

			require.NoError(t, runCompletion(sub, []string{shell}), shell)
			assert.Contains(t, buf.String(), "swapdesk", shell)
		}
	}
	assert.Len(t, completionShells, len(completionCmd.ValidArgs))
}

func TestReadYes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{" yes \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"yep\n", false},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, readYes(strings.NewReader(tc.input)))
		})
	}
}

func TestConfirmAction(t *testing.T) {
	resetCommandFlags(t)
	asked := 0
	promptConfirmFn = func(string) bool {
		asked++
		return true
	}

	assert.True(t, confirmAction(true, "go?"))
	assert.Equal(t, 0, asked)
	assert.True(t, confirmAction(false, "go?"))
	assert.Equal(t, 1, asked)
}
