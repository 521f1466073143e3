package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/swapdesk/internal/backend"
	"github.com/mrz1836/swapdesk/internal/cache"
	"github.com/mrz1836/swapdesk/internal/output"
	deskerr "github.com/mrz1836/swapdesk/pkg/errors"
)

// Column caps for portfolio tables.
const (
	maxNameWidth    = 24
	maxSummaryWidth = 48
)

// ErrNoCachedHoldings is returned by --cached when nothing is cached.
var ErrNoCachedHoldings = &deskerr.DeskError{
	Code:     "NO_CACHED_HOLDINGS",
	Message:  "no cached holdings available",
	ExitCode: deskerr.ExitNotFound,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// portfolioAddress overrides the session account.
	portfolioAddress string
	// historyLimit is the number of history entries to fetch.
	historyLimit int
	// tokensRefresh ignores cached holdings.
	tokensRefresh bool
	// tokensCached shows cached holdings without calling the backend.
	tokensCached bool
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "List token holdings on the active network",
	Long: fmt.Sprintf(`List the token holdings of the session account on the active network.

Holdings worth $%.2f or less are hidden. Results are cached for %s; when
the portfolio service fails the last cached holdings are shown instead.`, backend.DustThresholdUSD, cache.DefaultStaleness),
	Example: `  swapdesk tokens
  swapdesk tokens --refresh
  swapdesk tokens --address 0x742d35Cc6634C0532925a3b844Bc9e7595f8b2E0 -o json`,
	Args: cobra.NoArgs,
	RunE: runTokens,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent wallet activity",
	Long:  `Show the most recent transactions of the session account on the active network, newest first.`,
	Example: `  swapdesk history
  swapdesk history --limit 10`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	for _, c := range []*cobra.Command{tokensCmd, historyCmd} {
		c.GroupID = groupPortfolio
		c.Flags().StringVar(&portfolioAddress, "address", "", "account to inspect (default: session account)")
		rootCmd.AddCommand(c)
	}
	historyCmd.Flags().IntVar(&historyLimit, "limit", backend.DefaultHistoryLimit, "number of entries to show")
	tokensCmd.Flags().BoolVar(&tokensRefresh, "refresh", false, "force a fresh fetch, ignore the cache")
	tokensCmd.Flags().BoolVar(&tokensCached, "cached", false, "show cached holdings only, skip the portfolio service")
	tokensCmd.MarkFlagsMutuallyExclusive("refresh", "cached")
}

// portfolioTarget returns the account and backend chain id to query.
func portfolioTarget(cc *CommandContext) (string, string, error) {
	chain := cc.Networks.Active().APIID
	if portfolioAddress != "" {
		return portfolioAddress, chain, nil
	}
	s, err := currentSession(cc)
	if err != nil {
		return "", "", err
	}
	return s.Address, chain, nil
}

func runTokens(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	if tokensRefresh && tokensCached {
		return deskerr.WithDetails(deskerr.ErrInvalidInput, map[string]string{"flags": "--refresh and --cached"})
	}

	address, chain, err := portfolioTarget(cc)
	if err != nil {
		return err
	}

	h, err := loadHoldings(cmd, cc, address, chain)
	if err != nil {
		return err
	}
	if h.stale {
		out(cmd.ErrOrStderr(), "Showing holdings cached %s ago.\n", h.age.Round(time.Second))
	}
	tokens := h.tokens

	if cc.Fmt.Format() == output.FormatJSON {
		return writeJSON(cmd.OutOrStdout(), tokens)
	}
	if len(tokens) == 0 {
		outln(cmd.OutOrStdout(), "No holdings above the dust threshold.")
		return nil
	}

	table := output.NewTable("SYMBOL", "NAME", "BALANCE", "USD VALUE", "SHARE").
		Truncate(1, maxNameWidth).
		AlignRight(2, 3, 4)
	for _, t := range tokens {
		table.AddRow(
			t.Symbol,
			t.Name,
			t.BalanceFormatted,
			strconv.FormatFloat(t.USDValue, 'f', 2, 64),
			strconv.FormatFloat(t.PortfolioPercentage, 'f', 1, 64)+"%",
		)
	}
	return table.Render(cmd.OutOrStdout())
}

// holdings is a token list and where it came from.
type holdings struct {
	tokens []backend.Token
	age    time.Duration
	// stale is set when the list came from the cache rather than a fresh
	// fetch or a fresh cache entry.
	stale bool
}

// loadHoldings returns the holdings of address on chain. Fresh entries are
// served without a fetch; a failed fetch falls back to any cached entry.
func loadHoldings(cmd *cobra.Command, cc *CommandContext, address, chain string) (holdings, error) {
	store := loadHoldingsCache(cmd, cc)
	entry, cached, age := store.Get(chain, address)

	if tokensCached {
		if !cached {
			return holdings{}, deskerr.WithSuggestion(ErrNoCachedHoldings, "Run 'swapdesk tokens' without --cached to fetch from the portfolio service")
		}
		return holdings{tokens: entry.Tokens, age: age, stale: age > cache.DefaultStaleness}, nil
	}
	if cached && !tokensRefresh && age <= cache.DefaultStaleness {
		cc.Log.Debug("serving cached holdings for %s on %s (%s old)", address, chain, age)
		return holdings{tokens: entry.Tokens, age: age}, nil
	}

	ctx, cancel := contextWithTimeout(cmd, cc.Cfg.BackendTimeout())
	defer cancel()

	resp, err := cc.Portfolio.Tokens(ctx, address, chain)
	if err != nil {
		if cached && !errors.Is(err, deskerr.ErrInvalidInput) {
			cc.Log.Warn("portfolio fetch failed, using cache: %v", err)
			return holdings{tokens: entry.Tokens, age: age, stale: true}, nil
		}
		return holdings{}, err
	}

	store.Set(cache.HoldingsEntry{Chain: chain, Address: address, Tokens: resp.Result})
	if err := cc.Holdings.Save(store); err != nil {
		cc.Log.Error("failed to save holdings cache: %v", err)
	}
	return holdings{tokens: resp.Result}, nil
}

// loadHoldingsCache reads the holdings cache, resetting it when unreadable.
func loadHoldingsCache(cmd *cobra.Command, cc *CommandContext) *cache.HoldingsCache {
	store, err := cc.Holdings.Load()
	if err == nil {
		return store
	}
	cc.Log.Error("failed to load holdings cache: %v", err)
	if errors.Is(err, cache.ErrCorruptCache) {
		outln(cmd.ErrOrStderr(), "Warning: holdings cache was corrupted and has been reset.")
	}
	return store
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	address, chain, err := portfolioTarget(cc)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, cc.Cfg.BackendTimeout())
	defer cancel()

	resp, err := cc.Portfolio.History(ctx, address, chain, historyLimit)
	if err != nil {
		return err
	}

	if cc.Fmt.Format() == output.FormatJSON {
		return writeJSON(cmd.OutOrStdout(), resp.Result)
	}
	if len(resp.Result) == 0 {
		outln(cmd.OutOrStdout(), "No transactions found.")
		return nil
	}

	table := output.NewTable("TIME", "CATEGORY", "SUMMARY", "HASH").Truncate(2, maxSummaryWidth)
	for _, e := range resp.Result {
		table.AddRow(e.BlockTimestamp, e.Category, e.Summary, e.Hash)
	}
	return table.Render(cmd.OutOrStdout())
}
