package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrz1836/swapdesk/internal/backend"
	"github.com/mrz1836/swapdesk/internal/output"
	deskerr "github.com/mrz1836/swapdesk/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// quoteSell is the token address to sell.
	quoteSell string
	// quoteBuy is the token address to buy.
	quoteBuy string
	// quoteAmount is the sell amount in base units.
	quoteAmount string
	// quoteFeeRecipient receives the integrator fee.
	quoteFeeRecipient string
	// quoteFeeBps is the integrator fee in basis points.
	quoteFeeBps string
	// quoteSubmit submits the quoted swap.
	quoteSubmit bool
	// quoteYes skips the confirmation prompt.
	quoteYes bool
	// quoteNoWait returns once the swap is submitted.
	quoteNoWait bool
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Price a swap on the active network",
	Long: `Ask the quote service to price a swap for the session account on the
active network. Amounts are in the sell token's base units (wei for the
native token, which is addressed as ` + backend.NativeTokenAddress + `).

With --submit the quoted swap is built into an intent and sent through the
wallet, including the permit signature the quote asks for.`,
	Example: `  swapdesk quote --sell 0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48 --buy 0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE --amount 1000000
  swapdesk quote --sell 0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48 --buy 0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2 --amount 1000000 --submit`,
	Args: cobra.NoArgs,
	RunE: runQuote,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	quoteCmd.GroupID = groupTrading
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().StringVar(&quoteSell, "sell", "", "token contract to sell")
	quoteCmd.Flags().StringVar(&quoteBuy, "buy", "", "token contract to buy")
	quoteCmd.Flags().StringVar(&quoteAmount, "amount", "", "sell amount in base units")
	quoteCmd.Flags().StringVar(&quoteFeeRecipient, "fee-recipient", "", "address that receives the integrator fee")
	quoteCmd.Flags().StringVar(&quoteFeeBps, "fee-bps", "", "integrator fee in basis points")
	quoteCmd.Flags().BoolVar(&quoteSubmit, "submit", false, "submit the quoted swap through the wallet")
	quoteCmd.Flags().BoolVarP(&quoteYes, "yes", "y", false, "submit without asking for confirmation")
	quoteCmd.Flags().BoolVar(&quoteNoWait, "no-wait", false, "return once the swap is submitted")
	for _, name := range []string{"sell", "buy", "amount"} {
		_ = quoteCmd.MarkFlagRequired(name)
	}
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	s, err := currentSession(cc)
	if err != nil {
		return err
	}

	n := cc.Networks.Active()
	chainID := n.ChainIDInt()
	if chainID == nil {
		return deskerr.WithDetails(deskerr.ErrUnknownNetwork, map[string]string{"network": n.ID})
	}

	params := backend.QuoteParams{
		ChainID:          chainID.String(),
		SellToken:        quoteSell,
		BuyToken:         quoteBuy,
		SellAmount:       quoteAmount,
		Taker:            s.Address,
		SwapFeeRecipient: quoteFeeRecipient,
		SwapFeeBps:       quoteFeeBps,
	}
	if quoteFeeRecipient != "" {
		params.SwapFeeToken = quoteBuy
	}

	ctx, cancel := contextWithTimeout(cmd, cc.Cfg.BackendTimeout())
	defer cancel()

	spin := output.NewSpinner(cmd.ErrOrStderr(), cc.Fmt.Format(), "Fetching quote...")
	spin.Start()
	q, err := cc.Quotes.Quote(ctx, params)
	spin.Stop()
	if err != nil {
		return err
	}

	if !quoteSubmit {
		return printQuote(cmd, cc.Fmt.Format(), q)
	}

	in := q.Intent(s.Address)
	if !cc.Fmt.IsJSON() {
		if err := describeIntent(cmd.OutOrStdout(), in); err != nil {
			return err
		}
	}
	if !confirmAction(quoteYes, "Submit this swap?") {
		outln(cmd.OutOrStdout(), "Swap canceled.")
		return nil
	}

	res, err := submitIntent(cmd, cc, in, !quoteNoWait)
	if res != nil && res.Hash != "" {
		if printErr := printResult(cmd, cc.Fmt.Format(), res); printErr != nil {
			return printErr
		}
	}
	return err
}

func printQuote(cmd *cobra.Command, format output.Format, q *backend.Quote) error {
	if format == output.FormatJSON {
		return writeJSON(cmd.OutOrStdout(), q)
	}

	pairs := [][2]string{
		{"Sell", string(q.SellAmount) + " of " + q.SellToken},
		{"Buy", string(q.BuyAmount) + " of " + q.BuyToken},
		{"Minimum", string(q.MinBuyAmount)},
		{"Route", backend.QuoteTool},
	}
	if q.Permit2 != nil && len(q.Permit2.EIP712) > 0 {
		pairs = append(pairs, [2]string{"Permit", "signature required"})
	}
	if q.Issues.Allowance != nil {
		pairs = append(pairs, [2]string{"Allowance", string(q.Issues.Allowance.Actual) + " (spender " + q.Issues.Allowance.Spender + ")"})
	}
	return output.NewFormatter(format, cmd.OutOrStdout()).KV(pairs...)
}
