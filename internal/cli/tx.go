package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mrz1836/swapdesk/internal/gas"
	"github.com/mrz1836/swapdesk/internal/intent"
	"github.com/mrz1836/swapdesk/internal/output"
	"github.com/mrz1836/swapdesk/internal/pipeline"
	deskerr "github.com/mrz1836/swapdesk/pkg/errors"
)

// maxIntentSize bounds intent documents read from files or stdin.
const maxIntentSize = 1 << 20

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// txIntent is the intent file path, or "-" for stdin.
	txIntent string
	// txYes skips the confirmation prompt.
	txYes bool
	// txNoWait returns once the transaction is submitted.
	txNoWait bool
)

// txCmd is the parent command for transaction operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "Submit, sign, and inspect transactions",
	Long: `Submit priced intents through the wallet, sign them without broadcasting,
and look up the status of submitted transactions.`,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var txSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Submit an intent through the wallet",
	Long: `Submit a priced intent document through the wallet.

The wallet is moved to the intent's chain first. ERC-20 swaps that need an
allowance are preceded by an approval transaction, and intents carrying a
permit ask the wallet to sign it before the swap is sent. By default the
command waits for the receipt.`,
	Example: `  swapdesk tx send --intent swap.json
  cat swap.json | swapdesk tx send --intent - --yes --no-wait`,
	Args: cobra.NoArgs,
	RunE: runTxSend,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var txSignCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign an intent without broadcasting it",
	Long: `Ask the wallet to sign an intent's transaction as an EIP-1559
transaction and print the raw signed bytes. Nothing is broadcast.`,
	Example: `  swapdesk tx sign --intent swap.json`,
	Args:    cobra.NoArgs,
	RunE:    runTxSign,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var txStatusCmd = &cobra.Command{
	Use:     "status <hash>",
	Short:   "Show a transaction's receipt status",
	Long:    `Look up a transaction receipt once and report success, failed, or pending.`,
	Example: `  swapdesk tx status 0x5c504ed432cb51138bcf09aa5e8a410dd4a1e204ef84bfed1be16dfba1b22060`,
	Args:    cobra.ExactArgs(1),
	RunE:    runTxStatus,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	txCmd.GroupID = groupTrading
	rootCmd.AddCommand(txCmd)
	txCmd.AddCommand(txSendCmd)
	txCmd.AddCommand(txSignCmd)
	txCmd.AddCommand(txStatusCmd)

	for _, c := range []*cobra.Command{txSendCmd, txSignCmd} {
		c.Flags().StringVar(&txIntent, "intent", "", "intent JSON file, or - to read stdin")
		_ = c.MarkFlagRequired("intent")
	}
	txSendCmd.Flags().BoolVarP(&txYes, "yes", "y", false, "submit without asking for confirmation")
	txSendCmd.Flags().BoolVar(&txNoWait, "no-wait", false, "return once the transaction is submitted")
}

func runTxSend(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	in, err := readIntent(cmd, txIntent)
	if err != nil {
		return err
	}

	if !cc.Fmt.IsJSON() {
		if err := describeIntent(cmd.OutOrStdout(), in); err != nil {
			return err
		}
	}
	if !confirmAction(txYes, "Submit this transaction?") {
		outln(cmd.OutOrStdout(), "Transaction canceled.")
		return nil
	}

	res, err := submitIntent(cmd, cc, in, !txNoWait)
	if res != nil && res.Hash != "" {
		if printErr := printResult(cmd, cc.Fmt.Format(), res); printErr != nil {
			return printErr
		}
	}
	return err
}

func runTxSign(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	in, err := readIntent(cmd, txIntent)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, cc.Cfg.WalletTimeout())
	defer cancel()

	spin := output.NewSpinner(cmd.ErrOrStderr(), cc.Fmt.Format(), "Waiting for the wallet to sign...")
	spin.Start()
	signed, err := cc.Pipeline.Sign(ctx, in)
	spin.Stop()
	if err != nil {
		return err
	}

	if cc.Fmt.Format() == output.FormatJSON {
		return writeJSON(cmd.OutOrStdout(), map[string]string{"signed": signed})
	}
	outln(cmd.OutOrStdout(), signed)
	return nil
}

func runTxStatus(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	ctx, cancel := contextWithTimeout(cmd, cc.Cfg.WalletTimeout())
	defer cancel()

	status, err := cc.Pipeline.Status(ctx, args[0])
	if err != nil {
		return err
	}

	if cc.Fmt.Format() == output.FormatJSON {
		return writeJSON(cmd.OutOrStdout(), map[string]string{"hash": args[0], "status": string(status)})
	}
	out(cmd.OutOrStdout(), "%s %s\n", output.Highlight(args[0]), output.Status(string(status)))
	return nil
}

// readIntent parses the intent at path, or stdin when path is "-".
func readIntent(cmd *cobra.Command, path string) (*intent.Intent, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			return nil, deskerr.WithDetails(deskerr.WithCause(deskerr.ErrInvalidInput, err), map[string]string{"intent": path})
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	data, err := io.ReadAll(io.LimitReader(r, maxIntentSize))
	if err != nil {
		return nil, deskerr.WithCause(deskerr.ErrInvalidInput, err)
	}
	return intent.Parse(data)
}

// submitIntent runs in through the pipeline and, when wait is set, waits
// for its receipt. The result is returned even on failure so callers can
// report a hash that was already submitted.
func submitIntent(cmd *cobra.Command, cc *CommandContext, in *intent.Intent, wait bool) (*pipeline.Result, error) {
	ctx, cancel := contextWithTimeout(cmd, cc.Cfg.WalletTimeout()+cc.Cfg.ApprovalTimeout())
	defer cancel()

	spin := output.NewSpinner(cmd.ErrOrStderr(), cc.Fmt.Format(), "Waiting for wallet confirmation...")
	spin.Start()
	defer spin.Stop()

	res, err := cc.Pipeline.Submit(ctx, in)
	if err != nil {
		return res, err
	}
	cc.Log.With("network", res.Network).Info("submitted %s (%s)", res.Hash, res.Kind)
	if !wait {
		return res, nil
	}

	spin.Update(fmt.Sprintf("Waiting for receipt of %s...", res.Hash))
	return res, cc.Pipeline.Await(ctx, res)
}

func printResult(cmd *cobra.Command, format output.Format, res *pipeline.Result) error {
	if format == output.FormatJSON {
		return writeJSON(cmd.OutOrStdout(), res)
	}

	pairs := [][2]string{
		{"Hash", output.Highlight(res.Hash)},
	}
	if res.ApprovalHash != "" {
		pairs = append(pairs, [2]string{"Approval", res.ApprovalHash})
	}
	pairs = append(pairs,
		[2]string{"Network", res.Network},
		[2]string{"Kind", string(res.Kind)},
		[2]string{"Gas price", gas.FormatGwei(res.GasPrice)},
		[2]string{"State", output.Status(string(res.State))},
	)
	if res.Receipt != nil && res.Receipt.BlockNumber != nil {
		pairs = append(pairs, [2]string{"Block", res.Receipt.BlockNumber.ToInt().String()})
	}
	return output.NewFormatter(format, cmd.OutOrStdout()).KV(pairs...)
}

// describeIntent prints what an intent will do before it is submitted.
func describeIntent(w io.Writer, in *intent.Intent) error {
	tx := in.TransactionRequest
	pairs := [][2]string{
		{"From", tx.From},
		{"To", tx.To},
	}
	if in.FromToken != "" || in.ToToken != "" {
		pairs = append(pairs, [2]string{"Swap", in.FromToken + " -> " + in.ToToken})
	}
	if !in.Estimate.FromAmount.IsEmpty() {
		pairs = append(pairs, [2]string{"Sell amount", string(in.Estimate.FromAmount)})
	}
	if !in.Estimate.ToAmountMin.IsEmpty() {
		pairs = append(pairs, [2]string{"Minimum received", string(in.Estimate.ToAmountMin)})
	}
	if tx.IsNativeToken && !tx.Value.IsEmpty() {
		pairs = append(pairs, [2]string{"Value (wei)", string(tx.Value)})
	}
	if in.Tool != "" {
		pairs = append(pairs, [2]string{"Route", in.Tool})
	}
	if in.HasPermit() {
		pairs = append(pairs, [2]string{"Permit", "signature required"})
	}
	return output.NewFormatter(output.FormatText, w).KV(pairs...)
}
