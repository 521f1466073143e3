package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrz1836/swapdesk/internal/gas"
	"github.com/mrz1836/swapdesk/internal/output"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var gasCmd = &cobra.Command{
	Use:   "gas",
	Short: "Show the gas price swapdesk would use",
	Long: `Ask the wallet for the current gas price and apply the configured speed.

The price comes from eth_gasPrice, then from the latest base fee plus
priority fee, and falls back to a fixed price when the wallet reports
neither.`,
	Example: `  swapdesk gas
  swapdesk gas -o json`,
	Args: cobra.NoArgs,
	RunE: runGas,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	gasCmd.GroupID = groupTrading
	rootCmd.AddCommand(gasCmd)
}

// gasView is the JSON shape of a gas quote.
type gasView struct {
	Wei     string     `json:"wei"`
	Gwei    string     `json:"gwei"`
	Source  gas.Source `json:"source"`
	Speed   string     `json:"speed"`
	Network string     `json:"network"`
}

func runGas(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	ctx, cancel := contextWithTimeout(cmd, cc.Cfg.WalletTimeout())
	defer cancel()

	q := cc.Gas.Quote(ctx)
	speed, err := gas.ParseSpeed(cc.Cfg.GetGasSpeed())
	if err != nil {
		speed = gas.SpeedMedium
	}

	v := gasView{
		Wei:     q.Price.String(),
		Gwei:    gas.FormatGwei(q.Price),
		Source:  q.Source,
		Speed:   string(speed),
		Network: cc.Networks.Active().ID,
	}

	return cc.Fmt.To(cmd.OutOrStdout()).Render(v, func(f *output.Formatter) error {
		return f.KV(
			[2]string{"Gas price", output.Highlight(v.Gwei)},
			[2]string{"Speed", v.Speed},
			[2]string{"Source", string(v.Source)},
			[2]string{"Network", v.Network},
		)
	})
}
