package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrz1836/swapdesk/internal/network"
	"github.com/mrz1836/swapdesk/internal/output"
)

// networkCmd is the parent command for network selection.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Show and switch the active network",
	Long: withNetworkList(`Show the supported networks and switch the wallet between them.

The selection is stored in the swapdesk home directory and restored on the
next run.`, network.DefaultRegistry()),
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var networkListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List supported networks",
	Long:    `List every supported network and mark the active one.`,
	Example: `  swapdesk network list
  swapdesk network list -o json`,
	Args: cobra.NoArgs,
	RunE: runNetworkList,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var networkCurrentCmd = &cobra.Command{
	Use:     "current",
	Short:   "Show the active network",
	Long:    `Show the network swapdesk builds and submits transactions for.`,
	Example: `  swapdesk network current`,
	Args:    cobra.NoArgs,
	RunE:    runNetworkCurrent,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var networkSwitchCmd = &cobra.Command{
	Use:   "switch <network>",
	Short: "Switch the wallet to another network",
	Long: `Ask the wallet to switch chains and record the new selection.

Chains the wallet does not know yet are added first when swapdesk has a
chain configuration for them. The wallet may ask you to approve either step.`,
	Example: `  swapdesk network switch polygon
  swapdesk network switch base`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeNetworkIDs,
	RunE:              runNetworkSwitch,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	networkCmd.GroupID = groupWallet
	rootCmd.AddCommand(networkCmd)
	networkCmd.AddCommand(networkListCmd)
	networkCmd.AddCommand(networkCurrentCmd)
	networkCmd.AddCommand(networkSwitchCmd)
}

// networkView is the JSON shape of a network.
type networkView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	ChainID string `json:"chainId"`
	APIID   string `json:"apiId"`
	Active  bool   `json:"active"`
}

func viewOf(n network.Network, active string) networkView {
	return networkView{ID: n.ID, Name: n.Name, ChainID: n.ChainID, APIID: n.APIID, Active: n.ID == active}
}

func runNetworkList(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	active := cc.Networks.Active().ID
	networks := cc.Networks.Registry().All()

	if cc.Fmt.Format() == output.FormatJSON {
		views := make([]networkView, 0, len(networks))
		for _, n := range networks {
			views = append(views, viewOf(n, active))
		}
		return writeJSON(cmd.OutOrStdout(), views)
	}

	table := output.NewTable("", "ID", "NAME", "CHAIN ID")
	for _, n := range networks {
		marker := ""
		if n.ID == active {
			marker = "*"
		}
		table.AddRow(marker, n.ID, n.Name, n.ChainID)
	}
	return table.Render(cmd.OutOrStdout())
}

func runNetworkCurrent(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	n := cc.Networks.Active()

	if cc.Fmt.Format() == output.FormatJSON {
		return writeJSON(cmd.OutOrStdout(), viewOf(n, n.ID))
	}
	outln(cmd.OutOrStdout(), n.Icon, n.Name, "("+n.ID+", chain "+n.ChainID+")")
	return nil
}

func runNetworkSwitch(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	ctx, cancel := contextWithTimeout(cmd, cc.Cfg.WalletTimeout())
	defer cancel()

	spin := output.NewSpinner(cmd.ErrOrStderr(), cc.Fmt.Format(), "Waiting for the wallet to switch networks...")
	spin.Start()
	n, err := cc.Networks.Switch(ctx, args[0])
	spin.Stop()
	if err != nil {
		return err
	}

	if cc.Fmt.Format() == output.FormatJSON {
		return writeJSON(cmd.OutOrStdout(), viewOf(n, n.ID))
	}
	out(cmd.OutOrStdout(), "Switched to %s (%s)\n", output.Highlight(n.Name), n.ChainID)
	return nil
}

func completeNetworkIDs(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return network.DefaultRegistry().IDs(), cobra.ShellCompDirectiveNoFileComp
}
