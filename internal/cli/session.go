package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/swapdesk/internal/auth"
	"github.com/mrz1836/swapdesk/internal/output"
	"github.com/mrz1836/swapdesk/internal/state"
	deskerr "github.com/mrz1836/swapdesk/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Connect the wallet and start a session",
	Long: `Ask the wallet for its accounts and start a session for the first one.

The wallet is first moved to the stored network. The session is kept in the
swapdesk home directory until you log out.`,
	Example: `  swapdesk login
  swapdesk login --rpc http://127.0.0.1:8545`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var logoutCmd = &cobra.Command{
	Use:     "logout",
	Short:   "End the session",
	Long:    `Forget the session and return to the default network.`,
	Example: `  swapdesk logout`,
	Args:    cobra.NoArgs,
	RunE:    runLogout,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var whoamiCmd = &cobra.Command{
	Use:     "whoami",
	Short:   "Show the session account",
	Long:    `Show the account and network of the current session.`,
	Example: `  swapdesk whoami -o json`,
	Args:    cobra.NoArgs,
	RunE:    runWhoami,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	for _, c := range []*cobra.Command{loginCmd, logoutCmd, whoamiCmd} {
		c.GroupID = groupWallet
		rootCmd.AddCommand(c)
	}
}

func runLogin(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	ctx, cancel := contextWithTimeout(cmd, cc.Cfg.WalletTimeout())
	defer cancel()

	spin := output.NewSpinner(cmd.ErrOrStderr(), cc.Fmt.Format(), "Waiting for wallet approval...")
	spin.Start()
	n, err := cc.Networks.Restore(ctx)
	if err != nil {
		spin.Stop()
		return err
	}
	s, err := cc.Auth.Login(ctx)
	spin.Stop()
	if err != nil {
		return err
	}

	cc.Log.Info("session %s started on %s", s.ID, n.ID)
	return printSession(cmd, cc.Fmt.Format(), s)
}

func runLogout(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	if err := cc.Auth.Logout(); err != nil {
		return err
	}
	return output.FormatSuccess(cmd.OutOrStdout(), "Logged out", cc.Fmt.Format())
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	s, err := currentSession(cc)
	if err != nil {
		return err
	}
	return printSession(cmd, cc.Fmt.Format(), s)
}

// currentSession returns the session or a not-logged-in error that says
// how to start one.
func currentSession(cc *CommandContext) (state.Session, error) {
	s, err := cc.Auth.Current()
	if err != nil {
		return s, deskerr.WithSuggestion(err, "Run 'swapdesk login' to connect your wallet")
	}
	return s, nil
}

func printSession(cmd *cobra.Command, format output.Format, s state.Session) error {
	if format == output.FormatJSON {
		return writeJSON(cmd.OutOrStdout(), s)
	}
	return output.NewFormatter(format, cmd.OutOrStdout()).KV(
		[2]string{"Account", output.Highlight(auth.TruncatedAddress(s.Address))},
		[2]string{"Address", s.Address},
		[2]string{"Network", s.NetworkID},
		[2]string{"Since", s.CreatedAt.Local().Format(time.DateTime)},
	)
}
