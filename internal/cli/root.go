// Package cli implements the swapdesk command-line interface.
//
// This package uses global variables to manage CLI state, which is the standard
// pattern for Cobra-based CLI applications. The globals are initialized in
// PersistentPreRunE and cleaned up in PersistentPostRun.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mrz1836/swapdesk/internal/config"
	"github.com/mrz1836/swapdesk/internal/output"
	"github.com/mrz1836/swapdesk/internal/provider"
	"github.com/mrz1836/swapdesk/internal/provider/rpc"
	deskerr "github.com/mrz1836/swapdesk/pkg/errors"
)

// Command groups shown in root help.
const (
	groupWallet    = "wallet"
	groupTrading   = "trading"
	groupPortfolio = "portfolio"
	groupConfig    = "config"
)

var (
	// Global flags
	homeDir      string
	outputFormat string
	walletRPC    string
	verbose      bool

	// Global state initialized in PersistentPreRunE
	cfg       *config.Config
	logger    *config.Logger
	formatter *output.Formatter
	cmdCtx    *CommandContext
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "swapdesk",
	Short: "Chat-driven token swaps from the terminal",
	Long: `swapdesk connects to a local wallet endpoint, chats with a swap assistant,
and signs and submits the transactions it proposes on an EVM chain.

Keys never leave the wallet. swapdesk builds transaction requests and asks
the wallet to sign or send them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initGlobals(cmd)
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup()
	},
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		if formatter != nil {
			_ = output.FormatError(os.Stderr, err, formatter.Format())
		} else {
			_ = output.FormatError(os.Stderr, err, output.FormatText)
		}
		return err
	}
	return nil
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	return deskerr.ExitCode(err)
}

// initGlobals initializes global configuration, logger, formatter, and the
// command context. A command whose context already carries a CommandContext
// keeps it.
func initGlobals(cmd *cobra.Command) error {
	// Determine home directory
	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}

	// Load or create config
	var err error
	cfg, err = config.Load(config.Path(home))
	if err != nil {
		cfg = config.Defaults()
		cfg.Home = home
	}

	config.ApplyEnvironment(cfg)

	// Command-line flags win
	if homeDir != "" {
		cfg.Home = homeDir
	}
	if walletRPC != "" {
		cfg.Wallet.RPC = config.SanitizeURL(walletRPC)
	}
	if verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}
	if outputFormat != "" && outputFormat != "auto" {
		cfg.Output.DefaultFormat = outputFormat
	}

	switch cfg.Output.Color {
	case "never":
		color.NoColor = true
	case "always":
		color.NoColor = false
	}

	logger, err = config.NewLogger(config.ParseLogLevel(cfg.Logging.Level), cfg.Logging.File)
	if err != nil {
		logger = config.NullLogger()
	}

	explicitFormat := output.ParseFormat(cfg.Output.DefaultFormat)
	formatter = output.NewFormatter(output.DetectFormat(os.Stdout, explicitFormat), os.Stdout)

	if existing := fromContext(cmd); existing != nil {
		cmdCtx = existing
		return nil
	}

	cmdCtx = NewCommandContext(cfg, logger, formatter, newWalletProvider(cfg, logger))
	cmdCtx.restore()
	return nil
}

// newWalletProvider connects to the configured wallet endpoint. It returns
// nil when none is configured.
func newWalletProvider(c *config.Config, log *config.Logger) provider.WalletProvider {
	url := c.GetWalletRPC()
	if url == "" {
		return nil
	}
	return rpc.New(url, &rpc.Options{
		Timeout:           c.WalletTimeout(),
		RequestsPerSecond: c.Wallet.RequestsPerSecond,
		PollInterval:      c.PollInterval(),
		Logger:            log,
	})
}

// cleanup releases resources.
func cleanup() {
	if cmdCtx != nil {
		if p, err := cmdCtx.Wallet.Get(); err == nil {
			if closer, ok := p.(io.Closer); ok {
				_ = closer.Close()
			}
		}
	}
	if logger != nil {
		_ = logger.Close()
	}
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "swapdesk data directory (default: ~/.swapdesk)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&walletRPC, "rpc", "", "wallet JSON-RPC endpoint (default: http://127.0.0.1:1248)")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupWallet, Title: "Wallet & Network:"},
		&cobra.Group{ID: groupTrading, Title: "Trading:"},
		&cobra.Group{ID: groupPortfolio, Title: "Portfolio:"},
		&cobra.Group{ID: groupConfig, Title: "Configuration:"},
	)
	rootCmd.SetHelpCommandGroupID(groupConfig)
}
