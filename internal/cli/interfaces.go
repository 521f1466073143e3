package cli

import (
	"github.com/mrz1836/swapdesk/internal/auth"
	"github.com/mrz1836/swapdesk/internal/config"
	"github.com/mrz1836/swapdesk/internal/gas"
	"github.com/mrz1836/swapdesk/internal/network"
	"github.com/mrz1836/swapdesk/internal/output"
	"github.com/mrz1836/swapdesk/internal/pipeline"
	"github.com/mrz1836/swapdesk/internal/provider"
	"github.com/mrz1836/swapdesk/internal/provider/rpc"
)

// Compile-time checks that the concrete types wired by NewCommandContext
// satisfy the interfaces their consumers declare.
var (
	_ ConfigProvider = (*config.Config)(nil)
	_ LogWriter      = (*config.Logger)(nil)
	_ FormatProvider = (*output.Formatter)(nil)

	_ provider.WalletProvider  = (*rpc.Provider)(nil)
	_ pipeline.WalletSource    = (*provider.Accessor)(nil)
	_ pipeline.NetworkSwitcher = (*network.Switcher)(nil)
	_ pipeline.GasPricer       = (*gas.Oracle)(nil)
	_ auth.NetworkSelector     = (*network.Switcher)(nil)
	_ auth.SessionStore        = (*auth.FileStore)(nil)
	_ network.Selection        = (*network.Store)(nil)
)

// ConfigProvider provides read access to configuration values.
type ConfigProvider interface {
	// GetHome returns the swapdesk home directory path.
	GetHome() string

	// GetWalletRPC returns the wallet endpoint URL.
	GetWalletRPC() string

	// GetGasSpeed returns the configured gas speed.
	GetGasSpeed() string

	// GetLoggingLevel returns the configured logging level.
	GetLoggingLevel() string

	// GetLoggingFile returns the configured log file path.
	GetLoggingFile() string

	// GetOutputFormat returns the default output format.
	GetOutputFormat() string

	// IsVerbose returns true if verbose output is enabled.
	IsVerbose() bool
}

// LogWriter provides logging capabilities.
type LogWriter interface {
	// Debug logs a debug-level message.
	Debug(format string, args ...any)

	// Error logs an error-level message.
	Error(format string, args ...any)

	// Info logs an info-level message.
	Info(format string, args ...any)

	// Warn logs a warn-level message.
	Warn(format string, args ...any)

	// Close closes the logger and releases resources.
	Close() error
}

// FormatProvider provides output format information.
type FormatProvider interface {
	// Format returns the current output format.
	Format() output.Format
}
