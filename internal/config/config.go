// Package config provides configuration management for swapdesk.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Version      int                `yaml:"version"`
	Home         string             `yaml:"home"`
	Wallet       WalletConfig       `yaml:"wallet"`
	Backend      BackendConfig      `yaml:"backend"`
	Fees         FeesConfig         `yaml:"fees"`
	Transactions TransactionsConfig `yaml:"transactions"`
	Proxy        ProxyConfig        `yaml:"proxy"`
	Output       OutputConfig       `yaml:"output"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// WalletConfig defines how the wallet endpoint is reached.
type WalletConfig struct {
	RPC                 string  `yaml:"rpc"`
	TimeoutSeconds      int     `yaml:"timeout_seconds"`
	PollIntervalSeconds int     `yaml:"poll_interval_seconds"`
	RequestsPerSecond   float64 `yaml:"requests_per_second"`
}

// BackendConfig defines the chat, quote, and portfolio services.
type BackendConfig struct {
	URL               string  `yaml:"url"`
	QuoteURL          string  `yaml:"quote_url"`
	PortfolioURL      string  `yaml:"portfolio_url"`
	PortfolioAPIKey   string  `yaml:"portfolio_api_key"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	MaxRetries        int     `yaml:"max_retries"`
}

// FeesConfig defines gas price settings.
type FeesConfig struct {
	GasSpeed string `yaml:"gas_speed"`
}

// TransactionsConfig defines submission behavior.
type TransactionsConfig struct {
	ApprovalTimeoutSeconds int `yaml:"approval_timeout_seconds"`
	ReceiptPollSeconds     int `yaml:"receipt_poll_seconds"`
}

// ProxyConfig defines the chat proxy server.
type ProxyConfig struct {
	Listen         string   `yaml:"listen"`
	UpstreamURL    string   `yaml:"upstream_url"`
	APIKey         string   `yaml:"api_key"`
	Model          string   `yaml:"model"`
	Temperature    float64  `yaml:"temperature"`
	MaxTokens      int      `yaml:"max_tokens"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Color         string `yaml:"color"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads configuration from the specified file.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// StatePath returns the path of the persisted client state.
func StatePath(home string) string {
	return filepath.Join(home, "state.json")
}

// GetHome returns the swapdesk home directory with a leading ~ expanded.
func (c *Config) GetHome() string {
	return ExpandHome(c.Home)
}

// GetWalletRPC returns the wallet endpoint URL.
func (c *Config) GetWalletRPC() string {
	return c.Wallet.RPC
}

// WalletTimeout returns the per-call wallet timeout.
func (c *Config) WalletTimeout() time.Duration {
	return seconds(c.Wallet.TimeoutSeconds, 120)
}

// PollInterval returns how often wallet events are polled.
func (c *Config) PollInterval() time.Duration {
	return seconds(c.Wallet.PollIntervalSeconds, 4)
}

// BackendTimeout returns the HTTP timeout for backend requests.
func (c *Config) BackendTimeout() time.Duration {
	return seconds(c.Backend.TimeoutSeconds, 30)
}

// ApprovalTimeout bounds how long the pipeline waits for an approval receipt.
func (c *Config) ApprovalTimeout() time.Duration {
	return seconds(c.Transactions.ApprovalTimeoutSeconds, 300)
}

// ReceiptPollInterval returns the initial receipt polling delay.
func (c *Config) ReceiptPollInterval() time.Duration {
	return seconds(c.Transactions.ReceiptPollSeconds, 2)
}

// GetGasSpeed returns the configured gas speed.
func (c *Config) GetGasSpeed() string {
	return c.Fees.GasSpeed
}

// GetLoggingLevel returns the configured logging level.
func (c *Config) GetLoggingLevel() string {
	return c.Logging.Level
}

// GetLoggingFile returns the configured log file path.
func (c *Config) GetLoggingFile() string {
	return c.Logging.File
}

// GetOutputFormat returns the default output format.
func (c *Config) GetOutputFormat() string {
	return c.Output.DefaultFormat
}

// IsVerbose returns true if verbose output is enabled.
func (c *Config) IsVerbose() bool {
	return c.Output.Verbose
}

// DefaultHome returns the default swapdesk home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".swapdesk"
	}
	return filepath.Join(home, ".swapdesk")
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

func seconds(v, fallback int) time.Duration {
	if v <= 0 {
		v = fallback
	}
	return time.Duration(v) * time.Second
}
