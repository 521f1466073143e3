package config

// DefaultWalletRPC is the local wallet endpoint (Frame and most dev nodes).
const DefaultWalletRPC = "http://127.0.0.1:1248"

// DefaultBackendURL is the chat backend.
const DefaultBackendURL = "http://localhost:8000"

// DefaultProxyUpstream is the OpenAI-compatible completions API.
const DefaultProxyUpstream = "https://api.openai.com/v1"

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.swapdesk",
		Wallet: WalletConfig{
			RPC:                 DefaultWalletRPC,
			TimeoutSeconds:      120,
			PollIntervalSeconds: 4,
			RequestsPerSecond:   10,
		},
		Backend: BackendConfig{
			URL:               DefaultBackendURL,
			QuoteURL:          DefaultBackendURL,
			PortfolioURL:      "https://api.portfolio.example",
			TimeoutSeconds:    30,
			RequestsPerSecond: 5,
			MaxRetries:        3,
		},
		Fees: FeesConfig{
			GasSpeed: "medium",
		},
		Transactions: TransactionsConfig{
			ApprovalTimeoutSeconds: 300,
			ReceiptPollSeconds:     2,
		},
		Proxy: ProxyConfig{
			Listen:         ":3001",
			UpstreamURL:    DefaultProxyUpstream,
			Model:          "gpt-4o-mini",
			Temperature:    0.7,
			MaxTokens:      1000,
			AllowedOrigins: []string{"*"},
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level: "error",
			File:  "~/.swapdesk/swapdesk.log",
		},
	}
}
