package config

import (
	"os"
	"strconv"
	"strings"
	"unicode"
)

// Environment variable names.
const (
	EnvHome            = "SWAPDESK_HOME"
	EnvWalletRPC       = "SWAPDESK_WALLET_RPC"
	EnvBackendURL      = "SWAPDESK_BACKEND_URL"
	EnvPortfolioAPIKey = "SWAPDESK_PORTFOLIO_API_KEY" // #nosec G101 -- false positive, this is a const name not a credential
	EnvLLMAPIKey       = "SWAPDESK_LLM_API_KEY"       // #nosec G101 -- false positive
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"             // #nosec G101 -- false positive
	EnvOutputFormat    = "SWAPDESK_OUTPUT_FORMAT"
	EnvVerbose         = "SWAPDESK_VERBOSE"
	EnvLogLevel        = "SWAPDESK_LOG_LEVEL"
	EnvNoColor         = "NO_COLOR"
	EnvPort            = "PORT"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
//
//nolint:gocognit,gocyclo // Environment variable overrides require sequential checks
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := os.Getenv(EnvWalletRPC); v != "" {
		cfg.Wallet.RPC = SanitizeURL(v)
	}

	if v := os.Getenv(EnvBackendURL); v != "" {
		cfg.Backend.URL = SanitizeURL(v)
		cfg.Backend.QuoteURL = cfg.Backend.URL
	}

	if v := os.Getenv(EnvPortfolioAPIKey); v != "" {
		cfg.Backend.PortfolioAPIKey = v
	}

	// The dedicated key wins over the generic OpenAI one
	if v := os.Getenv(EnvOpenAIAPIKey); v != "" {
		cfg.Proxy.APIKey = v
	}
	if v := os.Getenv(EnvLLMAPIKey); v != "" {
		cfg.Proxy.APIKey = v
	}

	if v := os.Getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && port > 0 {
			cfg.Proxy.Listen = ":" + strconv.Itoa(port)
		}
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	// NO_COLOR disables colored output
	if _, ok := os.LookupEnv(EnvNoColor); ok {
		cfg.Output.Color = "never"
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

// SanitizeURL trims whitespace and strips control characters and wrapping
// quotes left over from copy-paste.
func SanitizeURL(url string) string {
	url = strings.Trim(strings.TrimSpace(url), `"'`)
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, url)
}
