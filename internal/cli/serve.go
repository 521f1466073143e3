package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/mrz1836/swapdesk/internal/config"
	"github.com/mrz1836/swapdesk/internal/proxy"
	deskerr "github.com/mrz1836/swapdesk/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var serveListen string

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat completion proxy",
	Long: `Run an HTTP server that relays chat completions from an OpenAI-compatible
API as a server-sent event stream.

POST /api/chat takes {"messages": [...]} and streams data: {"content": ...}
frames ending with data: [DONE]. GET /healthz reports liveness and
GET /metrics exposes Prometheus metrics. The upstream API key is read from
` + config.EnvLLMAPIKey + ` or ` + config.EnvOpenAIAPIKey + `.`,
	Example: `  OPENAI_API_KEY=sk-... swapdesk serve
  swapdesk serve --listen 127.0.0.1:8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	serveCmd.GroupID = groupConfig
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (default: proxy.listen from config, or :3001)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	pc := cc.Cfg.Proxy

	if pc.APIKey == "" {
		return deskerr.WithSuggestion(
			deskerr.WithDetails(deskerr.ErrConfigInvalid, map[string]string{"field": "proxy.api_key"}),
			"Set "+config.EnvLLMAPIKey+" or "+config.EnvOpenAIAPIKey,
		)
	}

	addr := serveListen
	if addr == "" {
		addr = pc.Listen
	}

	if !cc.Cfg.IsVerbose() {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := proxy.New(&proxy.Config{
		UpstreamURL:    pc.UpstreamURL,
		APIKey:         pc.APIKey,
		Model:          pc.Model,
		Temperature:    pc.Temperature,
		MaxTokens:      pc.MaxTokens,
		AllowedOrigins: pc.AllowedOrigins,
		Metrics:        cc.Metrics,
		Logger:         cc.Log.Zerolog(),
	})

	ctx, stop := signal.NotifyContext(baseContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out(cmd.ErrOrStderr(), "Chat proxy listening on %s (model %s)\n", addr, pc.Model)
	return srv.ListenAndServe(ctx, addr)
}
