// Package proxy serves the chat completion endpoint used by the assistant,
// relaying an OpenAI-compatible upstream as a server-sent event stream.
package proxy

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mrz1836/swapdesk/internal/metrics"
)

// RequestIDHeader carries the per-request id.
const RequestIDHeader = "X-Request-ID"

const (
	requestIDKey    = "requestID"
	shutdownTimeout = 10 * time.Second
)

// Config configures the proxy.
type Config struct {
	UpstreamURL    string
	APIKey         string
	Model          string
	Temperature    float64
	MaxTokens      int
	AllowedOrigins []string

	// HTTPClient calls the upstream. Defaults to a client without a timeout;
	// requests are bounded by the incoming request context.
	HTTPClient *http.Client
	Metrics    *metrics.Metrics
	Logger     *zerolog.Logger
}

// Server is the chat proxy.
type Server struct {
	cfg     Config
	engine  *gin.Engine
	client  *http.Client
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// New builds the proxy and its routes.
func New(cfg *Config) *Server {
	s := &Server{
		cfg:     *cfg,
		client:  cfg.HTTPClient,
		metrics: cfg.Metrics,
		log:     zerolog.Nop(),
	}
	s.cfg.UpstreamURL = strings.TrimRight(s.cfg.UpstreamURL, "/")
	if s.client == nil {
		s.client = &http.Client{}
	}
	if s.metrics == nil {
		s.metrics = metrics.Global
	}
	if cfg.Logger != nil {
		s.log = *cfg.Logger
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(configureCORS(s.cfg.AllowedOrigins))
	engine.Use(s.requestID())
	engine.Use(s.observe())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	engine.POST("/api/chat", s.handleChat)

	s.engine = engine
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info().Str("addr", addr).Msg("chat proxy listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil { //nolint:contextcheck // parent is already canceled
		return err
	}
	return nil
}

func configureCORS(origins []string) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "Cache-Control", RequestIDHeader}
	corsConfig.ExposeHeaders = []string{RequestIDHeader}

	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		trimmed := make([]string, 0, len(origins))
		for _, o := range origins {
			if o = strings.TrimSpace(o); o != "" {
				trimmed = append(trimmed, o)
			}
		}
		corsConfig.AllowOrigins = trimmed
	}
	return cors.New(corsConfig)
}

// requestID ensures every request carries an id in its response headers.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// observe logs and counts every request once it completes.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		s.metrics.RecordProxyRequest(route, status)

		s.log.Debug().
			Str("request_id", c.GetString(requestIDKey)).
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}
