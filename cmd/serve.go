package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/dayglance/internal/annotate"
	"github.com/teemow/dayglance/internal/config"
	"github.com/teemow/dayglance/internal/google"
	"github.com/teemow/dayglance/internal/instrumentation"
	"github.com/teemow/dayglance/internal/server"
	"github.com/teemow/dayglance/internal/session"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

func newServeCmd() *cobra.Command {
	var (
		debugMode      bool
		httpAddr       string
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Long: `Start the dayglance web server.

The server signs users in with Google OAuth, serves their calendar as
day-bucketed views and annotates events via the Gemini API, caching
each annotation on disk.

Configuration:
  Google OAuth (required for sign-in):
    GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars
    GOOGLE_REDIRECT_URL (defaults to http://localhost:8080/auth/google/callback)

  Annotations (required for /ai):
    GEMINI_API_KEY env var, GEMINI_MODEL to override the model
    ANNOTATION_CACHE_DIR for the on-disk cache (default: data/annotations)

  Sessions:
    SESSION_SECRET signs the session cookie, SESSION_TTL bounds idle sessions

Missing credentials are not fatal at startup; the affected endpoints
fail when called.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			metricsConfig := MetricsConfig{
				Enabled: metricsEnabled,
				Addr:    metricsAddr,
			}
			return runServe(httpAddr, debugMode, metricsConfig)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&httpAddr, "http-addr", "", "HTTP server address. Defaults to :$PORT (PORT env var, 8080 if unset).")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(httpAddr string, debugMode bool, metricsConfig MetricsConfig) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logLevel := slog.LevelInfo
	if debugMode {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if httpAddr == "" {
		httpAddr = cfg.Addr()
	}

	// Load metrics config from environment if not set via flags
	if metricsConfig.Addr == "" || metricsConfig.Addr == server.DefaultMetricsAddr {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			metricsConfig.Addr = addr
		}
	}
	if os.Getenv("METRICS_ENABLED") == "false" {
		metricsConfig.Enabled = false
	}

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Error("error during instrumentation shutdown", "error", err)
		}
	}()

	// Start metrics server if enabled
	var metricsServer *server.MetricsServer
	if metricsConfig.Enabled && provider.Enabled() {
		metricsServer = server.NewMetricsServer(metricsConfig.Addr)
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}
	defer func() {
		if metricsServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Error("error during metrics server shutdown", "error", err)
			}
		}
	}()

	cache, err := annotate.NewCache(cfg.CacheDir)
	if err != nil {
		return fmt.Errorf("failed to initialize annotation cache: %w", err)
	}
	annotator := annotate.NewService(cache,
		annotate.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel), logger)

	sessions := session.NewStore(cfg.SessionSecret, cfg.SessionTTL, logger)
	defer sessions.Stop()

	srv := server.New(server.Config{
		Addr:      httpAddr,
		OAuth:     google.NewOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.RedirectURL),
		Sessions:  sessions,
		Annotator: annotator,
		Logger:    logger,
		Metrics:   provider.Metrics(),
		Tracer:    provider.Tracer("dayglance"),
	})

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-shutdownCtx.Done():
		logger.Info("shutdown signal received")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	case err := <-serverDone:
		return err
	}
}
