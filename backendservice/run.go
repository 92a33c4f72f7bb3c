// Package backendservice boots the BrainPal HTTP service: configuration,
// store, completion gateway, health monitoring, router, and graceful
// shutdown.
package backendservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/brainpal/brainpal-backend/internal/api"
	"github.com/brainpal/brainpal-backend/internal/auth"
	"github.com/brainpal/brainpal-backend/internal/completion"
	"github.com/brainpal/brainpal-backend/internal/config"
	"github.com/brainpal/brainpal-backend/internal/health"
	"github.com/brainpal/brainpal-backend/internal/logger"
	"github.com/brainpal/brainpal-backend/internal/services"
	"github.com/brainpal/brainpal-backend/internal/store"
	"github.com/brainpal/brainpal-backend/internal/store/postgres"
	"github.com/brainpal/brainpal-backend/internal/store/sqlite"
	"github.com/brainpal/brainpal-backend/internal/transcribe"
)

// Run starts the backend HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("brainpal-backend")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Msg("BrainPal backend starting")

	ctx, stop := newServerContext()
	defer stop()

	st, err := newStore(ctx, cfg)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store unavailable")
		return err
	}
	defer func() { _ = st.Close() }()

	svcHealth := startHealthCheckers(ctx, cfg, log, st)

	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	router := buildRouter(cfg, st, svcHealth, log)
	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

func newStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		return postgres.Open(ctx, cfg.PostgresDSN)
	case "sqlite":
		return sqlite.Open(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER: %s", cfg.DBDriver)
	}
}

func buildRouter(cfg *config.Config, st store.Store, svcHealth *health.ServiceHealthChecker, log zerolog.Logger) http.Handler {
	gateway := completion.NewOpenRouter(
		cfg.OpenRouterBaseURL,
		cfg.OpenRouterAPIKey,
		time.Duration(cfg.CompletionTimeoutSec)*time.Second,
	)

	var transcriber services.Transcriber
	if cfg.WhisperAPIKey != "" {
		transcriber = transcribe.NewWhisperClient(cfg.WhisperBaseURL, cfg.WhisperAPIKey,
			time.Duration(cfg.CompletionTimeoutSec)*time.Second)
	} else {
		log.Warn().Msg("no whisper key configured; voice transcription disabled")
	}

	if cfg.PaymentWebhookSecret == "" {
		log.Warn().Msg("payment webhook secret not configured; signature verification DISABLED")
	}

	authorizer := auth.NewStaticAuthorizer(cfg.DevTokenMap(), cfg.AdminEmailSet())

	return api.NewRouter(api.RouterDeps{
		Store:         st,
		Authorizer:    authorizer,
		Gateway:       gateway,
		Transcriber:   transcriber,
		WebhookSecret: cfg.PaymentWebhookSecret,
		IsHealthy:     svcHealth.IsHealthy,
		Log:           log,
	})
}

func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, st store.Store) *health.ServiceHealthChecker {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSec) * time.Second
	interval := time.Duration(cfg.HealthIntervalSec) * time.Second

	var checkers []health.HealthChecker
	if pinger, ok := st.(health.HealthPinger); ok {
		storeChecker := health.NewPingChecker("store", pinger, probeTimeout, log)
		go storeChecker.Start(ctx, interval)
		checkers = append(checkers, storeChecker)
	}

	svcHealth := health.NewServiceHealthChecker(log, checkers...)
	go svcHealth.Start(ctx, interval)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      90 * time.Second, // completion calls can run long
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// waitUntilHealthy blocks until the aggregated health flag goes up or the
// startup window expires. Checkers start unhealthy and need one probe cycle.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	timeoutSeconds := cfg.HealthIntervalSec * 2
	if timeoutSeconds < 60 {
		timeoutSeconds = 60
	}
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %d seconds", timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a context cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
