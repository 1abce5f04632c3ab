// Package main provides the entrypoint for the NutriLog API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/nutrilog/nutrilog/internal/api"
	"github.com/nutrilog/nutrilog/internal/api/handler"
	"github.com/nutrilog/nutrilog/internal/api/middleware"
	"github.com/nutrilog/nutrilog/internal/app"
	"github.com/nutrilog/nutrilog/internal/auth"
	"github.com/nutrilog/nutrilog/internal/config"
	"github.com/nutrilog/nutrilog/internal/telemetry"
	"github.com/nutrilog/nutrilog/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const (
	serviceName = "nutrilog-api"

	// devSigningKey is only accepted outside production.
	devSigningKey = "local-dev-signing-key-change-in-production"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stderrLog := zerolog.New(os.Stderr)
		stderrLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := cfg.NewLogger(os.Stdout, serviceName, Version)
	log.Info().
		Str("build_time", BuildTime).
		Str("environment", cfg.Environment).
		Str("storage", cfg.StorageBackend).
		Msg("starting NutriLog API")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("api exited")
		stop()
		os.Exit(1) //nolint:gocritic // deferred stop already ran
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
		SampleRatio:    cfg.OTelSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(flushCtx); err != nil {
			log.Error().Err(err).Msg("telemetry flush failed")
		}
	}()
	if cfg.OTelEnabled {
		log.Info().Str("otlp_endpoint", cfg.OTLPEndpoint).Msg("exporting traces and metrics")
	}

	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		return fmt.Errorf("http metrics: %w", err)
	}
	providerMetrics, err := telemetry.NewProviderMetrics(tp.Meter)
	if err != nil {
		return fmt.Errorf("provider metrics: %w", err)
	}

	services, err := app.Build(ctx, cfg, log, app.Options{Recorder: providerMetrics, Migrate: true})
	if err != nil {
		return err
	}
	defer services.Close()

	signingKey := cfg.JWTSigningKey
	if signingKey == "" {
		if cfg.IsProduction() {
			return errors.New("JWT_SIGNING_KEY is required in production")
		}
		log.Warn().Msg("JWT_SIGNING_KEY not set, using the development key")
		signingKey = devSigningKey
	}

	readiness := make([]handler.DependencyCheck, len(services.Checks))
	for i, c := range services.Checks {
		readiness[i] = handler.DependencyCheck{Name: c.Name, Check: c.Check}
	}

	routes := api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     httpMetrics,
		RequireTLS:  cfg.RequireTLS,
		TokenValidator: auth.NewJWTService(auth.JWTConfig{
			SigningKey: signingKey,
			Issuer:     cfg.JWTIssuer,
			Audience:   cfg.JWTAudience,
		}),
		UserService:        services.Users,
		FoodService:        services.Foods,
		LogService:         services.Logs,
		FeatureFlagService: services.Flags,
		Providers:          services.Providers,
		ReadinessChecks:    readiness,
	}

	if cfg.PubSubProjectID == "" {
		log.Warn().Msg("PUBSUB_PROJECT_ID not set, job endpoints answer 503")
	} else {
		publisher, err := worker.NewPublisher(ctx, cfg.PubSubProjectID, cfg.PubSubTopic)
		if err != nil {
			return fmt.Errorf("job publisher: %w", err)
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Error().Err(err).Msg("closing job publisher")
			}
		}()
		routes.JobPublisher = publisher
		log.Info().Str("topic", cfg.PubSubTopic).Msg("publishing jobs")
	}

	return serve(ctx, &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(routes),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}, log)
}

// serve runs srv until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server, log zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
