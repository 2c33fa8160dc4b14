// Shiftcast - Roster Shift Prediction and Compliance Service
// Copyright 2026 Rosterops
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rosterops/shiftcast

// Package main is the entry point for the Shiftcast server.
//
// Shiftcast predicts restaurant roster shifts with a hybrid strategy: a
// trained model proposes a schedule, a confidence gate and a business
// rule validator decide whether to accept it, and a deterministic rule
// engine guarantees a 100%-compliant fallback. A feature store caches
// per-(staff, date) feature vectors with fingerprint-based invalidation,
// and a background scheduler precomputes them ahead of demand.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 with defaults, YAML file, and env vars
//  2. Logging: zerolog, JSON or console format
//  3. Feature store: the process-wide cache instance is created here
//  4. Collaborators: feature producer, predictor, rule engine
//  5. Hybrid controller: prediction decision core with circuit breaker
//  6. Precompute scheduler: rate-limited background cache fill
//  7. Supervision tree: suture v4 running the HTTP server and the
//     scheduler lifecycle in isolated layers
//
// # Configuration
//
// Configuration is loaded via Koanf v2 (highest priority wins):
//   - Environment variables (SHIFTCAST_ prefix, e.g. SHIFTCAST_SERVER_PORT)
//   - Config file (config.yaml or CONFIG_PATH)
//   - Built-in defaults
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: the precompute
// run is cancelled, in-flight requests drain (10s timeout), and the
// feature store is disposed.
//
// # Example Usage
//
//	export SHIFTCAST_SERVER_PORT=8472
//	export SHIFTCAST_LOG_LEVEL=debug
//	./shiftcast
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

	"github.com/rosterops/shiftcast/internal/api"
	"github.com/rosterops/shiftcast/internal/config"
	"github.com/rosterops/shiftcast/internal/feature"
	"github.com/rosterops/shiftcast/internal/featuregen"
	"github.com/rosterops/shiftcast/internal/hybrid"
	"github.com/rosterops/shiftcast/internal/logging"
	"github.com/rosterops/shiftcast/internal/precompute"
	"github.com/rosterops/shiftcast/internal/predict"
	"github.com/rosterops/shiftcast/internal/rules"
	"github.com/rosterops/shiftcast/internal/supervisor"
)

func main() {
	// Load configuration first to get logging settings.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Int("port", cfg.Server.Port).
		Int("feature_vector_length", cfg.Cache.FeatureVectorLength).
		Float64("confidence_threshold", cfg.Prediction.ConfidenceThreshold).
		Msg("Starting Shiftcast")

	// The process-wide feature store is created here and only here;
	// everything else receives it as a dependency.
	store := feature.NewStore()
	defer store.Dispose()

	producer := featuregen.New(cfg.Cache.FeatureVectorLength)
	engine := rules.NewEngine(rules.Config{
		MaxConsecutiveDays: cfg.Rules.MaxConsecutiveDays,
		MinRestDays:        cfg.Rules.MinRestDays,
		MinStaffPerDay:     cfg.Rules.MinStaffPerDay,
		MaxWeeklyHours:     cfg.Rules.MaxWeeklyHours,
	})

	controller := hybrid.NewController(hybrid.Config{
		ConfidenceThreshold:     cfg.Prediction.ConfidenceThreshold,
		BreakerFailureThreshold: cfg.Prediction.BreakerFailureThreshold,
		BreakerTimeout:          cfg.Prediction.BreakerTimeout,
	}, store, producer, predict.NewModel(), engine, engine.Validator())

	scheduler := precompute.NewScheduler(precompute.Config{
		RatePerSecond: cfg.Precompute.RatePerSecond,
		Burst:         cfg.Precompute.Burst,
	}, store, producer)

	handlers := api.NewHandlers(controller, store, scheduler)
	middleware := api.NewMiddleware(&api.MiddlewareConfig{
		CORSAllowedOrigins:   cfg.API.CORSOrigins,
		CORSAllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		CORSAllowedHeaders:   []string{"Content-Type", "X-Request-ID"},
		CORSAllowCredentials: false,
		CORSMaxAge:           86400,
		RateLimitRequests:    cfg.API.RateLimitReqs,
		RateLimitWindow:      cfg.API.RateLimitWindow,
		RateLimitDisabled:    cfg.API.RateLimitDisabled,
	})
	router := api.NewRouter(handlers, middleware)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       120 * time.Second,
	}

	// The supervisor tree isolates the background layer from the API
	// layer; sutureslog bridges suture events into zerolog via slog.
	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	tree.AddBackgroundService(supervisor.NewPrecomputeService(scheduler))
	tree.AddAPIService(supervisor.NewHTTPService(server, 10*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := tree.ServeBackground(ctx)
	logging.Info().Str("addr", server.Addr).Msg("Shiftcast is serving")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		cancel()
		select {
		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				logging.Error().Err(err).Msg("Supervisor tree exited with error")
			}
		case <-time.After(15 * time.Second):
			if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
				for _, svc := range report {
					logging.Warn().Str("service", svc.Name).Msg("Service did not stop in time")
				}
			}
		}
	case err := <-done:
		if err != nil {
			logging.Fatal().Err(err).Msg("Supervisor tree failed")
		}
	}

	logging.Info().Msg("Shiftcast stopped")
}
