// CBBA Guard - Continuous Behavioral Biometric Session Verification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cbbaguard

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/tomtom215/cbbaguard/internal/api"
	"github.com/tomtom215/cbbaguard/internal/audit"
	"github.com/tomtom215/cbbaguard/internal/auth"
	"github.com/tomtom215/cbbaguard/internal/authz"
	"github.com/tomtom215/cbbaguard/internal/config"
	"github.com/tomtom215/cbbaguard/internal/database"
	"github.com/tomtom215/cbbaguard/internal/detection"
	"github.com/tomtom215/cbbaguard/internal/logging"
	"github.com/tomtom215/cbbaguard/internal/scoring"
	"github.com/tomtom215/cbbaguard/internal/session"
	"github.com/tomtom215/cbbaguard/internal/supervisor"
	"github.com/tomtom215/cbbaguard/internal/supervisor/services"
	ws "github.com/tomtom215/cbbaguard/internal/websocket"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("cbbaguard exited with error")
	}
}

//nolint:gocyclo // sequential wiring of every component
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("auth_mode", cfg.Security.AuthMode).
		Str("scorer_url", cfg.Scorer.URL).
		Str("failure_policy", cfg.Scorer.FailurePolicy).
		Str("action_source", cfg.Actions.Source).
		Msg("Starting cbbaguard")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	store := audit.NewDuckDBStore(db.Conn())
	if err := store.CreateTables(ctx); err != nil {
		return fmt.Errorf("create audit tables: %w", err)
	}
	logging.Info().Str("path", cfg.Database.Path).Msg("Audit store ready")

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	sessions := session.NewManager(session.Config{
		IdleTTL:   cfg.Session.IdleTTL,
		MaxEvents: cfg.Session.MaxEvents,
	})
	tree.AddDataService(session.NewSweeper(sessions, cfg.Session.SweepInterval))

	source, err := initActionSource(cfg, tree)
	if err != nil {
		return err
	}

	scorer := scoring.NewClient(scoring.Config{
		BaseURL: cfg.Scorer.URL,
		Timeout: cfg.Scorer.Timeout,
		Breaker: scoring.BreakerSettings{
			MaxRequests:  cfg.Scorer.Breaker.MaxRequests,
			Interval:     cfg.Scorer.Breaker.Interval,
			Timeout:      cfg.Scorer.Breaker.Timeout,
			FailureRatio: cfg.Scorer.Breaker.FailureRatio,
			MinRequests:  cfg.Scorer.Breaker.MinRequests,
		},
	})

	hub := ws.NewHub()
	tree.AddMessagingService(hub)

	var broadcaster detection.AlertBroadcaster
	if cfg.Alerts.WebSocketEnabled {
		broadcaster = hub
	}

	engine := detection.NewEngine(
		sessions,
		source,
		scorer,
		audit.NewEmitter(store),
		broadcaster,
		detection.EngineConfig{FailurePolicy: cfg.Scorer.FailurePolicy},
	)
	if cfg.Alerts.Webhook.Enabled {
		engine.RegisterNotifier(detection.NewWebhookNotifier(cfg.Alerts.Webhook))
		logging.Info().Str("url", cfg.Alerts.Webhook.URL).Msg("Webhook notifier registered")
	}

	var jwtManager *auth.JWTManager
	if cfg.Security.AuthMode == auth.AuthModeJWT {
		jwtManager, err = auth.NewJWTManager(&cfg.Security)
		if err != nil {
			return fmt.Errorf("create JWT manager: %w", err)
		}
	} else {
		logging.Warn().Msg("Authentication disabled (AUTH_MODE=none); every caller gets the default role")
	}

	enforcer, err := authz.NewEnforcer(ctx, cfg.Security.Casbin)
	if err != nil {
		return fmt.Errorf("create authorization enforcer: %w", err)
	}
	defer enforcer.Close()

	handler := api.NewHandler(engine, store, db, hub, cfg)
	router := api.NewRouter(
		handler,
		auth.NewMiddleware(jwtManager, cfg.Security.AuthMode, enforcer.DefaultRole()),
		authz.NewMiddleware(enforcer),
		api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(&cfg.Security)),
	)

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	server := &http.Server{
		Addr:              addr,
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * time.Minute,
	}

	tree.AddAPIService(services.NewHTTPServerService(server, addr, cfg.Server.ShutdownTimeout, engine))

	logging.Info().Msg("Starting supervisor tree")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("cbbaguard stopped")
	return nil
}
