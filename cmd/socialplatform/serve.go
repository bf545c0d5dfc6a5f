// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SocialPlatform Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/socialplatform/socialplatform/internal/account"
	accountmem "github.com/socialplatform/socialplatform/internal/account/memory"
	accountpg "github.com/socialplatform/socialplatform/internal/account/postgres"
	"github.com/socialplatform/socialplatform/internal/httpapi"
	"github.com/socialplatform/socialplatform/internal/logging"
	"github.com/socialplatform/socialplatform/internal/observability"
	"github.com/socialplatform/socialplatform/internal/session"
	sessionmem "github.com/socialplatform/socialplatform/internal/session/memory"
	sessionpg "github.com/socialplatform/socialplatform/internal/session/postgres"
	"github.com/socialplatform/socialplatform/internal/store"
)

// sessionPurgeInterval is how often expired sessions are removed.
const sessionPurgeInterval = time.Hour

// shutdownTimeout bounds graceful shutdown of the HTTP servers.
const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the account server",
		Long: `Start the HTTP server exposing the account API and web form,
plus a separate metrics/health listener.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadServeConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	registerServeFlags(cmd.Flags())

	return cmd
}

func runServe(ctx context.Context, cfg *serveConfig) error {
	logging.SetDefault("socialplatform", version, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("starting account server",
		"addr", cfg.Addr,
		"dev", cfg.Dev,
		"log_format", cfg.LogFormat,
	)

	var (
		accountRepo account.Repository
		sessionRepo session.Repository
	)

	if cfg.Dev {
		accountRepo = accountmem.NewAccountRepository()
		sessionRepo = sessionmem.NewSessionRepository()
		slog.Info("using in-memory storage, data is lost on exit")
	} else {
		pool, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		slog.Info("connected to database")

		accountRepo = accountpg.NewAccountRepository(pool)
		sessionRepo = sessionpg.NewSessionRepository(pool)
	}

	svc, err := account.NewService(accountRepo, account.NewArgon2idHasher())
	if err != nil {
		return err
	}

	sessions, err := session.NewManager(sessionRepo, cfg.SessionTTL, slog.Default())
	if err != nil {
		return err
	}

	var metrics *observability.Metrics
	var obsServer *observability.Server
	var obsErrCh <-chan error

	if cfg.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.MetricsAddr, func() bool { return true })
		obsErrCh, err = obsServer.Start()
		if err != nil {
			return err
		}
		metrics = obsServer.Metrics()
	}

	httpServer, err := httpapi.NewServer(httpapi.Config{
		Addr:           cfg.Addr,
		CookieName:     cfg.CookieName,
		CookieSecure:   cfg.CookieSecure,
		AllowedOrigins: cfg.AllowedOrigins,
	}, svc, sessions, metrics, slog.Default())
	if err != nil {
		return err
	}

	httpErrCh, err := httpServer.Start()
	if err != nil {
		return err
	}

	go sessions.RunPurgeLoop(ctx, sessionPurgeInterval)

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-httpErrCh:
		if err != nil {
			slog.Error("http server failed", "error", err)
		}
	case err := <-obsErrCh:
		if err != nil {
			slog.Error("observability server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if stopErr := httpServer.Stop(shutdownCtx); stopErr != nil {
		slog.Error("http server shutdown failed", "error", stopErr)
	}
	if obsServer != nil {
		if stopErr := obsServer.Stop(shutdownCtx); stopErr != nil {
			slog.Error("observability server shutdown failed", "error", stopErr)
		}
	}

	slog.Info("server stopped")
	return nil
}
