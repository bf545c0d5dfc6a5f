// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SocialPlatform Contributors

// Package httpapi exposes the credential core over an HTTP JSON API
// and serves the embedded web form.
package httpapi

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/samber/oops"

	"github.com/socialplatform/socialplatform/internal/account"
	"github.com/socialplatform/socialplatform/internal/observability"
	"github.com/socialplatform/socialplatform/internal/session"
	"github.com/socialplatform/socialplatform/internal/web"
)

// DefaultCookieName matches the session cookie of the original web
// client, so existing front-ends keep working unchanged.
const DefaultCookieName = "qid"

// Config holds the HTTP server configuration.
type Config struct {
	// Addr is the listen address in "host:port" format.
	Addr string

	// CookieName names the session cookie. Empty means DefaultCookieName.
	CookieName string

	// CookieSecure marks the session cookie Secure; leave false only
	// for plain-HTTP development setups.
	CookieSecure bool

	// AllowedOrigins configures CORS for browser clients that are not
	// served from this process. Empty disables cross-origin access.
	AllowedOrigins []string
}

// Server serves the account API and web form.
type Server struct {
	cfg        Config
	svc        *account.Service
	sessions   *session.Manager
	metrics    *observability.Metrics
	logger     *slog.Logger
	listener   net.Listener
	httpServer *http.Server
}

// NewServer creates a Server. metrics may be nil, in which case no
// request metrics are recorded.
func NewServer(cfg Config, svc *account.Service, sessions *session.Manager, metrics *observability.Metrics, logger *slog.Logger) (*Server, error) {
	if svc == nil {
		return nil, oops.Code("HTTP_INVALID_DEPS").Errorf("account service is required")
	}
	if sessions == nil {
		return nil, oops.Code("HTTP_INVALID_DEPS").Errorf("session manager is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}

	return &Server{
		cfg:      cfg,
		svc:      svc,
		sessions: sessions,
		metrics:  metrics,
		logger:   logger,
	}, nil
}

// Router builds the chi router with the full middleware stack.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	if len(s.cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(s.withSession)

		r.Post("/register", s.instrument("register", s.handleRegister))
		r.Post("/login", s.instrument("login", s.handleLogin))
		r.Post("/logout", s.instrument("logout", s.handleLogout))
		r.Get("/me", s.instrument("me", s.handleMe))

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", s.instrument("accounts", s.handleAccounts))
			r.Get("/{id}", s.instrument("account", s.handleAccount))
			r.Delete("/{id}", s.instrument("deleteUser", s.handleDeleteAccount))
		})
	})

	web.Register(r)

	return r
}

// Start begins serving on the configured address. It returns an error
// channel that receives any errors from the HTTP server after it
// starts; the channel is closed when the server stops gracefully.
func (s *Server) Start() (<-chan error, error) {
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return nil, oops.With("addr", s.cfg.Addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("http server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("http server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return oops.With("operation", "shutdown_http_server").Wrap(err)
	}
	s.logger.Info("http server stopped")
	return nil
}

// Addr returns the address the server is listening on.
// Returns empty string if not running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
