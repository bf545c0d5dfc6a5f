// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SocialPlatform Contributors

package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/socialplatform/socialplatform/internal/session"
	"github.com/socialplatform/socialplatform/pkg/errutil"
)

type contextKey struct{ name string }

var sessionKey = contextKey{"session"}

// withSession resolves the session cookie into a session.Handle and
// stores it in the request context. A missing or stale cookie yields
// an anonymous handle; only repository failures abort the request.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var token string
		if cookie, err := r.Cookie(s.cfg.CookieName); err == nil {
			token = cookie.Value
		}

		h, err := s.sessions.Resolve(r.Context(), token)
		if err != nil {
			errutil.LogError(s.logger, "session resolve failed", err)
			s.writeInternalError(w)
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, h)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionFromContext returns the Handle stored by withSession.
func sessionFromContext(ctx context.Context) *session.Handle {
	h, _ := ctx.Value(sessionKey).(*session.Handle)
	return h
}

// logRequests logs one line per request with method, path, status,
// duration, and the chi request ID.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.InfoContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// instrument wraps a handler with a per-operation request counter.
func (s *Server) instrument(op string, next http.HandlerFunc) http.HandlerFunc {
	if s.metrics == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.metrics.RequestsTotal.WithLabelValues(op, strconv.Itoa(ww.Status())).Inc()
	}
}
