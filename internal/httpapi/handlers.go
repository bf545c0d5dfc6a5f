// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SocialPlatform Contributors

package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/socialplatform/socialplatform/internal/account"
	"github.com/socialplatform/socialplatform/pkg/errutil"
)

// credentialsRequest is the input for register and login.
type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// commitSession flushes session mutations and translates them into
// cookie headers. Must run before the response body is written.
// Returns false after writing a 500 response on failure.
func (s *Server) commitSession(w http.ResponseWriter, r *http.Request) bool {
	h := sessionFromContext(r.Context())
	if h == nil {
		return true
	}

	token, issued, revoked, err := s.sessions.Commit(r.Context(), h)
	if err != nil {
		errutil.LogError(s.logger, "session commit failed", err)
		s.writeInternalError(w)
		return false
	}

	switch {
	case issued:
		http.SetCookie(w, &http.Cookie{
			Name:     s.cfg.CookieName,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			Secure:   s.cfg.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	case revoked:
		http.SetCookie(w, &http.Cookie{
			Name:     s.cfg.CookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   s.cfg.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return true
}

// handleRegister creates an account and binds it to the session.
// Validation failures and username conflicts come back as field
// errors with status 200; the response body shape is the contract.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	resp, err := s.svc.Register(r.Context(), sessionFromContext(r.Context()), req.Username, req.Password)
	if err != nil {
		errutil.LogError(s.logger, "register failed", err)
		s.recordRegistration("error")
		s.writeInternalError(w)
		return
	}

	// Record the outcome before the session commit: a created account
	// must be counted even if the commit then fails the request.
	switch {
	case resp.Account != nil:
		s.recordRegistration("created")
	case len(resp.Errors) > 0 && resp.Errors[0].Message == "Username already exists":
		s.recordRegistration("conflict")
	default:
		s.recordRegistration("validation_error")
	}

	if !s.commitSession(w, r) {
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// handleLogin verifies credentials and binds the account to the session.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	resp, err := s.svc.Login(r.Context(), sessionFromContext(r.Context()), req.Username, req.Password)
	if err != nil {
		errutil.LogError(s.logger, "login failed", err)
		s.recordLogin("error")
		s.writeInternalError(w)
		return
	}

	switch {
	case resp.Account != nil:
		s.recordLogin("success")
	case len(resp.Errors) > 0 && resp.Errors[0].Field == "username":
		s.recordLogin("unknown_username")
	default:
		s.recordLogin("bad_password")
	}

	if !s.commitSession(w, r) {
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// handleLogout clears the session binding and expires the cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.svc.Logout(r.Context(), sessionFromContext(r.Context()))

	if !s.commitSession(w, r) {
		return
	}
	s.writeJSON(w, http.StatusOK, true)
}

// handleMe returns the session's account, or null for anonymous
// callers and stale bindings.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	acct, err := s.svc.Me(r.Context(), sessionFromContext(r.Context()))
	if err != nil {
		errutil.LogError(s.logger, "me failed", err)
		s.writeInternalError(w)
		return
	}
	s.writeJSON(w, http.StatusOK, acct)
}

// handleAccounts returns all accounts.
func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	accts, err := s.svc.Accounts(r.Context())
	if err != nil {
		errutil.LogError(s.logger, "accounts failed", err)
		s.writeInternalError(w)
		return
	}
	if accts == nil {
		accts = []*account.Account{}
	}
	s.writeJSON(w, http.StatusOK, accts)
}

// handleAccount returns one account by ID, or null if none exists.
func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseID(w, r)
	if !ok {
		return
	}

	acct, err := s.svc.AccountByID(r.Context(), id)
	if err != nil {
		errutil.LogError(s.logger, "account lookup failed", err)
		s.writeInternalError(w)
		return
	}
	s.writeJSON(w, http.StatusOK, acct)
}

// handleDeleteAccount hard-deletes an account. Responds true whether
// or not a matching account existed.
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseID(w, r)
	if !ok {
		return
	}

	deleted, err := s.svc.DeleteAccount(r.Context(), id)
	if err != nil {
		errutil.LogError(s.logger, "delete failed", err)
		s.writeInternalError(w)
		return
	}
	s.writeJSON(w, http.StatusOK, deleted)
}

// parseID reads the {id} route parameter. Returns false after writing
// a 400 response if it is not an integer.
func (s *Server) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid account id"})
		return 0, false
	}
	return id, true
}

func (s *Server) recordRegistration(outcome string) {
	if s.metrics != nil {
		s.metrics.RegistrationsTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Server) recordLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.LoginsTotal.WithLabelValues(outcome).Inc()
	}
}
