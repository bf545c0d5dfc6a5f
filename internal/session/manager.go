// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SocialPlatform Contributors

package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// Handle is one caller's session for the duration of a request. It
// implements the two-state contract the credential core sees: either
// anonymous or bound to exactly one account ID. Mutations are
// buffered; the transport commits them once the request is handled.
//
// A Handle is request-scoped and not safe for concurrent use.
type Handle struct {
	current *Session // resolved from the incoming token, nil if anonymous

	pendingBind int64
	hasBind     bool
	cleared     bool
}

// AccountID returns the bound account ID, or false if anonymous.
func (h *Handle) AccountID() (int64, bool) {
	if h.hasBind {
		return h.pendingBind, true
	}
	if h.cleared || h.current == nil {
		return 0, false
	}
	return h.current.AccountID, true
}

// Bind associates the account ID with the session. The binding takes
// effect on commit, when a fresh token is issued.
func (h *Handle) Bind(accountID int64) {
	h.pendingBind = accountID
	h.hasBind = true
	h.cleared = false
}

// Clear removes any binding, returning the session to anonymous.
func (h *Handle) Clear() {
	h.hasBind = false
	h.cleared = true
}

// Manager resolves incoming tokens to sessions and commits handle
// mutations back to the repository.
type Manager struct {
	repo   Repository
	ttl    time.Duration
	logger *slog.Logger
}

// NewManager creates a Manager. A non-positive ttl falls back to
// DefaultTTL.
func NewManager(repo Repository, ttl time.Duration, logger *slog.Logger) (*Manager, error) {
	if repo == nil {
		return nil, oops.Code("SESSION_INVALID_DEPS").Errorf("session repository is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{repo: repo, ttl: ttl, logger: logger}, nil
}

// Resolve turns an incoming token into a Handle. An empty, unknown,
// or expired token yields an anonymous handle, never an error; only
// repository failures are reported.
func (m *Manager) Resolve(ctx context.Context, token string) (*Handle, error) {
	if token == "" {
		return &Handle{}, nil
	}

	sess, err := m.repo.GetByTokenHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &Handle{}, nil
		}
		return nil, oops.Code("SESSION_RESOLVE_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}

	if sess.IsExpired() {
		return &Handle{}, nil
	}

	// Best effort, resolution succeeds regardless.
	_ = m.repo.UpdateLastSeen(ctx, sess.ID, time.Now()) //nolint:errcheck

	return &Handle{current: sess}, nil
}

// Commit flushes buffered handle mutations.
//
// A bind rotates the session: the old row is deleted, a new one is
// created, and the fresh plaintext token is returned with issued=true.
// A clear deletes the old row and returns revoked=true so the
// transport can expire its cookie. With no mutation, Commit is a
// no-op.
func (m *Manager) Commit(ctx context.Context, h *Handle) (token string, issued, revoked bool, err error) {
	switch {
	case h.hasBind:
		if h.current != nil {
			if err := m.repo.Delete(ctx, h.current.ID); err != nil && !errors.Is(err, ErrNotFound) {
				return "", false, false, oops.Code("SESSION_COMMIT_FAILED").
					With("operation", "rotate old session").
					Wrap(err)
			}
		}

		plaintext, hash, err := GenerateToken()
		if err != nil {
			return "", false, false, oops.Code("SESSION_COMMIT_FAILED").
				With("operation", "generate token").
				Wrap(err)
		}

		sess, err := New(h.pendingBind, hash, time.Now().Add(m.ttl))
		if err != nil {
			return "", false, false, oops.Code("SESSION_COMMIT_FAILED").
				With("operation", "build session").
				Wrap(err)
		}

		if err := m.repo.Create(ctx, sess); err != nil {
			return "", false, false, oops.Code("SESSION_COMMIT_FAILED").
				With("operation", "persist session").
				Wrap(err)
		}

		h.current = sess
		h.hasBind = false
		return plaintext, true, false, nil

	case h.cleared && h.current != nil:
		if err := m.repo.Delete(ctx, h.current.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return "", false, false, oops.Code("SESSION_COMMIT_FAILED").
				With("operation", "delete session").
				Wrap(err)
		}
		h.current = nil
		h.cleared = false
		return "", false, true, nil
	}

	return "", false, false, nil
}

// PurgeExpired removes expired sessions. Intended to run periodically
// from the serve loop.
func (m *Manager) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := m.repo.DeleteExpired(ctx)
	if err != nil {
		return 0, oops.Code("SESSION_PURGE_FAILED").Wrap(err)
	}
	if n > 0 {
		m.logger.DebugContext(ctx, "purged expired sessions", "count", n)
	}
	return n, nil
}

// RunPurgeLoop purges expired sessions every interval until the
// context is canceled.
func (m *Manager) RunPurgeLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.PurgeExpired(ctx); err != nil {
				m.logger.WarnContext(ctx, "session purge failed", "error", err)
			}
		}
	}
}
