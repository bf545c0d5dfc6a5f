// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SocialPlatform Contributors

// Package memory implements session persistence in process memory,
// for dev mode and unit tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/socialplatform/socialplatform/internal/session"
)

// SessionRepository implements session.Repository in memory.
type SessionRepository struct {
	mu       sync.Mutex
	sessions map[ulid.ULID]session.Session
	byToken  map[string]ulid.ULID
}

// NewSessionRepository creates an empty SessionRepository.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions: make(map[ulid.ULID]session.Session),
		byToken:  make(map[string]ulid.ULID),
	}
}

// Create stores a new session. A token hash already held by another
// session is rejected, matching the unique constraint of the postgres
// backend.
func (r *SessionRepository) Create(_ context.Context, sess *session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byToken[sess.TokenHash]; ok {
		return session.ErrDuplicateToken
	}
	r.sessions[sess.ID] = *sess
	r.byToken[sess.TokenHash] = sess.ID
	return nil
}

// GetByTokenHash retrieves a session by its token hash.
func (r *SessionRepository) GetByTokenHash(_ context.Context, tokenHash string) (*session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byToken[tokenHash]
	if !ok {
		return nil, session.ErrNotFound
	}
	sess := r.sessions[id]
	return &sess, nil
}

// UpdateLastSeen updates the LastSeenAt timestamp for a session.
func (r *SessionRepository) UpdateLastSeen(_ context.Context, id ulid.ULID, lastSeen time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[id]
	if !ok {
		return session.ErrNotFound
	}
	sess.LastSeenAt = lastSeen
	r.sessions[id] = sess
	return nil
}

// Delete removes a session by ID.
func (r *SessionRepository) Delete(_ context.Context, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[id]
	if !ok {
		return session.ErrNotFound
	}
	delete(r.byToken, sess.TokenHash)
	delete(r.sessions, id)
	return nil
}

// DeleteExpired removes all expired sessions.
func (r *SessionRepository) DeleteExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var deleted int64
	for id, sess := range r.sessions {
		if sess.IsExpiredAt(now) {
			delete(r.byToken, sess.TokenHash)
			delete(r.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

// Compile-time interface check.
var _ session.Repository = (*SessionRepository)(nil)
