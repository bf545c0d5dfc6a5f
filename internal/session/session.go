// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SocialPlatform Contributors

// Package session provides server-side sessions keyed by an opaque
// token. The token travels in a cookie; only its SHA-256 hash is
// stored, so a leaked session table cannot be replayed.
package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Token configuration.
const (
	TokenBytes = 32                 // 32 bytes = 64 hex chars
	DefaultTTL = 7 * 24 * time.Hour // matches the original cookie lifetime order of magnitude
)

// Session binds an account ID to one caller for the token's lifetime.
type Session struct {
	ID         ulid.ULID
	AccountID  int64
	TokenHash  string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	LastSeenAt time.Time
}

// New creates a validated Session.
func New(accountID int64, tokenHash string, expiresAt time.Time) (*Session, error) {
	if accountID <= 0 {
		return nil, oops.Code("SESSION_INVALID_ACCOUNT").Errorf("account ID must be positive")
	}
	if tokenHash == "" {
		return nil, oops.Code("SESSION_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if expiresAt.IsZero() {
		return nil, oops.Code("SESSION_INVALID_EXPIRY").Errorf("expiry time cannot be zero")
	}

	now := time.Now()
	return &Session{
		ID:         ulid.Make(),
		AccountID:  accountID,
		TokenHash:  tokenHash,
		ExpiresAt:  expiresAt,
		CreatedAt:  now,
		LastSeenAt: now,
	}, nil
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return s.IsExpiredAt(time.Now())
}

// IsExpiredAt returns true if the session would be expired at the given time.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return t.After(s.ExpiresAt)
}

// GenerateToken creates a secure random token and its hash.
// Returns (plaintext_token, sha256_hash, error). The plaintext token
// goes to the client; only the hash is persisted.
func GenerateToken() (token, hash string, err error) {
	tokenBytes := make([]byte, TokenBytes)
	if _, err = rand.Read(tokenBytes); err != nil {
		return "", "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			Wrap(err)
	}

	token = hex.EncodeToString(tokenBytes)
	hash = HashToken(token)

	return token, hash, nil
}

// HashToken computes the SHA-256 hash of a session token.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// VerifyToken checks if the plaintext token matches the stored hash
// using constant-time comparison.
func VerifyToken(token, hash string) (bool, error) {
	if token == "" {
		return false, oops.Code("SESSION_TOKEN_EMPTY").Errorf("session token cannot be empty")
	}
	if hash == "" {
		return false, oops.Code("SESSION_HASH_EMPTY").Errorf("stored hash cannot be empty")
	}
	computed := HashToken(token)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1, nil
}

// Repository manages session persistence.
type Repository interface {
	// Create stores a new session. Returns ErrDuplicateToken if the
	// token hash is already in use by another session.
	Create(ctx context.Context, sess *Session) error

	// GetByTokenHash retrieves a session by its token hash. Returns
	// ErrNotFound if no session matches.
	GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// UpdateLastSeen updates the LastSeenAt timestamp for a session.
	UpdateLastSeen(ctx context.Context, id ulid.ULID, lastSeen time.Time) error

	// Delete removes a session by ID.
	Delete(ctx context.Context, id ulid.ULID) error

	// DeleteExpired removes all expired sessions and returns the count
	// of deleted records.
	DeleteExpired(ctx context.Context) (int64, error)
}
