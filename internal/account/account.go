// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SocialPlatform Contributors

package account

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/samber/oops"
)

// MinUsernameLength is the shortest accepted username, counted in
// characters. Anything at or below two is rejected with a field error.
const MinUsernameLength = 3

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 3

// Account represents a registered user account.
//
// PasswordHash exists only on the stored entity; the json tag keeps it
// out of every serialized response.
type Account struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewAccount creates an Account ready for insertion. The ID is zero
// until the repository assigns one.
func NewAccount(username, passwordHash string) (*Account, error) {
	if username == "" {
		return nil, oops.Code("ACCOUNT_INVALID_USERNAME").Errorf("username cannot be empty")
	}
	if passwordHash == "" {
		return nil, oops.Code("ACCOUNT_INVALID_HASH").Errorf("password hash cannot be empty")
	}

	now := time.Now()
	return &Account{
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// FieldError describes why one named input failed.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Response is the caller-facing result of register and login. Exactly
// one of Errors and Account is set.
type Response struct {
	Errors  []FieldError `json:"errors,omitempty"`
	Account *Account     `json:"user,omitempty"`
}

func fieldError(field, message string) Response {
	return Response{Errors: []FieldError{{Field: field, Message: message}}}
}

// validateInput checks the registration preconditions and returns the
// first failing rule as a field error, or nil if both inputs pass.
// Lengths count characters, not bytes, so multibyte input is measured
// the way a user would count it.
func validateInput(username, password string) []FieldError {
	if utf8.RuneCountInString(username) < MinUsernameLength {
		return []FieldError{{Field: "username", Message: "Length must be greater than 2"}}
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return []FieldError{{Field: "password", Message: "Length must be greater than 2"}}
	}
	return nil
}

// Repository manages account persistence.
type Repository interface {
	// Insert stores a new account and assigns its ID. Returns
	// ErrUsernameTaken if the username is already in use.
	Insert(ctx context.Context, acct *Account) error

	// GetByID retrieves an account by ID. Returns ErrNotFound if no
	// account has the given ID.
	GetByID(ctx context.Context, id int64) (*Account, error)

	// GetByUsername retrieves an account by exact username match.
	// Returns ErrNotFound if no account has the given username.
	GetByUsername(ctx context.Context, username string) (*Account, error)

	// List returns all accounts ordered by ID.
	List(ctx context.Context) ([]*Account, error)

	// DeleteByID removes an account and returns the number of rows
	// deleted (zero if none matched).
	DeleteByID(ctx context.Context, id int64) (int64, error)
}
