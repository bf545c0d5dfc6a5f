// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SocialPlatform Contributors

package account

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// Session is the caller's session as seen by the credential core: it
// holds at most one bound account ID at a time. Absent means the
// caller is anonymous. The transport owns storage and cookie
// transport; the service only reads and mutates the binding.
type Session interface {
	// AccountID returns the bound account ID, or false if anonymous.
	AccountID() (int64, bool)

	// Bind associates the account ID with the session.
	Bind(accountID int64)

	// Clear removes any binding, returning the session to anonymous.
	Clear()
}

// dummyPasswordHash is verified against when a username does not exist,
// keeping login response time consistent whether or not the account is
// real. It is a fake hash that can never match any password.
//
//nolint:gosec // G101: intentionally fake hash, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Service implements the credential operations. It holds no mutable
// state of its own; all state lives in the repository and in the
// per-caller session.
type Service struct {
	repo   Repository
	hasher PasswordHasher
	logger *slog.Logger
}

// NewService creates a Service.
func NewService(repo Repository, hasher PasswordHasher) (*Service, error) {
	return NewServiceWithLogger(repo, hasher, slog.Default())
}

// NewServiceWithLogger creates a Service with an explicit logger.
func NewServiceWithLogger(repo Repository, hasher PasswordHasher, logger *slog.Logger) (*Service, error) {
	if repo == nil {
		return nil, oops.Code("SERVICE_INVALID_DEPS").Errorf("account repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("SERVICE_INVALID_DEPS").Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Code("SERVICE_INVALID_DEPS").Errorf("logger is required")
	}
	return &Service{repo: repo, hasher: hasher, logger: logger}, nil
}

// Register validates the input, hashes the password, inserts the
// account, and binds it to the caller's session.
//
// Validation failures and username conflicts come back as field errors
// in the Response; any other persistence failure is returned as an
// error with the Response empty, and the session is left untouched.
func (s *Service) Register(ctx context.Context, sess Session, username, password string) (Response, error) {
	if fieldErrs := validateInput(username, password); fieldErrs != nil {
		return Response{Errors: fieldErrs}, nil
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return Response{}, oops.Code("REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	acct, err := NewAccount(username, hash)
	if err != nil {
		return Response{}, oops.Code("REGISTER_FAILED").
			With("operation", "build account").
			Wrap(err)
	}

	// The unique constraint on username resolves concurrent
	// registrations: exactly one insert wins, the rest observe
	// ErrUsernameTaken.
	if err := s.repo.Insert(ctx, acct); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return fieldError("username", "Username already exists"), nil
		}
		return Response{}, oops.Code("REGISTER_FAILED").
			With("operation", "insert account").
			With("username", username).
			Wrap(err)
	}

	sess.Bind(acct.ID)

	s.logger.InfoContext(ctx, "account registered", "account_id", acct.ID, "username", acct.Username)
	return Response{Account: acct}, nil
}

// Login verifies the credentials and binds the account to the caller's
// session. An unknown username and a wrong password each come back as
// a field error; the session is only mutated on success.
func (s *Service) Login(ctx context.Context, sess Session, username, password string) (Response, error) {
	acct, lookupErr := s.repo.GetByUsername(ctx, username)

	// Verify against a dummy hash when the account is missing so the
	// response time does not depend on username existence. The error
	// message still reveals it; that disclosure is a documented
	// contract of this API, not an accident.
	targetHash := dummyPasswordHash
	if lookupErr == nil {
		targetHash = acct.PasswordHash
	} else if !errors.Is(lookupErr, ErrNotFound) {
		return Response{}, oops.Code("LOGIN_FAILED").
			With("operation", "get account by username").
			Wrap(lookupErr)
	}

	valid, verifyErr := s.hasher.Verify(password, targetHash)

	if lookupErr != nil {
		return fieldError("username", "That username does not exist"), nil
	}
	if verifyErr != nil {
		return Response{}, oops.Code("LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}
	if !valid {
		return fieldError("password", "Password is incorrect"), nil
	}

	sess.Bind(acct.ID)

	s.logger.InfoContext(ctx, "account logged in", "account_id", acct.ID)
	return Response{Account: acct}, nil
}

// Logout clears the session binding. Logging out an anonymous session
// is a no-op.
func (s *Service) Logout(_ context.Context, sess Session) {
	sess.Clear()
}

// Me returns the account bound to the session, or nil if the session
// is anonymous or the bound account no longer exists.
func (s *Service) Me(ctx context.Context, sess Session) (*Account, error) {
	id, ok := sess.AccountID()
	if !ok {
		return nil, nil
	}

	acct, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Stale binding, e.g. the account was deleted.
			return nil, nil
		}
		return nil, oops.Code("ME_FAILED").
			With("operation", "get account by id").
			With("account_id", id).
			Wrap(err)
	}
	return acct, nil
}

// Accounts returns all accounts, unfiltered and unpaginated.
func (s *Service) Accounts(ctx context.Context) ([]*Account, error) {
	accts, err := s.repo.List(ctx)
	if err != nil {
		return nil, oops.Code("ACCOUNTS_FAILED").
			With("operation", "list accounts").
			Wrap(err)
	}
	return accts, nil
}

// AccountByID returns the account with the given ID, or nil if none
// exists.
func (s *Service) AccountByID(ctx context.Context, id int64) (*Account, error) {
	acct, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, oops.Code("ACCOUNT_GET_FAILED").
			With("operation", "get account by id").
			With("account_id", id).
			Wrap(err)
	}
	return acct, nil
}

// DeleteAccount removes the account with the given ID. It returns true
// whether or not a matching account existed; callers cannot tell the
// difference, matching the delete contract of the API. No
// authorization check is performed.
func (s *Service) DeleteAccount(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return false, oops.Code("DELETE_FAILED").
			With("operation", "delete account").
			With("account_id", id).
			Wrap(err)
	}

	if deleted > 0 {
		s.logger.InfoContext(ctx, "account deleted", "account_id", id)
	}
	return true, nil
}
