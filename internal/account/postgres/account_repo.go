// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SocialPlatform Contributors

// Package postgres implements account persistence using PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/socialplatform/socialplatform/internal/account"
)

// pool is the subset of pgxpool.Pool the repository uses. Tests swap
// in a pgxmock pool.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountRepository implements account.Repository using PostgreSQL.
type AccountRepository struct {
	pool pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Insert stores a new account and assigns its ID from the database
// sequence. A unique-constraint violation on the username column is
// mapped to account.ErrUsernameTaken.
func (r *AccountRepository) Insert(ctx context.Context, acct *account.Account) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO accounts (username, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`,
		acct.Username,
		acct.PasswordHash,
		acct.CreatedAt,
		acct.UpdatedAt,
	).Scan(&acct.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("ACCOUNT_USERNAME_TAKEN").
				With("username", acct.Username).
				Wrap(account.ErrUsernameTaken)
		}
		return oops.Code("ACCOUNT_INSERT_FAILED").
			With("operation", "insert account").
			With("username", acct.Username).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*account.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`, id)

	acct, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_ID_FAILED").
			With("operation", "get account by id").
			With("id", id).
			Wrap(err)
	}
	return acct, nil
}

// GetByUsername retrieves an account by exact username match.
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*account.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, created_at, updated_at
		FROM accounts
		WHERE username = $1
	`, username)

	acct, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("username", username).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_USERNAME_FAILED").
			With("operation", "get account by username").
			With("username", username).
			Wrap(err)
	}
	return acct, nil
}

// List returns all accounts ordered by ID.
func (r *AccountRepository) List(ctx context.Context) ([]*account.Account, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, username, password_hash, created_at, updated_at
		FROM accounts
		ORDER BY id
	`)
	if err != nil {
		return nil, oops.Code("ACCOUNT_LIST_FAILED").
			With("operation", "query accounts").
			Wrap(err)
	}
	defer rows.Close()

	var accts []*account.Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, oops.Code("ACCOUNT_LIST_FAILED").
				With("operation", "scan account row").
				Wrap(err)
		}
		accts = append(accts, acct)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ACCOUNT_LIST_FAILED").
			With("operation", "iterate accounts").
			Wrap(err)
	}
	return accts, nil
}

// DeleteByID removes an account and returns the number of rows deleted.
func (r *AccountRepository) DeleteByID(ctx context.Context, id int64) (int64, error) {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM accounts WHERE id = $1
	`, id)
	if err != nil {
		return 0, oops.Code("ACCOUNT_DELETE_FAILED").
			With("operation", "delete account").
			With("id", id).
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// scanAccount scans a single row into an Account.
// Callers are responsible for handling pgx.ErrNoRows.
func scanAccount(row pgx.Row) (*account.Account, error) {
	var acct account.Account
	err := row.Scan(
		&acct.ID,
		&acct.Username,
		&acct.PasswordHash,
		&acct.CreatedAt,
		&acct.UpdatedAt,
	)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("ACCOUNT_SCAN_FAILED").
			With("operation", "scan account").
			Wrap(err)
	}
	return &acct, nil
}

// Compile-time interface check.
var _ account.Repository = (*AccountRepository)(nil)
