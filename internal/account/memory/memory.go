// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SocialPlatform Contributors

// Package memory implements account persistence in process memory.
// It backs dev mode and unit tests; the conflict semantics match the
// PostgreSQL implementation, with the mutex standing in for the
// unique constraint.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/socialplatform/socialplatform/internal/account"
)

// AccountRepository implements account.Repository in memory.
type AccountRepository struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]account.Account
}

// NewAccountRepository creates an empty AccountRepository.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		nextID:   1,
		accounts: make(map[int64]account.Account),
	}
}

// Insert stores a new account. The uniqueness check and the write
// happen under one lock, so concurrent inserts of the same username
// resolve exactly like the database constraint: one wins, the rest
// get account.ErrUsernameTaken.
func (r *AccountRepository) Insert(_ context.Context, acct *account.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.accounts {
		if existing.Username == acct.Username {
			return account.ErrUsernameTaken
		}
	}

	acct.ID = r.nextID
	r.nextID++
	r.accounts[acct.ID] = *acct
	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(_ context.Context, id int64) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acct, ok := r.accounts[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	return &acct, nil
}

// GetByUsername retrieves an account by exact username match.
func (r *AccountRepository) GetByUsername(_ context.Context, username string) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, acct := range r.accounts {
		if acct.Username == username {
			return &acct, nil
		}
	}
	return nil, account.ErrNotFound
}

// List returns all accounts ordered by ID.
func (r *AccountRepository) List(_ context.Context) ([]*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	accts := make([]*account.Account, 0, len(r.accounts))
	for id := range r.accounts {
		acct := r.accounts[id]
		accts = append(accts, &acct)
	}
	sort.Slice(accts, func(i, j int) bool { return accts[i].ID < accts[j].ID })
	return accts, nil
}

// DeleteByID removes an account and returns the number of rows deleted.
func (r *AccountRepository) DeleteByID(_ context.Context, id int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[id]; !ok {
		return 0, nil
	}
	delete(r.accounts, id)
	return 1, nil
}

// Compile-time interface check.
var _ account.Repository = (*AccountRepository)(nil)
