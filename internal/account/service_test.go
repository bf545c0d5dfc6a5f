// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SocialPlatform Contributors

package account_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialplatform/socialplatform/internal/account"
	"github.com/socialplatform/socialplatform/internal/account/memory"
)

// fakeSession implements account.Session for tests.
type fakeSession struct {
	id    int64
	bound bool
}

func (f *fakeSession) AccountID() (int64, bool) { return f.id, f.bound }
func (f *fakeSession) Bind(id int64)            { f.id, f.bound = id, true }
func (f *fakeSession) Clear()                   { f.id, f.bound = 0, false }

// stubHasher is a fast PasswordHasher for service tests; hashing
// behavior itself is covered by the hasher tests.
type stubHasher struct{}

func (stubHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }
func (stubHasher) Verify(password, hash string) (bool, error) {
	return hash == "hashed:"+password, nil
}

// failingRepo wraps a Repository and fails Insert with a non-conflict
// error.
type failingRepo struct {
	account.Repository
}

func (failingRepo) Insert(context.Context, *account.Account) error {
	return errors.New("connection reset")
}

func newTestService(t *testing.T) (*account.Service, *memory.AccountRepository) {
	t.Helper()
	repo := memory.NewAccountRepository()
	svc, err := account.NewService(repo, stubHasher{})
	require.NoError(t, err)
	return svc, repo
}

func TestNewService_NilDependencies(t *testing.T) {
	repo := memory.NewAccountRepository()

	tests := []struct {
		name        string
		repo        account.Repository
		hasher      account.PasswordHasher
		expectError string
	}{
		{name: "nil repository", repo: nil, hasher: stubHasher{}, expectError: "account repository is required"},
		{name: "nil hasher", repo: repo, hasher: nil, expectError: "password hasher is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := account.NewService(tt.repo, tt.hasher)
			require.Error(t, err)
			assert.Nil(t, svc)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates account and binds session", func(t *testing.T) {
		svc, _ := newTestService(t)
		sess := &fakeSession{}

		resp, err := svc.Register(ctx, sess, "alice", "secretpw")
		require.NoError(t, err)
		require.NotNil(t, resp.Account)
		assert.Empty(t, resp.Errors)
		assert.Equal(t, "alice", resp.Account.Username)
		assert.NotZero(t, resp.Account.ID)

		boundID, ok := sess.AccountID()
		assert.True(t, ok)
		assert.Equal(t, resp.Account.ID, boundID)
	})

	t.Run("short username returns field error without writing", func(t *testing.T) {
		svc, repo := newTestService(t)
		sess := &fakeSession{}

		// "éé" is two characters but four bytes; it must still be
		// rejected as too short.
		for _, username := range []string{"", "a", "ab", "éé"} {
			resp, err := svc.Register(ctx, sess, username, "secretpw")
			require.NoError(t, err)
			require.Len(t, resp.Errors, 1)
			assert.Equal(t, "username", resp.Errors[0].Field)
			assert.Equal(t, "Length must be greater than 2", resp.Errors[0].Message)
			assert.Nil(t, resp.Account)
		}

		accts, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, accts, "validation failures must not persist anything")
		_, bound := sess.AccountID()
		assert.False(t, bound)
	})

	t.Run("short password returns field error without writing", func(t *testing.T) {
		svc, repo := newTestService(t)
		sess := &fakeSession{}

		for _, password := range []string{"", "x", "xy", "éé"} {
			resp, err := svc.Register(ctx, sess, "alice", password)
			require.NoError(t, err)
			require.Len(t, resp.Errors, 1)
			assert.Equal(t, "password", resp.Errors[0].Field)
			assert.Nil(t, resp.Account)
		}

		accts, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, accts)
	})

	t.Run("three multibyte characters pass validation", func(t *testing.T) {
		svc, _ := newTestService(t)
		sess := &fakeSession{}

		resp, err := svc.Register(ctx, sess, "ééé", "ñññ")
		require.NoError(t, err)
		assert.Empty(t, resp.Errors)
		require.NotNil(t, resp.Account)
		assert.Equal(t, "ééé", resp.Account.Username)
	})

	t.Run("duplicate username returns conflict field error", func(t *testing.T) {
		svc, repo := newTestService(t)

		resp, err := svc.Register(ctx, &fakeSession{}, "alice", "secretpw")
		require.NoError(t, err)
		require.NotNil(t, resp.Account)

		sess := &fakeSession{}
		resp, err = svc.Register(ctx, sess, "alice", "otherpw")
		require.NoError(t, err)
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, "username", resp.Errors[0].Field)
		assert.Equal(t, "Username already exists", resp.Errors[0].Message)
		assert.Nil(t, resp.Account)

		_, bound := sess.AccountID()
		assert.False(t, bound, "conflict must not bind the session")

		accts, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, accts, 1, "exactly one account with the username exists")
	})

	t.Run("non-conflict persistence error surfaces as error", func(t *testing.T) {
		repo := failingRepo{memory.NewAccountRepository()}
		svc, err := account.NewService(repo, stubHasher{})
		require.NoError(t, err)

		sess := &fakeSession{}
		resp, err := svc.Register(ctx, sess, "alice", "secretpw")
		require.Error(t, err)
		assert.Nil(t, resp.Account)
		assert.Empty(t, resp.Errors)

		_, bound := sess.AccountID()
		assert.False(t, bound, "failed insert must not bind the session")
	})

	t.Run("concurrent registrations of one username resolve to one winner", func(t *testing.T) {
		const n = 16
		svc, repo := newTestService(t)

		var wg sync.WaitGroup
		results := make([]account.Response, n)
		errs := make([]error, n)
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i], errs[i] = svc.Register(ctx, &fakeSession{}, "alice", "secretpw")
			}()
		}
		wg.Wait()

		for _, err := range errs {
			require.NoError(t, err)
		}

		var created, conflicts int
		for _, resp := range results {
			switch {
			case resp.Account != nil:
				created++
			case len(resp.Errors) == 1 && resp.Errors[0].Message == "Username already exists":
				conflicts++
			}
		}
		assert.Equal(t, 1, created)
		assert.Equal(t, n-1, conflicts)

		accts, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, accts, 1)
	})
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()

	register := func(t *testing.T, svc *account.Service, username, password string) *account.Account {
		t.Helper()
		resp, err := svc.Register(ctx, &fakeSession{}, username, password)
		require.NoError(t, err)
		require.NotNil(t, resp.Account)
		return resp.Account
	}

	t.Run("valid credentials return same account and bind session", func(t *testing.T) {
		svc, _ := newTestService(t)
		created := register(t, svc, "alice", "secretpw")

		sess := &fakeSession{}
		resp, err := svc.Login(ctx, sess, "alice", "secretpw")
		require.NoError(t, err)
		require.NotNil(t, resp.Account)
		assert.Equal(t, created.ID, resp.Account.ID)

		boundID, ok := sess.AccountID()
		assert.True(t, ok)
		assert.Equal(t, created.ID, boundID)
	})

	t.Run("unknown username returns field error", func(t *testing.T) {
		svc, _ := newTestService(t)

		sess := &fakeSession{}
		resp, err := svc.Login(ctx, sess, "nouser", "x")
		require.NoError(t, err)
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, "username", resp.Errors[0].Field)
		assert.Equal(t, "That username does not exist", resp.Errors[0].Message)
		assert.Nil(t, resp.Account)

		_, bound := sess.AccountID()
		assert.False(t, bound)
	})

	t.Run("wrong password returns field error and leaves session unbound", func(t *testing.T) {
		svc, _ := newTestService(t)
		register(t, svc, "alice", "secretpw")

		sess := &fakeSession{}
		resp, err := svc.Login(ctx, sess, "alice", "wrongpw")
		require.NoError(t, err)
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, "password", resp.Errors[0].Field)
		assert.Equal(t, "Password is incorrect", resp.Errors[0].Message)
		assert.Nil(t, resp.Account)

		_, bound := sess.AccountID()
		assert.False(t, bound)
	})

	t.Run("round trip with real hasher", func(t *testing.T) {
		repo := memory.NewAccountRepository()
		svc, err := account.NewService(repo, account.NewArgon2idHasher())
		require.NoError(t, err)

		created := register(t, svc, "alice", "secretpw")

		resp, err := svc.Login(ctx, &fakeSession{}, "alice", "secretpw")
		require.NoError(t, err)
		require.NotNil(t, resp.Account)
		assert.Equal(t, created.ID, resp.Account.ID)

		resp, err = svc.Login(ctx, &fakeSession{}, "alice", "wrongpw")
		require.NoError(t, err)
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, "password", resp.Errors[0].Field)
	})
}

func TestService_Me(t *testing.T) {
	ctx := context.Background()

	t.Run("anonymous session returns nil", func(t *testing.T) {
		svc, _ := newTestService(t)

		acct, err := svc.Me(ctx, &fakeSession{})
		require.NoError(t, err)
		assert.Nil(t, acct)
	})

	t.Run("bound session returns the account", func(t *testing.T) {
		svc, _ := newTestService(t)
		sess := &fakeSession{}
		resp, err := svc.Register(ctx, sess, "alice", "secretpw")
		require.NoError(t, err)

		acct, err := svc.Me(ctx, sess)
		require.NoError(t, err)
		require.NotNil(t, acct)
		assert.Equal(t, resp.Account.ID, acct.ID)
	})

	t.Run("stale binding returns nil", func(t *testing.T) {
		svc, _ := newTestService(t)
		sess := &fakeSession{}
		resp, err := svc.Register(ctx, sess, "alice", "secretpw")
		require.NoError(t, err)

		ok, err := svc.DeleteAccount(ctx, resp.Account.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		acct, err := svc.Me(ctx, sess)
		require.NoError(t, err)
		assert.Nil(t, acct, "deleted account resolves to absent, not an error")
	})
}

func TestService_Logout(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	sess := &fakeSession{}
	_, err := svc.Register(ctx, sess, "alice", "secretpw")
	require.NoError(t, err)

	svc.Logout(ctx, sess)

	_, bound := sess.AccountID()
	assert.False(t, bound)
}

func TestService_Queries(t *testing.T) {
	ctx := context.Background()

	t.Run("accounts returns all accounts", func(t *testing.T) {
		svc, _ := newTestService(t)
		for _, username := range []string{"alice", "bob", "carol"} {
			_, err := svc.Register(ctx, &fakeSession{}, username, "secretpw")
			require.NoError(t, err)
		}

		accts, err := svc.Accounts(ctx)
		require.NoError(t, err)
		assert.Len(t, accts, 3)
	})

	t.Run("account by id", func(t *testing.T) {
		svc, _ := newTestService(t)
		resp, err := svc.Register(ctx, &fakeSession{}, "alice", "secretpw")
		require.NoError(t, err)

		acct, err := svc.AccountByID(ctx, resp.Account.ID)
		require.NoError(t, err)
		require.NotNil(t, acct)
		assert.Equal(t, "alice", acct.Username)

		acct, err = svc.AccountByID(ctx, 9999)
		require.NoError(t, err)
		assert.Nil(t, acct)
	})

	t.Run("delete is unconditional", func(t *testing.T) {
		svc, _ := newTestService(t)
		resp, err := svc.Register(ctx, &fakeSession{}, "alice", "secretpw")
		require.NoError(t, err)

		ok, err := svc.DeleteAccount(ctx, resp.Account.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		acct, err := svc.AccountByID(ctx, resp.Account.ID)
		require.NoError(t, err)
		assert.Nil(t, acct)

		// Deleting a missing account still reports true.
		ok, err = svc.DeleteAccount(ctx, resp.Account.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
