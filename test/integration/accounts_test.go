// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SocialPlatform Contributors

//go:build integration

package integration

import (
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/socialplatform/socialplatform/internal/account"
	"github.com/socialplatform/socialplatform/internal/session"
)

var _ = Describe("Registration", func() {
	BeforeEach(func() {
		env.truncate()
	})

	It("creates an account with a database-assigned ID", func() {
		sess := &session.Handle{}
		resp, err := env.Service.Register(env.ctx, sess, "alice", "secretpw")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Errors).To(BeEmpty())
		Expect(resp.Account).NotTo(BeNil())
		Expect(resp.Account.ID).To(BeNumerically(">", 0))

		stored, err := env.Accounts.GetByID(env.ctx, resp.Account.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Username).To(Equal("alice"))
	})

	It("stores an argon2id hash, never the plaintext", func() {
		resp, err := env.Service.Register(env.ctx, &session.Handle{}, "alice", "secretpw")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Account).NotTo(BeNil())

		stored, err := env.Accounts.GetByUsername(env.ctx, "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.PasswordHash).To(HavePrefix("$argon2id$"))
		Expect(strings.Contains(stored.PasswordHash, "secretpw")).To(BeFalse())
	})

	It("maps the unique constraint to a conflict field error", func() {
		_, err := env.Service.Register(env.ctx, &session.Handle{}, "alice", "secretpw")
		Expect(err).NotTo(HaveOccurred())

		resp, err := env.Service.Register(env.ctx, &session.Handle{}, "alice", "otherpw")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Account).To(BeNil())
		Expect(resp.Errors).To(HaveLen(1))
		Expect(resp.Errors[0].Field).To(Equal("username"))
		Expect(resp.Errors[0].Message).To(Equal("Username already exists"))
	})

	It("resolves concurrent registrations of one username to a single winner", func() {
		const n = 8
		results := make([]account.Response, n)
		errs := make([]error, n)

		var wg sync.WaitGroup
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer GinkgoRecover()
				results[i], errs[i] = env.Service.Register(env.ctx, &session.Handle{}, "alice", "secretpw")
			}()
		}
		wg.Wait()

		var created, conflicts int
		for i := range n {
			Expect(errs[i]).NotTo(HaveOccurred())
			if results[i].Account != nil {
				created++
			} else if len(results[i].Errors) == 1 {
				conflicts++
			}
		}
		Expect(created).To(Equal(1))
		Expect(conflicts).To(Equal(n - 1))

		accts, err := env.Accounts.List(env.ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(accts).To(HaveLen(1))
	})
})

var _ = Describe("Login", func() {
	BeforeEach(func() {
		env.truncate()
		_, err := env.Service.Register(env.ctx, &session.Handle{}, "alice", "secretpw")
		Expect(err).NotTo(HaveOccurred())
	})

	It("authenticates valid credentials against the stored hash", func() {
		resp, err := env.Service.Login(env.ctx, &session.Handle{}, "alice", "secretpw")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Account).NotTo(BeNil())
		Expect(resp.Account.Username).To(Equal("alice"))
	})

	It("rejects a wrong password", func() {
		resp, err := env.Service.Login(env.ctx, &session.Handle{}, "alice", "wrongpw")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Account).To(BeNil())
		Expect(resp.Errors).To(HaveLen(1))
		Expect(resp.Errors[0].Field).To(Equal("password"))
	})

	It("rejects an unknown username", func() {
		resp, err := env.Service.Login(env.ctx, &session.Handle{}, "nobody", "secretpw")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Errors).To(HaveLen(1))
		Expect(resp.Errors[0].Message).To(Equal("That username does not exist"))
	})
})

var _ = Describe("Sessions", func() {
	BeforeEach(func() {
		env.truncate()
	})

	register := func(username string) (*account.Account, string) {
		sess := &session.Handle{}
		resp, err := env.Service.Register(env.ctx, sess, username, "secretpw")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Account).NotTo(BeNil())

		token, issued, _, err := env.Manager.Commit(env.ctx, sess)
		Expect(err).NotTo(HaveOccurred())
		Expect(issued).To(BeTrue())
		return resp.Account, token
	}

	It("persists the binding across resolves", func() {
		acct, token := register("alice")

		h, err := env.Manager.Resolve(env.ctx, token)
		Expect(err).NotTo(HaveOccurred())
		id, ok := h.AccountID()
		Expect(ok).To(BeTrue())
		Expect(id).To(Equal(acct.ID))
	})

	It("revokes the session on clear", func() {
		_, token := register("alice")

		h, err := env.Manager.Resolve(env.ctx, token)
		Expect(err).NotTo(HaveOccurred())
		h.Clear()
		_, _, revoked, err := env.Manager.Commit(env.ctx, h)
		Expect(err).NotTo(HaveOccurred())
		Expect(revoked).To(BeTrue())

		stale, err := env.Manager.Resolve(env.ctx, token)
		Expect(err).NotTo(HaveOccurred())
		_, ok := stale.AccountID()
		Expect(ok).To(BeFalse())
	})

	It("cascades session deletion when the account is removed", func() {
		acct, token := register("alice")

		rows, err := env.Accounts.DeleteByID(env.ctx, acct.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(Equal(int64(1)))

		h, err := env.Manager.Resolve(env.ctx, token)
		Expect(err).NotTo(HaveOccurred())
		_, ok := h.AccountID()
		Expect(ok).To(BeFalse(), "ON DELETE CASCADE removes the session row")
	})

	It("reports a stale binding as anonymous through the service", func() {
		acct, token := register("alice")

		_, err := env.Accounts.DeleteByID(env.ctx, acct.ID)
		Expect(err).NotTo(HaveOccurred())

		h, err := env.Manager.Resolve(env.ctx, token)
		Expect(err).NotTo(HaveOccurred())

		me, err := env.Service.Me(env.ctx, h)
		Expect(err).NotTo(HaveOccurred())
		Expect(me).To(BeNil())
	})
})

var _ = Describe("Account queries", func() {
	BeforeEach(func() {
		env.truncate()
		for _, username := range []string{"alice", "bob", "carol"} {
			_, err := env.Service.Register(env.ctx, &session.Handle{}, username, "secretpw")
			Expect(err).NotTo(HaveOccurred())
		}
	})

	It("lists accounts ordered by ID", func() {
		accts, err := env.Service.Accounts(env.ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(accts).To(HaveLen(3))
		Expect(accts[0].Username).To(Equal("alice"))
		Expect(accts[1].Username).To(Equal("bob"))
		Expect(accts[2].Username).To(Equal("carol"))
	})

	It("returns nil for a missing account ID", func() {
		acct, err := env.Service.AccountByID(env.ctx, 9999)
		Expect(err).NotTo(HaveOccurred())
		Expect(acct).To(BeNil())
	})

	It("deletes unconditionally", func() {
		accts, err := env.Service.Accounts(env.ctx)
		Expect(err).NotTo(HaveOccurred())

		ok, err := env.Service.DeleteAccount(env.ctx, accts[0].ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())

		ok, err = env.Service.DeleteAccount(env.ctx, accts[0].ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue(), "deleting an absent account still reports true")

		remaining, err := env.Service.Accounts(env.ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(remaining).To(HaveLen(2))
	})
})
