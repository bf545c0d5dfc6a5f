// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SocialPlatform Contributors

// Package account implements the credential core: registration, login,
// session binding, and account queries.
//
// # Domain Types
//
// Account is the stored identity. NewAccount validates username and
// password hash before constructing one; repository implementations
// receive pre-validated accounts.
//
// FieldError and Response carry the caller-facing result contract:
// a failed operation returns one or more field errors, a successful
// one returns the account. Internal failures are returned as plain
// errors and never as field errors.
//
// # Collaborators
//
// The service owns no state. Persistence goes through Repository,
// hashing through PasswordHasher, and the caller's session through
// session.Handle. All three are interfaces so transports and tests
// can supply their own implementations.
package account
