// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SocialPlatform Contributors

package account

import "errors"

// ErrNotFound is returned when a requested account does not exist.
var ErrNotFound = errors.New("not found")

// ErrUsernameTaken is returned by Repository.Insert when the username
// collides with an existing account's. The persistence layer maps its
// unique-constraint rejection to this sentinel so the service never
// races a read against a write.
var ErrUsernameTaken = errors.New("username already taken")
