// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SocialPlatform Contributors

package session

import "errors"

// ErrNotFound is returned when a requested session does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateToken is returned when a session with the same token
// hash already exists.
var ErrDuplicateToken = errors.New("duplicate token hash")
