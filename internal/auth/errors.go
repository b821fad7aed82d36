// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Userward Contributors

package auth

import "errors"

var (
	// ErrNotFound is returned when a requested user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken is returned when an insert would violate email
	// uniqueness.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidToken is returned when a reset token matches no pending
	// reset.
	ErrInvalidToken = errors.New("invalid reset token")

	// ErrAmbiguousLookup is returned when a lookup that must identify a
	// single user matches more than one record.
	ErrAmbiguousLookup = errors.New("lookup matched more than one user")
)
